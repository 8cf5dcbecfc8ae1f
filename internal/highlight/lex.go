package highlight

import (
	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// JSONLexer is a [Lexer] that recognizes JSON.
var JSONLexer Lexer = &chromaLexer{l: chroma.Coalesce(lexers.Get("json"))}

// Lexer analyzes source text and generates a stream of tokens.
type Lexer interface {
	Lex(src []byte) ([]chroma.Token, error)
}

// chromaLexer builds a [Lexer] from a Chroma lexer.
type chromaLexer struct{ l chroma.Lexer }

// Lex lexically analyzes the given source using Chroma.
func (cl *chromaLexer) Lex(src []byte) ([]chroma.Token, error) {
	return errtrace.Wrap2(chroma.Tokenise(cl.l, nil, string(src)))
}
