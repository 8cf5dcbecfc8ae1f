package highlight

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
)

// Highlighter turns source text into HTML.
type Highlighter struct {
	// Style used for syntax highlighting.
	Style *chroma.Style

	// UseClasses specifies whether the highlighter
	// uses inline 'style' attributes for highlighting,
	// or classes, assuming use of an appropriate style sheet.
	UseClasses bool

	// Lexer tokenizes the source.
	// Defaults to JSONLexer.
	Lexer Lexer

	once      sync.Once
	formatter *chromahtml.Formatter
}

func (h *Highlighter) init() {
	h.once.Do(func() {
		h.formatter = chromahtml.New(
			chromahtml.PreventSurroundingPre(true),
			chromahtml.WithClasses(h.UseClasses),
		)
		if h.Lexer == nil {
			h.Lexer = JSONLexer
		}
	})
}

// WriteCSS writes the style classes for this highlighter to writer.
// If this highlighter is not using classes, WriteCSS is a no-op.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	h.init()

	if !h.UseClasses {
		return nil
	}

	return errtrace.Wrap(h.formatter.WriteCSS(w, h.Style))
}

// Highlight renders src into an HTML <pre> block.
//
// If src cannot be tokenized, the block holds the error
// and src as plain escaped text instead.
func (h *Highlighter) Highlight(src []byte) string {
	h.init()

	var buf bytes.Buffer
	tokens, err := h.Lexer.Lex(src)
	if err != nil {
		buf.WriteString("<strong>Could not highlight response</strong>")
		buf.WriteString("<pre><code>")
		template.HTMLEscape(&buf, []byte(err.Error()))
		buf.WriteString("</code></pre>")
	}

	if h.UseClasses {
		fmt.Fprintf(&buf, "<pre class=%q>", chroma.StandardTypes[chroma.PreWrapper])
	} else {
		style := chromahtml.StyleEntryToCSS(h.Style.Get(chroma.PreWrapper))
		fmt.Fprintf(&buf, "<pre style=%q>", style)
	}
	if err != nil {
		template.HTMLEscape(&buf, src)
	} else if err := h.formatter.Format(&buf, h.Style, chroma.Literator(tokens...)); err != nil {
		// Formatting into a buffer only fails on broken styles.
		template.HTMLEscape(&buf, src)
	}
	buf.WriteString("</pre>")
	return buf.String()
}
