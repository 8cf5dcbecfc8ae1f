package highlight

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// PlainStyle is a minimal syntax highlighting style for Chroma.
// Keys stand out from values and punctuation fades slightly.
var PlainStyle = chroma.MustNewStyle("extractview-plain", map[chroma.TokenType]string{
	chroma.NameTag:         "#1f4e79",
	chroma.LiteralString:   "#2e6b30",
	chroma.LiteralNumber:   "#8a4b08",
	chroma.KeywordConstant: "#6f42c1",
	chroma.Punctuation:     "#888888",
	chroma.PreWrapper:      "bg:#f6f8fa",
	chroma.Background:      "bg:#f6f8fa",
})

func init() {
	styles.Register(PlainStyle)
}
