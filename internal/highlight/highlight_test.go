package highlight

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// textContent returns the concatenated text nodes of an HTML fragment.
func textContent(t *testing.T, s string) string {
	t.Helper()

	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	})
	require.NoError(t, err)

	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return sb.String()
}

func TestHighlighter_Highlight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		give string
	}{
		{desc: "empty object", give: "{}"},
		{
			desc: "response",
			give: `{
  "entities": [{"text": "aspirin", "start": 17, "end": 24, "confidence": 0.92}],
  "events": [],
  "processed_text": "Patient took 5mg aspirin daily."
}`,
		},
		{
			desc: "markup in strings",
			give: `{"text": "<script>alert(1)</script> & more"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			h := Highlighter{
				Style:      PlainStyle,
				UseClasses: true,
			}
			got := h.Highlight([]byte(tt.give))

			assert.True(t, strings.HasPrefix(got, `<pre class="chroma">`), "got %q", got)
			assert.True(t, strings.HasSuffix(got, "</pre>"), "got %q", got)
			assert.NotContains(t, got, "<script>")
			assert.Equal(t, tt.give, textContent(t, got))
		})
	}
}

func TestHighlighter_Highlight_noClasses(t *testing.T) {
	t.Parallel()

	h := Highlighter{Style: PlainStyle}
	got := h.Highlight([]byte(`{"a": 1}`))

	assert.True(t, strings.HasPrefix(got, `<pre style="background-color: #f6f8fa">`), "got %q", got)
	assert.Contains(t, got, `style="color:`)
	assert.NotContains(t, got, `class=`)
}

type failingLexer struct{ err error }

func (l failingLexer) Lex([]byte) ([]chroma.Token, error) {
	return nil, l.err
}

func TestHighlighter_Highlight_lexError(t *testing.T) {
	t.Parallel()

	h := Highlighter{
		Style:      PlainStyle,
		UseClasses: true,
		Lexer:      failingLexer{err: errors.New("bad <input>")},
	}
	got := h.Highlight([]byte(`{"a": "<b>"}`))

	assert.Equal(t,
		"<strong>Could not highlight response</strong>"+
			"<pre><code>bad &lt;input&gt;</code></pre>"+
			`<pre class="chroma">{&#34;a&#34;: &#34;&lt;b&gt;&#34;}</pre>`,
		got)
}

func TestHighlighter_WriteCSS(t *testing.T) {
	t.Parallel()

	t.Run("classes", func(t *testing.T) {
		t.Parallel()

		h := Highlighter{Style: PlainStyle, UseClasses: true}
		var sb strings.Builder
		require.NoError(t, h.WriteCSS(&sb))
		assert.Contains(t, sb.String(), ".chroma")
	})

	t.Run("inline", func(t *testing.T) {
		t.Parallel()

		h := Highlighter{Style: PlainStyle}
		var sb strings.Builder
		require.NoError(t, h.WriteCSS(&sb))
		assert.Empty(t, sb.String())
	})
}
