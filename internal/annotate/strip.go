package annotate

import (
	"errors"
	"io"
	"strings"

	"braces.dev/errtrace"
	"golang.org/x/net/html"
)

// Strip removes all markup from the output of [Render]
// and unescapes the remaining text.
//
// For spans that neither overlap nor fall outside the text,
// Strip(Render(text, ...)) == text.
func Strip(markup string) (string, error) {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", errtrace.Wrap(err)
			}
			return sb.String(), nil
		case html.TextToken:
			// Text() normalizes newlines. Raw() keeps "\r" intact.
			sb.WriteString(html.UnescapeString(string(z.Raw())))
		}
	}
}
