package annotate

import (
	"strings"
	"unicode/utf8"

	"braces.dev/errtrace"
	"golang.org/x/net/html"
)

// Renderer wraps spans of a text in highlight markers.
//
// The zero value is ready to use and rejects overlapping spans.
type Renderer struct {
	// Overlap decides how overlapping spans are handled.
	Overlap OverlapPolicy

	// trace, if set, observes the running offset after each span.
	trace func(offset int)
}

var _defaultRenderer Renderer

// Render wraps entities and events of text in highlight markers
// using the default [Renderer].
func Render(text string, entities, events []Span) (string, error) {
	return _defaultRenderer.Render(text, entities, events)
}

// Validate reports the first span in spans that does not fit in text.
func Validate(text string, spans []Span) error {
	n := utf8.RuneCountInString(text)
	for i, s := range spans {
		if err := checkBounds(s, i, n); err != nil {
			return err
		}
	}
	return nil
}

func checkBounds(s Span, idx, n int) error {
	if s.Start < 0 || s.End > n || s.Start > s.End {
		return errtrace.Wrap(&BoundsError{Span: s, Index: idx, TextLen: n})
	}
	return nil
}

// Render wraps entities and events of text in highlight markers.
//
// Entities are tagged [Entity] and events [Event] regardless of the Kind
// they carry. Spans are processed in order of their start offset;
// on a tie, entities come before events, and otherwise input order wins.
//
// Render fails with a [*BoundsError] if any span falls outside text,
// and, unless r.Overlap is [OverlapPassThrough],
// with an [*OverlapError] if any two spans overlap.
func (r *Renderer) Render(text string, entities, events []Span) (string, error) {
	src := []rune(text)

	spans := make([]Span, 0, len(entities)+len(events))
	for i, s := range entities {
		s.Kind = Entity
		if err := checkBounds(s, i, len(src)); err != nil {
			return "", err
		}
		spans = append(spans, s)
	}
	for i, s := range events {
		s.Kind = Event
		if err := checkBounds(s, i, len(src)); err != nil {
			return "", err
		}
		spans = append(spans, s)
	}
	spans = sortedCopy(spans)

	overlaps := findOverlaps(spans)
	if len(overlaps) == 0 {
		return renderSequential(src, spans, r.trace), nil
	}
	if r.Overlap != OverlapPassThrough {
		return "", errtrace.Wrap(&OverlapError{Overlap: overlaps[0]})
	}
	return renderOverlapping(src, spans, r.trace), nil
}

// renderSequential renders spans that do not overlap
// in a single pass over src.
func renderSequential(src []rune, spans []Span, trace func(int)) string {
	var (
		sb     strings.Builder
		offset int // runes inserted so far
		cursor int // end of the last span, in src
	)
	sb.Grow(len(src))
	emit := func(out string, consumed int) {
		sb.WriteString(out)
		offset += utf8.RuneCountInString(out) - consumed
	}

	for _, s := range spans {
		if cursor < s.Start {
			emit(escapeRunes(src[cursor:s.Start]), s.Start-cursor)
		}
		emit(marker(s, string(src[s.Start:s.End])), s.End-s.Start)
		cursor = s.End
		if trace != nil {
			trace(offset)
		}
	}
	if cursor < len(src) {
		emit(escapeRunes(src[cursor:]), len(src)-cursor)
	}
	return sb.String()
}

// renderOverlapping renders spans that may overlap.
//
// Each span is located in the partially annotated text by its original
// offsets shifted by the markup inserted before it. A span that begins
// inside an earlier one therefore cuts through that span's markup.
func renderOverlapping(src []rune, spans []Span, trace func(int)) string {
	w := workingText{runes: src}
	var cursor int // end of the furthest span processed, in src
	for _, s := range spans {
		if cursor < s.Start {
			w.escape(cursor, s.Start)
		}
		w.wrap(s)
		cursor = max(cursor, s.End)
		if trace != nil {
			trace(w.offset)
		}
	}
	if cursor < len(src) {
		w.escape(cursor, len(src))
	}
	return string(w.runes)
}

// workingText is the text being annotated.
//
// offset is the number of runes inserted so far.
// A position p in the original text is found at p+offset,
// as long as p is not behind something already replaced.
type workingText struct {
	runes  []rune
	offset int
}

// escape HTML-escapes the original region [start, end).
func (w *workingText) escape(start, end int) {
	start, end = start+w.offset, end+w.offset
	w.replace(start, end, escapeRunes(w.runes[start:end]))
}

// wrap wraps the original region of s in a marker.
func (w *workingText) wrap(s Span) {
	start, end := s.Start+w.offset, s.End+w.offset
	w.replace(start, end, marker(s, string(w.runes[start:end])))
}

func (w *workingText) replace(start, end int, with string) {
	repl := []rune(with)
	out := make([]rune, 0, len(w.runes)-(end-start)+len(repl))
	out = append(out, w.runes[:start]...)
	out = append(out, repl...)
	out = append(out, w.runes[end:]...)
	w.offset += len(repl) - (end - start)
	w.runes = out
}

// escapeRunes escapes <, >, &, ', " and carriage returns.
// Other characters, NUL included, are kept as is
// so that [Strip] gives back the original text.
func escapeRunes(rs []rune) string {
	return html.EscapeString(string(rs))
}

// marker builds the highlight element for a span around content.
func marker(s Span, content string) string {
	var sb strings.Builder
	sb.WriteString(`<span class="`)
	if s.Kind == Event {
		sb.WriteString("event-highlight")
	} else {
		sb.WriteString("entity-highlight entity-")
		sb.WriteString(ClassName(s.Label))
	}
	sb.WriteString(`" data-kind="`)
	sb.WriteString(s.Kind.String())
	sb.WriteString(`" data-label="`)
	sb.WriteString(html.EscapeString(s.Label))
	sb.WriteString(`" title="`)
	sb.WriteString(html.EscapeString(s.Tooltip()))
	sb.WriteString(`">`)
	sb.WriteString(html.EscapeString(content))
	sb.WriteString("</span>")
	return sb.String()
}

// ClassName reduces a label to characters safe in a CSS class name.
// Anything outside [A-Za-z0-9_-] becomes '-'.
func ClassName(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, label)
}
