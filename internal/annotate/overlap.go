package annotate

import "sort"

// OverlapPolicy decides what [Renderer] does with overlapping spans.
type OverlapPolicy int

const (
	// OverlapReject fails rendering with an [*OverlapError].
	OverlapReject OverlapPolicy = iota

	// OverlapPassThrough renders overlapping spans anyway.
	//
	// A span that starts inside an earlier span's marker slices through
	// that marker's markup, so the output is visibly broken.
	// The extraction service is expected not to emit such spans.
	OverlapPassThrough
)

// Overlap is a pair of spans that cannot both be wrapped cleanly.
type Overlap struct {
	// Earlier is the span processed first:
	// the one reaching furthest into the text so far.
	Earlier Span

	// Later starts before Earlier ends.
	Later Span
}

// Overlaps reports every span that starts inside a region claimed by an
// earlier span, using the same ordering as [Render].
//
// Spans that touch at a boundary do not overlap.
// A zero-length span placed after a non-empty span with the same start
// does overlap: its marker would land inside the earlier marker.
func Overlaps(spans []Span) []Overlap {
	return findOverlaps(sortedCopy(spans))
}

func findOverlaps(sorted []Span) []Overlap {
	var (
		out     []Overlap
		reach   Span
		reached bool
	)
	for _, s := range sorted {
		if reached && s.Start < reach.End {
			out = append(out, Overlap{Earlier: reach, Later: s})
		}
		if !reached || s.End > reach.End {
			reach, reached = s, true
		}
	}
	return out
}

// sortedCopy orders spans by start offset.
// Spans with the same start keep their relative input order.
func sortedCopy(spans []Span) []Span {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}
