package annotate

import "fmt"

// BoundsError reports a span that does not fit inside the source text.
type BoundsError struct {
	Span Span

	// Index of the span in its input list.
	Index int

	// TextLen is the length of the source text in code points.
	TextLen int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%v span %d: bounds [%d, %d) outside text of length %d",
		e.Span.Kind, e.Index, e.Span.Start, e.Span.End, e.TextLen)
}

// OverlapError reports that a span starts inside a region
// already claimed by an earlier span.
type OverlapError struct {
	Overlap
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%v overlaps %v", e.Later, e.Earlier)
}
