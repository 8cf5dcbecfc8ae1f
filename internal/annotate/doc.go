// Package annotate merges entity and event spans into a copy of the source
// text, wrapping each span in a highlight marker.
//
// Spans are half-open [Start, End) intervals counted in Unicode code points
// of the original text. Entities and events are rendered in a single
// left-to-right pass ordered by start offset; the pass keeps a running
// offset of how much markup has been inserted so far, so positions computed
// against the original text stay correct in the growing output.
//
// All text and attribute values written by the renderer are HTML-escaped,
// so the output can be placed into a page as-is. [Strip] reverses the
// process.
package annotate
