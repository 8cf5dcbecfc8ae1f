package annotate

import (
	"fmt"
	"strconv"
)

// Kind identifies what a [Span] annotates.
type Kind int

const (
	// Entity is a named domain object, e.g. a drug name.
	Entity Kind = iota + 1

	// Event is the trigger word or phrase of an occurrence.
	Event
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Entity:
		return "entity"
	case Event:
		return "event"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Span is a region of the source text tagged with a kind and label.
type Span struct {
	// Start and End delimit the region [Start, End)
	// in code points of the original text.
	Start, End int

	// Kind of annotation.
	//
	// Render overrides this based on which list the span came from.
	Kind Kind

	// Label is the entity or event type, e.g. "DRUG".
	Label string

	// Text is the matched substring or event trigger
	// as reported by the extraction service.
	Text string

	// Confidence of the match, if reported.
	Confidence *float64
}

// Len is the number of code points covered by the span.
func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("%v %q [%d, %d)", s.Kind, s.Label, s.Start, s.End)
}

// Tooltip is the description attached to the span's marker.
//
// Entities read "LABEL (confidence)", with "N/A" when the confidence
// is missing or zero. Events read "Event: LABEL".
func (s Span) Tooltip() string {
	if s.Kind == Event {
		return "Event: " + s.Label
	}
	conf := "N/A"
	if s.Confidence != nil && *s.Confidence != 0 {
		conf = strconv.FormatFloat(*s.Confidence, 'f', -1, 64)
	}
	return s.Label + " (" + conf + ")"
}
