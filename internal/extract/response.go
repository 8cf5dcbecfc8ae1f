package extract

import (
	"encoding/json"
	"fmt"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/annotate"
)

// Entity is a named domain object found in the text.
type Entity struct {
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`

	// PatternMatched is the rule that produced this entity, if any.
	PatternMatched string `json:"pattern_matched,omitempty"`
}

// Span converts the entity for rendering.
func (e *Entity) Span() annotate.Span {
	return annotate.Span{
		Start:      e.Start,
		End:        e.End,
		Kind:       annotate.Entity,
		Label:      e.Type,
		Text:       e.Text,
		Confidence: e.Confidence,
	}
}

// Event is an occurrence identified by a trigger word or phrase.
type Event struct {
	Type       string                    `json:"type"`
	Trigger    string                    `json:"trigger"`
	Start      int                       `json:"start"`
	End        int                       `json:"end"`
	Confidence *float64                  `json:"confidence,omitempty"`
	Context    string                    `json:"context,omitempty"`
	Attributes map[string]AttributeValue `json:"attributes,omitempty"`
}

// Span converts the event for rendering.
func (e *Event) Span() annotate.Span {
	return annotate.Span{
		Start:      e.Start,
		End:        e.End,
		Kind:       annotate.Event,
		Label:      e.Type,
		Text:       e.Trigger,
		Confidence: e.Confidence,
	}
}

// Response is the result of an extraction.
type Response struct {
	Entities      []Entity   `json:"entities"`
	Events        []Event    `json:"events"`
	ProcessedText string     `json:"processed_text"`
	Statistics    Statistics `json:"statistics"`

	// Filename is set for responses to uploads.
	Filename string `json:"filename,omitempty"`

	// Error is set instead of everything else if extraction failed.
	Error string `json:"error,omitempty"`
}

// ServiceError is an error reported by the extraction service
// in the body of its response.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service: %s", e.Message)
}

// Err returns a [*ServiceError] if the response reports a failure.
func (r *Response) Err() error {
	if r.Error == "" {
		return nil
	}
	return errtrace.Wrap(&ServiceError{Message: r.Error})
}

// Spans converts the entities and events of the response for rendering.
func (r *Response) Spans() (entities, events []annotate.Span) {
	entities = make([]annotate.Span, len(r.Entities))
	for i := range r.Entities {
		entities[i] = r.Entities[i].Span()
	}
	events = make([]annotate.Span, len(r.Events))
	for i := range r.Events {
		events[i] = r.Events[i].Span()
	}
	return entities, events
}

// Normalize fills in what older or partial responses leave out:
// nil lists become empty, and missing statistics are computed.
func (r *Response) Normalize() {
	if r.Entities == nil {
		r.Entities = []Entity{}
	}
	if r.Events == nil {
		r.Events = []Event{}
	}
	if r.Statistics.empty() && (len(r.Entities) > 0 || len(r.Events) > 0) {
		r.Statistics = ComputeStatistics(r.Entities, r.Events)
	}
}

// DecodeResponse parses a response body.
func DecodeResponse(b []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("decode extraction response: %w", err))
	}
	r.Normalize()
	return &r, nil
}
