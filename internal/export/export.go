// Package export writes extraction results as downloadable files.
//
// The formats mirror the ones produced by the extraction service's
// export endpoint, so a local export can stand in for a remote one.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/extract"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ErrUnsupportedFormat is returned for formats other than
// [FormatJSON] and [FormatCSV].
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ContentType reports the MIME type for a format.
func ContentType(format string) (string, error) {
	switch format {
	case FormatJSON:
		return "application/json", nil
	case FormatCSV:
		return "text/csv", nil
	default:
		return "", errtrace.Wrap(fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}
}

// Write writes entities and events to w in the given format.
func Write(w io.Writer, format string, entities []extract.Entity, events []extract.Event, now time.Time) error {
	switch format {
	case FormatJSON:
		return errtrace.Wrap(JSON(w, entities, events, now))
	case FormatCSV:
		return errtrace.Wrap(CSV(w, entities, events))
	default:
		return errtrace.Wrap(fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}
}

type jsonExport struct {
	Entities   []extract.Entity `json:"entities"`
	Events     []extract.Event  `json:"events"`
	ExportedAt string           `json:"exported_at"`
}

// JSON writes an indented JSON document
// holding the entities, the events, and the export time.
func JSON(w io.Writer, entities []extract.Entity, events []extract.Event, now time.Time) error {
	doc := jsonExport{
		Entities:   entities,
		Events:     events,
		ExportedAt: now.Format(time.RFC3339),
	}
	if doc.Entities == nil {
		doc.Entities = []extract.Entity{}
	}
	if doc.Events == nil {
		doc.Events = []extract.Event{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errtrace.Wrap(enc.Encode(doc))
}

var _csvHeader = []string{"Type", "Category", "Text", "Start", "End", "Confidence", "Attributes"}

// CSV writes one row per entity followed by one row per event.
//
// Missing confidences are left blank.
// Event attributes are JSON-encoded into the last column;
// entities leave it blank.
func CSV(w io.Writer, entities []extract.Entity, events []extract.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(_csvHeader); err != nil {
		return errtrace.Wrap(err)
	}

	for _, e := range entities {
		err := cw.Write([]string{
			"Entity",
			e.Type,
			e.Text,
			strconv.Itoa(e.Start),
			strconv.Itoa(e.End),
			formatConfidence(e.Confidence),
			"",
		})
		if err != nil {
			return errtrace.Wrap(err)
		}
	}

	for _, e := range events {
		attrs := e.Attributes
		if attrs == nil {
			attrs = map[string]extract.AttributeValue{}
		}
		b, err := json.Marshal(attrs)
		if err != nil {
			return errtrace.Wrap(fmt.Errorf("encode attributes of %q: %w", e.Trigger, err))
		}

		err = cw.Write([]string{
			"Event",
			e.Type,
			e.Trigger,
			strconv.Itoa(e.Start),
			strconv.Itoa(e.End),
			formatConfidence(e.Confidence),
			string(b),
		})
		if err != nil {
			return errtrace.Wrap(err)
		}
	}

	cw.Flush()
	return errtrace.Wrap(cw.Error())
}

func formatConfidence(c *float64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatFloat(*c, 'f', -1, 64)
}
