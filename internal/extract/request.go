package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"braces.dev/errtrace"
)

var (
	// ErrEmptyInput indicates that there was no text or file to extract from.
	ErrEmptyInput = errors.New("no text provided")

	// ErrUnsupportedFile indicates an upload that is not a .txt or .csv file.
	ErrUnsupportedFile = errors.New("only .txt and .csv files are supported")
)

// DefaultDomain is used when a request does not name a domain.
const DefaultDomain = "healthcare"

// DefaultMinConfidence is the confidence threshold used by the UI
// before the user picks one.
const DefaultMinConfidence = 0.5

// Request asks the service to extract entities and events from text.
type Request struct {
	Text          string   `json:"text"`
	EntityTypes   []string `json:"entity_types"`
	MinConfidence float64  `json:"min_confidence"`
	Domain        string   `json:"domain"`
}

// Validate reports whether the request is worth sending.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errtrace.Wrap(ErrEmptyInput)
	}
	return errtrace.Wrap(validateConfidence(r.MinConfidence))
}

// Upload asks the service to extract entities and events from a file.
type Upload struct {
	Filename      string
	Content       []byte
	EntityTypes   []string
	MinConfidence float64
	Domain        string
}

// Validate reports whether the upload is worth sending.
func (u *Upload) Validate() error {
	if u.Filename == "" {
		return errtrace.Wrap(ErrEmptyInput)
	}
	switch strings.ToLower(filepath.Ext(u.Filename)) {
	case ".txt", ".csv":
	default:
		return errtrace.Wrap(fmt.Errorf("%q: %w", u.Filename, ErrUnsupportedFile))
	}
	return errtrace.Wrap(validateConfidence(u.MinConfidence))
}

func validateConfidence(c float64) error {
	if c < 0 || c > 1 {
		return fmt.Errorf("minimum confidence %v must be between 0 and 1", c)
	}
	return nil
}

// ExportFilename is the name under which an export in the given format
// is offered for download.
func ExportFilename(format string) string {
	return "healthcare_extraction." + format
}
