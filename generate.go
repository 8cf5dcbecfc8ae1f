package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/annotate"
	"go.abhg.dev/extractview/internal/errdefer"
	"go.abhg.dev/extractview/internal/export"
	"go.abhg.dev/extractview/internal/extract"
	"go.abhg.dev/extractview/internal/ui"
)

// Renderer renders extraction results to HTML.
type Renderer interface {
	WriteStatic(string) error
	RenderStandalone(io.Writer, string, *ui.Results) error
}

var _ Renderer = (*ui.Renderer)(nil)

// Annotator marks spans in text.
type Annotator interface {
	Render(text string, entities, events []annotate.Span) (string, error)
}

var _ Annotator = (*annotate.Renderer)(nil)

// CheckError reports that removing the annotations from a rendered text
// did not give back the text that was annotated.
type CheckError struct {
	Want, Got string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("annotated text does not round-trip:\nwant %q\n got %q", e.Want, e.Got)
}

// Generator renders saved extraction responses to standalone pages.
//
// In terms of code organization,
// Generator's purpose is to add a separation between main
// and the program's core logic to aid in testability.
type Generator struct {
	Log       *slog.Logger
	Renderer  Renderer
	Annotator Annotator
	OutDir    string

	// Check verifies that every annotated text round-trips.
	Check bool

	// Export, if set, is the format of a side file
	// holding each response's entities and events.
	Export string

	// Now is the time stamped on pages and exports.
	// Defaults to time.Now.
	Now func() time.Time
}

// Generate renders each response file into OutDir as NAME.html.
//
// A file that fails does not stop the others.
// All failures are reported together.
func (g *Generator) Generate(files []string) error {
	if err := os.MkdirAll(g.OutDir, 0o1755); err != nil {
		return errtrace.Wrap(err)
	}
	if err := g.Renderer.WriteStatic(g.OutDir); err != nil {
		return err
	}

	seen := make(map[string]string, len(files))
	var errs []error
	for _, path := range files {
		name := pageName(path)
		if other, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%v: page %q already written for %v", path, name, other))
			continue
		}
		seen[name] = path

		if err := g.generateFile(path, name); err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", path, err))
		}
	}
	return errtrace.Wrap(errors.Join(errs...))
}

func (g *Generator) generateFile(path, name string) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return errtrace.Wrap(err)
	}

	resp, err := extract.DecodeResponse(bs)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	entities, events := resp.Spans()
	markup, err := g.Annotator.Render(resp.ProcessedText, entities, events)
	if err != nil {
		return err
	}
	if g.Check {
		if err := checkRoundTrip(resp.ProcessedText, markup); err != nil {
			return err
		}
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	at := now()

	g.Log.Info("rendering",
		"file", path,
		"entities", len(resp.Entities),
		"events", len(resp.Events))
	if err := g.writePage(name, resp, at); err != nil {
		return err
	}

	if g.Export != "" {
		return g.writeExport(name, resp, at)
	}
	return nil
}

func (g *Generator) writePage(name string, resp *extract.Response, at time.Time) (err error) {
	f, err := os.Create(filepath.Join(g.OutDir, name+".html"))
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer errdefer.Close(&err, f)

	w := bufio.NewWriter(f)
	defer errdefer.Run(&err, w.Flush)

	title := name
	if resp.Filename != "" {
		title = resp.Filename
	}
	return g.Renderer.RenderStandalone(w, title, &ui.Results{
		Response: resp,
		At:       at,
	})
}

func (g *Generator) writeExport(name string, resp *extract.Response, at time.Time) (err error) {
	f, err := os.Create(filepath.Join(g.OutDir, name+"."+g.Export))
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer errdefer.Close(&err, f)

	w := bufio.NewWriter(f)
	defer errdefer.Run(&err, w.Flush)

	return export.Write(w, g.Export, resp.Entities, resp.Events, at)
}

// checkRoundTrip verifies that stripping markup gives back text.
func checkRoundTrip(text, markup string) error {
	got, err := annotate.Strip(markup)
	if err != nil {
		return err
	}
	if got != text {
		return errtrace.Wrap(&CheckError{Want: text, Got: got})
	}
	return nil
}

// pageName is the file name without its directory or extension.
func pageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
