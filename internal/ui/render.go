// Package ui renders the extractview web pages.
package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/annotate"
	"go.abhg.dev/extractview/internal/extract"
	"go.abhg.dev/extractview/internal/highlight"
)

// DefaultStaticPath is where the server exposes static files.
const DefaultStaticPath = "/static/"

// _standaloneStaticDir is where WriteStatic puts static files
// next to standalone pages.
const _standaloneStaticDir = "_static"

const _mainCSS = "css/main.css"

var (
	//go:embed tmpl/*.html
	_tmplFS embed.FS

	//go:embed static
	_staticFS embed.FS

	// Function references are unusable at parse time.
	// They are replaced on a Clone at render time,
	// so template validity is still verified at init.
	_pageTmpl = template.Must(
		template.New("page.html").
			Funcs((*render)(nil).FuncMap()).
			ParseFS(_tmplFS, "tmpl/*.html"),
	)
)

// Highlighter renders raw responses into HTML.
type Highlighter interface {
	Highlight(src []byte) string
	WriteCSS(io.Writer) error
}

var _ Highlighter = (*highlight.Highlighter)(nil)

// Renderer renders pages into HTML.
type Renderer struct {
	// Embedded renders only the page body
	// instead of a complete, stylized HTML page.
	Embedded bool

	// StaticPath is the URL path static files are served from.
	// Defaults to DefaultStaticPath.
	StaticPath string

	// Highlighter renders the raw response view.
	Highlighter Highlighter

	// Annotator marks entities and events in the processed text.
	// Defaults to an annotate.Renderer that rejects overlaps.
	Annotator *annotate.Renderer
}

func (r *Renderer) templateName() string {
	if r.Embedded {
		return "Body"
	}
	return "Page"
}

// ReadStatic reads a static file by its path relative to the static root.
// The main stylesheet includes the highlighter's classes.
func (r *Renderer) ReadStatic(name string) ([]byte, error) {
	bs, err := fs.ReadFile(_staticFS, path.Join("static", name))
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	if name == _mainCSS && r.Highlighter != nil {
		buff := bytes.NewBuffer(bs)
		buff.WriteString("\n")
		if err := r.Highlighter.WriteCSS(buff); err != nil {
			return nil, errtrace.Wrap(err)
		}
		bs = buff.Bytes()
	}
	return bs, nil
}

// WriteStatic dumps the static files into a directory
// for use by standalone pages written to that directory.
//
// This is a no-op if the renderer is running in embedded mode.
func (r *Renderer) WriteStatic(dir string) error {
	if r.Embedded {
		return nil
	}

	dir = filepath.Join(dir, _standaloneStaticDir)
	static, err := fs.Sub(_staticFS, "static")
	if err != nil {
		return errtrace.Wrap(err)
	}
	return fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == "." {
			return err
		}

		outPath := filepath.Join(dir, path)
		if d.IsDir() {
			return errtrace.Wrap(os.MkdirAll(outPath, 0o1755))
		}

		bs, err := r.ReadStatic(path)
		if err != nil {
			return err
		}
		return errtrace.Wrap(os.WriteFile(outPath, bs, 0o644))
	})
}

type pageData struct {
	*Page

	Title      string
	Standalone bool
	Res        *resultsView
}

// RenderPage renders the main page.
func (r *Renderer) RenderPage(w io.Writer, p *Page) error {
	staticPath := r.StaticPath
	if staticPath == "" {
		staticPath = DefaultStaticPath
	}

	domain := p.Domain
	if domain == "" {
		domain = extract.DefaultDomain
	}

	data := pageData{
		Page:  p,
		Title: fmt.Sprintf("%s Entity & Event Extraction", DomainName(domain)),
	}
	if p.Results != nil {
		data.Res = r.buildResults(p, p.Results)
	}
	return r.execute(w, render{StaticPath: staticPath}, &data)
}

// RenderStandalone renders a page that shows every view of res at once
// and links its stylesheet from the directory WriteStatic writes to.
func (r *Renderer) RenderStandalone(w io.Writer, title string, res *Results) error {
	p := &Page{Results: res}
	data := pageData{
		Page:       p,
		Title:      title,
		Standalone: true,
		Res:        r.buildResults(p, res),
	}
	return r.execute(w, render{StaticPath: _standaloneStaticDir + "/"}, &data)
}

func (r *Renderer) execute(w io.Writer, rnd render, data *pageData) error {
	return errtrace.Wrap(template.Must(_pageTmpl.Clone()).
		Funcs(rnd.FuncMap()).
		ExecuteTemplate(w, r.templateName(), data))
}

// resultsView is a response prepared for display.
type resultsView struct {
	*Results

	// Highlighted is the annotated processed text.
	// If annotation failed, it's the escaped plain text
	// and HighlightError says why.
	Highlighted    template.HTML
	HighlightError string

	Raw template.HTML

	Entities []extract.Entity // after filtering
	Events   []extract.Event  // after filtering

	EntityTypeOptions []string
	EventTypeOptions  []string

	EntityCounts []extract.TypeCount
	EventCounts  []extract.TypeCount
	Timeline     []extract.TimelineEntry
}

func (r *Renderer) buildResults(p *Page, res *Results) *resultsView {
	resp := res.Response
	v := resultsView{
		Results:          res,
		Entities:         extract.FilterEntities(resp.Entities, p.EntityFilter),
		Events:           extract.FilterEvents(resp.Events, p.EventFilter),
		EventTypeOptions: extract.EventTypes(resp.Events),
		EntityCounts:     resp.Statistics.EntityCounts(),
		EventCounts:      resp.Statistics.EventCounts(),
		Timeline:         extract.Timeline(resp.Events),
	}

	v.EntityTypeOptions = p.EntityTypes
	if len(v.EntityTypeOptions) == 0 {
		v.EntityTypeOptions = extract.EntityTypes(resp.Entities)
	}

	annotator := r.Annotator
	if annotator == nil {
		annotator = new(annotate.Renderer)
	}
	entities, events := resp.Spans()
	if out, err := annotator.Render(resp.ProcessedText, entities, events); err != nil {
		v.HighlightError = fmt.Sprintf("Could not highlight the text: %v", err)
		v.Highlighted = template.HTML(template.HTMLEscapeString(resp.ProcessedText))
	} else {
		v.Highlighted = template.HTML(out)
	}

	if r.Highlighter != nil {
		if raw, err := json.MarshalIndent(resp, "", "  "); err == nil {
			v.Raw = template.HTML(r.Highlighter.Highlight(raw))
		}
	}

	return &v
}

type render struct {
	StaticPath string
}

func (r *render) FuncMap() template.FuncMap {
	return template.FuncMap{
		"static":     r.static,
		"domainName": DomainName,
		"preview":    Preview,
		"confidence": extract.FormatConfidence,
		"className":  annotate.ClassName,
	}
}

func (r *render) static(p string) string {
	return r.StaticPath + p
}
