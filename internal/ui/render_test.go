package ui

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/extractview/internal/annotate"
	"go.abhg.dev/extractview/internal/extract"
	"go.abhg.dev/extractview/internal/highlight"
	"golang.org/x/net/html"
)

func conf(f float64) *float64 { return &f }

func sampleResults() *Results {
	resp := &extract.Response{
		ProcessedText: "Patient took 5mg aspirin daily.",
		Entities: []extract.Entity{
			{Type: "DRUG", Text: "aspirin", Start: 17, End: 24, Confidence: conf(0.92), PatternMatched: "aspirin"},
			{Type: "DOSAGE", Text: "5mg", Start: 13, End: 16},
		},
		Events: []extract.Event{
			{
				Type: "ADMINISTRATION", Trigger: "took", Start: 8, End: 12, Confidence: conf(0.7),
				Attributes: map[string]extract.AttributeValue{
					"date":       extract.Scalar("2024-03-15"),
					"medication": extract.List("aspirin"),
					"patient":    extract.List(),
				},
			},
		},
	}
	resp.Normalize()
	return &Results{
		Response: resp,
		At:       time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
	}
}

func newRenderer() *Renderer {
	return &Renderer{
		Highlighter: &highlight.Highlighter{
			Style:      highlight.PlainStyle,
			UseClasses: true,
		},
	}
}

func renderPage(t *testing.T, r *Renderer, p *Page) *html.Node {
	t.Helper()

	var buff bytes.Buffer
	require.NoError(t, r.RenderPage(&buff, p))

	doc, err := html.Parse(bytes.NewReader(buff.Bytes()))
	require.NoError(t, err, "invalid HTML:\n%v", buff.String())
	return doc
}

func TestRenderer_RenderPage_input(t *testing.T) {
	t.Parallel()

	doc := renderPage(t, newRenderer(), &Page{
		Tab:           TabText,
		View:          ViewHighlighted,
		Domain:        "healthcare",
		Domains:       []string{"healthcare", "finance"},
		EntityTypes:   []string{"DRUG", "DOSAGE"},
		MinConfidence: 0.5,
		Text:          "Patient took aspirin.",
	})

	title := cascadia.MustCompile("title").MatchFirst(doc)
	require.NotNil(t, title)
	assert.Equal(t, "Healthcare Entity & Event Extraction", allText(title))

	var domains []string
	for _, opt := range cascadia.MustCompile("#domain-select option").MatchAll(doc) {
		domains = append(domains, allText(opt))
	}
	assert.Equal(t, []string{"Healthcare", "Finance"}, domains)

	selected := cascadia.MustCompile("#domain-select option[selected]").MatchFirst(doc)
	require.NotNil(t, selected)
	assert.Equal(t, "healthcare", attr(selected, "value"))

	boxes := cascadia.MustCompile(`#entity-checkboxes input[type="checkbox"][checked]`).MatchAll(doc)
	assert.Len(t, boxes, 2)

	textarea := cascadia.MustCompile("#input-text").MatchFirst(doc)
	require.NotNil(t, textarea)
	assert.Equal(t, "Patient took aspirin.", allText(textarea))

	active := cascadia.MustCompile("#input-tabs .active").MatchFirst(doc)
	require.NotNil(t, active)
	assert.Equal(t, "Text Input", allText(active))

	assert.Nil(t, cascadia.MustCompile("#results").MatchFirst(doc))
	assert.Nil(t, cascadia.MustCompile("#flash").MatchFirst(doc))
}

func TestRenderer_RenderPage_tabs(t *testing.T) {
	t.Parallel()

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		doc := renderPage(t, newRenderer(), &Page{Tab: TabFile, View: ViewHighlighted})
		input := cascadia.MustCompile(`#file-input[type="file"]`).MatchFirst(doc)
		require.NotNil(t, input)
		assert.Equal(t, ".txt,.csv", attr(input, "accept"))
		assert.Nil(t, cascadia.MustCompile("#input-text").MatchFirst(doc))
	})

	t.Run("samples", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("x", 200)
		doc := renderPage(t, newRenderer(), &Page{
			Tab:     TabSamples,
			View:    ViewHighlighted,
			Domain:  "finance",
			Samples: []string{"Patient took aspirin.", long},
		})

		items := cascadia.MustCompile("#sample-texts .sample-text-item").MatchAll(doc)
		require.Len(t, items, 2)
		assert.Equal(t, "/?domain=finance&sample=0&tab=text", attr(items[0], "href"))
		assert.Equal(t, strings.Repeat("x", 150)+"...", allText(items[1]))
		assert.Nil(t, cascadia.MustCompile("#extract-form").MatchFirst(doc))
	})
}

func TestRenderer_RenderPage_flash(t *testing.T) {
	t.Parallel()

	doc := renderPage(t, newRenderer(), &Page{
		Flash:   "Please enter some text to analyze.",
		Pending: true,
	})

	flash := cascadia.MustCompile("#flash").MatchFirst(doc)
	require.NotNil(t, flash)
	assert.Equal(t, "Please enter some text to analyze.", allText(flash))
	assert.NotNil(t, cascadia.MustCompile("#pending").MatchFirst(doc))
}

func TestRenderer_RenderPage_views(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		view string
		want string // selector that must match
	}{
		{desc: "default", view: "", want: "#highlighted-tab"},
		{desc: "highlighted", view: ViewHighlighted, want: "#highlighted-text .entity-highlight"},
		{desc: "entities", view: ViewEntities, want: "#entities-list .entity-item"},
		{desc: "events", view: ViewEvents, want: "#events-list .event-item"},
		{desc: "statistics", view: ViewStatistics, want: "#entity-statistics"},
		{desc: "timeline", view: ViewTimeline, want: ".timeline .timeline-item"},
		{desc: "raw", view: ViewRaw, want: "#raw-tab pre.chroma"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			doc := renderPage(t, newRenderer(), &Page{
				View:    tt.view,
				Domain:  "healthcare",
				Results: sampleResults(),
			})
			assert.NotNil(t, cascadia.MustCompile(tt.want).MatchFirst(doc),
				"no match for %q", tt.want)
			assert.Len(t, cascadia.MustCompile(".result-view").MatchAll(doc), 1)
			assert.NotNil(t, cascadia.MustCompile("#export-json").MatchFirst(doc))
			assert.NotNil(t, cascadia.MustCompile("#export-csv").MatchFirst(doc))
		})
	}
}

func TestRenderer_RenderPage_highlighted(t *testing.T) {
	t.Parallel()

	doc := renderPage(t, newRenderer(), &Page{Results: sampleResults()})

	container := cascadia.MustCompile("#highlighted-text").MatchFirst(doc)
	require.NotNil(t, container)
	assert.Equal(t, "Patient took 5mg aspirin daily.", allText(container))

	var titles []string
	for _, n := range cascadia.MustCompile("#highlighted-text span[title]").MatchAll(container) {
		titles = append(titles, attr(n, "title"))
	}
	assert.Equal(t, []string{"Event: ADMINISTRATION", "DOSAGE (N/A)", "DRUG (0.92)"}, titles)
}

func TestRenderer_RenderPage_highlightEscapes(t *testing.T) {
	t.Parallel()

	res := &Results{Response: &extract.Response{
		ProcessedText: "<script>alert(1)</script> took",
		Events: []extract.Event{
			{Type: "<b>", Trigger: "took", Start: 26, End: 30},
		},
	}}
	doc := renderPage(t, newRenderer(), &Page{Results: res})

	assert.Nil(t, cascadia.MustCompile("script").MatchFirst(doc))
	container := cascadia.MustCompile("#highlighted-text").MatchFirst(doc)
	require.NotNil(t, container)
	assert.Equal(t, "<script>alert(1)</script> took", allText(container))

	ev := cascadia.MustCompile(".event-highlight").MatchFirst(container)
	require.NotNil(t, ev)
	assert.Equal(t, "Event: <b>", attr(ev, "title"))
}

func TestRenderer_RenderPage_highlightError(t *testing.T) {
	t.Parallel()

	res := &Results{Response: &extract.Response{
		ProcessedText: "chest pain",
		Entities: []extract.Entity{
			{Type: "SYMPTOM", Text: "chest pain", Start: 0, End: 10},
		},
		Events: []extract.Event{
			{Type: "COMPLAINT", Trigger: "pain", Start: 6, End: 10},
		},
	}}

	t.Run("reject", func(t *testing.T) {
		t.Parallel()

		doc := renderPage(t, newRenderer(), &Page{Results: res})
		container := cascadia.MustCompile("#highlighted-text").MatchFirst(doc)
		require.NotNil(t, container)
		assert.Equal(t, "chest pain", allText(container))
		assert.Nil(t, cascadia.MustCompile("span").MatchFirst(container))

		alert := cascadia.MustCompile(`#highlighted-tab [role="alert"]`).MatchFirst(doc)
		require.NotNil(t, alert)
		assert.Contains(t, allText(alert), "Could not highlight the text")
	})

	t.Run("pass through", func(t *testing.T) {
		t.Parallel()

		r := newRenderer()
		r.Annotator = &annotate.Renderer{Overlap: annotate.OverlapPassThrough}
		doc := renderPage(t, r, &Page{Results: res})

		assert.Nil(t, cascadia.MustCompile(`#highlighted-tab [role="alert"]`).MatchFirst(doc))
		assert.NotNil(t, cascadia.MustCompile("#highlighted-text .entity-highlight").MatchFirst(doc))
	})
}

func TestRenderer_RenderPage_filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc   string
		filter extract.Filter
		want   []string // entity types shown
	}{
		{desc: "none", want: []string{"DRUG", "DOSAGE"}},
		{desc: "search", filter: extract.Filter{Search: "ASPIRIN"}, want: []string{"DRUG"}},
		{desc: "type", filter: extract.Filter{Type: "DOSAGE"}, want: []string{"DOSAGE"}},
		{desc: "no match", filter: extract.Filter{Search: "ibuprofen"}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			doc := renderPage(t, newRenderer(), &Page{
				View:         ViewEntities,
				EntityTypes:  []string{"DRUG", "DOSAGE", "ALLERGY"},
				EntityFilter: tt.filter,
				Results:      sampleResults(),
			})

			var got []string
			for _, n := range cascadia.MustCompile("#entities-list .entity-type").MatchAll(doc) {
				got = append(got, allText(n))
			}
			assert.Equal(t, tt.want, got)

			if len(tt.want) == 0 {
				list := cascadia.MustCompile("#entities-list").MatchFirst(doc)
				require.NotNil(t, list)
				assert.Equal(t, "No entities found.", strings.TrimSpace(allText(list)))
			}

			opts := cascadia.MustCompile("#entity-type-filter option").MatchAll(doc)
			assert.Len(t, opts, 4, "All Types plus the domain's entity types")
		})
	}
}

func TestRenderer_RenderPage_events(t *testing.T) {
	t.Parallel()

	doc := renderPage(t, newRenderer(), &Page{
		View:    ViewEvents,
		Results: sampleResults(),
	})

	var attrs []string
	for _, n := range cascadia.MustCompile("#events-list .attribute-item").MatchAll(doc) {
		attrs = append(attrs, allText(n))
	}
	assert.Equal(t, []string{"date: 2024-03-15", "medication: aspirin"}, attrs)

	score := cascadia.MustCompile("#events-list .confidence-score").MatchFirst(doc)
	require.NotNil(t, score)
	assert.Equal(t, "0.70", allText(score))
}

func TestRenderer_RenderPage_embedded(t *testing.T) {
	t.Parallel()

	r := newRenderer()
	r.Embedded = true

	var buff bytes.Buffer
	require.NoError(t, r.RenderPage(&buff, &Page{Results: sampleResults()}))
	assert.NotContains(t, buff.String(), "<title>")
	assert.NotContains(t, buff.String(), "<!DOCTYPE")
	assert.Contains(t, buff.String(), `id="results"`)
}

func TestRenderer_RenderStandalone(t *testing.T) {
	t.Parallel()

	var buff bytes.Buffer
	require.NoError(t, newRenderer().RenderStandalone(&buff, "notes.json", sampleResults()))

	doc, err := html.Parse(&buff)
	require.NoError(t, err)

	title := cascadia.MustCompile("title").MatchFirst(doc)
	require.NotNil(t, title)
	assert.Equal(t, "notes.json", allText(title))

	for _, sel := range []string{
		"#highlighted-tab", "#entities-tab", "#events-tab", "#statistics-tab", "#timeline-tab",
	} {
		assert.NotNil(t, cascadia.MustCompile(sel).MatchFirst(doc), "missing %q", sel)
	}
	assert.Nil(t, cascadia.MustCompile("form").MatchFirst(doc))
	assert.Nil(t, cascadia.MustCompile("#export-json").MatchFirst(doc))

	link := cascadia.MustCompile(`link[rel="stylesheet"]`).MatchFirst(doc)
	require.NotNil(t, link)
	assert.Equal(t, "_static/css/main.css", attr(link, "href"))
}

func TestRenderer_WriteStatic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, newRenderer().WriteStatic(dir))

	var want []string
	err := fs.WalkDir(_staticFS, "static", func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		want = append(want, strings.TrimPrefix(path, "static"))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(want)

	var got []string
	err = fs.WalkDir(os.DirFS(dir), _standaloneStaticDir, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		got = append(got, strings.TrimPrefix(path, _standaloneStaticDir))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, want, got)

	css, err := os.ReadFile(filepath.Join(dir, _standaloneStaticDir, "css", "main.css"))
	require.NoError(t, err)
	assert.Contains(t, string(css), ".entity-highlight")
	assert.Contains(t, string(css), ".chroma")
}

func TestRenderer_WriteStatic_embedded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, (&Renderer{Embedded: true}).WriteStatic(dir))

	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestRenderer_ReadStatic_missing(t *testing.T) {
	t.Parallel()

	_, err := newRenderer().ReadStatic("css/missing.css")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func allText(n *html.Node) string {
	var (
		sb    strings.Builder
		visit func(*html.Node)
	)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
