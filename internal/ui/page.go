package ui

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.abhg.dev/extractview/internal/extract"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Input tabs.
const (
	TabText    = "text"
	TabFile    = "file"
	TabSamples = "samples"
)

// Result views.
const (
	ViewHighlighted = "highlighted"
	ViewEntities    = "entities"
	ViewEvents      = "events"
	ViewStatistics  = "statistics"
	ViewTimeline    = "timeline"
	ViewRaw         = "raw"
)

// Tab is a selectable tab on the page.
type Tab struct {
	Name  string
	Label string
}

var (
	_inputTabs = []Tab{
		{TabText, "Text Input"},
		{TabFile, "File Upload"},
		{TabSamples, "Sample Texts"},
	}
	_resultViews = []Tab{
		{ViewHighlighted, "Highlighted Text"},
		{ViewEntities, "Entities"},
		{ViewEvents, "Events"},
		{ViewStatistics, "Statistics"},
		{ViewTimeline, "Timeline"},
		{ViewRaw, "Raw Response"},
	}
)

// ParseTab returns tab if it names an input tab,
// and [TabText] otherwise.
func ParseTab(tab string) string {
	return parseTab(_inputTabs, tab)
}

// ParseView returns view if it names a result view,
// and [ViewHighlighted] otherwise.
func ParseView(view string) string {
	return parseTab(_resultViews, view)
}

func parseTab(tabs []Tab, name string) string {
	for _, t := range tabs {
		if t.Name == name {
			return name
		}
	}
	return tabs[0].Name
}

// Page holds everything shown on the main page.
type Page struct {
	Tab  string // input tab
	View string // result view

	// Flash is a one-time message shown at the top of the page.
	Flash string

	// Pending is set while an extraction request is in flight.
	Pending bool

	Domain        string
	Domains       []string
	EntityTypes   []string // of Domain
	MinConfidence float64
	Samples       []string

	// Text pre-fills the text input.
	Text string

	EntityFilter extract.Filter
	EventFilter  extract.Filter

	// Results is nil until an extraction succeeds.
	Results *Results
}

// Results is a committed extraction response.
type Results struct {
	Response *extract.Response
	At       time.Time
}

// InputTabs lists the input tabs in display order.
func (*Page) InputTabs() []Tab { return _inputTabs }

// ResultViews lists the result views in display order.
func (*Page) ResultViews() []Tab { return _resultViews }

// query is the page state carried across links.
func (p *Page) query() url.Values {
	q := make(url.Values)
	set := func(k, v, zero string) {
		if v != "" && v != zero {
			q.Set(k, v)
		}
	}
	set("tab", p.Tab, TabText)
	set("view", p.View, ViewHighlighted)
	set("domain", p.Domain, extract.DefaultDomain)
	set("q", p.EntityFilter.Search, "")
	set("type", p.EntityFilter.Type, "")
	set("eq", p.EventFilter.Search, "")
	set("etype", p.EventFilter.Type, "")
	return q
}

// Link returns a link to this page with one query parameter changed.
func (p *Page) Link(key, value string) string {
	q := p.query()
	if value == "" {
		q.Del(key)
	} else {
		q.Set(key, value)
	}
	return pageURL(q)
}

// SampleLink returns a link that loads the i-th sample text
// into the text input.
func (p *Page) SampleLink(i int) string {
	q := p.query()
	q.Set("tab", TabText)
	q.Set("sample", strconv.Itoa(i))
	return pageURL(q)
}

func pageURL(q url.Values) string {
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// DomainName formats a domain identifier for display.
//
//	DomainName("healthcare")     // "Healthcare"
//	DomainName("clinical_trials") // "Clinical Trials"
func DomainName(domain string) string {
	// Casers hold state and cannot be shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(domain, "_", " "))
}

const _previewLen = 150

// Preview shortens text to a one-glance preview.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= _previewLen {
		return text
	}
	return string(runes[:_previewLen]) + "..."
}
