// Package servicetest provides an in-process fake of the extraction service.
package servicetest

import (
	"cmp"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"go.abhg.dev/extractview/internal/extract"
)

// Call is a request received by the fake.
type Call struct {
	Method string
	Path   string

	// Extract is the decoded body of text extraction requests,
	// and holds the form fields of uploads.
	Extract extract.Request

	// Filename of an uploaded file.
	Filename string

	// Body is the raw body of export requests.
	Body []byte
}

// Service is a fake extraction service.
//
// Extraction finds every occurrence of the configured Words
// and reports it as an entity of the mapped type.
// Every occurrence of the configured Triggers becomes an event.
type Service struct {
	// Words maps a literal word to its entity type.
	Words map[string]string

	// Triggers maps a literal trigger to its event type.
	Triggers map[string]string

	// EntityTypesByDomain backs the enumeration endpoints.
	EntityTypesByDomain map[string][]string

	// Samples are returned from the sample data endpoint.
	Samples []string

	// Fail, if set, makes the named path respond with this status
	// and an {"error": ...} body.
	Fail map[string]int

	// ExportPadding appends this many trailing newlines
	// to export bodies.
	ExportPadding int

	mu    sync.Mutex
	calls []Call
}

// New starts the fake service and stops it when the test ends.
func New(t testing.TB, svc *Service) *httptest.Server {
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return srv
}

// Calls returns the requests received so far.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Service) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: r.Method, Path: r.URL.Path}
	defer func() { s.record(call) }()

	if code, ok := s.Fail[r.URL.Path]; ok {
		writeJSON(w, code, map[string]string{"error": "fake failure"})
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/domains":
		domains := make([]string, 0, len(s.EntityTypesByDomain))
		for d := range s.EntityTypesByDomain {
			domains = append(domains, d)
		}
		writeJSON(w, http.StatusOK, map[string][]string{"domains": slices.Sorted(slices.Values(domains))})

	case r.Method == http.MethodGet && r.URL.Path == "/api/entity-types":
		types := s.EntityTypesByDomain[r.URL.Query().Get("domain")]
		if types == nil {
			types = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"entity_types": types})

	case r.Method == http.MethodGet && r.URL.Path == "/api/sample-data":
		writeJSON(w, http.StatusOK, map[string][]string{"sample_texts": s.Samples})

	case r.Method == http.MethodPost && r.URL.Path == "/api/extract":
		if err := json.NewDecoder(r.Body).Decode(&call.Extract); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if strings.TrimSpace(call.Extract.Text) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No text provided"})
			return
		}
		writeJSON(w, http.StatusOK, s.extract(call.Extract.Text, ""))

	case r.Method == http.MethodPost && r.URL.Path == "/api/upload":
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
			return
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		call.Filename = hdr.Filename
		call.Extract = extract.Request{
			Text:        string(content),
			EntityTypes: r.MultipartForm.Value["entity_types"],
			Domain:      r.FormValue("domain"),
		}
		call.Extract.MinConfidence, _ = strconv.ParseFloat(r.FormValue("min_confidence"), 64)
		writeJSON(w, http.StatusOK, s.extract(string(content), hdr.Filename))

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/export/"):
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		call.Body = body

		switch format := strings.TrimPrefix(r.URL.Path, "/api/export/"); format {
		case "json":
			w.Header().Set("Content-Type", "application/json")
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported export format"})
			return
		}
		_, _ = w.Write(body)
		_, _ = io.WriteString(w, strings.Repeat("\n", s.ExportPadding))

	default:
		http.NotFound(w, r)
	}
}

// extract finds words and triggers in text.
// Offsets are counted in code points.
func (s *Service) extract(text, filename string) *extract.Response {
	resp := extract.Response{
		Entities:      []extract.Entity{},
		Events:        []extract.Event{},
		ProcessedText: text,
		Filename:      filename,
	}
	for _, m := range findAll(text, s.Words) {
		conf := 0.9
		resp.Entities = append(resp.Entities, extract.Entity{
			Type:           m.label,
			Text:           m.text,
			Start:          m.start,
			End:            m.end,
			Confidence:     &conf,
			PatternMatched: strings.ToLower(m.text),
		})
	}
	for _, m := range findAll(text, s.Triggers) {
		conf := 0.7
		resp.Events = append(resp.Events, extract.Event{
			Type:       m.label,
			Trigger:    m.text,
			Start:      m.start,
			End:        m.end,
			Confidence: &conf,
		})
	}
	resp.Statistics = extract.ComputeStatistics(resp.Entities, resp.Events)
	return &resp
}

type match struct {
	label, text string
	start, end  int
}

func findAll(text string, words map[string]string) []match {
	runes := []rune(text)
	var out []match
	for word, label := range words {
		w := []rune(word)
		for i := 0; i+len(w) <= len(runes); i++ {
			if string(runes[i:i+len(w)]) == word {
				out = append(out, match{label: label, text: word, start: i, end: i + len(w)})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b match) int { return cmp.Compare(a.start, b.start) })
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
