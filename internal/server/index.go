package server

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"go.abhg.dev/extractview/internal/extract"
	"go.abhg.dev/extractview/internal/ui"
	"golang.org/x/sync/errgroup"
)

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger(ctx)
	store := h.session(w, r)
	q := r.URL.Query()

	page := ui.Page{
		Tab:           ui.ParseTab(q.Get("tab")),
		View:          ui.ParseView(q.Get("view")),
		Domain:        q.Get("domain"),
		MinConfidence: extract.DefaultMinConfidence,
		EntityFilter:  extract.Filter{Search: q.Get("q"), Type: q.Get("type")},
		EventFilter:   extract.Filter{Search: q.Get("eq"), Type: q.Get("etype")},
	}
	if page.Domain == "" {
		page.Domain = extract.DefaultDomain
	}
	h.enumerate(ctx, &page)

	if s := q.Get("sample"); s != "" {
		if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(page.Samples) {
			page.Text = page.Samples[i]
		}
	}

	page.Flash = store.TakeFlash()
	page.Pending = store.Pending()
	if snap := store.Current(); snap != nil {
		page.Results = &ui.Results{Response: snap.Response, At: snap.At}
		if page.Text == "" && snap.Response.Filename == "" {
			page.Text = snap.Response.ProcessedText
		}
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderPage(&buf, &page); err != nil {
		log.Error("render page", "error", err)
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// enumerate fills in the domains, entity types, and samples
// offered by the service.
//
// Lookups run concurrently. A failed lookup leaves its list empty.
func (h *Handler) enumerate(ctx context.Context, page *ui.Page) {
	log := h.logger(ctx)

	var (
		g       errgroup.Group
		samples []string
	)
	g.Go(func() error {
		domains, err := h.svc.Domains(ctx)
		if err != nil {
			log.Warn("list domains", "error", err)
			return nil
		}
		page.Domains = domains
		return nil
	})
	g.Go(func() error {
		types, err := h.svc.EntityTypes(ctx, page.Domain)
		if err != nil {
			log.Warn("list entity types", "domain", page.Domain, "error", err)
			return nil
		}
		page.EntityTypes = types
		return nil
	})
	g.Go(func() error {
		var err error
		samples, err = h.svc.SampleTexts(ctx)
		if err != nil {
			log.Warn("list sample texts", "error", err)
		}
		return nil
	})
	_ = g.Wait()

	if len(page.Domains) == 0 {
		page.Domains = []string{page.Domain}
	}
	page.Samples = append(samples, h.samples...)
}
