// Package server serves the extractview web UI.
//
// Each browser gets a session, identified by a cookie,
// whose results are kept in a [results.Store].
// Pages are rendered on the server; forms post back
// and redirect to the page so that reloads are harmless.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.abhg.dev/extractview/internal/extract"
	"go.abhg.dev/extractview/internal/results"
	"go.abhg.dev/extractview/internal/service"
	"go.abhg.dev/extractview/internal/ui"
)

// SessionCookie is the name of the cookie holding the session ID.
const SessionCookie = "extractview_session"

// Service is the extraction service the UI talks to.
type Service interface {
	Extract(context.Context, extract.Request) (*extract.Response, error)
	Upload(context.Context, extract.Upload) (*extract.Response, error)
	Export(ctx context.Context, format string, entities []extract.Entity, events []extract.Event) (*service.Download, error)
	Domains(context.Context) ([]string, error)
	EntityTypes(ctx context.Context, domain string) ([]string, error)
	SampleTexts(context.Context) ([]string, error)
}

var _ Service = (*service.Client)(nil)

// Config configures a [Handler].
type Config struct {
	Service  Service
	Renderer *ui.Renderer

	// Sessions holds per-browser results.
	// A fresh set is used if unset.
	Sessions *results.Sessions

	Logger *slog.Logger

	// LocalExport builds exports in-process
	// instead of asking the service.
	LocalExport bool

	// Samples are offered in addition to the service's sample texts.
	Samples []string

	// MaxUploadSize bounds file uploads.
	// Defaults to DefaultMaxUploadSize.
	MaxUploadSize int64
}

// DefaultMaxUploadSize is the largest file accepted for upload.
const DefaultMaxUploadSize = 10 << 20

// Handler serves the web UI.
type Handler struct {
	svc         Service
	renderer    *ui.Renderer
	sessions    *results.Sessions
	log         *slog.Logger
	localExport bool
	samples     []string
	maxUpload   int64
	now         func() time.Time
}

// New builds a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		svc:         cfg.Service,
		renderer:    cfg.Renderer,
		sessions:    cfg.Sessions,
		log:         cfg.Logger,
		localExport: cfg.LocalExport,
		samples:     cfg.Samples,
		maxUpload:   cfg.MaxUploadSize,
		now:         time.Now,
	}
	if h.sessions == nil {
		h.sessions = new(results.Sessions)
	}
	if h.log == nil {
		h.log = slog.New(slog.DiscardHandler)
	}
	if h.renderer == nil {
		h.renderer = new(ui.Renderer)
	}
	if h.maxUpload <= 0 {
		h.maxUpload = DefaultMaxUploadSize
	}
	return h
}

// Register installs the UI's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /extract", h.extract)
	mux.HandleFunc("POST /clear", h.clear)
	mux.HandleFunc("GET /export/{format}", h.export)
	mux.HandleFunc("GET /static/{path...}", h.static)
	mux.HandleFunc("GET /healthz", h.health)
}

// SweepSessions drops idle sessions every interval until ctx is done.
func (h *Handler) SweepSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.sessions.Sweep(); n > 0 {
				h.log.Debug("dropped idle sessions", "count", n, "remaining", h.sessions.Len())
			}
		}
	}
}

// session returns the store for the request's session,
// starting a new session if the request has none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *results.Store {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if store, ok := h.sessions.Get(c.Value); ok {
			return store
		}
	}

	id, store := h.sessions.New()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// logger returns the handler's logger tagged with the request ID.
func (h *Handler) logger(ctx context.Context) *slog.Logger {
	if id := RequestIDFrom(ctx); id != "" {
		return h.log.With("request_id", id)
	}
	return h.log
}

// redirect sends the browser back to a page with a GET.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
