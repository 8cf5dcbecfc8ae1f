package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/extract"
	"go.abhg.dev/extractview/internal/service"
	"go.abhg.dev/extractview/internal/ui"
)

// User-facing messages.
const (
	_msgNoText        = "Please enter some text to analyze."
	_msgNoFile        = "Please select a file to upload."
	_msgExtractFailed = "An error occurred during extraction. Please try again."
	_msgBadForm       = "Could not read the submitted form."
)

func (h *Handler) extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger(ctx)
	store := h.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Warn("parse extraction form", "error", err)
		store.Flash(_msgBadForm)
		redirect(w, r, "/")
		return
	}

	tab := ui.ParseTab(r.FormValue("tab"))
	domain := r.FormValue("domain")
	if domain == "" {
		domain = extract.DefaultDomain
	}
	back := (&ui.Page{Tab: tab, Domain: domain}).Link("tab", tab)

	minConf := extract.DefaultMinConfidence
	if s := r.FormValue("min_confidence"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			store.Flash(fmt.Sprintf("Invalid minimum confidence %q.", s))
			redirect(w, r, back)
			return
		}
		minConf = v
	}
	types := r.Form["entity_types"]

	var run func(context.Context) (*extract.Response, error)
	if tab == ui.TabFile {
		up, err := h.readUpload(r)
		if err == nil {
			up.EntityTypes = types
			up.MinConfidence = minConf
			up.Domain = domain
			err = up.Validate()
		}
		if err != nil {
			store.Flash(inputMessage(err, _msgNoFile))
			redirect(w, r, back)
			return
		}
		run = func(ctx context.Context) (*extract.Response, error) {
			return h.svc.Upload(ctx, *up)
		}
	} else {
		req := extract.Request{
			Text:          strings.TrimSpace(r.FormValue("text")),
			EntityTypes:   types,
			MinConfidence: minConf,
			Domain:        domain,
		}
		if err := req.Validate(); err != nil {
			store.Flash(inputMessage(err, _msgNoText))
			redirect(w, r, back)
			return
		}
		run = func(ctx context.Context) (*extract.Response, error) {
			return h.svc.Extract(ctx, req)
		}
	}

	ticket := store.Begin()
	err := func() error {
		defer store.Finish(ticket)

		resp, err := run(ctx)
		if err != nil {
			return err
		}
		if store.Commit(ticket, resp) {
			log.Info("extraction complete",
				"entities", len(resp.Entities),
				"events", len(resp.Events),
				"domain", domain)
		} else {
			log.Debug("discarded superseded response", "ticket", ticket)
		}
		return nil
	}()
	if err != nil {
		log.Error("extraction failed", "error", err)
		store.Flash(serviceMessage(err, _msgExtractFailed))
	}
	redirect(w, r, back)
}

// readUpload reads the uploaded file of a form.
// It returns an Upload with no filename if no file was sent.
func (h *Handler) readUpload(r *http.Request) (*extract.Upload, error) {
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return &extract.Upload{}, nil
	}
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &extract.Upload{Filename: hdr.Filename, Content: content}, nil
}

// inputMessage explains why the user's input was not sent.
func inputMessage(err error, empty string) string {
	switch {
	case errors.Is(err, extract.ErrEmptyInput):
		return empty
	case errors.Is(err, extract.ErrUnsupportedFile):
		return "Only .txt and .csv files are supported."
	default:
		return "Invalid input: " + err.Error() + "."
	}
}

// serviceMessage explains a failed call to the service.
func serviceMessage(err error, fallback string) string {
	var (
		svcErr *extract.ServiceError
		apiErr *service.APIError
	)
	switch {
	case errors.As(err, &svcErr):
		return "Error: " + svcErr.Message
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return "Error: " + apiErr.Message
	default:
		return fallback
	}
}
