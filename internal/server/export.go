package server

import (
	"bytes"
	"mime"
	"net/http"
	"path"
	"strconv"

	"go.abhg.dev/extractview/internal/export"
	"go.abhg.dev/extractview/internal/extract"
)

const (
	_msgNoResults    = "No results to export. Please run extraction first."
	_msgExportFailed = "Export failed. Please try again."
)

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.session(w, r).Clear()
	redirect(w, r, "/")
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger(ctx)
	store := h.session(w, r)
	format := r.PathValue("format")

	snap := store.Current()
	if snap == nil {
		store.Flash(_msgNoResults)
		redirect(w, r, "/")
		return
	}

	contentType, err := export.ContentType(format)
	if err != nil {
		log.Warn("export", "format", format, "error", err)
		store.Flash("Unsupported export format.")
		redirect(w, r, "/")
		return
	}

	resp := snap.Response
	var body []byte
	if h.localExport {
		var buf bytes.Buffer
		if err := export.Write(&buf, format, resp.Entities, resp.Events, h.now()); err != nil {
			log.Error("local export", "format", format, "error", err)
			store.Flash(_msgExportFailed)
			redirect(w, r, "/")
			return
		}
		body = buf.Bytes()
	} else {
		dl, err := h.svc.Export(ctx, format, resp.Entities, resp.Events)
		if err != nil {
			log.Error("export", "format", format, "error", err)
			store.Flash(serviceMessage(err, _msgExportFailed))
			redirect(w, r, "/")
			return
		}
		body = dl.Body
		if dl.ContentType != "" {
			contentType = dl.ContentType
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": extract.ExportFilename(format),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (h *Handler) static(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("path")
	bs, err := h.renderer.ReadStatic(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if typ := mime.TypeByExtension(path.Ext(name)); typ != "" {
		w.Header().Set("Content-Type", typ)
	}
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(bs)
}
