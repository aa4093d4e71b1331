package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/internal/platform/blob"
)

// MediaHandler streams image blobs out of the object store.
type MediaHandler struct {
	blobs blob.Store
}

func NewMediaHandler(blobs blob.Store) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.Get)
	return r
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.BadRequest(w, "Missing media key")
		return
	}

	rc, contentType, err := h.blobs.Open(r.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		response.NotFound(w, "Media not found")
		return
	}
	if err != nil {
		response.InternalError(w, "Failed to read media")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, rc)
}
