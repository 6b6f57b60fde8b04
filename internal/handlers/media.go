package handlers

import (
	"context"
	"net/http"

	"quizontal-backend/internal/media"
	"quizontal-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

// MediaSource is the stock media search the gallery pages read from
type MediaSource interface {
	Search(ctx context.Context, kind models.MediaKind, query string, page, perPage int) (*media.Page, error)
	Trending(ctx context.Context, page, perPage int) (*media.Page, error)
}

// MediaHandler serves gallery searches
type MediaHandler struct {
	source MediaSource
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(source MediaSource) *MediaHandler {
	return &MediaHandler{source: source}
}

// Search handles GET /api/v1/media/{kind}?q=&page=&per_page=
func (h *MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind := models.MediaKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		respondError(w, "kind must be photo, video or wallpaper", http.StatusNotFound)
		return
	}

	page, err := h.source.Search(r.Context(), kind, r.URL.Query().Get("q"), queryInt(r, "page", 1), queryInt(r, "per_page", 0))
	if err != nil {
		respondServiceError(w, r, err, "Failed to search media")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Trending handles GET /api/v1/media/trending
func (h *MediaHandler) Trending(w http.ResponseWriter, r *http.Request) {
	page, err := h.source.Trending(r.Context(), queryInt(r, "page", 1), queryInt(r, "per_page", 0))
	if err != nil {
		respondServiceError(w, r, err, "Failed to load trending media")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Categories handles GET /api/v1/media/categories
func (h *MediaHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, media.Categories())
}
