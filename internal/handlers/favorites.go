package handlers

import (
	"net/http"

	"quizontal-backend/internal/membership"
	"quizontal-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

// FavoriteHandler handles the signed-in user's favorites
type FavoriteHandler struct {
	sessions *membership.Manager
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(sessions *membership.Manager) *FavoriteHandler {
	return &FavoriteHandler{sessions: sessions}
}

// ToggleRequest is the body of POST /favorites/toggle
type ToggleRequest struct {
	Media models.MediaItem `json:"media"`
}

// List handles GET /api/v1/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"favorites": sess.Favorites.Favorites()})
}

// Toggle handles POST /api/v1/favorites/toggle
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	favorite, err := sess.Favorites.ToggleFavorite(r.Context(), req.Media)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update favorites")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"media_id": req.Media.ID, "favorite": favorite})
}

// Check handles GET /api/v1/favorites/{media_id}
func (h *FavoriteHandler) Check(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	mediaID := chi.URLParam(r, "media_id")
	respondJSON(w, http.StatusOK, map[string]interface{}{"media_id": mediaID, "favorite": sess.Favorites.IsFavorite(mediaID)})
}
