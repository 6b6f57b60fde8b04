package handlers

import (
	"net/http"

	"quizontal-backend/internal/membership"
	"quizontal-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// CollectionHandler handles collection requests for the signed-in user
type CollectionHandler struct {
	sessions *membership.Manager
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(sessions *membership.Manager) *CollectionHandler {
	return &CollectionHandler{sessions: sessions}
}

// CollectionRequest is the body of POST and PATCH /collections
type CollectionRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Visibility  models.Visibility `json:"visibility"`
}

// AddItemRequest is the body of POST /collections/{id}/items
type AddItemRequest struct {
	Media models.MediaItem `json:"media"`
}

// List handles GET /api/v1/collections
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"collections": sess.Collections.ListCollections(),
	})
}

// Reload handles POST /api/v1/collections/reload. Clients call it after a
// not-found to rebuild the cached library from the store.
func (h *CollectionHandler) Reload(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	if err := sess.Load(r.Context()); err != nil {
		respondServiceError(w, r, err, "Failed to reload your library")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"collections": sess.Collections.ListCollections(),
	})
}

// Create handles POST /api/v1/collections
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	col, err := sess.Collections.CreateCollection(r.Context(), req.Name, req.Description, req.Visibility)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create collection")
		return
	}
	log.Info().Str("user_id", sess.Identity.UserID).Str("collection_id", col.ID).Msg("Collection created")
	respondJSON(w, http.StatusCreated, col)
}

// Update handles PATCH /api/v1/collections/{id}
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	col, err := sess.Collections.UpdateCollection(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description, req.Visibility)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update collection")
		return
	}
	respondJSON(w, http.StatusOK, col)
}

// Delete handles DELETE /api/v1/collections/{id}
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := sess.Collections.DeleteCollection(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "Failed to delete collection")
		return
	}
	log.Info().Str("user_id", sess.Identity.UserID).Str("collection_id", id).Msg("Collection deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Items handles GET /api/v1/collections/{id}/items
func (h *CollectionHandler) Items(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	items, err := sess.Collections.CollectionItems(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get collection items")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// AddItem handles POST /api/v1/collections/{id}/items. Adding an item that is
// already a member succeeds without changes.
func (h *CollectionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if err := sess.Collections.AddToCollection(r.Context(), chi.URLParam(r, "id"), req.Media); err != nil {
		respondServiceError(w, r, err, "Failed to add to collection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem handles DELETE /api/v1/collections/{id}/items/{media_id}
func (h *CollectionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if err := sess.Collections.RemoveFromCollection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "media_id")); err != nil {
		respondServiceError(w, r, err, "Failed to remove from collection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
