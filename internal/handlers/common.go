package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/identity"
	"quizontal-backend/internal/media"
	"quizontal-backend/internal/membership"
	"quizontal-backend/internal/middleware"
	"quizontal-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const maxUploadSize = 10 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// PartialFailureResponse is returned with 207 when a collection was deleted
// but some of its items could not be removed
type PartialFailureResponse struct {
	Error        string `json:"error"`
	CollectionID string `json:"collection_id"`
	Remaining    int    `json:"remaining"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}

// respondServiceError maps an error from the service layer to one JSON error
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var (
		partial    *membership.PartialFailure
		validation *membership.ValidationError
		storeErr   *docstore.StoreError
		statusErr  *media.StatusError
	)

	switch {
	case errors.As(err, &partial):
		log.Warn().Err(err).Str("user_id", middleware.GetUserID(r.Context())).Msg(action)
		respondJSON(w, http.StatusMultiStatus, PartialFailureResponse{
			Error:        "Collection deleted but some items could not be removed",
			CollectionID: partial.CollectionID,
			Remaining:    partial.Remaining,
		})
		return
	case errors.As(err, &validation):
		respondError(w, validation.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, identity.ErrInvalidInput),
		errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrInvalidImage):
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		respondError(w, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, services.ErrEmailTaken):
		respondError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, membership.ErrNotFound), errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, services.ErrUnknownProvider):
		respondError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, media.ErrNoAPIKey):
		respondError(w, "Media search is not configured", http.StatusServiceUnavailable)
		return
	}

	log.Error().Err(err).Str("user_id", middleware.GetUserID(r.Context())).Msg(action)

	switch {
	case errors.Is(err, membership.ErrRemoteUnavailable), errors.As(err, &storeErr), errors.As(err, &statusErr):
		respondError(w, action, http.StatusBadGateway)
	default:
		respondError(w, action, http.StatusInternalServerError)
	}
}

// sessionFor returns the membership session of the signed-in user
func sessionFor(w http.ResponseWriter, r *http.Request, manager *membership.Manager) (*membership.Session, bool) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	sess, err := manager.Session(r.Context(), ident)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load your library")
		return nil, false
	}
	return sess, true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
