package handlers

import (
	"net/http"

	"quizontal-backend/internal/membership"
	"quizontal-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// DownloadHandler records downloads and hands out the file location
type DownloadHandler struct {
	sessions *membership.Manager
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(sessions *membership.Manager) *DownloadHandler {
	return &DownloadHandler{sessions: sessions}
}

// DownloadRequest is the body of POST /downloads
type DownloadRequest struct {
	Media models.MediaItem `json:"media"`
}

// DownloadResponse tells the client where to fetch the file from
type DownloadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// Record handles POST /api/v1/downloads. A failed audit write does not stop
// the download.
func (h *DownloadHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Media.ID == "" {
		respondError(w, "media.id is required", http.StatusBadRequest)
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if _, err := sess.RecordDownload(r.Context(), req.Media); err != nil {
		log.Error().Err(err).Str("user_id", sess.Identity.UserID).Str("media_id", req.Media.ID).Msg("Failed to record download")
	}

	url := req.Media.DownloadURL
	if url == "" {
		url = req.Media.URL
	}
	respondJSON(w, http.StatusOK, DownloadResponse{URL: url, FileName: req.Media.FileName()})
}
