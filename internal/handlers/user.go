package handlers

import (
	"net/http"

	"quizontal-backend/internal/middleware"
	"quizontal-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles profile and upload requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UpdateProfileRequest is the body of PATCH /me
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// PresignRequest is the body of POST /uploads/presign
type PresignRequest struct {
	Folder      string `json:"folder"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// GetMe handles GET /api/v1/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req.DisplayName)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UploadAvatar handles POST /api/v1/me/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, "avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(r.Context(), middleware.GetUserID(r.Context()), header.Filename, file)
	if err != nil {
		respondServiceError(w, r, err, "Failed to upload avatar")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Upload handles POST /api/v1/uploads (multipart field "file", optional "folder")
func (h *UserHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.userService.UploadImage(ctx, userID, r.FormValue("folder"), header.Filename,
		header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		respondServiceError(w, r, err, "Failed to upload file")
		return
	}

	log.Info().Str("user_id", userID).Str("url", url).Msg("File uploaded")
	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// PresignUpload handles POST /api/v1/uploads/presign
func (h *UserHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req PresignRequest
	if err := decodeJSON(w, r, &req); err != nil || req.FileName == "" {
		respondError(w, "file_name and content_type are required", http.StatusBadRequest)
		return
	}

	resp, err := h.userService.PresignUpload(r.Context(), middleware.GetUserID(r.Context()), req.Folder, req.FileName, req.ContentType)
	if err != nil {
		respondServiceError(w, r, err, "Failed to generate upload URL")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
