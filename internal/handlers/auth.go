package handlers

import (
	"net/http"

	"quizontal-backend/internal/middleware"
	"quizontal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles sign-up, sign-in and sign-out
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CallbackRequest is the body of POST /auth/{provider}/callback
type CallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.userService.Signup(r.Context(), req.DisplayName, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create account")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "Failed to sign in")
		return
	}
	log.Info().Str("user_id", resp.User.ID).Msg("User signed in")
	respondJSON(w, http.StatusOK, resp)
}

// OAuthURL handles GET /api/v1/auth/{provider}/url
func (h *AuthHandler) OAuthURL(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.OAuthURL(chi.URLParam(r, "provider"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to start sign-in")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": u})
}

// OAuthCallback handles POST /api/v1/auth/{provider}/callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Code == "" {
		respondError(w, "code and state are required", http.StatusBadRequest)
		return
	}

	resp, err := h.userService.OAuthCallback(r.Context(), chi.URLParam(r, "provider"), req.Code, req.State)
	if err != nil {
		respondServiceError(w, r, err, "Failed to sign in")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.userService.Logout(r.Context(), ident); err != nil {
		respondServiceError(w, r, err, "Failed to sign out")
		return
	}
	log.Info().Str("user_id", ident.UserID).Msg("User signed out")
	w.WriteHeader(http.StatusNoContent)
}
