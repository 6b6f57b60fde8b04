package handlers

import (
	"net/http"

	"quizontal-backend/internal/middleware"
	"quizontal-backend/internal/services"
)

// AIHandler handles image generation requests
type AIHandler struct {
	aiService *services.AIService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(aiService *services.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// GenerateRequest is the body of POST /ai/generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Count  int    `json:"count"`
}

// Generate handles POST /api/v1/ai/generate
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	images, err := h.aiService.Generate(r.Context(), middleware.GetUserID(r.Context()), req.Prompt, req.Count)
	if err != nil {
		respondServiceError(w, r, err, "Failed to generate images")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"images": images})
}

// History handles GET /api/v1/ai/history
func (h *AIHandler) History(w http.ResponseWriter, r *http.Request) {
	images, err := h.aiService.History(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"images": images})
}
