package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizontal-backend/internal/models"
	"quizontal-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	userService := services.NewUserService(nil, nil, nil, "test-secret", time.Hour)
	token, err := userService.GenerateJWT(&models.User{ID: "u1", DisplayName: "Ann"})
	require.NoError(t, err)

	var seen models.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetIdentity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	api := AuthMiddleware(userService)(next)
	ws := WSAuthMiddleware(userService)(next)

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		query   string
		status  int
	}{
		{name: "missing", handler: api, status: http.StatusUnauthorized},
		{name: "bad format", handler: api, header: "Token " + token, status: http.StatusUnauthorized},
		{name: "bad token", handler: api, header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "header", handler: api, header: "Bearer " + token, status: http.StatusNoContent},
		{name: "query on api route", handler: api, query: "?token=" + token, status: http.StatusUnauthorized},
		{name: "query on ws route", handler: ws, query: "?token=" + token, status: http.StatusNoContent},
		{name: "header on ws route", handler: ws, header: "Bearer " + token, status: http.StatusNoContent},
		{name: "bad query on ws route", handler: ws, query: "?token=nope", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = models.Identity{}
			req := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "u1", seen.UserID)
				assert.Equal(t, "Ann", seen.DisplayName)
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestGetUserIDWithoutIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetUserID(req.Context()))
	assert.Equal(t, "u2", GetUserID(WithIdentity(req.Context(), models.Identity{UserID: "u2"})))
}
