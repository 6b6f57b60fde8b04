package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"quizontal-backend/internal/models"
	"quizontal-backend/internal/services"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware creates a middleware for JWT authentication from the
// Authorization header
func AuthMiddleware(userService *services.UserService) func(http.Handler) http.Handler {
	return authenticate(userService, false)
}

// WSAuthMiddleware is AuthMiddleware for the websocket route. Browsers cannot
// set headers on a websocket handshake, so the token query parameter is
// accepted there and only there.
func WSAuthMiddleware(userService *services.UserService) func(http.Handler) http.Handler {
	return authenticate(userService, true)
}

func authenticate(userService *services.UserService, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r, allowQuery)
			if token == "" {
				respondError(w, msg, http.StatusUnauthorized)
				return
			}

			ident, err := userService.ValidateJWT(token)
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

func bearerToken(r *http.Request, allowQuery bool) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); allowQuery && token != "" {
			return token, ""
		}
		return "", "Authorization header required"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Invalid authorization header format"
	}
	return parts[1], ""
}

// WithIdentity stores the signed-in identity in ctx
func WithIdentity(ctx context.Context, ident models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// GetIdentity extracts the signed-in identity from context
func GetIdentity(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(models.Identity)
	return ident, ok
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	ident, _ := GetIdentity(ctx)
	return ident.UserID
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
