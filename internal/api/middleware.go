package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tradesenseai/challenge-platform/internal/auth"
)

type ctxKey int

const _claimsKey ctxKey = iota

// authMiddleware validates the bearer token and stashes the claims in the
// request context.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.authService.ValidateToken(token)
		if err != nil {
			h.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), _claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID returns the authenticated user id, or "" outside the auth
// middleware.
func userID(r *http.Request) string {
	claims, ok := r.Context().Value(_claimsKey).(*auth.Claims)
	if !ok {
		return ""
	}
	return claims.UserID
}
