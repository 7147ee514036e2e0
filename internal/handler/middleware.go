package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/snake-server/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// bearerToken extracts the token from an Authorization header. Both the
// "Token <uuid>" and "Bearer <uuid>" forms are accepted.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	for _, prefix := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	return ""
}

// RequireAuth resolves the bearer token to a user and rejects the request
// if it cannot
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.writeError(w, http.StatusUnauthorized, domain.ErrTokenInvalid)
			return
		}

		user, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user placed by RequireAuth, or nil
func currentUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userContextKey).(*domain.User)
	return user
}

// optionalUser resolves the bearer token if one is present but never
// rejects the request
func (h *Handler) optionalUser(r *http.Request) *domain.User {
	token := bearerToken(r)
	if token == "" {
		return nil
	}
	user, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		return nil
	}
	return user
}
