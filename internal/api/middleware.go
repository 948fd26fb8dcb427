// Package api implements the execution service REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/elinsky/execution-service/internal/auth"
)

type ctxKey int

const userIDKey ctxKey = iota

// AuthMiddleware returns middleware that validates a "Authorization: Bearer
// <jwt>" header and stores the authenticated user ID on the request context.
func AuthMiddleware(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			userID, err := tokens.Verify(raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user ID stored by AuthMiddleware, or ""
// outside an authenticated request.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
