// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/kestrelhq/driftboard/internal/api/shared"
	"github.com/kestrelhq/driftboard/internal/auth"
)

// Auth resolves the bearer token to an identity and stores it in the
// request context. Requests without a valid token are rejected; no handler
// behind this middleware runs unauthenticated.
func Auth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header must use Bearer scheme")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}
