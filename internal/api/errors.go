package api

import (
	"errors"
	"net/http"

	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error types
// or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrIdentityMissing):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	// Not found errors, including cross-tenant reads
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Lifecycle precondition failures
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidReference):
		return http.StatusConflict

	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing error message based
// on the error type.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrIdentityMissing):
		return "Authentication required"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Operation not permitted"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, domain.ErrInvalidTransition):
		// The transition error names the violated precondition and is safe
		// to show as-is.
		return err.Error()
	case errors.Is(err, domain.ErrInvalidReference):
		return "Referenced entity is not a valid target"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "Resource was modified concurrently, retry the operation"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"
	default:
		return "An internal error occurred"
	}
}
