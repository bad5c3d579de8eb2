// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a lifecycle action is not legal
	// from the card's current effective state. The wrapping message names
	// the violated precondition.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidReference is returned when a transition references an entity
	// that exists but is not a legal target, such as a column on a different
	// board than the card's.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrConcurrencyConflict is returned when a guarded write finds the
	// entity changed between the scan read and the write. Callers treat
	// this as a skip, not a failure.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrUnauthorized is returned when an operation is not permitted for
	// the caller's role. Authentication itself is delegated upstream.
	ErrUnauthorized = errors.New("unauthorized operation")
)
