package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store, including the case where it exists but belongs to another
	// tenant. Cross-tenant reads are indistinguishable from missing rows.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g. a second pending bundle for one recipient).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrTenantNotFound indicates that the requested tenant does not exist.
	ErrTenantNotFound = fmt.Errorf("%w: tenant", ErrNotFound)

	// ErrBoardNotFound indicates that the requested board does not exist.
	ErrBoardNotFound = fmt.Errorf("%w: board", ErrNotFound)

	// ErrColumnNotFound indicates that the requested column does not exist.
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)

	// ErrCardNotFound indicates that the requested card does not exist.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrEntropyConfigNotFound indicates that no entropy config exists at
	// the requested scope.
	ErrEntropyConfigNotFound = fmt.Errorf("%w: entropy config", ErrNotFound)

	// ErrBundleNotFound indicates that the requested notification bundle
	// does not exist.
	ErrBundleNotFound = fmt.Errorf("%w: notification bundle", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrPendingBundleExists indicates that a pending bundle already exists
	// for the (tenant, recipient) pair.
	ErrPendingBundleExists = fmt.Errorf("%w: pending bundle", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
