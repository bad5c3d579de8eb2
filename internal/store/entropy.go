package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// EntropyConfigStore defines the interface for entropy config persistence.
// There is at most one config per tenant and one per board; Upsert replaces
// the period in place on conflict.
type EntropyConfigStore interface {
	// Upsert creates or updates the config at its scope.
	Upsert(ctx context.Context, cfg *domain.EntropyConfig) error

	// GetForTenant retrieves the tenant-scoped config.
	// Returns ErrEntropyConfigNotFound if none exists.
	GetForTenant(ctx context.Context, tenantID uuid.UUID) (*domain.EntropyConfig, error)

	// GetForBoard retrieves the board-scoped config.
	// Returns ErrEntropyConfigNotFound if none exists.
	GetForBoard(ctx context.Context, tenantID, boardID uuid.UUID) (*domain.EntropyConfig, error)

	// WithTx returns an EntropyConfigStore bound to the given transaction.
	WithTx(tx *sql.Tx) EntropyConfigStore
}
