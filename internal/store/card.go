package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// CardStore defines the interface for card data persistence. Every read and
// write is scoped by tenant ID; a card belonging to another tenant behaves
// exactly like a missing card.
type CardStore interface {
	// Create saves a new card to the store.
	// Returns validation errors if the card data is invalid.
	Create(ctx context.Context, card *domain.Card) error

	// GetForTenant retrieves a card by ID within the given tenant.
	// Returns ErrCardNotFound if the card does not exist or belongs to
	// another tenant.
	GetForTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Card, error)

	// GetForUpdate behaves like GetForTenant but takes a row lock so the
	// caller can apply a read-modify-write inside the surrounding
	// transaction. Must be called with a transaction-bound store
	// (see WithTx); calling it outside a transaction loses the lock on
	// return and defeats the guard.
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*domain.Card, error)

	// Update persists all mutable card fields. Returns ErrCardNotFound if
	// the card does not exist within the tenant.
	Update(ctx context.Context, card *domain.Card) error

	// Delete removes a card. Events referencing it are left in place;
	// dangling target references are tolerated by readers.
	// Returns ErrCardNotFound if the card does not exist within the tenant.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// ListByBoard returns all cards on a board, newest first.
	ListByBoard(ctx context.Context, tenantID, boardID uuid.UUID) ([]*domain.Card, error)

	// ListStaleByBoard returns cards on a board whose effective state is
	// active and whose lastActiveAt is strictly before the cutoff. This is
	// the entropy sweep's scan read; eligibility is re-checked under lock
	// before the postpone write.
	ListStaleByBoard(
		ctx context.Context,
		tenantID, boardID uuid.UUID,
		cutoff time.Time,
	) ([]*domain.Card, error)

	// WithTx returns a CardStore bound to the given transaction.
	WithTx(tx *sql.Tx) CardStore
}
