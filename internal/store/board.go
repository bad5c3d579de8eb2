package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// BoardStore defines the interface for board, column, and membership
// persistence. Columns are looked up through their board's tenant; the
// card-to-column relation is validated here, not embedded in entities.
type BoardStore interface {
	// CreateBoard saves a new board.
	CreateBoard(ctx context.Context, board *domain.Board) error

	// GetBoard retrieves a board by ID within the given tenant.
	// Returns ErrBoardNotFound if it does not exist or is cross-tenant.
	GetBoard(ctx context.Context, tenantID, id uuid.UUID) (*domain.Board, error)

	// ListBoards returns all boards of a tenant.
	ListBoards(ctx context.Context, tenantID uuid.UUID) ([]*domain.Board, error)

	// CreateColumn saves a new column on a board.
	CreateColumn(ctx context.Context, column *domain.Column) error

	// GetColumn retrieves a column by ID within the given tenant.
	// Returns ErrColumnNotFound if it does not exist or is cross-tenant.
	GetColumn(ctx context.Context, tenantID, id uuid.UUID) (*domain.Column, error)

	// AddMember adds a user to a board's membership. Adding an existing
	// member is a no-op.
	AddMember(ctx context.Context, tenantID, boardID, userID uuid.UUID) error

	// ListMemberIDs returns the user IDs of a board's members. These are
	// the notification recipients for events on the board.
	ListMemberIDs(ctx context.Context, tenantID, boardID uuid.UUID) ([]uuid.UUID, error)

	// WithTx returns a BoardStore bound to the given transaction.
	WithTx(tx *sql.Tx) BoardStore
}

// TenantStore enumerates tenants for background sweeps and registers new
// ones. Tenant provisioning beyond this is out of scope.
type TenantStore interface {
	// Create saves a new tenant.
	Create(ctx context.Context, tenant *domain.Tenant) error

	// ListIDs returns the IDs of all tenants. Sweeps iterate this so every
	// scan stays bounded to one tenant at a time.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}
