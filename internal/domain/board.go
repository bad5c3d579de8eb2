package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrBoardNameEmpty is returned when a board's name is empty.
	ErrBoardNameEmpty = errors.New("board name cannot be empty")

	// ErrColumnNameEmpty is returned when a column's name is empty.
	ErrColumnNameEmpty = errors.New("column name cannot be empty")
)

// Board groups columns and cards within a tenant. Members of a board are the
// recipients of its notification fan-out.
type Board struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBoard creates a new Board for the given tenant.
func NewBoard(tenantID uuid.UUID, name string) (*Board, error) {
	if name == "" {
		return nil, ErrBoardNameEmpty
	}
	now := time.Now().UTC()
	return &Board{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Column is an ordered lane on a board. Cards reference columns by ID;
// the relation is resolved through the store, never embedded.
type Column struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	BoardID   uuid.UUID `json:"board_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// NewColumn creates a new Column on the given board.
func NewColumn(tenantID, boardID uuid.UUID, name string, position int) (*Column, error) {
	if name == "" {
		return nil, ErrColumnNameEmpty
	}
	return &Column{
		ID:        uuid.New(),
		TenantID:  tenantID,
		BoardID:   boardID,
		Name:      name,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}, nil
}
