package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
)

// CreateBoard creates a board in the actor's tenant. The creator becomes the
// board's first member, so they receive notifications for it from the start.
func (e *Engine) CreateBoard(
	ctx context.Context,
	actor auth.Identity,
	name string,
) (*domain.Board, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	board, err := domain.NewBoard(actor.TenantID, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := e.boards.CreateBoard(ctx, board); err != nil {
		return nil, err
	}
	if err := e.boards.AddMember(ctx, actor.TenantID, board.ID, actor.ActorID); err != nil {
		return nil, err
	}

	log.Info("board created",
		slog.String("board_id", board.ID.String()),
		slog.String("actor_id", actor.ActorID.String()))
	return board, nil
}

// GetBoard retrieves a board within the actor's tenant.
func (e *Engine) GetBoard(
	ctx context.Context,
	actor auth.Identity,
	boardID uuid.UUID,
) (*domain.Board, error) {
	return e.boards.GetBoard(ctx, actor.TenantID, boardID)
}

// ListBoards returns all boards in the actor's tenant.
func (e *Engine) ListBoards(ctx context.Context, actor auth.Identity) ([]*domain.Board, error) {
	return e.boards.ListBoards(ctx, actor.TenantID)
}

// CreateColumn adds a column to a board in the actor's tenant.
func (e *Engine) CreateColumn(
	ctx context.Context,
	actor auth.Identity,
	boardID uuid.UUID,
	name string,
	position int,
) (*domain.Column, error) {
	if _, err := e.boards.GetBoard(ctx, actor.TenantID, boardID); err != nil {
		return nil, err
	}

	column, err := domain.NewColumn(actor.TenantID, boardID, name, position)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := e.boards.CreateColumn(ctx, column); err != nil {
		return nil, err
	}
	return column, nil
}

// AddMember adds a user to a board's membership. Only admins manage
// membership; adding an existing member is a no-op.
func (e *Engine) AddMember(
	ctx context.Context,
	actor auth.Identity,
	boardID, userID uuid.UUID,
) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can manage board membership", domain.ErrUnauthorized)
	}
	if _, err := e.boards.GetBoard(ctx, actor.TenantID, boardID); err != nil {
		return err
	}
	return e.boards.AddMember(ctx, actor.TenantID, boardID, userID)
}
