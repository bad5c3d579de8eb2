package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
	"github.com/kestrelhq/driftboard/internal/store"
)

// PostgresBoardStore implements the store.BoardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBoardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBoardStore creates a new PostgreSQL implementation of the
// BoardStore interface.
func NewPostgresBoardStore(db store.DBTX, logger *slog.Logger) *PostgresBoardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBoardStore{
		db:     db,
		logger: logger.With(slog.String("component", "board_store")),
	}
}

var _ store.BoardStore = (*PostgresBoardStore)(nil)

// CreateBoard implements store.BoardStore.CreateBoard.
func (s *PostgresBoardStore) CreateBoard(ctx context.Context, board *domain.Board) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO boards (id, tenant_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		board.ID,
		board.TenantID,
		board.Name,
		board.CreatedAt,
		board.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: tenant with ID %s not found",
				store.ErrInvalidEntity, board.TenantID)
		}
		log.Error("failed to create board",
			slog.String("error", err.Error()),
			slog.String("board_id", board.ID.String()))
		return err
	}

	return nil
}

// GetBoard implements store.BoardStore.GetBoard.
func (s *PostgresBoardStore) GetBoard(
	ctx context.Context,
	tenantID, id uuid.UUID,
) (*domain.Board, error) {
	query := `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM boards
		WHERE tenant_id = $1 AND id = $2
	`

	var board domain.Board
	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&board.ID,
		&board.TenantID,
		&board.Name,
		&board.CreatedAt,
		&board.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBoardNotFound
		}
		return nil, err
	}

	return &board, nil
}

// ListBoards implements store.BoardStore.ListBoards.
func (s *PostgresBoardStore) ListBoards(
	ctx context.Context,
	tenantID uuid.UUID,
) ([]*domain.Board, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM boards
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		log.Error("failed to list boards",
			slog.String("error", err.Error()),
			slog.String("tenant_id", tenantID.String()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var boards []*domain.Board
	for rows.Next() {
		var board domain.Board
		if err := rows.Scan(
			&board.ID,
			&board.TenantID,
			&board.Name,
			&board.CreatedAt,
			&board.UpdatedAt,
		); err != nil {
			return nil, err
		}
		boards = append(boards, &board)
	}

	return boards, rows.Err()
}

// CreateColumn implements store.BoardStore.CreateColumn.
func (s *PostgresBoardStore) CreateColumn(ctx context.Context, column *domain.Column) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO columns (id, tenant_id, board_id, name, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		column.ID,
		column.TenantID,
		column.BoardID,
		column.Name,
		column.Position,
		column.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: board with ID %s not found",
				store.ErrInvalidEntity, column.BoardID)
		}
		log.Error("failed to create column",
			slog.String("error", err.Error()),
			slog.String("column_id", column.ID.String()))
		return err
	}

	return nil
}

// GetColumn implements store.BoardStore.GetColumn.
func (s *PostgresBoardStore) GetColumn(
	ctx context.Context,
	tenantID, id uuid.UUID,
) (*domain.Column, error) {
	query := `
		SELECT id, tenant_id, board_id, name, position, created_at
		FROM columns
		WHERE tenant_id = $1 AND id = $2
	`

	var column domain.Column
	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&column.ID,
		&column.TenantID,
		&column.BoardID,
		&column.Name,
		&column.Position,
		&column.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrColumnNotFound
		}
		return nil, err
	}

	return &column, nil
}

// AddMember implements store.BoardStore.AddMember. Re-adding an existing
// member is a no-op via ON CONFLICT DO NOTHING.
func (s *PostgresBoardStore) AddMember(
	ctx context.Context,
	tenantID, boardID, userID uuid.UUID,
) error {
	query := `
		INSERT INTO board_members (tenant_id, board_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (board_id, user_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, tenantID, boardID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: board with ID %s not found",
				store.ErrInvalidEntity, boardID)
		}
		return err
	}
	return nil
}

// ListMemberIDs implements store.BoardStore.ListMemberIDs.
func (s *PostgresBoardStore) ListMemberIDs(
	ctx context.Context,
	tenantID, boardID uuid.UUID,
) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM board_members
		WHERE tenant_id = $1 AND board_id = $2
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID, boardID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// WithTx implements store.BoardStore.WithTx.
func (s *PostgresBoardStore) WithTx(tx *sql.Tx) store.BoardStore {
	return &PostgresBoardStore{db: tx, logger: s.logger}
}
