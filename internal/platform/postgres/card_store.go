package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
	"github.com/kestrelhq/driftboard/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

const cardColumns = `id, tenant_id, board_id, column_id, title, status,
	closed_at, closed_by, postponed_at, postponed_by,
	last_active_at, is_golden, activity_spike_at, created_at, updated_at`

// Create implements store.CardStore.Create.
// Returns store.ErrInvalidEntity if the board does not exist (foreign key
// violation) or the card fails domain validation.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.TenantID,
		card.BoardID,
		card.ColumnID,
		card.Title,
		card.Status,
		card.ClosedAt,
		card.ClosedBy,
		card.PostponedAt,
		card.PostponedBy,
		card.LastActiveAt,
		card.IsGolden,
		card.ActivitySpikeAt,
		card.CreatedAt,
		card.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during card creation",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("board_id", card.BoardID.String()))
			return fmt.Errorf("%w: board with ID %s not found",
				store.ErrInvalidEntity, card.BoardID)
		}

		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	log.Debug("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("board_id", card.BoardID.String()))
	return nil
}

// GetForTenant implements store.CardStore.GetForTenant.
func (s *PostgresCardStore) GetForTenant(
	ctx context.Context,
	tenantID, id uuid.UUID,
) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tenant_id = $1 AND id = $2`
	return s.getOne(ctx, query, tenantID, id)
}

// GetForUpdate implements store.CardStore.GetForUpdate. It takes a row lock
// so the surrounding transaction can re-check eligibility and write without
// a lost update.
func (s *PostgresCardStore) GetForUpdate(
	ctx context.Context,
	tenantID, id uuid.UUID,
) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	return s.getOne(ctx, query, tenantID, id)
}

func (s *PostgresCardStore) getOne(
	ctx context.Context,
	query string,
	tenantID, id uuid.UUID,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, query, tenantID, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found",
				slog.String("card_id", id.String()),
				slog.String("tenant_id", tenantID.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, err
	}

	return card, nil
}

// Update implements store.CardStore.Update.
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET column_id = $3, title = $4, status = $5,
			closed_at = $6, closed_by = $7,
			postponed_at = $8, postponed_by = $9,
			last_active_at = $10, is_golden = $11, activity_spike_at = $12,
			updated_at = $13
		WHERE tenant_id = $1 AND id = $2
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		card.TenantID,
		card.ID,
		card.ColumnID,
		card.Title,
		card.Status,
		card.ClosedAt,
		card.ClosedBy,
		card.PostponedAt,
		card.PostponedBy,
		card.LastActiveAt,
		card.IsGolden,
		card.ActivitySpikeAt,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to update card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrCardNotFound
	}

	return nil
}

// Delete implements store.CardStore.Delete. Events referencing the card are
// deliberately left behind; readers tolerate dangling target references.
func (s *PostgresCardStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM cards WHERE tenant_id = $1 AND id = $2`,
		tenantID,
		id,
	)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrCardNotFound
	}

	log.Info("card deleted",
		slog.String("card_id", id.String()),
		slog.String("tenant_id", tenantID.String()))
	return nil
}

// ListByBoard implements store.CardStore.ListByBoard.
func (s *PostgresCardStore) ListByBoard(
	ctx context.Context,
	tenantID, boardID uuid.UUID,
) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE tenant_id = $1 AND board_id = $2
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, tenantID, boardID)
}

// ListStaleByBoard implements store.CardStore.ListStaleByBoard. The filter
// mirrors the active effective state: published, not closed, not postponed,
// and triaged into a column.
func (s *PostgresCardStore) ListStaleByBoard(
	ctx context.Context,
	tenantID, boardID uuid.UUID,
	cutoff time.Time,
) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE tenant_id = $1 AND board_id = $2
			AND status = 'published'
			AND closed_at IS NULL
			AND postponed_at IS NULL
			AND column_id IS NOT NULL
			AND last_active_at < $3
		ORDER BY last_active_at ASC
	`
	return s.list(ctx, query, tenantID, boardID, cutoff)
}

func (s *PostgresCardStore) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list cards", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}

// WithTx implements store.CardStore.WithTx.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var status string

	err := row.Scan(
		&card.ID,
		&card.TenantID,
		&card.BoardID,
		&card.ColumnID,
		&card.Title,
		&status,
		&card.ClosedAt,
		&card.ClosedBy,
		&card.PostponedAt,
		&card.PostponedBy,
		&card.LastActiveAt,
		&card.IsGolden,
		&card.ActivitySpikeAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Status = domain.CardStatus(status)
	return &card, nil
}
