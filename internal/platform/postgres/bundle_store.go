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

// PostgresBundleStore implements the store.BundleStore interface. The
// at-most-one-pending-per-recipient invariant is enforced by a partial
// unique index on (tenant_id, recipient_id) WHERE status = 'pending'.
type PostgresBundleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBundleStore creates a new PostgreSQL implementation of the
// BundleStore interface.
func NewPostgresBundleStore(db store.DBTX, logger *slog.Logger) *PostgresBundleStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBundleStore{
		db:     db,
		logger: logger.With(slog.String("component", "bundle_store")),
	}
}

var _ store.BundleStore = (*PostgresBundleStore)(nil)

const bundleColumns = `id, tenant_id, recipient_id, window_start, window_end, status, created_at, updated_at`

// Create implements store.BundleStore.Create.
func (s *PostgresBundleStore) Create(ctx context.Context, bundle *domain.NotificationBundle) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := bundle.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notification_bundles (` + bundleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		bundle.ID,
		bundle.TenantID,
		bundle.RecipientID,
		bundle.WindowStart,
		bundle.WindowEnd,
		bundle.Status,
		bundle.CreatedAt,
		bundle.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("pending bundle already exists",
				slog.String("tenant_id", bundle.TenantID.String()),
				slog.String("recipient_id", bundle.RecipientID.String()))
			return store.ErrPendingBundleExists
		}
		log.Error("failed to create bundle",
			slog.String("error", err.Error()),
			slog.String("bundle_id", bundle.ID.String()))
		return err
	}

	return nil
}

// GetByID implements store.BundleStore.GetByID.
func (s *PostgresBundleStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.NotificationBundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM notification_bundles WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanBundle(row)
}

// GetPending implements store.BundleStore.GetPending.
func (s *PostgresBundleStore) GetPending(
	ctx context.Context,
	tenantID, recipientID uuid.UUID,
) (*domain.NotificationBundle, error) {
	query := `
		SELECT ` + bundleColumns + `
		FROM notification_bundles
		WHERE tenant_id = $1 AND recipient_id = $2 AND status = 'pending'
	`
	row := s.db.QueryRowContext(ctx, query, tenantID, recipientID)
	return scanBundle(row)
}

// MarkProcessing implements store.BundleStore.MarkProcessing. The WHERE
// clause is the idempotency check: only a pending bundle is claimed, and a
// second caller sees zero rows affected.
func (s *PostgresBundleStore) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE notification_bundles
		SET status = 'processing', updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`
	result, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// MarkDelivered implements store.BundleStore.MarkDelivered.
func (s *PostgresBundleStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE notification_bundles
		SET status = 'delivered', updated_at = $2
		WHERE id = $1 AND status = 'processing'
	`
	result, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		log.Error("failed to mark bundle delivered",
			slog.String("error", err.Error()),
			slog.String("bundle_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrBundleNotFound
	}

	return nil
}

// ListOverduePending implements store.BundleStore.ListOverduePending.
func (s *PostgresBundleStore) ListOverduePending(
	ctx context.Context,
	now time.Time,
) ([]*domain.NotificationBundle, error) {
	query := `
		SELECT ` + bundleColumns + `
		FROM notification_bundles
		WHERE status = 'pending' AND window_end <= $1
		ORDER BY window_end ASC
	`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bundles []*domain.NotificationBundle
	for rows.Next() {
		bundle, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, bundle)
	}

	return bundles, rows.Err()
}

// ResetStaleProcessing implements store.BundleStore.ResetStaleProcessing.
func (s *PostgresBundleStore) ResetStaleProcessing(
	ctx context.Context,
	before time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// The NOT EXISTS guard keeps the reset from colliding with a newer
	// pending bundle for the same recipient under the partial unique index.
	query := `
		UPDATE notification_bundles b
		SET status = 'pending', updated_at = $2
		WHERE b.status = 'processing' AND b.updated_at < $1
			AND NOT EXISTS (
				SELECT 1 FROM notification_bundles p
				WHERE p.tenant_id = b.tenant_id
					AND p.recipient_id = b.recipient_id
					AND p.status = 'pending'
			)
	`
	result, err := s.db.ExecContext(ctx, query, before, time.Now().UTC())
	if err != nil {
		log.Error("failed to reset stale processing bundles",
			slog.String("error", err.Error()))
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		log.Warn("reset stale processing bundles", slog.Int64("count", rows))
	}

	return int(rows), nil
}

// WithTx implements store.BundleStore.WithTx.
func (s *PostgresBundleStore) WithTx(tx *sql.Tx) store.BundleStore {
	return &PostgresBundleStore{db: tx, logger: s.logger}
}

func scanBundle(row rowScanner) (*domain.NotificationBundle, error) {
	var bundle domain.NotificationBundle
	var status string

	err := row.Scan(
		&bundle.ID,
		&bundle.TenantID,
		&bundle.RecipientID,
		&bundle.WindowStart,
		&bundle.WindowEnd,
		&status,
		&bundle.CreatedAt,
		&bundle.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBundleNotFound
		}
		return nil, err
	}

	bundle.Status = domain.BundleStatus(status)
	return &bundle, nil
}
