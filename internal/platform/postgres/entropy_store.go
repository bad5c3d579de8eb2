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

// PostgresEntropyConfigStore implements the store.EntropyConfigStore
// interface. Periods are stored as whole seconds.
type PostgresEntropyConfigStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEntropyConfigStore creates a new PostgreSQL implementation of
// the EntropyConfigStore interface.
func NewPostgresEntropyConfigStore(db store.DBTX, logger *slog.Logger) *PostgresEntropyConfigStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEntropyConfigStore{
		db:     db,
		logger: logger.With(slog.String("component", "entropy_config_store")),
	}
}

var _ store.EntropyConfigStore = (*PostgresEntropyConfigStore)(nil)

// Upsert implements store.EntropyConfigStore.Upsert. The conflict target is
// the partial unique index matching the config's scope.
func (s *PostgresEntropyConfigStore) Upsert(ctx context.Context, cfg *domain.EntropyConfig) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var query string
	switch cfg.Scope {
	case domain.EntropyScopeTenant:
		query = `
			INSERT INTO entropy_configs
				(id, tenant_id, scope, board_id, auto_postpone_period_seconds, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tenant_id) WHERE scope = 'tenant'
			DO UPDATE SET auto_postpone_period_seconds = EXCLUDED.auto_postpone_period_seconds,
				updated_at = EXCLUDED.updated_at
		`
	case domain.EntropyScopeBoard:
		query = `
			INSERT INTO entropy_configs
				(id, tenant_id, scope, board_id, auto_postpone_period_seconds, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (board_id) WHERE scope = 'board'
			DO UPDATE SET auto_postpone_period_seconds = EXCLUDED.auto_postpone_period_seconds,
				updated_at = EXCLUDED.updated_at
		`
	default:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEntropyScopeInvalid)
	}

	_, err := s.db.ExecContext(
		ctx,
		query,
		cfg.ID,
		cfg.TenantID,
		cfg.Scope,
		cfg.BoardID,
		int64(cfg.AutoPostponePeriod/time.Second),
		cfg.CreatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced tenant or board not found",
				store.ErrInvalidEntity)
		}
		log.Error("failed to upsert entropy config",
			slog.String("error", err.Error()),
			slog.String("tenant_id", cfg.TenantID.String()),
			slog.String("scope", string(cfg.Scope)))
		return err
	}

	log.Info("entropy config upserted",
		slog.String("tenant_id", cfg.TenantID.String()),
		slog.String("scope", string(cfg.Scope)),
		slog.Duration("period", cfg.AutoPostponePeriod))
	return nil
}

// GetForTenant implements store.EntropyConfigStore.GetForTenant.
func (s *PostgresEntropyConfigStore) GetForTenant(
	ctx context.Context,
	tenantID uuid.UUID,
) (*domain.EntropyConfig, error) {
	query := `
		SELECT id, tenant_id, scope, board_id, auto_postpone_period_seconds, created_at, updated_at
		FROM entropy_configs
		WHERE tenant_id = $1 AND scope = 'tenant'
	`
	return s.getOne(ctx, query, tenantID)
}

// GetForBoard implements store.EntropyConfigStore.GetForBoard.
func (s *PostgresEntropyConfigStore) GetForBoard(
	ctx context.Context,
	tenantID, boardID uuid.UUID,
) (*domain.EntropyConfig, error) {
	query := `
		SELECT id, tenant_id, scope, board_id, auto_postpone_period_seconds, created_at, updated_at
		FROM entropy_configs
		WHERE tenant_id = $1 AND scope = 'board' AND board_id = $2
	`
	return s.getOne(ctx, query, tenantID, boardID)
}

func (s *PostgresEntropyConfigStore) getOne(
	ctx context.Context,
	query string,
	args ...any,
) (*domain.EntropyConfig, error) {
	var cfg domain.EntropyConfig
	var scope string
	var periodSeconds int64

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&cfg.ID,
		&cfg.TenantID,
		&scope,
		&cfg.BoardID,
		&periodSeconds,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEntropyConfigNotFound
		}
		return nil, err
	}

	cfg.Scope = domain.EntropyScope(scope)
	cfg.AutoPostponePeriod = time.Duration(periodSeconds) * time.Second
	return &cfg, nil
}

// WithTx implements store.EntropyConfigStore.WithTx.
func (s *PostgresEntropyConfigStore) WithTx(tx *sql.Tx) store.EntropyConfigStore {
	return &PostgresEntropyConfigStore{db: tx, logger: s.logger}
}
