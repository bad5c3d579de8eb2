package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
	"github.com/kestrelhq/driftboard/internal/store"
)

// PostgresTenantStore implements the store.TenantStore interface.
type PostgresTenantStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTenantStore creates a new PostgreSQL implementation of the
// TenantStore interface.
func NewPostgresTenantStore(db store.DBTX, logger *slog.Logger) *PostgresTenantStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTenantStore{
		db:     db,
		logger: logger.With(slog.String("component", "tenant_store")),
	}
}

var _ store.TenantStore = (*PostgresTenantStore)(nil)

// Create implements store.TenantStore.Create.
func (s *PostgresTenantStore) Create(ctx context.Context, tenant *domain.Tenant) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `INSERT INTO tenants (id, name, created_at) VALUES ($1, $2, $3)`
	_, err := s.db.ExecContext(ctx, query, tenant.ID, tenant.Name, tenant.CreatedAt)
	if err != nil {
		log.Error("failed to create tenant",
			slog.String("error", err.Error()),
			slog.String("tenant_id", tenant.ID.String()))
		return err
	}

	return nil
}

// ListIDs implements store.TenantStore.ListIDs.
func (s *PostgresTenantStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tenants ORDER BY created_at ASC`)
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
