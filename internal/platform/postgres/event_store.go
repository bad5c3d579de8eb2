package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
	"github.com/kestrelhq/driftboard/internal/store"
)

// PostgresEventStore implements the store.EventStore interface. The events
// table is append-only; no update or delete statements exist here.
type PostgresEventStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEventStore creates a new PostgreSQL implementation of the
// EventStore interface.
func NewPostgresEventStore(db store.DBTX, logger *slog.Logger) *PostgresEventStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEventStore{
		db:     db,
		logger: logger.With(slog.String("component", "event_store")),
	}
}

var _ store.EventStore = (*PostgresEventStore)(nil)

const eventColumns = `id, tenant_id, board_id, actor_id, action, target_type, target_id, payload, created_at`

// Append implements store.EventStore.Append.
func (s *PostgresEventStore) Append(ctx context.Context, event *domain.Event) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := event.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.TenantID,
		event.BoardID,
		event.ActorID,
		event.Action,
		event.Target.Type,
		event.Target.ID,
		event.Payload,
		event.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("action", string(event.Action)))
		return err
	}

	log.Debug("event appended",
		slog.String("event_id", event.ID.String()),
		slog.String("action", string(event.Action)),
		slog.String("target_type", string(event.Target.Type)),
		slog.String("target_id", event.Target.ID.String()))
	return nil
}

// ListByTarget implements store.EventStore.ListByTarget.
func (s *PostgresEventStore) ListByTarget(
	ctx context.Context,
	tenantID uuid.UUID,
	target domain.TargetRef,
) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE tenant_id = $1 AND target_type = $2 AND target_id = $3
		ORDER BY created_at ASC
	`
	return s.list(ctx, query, tenantID, target.Type, target.ID)
}

// ListByTenantAction implements store.EventStore.ListByTenantAction.
func (s *PostgresEventStore) ListByTenantAction(
	ctx context.Context,
	tenantID uuid.UUID,
	action domain.EventAction,
	limit int,
) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE tenant_id = $1 AND action = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	return s.list(ctx, query, tenantID, action, limit)
}

// ListForRecipientWindow implements store.EventStore.ListForRecipientWindow.
// Membership decides visibility; the recipient's own actions are excluded.
func (s *PostgresEventStore) ListForRecipientWindow(
	ctx context.Context,
	tenantID, recipientID uuid.UUID,
	start, end time.Time,
) ([]*domain.Event, error) {
	query := `
		SELECT e.id, e.tenant_id, e.board_id, e.actor_id, e.action,
			e.target_type, e.target_id, e.payload, e.created_at
		FROM events e
		JOIN board_members m ON m.board_id = e.board_id AND m.user_id = $2
		WHERE e.tenant_id = $1
			AND e.actor_id <> $2
			AND e.created_at >= $3
			AND e.created_at <= $4
		ORDER BY e.created_at ASC
	`
	return s.list(ctx, query, tenantID, recipientID, start, end)
}

func (s *PostgresEventStore) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Event, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list events", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []*domain.Event
	for rows.Next() {
		var ev domain.Event
		var action, targetType string
		if err := rows.Scan(
			&ev.ID,
			&ev.TenantID,
			&ev.BoardID,
			&ev.ActorID,
			&action,
			&targetType,
			&ev.Target.ID,
			&ev.Payload,
			&ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		ev.Action = domain.EventAction(action)
		ev.Target.Type = domain.TargetType(targetType)
		events = append(events, &ev)
	}

	return events, rows.Err()
}

// WithTx implements store.EventStore.WithTx.
func (s *PostgresEventStore) WithTx(tx *sql.Tx) store.EventStore {
	return &PostgresEventStore{db: tx, logger: s.logger}
}
