package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// EventStore defines the interface for the append-only event log. The write
// path is exclusively internal: only the lifecycle engine and collaboration
// mutations append. There are no updates and no deletes.
type EventStore interface {
	// Append writes one immutable event.
	Append(ctx context.Context, event *domain.Event) error

	// ListByTarget returns all events about one target within a tenant,
	// oldest first. Used for audit trails and comment threads.
	ListByTarget(
		ctx context.Context,
		tenantID uuid.UUID,
		target domain.TargetRef,
	) ([]*domain.Event, error)

	// ListByTenantAction returns the most recent events with the given
	// action within a tenant, newest first, capped at limit.
	ListByTenantAction(
		ctx context.Context,
		tenantID uuid.UUID,
		action domain.EventAction,
		limit int,
	) ([]*domain.Event, error)

	// ListForRecipientWindow returns events a recipient should be notified
	// about whose creation time falls within [start, end]: events on boards
	// the recipient is a member of, excluding the recipient's own actions.
	// Oldest first.
	ListForRecipientWindow(
		ctx context.Context,
		tenantID, recipientID uuid.UUID,
		start, end time.Time,
	) ([]*domain.Event, error)

	// WithTx returns an EventStore bound to the given transaction.
	WithTx(tx *sql.Tx) EventStore
}
