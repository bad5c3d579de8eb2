package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// BundleStore defines the interface for notification bundle persistence.
// Status moves strictly pending -> processing -> delivered; the processing
// step is a compare-and-set so concurrent deliver calls collapse to one.
type BundleStore interface {
	// Create saves a new pending bundle. Returns ErrPendingBundleExists if
	// a pending bundle already exists for the (tenant, recipient) pair.
	Create(ctx context.Context, bundle *domain.NotificationBundle) error

	// GetByID retrieves a bundle by its ID.
	// Returns ErrBundleNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationBundle, error)

	// GetPending retrieves the pending bundle for a (tenant, recipient)
	// pair, if any. Returns ErrBundleNotFound when there is none.
	GetPending(ctx context.Context, tenantID, recipientID uuid.UUID) (*domain.NotificationBundle, error)

	// MarkProcessing transitions a bundle from pending to processing.
	// Returns false with a nil error if the bundle was not pending, which
	// makes double delivery a no-op for the caller.
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkDelivered transitions a bundle from processing to delivered.
	MarkDelivered(ctx context.Context, id uuid.UUID) error

	// ListOverduePending returns pending bundles whose window end has
	// passed. The catch-all sweep force-delivers these.
	ListOverduePending(ctx context.Context, now time.Time) ([]*domain.NotificationBundle, error)

	// ResetStaleProcessing moves bundles that have sat in processing since
	// before the given time back to pending, so a crashed or failed
	// delivery is retried by a later sweep. Returns the number reset.
	ResetStaleProcessing(ctx context.Context, before time.Time) (int, error)

	// WithTx returns a BundleStore bound to the given transaction.
	WithTx(tx *sql.Tx) BundleStore
}
