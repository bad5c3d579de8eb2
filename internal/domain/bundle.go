package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrBundleRecipientEmpty is returned when a bundle has no recipient.
	ErrBundleRecipientEmpty = errors.New("bundle recipient ID cannot be empty")

	// ErrBundleWindowInvalid is returned when a bundle's window end does not
	// come after its window start.
	ErrBundleWindowInvalid = errors.New("bundle window end must be after window start")
)

// BundleStatus tracks a notification bundle through its one-way life:
// pending, then processing, then delivered.
type BundleStatus string

const (
	BundleStatusPending    BundleStatus = "pending"
	BundleStatusProcessing BundleStatus = "processing"
	BundleStatusDelivered  BundleStatus = "delivered"
)

// NotificationBundle accumulates notification-worthy events for one recipient
// over a fixed time window before a single delivery. At most one pending
// bundle may exist per (tenant, recipient) at a time; the store enforces this
// with a partial unique index.
type NotificationBundle struct {
	ID          uuid.UUID    `json:"id"`
	TenantID    uuid.UUID    `json:"tenant_id"`
	RecipientID uuid.UUID    `json:"recipient_id"`
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	Status      BundleStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewNotificationBundle creates a pending bundle whose window opens at start
// and spans the given duration.
func NewNotificationBundle(
	tenantID, recipientID uuid.UUID,
	start time.Time,
	window time.Duration,
) (*NotificationBundle, error) {
	b := &NotificationBundle{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RecipientID: recipientID,
		WindowStart: start,
		WindowEnd:   start.Add(window),
		Status:      BundleStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return b, nil
}

// Validate checks if the NotificationBundle has valid data.
func (b *NotificationBundle) Validate() error {
	if b.TenantID == uuid.Nil {
		return ErrCardTenantIDEmpty
	}

	if b.RecipientID == uuid.Nil {
		return ErrBundleRecipientEmpty
	}

	if !b.WindowEnd.After(b.WindowStart) {
		return ErrBundleWindowInvalid
	}

	return nil
}
