package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// Notification is one event rendered for delivery to a recipient.
type Notification struct {
	EventID   uuid.UUID          `json:"event_id"`
	BoardID   uuid.UUID          `json:"board_id"`
	ActorID   uuid.UUID          `json:"actor_id"`
	Action    domain.EventAction `json:"action"`
	Target    domain.TargetRef   `json:"target"`
	Payload   json.RawMessage    `json:"payload,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Delivery is the external channel that performs the actual send, such as
// email or push. Transport failures and retries inside the channel are its
// own concern; the bundler only retries via the catch-all sweep.
type Delivery interface {
	// Send delivers one batch to one recipient.
	Send(ctx context.Context, recipientID uuid.UUID, batch []Notification) error
}

// LogDelivery is a Delivery that writes batches to the structured log.
// It stands in for a real channel in development and tests.
type LogDelivery struct {
	logger *slog.Logger
}

// NewLogDelivery creates a LogDelivery.
func NewLogDelivery(logger *slog.Logger) *LogDelivery {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDelivery{logger: logger.With(slog.String("component", "log_delivery"))}
}

var _ Delivery = (*LogDelivery)(nil)

// Send implements Delivery.Send.
func (d *LogDelivery) Send(ctx context.Context, recipientID uuid.UUID, batch []Notification) error {
	d.logger.Info("delivering notification batch",
		slog.String("recipient_id", recipientID.String()),
		slog.Int("count", len(batch)))
	return nil
}
