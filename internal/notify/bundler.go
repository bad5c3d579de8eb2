// Package notify aggregates notification-worthy events into per-recipient
// time windows and delivers each window once. Delivery is idempotent
// through the bundle's status field, so the scheduled callback and the
// catch-all sweep can both fire for the same bundle without duplicate
// sends.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/metrics"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
	"github.com/kestrelhq/driftboard/internal/sched"
	"github.com/kestrelhq/driftboard/internal/store"
)

// DefaultWindow is the bundle accumulation window.
const DefaultWindow = 30 * time.Minute

// Bundler opens per-recipient bundles as events arrive and delivers them
// when their window closes. It consumes events emitted by the lifecycle
// engine; it is registered as a handler on the event emitter.
type Bundler struct {
	bundles  store.BundleStore
	events   store.EventStore
	boards   store.BoardStore
	delivery Delivery
	sched    sched.Scheduler
	window   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewBundler creates a new Bundler with the given accumulation window.
// A zero window falls back to DefaultWindow.
func NewBundler(
	bundles store.BundleStore,
	eventStore store.EventStore,
	boards store.BoardStore,
	delivery Delivery,
	scheduler sched.Scheduler,
	window time.Duration,
	logger *slog.Logger,
) *Bundler {
	if bundles == nil {
		panic("bundles cannot be nil")
	}
	if eventStore == nil {
		panic("eventStore cannot be nil")
	}
	if boards == nil {
		panic("boards cannot be nil")
	}
	if delivery == nil {
		panic("delivery cannot be nil")
	}

	if window <= 0 {
		window = DefaultWindow
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Bundler{
		bundles:  bundles,
		events:   eventStore,
		boards:   boards,
		delivery: delivery,
		sched:    scheduler,
		window:   window,
		logger:   logger.With(slog.String("component", "notification_bundler")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the bundler's time source. Intended for tests.
func (b *Bundler) SetClock(now func() time.Time) {
	b.now = now
}

// HandleEvent implements events.Handler. It records the event for every
// recipient; failures here never roll back the mutation that produced the
// event.
func (b *Bundler) HandleEvent(ctx context.Context, event *domain.Event) error {
	return b.Record(ctx, event)
}

// Record ensures every recipient of the event has a pending bundle. The
// event itself is not attached to the bundle: delivery collects events from
// the log by window, so recording is a cheap existence check.
func (b *Bundler) Record(ctx context.Context, event *domain.Event) error {
	log := logger.FromContextOrDefault(ctx, b.logger)

	memberIDs, err := b.boards.ListMemberIDs(ctx, event.TenantID, event.BoardID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	var firstErr error
	for _, memberID := range memberIDs {
		if memberID == event.ActorID {
			// Actors are not notified about their own actions.
			continue
		}
		if err := b.ensureBundle(ctx, event.TenantID, memberID); err != nil {
			log.Error("failed to open bundle for recipient",
				slog.String("recipient_id", memberID.String()),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// ensureBundle opens a pending bundle for the recipient if none exists and
// schedules its delivery at window end. A concurrent open racing this one
// loses on the unique index and is treated as success.
func (b *Bundler) ensureBundle(ctx context.Context, tenantID, recipientID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, b.logger)

	_, err := b.bundles.GetPending(ctx, tenantID, recipientID)
	if err == nil {
		// Already accumulating; the event is picked up at delivery time.
		return nil
	}
	if !errors.Is(err, store.ErrBundleNotFound) {
		return err
	}

	bundle, err := domain.NewNotificationBundle(tenantID, recipientID, b.now(), b.window)
	if err != nil {
		return err
	}

	if err := b.bundles.Create(ctx, bundle); err != nil {
		if errors.Is(err, store.ErrPendingBundleExists) {
			return nil
		}
		return err
	}

	metrics.BundlesCreatedTotal.Inc()
	log.Debug("opened notification bundle",
		slog.String("bundle_id", bundle.ID.String()),
		slog.String("recipient_id", recipientID.String()),
		slog.Time("window_end", bundle.WindowEnd))

	if b.sched != nil {
		bundleID := bundle.ID
		b.sched.RunAt(bundle.WindowEnd, func(ctx context.Context) {
			if err := b.Deliver(ctx, bundleID); err != nil {
				b.logger.Error("scheduled bundle delivery failed",
					slog.String("bundle_id", bundleID.String()),
					slog.String("error", err.Error()))
			}
		})
	}

	return nil
}

// Deliver sends the bundle's window of events to its recipient. It is a
// no-op if the bundle is missing or not pending, which makes it safe under
// at-least-once invocation: the status CAS is the idempotency check, and a
// manual early delivery implicitly cancels the scheduled one.
func (b *Bundler) Deliver(ctx context.Context, bundleID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, b.logger)

	bundle, err := b.bundles.GetByID(ctx, bundleID)
	if err != nil {
		if errors.Is(err, store.ErrBundleNotFound) {
			log.Debug("bundle gone before delivery", slog.String("bundle_id", bundleID.String()))
			return nil
		}
		return err
	}

	claimed, err := b.bundles.MarkProcessing(ctx, bundleID)
	if err != nil {
		return err
	}
	if !claimed {
		log.Debug("bundle already claimed",
			slog.String("bundle_id", bundleID.String()),
			slog.String("status", string(bundle.Status)))
		return nil
	}

	events, err := b.events.ListForRecipientWindow(
		ctx,
		bundle.TenantID,
		bundle.RecipientID,
		bundle.WindowStart,
		bundle.WindowEnd,
	)
	if err != nil {
		// Left in processing; the catch-all sweep resets and retries.
		metrics.BundleDeliveriesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to collect window events: %w", err)
	}

	if len(events) > 0 {
		batch := make([]Notification, 0, len(events))
		for _, ev := range events {
			batch = append(batch, Notification{
				EventID:   ev.ID,
				BoardID:   ev.BoardID,
				ActorID:   ev.ActorID,
				Action:    ev.Action,
				Target:    ev.Target,
				Payload:   ev.Payload,
				CreatedAt: ev.CreatedAt,
			})
		}

		if err := b.delivery.Send(ctx, bundle.RecipientID, batch); err != nil {
			metrics.BundleDeliveriesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("delivery channel failed: %w", err)
		}
	}

	if err := b.bundles.MarkDelivered(ctx, bundleID); err != nil {
		return err
	}

	metrics.BundleDeliveriesTotal.WithLabelValues("delivered").Inc()
	log.Info("bundle delivered",
		slog.String("bundle_id", bundleID.String()),
		slog.String("recipient_id", bundle.RecipientID.String()),
		slog.Int("notifications", len(events)))
	return nil
}

// SweepOverdue force-delivers pending bundles whose window has closed and
// requeues deliveries stuck in processing for longer than one window. It
// covers missed or duplicated scheduling; both paths go through the same
// idempotent Deliver.
func (b *Bundler) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	// Fixed-cadence retry: a failed delivery waits one full window before
	// its bundle is reset and retried here.
	reset, err := b.bundles.ResetStaleProcessing(ctx, now.Add(-b.window))
	if err != nil {
		log.Error("failed to reset stale deliveries", slog.String("error", err.Error()))
	} else if reset > 0 {
		log.Info("requeued stale deliveries", slog.Int("count", reset))
	}

	overdue, err := b.bundles.ListOverduePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue bundles: %w", err)
	}

	delivered := 0
	for _, bundle := range overdue {
		if err := b.Deliver(ctx, bundle.ID); err != nil {
			log.Error("catch-all delivery failed",
				slog.String("bundle_id", bundle.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		delivered++
	}

	return delivered, nil
}
