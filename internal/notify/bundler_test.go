package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/mocks"
	"github.com/kestrelhq/driftboard/internal/notify"
)

type bundlerFixture struct {
	bundler   *notify.Bundler
	bundles   *mocks.MockBundleStore
	events    *mocks.MockEventStore
	boards    *mocks.MockBoardStore
	delivery  *mocks.MockDelivery
	scheduler *mocks.MockScheduler

	tenantID uuid.UUID
	board    *domain.Board
	actor    uuid.UUID
	member   uuid.UUID
	now      time.Time
}

func newBundlerFixture(t *testing.T) *bundlerFixture {
	t.Helper()

	bundles := mocks.NewMockBundleStore()
	events := mocks.NewMockEventStore()
	boards := mocks.NewMockBoardStore()
	delivery := mocks.NewMockDelivery()
	scheduler := mocks.NewMockScheduler()
	events.Boards = boards

	bundler := notify.NewBundler(bundles, events, boards, delivery, scheduler, 30*time.Minute, nil)

	tenantID := uuid.New()
	board, err := domain.NewBoard(tenantID, "Launch")
	require.NoError(t, err)
	require.NoError(t, boards.CreateBoard(context.Background(), board))

	actor := uuid.New()
	member := uuid.New()
	require.NoError(t, boards.AddMember(context.Background(), tenantID, board.ID, actor))
	require.NoError(t, boards.AddMember(context.Background(), tenantID, board.ID, member))

	now := time.Now().UTC()
	fx := &bundlerFixture{
		bundler:   bundler,
		bundles:   bundles,
		events:    events,
		boards:    boards,
		delivery:  delivery,
		scheduler: scheduler,
		tenantID:  tenantID,
		board:     board,
		actor:     actor,
		member:    member,
		now:       now,
	}
	bundler.SetClock(func() time.Time { return fx.now })
	return fx
}

// emitEvent appends an event to the log and records it with the bundler,
// matching the emitter's post-commit sequence.
func (fx *bundlerFixture) emitEvent(t *testing.T, action domain.EventAction) *domain.Event {
	t.Helper()

	event, err := domain.NewEvent(
		fx.tenantID,
		fx.board.ID,
		fx.actor,
		action,
		domain.TargetRef{Type: domain.TargetCard, ID: uuid.New()},
		nil,
	)
	require.NoError(t, err)
	event.CreatedAt = fx.now
	require.NoError(t, fx.events.Append(context.Background(), event))
	require.NoError(t, fx.bundler.Record(context.Background(), event))
	return event
}

func TestRecordOpensOneBundlePerRecipient(t *testing.T) {
	fx := newBundlerFixture(t)

	fx.emitEvent(t, domain.ActionPublish)
	fx.emitEvent(t, domain.ActionClose)
	fx.emitEvent(t, domain.ActionComment)

	// Three events, but only the non-actor member gets a bundle, and only
	// one while it is pending.
	assert.Len(t, fx.bundles.Bundles, 1)
	bundle, err := fx.bundles.GetPending(context.Background(), fx.tenantID, fx.member)
	require.NoError(t, err)
	assert.Equal(t, fx.now.Add(30*time.Minute), bundle.WindowEnd)

	// Exactly one delivery was scheduled, at window end.
	require.Len(t, fx.scheduler.AtCalls, 1)
	assert.Equal(t, bundle.WindowEnd, fx.scheduler.AtCalls[0].At)
}

func TestScheduledDeliverySendsWindowEvents(t *testing.T) {
	fx := newBundlerFixture(t)

	fx.emitEvent(t, domain.ActionPublish)
	fx.emitEvent(t, domain.ActionClose)

	fx.scheduler.FireAll(context.Background())

	require.Equal(t, 1, fx.delivery.SentCount())
	sent := fx.delivery.Sent[0]
	assert.Equal(t, fx.member, sent.RecipientID)
	assert.Len(t, sent.Batch, 2)

	bundle, err := fx.bundles.GetByID(context.Background(), firstBundleID(fx))
	require.NoError(t, err)
	assert.Equal(t, domain.BundleStatusDelivered, bundle.Status)
}

func TestDeliveryIncludesEventAtWindowEnd(t *testing.T) {
	fx := newBundlerFixture(t)

	fx.emitEvent(t, domain.ActionPublish)

	// An event stamped exactly at window end belongs to this bundle, not
	// the next one.
	fx.now = fx.now.Add(30 * time.Minute)
	fx.emitEvent(t, domain.ActionClose)

	assert.Len(t, fx.bundles.Bundles, 1)

	fx.scheduler.FireAll(context.Background())

	require.Equal(t, 1, fx.delivery.SentCount())
	assert.Len(t, fx.delivery.Sent[0].Batch, 2)
}

func TestDeliverIsIdempotent(t *testing.T) {
	fx := newBundlerFixture(t)
	fx.emitEvent(t, domain.ActionPublish)
	bundleID := firstBundleID(fx)

	require.NoError(t, fx.bundler.Deliver(context.Background(), bundleID))
	require.NoError(t, fx.bundler.Deliver(context.Background(), bundleID))

	assert.Equal(t, 1, fx.delivery.SentCount(), "second deliver loses the status CAS")

	// A missing bundle is also a no-op.
	require.NoError(t, fx.bundler.Deliver(context.Background(), uuid.New()))
}

func TestDeliverSkipsSendForEmptyWindow(t *testing.T) {
	fx := newBundlerFixture(t)
	fx.emitEvent(t, domain.ActionPublish)

	// Clear the log so the window collects nothing at delivery time.
	fx.events.Events = nil

	require.NoError(t, fx.bundler.Deliver(context.Background(), firstBundleID(fx)))
	assert.Zero(t, fx.delivery.SentCount())

	bundle, err := fx.bundles.GetByID(context.Background(), firstBundleID(fx))
	require.NoError(t, err)
	assert.Equal(t, domain.BundleStatusDelivered, bundle.Status, "empty bundles still complete")
}

func TestFailedDeliveryIsRetriedByCatchAll(t *testing.T) {
	fx := newBundlerFixture(t)
	fx.emitEvent(t, domain.ActionPublish)
	bundleID := firstBundleID(fx)

	fx.delivery.Error = errors.New("smtp down")
	require.Error(t, fx.bundler.Deliver(context.Background(), bundleID))

	bundle, err := fx.bundles.GetByID(context.Background(), bundleID)
	require.NoError(t, err)
	assert.Equal(t, domain.BundleStatusProcessing, bundle.Status, "left claimed for the sweep")

	// Before a full window has passed the sweep leaves it alone.
	fx.delivery.Error = nil
	delivered, err := fx.bundler.SweepOverdue(context.Background(), fx.now.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, delivered)

	// One window later the sweep resets it to pending and redelivers.
	delivered, err = fx.bundler.SweepOverdue(context.Background(), fx.now.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, fx.delivery.SentCount())
}

func TestSweepOverdueDeliversMissedBundles(t *testing.T) {
	fx := newBundlerFixture(t)
	fx.emitEvent(t, domain.ActionPublish)

	// The scheduled timer never fires (process restart). The catch-all
	// sweep picks the bundle up once its window has closed.
	delivered, err := fx.bundler.SweepOverdue(context.Background(), fx.now.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, fx.delivery.SentCount())
}

func TestRecordAfterDeliveryOpensNewBundle(t *testing.T) {
	fx := newBundlerFixture(t)
	fx.emitEvent(t, domain.ActionPublish)
	require.NoError(t, fx.bundler.Deliver(context.Background(), firstBundleID(fx)))

	// The next event after delivery starts a fresh window.
	fx.now = fx.now.Add(time.Hour)
	fx.emitEvent(t, domain.ActionClose)

	assert.Len(t, fx.bundles.Bundles, 2)
	bundle, err := fx.bundles.GetPending(context.Background(), fx.tenantID, fx.member)
	require.NoError(t, err)
	assert.Equal(t, fx.now, bundle.WindowStart)
}

func firstBundleID(fx *bundlerFixture) uuid.UUID {
	for id := range fx.bundles.Bundles {
		return id
	}
	return uuid.Nil
}
