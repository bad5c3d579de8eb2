package entropy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/lifecycle"
	"github.com/kestrelhq/driftboard/internal/mocks"
)

type sweepFixture struct {
	scheduler *Scheduler
	cards     *mocks.MockCardStore
	boards    *mocks.MockBoardStore
	tenants   *mocks.MockTenantStore
	configs   *mocks.MockEntropyConfigStore
	events    *mocks.MockEventStore
	tenantID  uuid.UUID
	board     *domain.Board
	column    *domain.Column
	now       time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()

	cards := mocks.NewMockCardStore()
	boards := mocks.NewMockBoardStore()
	tenants := mocks.NewMockTenantStore()
	configs := mocks.NewMockEntropyConfigStore()
	events := mocks.NewMockEventStore()

	engine := lifecycle.NewEngine(mocks.NewMockTxRunner(), cards, boards, events, nil, nil)
	scheduler := NewScheduler(engine, cards, boards, tenants, configs, nil)

	tenant, err := domain.NewTenant("acme")
	require.NoError(t, err)
	require.NoError(t, tenants.Create(context.Background(), tenant))

	board, err := domain.NewBoard(tenant.ID, "Ops")
	require.NoError(t, err)
	require.NoError(t, boards.CreateBoard(context.Background(), board))

	column, err := domain.NewColumn(tenant.ID, board.ID, "Doing", 0)
	require.NoError(t, err)
	require.NoError(t, boards.CreateColumn(context.Background(), column))

	return &sweepFixture{
		scheduler: scheduler,
		cards:     cards,
		boards:    boards,
		tenants:   tenants,
		configs:   configs,
		events:    events,
		tenantID:  tenant.ID,
		board:     board,
		column:    column,
		now:       time.Now().UTC(),
	}
}

// seedActiveCard puts an active card on the fixture board with the given
// inactivity age.
func (fx *sweepFixture) seedActiveCard(t *testing.T, inactiveFor time.Duration) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(fx.tenantID, fx.board.ID, "Stale work")
	require.NoError(t, err)
	card.Status = domain.CardStatusPublished
	card.ColumnID = &fx.column.ID
	card.LastActiveAt = fx.now.Add(-inactiveFor)
	fx.cards.Put(card)
	return card
}

func TestSweepPostponesOnlyStaleCards(t *testing.T) {
	fx := newSweepFixture(t)

	stale := fx.seedActiveCard(t, domain.DefaultAutoPostponePeriod+time.Hour)
	fresh := fx.seedActiveCard(t, time.Hour)

	report, err := fx.scheduler.Sweep(context.Background(), fx.now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tenants)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Postponed)
	assert.Zero(t, report.Failed)

	got, err := fx.cards.GetForTenant(context.Background(), fx.tenantID, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotNow, got.EffectiveState())
	require.NotNil(t, got.PostponedBy)
	assert.Equal(t, auth.SystemActorID, *got.PostponedBy)

	got, err = fx.cards.GetForTenant(context.Background(), fx.tenantID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, got.EffectiveState())
}

func TestSweepIsIdempotent(t *testing.T) {
	fx := newSweepFixture(t)
	fx.seedActiveCard(t, domain.DefaultAutoPostponePeriod+time.Hour)

	report, err := fx.scheduler.Sweep(context.Background(), fx.now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Postponed)

	// A second sweep finds nothing: postponed cards fail the scan predicate.
	report, err = fx.scheduler.Sweep(context.Background(), fx.now)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Zero(t, report.Postponed)
}

func TestSweepSkipsCardTouchedAfterScan(t *testing.T) {
	fx := newSweepFixture(t)
	card := fx.seedActiveCard(t, domain.DefaultAutoPostponePeriod+time.Hour)

	// Simulate a user touching the card between the scan read and the
	// guarded write: the scan returns the stale snapshot, but the stored
	// row is already fresh.
	stale := *card
	fx.cards.ListStaleByBoardFn = func(ctx context.Context, tenantID, boardID uuid.UUID, cutoff time.Time) ([]*domain.Card, error) {
		return []*domain.Card{&stale}, nil
	}
	card.LastActiveAt = fx.now
	fx.cards.Put(card)

	report, err := fx.scheduler.Sweep(context.Background(), fx.now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Postponed)

	got, err := fx.cards.GetForTenant(context.Background(), fx.tenantID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, got.EffectiveState(), "the user action wins")
}

func TestEffectivePeriodResolution(t *testing.T) {
	fx := newSweepFixture(t)
	ctx := context.Background()

	// No configs: system default.
	period, err := fx.scheduler.EffectivePeriod(ctx, fx.tenantID, fx.board.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAutoPostponePeriod, period)

	// Tenant config overrides the default.
	tenantCfg, err := domain.NewTenantEntropyConfig(fx.tenantID, 14*24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, fx.configs.Upsert(ctx, tenantCfg))

	period, err = fx.scheduler.EffectivePeriod(ctx, fx.tenantID, fx.board.ID)
	require.NoError(t, err)
	assert.Equal(t, 14*24*time.Hour, period)

	// Board config overrides the tenant's.
	boardCfg, err := domain.NewBoardEntropyConfig(fx.tenantID, fx.board.ID, 7*24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, fx.configs.Upsert(ctx, boardCfg))

	period, err = fx.scheduler.EffectivePeriod(ctx, fx.tenantID, fx.board.ID)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, period)
}

func TestSweepHonorsBoardPeriod(t *testing.T) {
	fx := newSweepFixture(t)

	boardCfg, err := domain.NewBoardEntropyConfig(fx.tenantID, fx.board.ID, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, fx.configs.Upsert(context.Background(), boardCfg))

	card := fx.seedActiveCard(t, 36*time.Hour)

	report, err := fx.scheduler.Sweep(context.Background(), fx.now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Postponed)

	got, err := fx.cards.GetForTenant(context.Background(), fx.tenantID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotNow, got.EffectiveState())
}

func TestListApproachingExpiry(t *testing.T) {
	fx := newSweepFixture(t)

	boardCfg, err := domain.NewBoardEntropyConfig(fx.tenantID, fx.board.ID, 100*time.Hour)
	require.NoError(t, err)
	require.NoError(t, fx.configs.Upsert(context.Background(), boardCfg))

	approaching := fx.seedActiveCard(t, 80*time.Hour) // past the 75% mark
	fx.seedActiveCard(t, 10*time.Hour)                // well within the period

	cards, err := fx.scheduler.ListApproachingExpiry(context.Background(), fx.tenantID, fx.now)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, approaching.ID, cards[0].ID)
}

func TestUpsertConfigRequiresAdmin(t *testing.T) {
	fx := newSweepFixture(t)
	member := auth.Identity{TenantID: fx.tenantID, ActorID: uuid.New(), Role: auth.RoleMember}
	admin := auth.Identity{TenantID: fx.tenantID, ActorID: uuid.New(), Role: auth.RoleAdmin}

	_, err := fx.scheduler.UpsertTenantConfig(context.Background(), member, time.Hour)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	cfg, err := fx.scheduler.UpsertTenantConfig(context.Background(), admin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.EntropyScopeTenant, cfg.Scope)

	_, err = fx.scheduler.UpsertTenantConfig(context.Background(), admin, -time.Hour)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = fx.scheduler.UpsertBoardConfig(context.Background(), admin, uuid.New(), time.Hour)
	require.Error(t, err, "unknown board is rejected")
}
