package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/mocks"
	"github.com/kestrelhq/driftboard/internal/store"
)

// testFixture wires an engine over in-memory stores with one board, one
// column, and a member actor.
type testFixture struct {
	engine  *Engine
	cards   *mocks.MockCardStore
	boards  *mocks.MockBoardStore
	events  *mocks.MockEventStore
	actor   auth.Identity
	board   *domain.Board
	column  *domain.Column
	nowFunc func() time.Time
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	cards := mocks.NewMockCardStore()
	boards := mocks.NewMockBoardStore()
	events := mocks.NewMockEventStore()

	engine := NewEngine(mocks.NewMockTxRunner(), cards, boards, events, nil, nil)

	tenantID := uuid.New()
	actor := auth.Identity{TenantID: tenantID, ActorID: uuid.New(), Role: auth.RoleMember}

	board, err := domain.NewBoard(tenantID, "Platform")
	require.NoError(t, err)
	require.NoError(t, boards.CreateBoard(context.Background(), board))

	column, err := domain.NewColumn(tenantID, board.ID, "In Progress", 0)
	require.NoError(t, err)
	require.NoError(t, boards.CreateColumn(context.Background(), column))

	now := time.Now().UTC()
	fx := &testFixture{
		engine:  engine,
		cards:   cards,
		boards:  boards,
		events:  events,
		actor:   actor,
		board:   board,
		column:  column,
		nowFunc: func() time.Time { return now },
	}
	engine.SetClock(fx.nowFunc)
	return fx
}

// seedCard places a card directly in the store in the requested effective
// state.
func (fx *testFixture) seedCard(t *testing.T, state domain.EffectiveState) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(fx.actor.TenantID, fx.board.ID, "Ship the thing")
	require.NoError(t, err)

	now := fx.nowFunc()
	switch state {
	case domain.StateDrafted:
	case domain.StateTriage:
		card.Status = domain.CardStatusPublished
	case domain.StateActive:
		card.Status = domain.CardStatusPublished
		card.ColumnID = &fx.column.ID
	case domain.StateClosed:
		card.Status = domain.CardStatusPublished
		card.ColumnID = &fx.column.ID
		card.ClosedAt = &now
		card.ClosedBy = &fx.actor.ActorID
	case domain.StateNotNow:
		card.Status = domain.CardStatusPublished
		card.PostponedAt = &now
		card.PostponedBy = &fx.actor.ActorID
	}

	fx.cards.Put(card)
	return card
}

func TestTransitionGuardTable(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.EffectiveState
		action  Action
		want    domain.EffectiveState
		wantErr error
	}{
		{name: "publish drafted", from: domain.StateDrafted, action: ActionPublish, want: domain.StateTriage},
		{name: "publish active", from: domain.StateActive, action: ActionPublish, wantErr: domain.ErrInvalidTransition},
		{name: "close active", from: domain.StateActive, action: ActionClose, want: domain.StateClosed},
		{name: "close triage", from: domain.StateTriage, action: ActionClose, wantErr: domain.ErrInvalidTransition},
		{name: "close closed", from: domain.StateClosed, action: ActionClose, wantErr: domain.ErrInvalidTransition},
		{name: "close postponed", from: domain.StateNotNow, action: ActionClose, wantErr: domain.ErrInvalidTransition},
		{name: "postpone active", from: domain.StateActive, action: ActionPostpone, want: domain.StateNotNow},
		{name: "postpone drafted", from: domain.StateDrafted, action: ActionPostpone, wantErr: domain.ErrInvalidTransition},
		{name: "postpone postponed", from: domain.StateNotNow, action: ActionPostpone, wantErr: domain.ErrInvalidTransition},
		{name: "reopen closed", from: domain.StateClosed, action: ActionReopen, want: domain.StateActive},
		{name: "reopen active", from: domain.StateActive, action: ActionReopen, wantErr: domain.ErrInvalidTransition},
		{name: "resume postponed", from: domain.StateNotNow, action: ActionResume, want: domain.StateTriage},
		{name: "resume closed", from: domain.StateClosed, action: ActionResume, wantErr: domain.ErrInvalidTransition},
		{name: "triage published", from: domain.StateTriage, action: ActionTriage, want: domain.StateActive},
		{name: "triage drafted", from: domain.StateDrafted, action: ActionTriage, wantErr: domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newTestFixture(t)
			card := fx.seedCard(t, tt.from)

			params := TransitionParams{}
			if tt.action == ActionTriage {
				params.ColumnID = &fx.column.ID
			}

			got, err := fx.engine.Transition(context.Background(), fx.actor, card.ID, tt.action, params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.EffectiveState())

			// Every successful transition appends exactly one event.
			require.Len(t, fx.events.Events, 1)
			assert.Equal(t, domain.EventAction(tt.action), fx.events.Events[0].Action)
			assert.Equal(t, card.ID, fx.events.Events[0].Target.ID)
		})
	}
}

func TestTransitionFailureAppendsNoEvent(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateClosed)

	_, err := fx.engine.Transition(context.Background(), fx.actor, card.ID, ActionClose, TransitionParams{})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, fx.events.Events)
}

func TestPublishFillsDefaultTitle(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateDrafted)
	card.Title = ""
	fx.cards.Put(card)

	got, err := fx.engine.Transition(context.Background(), fx.actor, card.ID, ActionPublish, TransitionParams{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, got.Title)
}

func TestPostponeClearsColumnAndSpike(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateActive)
	spike := fx.nowFunc()
	card.ActivitySpikeAt = &spike
	fx.cards.Put(card)

	got, err := fx.engine.Transition(context.Background(), fx.actor, card.ID, ActionPostpone, TransitionParams{})
	require.NoError(t, err)

	assert.Nil(t, got.ColumnID, "a postponed card goes back through triage on resume")
	assert.Nil(t, got.ActivitySpikeAt)
	require.NotNil(t, got.PostponedAt)
	assert.Equal(t, fx.actor.ActorID, *got.PostponedBy)
}

func TestReopenReturnsToPriorColumn(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateClosed)

	got, err := fx.engine.Transition(context.Background(), fx.actor, card.ID, ActionReopen, TransitionParams{})
	require.NoError(t, err)

	assert.Equal(t, domain.StateActive, got.EffectiveState())
	require.NotNil(t, got.ColumnID)
	assert.Equal(t, fx.column.ID, *got.ColumnID)
}

func TestTriageRequiresColumn(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateTriage)

	_, err := fx.engine.Transition(context.Background(), fx.actor, card.ID, ActionTriage, TransitionParams{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTriageRejectsColumnFromAnotherBoard(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateTriage)

	other, err := domain.NewBoard(fx.actor.TenantID, "Other")
	require.NoError(t, err)
	require.NoError(t, fx.boards.CreateBoard(context.Background(), other))
	foreign, err := domain.NewColumn(fx.actor.TenantID, other.ID, "Backlog", 0)
	require.NoError(t, err)
	require.NoError(t, fx.boards.CreateColumn(context.Background(), foreign))

	_, err = fx.engine.Transition(context.Background(), fx.actor, card.ID, ActionTriage,
		TransitionParams{ColumnID: &foreign.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestTransitionCrossTenantReadsAsNotFound(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateActive)

	intruder := auth.Identity{TenantID: uuid.New(), ActorID: uuid.New(), Role: auth.RoleAdmin}
	_, err := fx.engine.Transition(context.Background(), intruder, card.ID, ActionClose, TransitionParams{})
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestTransitionInactivityGuard(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateActive)

	// The card saw activity after the sweep's cutoff: the guarded postpone
	// must lose.
	cutoff := card.LastActiveAt.Add(-time.Minute)
	system := auth.SystemIdentity(fx.actor.TenantID)
	_, err := fx.engine.Transition(context.Background(), system, card.ID, ActionPostpone,
		TransitionParams{IfInactiveSince: &cutoff})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// Activity landing exactly at the cutoff instant also counts as active:
	// the guard is strict, like the scan's last_active_at < cutoff.
	cutoff = card.LastActiveAt
	_, err = fx.engine.Transition(context.Background(), system, card.ID, ActionPostpone,
		TransitionParams{IfInactiveSince: &cutoff})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// With a cutoff after the last activity the same postpone goes through
	// and the event is attributed to the system actor.
	cutoff = card.LastActiveAt.Add(time.Minute)
	got, err := fx.engine.Transition(context.Background(), system, card.ID, ActionPostpone,
		TransitionParams{IfInactiveSince: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotNow, got.EffectiveState())

	require.Len(t, fx.events.Events, 1)
	assert.Equal(t, auth.SystemActorID, fx.events.Events[0].ActorID)
	assert.JSONEq(t, `{"auto":true}`, string(fx.events.Events[0].Payload))
}

func TestCommentBumpsActivityAndSpikes(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateActive)

	// First comment lands within an hour of the seed activity, so the card
	// starts spiking.
	event, err := fx.engine.Comment(context.Background(), fx.actor, card.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionComment, event.Action)

	got, err := fx.cards.GetForTenant(context.Background(), fx.actor.TenantID, card.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ActivitySpikeAt)
	assert.Equal(t, fx.nowFunc(), got.LastActiveAt)

	_, err = fx.engine.Comment(context.Background(), fx.actor, card.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCommentAfterQuietPeriodDoesNotSpike(t *testing.T) {
	fx := newTestFixture(t)
	card := fx.seedCard(t, domain.StateActive)
	card.LastActiveAt = fx.nowFunc().Add(-2 * time.Hour)
	fx.cards.Put(card)

	_, err := fx.engine.Comment(context.Background(), fx.actor, card.ID, "ping")
	require.NoError(t, err)

	got, err := fx.cards.GetForTenant(context.Background(), fx.actor.TenantID, card.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ActivitySpikeAt)
}

func TestCreateCardValidatesBoard(t *testing.T) {
	fx := newTestFixture(t)

	card, err := fx.engine.CreateCard(context.Background(), fx.actor, fx.board.ID, "New work")
	require.NoError(t, err)
	assert.Equal(t, domain.StateDrafted, card.EffectiveState())
	assert.Empty(t, fx.events.Events, "drafted cards are invisible to the event log")

	_, err = fx.engine.CreateCard(context.Background(), fx.actor, uuid.New(), "Orphan")
	assert.ErrorIs(t, err, store.ErrBoardNotFound)
}

func TestAddMemberRequiresAdmin(t *testing.T) {
	fx := newTestFixture(t)
	userID := uuid.New()

	err := fx.engine.AddMember(context.Background(), fx.actor, fx.board.ID, userID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	admin := fx.actor
	admin.Role = auth.RoleAdmin
	require.NoError(t, fx.engine.AddMember(context.Background(), admin, fx.board.ID, userID))

	members, err := fx.boards.ListMemberIDs(context.Background(), fx.actor.TenantID, fx.board.ID)
	require.NoError(t, err)
	assert.Contains(t, members, userID)
}
