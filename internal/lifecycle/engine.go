// Package lifecycle implements the card state machine. The engine is the
// single writer of card state and the single producer of lifecycle events;
// user requests and background sweeps both enter through Transition.
package lifecycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/events"
	"github.com/kestrelhq/driftboard/internal/metrics"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
	"github.com/kestrelhq/driftboard/internal/store"
)

// Action names a lifecycle transition.
type Action string

const (
	ActionPublish  Action = "publish"
	ActionClose    Action = "close"
	ActionPostpone Action = "postpone"
	ActionReopen   Action = "reopen"
	ActionResume   Action = "resume"
	ActionTriage   Action = "triage"
)

// DefaultTitle is assigned when a card is published with an empty title.
const DefaultTitle = "Untitled"

// activitySpikeWindow is how recent the previous activity must be for a new
// comment to mark the card as spiking.
const activitySpikeWindow = time.Hour

// TransitionParams carries the optional inputs of a transition.
type TransitionParams struct {
	// ColumnID is the target column. Required for ActionTriage.
	ColumnID *uuid.UUID

	// IfInactiveSince is the entropy sweep's guard cutoff. When set, the
	// transition fails with domain.ErrConcurrencyConflict if the card has
	// been active after the cutoff, re-checked under the row lock so a
	// concurrent user action is never overwritten.
	IfInactiveSince *time.Time
}

// Engine validates and executes card state transitions. All card mutations
// in the system flow through it.
type Engine struct {
	runner  store.TxRunner
	cards   store.CardStore
	boards  store.BoardStore
	events  store.EventStore
	emitter events.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a new Engine. The emitter may be nil, in which case no
// post-commit fan-out happens (useful for tooling).
func NewEngine(
	runner store.TxRunner,
	cards store.CardStore,
	boards store.BoardStore,
	eventStore store.EventStore,
	emitter events.Emitter,
	logger *slog.Logger,
) *Engine {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if boards == nil {
		panic("boards cannot be nil")
	}
	if eventStore == nil {
		panic("eventStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		runner:  runner,
		cards:   cards,
		boards:  boards,
		events:  eventStore,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "lifecycle_engine")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the engine's time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Transition applies the named action to a card on behalf of the actor.
// It returns the updated card, or an error naming the violated
// precondition. Repeat calls are not swallowed: closing an already-closed
// card is domain.ErrInvalidTransition so client bugs surface early.
func (e *Engine) Transition(
	ctx context.Context,
	actor auth.Identity,
	cardID uuid.UUID,
	action Action,
	params TransitionParams,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if action == ActionTriage && params.ColumnID == nil {
		metrics.TransitionsTotal.WithLabelValues(string(action), "invalid").Inc()
		return nil, fmt.Errorf("%w: triage requires a target column", domain.ErrValidation)
	}

	var card *domain.Card
	var event *domain.Event

	err := e.runner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := e.cards.WithTx(tx)

		var err error
		card, err = cards.GetForUpdate(ctx, actor.TenantID, cardID)
		if err != nil {
			return err
		}

		// Guarded writes re-check eligibility on the row-locked read so a
		// user action between the sweep's scan and this write wins. The
		// cutoff is exclusive, matching the scan's last_active_at < cutoff.
		if params.IfInactiveSince != nil && !card.LastActiveAt.Before(*params.IfInactiveSince) {
			return fmt.Errorf("%w: card active after sweep cutoff",
				domain.ErrConcurrencyConflict)
		}

		now := e.now()
		if err := e.apply(ctx, tx, card, actor, action, params, now); err != nil {
			return err
		}

		card.LastActiveAt = now
		card.UpdatedAt = now
		if err := cards.Update(ctx, card); err != nil {
			return err
		}

		event, err = e.buildEvent(card, actor, action, params)
		if err != nil {
			return err
		}
		return e.events.WithTx(tx).Append(ctx, event)
	})
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(action), resultLabel(err)).Inc()
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(action), "success").Inc()
	log.Info("card transition applied",
		slog.String("card_id", card.ID.String()),
		slog.String("action", string(action)),
		slog.String("actor_id", actor.ActorID.String()),
		slog.String("effective_state", string(card.EffectiveState())))

	e.emit(ctx, event)
	return card, nil
}

// apply mutates the card in place according to the action's guard table.
func (e *Engine) apply(
	ctx context.Context,
	tx *sql.Tx,
	card *domain.Card,
	actor auth.Identity,
	action Action,
	params TransitionParams,
	now time.Time,
) error {
	state := card.EffectiveState()

	switch action {
	case ActionPublish:
		if state != domain.StateDrafted {
			return transitionError(action, state, "only a drafted card can be published")
		}
		card.Status = domain.CardStatusPublished
		if card.Title == "" {
			card.Title = DefaultTitle
		}

	case ActionClose:
		if state != domain.StateActive {
			return transitionError(action, state, "only an active card can be closed")
		}
		card.ClosedAt = &now
		card.ClosedBy = &actor.ActorID
		card.PostponedAt = nil
		card.PostponedBy = nil

	case ActionPostpone:
		if state != domain.StateActive {
			return transitionError(action, state, "only an active card can be postponed")
		}
		card.PostponedAt = &now
		card.PostponedBy = &actor.ActorID
		card.ColumnID = nil
		card.ClosedAt = nil
		card.ClosedBy = nil
		card.ActivitySpikeAt = nil

	case ActionReopen:
		if state != domain.StateClosed {
			return transitionError(action, state, "only a closed card can be reopened")
		}
		card.ClosedAt = nil
		card.ClosedBy = nil

	case ActionResume:
		if state != domain.StateNotNow {
			return transitionError(action, state, "only a postponed card can be resumed")
		}
		card.PostponedAt = nil
		card.PostponedBy = nil
		card.ActivitySpikeAt = nil

	case ActionTriage:
		if state == domain.StateDrafted {
			return transitionError(action, state, "a drafted card cannot be triaged")
		}
		column, err := e.boards.WithTx(tx).GetColumn(ctx, actor.TenantID, *params.ColumnID)
		if err != nil {
			return err
		}
		if column.BoardID != card.BoardID {
			return fmt.Errorf("%w: column %s belongs to a different board",
				domain.ErrInvalidReference, column.ID)
		}
		card.ColumnID = params.ColumnID
		card.PostponedAt = nil
		card.PostponedBy = nil

	default:
		return fmt.Errorf("%w: unknown action %q", domain.ErrValidation, action)
	}

	return nil
}

func (e *Engine) buildEvent(
	card *domain.Card,
	actor auth.Identity,
	action Action,
	params TransitionParams,
) (*domain.Event, error) {
	var payload json.RawMessage
	switch {
	case action == ActionTriage:
		raw, err := json.Marshal(map[string]string{"column_id": params.ColumnID.String()})
		if err != nil {
			return nil, err
		}
		payload = raw
	case actor.Role == auth.RoleSystem:
		payload = json.RawMessage(`{"auto":true}`)
	}

	return domain.NewEvent(
		card.TenantID,
		card.BoardID,
		actor.ActorID,
		domain.EventAction(action),
		domain.TargetRef{Type: domain.TargetCard, ID: card.ID},
		payload,
	)
}

// emit publishes the event to background consumers. Emission happens after
// commit and never fails the mutation.
func (e *Engine) emit(ctx context.Context, event *domain.Event) {
	if e.emitter == nil || event == nil {
		return
	}
	if err := e.emitter.EmitEvent(ctx, event); err != nil {
		e.logger.Error("event fan-out failed",
			slog.String("event_id", event.ID.String()),
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()))
	}
}

func transitionError(action Action, state domain.EffectiveState, precondition string) error {
	return fmt.Errorf("%w: cannot %s a card in state %s: %s",
		domain.ErrInvalidTransition, action, state, precondition)
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
