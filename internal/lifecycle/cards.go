package lifecycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
)

// CreateCard creates a new drafted card on a board within the actor's
// tenant. Drafted cards are invisible to the lifecycle until published, so
// no event is appended.
func (e *Engine) CreateCard(
	ctx context.Context,
	actor auth.Identity,
	boardID uuid.UUID,
	title string,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	// Validates board existence and tenant ownership in one read.
	if _, err := e.boards.GetBoard(ctx, actor.TenantID, boardID); err != nil {
		return nil, err
	}

	card, err := domain.NewCard(actor.TenantID, boardID, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := e.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	log.Info("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("board_id", boardID.String()),
		slog.String("actor_id", actor.ActorID.String()))
	return card, nil
}

// GetCard retrieves a card within the actor's tenant.
func (e *Engine) GetCard(
	ctx context.Context,
	actor auth.Identity,
	cardID uuid.UUID,
) (*domain.Card, error) {
	return e.cards.GetForTenant(ctx, actor.TenantID, cardID)
}

// ListCards returns the cards on a board within the actor's tenant.
func (e *Engine) ListCards(
	ctx context.Context,
	actor auth.Identity,
	boardID uuid.UUID,
) ([]*domain.Card, error) {
	return e.cards.ListByBoard(ctx, actor.TenantID, boardID)
}

// DeleteCard removes a card. Events referencing the card are kept; their
// target references dangle and readers tolerate that.
func (e *Engine) DeleteCard(
	ctx context.Context,
	actor auth.Identity,
	cardID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if err := e.cards.Delete(ctx, actor.TenantID, cardID); err != nil {
		return err
	}

	log.Info("card deleted",
		slog.String("card_id", cardID.String()),
		slog.String("actor_id", actor.ActorID.String()))
	return nil
}

// Comment records a collaboration comment on a card. Comments count as
// activity: they bump lastActiveAt, and a comment landing within an hour of
// the previous activity marks the card as spiking.
func (e *Engine) Comment(
	ctx context.Context,
	actor auth.Identity,
	cardID uuid.UUID,
	body string,
) (*domain.Event, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: comment body cannot be empty", domain.ErrValidation)
	}

	var event *domain.Event

	err := e.runner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := e.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, actor.TenantID, cardID)
		if err != nil {
			return err
		}

		now := e.now()
		if now.Sub(card.LastActiveAt) < activitySpikeWindow {
			card.ActivitySpikeAt = &now
		}
		card.LastActiveAt = now
		card.UpdatedAt = now
		if err := cards.Update(ctx, card); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]string{"body": body})
		if err != nil {
			return err
		}

		event, err = domain.NewEvent(
			card.TenantID,
			card.BoardID,
			actor.ActorID,
			domain.ActionComment,
			domain.TargetRef{Type: domain.TargetCard, ID: card.ID},
			payload,
		)
		if err != nil {
			return err
		}
		return e.events.WithTx(tx).Append(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, event)
	return event, nil
}
