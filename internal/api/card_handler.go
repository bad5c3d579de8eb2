// Package api provides HTTP handlers for the API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/api/shared"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/lifecycle"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
)

// CardService is the slice of the lifecycle engine the card handlers use.
type CardService interface {
	CreateCard(ctx context.Context, actor auth.Identity, boardID uuid.UUID, title string) (*domain.Card, error)
	GetCard(ctx context.Context, actor auth.Identity, cardID uuid.UUID) (*domain.Card, error)
	ListCards(ctx context.Context, actor auth.Identity, boardID uuid.UUID) ([]*domain.Card, error)
	DeleteCard(ctx context.Context, actor auth.Identity, cardID uuid.UUID) error
	Transition(
		ctx context.Context,
		actor auth.Identity,
		cardID uuid.UUID,
		action lifecycle.Action,
		params lifecycle.TransitionParams,
	) (*domain.Card, error)
	Comment(ctx context.Context, actor auth.Identity, cardID uuid.UUID, body string) (*domain.Event, error)
}

// CardResponse represents the response data for a card.
type CardResponse struct {
	ID             string     `json:"id"`
	BoardID        string     `json:"board_id"`
	ColumnID       *string    `json:"column_id,omitempty"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	EffectiveState string     `json:"effective_state"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	PostponedAt    *time.Time `json:"postponed_at,omitempty"`
	LastActiveAt   time.Time  `json:"last_active_at"`
	IsGolden       bool       `json:"is_golden"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func cardToResponse(card *domain.Card) CardResponse {
	resp := CardResponse{
		ID:             card.ID.String(),
		BoardID:        card.BoardID.String(),
		Title:          card.Title,
		Status:         string(card.Status),
		EffectiveState: string(card.EffectiveState()),
		ClosedAt:       card.ClosedAt,
		PostponedAt:    card.PostponedAt,
		LastActiveAt:   card.LastActiveAt,
		IsGolden:       card.IsGolden,
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.UpdatedAt,
	}
	if card.ColumnID != nil {
		columnID := card.ColumnID.String()
		resp.ColumnID = &columnID
	}
	return resp
}

// CardHandler handles card-related HTTP requests.
type CardHandler struct {
	cards     CardService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cards CardService, logger *slog.Logger) *CardHandler {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		cards:     cards,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCardRequest represents the request body for creating a card.
type CreateCardRequest struct {
	BoardID string `json:"board_id" validate:"required,uuid"`
	Title   string `json:"title"`
}

// CreateCard handles POST /cards requests.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	boardID, err := uuid.Parse(req.BoardID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "board_id must be a UUID")
		return
	}

	card, err := h.cards.CreateCard(r.Context(), actor, boardID, req.Title)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// GetCard handles GET /cards/{cardID} requests.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	cardID, ok := uuidParam(w, r, "cardID")
	if !ok {
		return
	}

	card, err := h.cards.GetCard(r.Context(), actor, cardID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /cards/{cardID} requests.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	cardID, ok := uuidParam(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.cards.DeleteCard(r.Context(), actor, cardID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListBoardCards handles GET /boards/{boardID}/cards requests.
func (h *CardHandler) ListBoardCards(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	cards, err := h.cards.ListCards(r.Context(), actor, boardID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// Transition returns a handler for POST /cards/{cardID}/<action> requests
// covering the parameterless lifecycle actions.
func (h *CardHandler) Transition(action lifecycle.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identityFromRequest(w, r)
		if !ok {
			return
		}

		cardID, ok := uuidParam(w, r, "cardID")
		if !ok {
			return
		}

		card, err := h.cards.Transition(r.Context(), actor, cardID, action, lifecycle.TransitionParams{})
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}

		shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
	}
}

// TriageRequest represents the request body for triaging a card into a column.
type TriageRequest struct {
	ColumnID string `json:"column_id" validate:"required,uuid"`
}

// TriageCard handles POST /cards/{cardID}/triage requests.
func (h *CardHandler) TriageCard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	cardID, ok := uuidParam(w, r, "cardID")
	if !ok {
		return
	}

	var req TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	columnID, err := uuid.Parse(req.ColumnID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "column_id must be a UUID")
		return
	}

	card, err := h.cards.Transition(r.Context(), actor, cardID, lifecycle.ActionTriage,
		lifecycle.TransitionParams{ColumnID: &columnID})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// CommentRequest represents the request body for commenting on a card.
type CommentRequest struct {
	Body string `json:"body" validate:"required"`
}

// CommentCard handles POST /cards/{cardID}/comments requests.
func (h *CardHandler) CommentCard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	cardID, ok := uuidParam(w, r, "cardID")
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	event, err := h.cards.Comment(r.Context(), actor, cardID, req.Body)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, eventToResponse(event))
}

// identityFromRequest extracts the caller identity set by the auth
// middleware, rejecting the request if it is missing.
func identityFromRequest(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("identity not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return auth.Identity{}, false
	}
	return identity, true
}

// uuidParam parses a chi URL parameter as a UUID, rejecting the request on
// malformed input.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
