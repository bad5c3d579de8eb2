package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kestrelhq/driftboard/internal/api/shared"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/store"
)

// defaultEventListLimit caps action-filtered event listings when the client
// does not ask for a specific limit.
const defaultEventListLimit = 50

// EventResponse represents the response data for one event-log entry.
type EventResponse struct {
	ID         string          `json:"id"`
	BoardID    string          `json:"board_id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func eventToResponse(event *domain.Event) EventResponse {
	return EventResponse{
		ID:         event.ID.String(),
		BoardID:    event.BoardID.String(),
		ActorID:    event.ActorID.String(),
		Action:     string(event.Action),
		TargetType: string(event.Target.Type),
		TargetID:   event.Target.ID.String(),
		Payload:    event.Payload,
		CreatedAt:  event.CreatedAt,
	}
}

// EventHandler serves read access to the event log. The log has no write
// surface here: every append happens inside a mutation.
type EventHandler struct {
	events store.EventStore
	logger *slog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events store.EventStore, logger *slog.Logger) *EventHandler {
	if events == nil {
		panic("events cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil for EventHandler")
	}

	return &EventHandler{
		events: events,
		logger: logger.With(slog.String("component", "event_handler")),
	}
}

// ListCardEvents handles GET /cards/{cardID}/events requests. The listing is
// oldest first and includes comments, so it doubles as the card's thread.
func (h *EventHandler) ListCardEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	cardID, ok := uuidParam(w, r, "cardID")
	if !ok {
		return
	}

	events, err := h.events.ListByTarget(r.Context(), actor.TenantID,
		domain.TargetRef{Type: domain.TargetCard, ID: cardID})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, eventToResponse(event))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListByAction handles GET /events?action=...&limit=... requests, newest
// first within the actor's tenant.
func (h *EventHandler) ListByAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	action := domain.EventAction(r.URL.Query().Get("action"))
	if action == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "action query parameter is required")
		return
	}

	limit := defaultEventListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.events.ListByTenantAction(r.Context(), actor.TenantID, action, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, eventToResponse(event))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}
