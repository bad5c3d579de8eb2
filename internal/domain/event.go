package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEventActionEmpty is returned when an event has no action name.
	ErrEventActionEmpty = errors.New("event action cannot be empty")

	// ErrEventTargetInvalid is returned when an event's target reference is
	// missing its type or ID.
	ErrEventTargetInvalid = errors.New("event target must have a type and an ID")
)

// EventAction names the action that produced an event. Lifecycle actions use
// the transition name; collaboration actions have their own names.
type EventAction string

const (
	ActionPublish  EventAction = "publish"
	ActionClose    EventAction = "close"
	ActionPostpone EventAction = "postpone"
	ActionReopen   EventAction = "reopen"
	ActionResume   EventAction = "resume"
	ActionTriage   EventAction = "triage"
	ActionComment  EventAction = "comment"
)

// TargetType discriminates the closed set of entities an event can reference.
type TargetType string

const (
	TargetCard   TargetType = "card"
	TargetBoard  TargetType = "board"
	TargetColumn TargetType = "column"
)

// TargetRef is a tagged reference to the entity an event is about. Readers
// dispatch on Type; there is no polymorphic resolution at write time.
type TargetRef struct {
	Type TargetType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

// Event is one append-only record of a state change or collaboration action.
// Events are immutable once written.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	BoardID   uuid.UUID       `json:"board_id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Action    EventAction     `json:"action"`
	Target    TargetRef       `json:"target"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent creates a new Event with a generated ID and creation timestamp.
// Returns an error if validation fails.
func NewEvent(
	tenantID, boardID, actorID uuid.UUID,
	action EventAction,
	target TargetRef,
	payload json.RawMessage,
) (*Event, error) {
	ev := &Event{
		ID:        uuid.New(),
		TenantID:  tenantID,
		BoardID:   boardID,
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}

	return ev, nil
}

// Validate checks if the Event has valid data.
func (e *Event) Validate() error {
	if e.TenantID == uuid.Nil {
		return ErrCardTenantIDEmpty
	}

	if e.Action == "" {
		return ErrEventActionEmpty
	}

	if e.Target.Type == "" || e.Target.ID == uuid.Nil {
		return ErrEventTargetInvalid
	}

	return nil
}
