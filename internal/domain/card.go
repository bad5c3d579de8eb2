package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardTenantIDEmpty is returned when a card's tenant ID is empty or nil.
	ErrCardTenantIDEmpty = errors.New("card tenant ID cannot be empty")

	// ErrCardBoardIDEmpty is returned when a card's board ID is empty or nil.
	ErrCardBoardIDEmpty = errors.New("card board ID cannot be empty")

	// ErrCardStatusInvalid is returned when a card's status is not a known value.
	ErrCardStatusInvalid = errors.New("card status must be drafted or published")

	// ErrCardStateConflict is returned when both closedAt and postponedAt are
	// set on the same card. A completed transition never leaves both set.
	ErrCardStateConflict = errors.New("card cannot be both closed and postponed")
)

// CardStatus is the stored publication status of a card.
type CardStatus string

const (
	CardStatusDrafted   CardStatus = "drafted"
	CardStatusPublished CardStatus = "published"
)

// EffectiveState is the derived lifecycle state of a card. It is computed
// from the underlying fields and never stored.
type EffectiveState string

const (
	StateDrafted EffectiveState = "drafted"
	StateActive  EffectiveState = "active"
	StateTriage  EffectiveState = "triage"
	StateClosed  EffectiveState = "closed"
	StateNotNow  EffectiveState = "not_now"
)

// Card represents a single work item on a board. A card is exclusively owned
// by its tenant and is mutated only through the lifecycle engine.
//
// ColumnID is nil while the card is awaiting triage. ClosedAt/ClosedBy and
// PostponedAt/PostponedBy travel as pairs and are mutually exclusive once a
// transition completes.
type Card struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	BoardID         uuid.UUID  `json:"board_id"`
	ColumnID        *uuid.UUID `json:"column_id,omitempty"`
	Title           string     `json:"title"`
	Status          CardStatus `json:"status"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	ClosedBy        *uuid.UUID `json:"closed_by,omitempty"`
	PostponedAt     *time.Time `json:"postponed_at,omitempty"`
	PostponedBy     *uuid.UUID `json:"postponed_by,omitempty"`
	LastActiveAt    time.Time  `json:"last_active_at"`
	IsGolden        bool       `json:"is_golden"`
	ActivitySpikeAt *time.Time `json:"activity_spike_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewCard creates a new Card in the drafted state for the given tenant and
// board. It generates a new UUID for the card ID and sets the timestamps.
// Returns an error if validation fails.
func NewCard(tenantID, boardID uuid.UUID, title string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:           uuid.New(),
		TenantID:     tenantID,
		BoardID:      boardID,
		Title:        title,
		Status:       CardStatusDrafted,
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.TenantID == uuid.Nil {
		return ErrCardTenantIDEmpty
	}

	if c.BoardID == uuid.Nil {
		return ErrCardBoardIDEmpty
	}

	if c.Status != CardStatusDrafted && c.Status != CardStatusPublished {
		return ErrCardStatusInvalid
	}

	if c.ClosedAt != nil && c.PostponedAt != nil {
		return ErrCardStateConflict
	}

	return nil
}

// EffectiveState derives the lifecycle state of the card. The derivation
// order matters: drafted wins over everything, then closed, then postponed,
// then awaiting triage, and only a published, open, triaged card is active.
func (c *Card) EffectiveState() EffectiveState {
	switch {
	case c.Status == CardStatusDrafted:
		return StateDrafted
	case c.ClosedAt != nil:
		return StateClosed
	case c.PostponedAt != nil:
		return StateNotNow
	case c.ColumnID == nil:
		return StateTriage
	default:
		return StateActive
	}
}
