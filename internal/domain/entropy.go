package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultAutoPostponePeriod is the system-wide fallback used when neither a
// board-level nor a tenant-level entropy config exists.
const DefaultAutoPostponePeriod = 30 * 24 * time.Hour

var (
	// ErrEntropyPeriodInvalid is returned when an auto-postpone period is
	// zero or negative.
	ErrEntropyPeriodInvalid = errors.New("auto-postpone period must be positive")

	// ErrEntropyScopeInvalid is returned when an entropy config scope is not
	// a known value, or when a board-scoped config is missing its board ID.
	ErrEntropyScopeInvalid = errors.New("entropy config scope must be tenant or board")
)

// EntropyScope discriminates the two levels an entropy config can apply to.
type EntropyScope string

const (
	EntropyScopeTenant EntropyScope = "tenant"
	EntropyScopeBoard  EntropyScope = "board"
)

// EntropyConfig holds the inactivity threshold after which an active card is
// automatically postponed. Resolution order for a card is board config, then
// tenant config, then DefaultAutoPostponePeriod.
//
// BoardID is set exactly when Scope is EntropyScopeBoard.
type EntropyConfig struct {
	ID                 uuid.UUID     `json:"id"`
	TenantID           uuid.UUID     `json:"tenant_id"`
	Scope              EntropyScope  `json:"scope"`
	BoardID            *uuid.UUID    `json:"board_id,omitempty"`
	AutoPostponePeriod time.Duration `json:"auto_postpone_period"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// NewTenantEntropyConfig creates a tenant-scoped entropy config.
func NewTenantEntropyConfig(tenantID uuid.UUID, period time.Duration) (*EntropyConfig, error) {
	cfg := &EntropyConfig{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		Scope:              EntropyScopeTenant,
		AutoPostponePeriod: period,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewBoardEntropyConfig creates a board-scoped entropy config.
func NewBoardEntropyConfig(tenantID, boardID uuid.UUID, period time.Duration) (*EntropyConfig, error) {
	cfg := &EntropyConfig{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		Scope:              EntropyScopeBoard,
		BoardID:            &boardID,
		AutoPostponePeriod: period,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the EntropyConfig has valid data.
func (c *EntropyConfig) Validate() error {
	if c.TenantID == uuid.Nil {
		return ErrCardTenantIDEmpty
	}

	if c.AutoPostponePeriod <= 0 {
		return ErrEntropyPeriodInvalid
	}

	switch c.Scope {
	case EntropyScopeTenant:
		if c.BoardID != nil {
			return ErrEntropyScopeInvalid
		}
	case EntropyScopeBoard:
		if c.BoardID == nil || *c.BoardID == uuid.Nil {
			return ErrEntropyScopeInvalid
		}
	default:
		return ErrEntropyScopeInvalid
	}

	return nil
}
