package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrTenantNameEmpty is returned when a tenant's name is empty.
var ErrTenantNameEmpty = errors.New("tenant name cannot be empty")

// Tenant is an isolated customer boundary. Every entity and every background
// scan is scoped to exactly one tenant.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTenant creates a new Tenant.
func NewTenant(name string) (*Tenant, error) {
	if name == "" {
		return nil, ErrTenantNameEmpty
	}
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}
