// Package auth carries the pre-validated caller identity through the
// application. Token issuance and credential checks happen upstream in the
// identity provider; this package only resolves and threads the result.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Role is the caller's coarse access level within its tenant.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleSystem Role = "system"
)

// SystemActorID identifies the system actor used by background schedulers
// when they drive transitions through the lifecycle engine.
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// ErrIdentityMissing is returned when a request context carries no identity.
var ErrIdentityMissing = errors.New("identity not found in context")

// Identity is the resolved (tenant, actor, role) triple for one request or
// background invocation. It is passed explicitly as the first argument of
// every engine, scheduler, and bundler call; there is no ambient state.
type Identity struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
	Role     Role
}

// SystemIdentity returns the identity background sweeps act under for the
// given tenant.
func SystemIdentity(tenantID uuid.UUID) Identity {
	return Identity{
		TenantID: tenantID,
		ActorID:  SystemActorID,
		Role:     RoleSystem,
	}
}

// IsAdmin reports whether the identity may perform admin-only operations,
// such as editing entropy configuration.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin || id.Role == RoleSystem
}

type contextKey int

const identityKey contextKey = 0

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity placed in the context by the auth
// middleware. Returns ErrIdentityMissing if none is present.
func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok {
		return Identity{}, ErrIdentityMissing
	}
	return id, nil
}
