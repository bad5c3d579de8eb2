package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification errors.
var (
	// ErrInvalidToken is returned when a token fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token is syntactically valid but expired.
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the JWT claims the identity provider issues for this service.
// TenantID scopes every downstream read and write; the subject is the actor.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier resolves a bearer token to an Identity. It trusts the identity
// provider's signature and performs no credential checks of its own.
type Verifier interface {
	// Verify validates the token and returns the identity it asserts.
	// Returns ErrInvalidToken or ErrExpiredToken on failure.
	Verify(tokenString string) (Identity, error)
}

// hmacVerifier validates tokens signed with a shared HMAC secret.
type hmacVerifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for tokens signed with the given secret.
func NewVerifier(secret string) Verifier {
	return &hmacVerifier{secret: []byte(secret)}
}

var _ Verifier = (*hmacVerifier)(nil)

// Verify implements Verifier.Verify.
func (v *hmacVerifier) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: malformed tenant ID", ErrInvalidToken)
	}

	actorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	role := Role(claims.Role)
	switch role {
	case RoleAdmin, RoleMember:
		// Accepted. RoleSystem is never minted as a token.
	default:
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return Identity{TenantID: tenantID, ActorID: actorID, Role: role}, nil
}
