package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		TenantID: uuid.New().String(),
		Role:     string(RoleMember),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier(testSecret)
	claims := validClaims()

	identity, err := v.Verify(signToken(t, testSecret, claims))
	require.NoError(t, err)

	assert.Equal(t, claims.TenantID, identity.TenantID.String())
	assert.Equal(t, claims.Subject, identity.ActorID.String())
	assert.Equal(t, RoleMember, identity.Role)
	assert.False(t, identity.IsAdmin())
}

func TestVerifyAdminRole(t *testing.T) {
	v := NewVerifier(testSecret)
	claims := validClaims()
	claims.Role = string(RoleAdmin)

	identity, err := v.Verify(signToken(t, testSecret, claims))
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestVerifyRejections(t *testing.T) {
	v := NewVerifier(testSecret)

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signToken(t, "ffffffffffffffffffffffffffffffff", validClaims())
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				claims := validClaims()
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
				return signToken(t, testSecret, claims)
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "garbage",
			token: func(t *testing.T) string {
				return "not.a.token"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed tenant ID",
			token: func(t *testing.T) string {
				claims := validClaims()
				claims.TenantID = "tenant-42"
				return signToken(t, testSecret, claims)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				claims := validClaims()
				claims.Subject = ""
				return signToken(t, testSecret, claims)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "system role is never a valid token",
			token: func(t *testing.T) string {
				claims := validClaims()
				claims.Role = string(RoleSystem)
				return signToken(t, testSecret, claims)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "unknown role",
			token: func(t *testing.T) string {
				claims := validClaims()
				claims.Role = "superuser"
				return signToken(t, testSecret, claims)
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSystemIdentity(t *testing.T) {
	tenantID := uuid.New()
	identity := SystemIdentity(tenantID)

	assert.Equal(t, tenantID, identity.TenantID)
	assert.Equal(t, SystemActorID, identity.ActorID)
	assert.Equal(t, RoleSystem, identity.Role)
}
