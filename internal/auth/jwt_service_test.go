package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/model"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	p := Principal{ID: uuid.New(), Email: "owner@example.com", Name: "Owner", Roles: []string{model.RoleUser, model.RoleAdmin}}

	token, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, TokenTypeAccess, claims.Type)

	got, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.True(t, got.IsAdmin())
}

func TestJWTService_RefreshTokenID(t *testing.T) {
	svc := NewJWTService("test-secret", 0, 0)
	p := Principal{ID: uuid.New(), Email: "owner@example.com"}

	tokenID, token, err := svc.GenerateRefreshToken(p)
	require.NoError(t, err)

	extracted, err := svc.ExtractTokenID(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, extracted)
	assert.Equal(t, RefreshTokenExpiry, svc.RefreshExpiry())

	access, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)
	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Minute, time.Hour)
	verifier := NewJWTService("secret-b", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(Principal{ID: uuid.New()})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestPrincipal_Roles(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "u@example.com", Roles: []string{model.RoleUser}}
	p := PrincipalFromUser(user)
	assert.True(t, p.HasRole(model.RoleUser))
	assert.False(t, p.IsAdmin())
}
