package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"invoicer/internal/errors"
	"invoicer/internal/model"
)

func TestUserService_ListUsersRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "user")
	admin := env.user(t, "admin", model.RoleUser, model.RoleAdmin)
	svc := NewUserService(env.store, nil, bcrypt.MinCost)

	_, err := svc.ListUsers(ctx, user)
	var authzErr *errors.AuthorizationError
	assert.True(t, errors.As(err, &authzErr))

	users, err := svc.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	svc := NewUserService(env.store, nil, bcrypt.MinCost)

	name := "Alice Liddell"
	password := "new-password"
	updated, err := svc.UpdateProfile(ctx, alice, ProfileUpdate{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(password)))

	got, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)

	taken := bob.Email
	_, err = svc.UpdateProfile(ctx, alice, ProfileUpdate{Email: &taken})
	var conflict *errors.ConflictError
	assert.True(t, errors.As(err, &conflict))

	short := "short"
	_, err = svc.UpdateProfile(ctx, alice, ProfileUpdate{Password: &short})
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
