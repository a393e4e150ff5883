package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/errors"
	"invoicer/internal/model"
)

func TestClientService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")

	created, err := env.clients.Create(ctx, owner, ClientInput{Name: " zeta ", Email: "Billing@Zeta.io", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "zeta", created.Name)
	assert.Equal(t, "billing@zeta.io", created.Email)
	assert.Equal(t, owner.ID, created.UserID)

	env.client(t, owner, "alpha")

	list, err := env.clients.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)

	updated, err := env.clients.Update(ctx, owner, created.ID, ClientInput{Name: "zeta ltd", Email: "billing@zeta.io", Notes: "net 30"})
	require.NoError(t, err)
	assert.Equal(t, "zeta ltd", updated.Name)
	assert.Equal(t, "net 30", updated.Notes)
	assert.Empty(t, updated.Phone)

	require.NoError(t, env.clients.Delete(ctx, owner, created.ID))
	_, err = env.clients.Get(ctx, owner, created.ID)
	var nf *errors.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestClientService_EmailUniquePerOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	other := env.user(t, "other")

	first := env.client(t, owner, "acme")
	second := env.client(t, owner, "globex")

	_, err := env.clients.Create(ctx, owner, ClientInput{Name: "Acme again", Email: "ACME@client.test"})
	var conflict *errors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "email", conflict.Field)

	_, err = env.clients.Update(ctx, owner, second.ID, ClientInput{Name: "globex", Email: first.Email})
	assert.True(t, errors.As(err, &conflict))

	// another user may bill the same address
	_, err = env.clients.Create(ctx, other, ClientInput{Name: "acme", Email: first.Email})
	assert.NoError(t, err)
}

func TestClientService_ValidationAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	stranger := env.user(t, "stranger")
	client := env.client(t, owner, "acme")

	var vErr *errors.ValidationError
	_, err := env.clients.Create(ctx, owner, ClientInput{Email: "x@y.z"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "name", vErr.Field)
	_, err = env.clients.Create(ctx, owner, ClientInput{Name: "x"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "email", vErr.Field)

	var nf *errors.NotFoundError
	_, err = env.clients.Get(ctx, stranger, client.ID)
	assert.True(t, errors.As(err, &nf))
	_, err = env.clients.Update(ctx, stranger, client.ID, ClientInput{Name: "mine", Email: "m@m.m"})
	assert.True(t, errors.As(err, &nf))
	assert.True(t, errors.As(env.clients.Delete(ctx, stranger, client.ID), &nf))
	assert.True(t, errors.As(env.clients.Delete(ctx, owner, uuid.New()), &nf))
}

func TestClientService_DeleteKeepsInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	client := env.client(t, owner, "acme")
	inv := env.invoice270(t, owner, client.ID, model.InvoiceStatusPending)

	require.NoError(t, env.clients.Delete(ctx, owner, client.ID))

	got, err := env.invoices.Get(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, got.ClientID)
	assert.Equal(t, "acme", got.ClientName)
}
