package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-2024-00001", FormatInvoiceNumber(2024, 1))
	assert.Equal(t, "INV-2025-00042", FormatInvoiceNumber(2025, 42))
	assert.Equal(t, "INV-2025-123456", FormatInvoiceNumber(2025, 123456))
}

func TestInvoiceService_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	client := env.client(t, owner, "acme")

	inv := env.invoice270(t, owner, client.ID, "")

	assert.Equal(t, "INV-2024-00001", inv.Number)
	assert.Equal(t, model.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, fixedNow, inv.InvoiceDate)
	assert.Equal(t, model.DefaultCurrency, inv.Currency)
	assert.Equal(t, "acme", inv.ClientName)
	assert.Equal(t, "270.00", inv.TotalAmount.StringFixed(2))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.Equal(t, "270.00", inv.BalanceDue.StringFixed(2))
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Consulting", inv.Items[0].Description)

	got, err := env.invoices.Get(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, got.Number)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Support", got.Items[1].Description)
}

func TestInvoiceService_CreateUsesSettingsCurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	client := env.client(t, owner, "acme")

	settings := NewSettingsService(env.store, nil)
	eur := "eur"
	_, err := settings.Update(ctx, owner, SettingsPatch{Currency: &eur})
	require.NoError(t, err)

	inv := env.invoice270(t, owner, client.ID, model.InvoiceStatusPending)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, model.InvoiceStatusPending, inv.Status)
}

func TestInvoiceService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	stranger := env.user(t, "stranger")
	client := env.client(t, owner, "acme")
	items := []model.LineItem{item("a", "1", "10", decimal.NullDecimal{})}

	tests := []struct {
		name      string
		in        InvoiceInput
		wantField string
		notFound  bool
	}{
		{name: "missing client", in: InvoiceInput{Items: items}, wantField: "client_id"},
		{name: "unknown status", in: InvoiceInput{ClientID: client.ID, Items: items, Status: "void"}, wantField: "status"},
		{name: "no items", in: InvoiceInput{ClientID: client.ID}, wantField: "items"},
		{name: "blank description", in: InvoiceInput{ClientID: client.ID, Items: []model.LineItem{item(" ", "1", "1", decimal.NullDecimal{})}}, wantField: "description"},
		{name: "bad currency", in: InvoiceInput{ClientID: client.ID, Items: items, Currency: "dollars"}, wantField: "currency"},
		{
			name:      "recurrence without frequency",
			in:        InvoiceInput{ClientID: client.ID, Items: items, Recurrence: model.Recurrence{Enabled: true}},
			wantField: "recurrence.frequency",
		},
		{name: "unknown client", in: InvoiceInput{ClientID: uuid.New(), Items: items}, notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.invoices.Create(ctx, owner, tt.in)
			if tt.notFound {
				var nf *errors.NotFoundError
				assert.True(t, errors.As(err, &nf), "got %v", err)
				return
			}
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}

	t.Run("client of another user", func(t *testing.T) {
		_, err := env.invoices.Create(ctx, stranger, InvoiceInput{ClientID: client.ID, Items: items})
		var nf *errors.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})
}

func TestInvoiceService_UpdateRecomputesAndSnapshotsClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	acme := env.client(t, owner, "acme")
	globex := env.client(t, owner, "globex")
	inv := env.invoice270(t, owner, acme.ID, model.InvoiceStatusPending)

	due := fixedNow.AddDate(0, 0, 30)
	updated, err := env.invoices.Update(ctx, owner, inv.ID, InvoiceInput{
		ClientID: globex.ID,
		DueDate:  &due,
		Items:    []model.LineItem{item("Audit", "4", "25", decimal.NullDecimal{})},
		TaxRate:  rate("10"),
		Recurrence: model.Recurrence{
			Enabled:   true,
			Frequency: model.FrequencyMonthly,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, inv.Number, updated.Number)
	assert.Equal(t, "110.00", updated.TotalAmount.StringFixed(2))
	assert.Equal(t, globex.ID, updated.ClientID)
	assert.Equal(t, "globex", updated.ClientName)
	assert.Equal(t, model.InvoiceStatusPending, updated.Status)
	assert.Equal(t, inv.InvoiceDate, updated.InvoiceDate)
	assert.Equal(t, 1, updated.Recurrence.Interval)
	require.Len(t, updated.Items, 1)

	// renaming the client later leaves the snapshot alone
	_, err = env.clients.Update(ctx, owner, globex.ID, ClientInput{Name: "Globex Corp", Email: globex.Email})
	require.NoError(t, err)
	got, err := env.invoices.Get(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "globex", got.ClientName)
}

func TestInvoiceService_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	other := env.user(t, "other")
	acme := env.client(t, owner, "acme")
	globex := env.client(t, owner, "globex")

	env.invoice270(t, owner, acme.ID, model.InvoiceStatusPending)
	env.invoice270(t, owner, acme.ID, model.InvoiceStatusDraft)
	env.invoice270(t, owner, globex.ID, model.InvoiceStatusPending)
	env.invoice270(t, other, env.client(t, other, "initech").ID, model.InvoiceStatusPending)

	all, err := env.invoices.List(ctx, owner, repository.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := env.invoices.List(ctx, owner, repository.InvoiceFilter{Status: model.InvoiceStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	forAcme, err := env.invoices.List(ctx, owner, repository.InvoiceFilter{ClientID: acme.ID})
	require.NoError(t, err)
	assert.Len(t, forAcme, 2)

	_, err = env.invoices.List(ctx, owner, repository.InvoiceFilter{Status: "bogus"})
	assert.Error(t, err)
}

func TestInvoiceService_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	stranger := env.user(t, "stranger")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, "")

	var nf *errors.NotFoundError
	_, err := env.invoices.Get(ctx, stranger, inv.ID)
	assert.True(t, errors.As(err, &nf))
	_, err = env.invoices.Update(ctx, stranger, inv.ID, InvoiceInput{Items: inv.Items})
	assert.True(t, errors.As(err, &nf))
	assert.True(t, errors.As(env.invoices.Delete(ctx, stranger, inv.ID), &nf))
}

func TestInvoiceService_DocumentSurvivesClientDeletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	client := env.client(t, owner, "acme")
	inv := env.invoice270(t, owner, client.ID, model.InvoiceStatusPending)
	env.pay(t, owner, inv.ID, "20", fixedNow)

	doc, err := env.invoices.Document(ctx, owner, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, doc.Client)
	assert.Equal(t, client.ID, doc.Client.ID)
	assert.Len(t, doc.Payments, 1)
	assert.Equal(t, model.DefaultCurrency, doc.Settings.Currency)

	require.NoError(t, env.clients.Delete(ctx, owner, client.ID))
	doc, err = env.invoices.Document(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, doc.Client)
	assert.Equal(t, "acme", doc.Invoice.ClientName)
}

func TestInvoiceService_ConcurrentCreatesGetUniqueNumbers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	client := env.client(t, owner, "acme")

	const n = 1000
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]int, n)
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := env.invoices.Create(ctx, owner, InvoiceInput{
				ClientID: client.ID,
				Items:    []model.LineItem{item("a", "1", "1", decimal.NullDecimal{})},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[inv.Number]++
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, n)
	assert.Equal(t, 1, numbers["INV-2024-00001"])
	assert.Equal(t, 1, numbers["INV-2024-01000"])
}

func TestInvoiceService_DeletedNumbersAreNotReused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	client := env.client(t, owner, "acme")

	first := env.invoice270(t, owner, client.ID, "")
	second := env.invoice270(t, owner, client.ID, "")
	require.NoError(t, env.invoices.Delete(ctx, owner, second.ID))

	third := env.invoice270(t, owner, client.ID, "")
	assert.Equal(t, "INV-2024-00001", first.Number)
	assert.Equal(t, "INV-2024-00003", third.Number)
}

func TestInvoiceNumberer_UsesClockYear(t *testing.T) {
	env := newTestEnv(t)
	numberer := NewInvoiceNumberer(func() time.Time { return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC) })

	number, err := numberer.Next(context.Background(), env.store.Sequences())
	require.NoError(t, err)
	assert.Equal(t, "INV-2031-00001", number)
}
