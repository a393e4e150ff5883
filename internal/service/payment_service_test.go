package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/errors"
	"invoicer/internal/model"
)

func TestPaymentService_PartialThenFull(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusPending)

	_, view := env.pay(t, owner, inv.ID, "100.00", fixedNow)
	assert.Equal(t, model.InvoiceStatusPartiallyPaid, view.Status)
	assert.Equal(t, "100.00", view.AmountPaid.StringFixed(2))
	assert.Equal(t, "170.00", view.BalanceDue.StringFixed(2))

	_, view = env.pay(t, owner, inv.ID, "170.00", fixedNow)
	assert.Equal(t, model.InvoiceStatusPaid, view.Status)
	assert.Equal(t, "0.00", view.BalanceDue.StringFixed(2))

	got, err := env.invoices.Get(context.Background(), owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, got.Status)
	assert.Equal(t, "270.00", got.AmountPaid.StringFixed(2))
}

func TestPaymentService_ExactPaymentMarksPaid(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusDraft)

	_, view := env.pay(t, owner, inv.ID, "270", fixedNow)
	assert.Equal(t, model.InvoiceStatusPaid, view.Status)
}

func TestPaymentService_Validation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusPending)

	tests := []struct {
		name      string
		in        PaymentInput
		wantField string
	}{
		{name: "zero amount", in: PaymentInput{Amount: decimal.Zero, PaymentDate: fixedNow, Method: "cash"}, wantField: "amount"},
		{name: "negative amount", in: PaymentInput{Amount: dec("-5"), PaymentDate: fixedNow, Method: "cash"}, wantField: "amount"},
		{name: "sub-cent amount", in: PaymentInput{Amount: dec("1.005"), PaymentDate: fixedNow, Method: "cash"}, wantField: "amount"},
		{name: "missing date", in: PaymentInput{Amount: dec("5"), Method: "cash"}, wantField: "payment_date"},
		{name: "blank method", in: PaymentInput{Amount: dec("5"), PaymentDate: fixedNow, Method: "  "}, wantField: "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.payments.Record(context.Background(), owner, inv.ID, tt.in)
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}

	payments, err := env.payments.ListByInvoice(context.Background(), owner, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestPaymentService_CancelledInvoiceFlipsByDefault(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusCancelled)

	_, view := env.pay(t, owner, inv.ID, "10", fixedNow)
	assert.Equal(t, model.InvoiceStatusPartiallyPaid, view.Status)
}

func TestPaymentService_KeepCancelledPolicy(t *testing.T) {
	env := newTestEnv(t, WithStatusPolicy(KeepCancelled(DerivePaymentStatus)))
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusCancelled)

	_, view := env.pay(t, owner, inv.ID, "270", fixedNow)
	assert.Equal(t, model.InvoiceStatusCancelled, view.Status)
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		name    string
		current model.InvoiceStatus
		paid    string
		total   string
		want    model.InvoiceStatus
	}{
		{name: "covers total", current: model.InvoiceStatusPending, paid: "270", total: "270", want: model.InvoiceStatusPaid},
		{name: "overpaid", current: model.InvoiceStatusOverdue, paid: "300", total: "270", want: model.InvoiceStatusPaid},
		{name: "partial", current: model.InvoiceStatusPending, paid: "0.01", total: "270", want: model.InvoiceStatusPartiallyPaid},
		{name: "nothing paid", current: model.InvoiceStatusOverdue, paid: "0", total: "270", want: model.InvoiceStatusOverdue},
		{name: "zero total", current: model.InvoiceStatusDraft, paid: "0", total: "0", want: model.InvoiceStatusPaid},
		{name: "cancelled is not special", current: model.InvoiceStatusCancelled, paid: "1", total: "270", want: model.InvoiceStatusPartiallyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePaymentStatus(tt.current, dec(tt.paid), dec(tt.total)))
		})
	}
}

func TestPaymentService_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	stranger := env.user(t, "stranger")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusPending)
	payment, _ := env.pay(t, owner, inv.ID, "10", fixedNow)

	var nf *errors.NotFoundError
	_, _, err := env.payments.Record(ctx, stranger, inv.ID, PaymentInput{Amount: dec("1"), PaymentDate: fixedNow, Method: "cash"})
	assert.True(t, errors.As(err, &nf))
	_, err = env.payments.Get(ctx, stranger, payment.ID)
	assert.True(t, errors.As(err, &nf))
	_, err = env.payments.ListByInvoice(ctx, stranger, inv.ID)
	assert.True(t, errors.As(err, &nf))
	_, _, err = env.payments.Record(ctx, owner, uuid.New(), PaymentInput{Amount: dec("1"), PaymentDate: fixedNow, Method: "cash"})
	assert.True(t, errors.As(err, &nf))
	assert.Zero(t, env.locks.size(), "lookups of unknown invoices must not leave locks behind")
}

func TestPaymentService_DeleteInvoiceRemovesPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusPending)
	first, _ := env.pay(t, owner, inv.ID, "100", fixedNow)
	second, _ := env.pay(t, owner, inv.ID, "50", fixedNow)

	got, err := env.payments.Get(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("100")))

	require.NoError(t, env.invoices.Delete(ctx, owner, inv.ID))

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		_, err := env.payments.Get(ctx, owner, id)
		var nf *errors.NotFoundError
		assert.True(t, errors.As(err, &nf), "payment %s should be gone", id)
	}
	remaining, err := env.store.Payments().ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPaymentService_ConcurrentPaymentsAreNotLost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusPending)

	const n = 27
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := env.payments.Record(ctx, owner, inv.ID, PaymentInput{Amount: dec("10"), PaymentDate: fixedNow, Method: "card"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := env.invoices.Get(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "270.00", got.AmountPaid.StringFixed(2))
	assert.Equal(t, model.InvoiceStatusPaid, got.Status)
}

type recordingRecorder struct {
	mu       sync.Mutex
	created  int
	deleted  int
	statuses []model.InvoiceStatus
}

func (r *recordingRecorder) InvoiceCreated() { r.mu.Lock(); r.created++; r.mu.Unlock() }
func (r *recordingRecorder) InvoiceDeleted() { r.mu.Lock(); r.deleted++; r.mu.Unlock() }
func (r *recordingRecorder) PaymentRecorded(status model.InvoiceStatus, _ decimal.Decimal) {
	r.mu.Lock()
	r.statuses = append(r.statuses, status)
	r.mu.Unlock()
}

func TestPaymentService_ReportsToRecorder(t *testing.T) {
	rec := &recordingRecorder{}
	env := newTestEnv(t, WithRecorder(rec))
	ctx := context.Background()
	owner := env.user(t, "owner")
	inv := env.invoice270(t, owner, env.client(t, owner, "acme").ID, model.InvoiceStatusPending)

	env.pay(t, owner, inv.ID, "100", fixedNow)
	env.pay(t, owner, inv.ID, "170", fixedNow)
	require.NoError(t, env.invoices.Delete(ctx, owner, inv.ID))

	assert.Equal(t, 1, rec.created)
	assert.Equal(t, 1, rec.deleted)
	assert.Equal(t, []model.InvoiceStatus{model.InvoiceStatusPartiallyPaid, model.InvoiceStatusPaid}, rec.statuses)
}
