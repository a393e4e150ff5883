package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"invoicer/internal/auth"
	"invoicer/internal/model"
	"invoicer/internal/repository/memory"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func item(desc, qty, price string, tax decimal.NullDecimal) model.LineItem {
	return model.LineItem{Description: desc, Quantity: dec(qty), UnitPrice: dec(price), TaxRate: tax}
}

// testEnv wires every service onto one in-memory store.
type testEnv struct {
	store    *memory.Store
	locks    *KeyedMutex
	clients  ClientService
	invoices InvoiceService
	payments PaymentService
	reports  ReportService
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	store := memory.NewStore()
	locks := NewKeyedMutex()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return &testEnv{
		store:    store,
		locks:    locks,
		clients:  NewClientService(store),
		invoices: NewInvoiceService(store, locks, nil, opts...),
		payments: NewPaymentService(store, locks, nil, opts...),
		reports:  NewReportService(store, opts...),
	}
}

func (e *testEnv) user(t *testing.T, name string, roles ...string) auth.Principal {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}
	u := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Roles: roles}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return auth.PrincipalFromUser(u)
}

func (e *testEnv) client(t *testing.T, p auth.Principal, name string) *model.Client {
	t.Helper()
	c, err := e.clients.Create(context.Background(), p, ClientInput{Name: name, Email: name + "@client.test"})
	require.NoError(t, err)
	return c
}

// invoice270 creates the 2×100 @10% + 1×50 @0% invoice totalling 270.00.
func (e *testEnv) invoice270(t *testing.T, p auth.Principal, clientID uuid.UUID, status model.InvoiceStatus) *InvoiceView {
	t.Helper()
	inv, err := e.invoices.Create(context.Background(), p, InvoiceInput{
		ClientID: clientID,
		Items: []model.LineItem{
			item("Consulting", "2", "100", rate("10")),
			item("Support", "1", "50", rate("0")),
		},
		Status: status,
	})
	require.NoError(t, err)
	return inv
}

func (e *testEnv) pay(t *testing.T, p auth.Principal, invoiceID uuid.UUID, amount string, at time.Time) (*model.Payment, *InvoiceView) {
	t.Helper()
	payment, view, err := e.payments.Record(context.Background(), p, invoiceID, PaymentInput{
		Amount:      dec(amount),
		PaymentDate: at,
		Method:      "bank transfer",
	})
	require.NoError(t, err)
	return payment, view
}
