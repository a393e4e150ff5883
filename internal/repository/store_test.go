package repository_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invoicer/internal/config"
	"invoicer/internal/db"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/repository/memory"
	"invoicer/internal/service"
)

// stores returns a fresh instance of every Store implementation.
func stores(t *testing.T) map[string]repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(config.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), zap.NewNop(), "error")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, false, zap.NewNop()))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return map[string]repository.Store{
		"gorm-sqlite": repository.NewStore(gdb),
		"memory":      memory.NewStore(),
	}
}

func seedUser(t *testing.T, s repository.Store, email string) *model.User {
	t.Helper()
	u := &model.User{Name: "U", Email: email, PasswordHash: "hash", Roles: []string{model.RoleUser}}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func seedClient(t *testing.T, s repository.Store, userID uuid.UUID, name, email string) *model.Client {
	t.Helper()
	c := &model.Client{UserID: userID, Name: name, Email: email}
	require.NoError(t, s.Clients().Create(context.Background(), c))
	return c
}

func newInvoice(userID, clientID uuid.UUID, number string, status model.InvoiceStatus, descriptions ...string) *model.Invoice {
	inv := &model.Invoice{
		UserID:      userID,
		ClientID:    clientID,
		ClientName:  "Client",
		Number:      number,
		InvoiceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:    "USD",
		TotalAmount: decimal.RequireFromString("270.00"),
		Status:      status,
	}
	for _, d := range descriptions {
		inv.Items = append(inv.Items, model.LineItem{
			Description: d,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("10.50"),
		})
	}
	return inv
}

func descriptions(items []model.LineItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Description
	}
	return out
}

func TestUsers(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s, "a@example.com")

			got, err := s.Users().FindByEmail(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
			assert.Equal(t, []string{model.RoleUser}, []string(got.Roles))

			err = s.Users().Create(ctx, &model.User{Name: "B", Email: "a@example.com", PasswordHash: "x"})
			assert.ErrorIs(t, err, repository.ErrDuplicate)

			_, err = s.Users().FindByID(ctx, uuid.New())
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestUsers_UpdateAndList(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			older := &model.User{Name: "Old", Email: "old@example.com", PasswordHash: "hash",
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			require.NoError(t, s.Users().Create(ctx, older))
			newer := &model.User{Name: "New", Email: "new@example.com", PasswordHash: "hash",
				CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
			require.NoError(t, s.Users().Create(ctx, newer))

			ghost := &model.User{ID: uuid.New(), Name: "Ghost", Email: "ghost@example.com", PasswordHash: "hash"}
			assert.ErrorIs(t, s.Users().Update(ctx, ghost), repository.ErrNotFound)
			_, err := s.Users().FindByID(ctx, ghost.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)

			newer.Email = older.Email
			assert.ErrorIs(t, s.Users().Update(ctx, newer), repository.ErrDuplicate)

			newer.Email = "renamed@example.com"
			require.NoError(t, s.Users().Update(ctx, newer))
			got, err := s.Users().FindByEmail(ctx, "renamed@example.com")
			require.NoError(t, err)
			assert.Equal(t, newer.ID, got.ID)

			list, err := s.Users().List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, older.ID, list[0].ID)
			assert.Equal(t, newer.ID, list[1].ID)
		})
	}
}

func TestClients_EmailUniquePerUser(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			alice := seedUser(t, s, "alice@example.com")
			bob := seedUser(t, s, "bob@example.com")

			seedClient(t, s, alice.ID, "beta", "billing@acme.test")
			seedClient(t, s, alice.ID, "alpha", "ap@globex.test")

			err := s.Clients().Create(ctx, &model.Client{UserID: alice.ID, Name: "dup", Email: "billing@acme.test"})
			assert.ErrorIs(t, err, repository.ErrDuplicate)

			seedClient(t, s, bob.ID, "beta", "billing@acme.test")

			list, err := s.Clients().ListByUser(ctx, alice.ID)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "alpha", list[0].Name)

			assert.ErrorIs(t, s.Clients().Delete(ctx, uuid.New()), repository.ErrNotFound)
		})
	}
}

func TestInvoices_ItemsKeepOrderAndAreReplaced(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s, "a@example.com")
			c := seedClient(t, s, u.ID, "acme", "acme@client.test")

			inv := newInvoice(u.ID, c.ID, "INV-2024-00001", model.InvoiceStatusDraft, "first", "second", "third")
			inv.TaxRate = decimal.NewNullDecimal(decimal.NewFromInt(10))
			require.NoError(t, s.Invoices().Create(ctx, inv))

			got, err := s.Invoices().FindByID(ctx, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"first", "second", "third"}, descriptions(got.Items))
			assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("270")))
			assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.50")))
			require.True(t, got.TaxRate.Valid)
			assert.True(t, got.TaxRate.Decimal.Equal(decimal.NewFromInt(10)))
			assert.False(t, got.Items[0].TaxRate.Valid)

			got.Items = got.Items[1:2]
			got.Items[0].Description = "only"
			got.Status = model.InvoiceStatusPending
			require.NoError(t, s.Invoices().Update(ctx, got))

			again, err := s.Invoices().FindByIDForUpdate(ctx, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"only"}, descriptions(again.Items))
			assert.Equal(t, model.InvoiceStatusPending, again.Status)

			dup := newInvoice(u.ID, c.ID, "INV-2024-00001", model.InvoiceStatusDraft, "x")
			assert.ErrorIs(t, s.Invoices().Create(ctx, dup), repository.ErrDuplicate)

			require.NoError(t, s.Invoices().Delete(ctx, inv.ID))
			_, err = s.Invoices().FindByID(ctx, inv.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
			assert.ErrorIs(t, s.Invoices().Delete(ctx, inv.ID), repository.ErrNotFound)
		})
	}
}

func TestInvoices_ListFilters(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s, "a@example.com")
			other := seedUser(t, s, "b@example.com")
			acme := seedClient(t, s, u.ID, "acme", "acme@client.test")
			globex := seedClient(t, s, u.ID, "globex", "globex@client.test")

			require.NoError(t, s.Invoices().Create(ctx, newInvoice(u.ID, acme.ID, "INV-2024-00001", model.InvoiceStatusPaid, "a")))
			require.NoError(t, s.Invoices().Create(ctx, newInvoice(u.ID, acme.ID, "INV-2024-00002", model.InvoiceStatusPending, "b")))
			require.NoError(t, s.Invoices().Create(ctx, newInvoice(u.ID, globex.ID, "INV-2024-00003", model.InvoiceStatusPaid, "c")))
			require.NoError(t, s.Invoices().Create(ctx, newInvoice(other.ID, acme.ID, "INV-2024-00004", model.InvoiceStatusPaid, "d")))

			tests := []struct {
				filter repository.InvoiceFilter
				want   int
			}{
				{repository.InvoiceFilter{}, 3},
				{repository.InvoiceFilter{Status: model.InvoiceStatusPaid}, 2},
				{repository.InvoiceFilter{ClientID: acme.ID}, 2},
				{repository.InvoiceFilter{Status: model.InvoiceStatusPaid, ClientID: globex.ID}, 1},
				{repository.InvoiceFilter{Status: model.InvoiceStatusCancelled}, 0},
			}
			for _, tt := range tests {
				list, err := s.Invoices().ListByUser(ctx, u.ID, tt.filter)
				require.NoError(t, err)
				assert.Len(t, list, tt.want, "%+v", tt.filter)
			}
		})
	}
}

func TestPayments(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s, "a@example.com")
			c := seedClient(t, s, u.ID, "acme", "acme@client.test")
			inv := newInvoice(u.ID, c.ID, "INV-2024-00001", model.InvoiceStatusPending, "a")
			require.NoError(t, s.Invoices().Create(ctx, inv))

			day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
			for _, p := range []model.Payment{
				{InvoiceID: inv.ID, UserID: u.ID, Amount: decimal.RequireFromString("20.25"), PaymentDate: day(12), Method: "card"},
				{InvoiceID: inv.ID, UserID: u.ID, Amount: decimal.RequireFromString("100"), PaymentDate: day(5), Method: "cash"},
			} {
				p := p
				require.NoError(t, s.Payments().Create(ctx, &p))
			}

			list, err := s.Payments().ListByInvoice(ctx, inv.ID)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "cash", list[0].Method)
			assert.True(t, list[1].Amount.Equal(decimal.RequireFromString("20.25")))

			byUser, err := s.Payments().ListByUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, byUser, 2)

			n, err := s.Payments().DeleteByInvoice(ctx, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			_, err = s.Payments().FindByID(ctx, list[0].ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestSequences(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for want := int64(1); want <= 3; want++ {
				got, err := s.Sequences().Next(ctx, "invoice:2024")
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			got, err := s.Sequences().Next(ctx, "invoice:2025")
			require.NoError(t, err)
			assert.Equal(t, int64(1), got)
		})
	}
}

func TestWithTransaction_RollsBack(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s, "a@example.com")
			boom := errors.New("boom")

			var clientID uuid.UUID
			err := s.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
				c := &model.Client{UserID: u.ID, Name: "temp", Email: "temp@client.test"}
				if err := tx.Clients().Create(ctx, c); err != nil {
					return err
				}
				clientID = c.ID
				if _, err := tx.Sequences().Next(ctx, "invoice:2024"); err != nil {
					return err
				}
				return boom
			})
			require.ErrorIs(t, err, boom)

			_, err = s.Clients().FindByID(ctx, clientID)
			assert.ErrorIs(t, err, repository.ErrNotFound)

			next, err := s.Sequences().Next(ctx, "invoice:2024")
			require.NoError(t, err)
			assert.Equal(t, int64(1), next)
		})
	}
}

func TestSettings(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s, "a@example.com")

			_, err := s.Settings().FindByUserID(ctx, u.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)

			require.NoError(t, s.Settings().Create(ctx, model.NewDefaultSettings(u.ID)))
			assert.ErrorIs(t, s.Settings().Create(ctx, model.NewDefaultSettings(u.ID)), repository.ErrDuplicate)

			got, err := s.Settings().FindByUserID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, model.DefaultCurrency, got.Currency)

			got.Currency = "EUR"
			got.TaxRate = decimal.RequireFromString("7.5")
			require.NoError(t, s.Settings().Update(ctx, got))

			again, err := s.Settings().FindByUserID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "EUR", again.Currency)
			assert.True(t, again.TaxRate.Equal(decimal.RequireFromString("7.5")))
		})
	}
}

func TestInvoices_StoredItemsRecomputeToStoredTotal(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s, "a@example.com")
			c := seedClient(t, s, u.ID, "Acme", "billing@acme.test")

			inv := newInvoice(u.ID, c.ID, "INV-2024-00001", model.InvoiceStatusDraft)
			inv.TaxRate = decimal.NewNullDecimal(decimal.RequireFromString("7.5"))
			inv.Items = []model.LineItem{
				{Description: "widgets", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("0.335")},
				{Description: "hours", Quantity: decimal.RequireFromString("1.125"), UnitPrice: decimal.RequireFromString("19.999999"),
					TaxRate: decimal.NewNullDecimal(decimal.RequireFromString("7.1234"))},
			}
			total, err := service.CalculateInvoiceTotal(inv.Items, inv.TaxRate)
			require.NoError(t, err)
			inv.TotalAmount = total
			require.NoError(t, s.Invoices().Create(ctx, inv))

			got, err := s.Invoices().FindByID(ctx, inv.ID)
			require.NoError(t, err)
			recomputed, err := service.CalculateInvoiceTotal(got.Items, got.TaxRate)
			require.NoError(t, err)
			assert.True(t, got.TotalAmount.Equal(recomputed), "stored %s, recomputed %s", got.TotalAmount, recomputed)
			assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("0.335")), "got %s", got.Items[0].UnitPrice)
		})
	}
}
