// Package seed creates an administrator and demo billing data through the
// regular services, so seeded records obey the same rules as real ones.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoicer/internal/auth"
	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/service"
)

// Result counts the records a seed run created.
type Result struct {
	Clients  int `json:"clients"`
	Invoices int `json:"invoices"`
	Payments int `json:"payments"`
}

// Seeder writes seed data.
type Seeder struct {
	auth     service.AuthService
	users    service.UserService
	clients  service.ClientService
	invoices service.InvoiceService
	payments service.PaymentService
	log      *zap.Logger
	now      func() time.Time
}

// New creates a seeder on top of the application services.
func New(authSvc service.AuthService, users service.UserService, clients service.ClientService,
	invoices service.InvoiceService, payments service.PaymentService, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		auth:     authSvc,
		users:    users,
		clients:  clients,
		invoices: invoices,
		payments: payments,
		log:      log.Named("seed"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Admin registers a user holding both the user and admin roles. created is
// false when a user with that email already exists; the existing user is not modified.
func (s *Seeder) Admin(ctx context.Context, name, email, password string) (user *model.User, created bool, err error) {
	user, err = s.auth.Register(ctx, name, email, password, model.RoleUser, model.RoleAdmin)
	if err == nil {
		s.log.Info("admin created", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
		return user, true, nil
	}
	if errors.As(err, new(*errors.ConflictError)) {
		s.log.Info("admin already exists", zap.String("email", email))
		return nil, false, nil
	}
	return nil, false, err
}

type demoClient struct {
	name    string
	email   string
	phone   string
	address string
}

var demoClients = []demoClient{
	{name: "Acme Corporation", email: "billing@acme.example", phone: "+1 555 0100", address: "1 Acme Way, Springfield"},
	{name: "Globex Industries", email: "ap@globex.example", phone: "+1 555 0101", address: "200 Globex Plaza, Cypress Creek"},
	{name: "Initech", email: "accounts@initech.example", phone: "+1 555 0102", address: "4120 Freidrich Lane, Austin"},
}

// Demo creates a few clients for p and, for each new client, a set of
// invoices in different payment states. Clients that already exist are skipped.
func (s *Seeder) Demo(ctx context.Context, p auth.Principal) (*Result, error) {
	res := &Result{}
	now := s.now()

	for i, dc := range demoClients {
		client, err := s.clients.Create(ctx, p, service.ClientInput{
			Name:    dc.name,
			Email:   dc.email,
			Phone:   dc.phone,
			Address: dc.address,
		})
		if err != nil {
			if errors.As(err, new(*errors.ConflictError)) {
				s.log.Debug("demo client exists", zap.String("email", dc.email))
				continue
			}
			return res, fmt.Errorf("create client %s: %w", dc.name, err)
		}
		res.Clients++

		issued := now.AddDate(0, 0, -45+i*10)
		due := issued.AddDate(0, 0, 30)

		consulting, err := s.invoices.Create(ctx, p, service.InvoiceInput{
			ClientID:    client.ID,
			InvoiceDate: issued,
			DueDate:     &due,
			Status:      model.InvoiceStatusPending,
			TaxRate:     decimal.NewNullDecimal(decimal.NewFromInt(10)),
			Notes:       "Net 30",
			Items: []model.LineItem{
				{Description: "Consulting", Quantity: decimal.NewFromInt(12), UnitPrice: decimal.RequireFromString("150.00")},
				{Description: "Travel expenses", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("320.40"), TaxRate: decimal.NewNullDecimal(decimal.Zero)},
			},
		})
		if err != nil {
			return res, fmt.Errorf("create invoice for %s: %w", dc.name, err)
		}
		res.Invoices++

		hosting, err := s.invoices.Create(ctx, p, service.InvoiceInput{
			ClientID:    client.ID,
			InvoiceDate: now.AddDate(0, 0, -7),
			Status:      model.InvoiceStatusPending,
			Items: []model.LineItem{
				{Description: "Hosting (monthly)", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("49.99")},
			},
			Recurrence: model.Recurrence{Enabled: true, Frequency: model.FrequencyMonthly, Interval: 1},
		})
		if err != nil {
			return res, fmt.Errorf("create invoice for %s: %w", dc.name, err)
		}
		res.Invoices++

		if _, err := s.invoices.Create(ctx, p, service.InvoiceInput{
			ClientID: client.ID,
			Items: []model.LineItem{
				{Description: "Workshop (draft)", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("600.00")},
			},
		}); err != nil {
			return res, fmt.Errorf("create invoice for %s: %w", dc.name, err)
		}
		res.Invoices++

		// One half-paid consulting invoice, one settled hosting invoice.
		half := consulting.TotalAmount.Div(decimal.NewFromInt(2)).Round(2)
		if _, _, err := s.payments.Record(ctx, p, consulting.ID, service.PaymentInput{
			Amount:      half,
			PaymentDate: issued.AddDate(0, 0, 14),
			Method:      "bank_transfer",
		}); err != nil {
			return res, fmt.Errorf("record payment for %s: %w", consulting.Number, err)
		}
		res.Payments++

		if _, _, err := s.payments.Record(ctx, p, hosting.ID, service.PaymentInput{
			Amount:      hosting.TotalAmount,
			PaymentDate: now.AddDate(0, 0, -2),
			Method:      "card",
		}); err != nil {
			return res, fmt.Errorf("record payment for %s: %w", hosting.Number, err)
		}
		res.Payments++
	}

	s.log.Info("demo data seeded",
		zap.String("user_id", p.ID.String()),
		zap.Int("clients", res.Clients),
		zap.Int("invoices", res.Invoices),
		zap.Int("payments", res.Payments),
	)
	return res, nil
}

// DemoFor seeds demo data for the user with the given email.
func (s *Seeder) DemoFor(ctx context.Context, email string) (*Result, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.Demo(ctx, auth.PrincipalFromUser(user))
}
