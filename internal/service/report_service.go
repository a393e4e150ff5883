package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"invoicer/internal/auth"
	"invoicer/internal/errors"
	"invoicer/internal/repository"
)

// ReportService computes aggregate figures over a user's invoices and payments.
type ReportService interface {
	Summary(ctx context.Context, p auth.Principal) (*Summary, error)
	RevenueByClient(ctx context.Context, p auth.Principal, userID uuid.UUID) ([]ClientRevenue, error)
}

type reportService struct {
	store repository.Store
	opts  options
}

// NewReportService creates a new report service.
func NewReportService(store repository.Store, opts ...Option) ReportService {
	return &reportService{store: store, opts: buildOptions(opts)}
}

// Summary aggregates the caller's outstanding, overdue and recently paid amounts.
func (s *reportService) Summary(ctx context.Context, p auth.Principal) (*Summary, error) {
	invoices, err := s.store.Invoices().ListByUser(ctx, p.ID, repository.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	payments, err := s.store.Payments().ListByUser(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	summary := AggregateSummary(invoices, PaymentsByInvoice(payments), s.opts.now())
	return &summary, nil
}

// RevenueByClient reports revenue per client of userID, or of the caller when
// userID is nil. Only administrators may report on other users.
func (s *reportService) RevenueByClient(ctx context.Context, p auth.Principal, userID uuid.UUID) ([]ClientRevenue, error) {
	if userID == uuid.Nil {
		userID = p.ID
	}
	if userID != p.ID {
		if !p.IsAdmin() {
			return nil, errors.NewAuthorizationError("admin role required to report on another user")
		}
		if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
			return nil, lookupError(err, "user", userID)
		}
	}

	clients, err := s.store.Clients().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	invoices, err := s.store.Invoices().ListByUser(ctx, userID, repository.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	payments, err := s.store.Payments().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return AggregateRevenueByClient(clients, invoices, PaymentsByInvoice(payments)), nil
}
