package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoicer/internal/auth"
	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
)

// PaymentInput describes money received against an invoice.
type PaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      string
	Notes       string
}

func (in PaymentInput) validate() error {
	if !in.Amount.IsPositive() {
		return errors.NewValidationError("amount", "must be greater than zero")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return errors.NewValidationError("amount", "must have at most 2 decimal places")
	}
	if in.PaymentDate.IsZero() {
		return errors.NewValidationError("payment_date", "is required")
	}
	if isBlank(in.Method) {
		return errors.NewValidationError("payment_method", "is required")
	}
	return nil
}

// PaymentService records payments and keeps invoice status in step with them.
type PaymentService interface {
	Record(ctx context.Context, p auth.Principal, invoiceID uuid.UUID, in PaymentInput) (*model.Payment, *InvoiceView, error)
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Payment, error)
	ListByInvoice(ctx context.Context, p auth.Principal, invoiceID uuid.UUID) ([]model.Payment, error)
}

type paymentService struct {
	store repository.Store
	locks *KeyedMutex
	log   *zap.Logger
	opts  options
}

// NewPaymentService creates a new payment service.
func NewPaymentService(store repository.Store, locks *KeyedMutex, log *zap.Logger, opts ...Option) PaymentService {
	return &paymentService{
		store: store,
		locks: locks,
		log:   named(log, "payment"),
		opts:  buildOptions(opts),
	}
}

// Record appends a payment to one of the caller's invoices and re-derives the
// invoice status from the sum of all its payments. The read of existing
// payments and the status write happen under the invoice lock and inside one
// transaction.
func (s *paymentService) Record(ctx context.Context, p auth.Principal, invoiceID uuid.UUID, in PaymentInput) (*model.Payment, *InvoiceView, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(invoiceID)
	defer unlock()

	var (
		payment  *model.Payment
		view     *InvoiceView
		previous model.InvoiceStatus
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		invoice, err := findOwnedInvoice(ctx, tx, p, invoiceID, true)
		if err != nil {
			return err
		}

		payment = &model.Payment{
			InvoiceID:   invoice.ID,
			UserID:      p.ID,
			Amount:      in.Amount,
			PaymentDate: in.PaymentDate,
			Method:      strings.TrimSpace(in.Method),
			Notes:       in.Notes,
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		payments, err := tx.Payments().ListByInvoice(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}

		previous = invoice.Status
		invoice.Status = s.opts.policy(invoice.Status, sumPayments(payments), invoice.TotalAmount)
		invoice.UpdatedAt = s.opts.now()
		if err := tx.Invoices().Update(ctx, invoice); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		view = newInvoiceView(invoice, payments)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.opts.recorder.PaymentRecorded(view.Status, payment.Amount)
	if previous != view.Status {
		s.log.Info("invoice status changed by payment",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(view.Status)),
		)
	}
	return payment, view, nil
}

// Get returns one payment on one of the caller's invoices.
func (s *paymentService) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.store.Payments().FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "payment", id)
	}
	if payment.UserID != p.ID {
		return nil, errors.NewNotFoundError("payment", id.String())
	}
	return payment, nil
}

// ListByInvoice returns the payments of one of the caller's invoices, oldest first.
func (s *paymentService) ListByInvoice(ctx context.Context, p auth.Principal, invoiceID uuid.UUID) ([]model.Payment, error) {
	if _, err := findOwnedInvoice(ctx, s.store, p, invoiceID, false); err != nil {
		return nil, err
	}
	return s.store.Payments().ListByInvoice(ctx, invoiceID)
}
