package service

import (
	"context"
	stderrors "errors"
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

// InvoiceInput holds the writable fields of an invoice.
//
// On create a zero InvoiceDate means now, an empty Currency means the
// caller's settings currency and an empty Status means draft. On update the
// same zero values keep the stored value, and so does a nil ClientID.
type InvoiceInput struct {
	ClientID    uuid.UUID
	InvoiceDate time.Time
	DueDate     *time.Time
	Items       []model.LineItem
	Notes       string
	Currency    string
	TaxRate     decimal.NullDecimal
	Recurrence  model.Recurrence
	Status      model.InvoiceStatus
}

func (in *InvoiceInput) validate() error {
	if in.Status != "" && !in.Status.Valid() {
		return errors.NewValidationError("status", "unknown status "+string(in.Status))
	}
	for i, item := range in.Items {
		if isBlank(item.Description) {
			return errors.NewItemValidationError(i, "description", "is required")
		}
	}

	r := &in.Recurrence
	if !r.Enabled {
		return nil
	}
	if !r.Frequency.Valid() {
		return errors.NewValidationError("recurrence.frequency", "must be one of daily, weekly, monthly, yearly")
	}
	if r.Interval == 0 {
		r.Interval = 1
	}
	if r.Interval < 0 {
		return errors.NewValidationError("recurrence.interval", "must be at least 1")
	}
	if r.EndDate != nil && r.EndDate.Before(in.InvoiceDate) {
		return errors.NewValidationError("recurrence.end_date", "must not be before the invoice date")
	}
	return nil
}

func copyItems(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(items))
	for i, item := range items {
		out[i] = model.LineItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		}
	}
	return out
}

// InvoiceView is an invoice together with what has been paid against it.
type InvoiceView struct {
	model.Invoice
	AmountPaid decimal.Decimal `json:"amount_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

func newInvoiceView(inv *model.Invoice, payments []model.Payment) *InvoiceView {
	paid := sumPayments(payments)
	return &InvoiceView{
		Invoice:    *inv,
		AmountPaid: paid.Round(2),
		BalanceDue: inv.TotalAmount.Sub(paid).Round(2),
	}
}

// InvoiceDocument is everything a renderer needs to produce an invoice document.
type InvoiceDocument struct {
	Invoice  *InvoiceView
	Client   *model.Client // nil once the client has been deleted
	Settings *model.Settings
	Payments []model.Payment
}

// InvoiceService manages invoices and their line items.
type InvoiceService interface {
	Create(ctx context.Context, p auth.Principal, in InvoiceInput) (*InvoiceView, error)
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*InvoiceView, error)
	List(ctx context.Context, p auth.Principal, filter repository.InvoiceFilter) ([]InvoiceView, error)
	Update(ctx context.Context, p auth.Principal, id uuid.UUID, in InvoiceInput) (*InvoiceView, error)
	Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error
	Document(ctx context.Context, p auth.Principal, id uuid.UUID) (*InvoiceDocument, error)
}

type invoiceService struct {
	store    repository.Store
	locks    *KeyedMutex
	numberer *InvoiceNumberer
	log      *zap.Logger
	opts     options
}

// NewInvoiceService creates a new invoice service. locks must be shared with
// the payment service so that payments and edits of one invoice serialize.
func NewInvoiceService(store repository.Store, locks *KeyedMutex, log *zap.Logger, opts ...Option) InvoiceService {
	o := buildOptions(opts)
	return &invoiceService{
		store:    store,
		locks:    locks,
		numberer: NewInvoiceNumberer(o.now),
		log:      named(log, "invoice"),
		opts:     o,
	}
}

// Create validates and prices a new invoice and assigns it the next invoice number.
func (s *invoiceService) Create(ctx context.Context, p auth.Principal, in InvoiceInput) (*InvoiceView, error) {
	if in.ClientID == uuid.Nil {
		return nil, errors.NewValidationError("client_id", "is required")
	}
	if in.InvoiceDate.IsZero() {
		in.InvoiceDate = s.opts.now()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	total, err := CalculateInvoiceTotal(in.Items, in.TaxRate)
	if err != nil {
		return nil, err
	}

	client, err := findOwnedClient(ctx, s.store, p, in.ClientID)
	if err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		settings, err := loadSettings(ctx, s.store, p.ID)
		if err != nil {
			return nil, err
		}
		currency = settings.Currency
	}
	if currency, err = normalizeCurrency(currency); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = model.InvoiceStatusDraft
	}

	invoice := &model.Invoice{
		UserID:      p.ID,
		ClientID:    client.ID,
		ClientName:  client.Name,
		InvoiceDate: in.InvoiceDate,
		DueDate:     in.DueDate,
		Items:       copyItems(in.Items),
		Notes:       in.Notes,
		Currency:    currency,
		TaxRate:     in.TaxRate,
		Recurrence:  in.Recurrence,
		TotalAmount: total,
		Status:      status,
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		number, err := s.numberer.Next(ctx, tx.Sequences())
		if err != nil {
			return err
		}
		invoice.Number = number
		return tx.Invoices().Create(ctx, invoice)
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("invoice", "invoice_number", invoice.Number)
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.opts.recorder.InvoiceCreated()
	s.log.Debug("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("total", total.StringFixed(2)),
	)
	return newInvoiceView(invoice, nil), nil
}

// Get returns one of the caller's invoices with its payment totals.
func (s *invoiceService) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*InvoiceView, error) {
	invoice, err := findOwnedInvoice(ctx, s.store, p, id, false)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments().ListByInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return newInvoiceView(invoice, payments), nil
}

// List returns the caller's invoices matching filter, newest first.
func (s *invoiceService) List(ctx context.Context, p auth.Principal, filter repository.InvoiceFilter) ([]InvoiceView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.NewValidationError("status", "unknown status "+string(filter.Status))
	}
	invoices, err := s.store.Invoices().ListByUser(ctx, p.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	payments, err := s.store.Payments().ListByUser(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	byInvoice := PaymentsByInvoice(payments)
	views := make([]InvoiceView, 0, len(invoices))
	for i := range invoices {
		views = append(views, *newInvoiceView(&invoices[i], byInvoice[invoices[i].ID]))
	}
	return views, nil
}

// Update replaces an invoice's contents and recomputes its total from scratch.
// Re-pointing the invoice at another client refreshes the client name snapshot.
func (s *invoiceService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in InvoiceInput) (*InvoiceView, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var view *InvoiceView
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		invoice, err := findOwnedInvoice(ctx, tx, p, id, true)
		if err != nil {
			return err
		}

		if in.InvoiceDate.IsZero() {
			in.InvoiceDate = invoice.InvoiceDate
		}
		if err := in.validate(); err != nil {
			return err
		}
		total, err := CalculateInvoiceTotal(in.Items, in.TaxRate)
		if err != nil {
			return err
		}

		if in.ClientID != uuid.Nil && in.ClientID != invoice.ClientID {
			client, err := findOwnedClient(ctx, tx, p, in.ClientID)
			if err != nil {
				return err
			}
			invoice.ClientID = client.ID
			invoice.ClientName = client.Name
		}
		if in.Currency != "" {
			currency, err := normalizeCurrency(in.Currency)
			if err != nil {
				return err
			}
			invoice.Currency = currency
		}
		if in.Status != "" {
			invoice.Status = in.Status
		}

		invoice.InvoiceDate = in.InvoiceDate
		invoice.DueDate = in.DueDate
		invoice.Items = copyItems(in.Items)
		invoice.Notes = in.Notes
		invoice.TaxRate = in.TaxRate
		invoice.Recurrence = in.Recurrence
		invoice.TotalAmount = total

		if err := tx.Invoices().Update(ctx, invoice); err != nil {
			return err
		}
		payments, err := tx.Payments().ListByInvoice(ctx, id)
		if err != nil {
			return err
		}
		view = newInvoiceView(invoice, payments)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes one of the caller's invoices together with all its payments.
func (s *invoiceService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	var removed int64
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := findOwnedInvoice(ctx, tx, p, id, true); err != nil {
			return err
		}
		n, err := tx.Payments().DeleteByInvoice(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return tx.Invoices().Delete(ctx, id)
	})
	if err != nil {
		return lookupError(err, "invoice", id)
	}

	s.opts.recorder.InvoiceDeleted()
	s.log.Info("invoice deleted",
		zap.String("invoice_id", id.String()),
		zap.Int64("payments_removed", removed),
	)
	return nil
}

// Document collects the invoice, its client, the issuer's settings and its payments.
func (s *invoiceService) Document(ctx context.Context, p auth.Principal, id uuid.UUID) (*InvoiceDocument, error) {
	view, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	doc := &InvoiceDocument{Invoice: view}
	if client, err := findOwnedClient(ctx, s.store, p, view.ClientID); err == nil {
		doc.Client = client
	} else if !errors.As(err, new(*errors.NotFoundError)) {
		return nil, err
	}

	if doc.Settings, err = loadSettings(ctx, s.store, p.ID); err != nil {
		return nil, err
	}
	if doc.Payments, err = s.store.Payments().ListByInvoice(ctx, id); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return doc, nil
}

// findOwnedInvoice loads an invoice and hides invoices of other users behind
// NotFound. forUpdate locks the row for the rest of the transaction.
func findOwnedInvoice(ctx context.Context, store repository.Store, p auth.Principal, id uuid.UUID, forUpdate bool) (*model.Invoice, error) {
	var (
		invoice *model.Invoice
		err     error
	)
	if forUpdate {
		invoice, err = store.Invoices().FindByIDForUpdate(ctx, id)
	} else {
		invoice, err = store.Invoices().FindByID(ctx, id)
	}
	if err != nil {
		return nil, lookupError(err, "invoice", id)
	}
	if invoice.UserID != p.ID {
		return nil, errors.NewNotFoundError("invoice", id.String())
	}
	return invoice, nil
}
