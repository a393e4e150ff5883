package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoicer/internal/model"
)

// InvoiceFilter narrows invoice listings. Zero values match everything.
type InvoiceFilter struct {
	Status   model.InvoiceStatus
	ClientID uuid.UUID
}

// Matches reports whether the invoice passes the filter.
func (f InvoiceFilter) Matches(inv *model.Invoice) bool {
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if f.ClientID != uuid.Nil && inv.ClientID != f.ClientID {
		return false
	}
	return true
}

// InvoiceRepository defines invoice persistence operations. Line items are
// stored and loaded together with their invoice, in order.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	Update(ctx context.Context, invoice *model.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]model.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func numberItems(invoice *model.Invoice) {
	for i := range invoice.Items {
		invoice.Items[i].ID = uuid.New()
		invoice.Items[i].InvoiceID = invoice.ID
		invoice.Items[i].Position = i
	}
}

// Create creates an invoice together with its line items.
func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	numberItems(invoice)
	return translate(r.db.WithContext(ctx).Create(invoice).Error)
}

// Update saves the invoice and replaces its line items.
func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&model.LineItem{}).Error; err != nil {
			return err
		}
		numberItems(invoice)
		if len(invoice.Items) > 0 {
			if err := tx.Create(&invoice.Items).Error; err != nil {
				return translate(err)
			}
		}
		return translate(tx.Omit(clause.Associations).Save(invoice).Error)
	})
}

// Delete removes an invoice and its line items.
func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&model.LineItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Invoice{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FindByID finds an invoice by ID.
func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := r.db.WithContext(ctx).Preload("Items", orderedItems).
		Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

// FindByIDForUpdate finds an invoice by ID with row-level lock for update.
func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", orderedItems).
		Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

// ListByUser lists a user's invoices, newest first.
func (r *invoiceRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]model.Invoice, error) {
	q := r.db.WithContext(ctx).Preload("Items", orderedItems).Where("user_id = ?", userID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ClientID != uuid.Nil {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	var invoices []model.Invoice
	if err := q.Order("invoice_date DESC").Order("number DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
