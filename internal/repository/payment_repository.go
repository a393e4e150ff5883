package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"invoicer/internal/model"
)

// PaymentRepository defines payment persistence operations. Payments are
// append-only: there is no update.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error)
	DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment record.
func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return translate(r.db.WithContext(ctx).Create(payment).Error)
}

// FindByID finds a payment by ID.
func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// ListByInvoice lists the payments of an invoice in the order they were made.
func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).
		Order("payment_date").Order("created_at").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// ListByUser lists every payment recorded by a user.
func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("payment_date").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// DeleteByInvoice removes all payments of an invoice and reports how many were deleted.
func (r *paymentRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&model.Payment{})
	return res.RowsAffected, res.Error
}
