package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is an immutable record of money received against an invoice.
// It has no UpdatedAt: payments are never modified, only deleted together
// with their invoice.
type Payment struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	InvoiceID   uuid.UUID       `json:"invoice_id" gorm:"type:char(36);not null;index"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:char(36);not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	PaymentDate time.Time       `json:"payment_date" gorm:"not null;index"`
	Method      string          `json:"payment_method" gorm:"size:64;not null"`
	Notes       string          `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
