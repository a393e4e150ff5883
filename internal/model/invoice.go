package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusPending       InvoiceStatus = "pending"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid,
		InvoiceStatusPartiallyPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// RecurrenceFrequency is the unit of a recurrence interval.
type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "daily"
	FrequencyWeekly  RecurrenceFrequency = "weekly"
	FrequencyMonthly RecurrenceFrequency = "monthly"
	FrequencyYearly  RecurrenceFrequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f RecurrenceFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Recurrence is advisory configuration; nothing materializes recurring invoices.
type Recurrence struct {
	Enabled   bool                `json:"is_recurring" gorm:"column:recurring;not null;default:false"`
	Frequency RecurrenceFrequency `json:"frequency,omitempty" gorm:"size:16"`
	Interval  int                 `json:"interval,omitempty"`
	EndDate   *time.Time          `json:"end_date,omitempty"`
}

// Invoice is a bill issued by a user to one of their clients.
//
// ClientName is a snapshot of the client's name taken when the invoice was
// created or re-pointed at another client. It is not refreshed when the
// client is renamed or deleted.
type Invoice struct {
	ID          uuid.UUID           `json:"id" gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID           `json:"user_id" gorm:"type:char(36);not null;index"`
	ClientID    uuid.UUID           `json:"client_id" gorm:"type:char(36);not null;index"`
	ClientName  string              `json:"client_name" gorm:"size:255;not null"`
	Number      string              `json:"invoice_number" gorm:"size:32;not null;uniqueIndex"`
	InvoiceDate time.Time           `json:"invoice_date" gorm:"not null"`
	DueDate     *time.Time          `json:"due_date,omitempty" gorm:"index"`
	Items       []LineItem          `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Notes       string              `json:"notes" gorm:"type:text"`
	Currency    string              `json:"currency" gorm:"size:3;not null"`
	TaxRate     decimal.NullDecimal `json:"tax_rate" gorm:"type:decimal(7,4)"`
	Recurrence  Recurrence          `json:"recurrence" gorm:"embedded;embeddedPrefix:recurrence_"`
	TotalAmount decimal.Decimal     `json:"total_amount" gorm:"type:decimal(20,2);not null;default:0"`
	Status      InvoiceStatus       `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineItem is one billable entry on an invoice. TaxRate, when set, overrides
// the invoice-level rate.
type LineItem struct {
	ID          uuid.UUID           `json:"-" gorm:"type:char(36);primaryKey"`
	InvoiceID   uuid.UUID           `json:"-" gorm:"type:char(36);not null;index"`
	Position    int                 `json:"-" gorm:"not null"`
	Description string              `json:"description" gorm:"size:512;not null"`
	Quantity    decimal.Decimal     `json:"quantity" gorm:"type:decimal(20,6);not null"`
	UnitPrice   decimal.Decimal     `json:"unit_price" gorm:"type:decimal(20,6);not null"`
	TaxRate     decimal.NullDecimal `json:"tax_rate" gorm:"type:decimal(7,4)"`
}

// TableName keeps line items in their own table.
func (LineItem) TableName() string {
	return "invoice_items"
}

// BeforeCreate sets UUID before creating the record.
func (li *LineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}

// Clone returns a copy of the invoice that shares no mutable state with i.
func (i *Invoice) Clone() *Invoice {
	out := *i
	if i.Items != nil {
		out.Items = make([]LineItem, len(i.Items))
		copy(out.Items, i.Items)
	}
	if i.DueDate != nil {
		d := *i.DueDate
		out.DueDate = &d
	}
	if i.Recurrence.EndDate != nil {
		d := *i.Recurrence.EndDate
		out.Recurrence.EndDate = &d
	}
	return &out
}
