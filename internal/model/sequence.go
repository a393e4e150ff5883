package model

import "time"

// SequenceInvoice names the global invoice number counter.
const SequenceInvoice = "invoice"

// Sequence is a named monotonically increasing counter kept apart from the
// rows it numbers, so deleting rows never causes a value to be reused.
type Sequence struct {
	Name      string    `gorm:"size:64;primaryKey"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
