package service

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"
)

// FormatInvoiceNumber renders an invoice number such as INV-2024-00042.
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%05d", year, seq)
}

// InvoiceNumberer hands out invoice numbers from the global invoice counter.
type InvoiceNumberer struct {
	now Clock
}

// NewInvoiceNumberer creates a numberer that stamps numbers with the year of now().
func NewInvoiceNumberer(now Clock) *InvoiceNumberer {
	if now == nil {
		now = time.Now
	}
	return &InvoiceNumberer{now: now}
}

// Next increments the counter through seqs and formats the result. Pass the
// transactional repository when the number must roll back with the invoice.
func (n *InvoiceNumberer) Next(ctx context.Context, seqs repository.SequenceRepository) (string, error) {
	seq, err := seqs.Next(ctx, model.SequenceInvoice)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return FormatInvoiceNumber(n.now().Year(), seq), nil
}
