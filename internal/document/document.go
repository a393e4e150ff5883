// Package document renders invoices for download and hands them to a mailer.
// Both implementations are stubs: the rendered document is a short text
// placeholder that identifies the invoice, and the mailer only logs.
package document

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"invoicer/internal/service"
)

// Document is a rendered invoice.
type Document struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	Body          []byte `json:"-"`
}

// Generator renders an invoice document.
type Generator interface {
	Generate(ctx context.Context, doc *service.InvoiceDocument) (*Document, error)
}

// Mailer delivers a rendered document to a recipient.
type Mailer interface {
	Send(ctx context.Context, to string, doc *Document) error
}

// StubGenerator produces a plain-text placeholder naming the invoice.
type StubGenerator struct{}

// NewStubGenerator creates a stub generator.
func NewStubGenerator() *StubGenerator {
	return &StubGenerator{}
}

func (g *StubGenerator) Generate(ctx context.Context, doc *service.InvoiceDocument) (*Document, error) {
	if doc == nil || doc.Invoice == nil {
		return nil, fmt.Errorf("nothing to render")
	}
	inv := doc.Invoice

	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s\n", inv.Number)
	fmt.Fprintf(&b, "ID: %s\n", inv.ID)
	if doc.Settings != nil && doc.Settings.CompanyName != "" {
		fmt.Fprintf(&b, "From: %s\n", doc.Settings.CompanyName)
	}
	fmt.Fprintf(&b, "To: %s\n", inv.ClientName)
	fmt.Fprintf(&b, "Total: %s %s\n", inv.TotalAmount.StringFixed(2), inv.Currency)
	fmt.Fprintf(&b, "Balance due: %s %s\n", inv.BalanceDue.StringFixed(2), inv.Currency)

	return &Document{
		InvoiceID:     inv.ID.String(),
		InvoiceNumber: inv.Number,
		Filename:      inv.Number + ".txt",
		ContentType:   "text/plain; charset=utf-8",
		Body:          []byte(b.String()),
	}, nil
}

// LogMailer logs the delivery instead of sending anything.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer creates a mailer that writes to log.
func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log.Named("mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to string, doc *Document) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("no recipient")
	}
	m.log.Info("invoice sent",
		zap.String("to", to),
		zap.String("invoice_id", doc.InvoiceID),
		zap.String("invoice_number", doc.InvoiceNumber),
		zap.Int("bytes", len(doc.Body)),
	)
	return nil
}
