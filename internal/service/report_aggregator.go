package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicer/internal/model"
)

// PaidWindow is how far back Summary.PaidLast30Days looks.
const PaidWindow = 30 * 24 * time.Hour

// Summary is the dashboard aggregate over one user's invoices.
type Summary struct {
	TotalOutstanding decimal.Decimal             `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal             `json:"total_overdue"`
	PaidLast30Days   decimal.Decimal             `json:"paid_last_30_days"`
	InvoiceCount     int                         `json:"invoice_count"`
	StatusCounts     map[model.InvoiceStatus]int `json:"status_counts"`
}

// ClientRevenue is one row of the revenue-by-client report.
type ClientRevenue struct {
	ClientID     uuid.UUID       `json:"client_id"`
	ClientName   string          `json:"client_name"`
	InvoiceCount int             `json:"invoice_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// PaymentsByInvoice groups payments by the invoice they settle.
func PaymentsByInvoice(payments []model.Payment) map[uuid.UUID][]model.Payment {
	out := make(map[uuid.UUID][]model.Payment)
	for _, p := range payments {
		out[p.InvoiceID] = append(out[p.InvoiceID], p)
	}
	return out
}

func sumPayments(payments []model.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// BalanceDue is the invoice total minus everything paid against it.
func BalanceDue(inv *model.Invoice, payments []model.Payment) decimal.Decimal {
	return inv.TotalAmount.Sub(sumPayments(payments))
}

func isOutstandingStatus(s model.InvoiceStatus) bool {
	switch s {
	case model.InvoiceStatusPending, model.InvoiceStatusPartiallyPaid, model.InvoiceStatusOverdue:
		return true
	}
	return false
}

// AggregateSummary computes outstanding, overdue and recently paid amounts.
// Overdue invoices are a subset of outstanding ones, so TotalOverdue never
// exceeds TotalOutstanding. Every figure is rounded once, at the end.
func AggregateSummary(invoices []model.Invoice, payments map[uuid.UUID][]model.Payment, now time.Time) Summary {
	outstanding := decimal.Zero
	overdue := decimal.Zero
	paidRecently := decimal.Zero
	counts := make(map[model.InvoiceStatus]int)
	windowStart := now.Add(-PaidWindow)

	for i := range invoices {
		inv := &invoices[i]
		counts[inv.Status]++
		invPayments := payments[inv.ID]

		for _, p := range invPayments {
			if !p.PaymentDate.Before(windowStart) && !p.PaymentDate.After(now) {
				paidRecently = paidRecently.Add(p.Amount)
			}
		}

		if !isOutstandingStatus(inv.Status) {
			continue
		}
		balance := BalanceDue(inv, invPayments)
		if !balance.IsPositive() {
			continue
		}
		outstanding = outstanding.Add(balance)
		if inv.DueDate != nil && inv.DueDate.Before(now) {
			overdue = overdue.Add(balance)
		}
	}

	return Summary{
		TotalOutstanding: outstanding.Round(2),
		TotalOverdue:     overdue.Round(2),
		PaidLast30Days:   paidRecently.Round(2),
		InvoiceCount:     len(invoices),
		StatusCounts:     counts,
	}
}

// AggregateRevenueByClient sums payments on each client's paid and partially
// paid invoices. Clients without revenue are omitted. Rows are ordered by
// revenue, highest first, then by client name and id.
func AggregateRevenueByClient(clients []model.Client, invoices []model.Invoice, payments map[uuid.UUID][]model.Payment) []ClientRevenue {
	rows := make(map[uuid.UUID]*ClientRevenue, len(clients))
	for _, c := range clients {
		rows[c.ID] = &ClientRevenue{ClientID: c.ID, ClientName: c.Name, TotalRevenue: decimal.Zero}
	}

	for i := range invoices {
		inv := &invoices[i]
		if inv.Status != model.InvoiceStatusPaid && inv.Status != model.InvoiceStatusPartiallyPaid {
			continue
		}
		row, ok := rows[inv.ClientID]
		if !ok {
			continue
		}
		row.InvoiceCount++
		row.TotalRevenue = row.TotalRevenue.Add(sumPayments(payments[inv.ID]))
	}

	out := make([]ClientRevenue, 0, len(rows))
	for _, row := range rows {
		if !row.TotalRevenue.IsPositive() {
			continue
		}
		row.TotalRevenue = row.TotalRevenue.Round(2)
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRevenue.Cmp(out[j].TotalRevenue); c != 0 {
			return c > 0
		}
		if out[i].ClientName != out[j].ClientName {
			return out[i].ClientName < out[j].ClientName
		}
		return out[i].ClientID.String() < out[j].ClientID.String()
	})
	return out
}
