package service

import (
	"github.com/shopspring/decimal"

	"invoicer/internal/model"
)

// StatusPolicy decides an invoice's status after a payment has been recorded.
type StatusPolicy func(current model.InvoiceStatus, totalPaid, totalAmount decimal.Decimal) model.InvoiceStatus

// DerivePaymentStatus is the default StatusPolicy: paid once payments cover
// the total, partially_paid while anything has been paid, otherwise the
// current status. It applies to cancelled invoices as well;
// install a different policy with WithStatusPolicy to protect them.
func DerivePaymentStatus(current model.InvoiceStatus, totalPaid, totalAmount decimal.Decimal) model.InvoiceStatus {
	switch {
	case totalPaid.GreaterThanOrEqual(totalAmount):
		return model.InvoiceStatusPaid
	case totalPaid.IsPositive():
		return model.InvoiceStatusPartiallyPaid
	default:
		return current
	}
}

// KeepCancelled wraps a policy so that cancelled invoices keep their status.
func KeepCancelled(next StatusPolicy) StatusPolicy {
	return func(current model.InvoiceStatus, totalPaid, totalAmount decimal.Decimal) model.InvoiceStatus {
		if current == model.InvoiceStatusCancelled {
			return current
		}
		return next(current, totalPaid, totalAmount)
	}
}
