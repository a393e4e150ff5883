package service

import (
	"github.com/shopspring/decimal"

	"invoicer/internal/errors"
	"invoicer/internal/model"
)

// Decimal places accepted on input. They match the scale of the columns the
// values are stored in, so stored items always recompute to the stored total.
const (
	MaxQuantityPlaces  = 6
	MaxUnitPricePlaces = 6
	MaxTaxRatePlaces   = 4
)

const taxRateReason = "must be between 0 and 100 with at most 4 decimal places"

var (
	hundred    = decimal.NewFromInt(100)
	maxTaxRate = hundred
)

// validTaxRate reports whether rate lies within [0, 100] and has at most
// MaxTaxRatePlaces decimal places.
func validTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(maxTaxRate) && fitsPlaces(rate, MaxTaxRatePlaces)
}

func fitsPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// CalculateInvoiceTotal returns the invoice total for items. Each item
// contributes quantity × unit price plus tax at its own rate, or at
// invoiceTaxRate when the item has none. The sum is rounded to cents once,
// after all items have been added.
func CalculateInvoiceTotal(items []model.LineItem, invoiceTaxRate decimal.NullDecimal) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, errors.NewValidationError("items", "at least one line item is required")
	}
	if invoiceTaxRate.Valid && !validTaxRate(invoiceTaxRate.Decimal) {
		return decimal.Zero, errors.NewValidationError("tax_rate", taxRateReason)
	}

	total := decimal.Zero
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return decimal.Zero, errors.NewItemValidationError(i, "quantity", "must be greater than zero")
		}
		if !fitsPlaces(item.Quantity, MaxQuantityPlaces) {
			return decimal.Zero, errors.NewItemValidationError(i, "quantity", "must have at most 6 decimal places")
		}
		if item.UnitPrice.IsNegative() {
			return decimal.Zero, errors.NewItemValidationError(i, "unit_price", "must not be negative")
		}
		if !fitsPlaces(item.UnitPrice, MaxUnitPricePlaces) {
			return decimal.Zero, errors.NewItemValidationError(i, "unit_price", "must have at most 6 decimal places")
		}

		rate := decimal.Zero
		switch {
		case item.TaxRate.Valid:
			if !validTaxRate(item.TaxRate.Decimal) {
				return decimal.Zero, errors.NewItemValidationError(i, "tax_rate", taxRateReason)
			}
			rate = item.TaxRate.Decimal
		case invoiceTaxRate.Valid:
			rate = invoiceTaxRate.Decimal
		}

		subtotal := item.Quantity.Mul(item.UnitPrice)
		tax := subtotal.Mul(rate).Div(hundred)
		total = total.Add(subtotal).Add(tax)
	}

	return total.Round(2), nil
}
