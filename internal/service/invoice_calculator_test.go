package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/errors"
	"invoicer/internal/model"
)

func TestCalculateInvoiceTotal(t *testing.T) {
	tests := []struct {
		name       string
		items      []model.LineItem
		invoiceTax decimal.NullDecimal
		want       string
	}{
		{
			name: "item rates",
			items: []model.LineItem{
				item("a", "2", "100", rate("10")),
				item("b", "1", "50", rate("0")),
			},
			want: "270.00",
		},
		{
			name: "invoice rate is the fallback",
			items: []model.LineItem{
				item("a", "2", "100", decimal.NullDecimal{}),
				item("b", "1", "50", rate("0")),
			},
			invoiceTax: rate("20"),
			want:       "290.00",
		},
		{
			name:  "no rate anywhere means no tax",
			items: []model.LineItem{item("a", "3", "19.99", decimal.NullDecimal{})},
			want:  "59.97",
		},
		{
			name: "rounded once at the end",
			items: []model.LineItem{
				item("a", "1", "0.335", decimal.NullDecimal{}),
				item("b", "1", "0.335", decimal.NullDecimal{}),
				item("c", "1", "0.335", decimal.NullDecimal{}),
			},
			want: "1.01",
		},
		{
			name:  "free item",
			items: []model.LineItem{item("a", "1", "0", rate("50"))},
			want:  "0.00",
		},
		{
			name:  "fractional quantity",
			items: []model.LineItem{item("a", "1.5", "80", rate("7.5"))},
			want:  "129.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateInvoiceTotal(tt.items, tt.invoiceTax)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
			assert.True(t, got.Equal(dec(tt.want)))
		})
	}
}

func TestCalculateInvoiceTotal_OrderDoesNotMatter(t *testing.T) {
	items := []model.LineItem{
		item("a", "3", "33.333", rate("19")),
		item("b", "7", "0.01", decimal.NullDecimal{}),
		item("c", "1.25", "999.99", rate("5.5")),
		item("d", "2", "12.345", rate("0")),
	}
	want, err := CalculateInvoiceTotal(items, rate("8"))
	require.NoError(t, err)

	permutations := [][]int{{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	for _, perm := range permutations {
		reordered := make([]model.LineItem, len(items))
		for i, idx := range perm {
			reordered[i] = items[idx]
		}
		got, err := CalculateInvoiceTotal(reordered, rate("8"))
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "order %v gave %s, want %s", perm, got, want)
	}
}

func TestCalculateInvoiceTotal_Validation(t *testing.T) {
	tests := []struct {
		name       string
		items      []model.LineItem
		invoiceTax decimal.NullDecimal
		wantField  string
		wantIndex  int
	}{
		{name: "no items", items: nil, wantField: "items", wantIndex: -1},
		{
			name:      "zero quantity",
			items:     []model.LineItem{item("a", "1", "1", rate("0")), item("b", "0", "1", rate("0"))},
			wantField: "quantity",
			wantIndex: 1,
		},
		{
			name:      "negative price",
			items:     []model.LineItem{item("a", "1", "-0.01", rate("0"))},
			wantField: "unit_price",
			wantIndex: 0,
		},
		{
			name:      "item rate above 100",
			items:     []model.LineItem{item("a", "1", "1", rate("0")), item("b", "1", "1", rate("0")), item("c", "1", "1", rate("100.01"))},
			wantField: "tax_rate",
			wantIndex: 2,
		},
		{
			name:       "invoice rate below 0",
			items:      []model.LineItem{item("a", "1", "1", decimal.NullDecimal{})},
			invoiceTax: rate("-1"),
			wantField:  "tax_rate",
			wantIndex:  -1,
		},
		{
			name:      "quantity finer than storage",
			items:     []model.LineItem{item("a", "0.0000001", "1", rate("0"))},
			wantField: "quantity",
			wantIndex: 0,
		},
		{
			name:      "price finer than storage",
			items:     []model.LineItem{item("a", "1", "1", rate("0")), item("b", "1", "0.0000001", rate("0"))},
			wantField: "unit_price",
			wantIndex: 1,
		},
		{
			name:      "item rate with five places",
			items:     []model.LineItem{item("a", "1", "1", rate("7.12345"))},
			wantField: "tax_rate",
			wantIndex: 0,
		},
		{
			name:       "invoice rate with five places",
			items:      []model.LineItem{item("a", "1", "1", decimal.NullDecimal{})},
			invoiceTax: rate("7.12345"),
			wantField:  "tax_rate",
			wantIndex:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateInvoiceTotal(tt.items, tt.invoiceTax)
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Equal(t, tt.wantIndex, vErr.Index)
		})
	}
}

func TestCalculateInvoiceTotal_AcceptsStoredPrecision(t *testing.T) {
	items := []model.LineItem{item("a", "0.000001", "1000000", rate("7.1234")), item("b", "3", "0.335", decimal.NullDecimal{})}
	total, err := CalculateInvoiceTotal(items, rate("12.5"))
	require.NoError(t, err)
	// 1 + 0.071234 + 1.005 + 0.125625 = 2.201859
	assert.Equal(t, "2.20", total.StringFixed(2))
}
