// Package totals derives invoice amounts from line items and a discount.
//
// Arithmetic is done in decimal so that sums of currency amounts do not pick
// up binary floating point error; results are converted back to float64 at the
// boundary because the rest of the model stores plain numbers.
package totals

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/invoiceforge/internal/model"
)

// Totals are the derived amounts of an invoice.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxTotal       float64 `json:"taxTotal"`
	DiscountAmount float64 `json:"discountAmount"`
	Total          float64 `json:"total"`
}

var hundred = decimal.NewFromInt(100)

// Recompute derives totals:
//
//	subtotal = Σ quantity×rate
//	taxTotal = Σ quantity×rate×taxRate/100
//	discount = value (fixed) or subtotal×value/100 (percentage)
//	total    = subtotal + taxTotal − discount
func Recompute(items []model.LineItem, discount model.Discount) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		amount := LineAmountDecimal(item)
		subtotal = subtotal.Add(amount)
		tax = tax.Add(amount.Mul(decimal.NewFromFloat(item.TaxRate)).Div(hundred))
	}

	disc := discountAmount(subtotal, discount)
	total := subtotal.Add(tax).Sub(disc)

	return Totals{
		Subtotal:       subtotal.InexactFloat64(),
		TaxTotal:       tax.InexactFloat64(),
		DiscountAmount: disc.InexactFloat64(),
		Total:          total.InexactFloat64(),
	}
}

// ForInvoice is Recompute over an invoice.
func ForInvoice(inv model.Invoice) Totals {
	return Recompute(inv.LineItems, inv.Discount)
}

// LineAmount is quantity×rate for one row.
func LineAmount(item model.LineItem) float64 {
	return LineAmountDecimal(item).InexactFloat64()
}

// LineAmountDecimal is LineAmount without the float conversion.
func LineAmountDecimal(item model.LineItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Rate))
}

func discountAmount(subtotal decimal.Decimal, d model.Discount) decimal.Decimal {
	value := decimal.NewFromFloat(d.Value)
	if d.Type == model.DiscountFixed {
		return value
	}
	return subtotal.Mul(value).Div(hundred)
}
