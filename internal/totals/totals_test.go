package totals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/invoiceforge/internal/model"
)

var testTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRecompute_PercentageDiscount(t *testing.T) {
	items := []model.LineItem{
		{Quantity: 2, Rate: 50, TaxRate: 10},
		{Quantity: 1, Rate: 100, TaxRate: 0},
	}

	got := Recompute(items, model.Discount{Type: model.DiscountPercentage, Value: 10})

	assert.Equal(t, Totals{Subtotal: 200, TaxTotal: 10, DiscountAmount: 20, Total: 190}, got)
}

func TestRecompute_FixedDiscount(t *testing.T) {
	items := []model.LineItem{{Quantity: 3, Rate: 33.33, TaxRate: 0}}

	got := Recompute(items, model.Discount{Type: model.DiscountFixed, Value: 9.99})

	assert.Equal(t, 99.99, got.Subtotal)
	assert.Equal(t, 9.99, got.DiscountAmount)
	assert.Equal(t, 90.0, got.Total)
}

func TestRecompute_NoFloatDrift(t *testing.T) {
	items := []model.LineItem{
		{Quantity: 1, Rate: 0.1},
		{Quantity: 1, Rate: 0.2},
	}

	got := Recompute(items, model.Discount{Type: model.DiscountFixed})

	assert.Equal(t, 0.3, got.Subtotal)
	assert.Equal(t, 0.3, got.Total)
}

func TestRecompute_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, Recompute(nil, model.Discount{Type: model.DiscountPercentage, Value: 50}))
}

func TestForInvoice_DefaultInvoiceIsZero(t *testing.T) {
	got := ForInvoice(model.DefaultInvoice(testTime))
	assert.Equal(t, Totals{}, got)
}

func TestLineAmount(t *testing.T) {
	assert.Equal(t, 12.5, LineAmount(model.LineItem{Quantity: 2.5, Rate: 5}))
}
