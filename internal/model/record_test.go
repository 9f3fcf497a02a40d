package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 589_793_238, time.UTC)

func TestToPersistable_DropsLogoAndNormalizesDates(t *testing.T) {
	inv := DefaultInvoice(testNow.In(time.FixedZone("CET", 3600)))
	inv.SenderData = &Sender{
		BusinessName: "Acme",
		Logo:         &LogoRef{Source: "logo.png", Data: []byte{1, 2, 3}},
		BankAccounts: []BankAccount{{ID: "a", BankName: "First"}},
	}

	rec := ToPersistable(inv, true)

	require.NotNil(t, rec.SenderData)
	assert.Nil(t, rec.SenderData.Logo, "logo reference must not be persisted")
	assert.NotNil(t, inv.SenderData.Logo, "source invoice keeps its logo")
	assert.True(t, rec.IsDraft)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.Equal(t, testNow.Truncate(time.Millisecond), rec.CreatedAt.Time)

	// Copies share no memory with the source.
	rec.LineItems[0].Rate = 99
	rec.SenderData.BankAccounts[0].BankName = "Other"
	assert.Equal(t, 0.0, inv.LineItems[0].Rate)
	assert.Equal(t, "First", inv.SenderData.BankAccounts[0].BankName)
}

func TestToPersistable_ForcesDraftFlag(t *testing.T) {
	inv := DefaultInvoice(testNow)
	inv.IsDraft = true

	assert.False(t, ToPersistable(inv, false).IsDraft)
	inv.IsDraft = false
	assert.True(t, ToPersistable(inv, true).IsDraft)
}

func TestRecord_JSONRoundTripThroughFromRecord(t *testing.T) {
	due := testNow.Add(30 * 24 * time.Hour)
	inv := DefaultInvoice(testNow)
	inv.ID = 7
	inv.DueDate = &due
	inv.Notes = "**thanks**"

	data, err := json.Marshal(ToPersistable(inv, true))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"createdAt":"2025-03-14T09:26:53.589Z"`)
	assert.NotContains(t, string(data), "logo")

	rec, err := DecodeInvoiceRecord(data, InvoiceRecord{})
	require.NoError(t, err)
	back := FromRecord(rec)

	assert.Equal(t, int64(7), back.ID)
	require.NotNil(t, back.DueDate)
	assert.True(t, due.Truncate(time.Millisecond).Equal(*back.DueDate))
	assert.Equal(t, "**thanks**", back.Notes)
}

func TestDecodeInvoiceRecord_PartialRowMergesDefaults(t *testing.T) {
	defaults := ToPersistable(DefaultInvoice(testNow), false)

	// An older row: no dueDate, no template, no discount, dates as
	// date-only string and epoch milliseconds.
	partial := []byte(`{
		"id": 3,
		"number": "INV-042",
		"isDraft": true,
		"issueDate": "2024-01-02",
		"createdAt": 1704153600000,
		"lineItems": [{"description": "Design", "quantity": 2, "unit": "day", "rate": 400, "taxRate": 0}]
	}`)

	rec, err := DecodeInvoiceRecord(partial, defaults)
	require.NoError(t, err)

	assert.Equal(t, int64(3), rec.ID)
	assert.Equal(t, "INV-042", rec.Number)
	assert.True(t, rec.IsDraft)
	assert.Nil(t, rec.DueDate)
	assert.Equal(t, TemplateModern, rec.Template)
	assert.Equal(t, Discount{Type: DiscountFixed, Value: 0}, rec.Discount)
	assert.Equal(t, "USD", rec.Currency)
	assert.Equal(t, "Payment due within 30 days.", rec.Terms)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), rec.IssueDate.Time)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), rec.CreatedAt.Time)
	require.Len(t, rec.LineItems, 1)
	assert.Equal(t, "Design", rec.LineItems[0].Description)

	// Defaults are not mutated by decoding.
	assert.Equal(t, "Service", defaults.LineItems[0].Description)
}

func TestDecodeInvoiceRecord_EmptyLineItemsGetsOne(t *testing.T) {
	rec, err := DecodeInvoiceRecord([]byte(`{"lineItems": []}`), InvoiceRecord{})
	require.NoError(t, err)
	require.Len(t, rec.LineItems, 1)
	assert.Equal(t, DefaultLineItem(), rec.LineItems[0])
}

func TestDecodeInvoiceRecord_TypeMismatchIsTolerated(t *testing.T) {
	rec, err := DecodeInvoiceRecord([]byte(`{"number": 12, "currency": "EUR"}`), InvoiceRecord{Number: "INV-001"})
	require.NoError(t, err)
	assert.Equal(t, "INV-001", rec.Number)
	assert.Equal(t, "EUR", rec.Currency)
}

func TestDecodeInvoiceRecord_MalformedJSON(t *testing.T) {
	_, err := DecodeInvoiceRecord([]byte(`{"number":`), InvoiceRecord{})
	assert.Error(t, err)
}

func TestTimestamp_UnparseableKeepsPrevious(t *testing.T) {
	ts := NewTimestamp(testNow)
	require.NoError(t, json.Unmarshal([]byte(`"not a date"`), &ts))
	assert.Equal(t, testNow.Truncate(time.Millisecond), ts.Time)
}

func TestParseCurrency(t *testing.T) {
	code, err := ParseCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	_, err = ParseCurrency("XYZQ")
	assert.Error(t, err)
}

func TestLineItemPatch_Apply(t *testing.T) {
	item := DefaultLineItem()
	qty := 3.0
	unit := UnitDay
	LineItemPatch{Quantity: &qty, Unit: &unit}.Apply(&item)

	assert.Equal(t, LineItem{Description: "Service", Quantity: 3, Unit: UnitDay}, item)
}

func TestSenderClone_CopiesBankAccounts(t *testing.T) {
	empty := Sender{BankAccounts: []BankAccount{}}.Clone()
	require.NotNil(t, empty.BankAccounts)
	assert.Empty(t, empty.BankAccounts)

	assert.Nil(t, Sender{}.Clone().BankAccounts)

	orig := Sender{BankAccounts: []BankAccount{{ID: "a", BankName: "First"}}}
	clone := orig.Clone()
	clone.BankAccounts[0].BankName = "Changed"
	assert.Equal(t, "First", orig.BankAccounts[0].BankName)
}
