package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// InvoiceRecord is the storage form of an Invoice.
type InvoiceRecord struct {
	ID             int64         `json:"id,omitempty"`
	Number         string        `json:"number"`
	Type           DocumentType  `json:"type"`
	Status         Status        `json:"status"`
	IsDraft        bool          `json:"isDraft"`
	SenderID       *int64        `json:"senderId"`
	ClientID       *int64        `json:"clientId"`
	SenderData     *Sender       `json:"senderData,omitempty"`
	ClientSnapshot *Client       `json:"clientSnapshot,omitempty"`
	IssueDate      Timestamp     `json:"issueDate"`
	DueDate        *Timestamp    `json:"dueDate,omitempty"`
	PaidDate       *Timestamp    `json:"paidDate,omitempty"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty"`
	TransactionRef string        `json:"transactionRef,omitempty"`
	Currency       string        `json:"currency"`
	LineItems      []LineItem    `json:"lineItems"`
	Discount       Discount      `json:"discount"`
	Notes          string        `json:"notes,omitempty"`
	Terms          string        `json:"terms,omitempty"`
	Template       TemplateName  `json:"template"`
	CreatedAt      Timestamp     `json:"createdAt"`
	UpdatedAt      Timestamp     `json:"updatedAt"`
}

// ToPersistable maps an in-memory invoice to its storage form.
//
// Every field is listed explicitly. The sender logo is dropped, instants are
// normalized by NewTimestamp, slices and nested snapshots are copied so the
// record shares no memory with inv, and IsDraft is forced to isDraft.
func ToPersistable(inv Invoice, isDraft bool) InvoiceRecord {
	rec := InvoiceRecord{
		ID:             inv.ID,
		Number:         inv.Number,
		Type:           inv.Type,
		Status:         inv.Status,
		IsDraft:        isDraft,
		SenderID:       cloneInt64(inv.SenderID),
		ClientID:       cloneInt64(inv.ClientID),
		IssueDate:      NewTimestamp(inv.IssueDate),
		DueDate:        TimestampPtr(inv.DueDate),
		PaidDate:       TimestampPtr(inv.PaidDate),
		PaymentMethod:  inv.PaymentMethod,
		TransactionRef: inv.TransactionRef,
		Currency:       inv.Currency,
		LineItems:      append([]LineItem(nil), inv.LineItems...),
		Discount:       inv.Discount,
		Notes:          inv.Notes,
		Terms:          inv.Terms,
		Template:       inv.Template,
		CreatedAt:      NewTimestamp(inv.CreatedAt),
		UpdatedAt:      NewTimestamp(inv.UpdatedAt),
	}
	if inv.SenderData != nil {
		s := inv.SenderData.Clone()
		s.Logo = nil
		rec.SenderData = &s
	}
	if inv.ClientSnapshot != nil {
		c := *inv.ClientSnapshot
		rec.ClientSnapshot = &c
	}
	return rec
}

// FromRecord maps a stored record back to the in-memory form.
func FromRecord(rec InvoiceRecord) Invoice {
	inv := Invoice{
		ID:             rec.ID,
		Number:         rec.Number,
		Type:           rec.Type,
		Status:         rec.Status,
		IsDraft:        rec.IsDraft,
		SenderID:       cloneInt64(rec.SenderID),
		ClientID:       cloneInt64(rec.ClientID),
		IssueDate:      rec.IssueDate.Time,
		DueDate:        rec.DueDate.TimePtr(),
		PaidDate:       rec.PaidDate.TimePtr(),
		PaymentMethod:  rec.PaymentMethod,
		TransactionRef: rec.TransactionRef,
		Currency:       rec.Currency,
		LineItems:      append([]LineItem(nil), rec.LineItems...),
		Discount:       rec.Discount,
		Notes:          rec.Notes,
		Terms:          rec.Terms,
		Template:       rec.Template,
		CreatedAt:      rec.CreatedAt.Time,
		UpdatedAt:      rec.UpdatedAt.Time,
	}
	if rec.SenderData != nil {
		s := rec.SenderData.Clone()
		inv.SenderData = &s
	}
	if rec.ClientSnapshot != nil {
		c := *rec.ClientSnapshot
		inv.ClientSnapshot = &c
	}
	return inv
}

// DecodeInvoiceRecord decodes a stored row over defaults.
//
// Fields missing from data keep their default. Fields whose JSON type does not
// match are skipped rather than failing the load; only malformed JSON is an
// error. The result always has at least one line item.
func DecodeInvoiceRecord(data []byte, defaults InvoiceRecord) (InvoiceRecord, error) {
	// Round trip through FromRecord so decoding never writes into memory
	// reachable from defaults.
	rec := ToPersistable(FromRecord(defaults), defaults.IsDraft)

	if err := json.Unmarshal(data, &rec); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return InvoiceRecord{}, fmt.Errorf("decode invoice record: %w", err)
		}
	}

	if len(rec.LineItems) == 0 {
		rec.LineItems = []LineItem{DefaultLineItem()}
	}
	if rec.Discount.Type == "" {
		rec.Discount.Type = DiscountFixed
	}
	return rec, nil
}
