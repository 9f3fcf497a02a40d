package model

import "time"

// LineItem is one billed row. Line items have no identity; order is
// document order.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        Unit    `json:"unit"`
	Rate        float64 `json:"rate"`
	TaxRate     float64 `json:"taxRate"`
}

// LineItemPatch is a partial update merged into a LineItem. Nil fields are
// left untouched.
type LineItemPatch struct {
	Description *string
	Quantity    *float64
	Unit        *Unit
	Rate        *float64
	TaxRate     *float64
}

// Apply merges the patch into item.
func (p LineItemPatch) Apply(item *LineItem) {
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = *p.Unit
	}
	if p.Rate != nil {
		item.Rate = *p.Rate
	}
	if p.TaxRate != nil {
		item.TaxRate = *p.TaxRate
	}
}

// Discount reduces the invoice total. Fixed discounts subtract Value;
// percentage discounts subtract Value percent of the subtotal.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// Invoice is the editable, in-memory invoice.
//
// SenderData and ClientSnapshot are copies taken while editing; the invoice
// does not depend on the profile rows they came from.
type Invoice struct {
	ID             int64         `json:"id,omitempty"`
	Number         string        `json:"number"`
	Type           DocumentType  `json:"type"`
	Status         Status        `json:"status"`
	IsDraft        bool          `json:"isDraft"`
	SenderID       *int64        `json:"senderId"`
	ClientID       *int64        `json:"clientId"`
	SenderData     *Sender       `json:"senderData,omitempty"`
	ClientSnapshot *Client       `json:"clientSnapshot,omitempty"`
	IssueDate      time.Time     `json:"issueDate"`
	DueDate        *time.Time    `json:"dueDate,omitempty"`
	PaidDate       *time.Time    `json:"paidDate,omitempty"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty"`
	TransactionRef string        `json:"transactionRef,omitempty"`
	Currency       string        `json:"currency"`
	LineItems      []LineItem    `json:"lineItems"`
	Discount       Discount      `json:"discount"`
	Notes          string        `json:"notes,omitempty"`
	Terms          string        `json:"terms,omitempty"`
	Template       TemplateName  `json:"template"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy of the invoice.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.SenderID = cloneInt64(inv.SenderID)
	out.ClientID = cloneInt64(inv.ClientID)
	out.DueDate = cloneTime(inv.DueDate)
	out.PaidDate = cloneTime(inv.PaidDate)
	out.LineItems = append([]LineItem(nil), inv.LineItems...)
	if inv.SenderData != nil {
		s := inv.SenderData.Clone()
		out.SenderData = &s
	}
	if inv.ClientSnapshot != nil {
		c := *inv.ClientSnapshot
		out.ClientSnapshot = &c
	}
	return out
}

// DefaultLineItem is the row added by the editor.
func DefaultLineItem() LineItem {
	return LineItem{
		Description: "Service",
		Quantity:    1,
		Unit:        UnitHour,
		Rate:        0,
		TaxRate:     0,
	}
}

// DefaultInvoice is the blank draft the editor starts from.
func DefaultInvoice(now time.Time) Invoice {
	return Invoice{
		Number:    "INV-001",
		Type:      TypeInvoice,
		Status:    StatusDraft,
		IsDraft:   true,
		IssueDate: now,
		Currency:  "USD",
		LineItems: []LineItem{DefaultLineItem()},
		Discount:  Discount{Type: DiscountFixed, Value: 0},
		Terms:     "Payment due within 30 days.",
		Template:  TemplateModern,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
