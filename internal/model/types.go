package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Unit is the billing unit of a line item.
type Unit string

const (
	UnitHour    Unit = "hour"
	UnitDay     Unit = "day"
	UnitUnit    Unit = "unit"
	UnitFlat    Unit = "flat"
	UnitProject Unit = "project"
	UnitMonth   Unit = "month"
	UnitWord    Unit = "word"
	UnitPage    Unit = "page"
)

// Units lists every supported unit in display order.
var Units = []Unit{UnitHour, UnitDay, UnitUnit, UnitFlat, UnitProject, UnitMonth, UnitWord, UnitPage}

// Status is the business status of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every invoice status.
var Statuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled}

// DocumentType distinguishes invoices from receipts.
type DocumentType string

const (
	TypeInvoice DocumentType = "invoice"
	TypeReceipt DocumentType = "receipt"
)

// TemplateName selects a document template.
type TemplateName string

const (
	TemplateModern  TemplateName = "modern"
	TemplateClassic TemplateName = "classic"
	TemplateTech    TemplateName = "tech"
	TemplateBold    TemplateName = "bold"
)

// Templates lists every template in display order.
var Templates = []TemplateName{TemplateModern, TemplateClassic, TemplateTech, TemplateBold}

// PaymentMethod records how a paid invoice was settled.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentCash         PaymentMethod = "cash"
	PaymentCheck        PaymentMethod = "check"
	PaymentOther        PaymentMethod = "other"
)

// PaymentMethods lists every payment method.
var PaymentMethods = []PaymentMethod{
	PaymentBankTransfer, PaymentCreditCard, PaymentPayPal, PaymentCash, PaymentCheck, PaymentOther,
}

// DiscountType selects how Discount.Value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ParseUnit validates a unit name.
func ParseUnit(s string) (Unit, error) {
	for _, u := range Units {
		if string(u) == s {
			return u, nil
		}
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ParseTemplate validates a template name.
func ParseTemplate(s string) (TemplateName, error) {
	for _, tn := range Templates {
		if string(tn) == s {
			return tn, nil
		}
	}
	return "", fmt.Errorf("unknown template %q", s)
}

// ParseDocumentType validates a document type.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case TypeInvoice, TypeReceipt:
		return DocumentType(s), nil
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// ParsePaymentMethod validates a payment method name.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// ParseDiscountType validates a discount type.
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(s) {
	case DiscountPercentage, DiscountFixed:
		return DiscountType(s), nil
	}
	return "", fmt.Errorf("unknown discount type %q", s)
}

// ParseCurrency checks that code is an ISO 4217 currency and returns its
// canonical upper-case form.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return unit.String(), nil
}
