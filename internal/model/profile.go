package model

import "time"

// LogoRef is a volatile reference to the sender's logo image.
//
// Source may be a file path, an http(s) URL or a data: URI. Data, when set,
// holds image bytes already in memory and wins over Source. A LogoRef is never
// persisted; render.ResolveLogo turns it into an embeddable data URI.
type LogoRef struct {
	Source string
	Data   []byte
}

// BankAccount is one payment destination printed on the invoice.
type BankAccount struct {
	ID            string `json:"id"`
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber,omitempty"`
	SwiftCode     string `json:"swiftCode,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	Currency      string `json:"currency"`
}

// Sender is the business issuing invoices.
type Sender struct {
	ID           int64         `json:"id,omitempty"`
	BusinessName string        `json:"businessName"`
	Address      string        `json:"address"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	TaxID        string        `json:"taxId,omitempty"`
	Logo         *LogoRef      `json:"-"`
	Website      string        `json:"website,omitempty"`
	DefaultTerms string        `json:"defaultTerms,omitempty"`
	BankAccounts []BankAccount `json:"bankAccounts,omitempty"`
	IsDefault    bool          `json:"isDefault"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy. The logo reference is shared; it is immutable.
func (s Sender) Clone() Sender {
	out := s
	if s.BankAccounts != nil {
		out.BankAccounts = append(make([]BankAccount, 0, len(s.BankAccounts)), s.BankAccounts...)
	}
	return out
}

// Client is a customer being billed.
type Client struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	TaxID     string    `json:"taxId,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ServiceItem is a reusable line-item template from the catalog.
type ServiceItem struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DefaultRate float64   `json:"defaultRate"`
	DefaultUnit Unit      `json:"defaultUnit"`
	TaxRate     float64   `json:"taxRate"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
