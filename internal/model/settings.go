package model

// SettingsKey is the fixed key of the singleton settings row.
const SettingsKey = "settings"

// PaymentTerms is the default payment window for new invoices.
type PaymentTerms string

const (
	TermsDueOnReceipt PaymentTerms = "due_on_receipt"
	TermsNet7         PaymentTerms = "net_7"
	TermsNet15        PaymentTerms = "net_15"
	TermsNet30        PaymentTerms = "net_30"
	TermsNet45        PaymentTerms = "net_45"
	TermsNet60        PaymentTerms = "net_60"
	TermsCustom       PaymentTerms = "custom"
)

// PaymentTermsList lists every payment terms value.
var PaymentTermsList = []PaymentTerms{
	TermsDueOnReceipt, TermsNet7, TermsNet15, TermsNet30, TermsNet45, TermsNet60, TermsCustom,
}

// DateFormat is a display format for dates outside rendered documents.
type DateFormat string

const (
	DateISO      DateFormat = "YYYY-MM-DD"
	DateUS       DateFormat = "MM/DD/YYYY"
	DateEU       DateFormat = "DD/MM/YYYY"
	DateMonthDay DateFormat = "MMM DD, YYYY"
	DateDayMonth DateFormat = "DD MMM YYYY"
)

// DateFormats lists every date format.
var DateFormats = []DateFormat{DateISO, DateUS, DateEU, DateMonthDay, DateDayMonth}

// InvoiceNumberConfig describes how invoice numbers are generated.
type InvoiceNumberConfig struct {
	Prefix       string `json:"prefix" yaml:"prefix"`
	IncludeYear  bool   `json:"includeYear" yaml:"include_year"`
	IncludeMonth bool   `json:"includeMonth" yaml:"include_month"`
	Separator    string `json:"separator" yaml:"separator"`
	PadLength    int    `json:"padLength" yaml:"pad_length"`
}

// AppSettings is the singleton preferences row.
type AppSettings struct {
	ID                  string              `json:"id,omitempty"`
	Theme               string              `json:"theme"`
	DefaultCurrency     string              `json:"defaultCurrency"`
	DefaultTemplate     TemplateName        `json:"defaultTemplate"`
	DefaultPaymentTerms PaymentTerms        `json:"defaultPaymentTerms"`
	DefaultTaxRate      float64             `json:"defaultTaxRate"`
	InvoiceNumberConfig InvoiceNumberConfig `json:"invoiceNumberConfig"`
	DateFormat          DateFormat          `json:"dateFormat"`
}

// DefaultSettings are used when no settings row exists.
func DefaultSettings() AppSettings {
	return AppSettings{
		ID:                  SettingsKey,
		Theme:               "light",
		DefaultCurrency:     "USD",
		DefaultTemplate:     TemplateModern,
		DefaultPaymentTerms: TermsNet30,
		DefaultTaxRate:      0,
		InvoiceNumberConfig: InvoiceNumberConfig{
			Prefix:    "INV",
			Separator: "-",
			PadLength: 3,
		},
		DateFormat: DateMonthDay,
	}
}
