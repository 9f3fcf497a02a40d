package settings

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/invoiceforge/internal/model"
)

// FormatInvoiceNumber builds an invoice number such as INV-2025-03-007 from
// the configured parts. Empty parts are skipped.
func FormatInvoiceNumber(cfg model.InvoiceNumberConfig, seq int, now time.Time) string {
	var parts []string
	if cfg.Prefix != "" {
		parts = append(parts, cfg.Prefix)
	}
	if cfg.IncludeYear {
		parts = append(parts, now.Format("2006"))
	}
	if cfg.IncludeMonth {
		parts = append(parts, now.Format("01"))
	}
	if cfg.PadLength > 0 {
		parts = append(parts, fmt.Sprintf("%0*d", cfg.PadLength, seq))
	} else {
		parts = append(parts, fmt.Sprintf("%d", seq))
	}
	return strings.Join(parts, cfg.Separator)
}

var netDays = map[model.PaymentTerms]int{
	model.TermsDueOnReceipt: 0,
	model.TermsNet7:         7,
	model.TermsNet15:        15,
	model.TermsNet30:        30,
	model.TermsNet45:        45,
	model.TermsNet60:        60,
}

// DueDate derives the due date from the issue date. Custom or unknown terms
// have no derived date.
func DueDate(issue time.Time, terms model.PaymentTerms) (time.Time, bool) {
	days, ok := netDays[terms]
	if !ok {
		return time.Time{}, false
	}
	return issue.AddDate(0, 0, days), true
}

var dateLayouts = map[model.DateFormat]string{
	model.DateISO:      "2006-01-02",
	model.DateUS:       "01/02/2006",
	model.DateEU:       "02/01/2006",
	model.DateMonthDay: "Jan 02, 2006",
	model.DateDayMonth: "02 Jan 2006",
}

// FormatDate renders t in the given display format. Unknown formats fall
// back to YYYY-MM-DD; the zero time renders as an empty string.
func FormatDate(t time.Time, format model.DateFormat) string {
	if t.IsZero() {
		return ""
	}
	layout, ok := dateLayouts[format]
	if !ok {
		layout = dateLayouts[model.DateISO]
	}
	return t.Format(layout)
}
