package template

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoDate is printed for dates that are not set.
const NoDate = "—"

var printer = message.NewPrinter(language.English)

// FormatCurrency renders an amount as "USD 1,234.50": the currency code, a
// space, and the amount with English digit grouping and two decimals.
// Recognized ISO 4217 codes are upper-cased; anything else is printed as
// given.
func FormatCurrency(amount float64, code string) string {
	if unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code))); err == nil {
		code = unit.String()
	}
	rounded := decimal.NewFromFloat(amount).Round(2).InexactFloat64()
	return code + " " + printer.Sprintf("%.2f", rounded)
}

// FormatDate renders t as "Jan 2, 2006", or NoDate when t is nil or zero.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NoDate
	}
	return t.Format("Jan 2, 2006")
}

// FormatQuantity renders a quantity with the fewest digits that round-trip.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
