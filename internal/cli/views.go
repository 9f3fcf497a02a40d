package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/settings"
	"github.com/roach88/invoiceforge/internal/template"
	"github.com/roach88/invoiceforge/internal/totals"
)

// table renders rows as aligned columns.
func table(header []string, rows [][]string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

type invoiceView struct {
	Invoice   model.Invoice `json:"invoice"`
	Totals    totals.Totals `json:"totals"`
	LastSaved *time.Time    `json:"lastSaved,omitempty"`

	dateFormat model.DateFormat
}

func newInvoiceView(inv model.Invoice, lastSaved *time.Time, st model.AppSettings) invoiceView {
	return invoiceView{Invoice: inv, Totals: totals.ForInvoice(inv), LastSaved: lastSaved, dateFormat: st.DateFormat}
}

func (v invoiceView) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return template.NoDate
	}
	return settings.FormatDate(*t, v.dateFormat)
}

func (v invoiceView) String() string {
	inv := v.Invoice
	cur := inv.Currency
	var b strings.Builder

	fmt.Fprintf(&b, "%s  [%s, %s]\n", template.Title(inv), inv.Status, inv.Template)
	issue := inv.IssueDate
	fmt.Fprintf(&b, "Issued %s, due %s\n", v.date(&issue), v.date(inv.DueDate))
	if inv.Type == model.TypeReceipt && inv.PaidDate != nil {
		fmt.Fprintf(&b, "Paid %s\n", v.date(inv.PaidDate))
	}
	if s := inv.SenderData; s != nil && s.BusinessName != "" {
		fmt.Fprintf(&b, "From: %s\n", s.BusinessName)
	}
	if c := inv.ClientSnapshot; c != nil && c.Name != "" {
		fmt.Fprintf(&b, "To:   %s\n", c.Name)
	}
	b.WriteString("\n")

	rows := make([][]string, len(inv.LineItems))
	for i, item := range inv.LineItems {
		rows[i] = []string{
			fmt.Sprint(i),
			item.Description,
			template.FormatQuantity(item.Quantity) + " " + string(item.Unit),
			template.FormatCurrency(item.Rate, cur),
			template.FormatQuantity(item.TaxRate) + "%",
			template.FormatCurrency(totals.LineAmount(item), cur),
		}
	}
	b.WriteString(table([]string{"#", "DESCRIPTION", "QTY", "RATE", "TAX", "AMOUNT"}, rows))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Subtotal  %s\n", template.FormatCurrency(v.Totals.Subtotal, cur))
	fmt.Fprintf(&b, "Tax       %s\n", template.FormatCurrency(v.Totals.TaxTotal, cur))
	if v.Totals.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Discount  -%s\n", template.FormatCurrency(v.Totals.DiscountAmount, cur))
	}
	fmt.Fprintf(&b, "Total     %s", template.FormatCurrency(v.Totals.Total, cur))
	if v.LastSaved != nil {
		fmt.Fprintf(&b, "\n\nLast saved %s", v.LastSaved.Local().Format(time.Kitchen))
	}
	return b.String()
}

type historyView []model.InvoiceRecord

func (v historyView) String() string {
	if len(v) == 0 {
		return "No invoices in history."
	}
	rows := make([][]string, len(v))
	for i, rec := range v {
		inv := model.FromRecord(rec)
		t := totals.ForInvoice(inv)
		client := ""
		if inv.ClientSnapshot != nil {
			client = inv.ClientSnapshot.Name
		}
		rows[i] = []string{
			fmt.Sprint(rec.ID),
			inv.Number,
			string(inv.Type),
			string(inv.Status),
			client,
			inv.IssueDate.Format("2006-01-02"),
			template.FormatCurrency(t.Total, inv.Currency),
		}
	}
	return table([]string{"ID", "NUMBER", "TYPE", "STATUS", "CLIENT", "ISSUED", "TOTAL"}, rows)
}

type senderView model.Sender

func (v senderView) String() string {
	var b strings.Builder
	name := v.BusinessName
	if name == "" {
		name = "(no business name)"
	}
	b.WriteString(name)
	if v.ID == 0 {
		b.WriteString("  [not saved]")
	}
	for _, line := range []string{v.Address, v.Email, v.Phone, v.Website} {
		if line != "" {
			b.WriteString("\n" + line)
		}
	}
	if v.TaxID != "" {
		b.WriteString("\nTax ID: " + v.TaxID)
	}
	if len(v.BankAccounts) > 0 {
		rows := make([][]string, len(v.BankAccounts))
		for i, acc := range v.BankAccounts {
			rows[i] = []string{acc.ID, acc.BankName, acc.AccountName, acc.AccountNumber, acc.Currency}
		}
		b.WriteString("\n\n")
		b.WriteString(table([]string{"ID", "BANK", "NAME", "ACCOUNT", "CURRENCY"}, rows))
	}
	return b.String()
}

type clientsView []model.Client

func (v clientsView) String() string {
	if len(v) == 0 {
		return "No clients."
	}
	rows := make([][]string, len(v))
	for i, c := range v {
		rows[i] = []string{fmt.Sprint(c.ID), c.Name, c.Company, c.Email}
	}
	return table([]string{"ID", "NAME", "COMPANY", "EMAIL"}, rows)
}

type servicesView []model.ServiceItem

func (v servicesView) String() string {
	if len(v) == 0 {
		return "No services."
	}
	rows := make([][]string, len(v))
	for i, s := range v {
		rows[i] = []string{
			fmt.Sprint(s.ID),
			s.Category,
			s.Name,
			template.FormatQuantity(s.DefaultRate) + "/" + string(s.DefaultUnit),
			template.FormatQuantity(s.TaxRate) + "%",
		}
	}
	return table([]string{"ID", "CATEGORY", "NAME", "RATE", "TAX"}, rows)
}

type settingsView model.AppSettings

func (v settingsView) String() string {
	st := model.AppSettings(v)
	n := st.InvoiceNumberConfig
	rows := [][]string{
		{"currency", st.DefaultCurrency},
		{"template", string(st.DefaultTemplate)},
		{"payment-terms", string(st.DefaultPaymentTerms)},
		{"tax-rate", template.FormatQuantity(st.DefaultTaxRate)},
		{"date-format", string(st.DateFormat)},
		{"theme", st.Theme},
		{"number-prefix", n.Prefix},
		{"number-separator", n.Separator},
		{"number-pad", fmt.Sprint(n.PadLength)},
		{"number-year", fmt.Sprint(n.IncludeYear)},
		{"number-month", fmt.Sprint(n.IncludeMonth)},
	}
	return table([]string{"KEY", "VALUE"}, rows)
}

type templatesView []template.Option

func (v templatesView) String() string {
	rows := make([][]string, len(v))
	for i, o := range v {
		rows[i] = []string{string(o.ID), o.Name, o.Description}
	}
	return table([]string{"ID", "NAME", "DESCRIPTION"}, rows)
}

// message is a one-line text result with a JSON payload.
type message struct {
	text string
	data any
}

func (m message) String() string { return m.text }

func (m message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.data)
}
