// Package template turns an invoice and its totals into a document tree.
//
// Four visual variants are registered: modern, classic, tech and bold.
// Generate dispatches on the invoice's template and falls back to modern
// for unknown names. Generation is pure; the sender logo is only drawn when
// it has already been resolved to a data: URI.
package template

import (
	"strings"

	"github.com/roach88/invoiceforge/internal/document"
	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/totals"
)

// Context is the input to a template.
type Context struct {
	Invoice model.Invoice
	Totals  totals.Totals
}

// Definition is a registered template.
type Definition struct {
	ID          model.TemplateName
	Name        string
	Description string
	Generate    func(Context) document.Document
}

// Option describes a template for pickers.
type Option struct {
	ID          model.TemplateName `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
}

var registry = map[model.TemplateName]Definition{
	model.TemplateModern:  modern,
	model.TemplateClassic: classic,
	model.TemplateTech:    tech,
	model.TemplateBold:    bold,
}

// Default is used for unknown template names.
var Default = modern

// Get returns the template registered under id, or Default.
func Get(id model.TemplateName) Definition {
	if def, ok := registry[id]; ok {
		return def
	}
	return Default
}

// Generate builds the document for inv using its template.
func Generate(inv model.Invoice, t totals.Totals) document.Document {
	doc := Get(inv.Template).Generate(Context{Invoice: inv, Totals: t})
	if doc.PageSize == "" {
		doc.PageSize = document.A4
	}
	if doc.Margins == (document.Margin{}) {
		doc.Margins = document.Margin{40, 60, 40, 60}
	}
	doc.Title = Title(inv)
	return doc
}

// Options lists every template in display order.
func Options() []Option {
	out := make([]Option, 0, len(model.Templates))
	for _, id := range model.Templates {
		def := registry[id]
		out = append(out, Option{ID: def.ID, Name: def.Name, Description: def.Description})
	}
	return out
}

// Title is the document title, e.g. "Invoice INV-001".
func Title(inv model.Invoice) string {
	return strings.TrimSpace(titleCase(label(inv)) + " " + number(inv))
}

func label(inv model.Invoice) string {
	if inv.Type == model.TypeReceipt {
		return "RECEIPT"
	}
	return "INVOICE"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return s[:1] + strings.ToLower(s[1:])
}

func number(inv model.Invoice) string {
	if inv.Number == "" {
		return "INV-001"
	}
	return inv.Number
}

func sender(inv model.Invoice) model.Sender {
	if inv.SenderData == nil {
		return model.Sender{}
	}
	return *inv.SenderData
}

func client(inv model.Invoice) model.Client {
	if inv.ClientSnapshot == nil {
		return model.Client{}
	}
	return *inv.ClientSnapshot
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// logo returns the logo node when the sender logo has been resolved.
func logo(inv model.Invoice, width float64, m document.Margin) document.Node {
	s := sender(inv)
	if s.Logo == nil || !strings.HasPrefix(s.Logo.Source, "data:") {
		return nil
	}
	return document.Image{Src: s.Logo.Source, Width: width, Margin: m}
}

// textLines adds one Text node per non-empty line.
func textLines(props document.Style, lines ...string) []document.Node {
	var out []document.Node
	for _, l := range lines {
		if l != "" {
			out = append(out, document.Para(l, "", props))
		}
	}
	return out
}

func lineItemDescription(item model.LineItem) string {
	return or(item.Description, "Service")
}

// paymentDetails lists bank accounts for invoices, and the payment record for
// paid receipts. It returns nil when there is nothing to show.
func paymentDetails(inv model.Invoice, label string, labelStyle string, props document.Style) document.Node {
	var items []document.Node
	if inv.Type == model.TypeReceipt && inv.PaidDate != nil {
		line := "Paid " + FormatDate(inv.PaidDate)
		if inv.PaymentMethod != "" {
			line += " via " + strings.ReplaceAll(string(inv.PaymentMethod), "_", " ")
		}
		if inv.TransactionRef != "" {
			line += " (ref " + inv.TransactionRef + ")"
		}
		items = append(items, document.Para(line, "", props))
	} else {
		for _, acct := range sender(inv).BankAccounts {
			items = append(items, textLines(props,
				joinNonEmpty(" · ", acct.BankName, acct.AccountName),
				labelled("Account", acct.AccountNumber),
				labelled("Routing", acct.RoutingNumber),
				labelled("SWIFT", acct.SwiftCode),
				labelled("IBAN", acct.IBAN),
			)...)
		}
	}
	if len(items) == 0 {
		return nil
	}
	head := document.Para(label, labelStyle, document.Style{}).WithMargin(document.Vertical(20, 5))
	return document.Stack{Items: append([]document.Node{head}, items...)}
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func labelled(name, value string) string {
	if value == "" {
		return ""
	}
	return name + ": " + value
}

// section is a heading followed by rich text, or nil when text is empty.
func section(heading, headingStyle string, top float64, text string, props document.Style) document.Node {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	head := document.Para(heading, headingStyle, document.Style{}).WithMargin(document.Vertical(top, 5))
	return document.Stack{Items: append([]document.Node{head}, RichText(text, props)...)}
}

// compact drops nil nodes.
func compact(nodes ...document.Node) []document.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// amountRow is a label/value pair in a totals block.
func amountRow(label, value string, labelProps, valueProps document.Style, m document.Margin) document.Node {
	valueProps.Align = document.AlignRight
	return document.Columns{
		Columns: []document.Column{
			{Content: document.Para(label, "", labelProps)},
			{Content: document.Para(value, "", valueProps)},
		},
		Margin: m,
	}
}
