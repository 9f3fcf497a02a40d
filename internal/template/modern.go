package template

import (
	"github.com/roach88/invoiceforge/internal/document"
	"github.com/roach88/invoiceforge/internal/totals"
)

const (
	modernAccent = "#4F46E5"
	modernMuted  = "#666666"
	modernLine   = "#e5e7eb"
	modernGreen  = "#16a34a"
)

var modern = Definition{
	ID:          "modern",
	Name:        "Modern",
	Description: "Clean, contemporary design with generous whitespace.",
	Generate:    generateModern,
}

func generateModern(ctx Context) document.Document {
	inv, t := ctx.Invoice, ctx.Totals
	cur := inv.Currency
	from, to := sender(inv), client(inv)
	muted := document.Style{Color: modernMuted}

	rows := [][]document.Cell{{
		headerCell("Description", "tableHeader", document.AlignLeft),
		headerCell("Qty", "tableHeader", document.AlignCenter),
		headerCell("Rate", "tableHeader", document.AlignRight),
		headerCell("Amount", "tableHeader", document.AlignRight),
	}}
	for _, item := range inv.LineItems {
		rows = append(rows, []document.Cell{
			bodyCell(lineItemDescription(item), document.Style{}),
			bodyCell(FormatQuantity(item.Quantity), document.Style{Align: document.AlignCenter}),
			bodyCell(FormatCurrency(item.Rate, cur), document.Style{Align: document.AlignRight}),
			bodyCell(FormatCurrency(totals.LineAmount(item), cur), document.Style{Align: document.AlignRight}),
		})
	}

	summary := []document.Node{
		amountRow("Subtotal", FormatCurrency(t.Subtotal, cur), muted, document.Style{}, document.Vertical(15, 5)),
	}
	if t.TaxTotal > 0 {
		summary = append(summary, amountRow("Tax", FormatCurrency(t.TaxTotal, cur), muted, document.Style{}, document.Vertical(0, 5)))
	}
	if t.DiscountAmount > 0 {
		green := document.Style{Color: modernGreen}
		summary = append(summary, amountRow("Discount", "-"+FormatCurrency(t.DiscountAmount, cur), green, green, document.Vertical(0, 5)))
	}
	summary = append(summary,
		document.Rule{Width: 200, Thickness: 1, Color: modernLine, Margin: document.Vertical(5, 5)},
		amountRow("Total Due", FormatCurrency(t.Total, cur),
			document.Style{Bold: true, FontSize: 12},
			document.Style{Bold: true, FontSize: 14, Color: modernAccent},
			document.Margin{}),
	)

	right := document.Style{Align: document.AlignRight, Color: modernMuted}
	header := document.Columns{
		Columns: []document.Column{
			{Content: document.Stack{Items: []document.Node{
				document.Para(label(inv), "invoiceLabel", document.Style{}),
				document.Para(number(inv), "invoiceNumber", document.Style{}),
			}}},
			{Content: document.Stack{Items: []document.Node{
				document.Para(FormatDate(&inv.IssueDate), "", right),
				document.Para("Due: "+FormatDate(inv.DueDate), "", right).WithMargin(document.Vertical(5, 0)),
			}}},
		},
		Margin: document.Vertical(0, 30),
	}

	billTo := append([]document.Node{
		document.Para("Bill To", "sectionLabel", document.Style{}),
		document.Para(or(to.Name, "Client Name"), "companyName", document.Style{}),
	}, textLines(document.Style{Color: "#444444"}, to.Company)...)
	billTo = append(billTo, textLines(muted, to.Address, to.Email)...)
	billTo = append(billTo, textLines(document.Style{Color: modernMuted, FontSize: 9}, labelled("Tax ID", to.TaxID))...)

	parties := document.Columns{
		Columns: []document.Column{
			{Content: document.Stack{Items: append([]document.Node{
				document.Para("From", "sectionLabel", document.Style{}),
				document.Para(or(from.BusinessName, "Your Business"), "companyName", document.Style{}),
			}, textLines(muted, from.Address, from.Email, from.Phone)...)}},
			{Content: document.Stack{Items: billTo}},
		},
		Margin: document.Vertical(0, 30),
	}

	return document.Document{
		Content: compact(
			logo(inv, 80, document.Vertical(0, 20)),
			header,
			parties,
			document.Table{
				Widths:     []float64{0, 50, 80, 80},
				HeaderRows: 1,
				Rows:       rows,
				Lines:      document.LinesHeader,
				LineColor:  modernLine,
				Padding:    8,
			},
			document.Columns{Columns: []document.Column{
				{Content: document.Spacer{}},
				{Width: 200, Content: document.Stack{Items: summary}},
			}},
			paymentDetails(inv, "Payment Details", "sectionLabel", muted),
			section("Notes", "sectionLabel", 30, inv.Notes, muted),
			section("Terms & Conditions", "sectionLabel", 20, inv.Terms, document.Style{Color: modernMuted, FontSize: 9}),
		),
		Styles: map[string]document.Style{
			"invoiceLabel":  {FontSize: 10, Color: modernMuted, Bold: true},
			"invoiceNumber": {FontSize: 24, Bold: true, Color: "#1e293b"},
			"sectionLabel":  {FontSize: 9, Color: "#9ca3af", Bold: true},
			"companyName":   {FontSize: 12, Bold: true, Color: "#1e293b"},
			"tableHeader":   {Bold: true, FontSize: 10, Color: "#6b7280", Fill: "#f9fafb"},
		},
		DefaultStyle: document.Style{Font: document.Sans, FontSize: 10, Color: "#374151"},
	}
}

func headerCell(text, style string, align document.Align) document.Cell {
	return document.Cell{Content: document.Para(text, style, document.Style{Align: align})}
}

func bodyCell(text string, props document.Style) document.Cell {
	return document.Cell{Content: document.Para(text, "", props)}
}
