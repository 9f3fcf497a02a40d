package template

import (
	"strings"

	"github.com/roach88/invoiceforge/internal/document"
	"github.com/roach88/invoiceforge/internal/totals"
)

var bold = Definition{
	ID:          "bold",
	Name:        "Bold",
	Description: "High contrast design with distinct header block.",
	Generate:    generateBold,
}

func generateBold(ctx Context) document.Document {
	inv, t := ctx.Invoice, ctx.Totals
	cur := inv.Currency
	from, to := sender(inv), client(inv)
	caption := document.Style{FontSize: 9, Bold: true, Color: "#888888"}
	strong := document.Style{FontSize: 12, Bold: true}

	rows := [][]document.Cell{{
		headerCell("Description", "tableHeader", document.AlignLeft),
		headerCell("Qty", "tableHeader", document.AlignCenter),
		headerCell("Price", "tableHeader", document.AlignRight),
		headerCell("Total", "tableHeader", document.AlignRight),
	}}
	for _, item := range inv.LineItems {
		rows = append(rows, []document.Cell{
			bodyCell(lineItemDescription(item), document.Style{Bold: true}),
			bodyCell(FormatQuantity(item.Quantity), document.Style{Align: document.AlignCenter}),
			bodyCell(FormatCurrency(item.Rate, cur), document.Style{Align: document.AlignRight}),
			bodyCell(FormatCurrency(totals.LineAmount(item), cur), document.Style{Align: document.AlignRight, Bold: true}),
		})
	}

	detail := func(heading, value string) document.Column {
		return document.Column{Content: document.Stack{Items: []document.Node{
			document.Para(heading, "", caption),
			document.Para(value, "", strong),
		}}}
	}

	summary := []document.Node{
		document.Rule{Width: 250, Thickness: 2, Color: "#000000"},
	}
	if t.TaxTotal > 0 || t.DiscountAmount > 0 {
		summary = append(summary, amountRow("Subtotal", FormatCurrency(t.Subtotal, cur), document.Style{}, document.Style{}, document.Vertical(8, 0)))
	}
	if t.TaxTotal > 0 {
		summary = append(summary, amountRow("Tax", FormatCurrency(t.TaxTotal, cur), document.Style{}, document.Style{}, document.Margin{}))
	}
	if t.DiscountAmount > 0 {
		summary = append(summary, amountRow("Discount", "-"+FormatCurrency(t.DiscountAmount, cur), document.Style{}, document.Style{}, document.Margin{}))
	}
	summary = append(summary, amountRow("Total Due", FormatCurrency(t.Total, cur),
		document.Style{FontSize: 14, Bold: true},
		document.Style{FontSize: 24, Bold: true},
		document.Vertical(10, 0)))

	white := document.Style{Color: "#ffffff", Bold: true, FontSize: 16}

	return document.Document{
		Content: compact(
			document.Table{
				Widths: []float64{0, 0},
				Rows: [][]document.Cell{{
					{
						Content: document.Stack{Items: []document.Node{
							document.Para(strings.ToUpper(or(from.BusinessName, "Your Business")), "", white),
							document.Para(from.Email, "", document.Style{Color: "#cccccc", FontSize: 10}),
						}},
						Fill: "#000000",
					},
					{
						Content: document.Para(label(inv), "", document.Style{Color: "#ffffff", Bold: true, FontSize: 40, Align: document.AlignRight}),
						Fill:    "#000000",
					},
				}},
				Lines:   document.LinesNone,
				Padding: 20,
				Margin:  document.Margin{-40, -60, -40, 20},
			},
			logo(inv, 80, document.Vertical(0, 10)),
			document.Columns{
				Columns: []document.Column{
					{Width: 200, Content: document.Stack{Items: append([]document.Node{
						document.Para("BILLED TO", "", caption),
						document.Para(or(to.Name, "Client Name"), "", document.Style{FontSize: 14, Bold: true}).WithMargin(document.Vertical(0, 5)),
					}, append(textLines(document.Style{FontSize: 10}, to.Company),
						textLines(document.Style{FontSize: 10, Color: "#555555"}, to.Address)...)...)}},
					{Content: document.Columns{Columns: []document.Column{
						detail(label(inv)+" NO.", number(inv)),
						detail("ISSUED", FormatDate(&inv.IssueDate)),
						detail("DUE DATE", FormatDate(inv.DueDate)),
					}}},
				},
				Margin: document.Vertical(20, 40),
			},
			document.Table{
				Widths:     []float64{0, 40, 80, 80},
				HeaderRows: 1,
				Rows:       rows,
				Lines:      document.LinesHeader,
				LineColor:  "#000000",
				Padding:    8,
			},
			document.Columns{
				Columns: []document.Column{
					{Content: document.Spacer{}},
					{Width: 250, Content: document.Stack{Items: summary}},
				},
				Margin: document.Vertical(20, 0),
			},
			paymentDetails(inv, "PAYMENT DETAILS", "caption", document.Style{FontSize: 10}),
			section("NOTES", "caption", 30, inv.Notes, document.Style{FontSize: 10}),
			section("TERMS", "caption", 20, inv.Terms, document.Style{FontSize: 9, Color: "#555555"}),
		),
		Styles: map[string]document.Style{
			"tableHeader": {FontSize: 10, Bold: true, Color: "#888888"},
			"caption":     caption,
		},
		DefaultStyle: document.Style{Font: document.Sans, FontSize: 11, Color: "#000000"},
	}
}
