package template

import (
	"fmt"

	"github.com/roach88/invoiceforge/internal/document"
	"github.com/roach88/invoiceforge/internal/totals"
)

const (
	techKeyword = "#cc99cd"
	techIdent   = "#f8c555"
	techPunct   = "#e0e0e0"
	techString  = "#7ec699"
	techPanel   = "#2d2d2d"
	techComment = "#666666"
)

var tech = Definition{
	ID:          "tech",
	Name:        "Tech",
	Description: "Developer-focused monospace design.",
	Generate:    generateTech,
}

func generateTech(ctx Context) document.Document {
	inv, t := ctx.Invoice, ctx.Totals
	cur := inv.Currency
	from, to := sender(inv), client(inv)

	rows := [][]document.Cell{{
		headerCell("// ITEM", "tableHeader", document.AlignLeft),
		headerCell("// QTY", "tableHeader", document.AlignCenter),
		headerCell("// RATE", "tableHeader", document.AlignRight),
		headerCell("// AMT", "tableHeader", document.AlignRight),
	}}
	for i, item := range inv.LineItems {
		rows = append(rows, []document.Cell{
			bodyCell(fmt.Sprintf("%d. %s", i+1, lineItemDescription(item)), document.Style{}),
			bodyCell(FormatQuantity(item.Quantity), document.Style{Align: document.AlignCenter}),
			bodyCell(FormatCurrency(item.Rate, cur), document.Style{Align: document.AlignRight}),
			bodyCell(FormatCurrency(totals.LineAmount(item), cur), document.Style{Align: document.AlignRight}),
		})
	}

	summary := []document.Node{
		techAmount("subtotal:", FormatCurrency(t.Subtotal, cur), false),
	}
	if t.TaxTotal > 0 {
		summary = append(summary, techAmount("tax:", FormatCurrency(t.TaxTotal, cur), false))
	}
	if t.DiscountAmount > 0 {
		summary = append(summary, techAmount("discount:", "-"+FormatCurrency(t.DiscountAmount, cur), false))
	}
	summary = append(summary,
		document.Para("----------------", "", document.Style{Align: document.AlignRight}).WithMargin(document.Vertical(2, 2)),
		techAmount("total:", FormatCurrency(t.Total, cur), true),
	)

	comment := document.Style{Color: techComment, Italic: true}

	return document.Document{
		Content: compact(
			document.Table{
				Widths: []float64{0},
				Rows: [][]document.Cell{{{
					Content: document.Para(fmt.Sprintf("%s<%s>", titleCase(label(inv)), number(inv)), "", document.Style{Color: "#ffffff"}),
					Fill:    techPanel,
				}}},
				Lines:   document.LinesNone,
				Padding: 10,
				Margin:  document.Vertical(0, 20),
			},
			logo(inv, 64, document.Vertical(0, 10)),
			document.Columns{
				Columns: []document.Column{
					{Content: codeBlock("sender", [][2]string{{"name", from.BusinessName}, {"email", from.Email}})},
					{Content: codeBlock("client", [][2]string{{"name", to.Name}, {"company", to.Company}})},
				},
				Margin: document.Vertical(0, 20),
			},
			document.Rule{Thickness: 1, Dash: 5, Margin: document.Vertical(0, 20)},
			document.Table{
				Widths:     []float64{0, 50, 80, 80},
				HeaderRows: 1,
				Rows:       rows,
				Lines:      document.LinesHeader,
				Padding:    5,
			},
			document.Para("/* Payment Summary */", "", comment).WithMargin(document.Vertical(20, 5)),
			document.Columns{Columns: []document.Column{
				{Content: document.Spacer{}},
				{Width: 200, Content: document.Stack{Items: summary}},
			}},
			paymentDetails(inv, "/* Payment Details */", "comment", document.Style{}),
			section("/* Notes */", "comment", 20, inv.Notes, document.Style{}),
			section("/* Terms */", "comment", 10, inv.Terms, document.Style{FontSize: 9}),
		),
		Styles: map[string]document.Style{
			"tableHeader": {Bold: true, FontSize: 10, Color: techComment},
			"comment":     comment,
		},
		DefaultStyle: document.Style{Font: document.Mono, FontSize: 10, Color: "#333333"},
	}
}

// codeBlock renders fields as a syntax-highlighted object literal.
func codeBlock(name string, fields [][2]string) document.Node {
	lines := []document.Node{
		document.Text{Runs: []document.Run{
			{Text: "const ", Color: techKeyword},
			{Text: name + " ", Color: techIdent},
			{Text: "= {", Color: techPunct},
		}},
	}
	for _, f := range fields {
		lines = append(lines, document.Text{Runs: []document.Run{
			{Text: fmt.Sprintf("  %s: %q,", f[0], f[1]), Color: techString},
		}})
	}
	lines = append(lines, document.Text{Runs: []document.Run{{Text: "};", Color: techPunct}}})
	return document.Stack{Items: lines}
}

func techAmount(label, value string, strong bool) document.Node {
	return document.Columns{Columns: []document.Column{
		{Width: 80, Content: document.Para(label, "", document.Style{Align: document.AlignRight, Bold: strong})},
		{Content: document.Para(value, "", document.Style{Align: document.AlignRight, Bold: strong})},
	}}
}
