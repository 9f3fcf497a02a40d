package template

import (
	"github.com/roach88/invoiceforge/internal/document"
	"github.com/roach88/invoiceforge/internal/totals"
)

var classic = Definition{
	ID:          "classic",
	Name:        "Classic",
	Description: "Traditional formal design with boxed layout.",
	Generate:    generateClassic,
}

func generateClassic(ctx Context) document.Document {
	inv, t := ctx.Invoice, ctx.Totals
	cur := inv.Currency
	from, to := sender(inv), client(inv)
	small := document.Style{FontSize: 9}

	rows := [][]document.Cell{{
		headerCell("DESCRIPTION", "tableHeader", document.AlignCenter),
		headerCell("QTY", "tableHeader", document.AlignCenter),
		headerCell("RATE", "tableHeader", document.AlignCenter),
		headerCell("AMOUNT", "tableHeader", document.AlignCenter),
	}}
	for _, item := range inv.LineItems {
		rows = append(rows, []document.Cell{
			bodyCell(lineItemDescription(item), document.Style{}),
			bodyCell(FormatQuantity(item.Quantity), document.Style{Align: document.AlignCenter}),
			bodyCell(FormatCurrency(item.Rate, cur), document.Style{Align: document.AlignRight}),
			bodyCell(FormatCurrency(totals.LineAmount(item), cur), document.Style{Align: document.AlignRight}),
		})
	}

	totalRow := func(label, value, labelStyle, valueStyle string) []document.Cell {
		return []document.Cell{
			{Content: document.Spacer{}, Borderless: true},
			{Content: document.Spacer{}, Borderless: true},
			{Content: document.Para(label, labelStyle, document.Style{})},
			{Content: document.Para(value, valueStyle, document.Style{})},
		}
	}
	rows = append(rows, totalRow("SUBTOTAL", FormatCurrency(t.Subtotal, cur), "totalLabel", "totalValue"))
	if t.TaxTotal > 0 {
		rows = append(rows, totalRow("TAX", FormatCurrency(t.TaxTotal, cur), "totalLabel", "totalValue"))
	}
	if t.DiscountAmount > 0 {
		rows = append(rows, totalRow("DISCOUNT", "-"+FormatCurrency(t.DiscountAmount, cur), "totalLabel", "totalValue"))
	}
	rows = append(rows, totalRow("TOTAL DUE", FormatCurrency(t.Total, cur), "totalLabelBold", "totalValueBold"))

	party := func(heading, name string, lines []document.Node) document.Cell {
		items := append([]document.Node{
			document.Para(heading, "sectionLabel", document.Style{}),
			document.Para(name, "companyName", document.Style{}),
		}, lines...)
		return document.Cell{Content: document.Stack{Items: items}}
	}
	fromLines := append(textLines(document.Style{}, from.Address, from.Email, from.Phone),
		textLines(small, labelled("Tax ID", from.TaxID))...)
	toLines := append(textLines(document.Style{}, to.Company, to.Address, to.Email),
		textLines(small, labelled("Tax ID", to.TaxID))...)

	centered := document.Style{Align: document.AlignCenter}

	return document.Document{
		Content: compact(
			logo(inv, 80, document.Vertical(0, 10)),
			document.Para(label(inv), "", document.Style{FontSize: 28, Bold: true, Align: document.AlignCenter}).
				WithMargin(document.Vertical(0, 10)),
			document.Para(number(inv), "", document.Style{FontSize: 12, Align: document.AlignCenter}).
				WithMargin(document.Vertical(0, 30)),
			document.Table{
				Widths: []float64{0, 0},
				Rows: [][]document.Cell{{
					party("FROM:", or(from.BusinessName, "Your Business"), fromLines),
					party("TO:", or(to.Name, "Client Name"), toLines),
				}},
				Lines:     document.LinesGrid,
				LineColor: "#000000",
				Padding:   10,
				Margin:    document.Vertical(0, 20),
			},
			document.Table{
				Widths: []float64{0, 0, 0},
				Rows: [][]document.Cell{{
					bodyCell("Issue Date: "+FormatDate(&inv.IssueDate), centered),
					bodyCell("Due Date: "+FormatDate(inv.DueDate), centered),
					bodyCell("Amount Due: "+FormatCurrency(t.Total, cur), document.Style{Align: document.AlignCenter, Bold: true}),
				}},
				Lines:   document.LinesHoriz,
				Padding: 5,
				Margin:  document.Vertical(0, 20),
			},
			document.Table{
				Widths:     []float64{0, 50, 80, 80},
				HeaderRows: 1,
				Rows:       rows,
				Lines:      document.LinesGrid,
				LineColor:  "#000000",
				Padding:    8,
			},
			paymentDetails(inv, "PAYMENT:", "sectionLabel", document.Style{}),
			inlineSection("Notes: ", inv.Notes, document.Style{Italic: true}, document.Vertical(30, 5)),
			inlineSection("Terms: ", inv.Terms, document.Style{Italic: true, FontSize: 9}, document.Vertical(0, 0)),
		),
		Styles: map[string]document.Style{
			"sectionLabel":   {FontSize: 10, Bold: true},
			"companyName":    {FontSize: 11, Bold: true},
			"tableHeader":    {Bold: true, FontSize: 10, Color: "#000000", Fill: "#eeeeee", Align: document.AlignCenter},
			"totalLabel":     {Bold: true, Align: document.AlignRight},
			"totalValue":     {Align: document.AlignRight},
			"totalLabelBold": {Bold: true, Align: document.AlignRight, FontSize: 11},
			"totalValueBold": {Bold: true, Align: document.AlignRight, FontSize: 11},
		},
		DefaultStyle: document.Style{Font: document.Serif, FontSize: 10},
	}
}

// inlineSection prefixes the first paragraph of text with a plain label and
// styles the text with props. It returns nil when text is empty.
func inlineSection(prefix, text string, props document.Style, m document.Margin) document.Node {
	nodes := RichText(text, document.Style{FontSize: props.FontSize})
	if len(nodes) == 0 {
		return nil
	}
	wrap := func(rs []document.Run) []document.Run {
		return []document.Run{{Bold: props.Bold, Italic: props.Italic, Color: props.Color, Runs: rs}}
	}

	out := make([]document.Node, 0, len(nodes)+1)
	for i, n := range nodes {
		switch v := n.(type) {
		case document.Text:
			v.Runs = wrap(v.Runs)
			if i == 0 {
				v.Runs = append([]document.Run{{Text: prefix}}, v.Runs...)
			}
			out = append(out, v)
		case document.List:
			if i == 0 {
				out = append(out, document.Para(prefix, "", document.Style{FontSize: props.FontSize}))
			}
			items := make([][]document.Run, len(v.Items))
			for j, item := range v.Items {
				items[j] = wrap(item)
			}
			v.Items = items
			out = append(out, v)
		}
	}
	return document.Stack{Items: out, Margin: m}
}
