package template

import (
	"github.com/roach88/invoiceforge/internal/document"
	"github.com/roach88/invoiceforge/internal/markup"
)

// RichText converts marked-up text into document nodes: paragraphs become
// Text nodes and lists become List nodes. props applies to every node.
func RichText(text string, props document.Style) []document.Node {
	var nodes []document.Node
	for _, block := range markup.Parse(text) {
		switch block.Kind {
		case markup.Paragraph:
			nodes = append(nodes, document.Text{Runs: runs(block.Spans), Props: props})
		case markup.Bullets, markup.Numbered:
			items := make([][]document.Run, len(block.Items))
			for i, item := range block.Items {
				items[i] = runs(item)
			}
			nodes = append(nodes, document.List{
				Ordered: block.Kind == markup.Numbered,
				Items:   items,
				Props:   props,
			})
		}
	}
	return nodes
}

func runs(spans []markup.Span) []document.Run {
	out := make([]document.Run, 0, len(spans))
	for _, s := range spans {
		switch s.Style {
		case markup.Bold:
			out = append(out, document.Run{Bold: true, Runs: runs(s.Children)})
		case markup.Italic:
			out = append(out, document.Run{Italic: true, Runs: runs(s.Children)})
		default:
			out = append(out, document.Run{Text: s.Text})
		}
	}
	return out
}
