// Package document defines the declarative layout tree that templates
// produce and renderers consume.
//
// A Document is a list of Nodes. Text holds styled runs, which may nest;
// Stack, Columns and Table arrange other nodes; Rule, Image, List and Spacer
// are leaves. Sizes are in points. Margins follow the [left, top, right,
// bottom] order.
//
// Every node marshals to JSON with a "type" discriminator, so the tree can
// be written out and inspected without a renderer.
package document

import "encoding/json"

// PageSize names a paper size.
type PageSize string

const (
	A4     PageSize = "A4"
	Letter PageSize = "Letter"
)

// Align is horizontal alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Font is a font family. Renderers map families to their built-in faces.
type Font string

const (
	Sans  Font = "sans"
	Serif Font = "serif"
	Mono  Font = "mono"
)

// Margin is [left, top, right, bottom] spacing in points.
type Margin [4]float64

func (m Margin) Left() float64   { return m[0] }
func (m Margin) Top() float64    { return m[1] }
func (m Margin) Right() float64  { return m[2] }
func (m Margin) Bottom() float64 { return m[3] }

// Vertical returns a margin with only top and bottom set.
func Vertical(top, bottom float64) Margin { return Margin{0, top, 0, bottom} }

// Style is a set of text properties. Zero values inherit.
type Style struct {
	Font     Font    `json:"font,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	Italic   bool    `json:"italic,omitempty"`
	Color    string  `json:"color,omitempty"`
	Fill     string  `json:"fill,omitempty"`
	Align    Align   `json:"align,omitempty"`
}

// Merge returns s overlaid with the non-zero fields of o.
func (s Style) Merge(o Style) Style {
	if o.Font != "" {
		s.Font = o.Font
	}
	if o.FontSize != 0 {
		s.FontSize = o.FontSize
	}
	if o.Bold {
		s.Bold = true
	}
	if o.Italic {
		s.Italic = true
	}
	if o.Color != "" {
		s.Color = o.Color
	}
	if o.Fill != "" {
		s.Fill = o.Fill
	}
	if o.Align != "" {
		s.Align = o.Align
	}
	return s
}

// Document is a complete page layout.
type Document struct {
	Title        string           `json:"title,omitempty"`
	PageSize     PageSize         `json:"pageSize"`
	Margins      Margin           `json:"margins"`
	Content      []Node           `json:"content"`
	Styles       map[string]Style `json:"styles,omitempty"`
	DefaultStyle Style            `json:"defaultStyle"`
}

// Resolve returns the effective style for a named style plus inline
// overrides, starting from the document default.
func (d Document) Resolve(name string, inline Style) Style {
	st := d.DefaultStyle
	if name != "" {
		st = st.Merge(d.Styles[name])
	}
	return st.Merge(inline)
}

// Node is an element of the layout tree.
type Node interface {
	NodeType() string
}

// Run is a piece of styled text. A run with nested Runs draws them in order
// with its own style applied underneath theirs.
type Run struct {
	Text     string  `json:"text,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	Italic   bool    `json:"italic,omitempty"`
	Color    string  `json:"color,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Runs     []Run   `json:"runs,omitempty"`
}

// Style returns the text properties carried by the run.
func (r Run) Style() Style {
	return Style{Bold: r.Bold, Italic: r.Italic, Color: r.Color, FontSize: r.FontSize}
}

// Text is a paragraph of runs.
type Text struct {
	Runs      []Run  `json:"runs"`
	StyleName string `json:"style,omitempty"`
	Props     Style  `json:"props,omitempty"`
	Margin    Margin `json:"margin,omitempty"`
}

// Para is a single-run paragraph.
func Para(text string, style string, props Style) Text {
	return Text{Runs: []Run{{Text: text}}, StyleName: style, Props: props}
}

// WithMargin returns t with margin m.
func (t Text) WithMargin(m Margin) Text {
	t.Margin = m
	return t
}

// Stack lays out items top to bottom.
type Stack struct {
	Items  []Node `json:"items"`
	Margin Margin `json:"margin,omitempty"`
}

// Column is one column of a Columns node. Width zero shares the space left
// after fixed columns.
type Column struct {
	Width   float64 `json:"width,omitempty"`
	Content Node    `json:"content"`
}

// Columns lays out columns side by side.
type Columns struct {
	Columns []Column `json:"columns"`
	Gap     float64  `json:"gap,omitempty"`
	Margin  Margin   `json:"margin,omitempty"`
}

// Cell is one table cell. A borderless cell is skipped by grid lines.
type Cell struct {
	Content    Node   `json:"content"`
	Fill       string `json:"fill,omitempty"`
	Borderless bool   `json:"borderless,omitempty"`
}

// Lines selects which table rules are drawn.
type Lines string

const (
	LinesNone   Lines = "none"
	LinesHeader Lines = "header"
	LinesHoriz  Lines = "horizontal"
	LinesGrid   Lines = "grid"
)

// Table is a grid of cells. Widths follow Column.Width rules.
type Table struct {
	Widths     []float64 `json:"widths"`
	HeaderRows int       `json:"headerRows,omitempty"`
	Rows       [][]Cell  `json:"rows"`
	Lines      Lines     `json:"lines,omitempty"`
	LineColor  string    `json:"lineColor,omitempty"`
	Padding    float64   `json:"padding,omitempty"`
	Margin     Margin    `json:"margin,omitempty"`
}

// Rule is a horizontal line. Width zero spans the available width; a
// non-zero Dash draws dashes of that length.
type Rule struct {
	Width     float64 `json:"width,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
	Color     string  `json:"color,omitempty"`
	Dash      float64 `json:"dash,omitempty"`
	Margin    Margin  `json:"margin,omitempty"`
}

// Image is an embedded raster image. Src is a data: URI.
type Image struct {
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Align  Align   `json:"align,omitempty"`
	Margin Margin  `json:"margin,omitempty"`
}

// List is a bulleted or numbered list, one run list per item.
type List struct {
	Ordered bool    `json:"ordered,omitempty"`
	Items   [][]Run `json:"items"`
	Props   Style   `json:"props,omitempty"`
	Margin  Margin  `json:"margin,omitempty"`
}

// Spacer is vertical whitespace.
type Spacer struct {
	Height float64 `json:"height"`
}

func (Text) NodeType() string    { return "text" }
func (Stack) NodeType() string   { return "stack" }
func (Columns) NodeType() string { return "columns" }
func (Table) NodeType() string   { return "table" }
func (Rule) NodeType() string    { return "rule" }
func (Image) NodeType() string   { return "image" }
func (List) NodeType() string    { return "list" }
func (Spacer) NodeType() string  { return "spacer" }

// Each node marshals through a local alias so the "type" field can be
// added without recursing into MarshalJSON.

func (n Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}

func (n Stack) MarshalJSON() ([]byte, error) {
	type alias Stack
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}

func (n Columns) MarshalJSON() ([]byte, error) {
	type alias Columns
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}

func (n Table) MarshalJSON() ([]byte, error) {
	type alias Table
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}

func (n Rule) MarshalJSON() ([]byte, error) {
	type alias Rule
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}

func (n Image) MarshalJSON() ([]byte, error) {
	type alias Image
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}

func (n List) MarshalJSON() ([]byte, error) {
	type alias List
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}

func (n Spacer) MarshalJSON() ([]byte, error) {
	type alias Spacer
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{n.NodeType(), alias(n)})
}
