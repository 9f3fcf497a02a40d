package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/roach88/invoiceforge/internal/document"
)

const (
	defaultFontSize = 10.0
	lineSpacing     = 1.2
	listIndent      = 14.0
	defaultLine     = "#cccccc"
)

var fontFamilies = map[document.Font]string{
	document.Sans:  "Helvetica",
	document.Serif: "Times",
	document.Mono:  "Courier",
}

// PDF paints doc onto pages and writes the file to w.
func PDF(doc document.Document, w io.Writer) error {
	size := string(doc.PageSize)
	if size == "" {
		size = string(document.A4)
	}
	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(doc.Margins.Left(), doc.Margins.Top(), doc.Margins.Right())
	if doc.Title != "" {
		pdf.SetTitle(doc.Title, true)
	}
	pdf.SetCreator("invoiceforge", false)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	p := &painter{
		pdf:    pdf,
		doc:    doc,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		pageH:  pageH,
		images: make(map[string]imageRef),
	}
	left := doc.Margins.Left()
	p.flow(doc.Content, left, pageW-left-doc.Margins.Right(), doc.Margins.Top())

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type imageRef struct {
	name       string
	ratio      float64
	registered bool
}

// painter walks the tree. Every layout method takes the top y of the box and
// returns the y below it; with draw false nothing is painted, which is how
// heights are measured.
type painter struct {
	pdf    *gofpdf.Fpdf
	doc    document.Document
	tr     func(string) string
	pageH  float64
	nested int
	images map[string]imageRef
}

func (p *painter) top() float64   { return p.doc.Margins.Top() }
func (p *painter) limit() float64 { return p.pageH - p.doc.Margins.Bottom() }

func (p *painter) newPage() float64 {
	p.pdf.AddPage()
	return p.top()
}

// flow lays out top-level nodes, starting a new page when a node does not
// fit. Stacks are flattened so their items can break across pages.
func (p *painter) flow(nodes []document.Node, x, w, y float64) float64 {
	for _, n := range nodes {
		if s, ok := n.(document.Stack); ok {
			y = p.flow(s.Items, x+s.Margin.Left(), w-s.Margin.Left()-s.Margin.Right(), y+s.Margin.Top())
			y += s.Margin.Bottom()
			continue
		}
		if _, ok := n.(document.Table); !ok {
			end := p.node(n, x, y, w, p.doc.DefaultStyle, false)
			if end > p.limit() && y > p.top() {
				y = p.newPage()
			}
		}
		y = p.node(n, x, y, w, p.doc.DefaultStyle, true)
	}
	return y
}

func (p *painter) node(n document.Node, x, y, w float64, st document.Style, draw bool) float64 {
	switch v := n.(type) {
	case document.Text:
		return p.text(v, x, y, w, st, draw)
	case document.Stack:
		return p.stack(v, x, y, w, st, draw)
	case document.Columns:
		return p.columns(v, x, y, w, st, draw)
	case document.Table:
		return p.table(v, x, y, w, st, draw)
	case document.Rule:
		return p.rule(v, x, y, w, draw)
	case document.Image:
		return p.image(v, x, y, w, draw)
	case document.List:
		return p.list(v, x, y, w, st, draw)
	case document.Spacer:
		return y + v.Height
	default:
		return y
	}
}

func (p *painter) stack(s document.Stack, x, y, w float64, st document.Style, draw bool) float64 {
	m := s.Margin
	y += m.Top()
	for _, item := range s.Items {
		y = p.node(item, x+m.Left(), y, w-m.Left()-m.Right(), st, draw)
	}
	return y + m.Bottom()
}

// splitWidths resolves fixed widths and shares the rest between zero-width
// entries.
func splitWidths(widths []float64, total, gap float64) []float64 {
	out := make([]float64, len(widths))
	fixed, flex := 0.0, 0
	for _, cw := range widths {
		if cw > 0 {
			fixed += cw
		} else {
			flex++
		}
	}
	remaining := total - fixed - gap*float64(len(widths)-1)
	share := 0.0
	if flex > 0 && remaining > 0 {
		share = remaining / float64(flex)
	}
	for i, cw := range widths {
		if cw > 0 {
			out[i] = cw
		} else {
			out[i] = share
		}
	}
	return out
}

func (p *painter) columns(c document.Columns, x, y, w float64, st document.Style, draw bool) float64 {
	m := c.Margin
	x += m.Left()
	w -= m.Left() + m.Right()
	y += m.Top()

	widths := make([]float64, len(c.Columns))
	for i, col := range c.Columns {
		widths[i] = col.Width
	}
	widths = splitWidths(widths, w, c.Gap)

	p.nested++
	defer func() { p.nested-- }()

	bottom := y
	cx := x
	for i, col := range c.Columns {
		if end := p.node(col.Content, cx, y, widths[i], st, draw); end > bottom {
			bottom = end
		}
		cx += widths[i] + c.Gap
	}
	return bottom + m.Bottom()
}

func (p *painter) table(t document.Table, x, y, w float64, st document.Style, draw bool) float64 {
	m := t.Margin
	x += m.Left()
	w -= m.Left() + m.Right()
	y += m.Top()

	cols := len(t.Widths)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	widths := make([]float64, cols)
	copy(widths, t.Widths)
	widths = splitWidths(widths, w, 0)
	pad := t.Padding

	rowHeight := func(row []document.Cell) float64 {
		h := 0.0
		for i, cell := range row {
			if cell.Content == nil {
				continue
			}
			p.nested++
			end := p.node(cell.Content, 0, 0, widths[i]-2*pad, st, false)
			p.nested--
			if end > h {
				h = end
			}
		}
		return h + 2*pad
	}

	lineColor := t.LineColor
	if lineColor == "" {
		lineColor = defaultLine
	}
	hline := func(y float64) {
		if draw {
			p.setDraw(lineColor, 1)
			p.pdf.Line(x, y, x+w, y)
		}
	}

	drawRow := func(row []document.Cell, y, h float64) {
		cx := x
		for i, cell := range row {
			cw := widths[i]
			if cell.Fill != "" {
				p.setFill(cell.Fill)
				p.pdf.Rect(cx, y, cw, h, "F")
			}
			if t.Lines == document.LinesGrid && !cell.Borderless {
				p.setDraw(lineColor, 1)
				p.pdf.Rect(cx, y, cw, h, "D")
			}
			if cell.Content != nil {
				p.nested++
				p.node(cell.Content, cx+pad, y+pad, cw-2*pad, st, true)
				p.nested--
			}
			cx += cw
		}
	}

	breakable := draw && p.nested == 0
	if t.Lines == document.LinesHeader || t.Lines == document.LinesHoriz {
		hline(y)
	}
	for r, row := range t.Rows {
		h := rowHeight(row)
		if breakable && y+h > p.limit() && y > p.top() {
			y = p.newPage()
			for _, head := range t.Rows[:min(t.HeaderRows, r)] {
				hh := rowHeight(head)
				drawRow(head, y, hh)
				y += hh
			}
		}
		if draw {
			drawRow(row, y, h)
		}
		y += h
		switch {
		case t.Lines == document.LinesHoriz:
			hline(y)
		case t.Lines == document.LinesHeader && (r == t.HeaderRows-1 || r == len(t.Rows)-1):
			hline(y)
		}
	}
	return y + m.Bottom()
}

func (p *painter) rule(r document.Rule, x, y, w float64, draw bool) float64 {
	m := r.Margin
	y += m.Top()
	width := r.Width
	if width <= 0 || width > w-m.Left()-m.Right() {
		width = w - m.Left() - m.Right()
	}
	thickness := r.Thickness
	if thickness <= 0 {
		thickness = 1
	}
	if draw {
		color := r.Color
		if color == "" {
			color = "#000000"
		}
		p.setDraw(color, thickness)
		if r.Dash > 0 {
			p.pdf.SetDashPattern([]float64{r.Dash, r.Dash}, 0)
		}
		lx := x + m.Left()
		p.pdf.Line(lx, y+thickness/2, lx+width, y+thickness/2)
		if r.Dash > 0 {
			p.pdf.SetDashPattern([]float64{}, 0)
		}
	}
	return y + thickness + m.Bottom()
}

func (p *painter) image(img document.Image, x, y, w float64, draw bool) float64 {
	m := img.Margin
	y += m.Top()
	ref, ok := p.registerImage(img.Src)
	if !ok {
		return y + m.Bottom()
	}
	width := img.Width
	if width <= 0 || width > w {
		width = w
	}
	height := width * ref.ratio
	if draw {
		ix := x + m.Left()
		switch img.Align {
		case document.AlignCenter:
			ix = x + (w-width)/2
		case document.AlignRight:
			ix = x + w - width - m.Right()
		}
		p.pdf.ImageOptions(ref.name, ix, y, width, height, false, gofpdf.ImageOptions{}, 0, "")
	}
	return y + height + m.Bottom()
}

// registerImage decodes a data: URI once and registers it with the PDF.
// Sources that are not base64 PNG or JPEG data URIs are skipped.
func (p *painter) registerImage(src string) (imageRef, bool) {
	if ref, ok := p.images[src]; ok {
		return ref, ref.registered
	}
	ref := imageRef{name: fmt.Sprintf("img%d", len(p.images))}
	p.images[src] = ref

	mime, data, ok := parseDataURI(src)
	if !ok {
		return ref, false
	}
	var kind string
	switch mime {
	case "image/png":
		kind = "PNG"
	case "image/jpeg", "image/jpg":
		kind = "JPG"
	default:
		return ref, false
	}

	info := p.pdf.RegisterImageOptionsReader(ref.name, gofpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
	if info == nil || info.Width() == 0 {
		return ref, false
	}
	ref.ratio = info.Height() / info.Width()
	ref.registered = true
	p.images[src] = ref
	return ref, true
}

func parseDataURI(src string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mime, data, true
}

func (p *painter) list(l document.List, x, y, w float64, st document.Style, draw bool) float64 {
	m := l.Margin
	x += m.Left()
	w -= m.Left() + m.Right()
	y += m.Top()
	st = st.Merge(l.Props)

	for i, item := range l.Items {
		marker := "•"
		if l.Ordered {
			marker = strconv.Itoa(i+1) + "."
		}
		if draw {
			p.paintLines(p.breakLines([]segment{{text: marker, style: st}}, listIndent), x, y, listIndent, st)
		}
		y = p.runs(item, x+listIndent, y, w-listIndent, st, draw)
	}
	return y + m.Bottom()
}

func (p *painter) text(t document.Text, x, y, w float64, st document.Style, draw bool) float64 {
	m := t.Margin
	x += m.Left()
	w -= m.Left() + m.Right()
	y += m.Top()
	if t.StyleName != "" {
		st = st.Merge(p.doc.Styles[t.StyleName])
	}
	st = st.Merge(t.Props)
	return p.runs(t.Runs, x, y, w, st, draw) + m.Bottom()
}

// segment is a run flattened to a single style.
type segment struct {
	text  string
	style document.Style
}

func flatten(runs []document.Run, st document.Style, out []segment) []segment {
	for _, r := range runs {
		rs := st.Merge(r.Style())
		if r.Text != "" {
			out = append(out, segment{text: r.Text, style: rs})
		}
		out = flatten(r.Runs, rs, out)
	}
	return out
}

func (p *painter) runs(runs []document.Run, x, y, w float64, st document.Style, draw bool) float64 {
	lines := p.breakLines(flatten(runs, st, nil), w)
	h := 0.0
	for _, l := range lines {
		h += l.height
	}
	if draw {
		if st.Fill != "" {
			p.setFill(st.Fill)
			p.pdf.Rect(x, y, w, h, "F")
		}
		p.paintLines(lines, x, y, w, st)
	}
	return y + h
}

type piece struct {
	text  string
	style document.Style
	width float64
}

type line struct {
	pieces []piece
	width  float64
	height float64
	size   float64
}

func fontSize(st document.Style) float64 {
	if st.FontSize > 0 {
		return st.FontSize
	}
	return defaultFontSize
}

// breakLines wraps segments to width w at spaces and hard newlines.
func (p *painter) breakLines(segs []segment, w float64) []line {
	var (
		lines []line
		cur   line
	)
	push := func() {
		for len(cur.pieces) > 0 && strings.TrimSpace(cur.pieces[len(cur.pieces)-1].text) == "" {
			cur.width -= cur.pieces[len(cur.pieces)-1].width
			cur.pieces = cur.pieces[:len(cur.pieces)-1]
		}
		if cur.size == 0 {
			cur.size = defaultFontSize
		}
		cur.height = cur.size * lineSpacing
		lines = append(lines, cur)
		cur = line{}
	}

	for _, seg := range segs {
		p.setFont(seg.style)
		size := fontSize(seg.style)
		for i, para := range strings.Split(seg.text, "\n") {
			if i > 0 {
				push()
			}
			for _, tok := range tokens(p.tr(para)) {
				tw := p.pdf.GetStringWidth(tok)
				blank := strings.TrimSpace(tok) == ""
				if blank && len(cur.pieces) == 0 {
					continue
				}
				if !blank && len(cur.pieces) > 0 && cur.width+tw > w {
					push()
				}
				cur.pieces = append(cur.pieces, piece{text: tok, style: seg.style, width: tw})
				cur.width += tw
				if size > cur.size {
					cur.size = size
				}
			}
		}
	}
	if len(cur.pieces) > 0 {
		push()
	}
	return lines
}

// tokens splits s into alternating runs of spaces and non-spaces.
func tokens(s string) []string {
	var out []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || (s[i] == ' ') != (s[start] == ' ') {
			out = append(out, s[start:i])
			start = i
		}
	}
	return out
}

func (p *painter) paintLines(lines []line, x, y, w float64, st document.Style) {
	for _, l := range lines {
		lx := x
		switch st.Align {
		case document.AlignCenter:
			lx = x + (w-l.width)/2
		case document.AlignRight:
			lx = x + w - l.width
		}
		baseline := y + (l.height-l.size)/2 + l.size*0.8
		for _, pc := range l.pieces {
			p.setFont(pc.style)
			p.setText(pc.style.Color)
			p.pdf.Text(lx, baseline, pc.text)
			lx += pc.width
		}
		y += l.height
	}
}

func (p *painter) setFont(st document.Style) {
	family, ok := fontFamilies[st.Font]
	if !ok {
		family = fontFamilies[document.Sans]
	}
	style := ""
	if st.Bold {
		style += "B"
	}
	if st.Italic {
		style += "I"
	}
	p.pdf.SetFont(family, style, fontSize(st))
}

func (p *painter) setText(color string) {
	r, g, b := parseColor(color)
	p.pdf.SetTextColor(r, g, b)
}

func (p *painter) setFill(color string) {
	r, g, b := parseColor(color)
	p.pdf.SetFillColor(r, g, b)
}

func (p *painter) setDraw(color string, width float64) {
	r, g, b := parseColor(color)
	p.pdf.SetDrawColor(r, g, b)
	p.pdf.SetLineWidth(width)
}

// parseColor reads #rgb or #rrggbb. Anything else is black.
func parseColor(s string) (int, int, int) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
