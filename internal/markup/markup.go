// Package markup parses the lightweight markup allowed in invoice notes and
// terms into a rich-text tree.
//
// Supported syntax:
//   - Bold: **text** or __text__
//   - Italic: *text* or _text_
//   - Bulleted list items: lines starting with "- " or "* "
//   - Numbered list items: lines starting with "1. ", "2. ", ...
//   - Paragraphs: any other non-blank line
//
// Parsing never fails. Markers without a closing partner, and markers that
// would enclose nothing, are literal text.
package markup

import (
	"regexp"
	"strings"
)

// Style is the inline style of a Span.
type Style string

const (
	Plain  Style = "plain"
	Bold   Style = "bold"
	Italic Style = "italic"
)

// Span is a run of rich text. Plain spans carry Text; styled spans carry
// Children.
type Span struct {
	Style    Style  `json:"style"`
	Text     string `json:"text,omitempty"`
	Children []Span `json:"children,omitempty"`
}

// Kind is the kind of a Block.
type Kind string

const (
	Paragraph Kind = "paragraph"
	Bullets   Kind = "bullets"
	Numbered  Kind = "numbered"
)

// Block is a paragraph (Spans) or a list (Items, one span list per item).
type Block struct {
	Kind  Kind     `json:"kind"`
	Spans []Span   `json:"spans,omitempty"`
	Items [][]Span `json:"items,omitempty"`
}

var (
	lineSplit = regexp.MustCompile(`\r?\n`)
	listItem  = regexp.MustCompile(`^\s*(-|\*|\d+\.)\s+(.*)$`)
)

// Parse converts text into blocks.
func Parse(text string) []Block {
	if text == "" {
		return nil
	}

	var (
		blocks []Block
		list   *Block
	)
	closeList := func() {
		if list != nil {
			blocks = append(blocks, *list)
			list = nil
		}
	}

	for _, line := range lineSplit.Split(text, -1) {
		if m := listItem.FindStringSubmatch(line); m != nil {
			kind := Bullets
			if strings.HasSuffix(m[1], ".") {
				kind = Numbered
			}
			if list != nil && list.Kind != kind {
				closeList()
			}
			if list == nil {
				list = &Block{Kind: kind}
			}
			list.Items = append(list.Items, ParseInline(m[2]))
			continue
		}

		closeList()
		if strings.TrimSpace(line) != "" {
			blocks = append(blocks, Block{Kind: Paragraph, Spans: ParseInline(line)})
		}
	}
	closeList()

	return blocks
}

// ParseInline parses bold and italic spans in a single line.
func ParseInline(text string) []Span {
	p := inlineParser{}
	p.parse(text)
	return p.finish()
}

type inlineParser struct {
	spans []Span
	plain strings.Builder
}

func (p *inlineParser) parse(text string) {
	i := 0
	for i < len(text) {
		// Bold first, so "**" is never read as two italic markers.
		if strings.HasPrefix(text[i:], "**") || strings.HasPrefix(text[i:], "__") {
			marker := text[i : i+2]
			// end > 0: a pair enclosing nothing is literal, never an empty span.
			if end := strings.Index(text[i+2:], marker); end > 0 {
				p.styled(Bold, text[i+2:i+2+end])
				i += 2 + end + 2
				continue
			}
		}

		if c := text[i]; c == '*' || c == '_' {
			// Same rule as bold: "**" read as italic would enclose nothing.
			if end := strings.IndexByte(text[i+1:], c); end > 0 {
				p.styled(Italic, text[i+1:i+1+end])
				i += 1 + end + 1
				continue
			}
			// Unmatched marker.
			p.plain.WriteByte(c)
			i++
			continue
		}

		next := strings.IndexAny(text[i:], "*_")
		if next < 0 {
			p.plain.WriteString(text[i:])
			break
		}
		p.plain.WriteString(text[i : i+next])
		i += next
	}
}

func (p *inlineParser) styled(style Style, inner string) {
	p.flush()
	p.spans = append(p.spans, Span{Style: style, Children: ParseInline(inner)})
}

func (p *inlineParser) flush() {
	if p.plain.Len() > 0 {
		p.spans = append(p.spans, Span{Style: Plain, Text: p.plain.String()})
		p.plain.Reset()
	}
}

func (p *inlineParser) finish() []Span {
	p.flush()
	return p.spans
}

// Text flattens spans to their plain text.
func Text(spans []Span) string {
	var b strings.Builder
	writeText(&b, spans)
	return b.String()
}

func writeText(b *strings.Builder, spans []Span) {
	for _, s := range spans {
		if s.Style == Plain {
			b.WriteString(s.Text)
			continue
		}
		writeText(b, s.Children)
	}
}
