// Package render writes document trees as PDF or JSON and drives the full
// invoice export: logo resolution, template generation and rendering.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/invoiceforge/internal/document"
	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/template"
	"github.com/roach88/invoiceforge/internal/totals"
)

// Format is an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPDF, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want pdf or json)", s)
}

// Extension is the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// JSON writes the document tree as indented JSON.
func JSON(doc document.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}

// Exporter renders invoices.
type Exporter struct {
	logos  *LogoResolver
	logger *zap.Logger
}

// NewExporter returns an exporter that resolves logos with logos. A nil
// resolver uses the defaults.
func NewExporter(logos *LogoResolver, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if logos == nil {
		logos = NewLogoResolver(0, logger)
	}
	return &Exporter{logos: logos, logger: logger}
}

// Document resolves the sender logo and builds the document for inv. A logo
// that cannot be resolved is left out.
func (e *Exporter) Document(ctx context.Context, inv model.Invoice, t totals.Totals) document.Document {
	inv = inv.Clone()
	if inv.SenderData != nil && inv.SenderData.Logo != nil {
		if uri := e.logos.Resolve(ctx, inv.SenderData.Logo); uri != "" {
			inv.SenderData.Logo = &model.LogoRef{Source: uri}
		} else {
			inv.SenderData.Logo = nil
		}
	}
	return template.Generate(inv, t)
}

// Export writes inv in the given format. Render failures are returned.
func (e *Exporter) Export(ctx context.Context, inv model.Invoice, t totals.Totals, format Format, w io.Writer) error {
	doc := e.Document(ctx, inv, t)

	var err error
	switch format {
	case FormatPDF:
		err = PDF(doc, w)
	case FormatJSON:
		err = JSON(doc, w)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		e.logger.Error("export failed", zap.String("format", string(format)), zap.String("number", inv.Number), zap.Error(err))
		return err
	}
	e.logger.Debug("exported invoice", zap.String("format", string(format)), zap.String("number", inv.Number))
	return nil
}

// Export renders inv with a default exporter.
func Export(ctx context.Context, inv model.Invoice, t totals.Totals, format Format, w io.Writer) error {
	return NewExporter(nil, nil).Export(ctx, inv, t, format, w)
}

// FileName suggests a download name such as "Invoice_INV-001.pdf".
func FileName(inv model.Invoice, format Format) string {
	title := strings.ReplaceAll(template.Title(inv), " ", "_")
	title = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '-'
		}
		return r
	}, title)
	return title + format.Extension()
}
