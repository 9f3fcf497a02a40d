// Package settings loads and stores application preferences and derives
// invoice defaults from them.
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/invoiceforge/internal/kvstore"
	"github.com/roach88/invoiceforge/internal/model"
)

// ErrInvalid indicates settings that fail validation.
var ErrInvalid = errors.New("invalid settings")

// Store reads and writes the singleton settings row.
type Store struct {
	table  kvstore.Collection[model.AppSettings]
	logger *zap.Logger
}

// NewStore returns a settings store over table.
func NewStore(table kvstore.Collection[model.AppSettings], logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{table: table, logger: logger}
}

// Load returns the stored settings, or the defaults when there is no row or
// it cannot be read.
func (s *Store) Load(ctx context.Context) model.AppSettings {
	got, ok, err := s.table.Get(ctx, model.SettingsKey)
	if err != nil {
		s.logger.Warn("failed to load settings, using defaults", zap.Error(err))
		return model.DefaultSettings()
	}
	if !ok {
		return model.DefaultSettings()
	}
	return got
}

// Save validates and stores settings.
func (s *Store) Save(ctx context.Context, st model.AppSettings) (model.AppSettings, error) {
	if err := Validate(st); err != nil {
		return model.AppSettings{}, err
	}
	st.ID = model.SettingsKey
	saved, err := s.table.Put(ctx, st)
	if err != nil {
		s.logger.Error("failed to save settings", zap.Error(err))
		return model.AppSettings{}, fmt.Errorf("save settings: %w", err)
	}
	return saved, nil
}

// Validate checks every enumerated field and the tax rate range.
func Validate(st model.AppSettings) error {
	if _, err := model.ParseCurrency(st.DefaultCurrency); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := model.ParseTemplate(string(st.DefaultTemplate)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !slices.Contains(model.PaymentTermsList, st.DefaultPaymentTerms) {
		return fmt.Errorf("%w: unknown payment terms %q", ErrInvalid, st.DefaultPaymentTerms)
	}
	if !slices.Contains(model.DateFormats, st.DateFormat) {
		return fmt.Errorf("%w: unknown date format %q", ErrInvalid, st.DateFormat)
	}
	if st.DefaultTaxRate < 0 || st.DefaultTaxRate > 100 {
		return fmt.Errorf("%w: tax rate %v outside 0..100", ErrInvalid, st.DefaultTaxRate)
	}
	if st.InvoiceNumberConfig.PadLength < 0 || st.InvoiceNumberConfig.PadLength > 12 {
		return fmt.Errorf("%w: pad length %d outside 0..12", ErrInvalid, st.InvoiceNumberConfig.PadLength)
	}
	return nil
}

// InvoiceDefaults returns a blank-invoice factory that applies the default
// currency, template, tax rate and payment terms. number, when not nil,
// supplies the invoice number.
func InvoiceDefaults(st model.AppSettings, number func(now time.Time) string) func(now time.Time) model.Invoice {
	return func(now time.Time) model.Invoice {
		inv := model.DefaultInvoice(now)
		if st.DefaultCurrency != "" {
			inv.Currency = st.DefaultCurrency
		}
		if st.DefaultTemplate != "" {
			inv.Template = st.DefaultTemplate
		}
		for i := range inv.LineItems {
			inv.LineItems[i].TaxRate = st.DefaultTaxRate
		}
		if due, ok := DueDate(now, st.DefaultPaymentTerms); ok {
			inv.DueDate = &due
		}
		if number != nil {
			inv.Number = number(now)
		}
		return inv
	}
}
