package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/invoiceforge/internal/model"
)

func newSettingsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change preferences",
	}
	cmd.AddCommand(newSettingsShowCommand(opts))
	cmd.AddCommand(newSettingsSetCommand(opts))
	return cmd
}

func newSettingsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				return s.out.Success(settingsView(s.Preferences()))
			})
		},
	}
}

func newSettingsSetCommand(opts *RootOptions) *cobra.Command {
	var (
		next                    model.AppSettings
		tmpl, terms, dateFormat string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change preferences",
		Long: `Change preferences. Only the flags given are changed. New settings apply
to drafts started afterwards; the current draft is not changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				st := s.Preferences()
				changed := cmd.Flags().Changed
				n := &st.InvoiceNumberConfig
				if changed("currency") {
					st.DefaultCurrency = next.DefaultCurrency
					if cur, err := model.ParseCurrency(st.DefaultCurrency); err == nil {
						st.DefaultCurrency = cur
					}
				}
				if changed("template") {
					st.DefaultTemplate = model.TemplateName(tmpl)
				}
				if changed("payment-terms") {
					st.DefaultPaymentTerms = model.PaymentTerms(terms)
				}
				if changed("date-format") {
					st.DateFormat = model.DateFormat(dateFormat)
				}
				if changed("tax-rate") {
					st.DefaultTaxRate = next.DefaultTaxRate
				}
				if changed("theme") {
					st.Theme = next.Theme
				}
				if changed("number-prefix") {
					n.Prefix = next.InvoiceNumberConfig.Prefix
				}
				if changed("number-separator") {
					n.Separator = next.InvoiceNumberConfig.Separator
				}
				if changed("number-pad") {
					n.PadLength = next.InvoiceNumberConfig.PadLength
				}
				if changed("number-year") {
					n.IncludeYear = next.InvoiceNumberConfig.IncludeYear
				}
				if changed("number-month") {
					n.IncludeMonth = next.InvoiceNumberConfig.IncludeMonth
				}

				saved, err := s.SavePreferences(ctx, st)
				if err != nil {
					return err
				}
				return s.out.Success(settingsView(saved))
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&next.DefaultCurrency, "currency", "", "default currency")
	fl.StringVar(&tmpl, "template", "", "default template")
	fl.StringVar(&terms, "payment-terms", "", "default payment terms (due_on_receipt|net_7|net_15|net_30|net_45|net_60|custom)")
	fl.StringVar(&dateFormat, "date-format", "", `date format (e.g. "YYYY-MM-DD", "MMM DD, YYYY")`)
	fl.Float64Var(&next.DefaultTaxRate, "tax-rate", 0, "default tax rate in percent")
	fl.StringVar(&next.Theme, "theme", "", "theme")
	fl.StringVar(&next.InvoiceNumberConfig.Prefix, "number-prefix", "", "invoice number prefix")
	fl.StringVar(&next.InvoiceNumberConfig.Separator, "number-separator", "", "invoice number separator")
	fl.IntVar(&next.InvoiceNumberConfig.PadLength, "number-pad", 0, "zero-pad the sequence to this many digits")
	fl.BoolVar(&next.InvoiceNumberConfig.IncludeYear, "number-year", false, "include the year in invoice numbers")
	fl.BoolVar(&next.InvoiceNumberConfig.IncludeMonth, "number-month", false, "include the month in invoice numbers")
	return cmd
}
