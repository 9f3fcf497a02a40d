package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/invoiceforge/internal/model"
)

func newDraftCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show and edit the current draft",
	}
	cmd.AddCommand(newDraftShowCommand(opts))
	cmd.AddCommand(newDraftSetCommand(opts))
	cmd.AddCommand(newDraftSaveCommand(opts))
	cmd.AddCommand(newDraftClearCommand(opts))
	cmd.AddCommand(newDraftNumberCommand(opts))
	return cmd
}

func newDraftShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current draft with its totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				return s.showDraft()
			})
		},
	}
}

func (s *session) showDraft() error {
	return s.out.Success(newInvoiceView(s.Drafts.Invoice(), s.Drafts.Status().LastSaved, s.Preferences()))
}

// saveAndShow writes the draft now and prints it.
func (s *session) saveAndShow(ctx context.Context) error {
	if err := s.Drafts.SaveDraft(ctx); err != nil {
		return err
	}
	return s.showDraft()
}

// draftFlags are the invoice fields settable from the command line.
type draftFlags struct {
	number, docType, status, currency, tmpl     string
	issueDate, dueDate, paidDate                string
	paymentMethod, transactionRef, notes, terms string
	discountType                                string
	discount                                    float64
	client                                      int64
	sender                                      bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.number, "number", "", "invoice number")
	fl.StringVar(&f.docType, "type", "", "document type (invoice|receipt)")
	fl.StringVar(&f.status, "status", "", "status (draft|sent|paid|overdue|cancelled)")
	fl.StringVar(&f.currency, "currency", "", "ISO 4217 currency code")
	fl.StringVar(&f.tmpl, "template", "", "template (modern|classic|tech|bold)")
	fl.StringVar(&f.issueDate, "issue-date", "", "issue date (YYYY-MM-DD)")
	fl.StringVar(&f.dueDate, "due-date", "", `due date (YYYY-MM-DD, or "none")`)
	fl.StringVar(&f.paidDate, "paid-date", "", `paid date for receipts (YYYY-MM-DD, or "none")`)
	fl.StringVar(&f.paymentMethod, "payment-method", "", "payment method for receipts")
	fl.StringVar(&f.transactionRef, "transaction-ref", "", "payment reference for receipts")
	fl.StringVar(&f.notes, "notes", "", "notes (supports **bold**, *italic* and lists)")
	fl.StringVar(&f.terms, "terms", "", "payment terms text")
	fl.StringVar(&f.discountType, "discount-type", "", "discount type (percentage|fixed)")
	fl.Float64Var(&f.discount, "discount", 0, "discount value")
	fl.Int64Var(&f.client, "client", 0, "copy the client with this id into the draft")
	fl.BoolVar(&f.sender, "sender", false, "copy the sender profile into the draft")
}

// edit parses every changed flag and returns the edit to apply. Nothing is
// applied when any flag is invalid.
func (f *draftFlags) edit(cmd *cobra.Command) (func(inv *model.Invoice), error) {
	changed := cmd.Flags().Changed
	var edits []func(inv *model.Invoice)
	add := func(e func(inv *model.Invoice)) { edits = append(edits, e) }

	if changed("number") {
		add(func(inv *model.Invoice) { inv.Number = f.number })
	}
	if changed("type") {
		t, err := model.ParseDocumentType(f.docType)
		if err != nil {
			return nil, usagef("--type: %v", err)
		}
		add(func(inv *model.Invoice) { inv.Type = t })
	}
	if changed("status") {
		st, err := model.ParseStatus(f.status)
		if err != nil {
			return nil, usagef("--status: %v", err)
		}
		add(func(inv *model.Invoice) { inv.Status = st })
	}
	if changed("currency") {
		cur, err := model.ParseCurrency(f.currency)
		if err != nil {
			return nil, usagef("--currency: %v", err)
		}
		add(func(inv *model.Invoice) { inv.Currency = cur })
	}
	if changed("template") {
		t, err := model.ParseTemplate(f.tmpl)
		if err != nil {
			return nil, usagef("--template: %v", err)
		}
		add(func(inv *model.Invoice) { inv.Template = t })
	}
	if changed("issue-date") {
		d, err := parseDate("issue-date", f.issueDate)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, usagef("--issue-date: an issue date is required")
		}
		add(func(inv *model.Invoice) { inv.IssueDate = *d })
	}
	if changed("due-date") {
		d, err := parseDate("due-date", f.dueDate)
		if err != nil {
			return nil, err
		}
		add(func(inv *model.Invoice) { inv.DueDate = d })
	}
	if changed("paid-date") {
		d, err := parseDate("paid-date", f.paidDate)
		if err != nil {
			return nil, err
		}
		add(func(inv *model.Invoice) { inv.PaidDate = d })
	}
	if changed("payment-method") {
		m, err := model.ParsePaymentMethod(f.paymentMethod)
		if err != nil {
			return nil, usagef("--payment-method: %v", err)
		}
		add(func(inv *model.Invoice) { inv.PaymentMethod = m })
	}
	if changed("transaction-ref") {
		add(func(inv *model.Invoice) { inv.TransactionRef = f.transactionRef })
	}
	if changed("notes") {
		add(func(inv *model.Invoice) { inv.Notes = f.notes })
	}
	if changed("terms") {
		add(func(inv *model.Invoice) { inv.Terms = f.terms })
	}
	if changed("discount-type") {
		t, err := model.ParseDiscountType(f.discountType)
		if err != nil {
			return nil, usagef("--discount-type: %v", err)
		}
		add(func(inv *model.Invoice) { inv.Discount.Type = t })
	}
	if changed("discount") {
		if f.discount < 0 {
			return nil, usagef("--discount: must not be negative")
		}
		add(func(inv *model.Invoice) { inv.Discount.Value = f.discount })
	}

	return func(inv *model.Invoice) {
		for _, e := range edits {
			e(inv)
		}
	}, nil
}

// parseDate reads a YYYY-MM-DD or RFC 3339 date. "none" clears the date.
func parseDate(flag, s string) (*time.Time, error) {
	if strings.EqualFold(s, "none") || s == "" {
		return nil, nil
	}
	t, ok := model.ParseInstant(s)
	if !ok {
		return nil, usagef("--%s: cannot parse %q as a date", flag, s)
	}
	return &t, nil
}

func newDraftSetCommand(opts *RootOptions) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change fields of the current draft",
		Long: `Change fields of the current draft. Only the flags given are changed.

Examples:
  invoiceforge draft set --currency EUR --due-date 2025-04-30
  invoiceforge draft set --type receipt --paid-date 2025-04-02 --payment-method bank_transfer
  invoiceforge draft set --sender --client 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				edit, err := flags.edit(cmd)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("client") {
					if err := s.ApplyClient(ctx, flags.client); err != nil {
						return err
					}
				}
				if flags.sender {
					s.ApplySender()
				}
				s.Drafts.Update(edit)
				return s.saveAndShow(ctx)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newDraftSaveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Move the draft into history and start a new draft",
		Long: `Move the draft into history and start a new draft.

A draft status becomes "sent"; any other status is kept. The new draft
starts from the configured defaults with the next invoice number.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				rec, err := s.Promote(ctx)
				if err != nil {
					return err
				}
				next := s.Drafts.Invoice()
				return s.out.Success(message{
					text: fmt.Sprintf("Saved %s to history (id %d). New draft %s.", rec.Number, rec.ID, next.Number),
					data: map[string]any{"saved": rec, "draft": next},
				})
			})
		},
	}
}

func newDraftClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the draft and start over from defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.Drafts.ClearDraft(ctx); err != nil {
					return err
				}
				return s.showDraft()
			})
		},
	}
}

func newDraftNumberCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "number",
		Short: "Renumber the draft from the invoice number settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				number := s.NextNumber(s.Now())
				s.Drafts.Update(func(inv *model.Invoice) { inv.Number = number })
				if err := s.Drafts.SaveDraft(ctx); err != nil {
					return err
				}
				return s.out.Success(message{text: number, data: map[string]string{"number": number}})
			})
		},
	}
}

func newItemCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Edit the draft's line items",
	}
	cmd.AddCommand(newItemAddCommand(opts))
	cmd.AddCommand(newItemUpdateCommand(opts))
	cmd.AddCommand(newItemRemoveCommand(opts))
	return cmd
}

// itemFlags are the line item fields settable from the command line.
type itemFlags struct {
	description string
	quantity    float64
	unit        string
	rate        float64
	taxRate     float64
}

func (f *itemFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.description, "description", "d", "", "description")
	fl.Float64VarP(&f.quantity, "quantity", "q", 0, "quantity")
	fl.StringVarP(&f.unit, "unit", "u", "", "unit (hour|day|unit|flat|project|month|word|page)")
	fl.Float64VarP(&f.rate, "rate", "r", 0, "rate per unit")
	fl.Float64Var(&f.taxRate, "tax-rate", 0, "tax rate in percent")
}

func (f *itemFlags) patch(cmd *cobra.Command) (model.LineItemPatch, error) {
	changed := cmd.Flags().Changed
	var p model.LineItemPatch
	if changed("description") {
		p.Description = &f.description
	}
	if changed("quantity") {
		if f.quantity < 0 {
			return p, usagef("--quantity: must not be negative")
		}
		p.Quantity = &f.quantity
	}
	if changed("unit") {
		u, err := model.ParseUnit(f.unit)
		if err != nil {
			return p, usagef("--unit: %v", err)
		}
		p.Unit = &u
	}
	if changed("rate") {
		if f.rate < 0 {
			return p, usagef("--rate: must not be negative")
		}
		p.Rate = &f.rate
	}
	if changed("tax-rate") {
		if f.taxRate < 0 || f.taxRate > 100 {
			return p, usagef("--tax-rate: must be between 0 and 100")
		}
		p.TaxRate = &f.taxRate
	}
	return p, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, usagef("invalid line item index %q", s)
	}
	return i, nil
}

func newItemAddCommand(opts *RootOptions) *cobra.Command {
	flags := &itemFlags{}
	var service int64
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a line item",
		Long: `Append a line item. With --service the item is copied from the
service catalog; other flags then override the copied values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				patch, err := flags.patch(cmd)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("service") {
					if err := s.UseService(ctx, service); err != nil {
						return err
					}
				} else {
					s.Drafts.AddLineItem()
				}
				last := len(s.Drafts.Invoice().LineItems) - 1
				if err := s.Drafts.UpdateLineItem(last, patch); err != nil {
					return err
				}
				return s.saveAndShow(ctx)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64Var(&service, "service", 0, "copy the service catalog item with this id")
	return cmd
}

func newItemUpdateCommand(opts *RootOptions) *cobra.Command {
	flags := &itemFlags{}
	cmd := &cobra.Command{
		Use:   "update <index>",
		Short: "Change fields of a line item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				index, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				patch, err := flags.patch(cmd)
				if err != nil {
					return err
				}
				if err := s.Drafts.UpdateLineItem(index, patch); err != nil {
					return err
				}
				return s.saveAndShow(ctx)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newItemRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a line item; the last one cannot be removed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				index, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				if err := s.Drafts.RemoveLineItem(index); err != nil {
					return err
				}
				return s.saveAndShow(ctx)
			})
		},
	}
}
