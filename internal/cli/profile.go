package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/invoiceforge/internal/model"
)

func newSenderCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sender",
		Short: "Manage the business issuing invoices",
	}
	cmd.AddCommand(newSenderShowCommand(opts))
	cmd.AddCommand(newSenderSetCommand(opts))
	cmd.AddCommand(newSenderBankAddCommand(opts))
	cmd.AddCommand(newSenderBankRemoveCommand(opts))
	return cmd
}

func newSenderShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the sender profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				return s.out.Success(senderView(s.Profile.Sender()))
			})
		},
	}
}

// stringFlags binds string flags to fields and applies the ones given.
type stringFlags struct {
	names  []string
	values map[string]*string
}

func (f *stringFlags) add(cmd *cobra.Command, name, usage string) {
	if f.values == nil {
		f.values = map[string]*string{}
	}
	v := new(string)
	cmd.Flags().StringVar(v, name, "", usage)
	f.names = append(f.names, name)
	f.values[name] = v
}

// apply copies every changed flag into the matching target.
func (f *stringFlags) apply(cmd *cobra.Command, targets map[string]*string) {
	for _, name := range f.names {
		if cmd.Flags().Changed(name) {
			*targets[name] = *f.values[name]
		}
	}
}

func senderTargets(snd *model.Sender) map[string]*string {
	return map[string]*string{
		"name":          &snd.BusinessName,
		"address":       &snd.Address,
		"email":         &snd.Email,
		"phone":         &snd.Phone,
		"tax-id":        &snd.TaxID,
		"website":       &snd.Website,
		"default-terms": &snd.DefaultTerms,
	}
}

func newSenderSetCommand(opts *RootOptions) *cobra.Command {
	flags := &stringFlags{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change and save the sender profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				saved, err := s.Profile.SaveSender(ctx, func(snd *model.Sender) {
					flags.apply(cmd, senderTargets(snd))
				})
				if err != nil {
					return err
				}
				return s.out.Success(senderView(saved))
			})
		},
	}
	flags.add(cmd, "name", "business name")
	flags.add(cmd, "address", "postal address")
	flags.add(cmd, "email", "email address")
	flags.add(cmd, "phone", "phone number")
	flags.add(cmd, "tax-id", "tax or VAT id")
	flags.add(cmd, "website", "website")
	flags.add(cmd, "default-terms", "terms text copied into new invoices")
	return cmd
}

func bankTargets(acc *model.BankAccount) map[string]*string {
	return map[string]*string{
		"bank":     &acc.BankName,
		"name":     &acc.AccountName,
		"number":   &acc.AccountNumber,
		"routing":  &acc.RoutingNumber,
		"swift":    &acc.SwiftCode,
		"iban":     &acc.IBAN,
		"currency": &acc.Currency,
	}
}

func newSenderBankAddCommand(opts *RootOptions) *cobra.Command {
	flags := &stringFlags{}
	cmd := &cobra.Command{
		Use:   "bank-add",
		Short: "Add a bank account to the sender profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				if cmd.Flags().Changed("currency") {
					cur, err := model.ParseCurrency(*flags.values["currency"])
					if err != nil {
						return usagef("--currency: %v", err)
					}
					*flags.values["currency"] = cur
				}
				acc := s.Profile.AddBankAccount()
				if err := s.Profile.UpdateBankAccount(acc.ID, func(a *model.BankAccount) {
					flags.apply(cmd, bankTargets(a))
				}); err != nil {
					return err
				}
				saved, err := s.Profile.SaveSender(ctx, nil)
				if err != nil {
					return err
				}
				return s.out.Success(senderView(saved))
			})
		},
	}
	flags.add(cmd, "bank", "bank name")
	flags.add(cmd, "name", "account holder name")
	flags.add(cmd, "number", "account number")
	flags.add(cmd, "routing", "routing number")
	flags.add(cmd, "swift", "SWIFT/BIC code")
	flags.add(cmd, "iban", "IBAN")
	flags.add(cmd, "currency", "account currency")
	return cmd
}

func newSenderBankRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bank-remove <account-id>",
		Short: "Remove a bank account from the sender profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.Profile.RemoveBankAccount(args[0]); err != nil {
					return err
				}
				saved, err := s.Profile.SaveSender(ctx, nil)
				if err != nil {
					return err
				}
				return s.out.Success(senderView(saved))
			})
		},
	}
}

func newClientCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients",
	}
	cmd.AddCommand(newClientListCommand(opts))
	cmd.AddCommand(newClientAddCommand(opts))
	cmd.AddCommand(newClientDeleteCommand(opts))
	return cmd
}

func newClientListCommand(opts *RootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				if email == "" {
					return s.out.Success(clientsView(s.Profile.Clients()))
				}
				found, err := s.Profile.FindClientsByEmail(ctx, email)
				if err != nil {
					return err
				}
				return s.out.Success(clientsView(found))
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "only clients with this email")
	return cmd
}

func clientTargets(c *model.Client) map[string]*string {
	return map[string]*string{
		"name":    &c.Name,
		"company": &c.Company,
		"address": &c.Address,
		"email":   &c.Email,
		"phone":   &c.Phone,
		"tax-id":  &c.TaxID,
		"notes":   &c.Notes,
	}
}

func newClientAddCommand(opts *RootOptions) *cobra.Command {
	flags := &stringFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				var c model.Client
				flags.apply(cmd, clientTargets(&c))
				if c.Name == "" {
					return usagef("--name is required")
				}
				saved, err := s.Profile.SaveClient(ctx, c)
				if err != nil {
					return err
				}
				return s.out.Success(message{
					text: fmt.Sprintf("Added client %s (id %d).", saved.Name, saved.ID),
					data: saved,
				})
			})
		},
	}
	flags.add(cmd, "name", "client name")
	flags.add(cmd, "company", "company")
	flags.add(cmd, "address", "postal address")
	flags.add(cmd, "email", "email address")
	flags.add(cmd, "phone", "phone number")
	flags.add(cmd, "tax-id", "tax or VAT id")
	flags.add(cmd, "notes", "private notes")
	return cmd
}

func newClientDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := s.Profile.DeleteClient(ctx, id); err != nil {
					return err
				}
				return s.out.Success(message{
					text: fmt.Sprintf("Deleted client %d.", id),
					data: map[string]int64{"deleted": id},
				})
			})
		},
	}
}
