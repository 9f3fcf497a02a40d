package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/invoiceforge/internal/model"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid id %q", s)
	}
	return id, nil
}

func newHistoryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse invoices saved to history",
	}
	cmd.AddCommand(newHistoryListCommand(opts))
	cmd.AddCommand(newHistoryLoadCommand(opts))
	cmd.AddCommand(newHistoryDeleteCommand(opts))
	return cmd
}

func newHistoryListCommand(opts *RootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				var st model.Status
				if status != "" {
					parsed, err := model.ParseStatus(status)
					if err != nil {
						return usagef("--status: %v", err)
					}
					st = parsed
				}
				rows, err := s.Drafts.History(ctx, st)
				if err != nil {
					return err
				}
				return s.out.Success(historyView(rows))
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only invoices with this status")
	return cmd
}

func newHistoryLoadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>",
		Short: "Copy a saved invoice into the draft",
		Long: `Copy a saved invoice into the draft. The saved invoice is not changed;
the copy becomes a draft again and replaces the current draft's content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := s.Drafts.LoadInvoiceFromHistory(ctx, id); err != nil {
					return err
				}
				return s.saveAndShow(ctx)
			})
		},
	}
}

func newHistoryDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := s.DeleteInvoice(ctx, id); err != nil {
					return err
				}
				return s.out.Success(message{
					text: fmt.Sprintf("Deleted invoice %d.", id),
					data: map[string]int64{"deleted": id},
				})
			})
		},
	}
}
