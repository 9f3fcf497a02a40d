package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/invoiceforge/internal/model"
)

func newServiceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the catalog of reusable line items",
	}
	cmd.AddCommand(newServiceListCommand(opts))
	cmd.AddCommand(newServiceAddCommand(opts))
	cmd.AddCommand(newServiceDeleteCommand(opts))
	cmd.AddCommand(newServiceUseCommand(opts))
	return cmd
}

func newServiceListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog items by category and name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				items, err := s.Catalog.List(ctx)
				if err != nil {
					return err
				}
				return s.out.Success(servicesView(items))
			})
		},
	}
}

func newServiceAddCommand(opts *RootOptions) *cobra.Command {
	var (
		item model.ServiceItem
		unit string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				if item.Name == "" {
					return usagef("--name is required")
				}
				if cmd.Flags().Changed("unit") {
					u, err := model.ParseUnit(unit)
					if err != nil {
						return usagef("--unit: %v", err)
					}
					item.DefaultUnit = u
				}
				if item.DefaultRate < 0 {
					return usagef("--rate: must not be negative")
				}
				if item.TaxRate < 0 || item.TaxRate > 100 {
					return usagef("--tax-rate: must be between 0 and 100")
				}
				saved, err := s.Catalog.Save(ctx, item)
				if err != nil {
					return err
				}
				return s.out.Success(message{
					text: fmt.Sprintf("Added service %s (id %d).", saved.Name, saved.ID),
					data: saved,
				})
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&item.Name, "name", "", "name")
	fl.StringVar(&item.Description, "description", "", "line item description (defaults to the name)")
	fl.Float64Var(&item.DefaultRate, "rate", 0, "default rate")
	fl.StringVar(&unit, "unit", "", "default unit")
	fl.Float64Var(&item.TaxRate, "tax-rate", 0, "tax rate in percent")
	fl.StringVar(&item.Category, "category", "", "category")
	return cmd
}

func newServiceDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := s.Catalog.Delete(ctx, id); err != nil {
					return err
				}
				return s.out.Success(message{
					text: fmt.Sprintf("Deleted service %d.", id),
					data: map[string]int64{"deleted": id},
				})
			})
		},
	}
}

func newServiceUseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Append a catalog item to the draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := s.UseService(ctx, id); err != nil {
					return err
				}
				return s.saveAndShow(ctx)
			})
		},
	}
}
