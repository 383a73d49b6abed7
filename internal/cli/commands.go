package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default counters of a tenant (safe to repeat)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				created, err := e.service.SeedTenant(ctx, e.tenant)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d default counters\n",
					created, len(numerator.DefaultEntities()))
				return nil
			})
		},
	}
}

func newNextCmd(opts *rootOptions) *cobra.Command {
	var subScopeID string

	cmd := &cobra.Command{
		Use:   "next [entity]",
		Short: "Issue the next identifier for a document type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				number, err := e.service.NextNumber(ctx, e.tenant, args[0], subScopeID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), number)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subScopeID, "sub-scope", "", "warehouse id for per-warehouse numbering")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the counters of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				counters, err := e.service.ListCounters(ctx, e.tenant)
				if err != nil {
					return err
				}
				if len(counters) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no counters")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tENTITY\tSUB-SCOPE\tPREFIX\tYEAR\tPADDING\tRESET\tCURRENT")
				for _, c := range counters {
					subScope := "-"
					if c.SubScopeID != nil {
						subScope = *c.SubScopeID
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%q\t%t\t%d\t%t\t%d\n",
						c.ID, c.Entity, subScope, c.Prefix, c.IncludeYear, c.Padding, c.ResetYearly, c.CurrentNumber)
				}
				return w.Flush()
			})
		},
	}
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	var (
		prefix      string
		separator   string
		includeYear bool
		padding     int
		resetYearly bool
	)

	cmd := &cobra.Command{
		Use:   "set [counter-id]",
		Short: "Change the formatting settings of a counter",
		Long: `Change the formatting settings of a counter. Only flags given on the
command line are changed. The current number is never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counterID, err := id.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid counter id %q: %w", args[0], err)
			}

			var patch numerator.SettingsPatch
			flags := cmd.Flags()
			if flags.Changed("prefix") {
				patch.Prefix = &prefix
			}
			if flags.Changed("separator") {
				patch.Separator = &separator
			}
			if flags.Changed("include-year") {
				patch.IncludeYear = &includeYear
			}
			if flags.Changed("padding") {
				patch.Padding = &padding
			}
			if flags.Changed("reset-yearly") {
				patch.ResetYearly = &resetYearly
			}

			return opts.run(cmd, func(ctx context.Context, e *env) error {
				c, err := e.service.UpdateSettings(ctx, e.tenant, counterID, patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s: prefix=%q separator=%q include-year=%t padding=%d reset-yearly=%t\n",
					c.Entity, c.Prefix, c.Separator, c.IncludeYear, c.Padding, c.ResetYearly)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "number prefix")
	cmd.Flags().StringVar(&separator, "separator", "", "separator between prefix, year and number")
	cmd.Flags().BoolVar(&includeYear, "include-year", false, "include the calendar year")
	cmd.Flags().IntVar(&padding, "padding", 0, "minimum digit width")
	cmd.Flags().BoolVar(&resetYearly, "reset-yearly", false, "restart at 1 each calendar year")
	return cmd
}

func newWarehouseCmd(opts *rootOptions) *cobra.Command {
	warehouse := &cobra.Command{
		Use:   "warehouse",
		Short: "Manage the warehouses used for per-warehouse numbering",
	}

	var name string
	add := &cobra.Command{
		Use:   "add [warehouse-id] [code]",
		Short: "Register a warehouse and its prefix code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				if err := e.store.Warehouses.AddWarehouse(ctx, e.tenant, args[0], args[1], name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added warehouse %s (%s)\n", args[1], args[0])
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")

	warehouse.AddCommand(add)
	return warehouse
}
