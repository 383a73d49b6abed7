// Package cli implements the brewops-counters admin command.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"brewops/internal/app"
	"brewops/internal/config"
	"brewops/internal/core/tenant"
	"brewops/internal/domain/numbering"
	"brewops/pkg/logger"
)

type rootOptions struct {
	configPath string
	tenantID   string
}

// env is what a subcommand runs against.
type env struct {
	cfg     *config.Config
	store   *app.Store
	service *numbering.Service
	tenant  string
}

// NewRootCmd builds the command tree. Output goes to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "brewops-counters",
		Short: "Administer sequential identifier counters",
		Long: `brewops-counters seeds, inspects and edits the per-tenant counters that
issue batch, order, invoice and stock document numbers.

The database is selected by the same configuration as the server:
an optional YAML file (--config) plus BREWOPS_* environment variables.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.tenantID, "tenant", "", "tenant UUID (required)")

	root.AddCommand(
		newSeedCmd(opts),
		newNextCmd(opts),
		newListCmd(opts),
		newSetCmd(opts),
		newWarehouseCmd(opts),
	)
	return root
}

// run opens the store for one command and closes it afterwards.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	tenantID, err := tenant.ParseID(o.tenantID)
	if err != nil {
		return fmt.Errorf("--tenant: %w", err)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tenant.WithID(ctx, tenantID)

	log := logger.Nop()
	store, err := app.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open counter store: %w", err)
	}
	defer store.Close()

	return fn(logger.WithLogger(ctx, log), &env{
		cfg:     cfg,
		store:   store,
		service: app.NewNumberingService(cfg, store, nil),
		tenant:  tenantID,
	})
}
