package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mridultyagi687/TSGLogistics-sub000/app"
	"github.com/mridultyagi687/TSGLogistics-sub000/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "tsg-sourcing",
	Short: "Freight assignment matching and lifecycle engine",
	Long: `tsg-sourcing runs the background reconciliation loop that matches
loads awaiting sourcing with vendor candidates, drives the assignment
lifecycle and serves the operator API. Subcommands offer one-shot cycles
and store inspection.`,
	SilenceUsage: true,
	RunE:         runService,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func runService(cmd *cobra.Command, args []string) error {
	svc, err := buildService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, stop := signal.NotifyContext(rootContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return svc.Run(ctx)
}

// buildService loads the configuration and wires the full service. Shared by
// the root and reconcile commands.
func buildService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

// rootContext gives subcommands a context even when invoked outside cobra's
// ExecuteContext path.
func rootContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
