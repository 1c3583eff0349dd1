// Package cmd implements the opsplan command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsplan/app"
	"github.com/kilianp07/opsplan/config"
	"github.com/kilianp07/opsplan/core/plan"
	"github.com/kilianp07/opsplan/infra/logger"
	"github.com/kilianp07/opsplan/infra/store"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "opsplan",
	Short:        "Bus fleet operation plan scheduler",
	SilenceUsage: true,
	RunE:         serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schedule API",
	RunE:  serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

// openPlan builds a plan.Service over the configured store for one-shot
// commands. Audit, metrics and notifications stay disabled.
func openPlan(ctx context.Context) (*plan.Service, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.Level)
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}
	svc, err := plan.NewService(backend, backend, cfg.Plan, logger.New("cli"), nil, nil, nil)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return svc, func() { _ = backend.Close() }, nil
}
