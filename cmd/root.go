// Package cmd holds the lecture-indexer command line.
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/lecture-indexer/internal/app"
	"github.com/JakeFAU/lecture-indexer/internal/config"
	"github.com/JakeFAU/lecture-indexer/internal/logging"
	"github.com/JakeFAU/lecture-indexer/internal/telemetry"
)

// newRootCmd creates the root command. Running it performs one indexing pass.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "lecture-indexer",
		Short: "Index lecture recordings into a catalog and an HTML report.",
		Long: `lecture-indexer reads the lecture recording index, fetches the description
of every recording it has not seen before, adds them to recordings.json and
regenerates recordings.htm grouped by subject.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush
			zap.ReplaceGlobals(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (defaults and LECTURES_* environment variables apply without one)")
	return cmd
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	tp, err := telemetry.InitTracerProvider(ctx, logging.Name)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer a.Close()

	summary, err := a.Run(ctx)
	logger.Info("run finished",
		zap.String("run_id", summary.RunID),
		zap.String("outcome", string(summary.Outcome)),
		zap.Int("discovered", summary.Discovered),
		zap.Int("added", summary.Added),
		zap.Int("skipped", summary.Skipped),
		zap.Int("catalog_size", summary.CatalogSize),
		zap.String("report", summary.ReportURI),
	)
	return err
}

// Execute is the main entry point.
func Execute() {
	bootstrap, err := logging.New(false)
	if err == nil {
		zap.ReplaceGlobals(bootstrap)
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		zap.L().Fatal("command execution failed", zap.Error(err))
	}
}
