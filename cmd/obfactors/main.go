// Command obfactors computes twenty cross-sectional order-book factors
// from Level-10 snapshot trees and writes one CSV per trading day.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fmgb/obfactors/internal/engine"
)

func main() {
	root := &cobra.Command{
		Use:   "obfactors",
		Short: "Cross-sectional order-book factor engine",
		Long: `obfactors reads Level-10 order-book snapshot trees
(<root>/<MMDD>/<ticker>/snapshot.csv) and emits, for each trading day,
a CSV of twenty factors' cross-sectional means at every in-window second.`,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newProbeCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var cfg engine.Config

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a snapshot tree and write per-day factor CSVs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Root, "root", "", "root of the input tree (<root>/<MMDD>/<ticker>/snapshot.csv)")
	cmd.Flags().StringVar(&cfg.Out, "out", "", "output directory for <MMDD>.csv files")
	cmd.Flags().IntVar(&cfg.Parallelism, "parallelism", 0, "chunks per day hint, clamped to min(8, hardware parallelism); 0 = use hardware parallelism alone")
	cmd.MarkFlagRequired("root")
	cmd.MarkFlagRequired("out")

	return cmd
}

func runRun(ctx context.Context, cfg engine.Config) error {
	if cfg.Root == "" || cfg.Out == "" {
		return fmt.Errorf("obfactors: --root and --out are required")
	}
	slog.Info("starting run", "root", cfg.Root, "out", cfg.Out)
	if err := engine.Run(ctx, cfg); err != nil {
		return fmt.Errorf("obfactors: %w", err)
	}
	slog.Info("run complete")
	return nil
}
