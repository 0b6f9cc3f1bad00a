// Package engine orchestrates the full pipeline (component chain
// C1-C8): split-plan a trading-day tree, dispatch one worker per chunk,
// merge each day's worker tables, and commit one CSV file per day.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fmgb/obfactors/internal/accum"
	"github.com/fmgb/obfactors/internal/csvio"
	"github.com/fmgb/obfactors/internal/merge"
	"github.com/fmgb/obfactors/internal/plan"
	"github.com/fmgb/obfactors/internal/worker"
)

// Config holds the single invocation's parameters: process the tree
// rooted at Root, write outputs under Out.
type Config struct {
	Root        string
	Out         string
	Parallelism int // driver hint; clamped internally to min(8, hw parallelism)
}

// Run discovers trading days under cfg.Root, processes each one to
// completion, and returns the first error encountered. A day whose
// commit fails never leaves a partial <MMDD>.csv behind.
func Run(ctx context.Context, cfg Config) error {
	effective := plan.EffectiveParallelism(cfg.Parallelism)

	days, err := plan.Discover(cfg.Root, effective)
	if err != nil {
		return fmt.Errorf("engine: discover %q: %w", cfg.Root, err)
	}
	if len(days) == 0 {
		return fmt.Errorf("engine: no trading-day directories found under %q", cfg.Root)
	}

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("engine: create output dir %q: %w", cfg.Out, err)
	}

	slog.Info("discovered trading days", "count", len(days), "parallelism", effective)

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := processDay(ctx, day, cfg.Out); err != nil {
			return fmt.Errorf("engine: day %s: %w", day.MMDD, err)
		}
		slog.Info("committed day", "day", day.MMDD)
	}
	return nil
}

type chunkResult struct {
	tab *accum.Table
	err error
}

// processDay runs one day's chunks through the worker pool concurrently,
// each chunk owning its own accumulator so no two goroutines ever touch
// the same table, then folds every chunk's table into the day-merger and
// commits the resulting CSV.
func processDay(ctx context.Context, day plan.Day, outDir string) error {
	results := make(chan chunkResult, len(day.Chunks))

	var wg sync.WaitGroup
	for _, chunk := range day.Chunks {
		wg.Add(1)
		go func(files []string) {
			defer wg.Done()
			tab, err := worker.Process(day.DayID, files)
			results <- chunkResult{tab: tab, err: err}
		}(chunk)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	tables := make([]*accum.Table, 0, len(day.Chunks))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		tables = append(tables, r.tab)
	}
	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := merge.Merge(tables)

	w, err := csvio.New(outDir, day.MMDD)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			if abortErr := w.Abort(); abortErr != nil {
				slog.Error("abort failed", "day", day.MMDD, "err", abortErr)
			}
			return err
		}
	}
	return w.Commit()
}
