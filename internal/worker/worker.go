// Package worker implements the per-chunk row-processing loop (component
// C5): drive C1 (parser) -> C2 (kernel) -> C3 (accum) row by row while
// maintaining per-file lag state. Each Process call owns one accumulator
// for its lifetime; calls never share accumulators, so no locking is needed
// anywhere on the hot path.
package worker

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fmgb/obfactors/internal/accum"
	"github.com/fmgb/obfactors/internal/kernel"
	"github.com/fmgb/obfactors/internal/packedkey"
	"github.com/fmgb/obfactors/internal/parser"
)

// Process drives one chunk (an ordered list of files all belonging to
// dayID) through the parser and kernel, accumulating cross-sectional
// sums into a freshly created table, and returns that table once the
// chunk is exhausted. The caller (the split-planner-driven dispatcher)
// forwards the drained table's entries to the day-merger.
func Process(dayID int, files []string) (*accum.Table, error) {
	tab := accum.New()

	var lag kernel.LagState
	var row parser.Row

	for _, path := range files {
		lag.Reset()

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("worker: read %q: %w", path, err)
		}

		processFile(tab, dayID, data, &row, &lag)
	}

	return tab, nil
}

// processFile walks one file's lines, parsing each via the byte-scan
// parser and feeding emitted rows into the accumulator, while keeping lag
// state current for every row regardless of whether it emits: a 09:30:00
// row may need lag from 09:29:57, one second before the window opens, so
// out-of-window rows still have to update lag.
func processFile(tab *accum.Table, dayID int, data []byte, row *parser.Row, lag *kernel.LagState) {
	pos := 0
	for pos < len(data) {
		nl := bytes.IndexByte(data[pos:], '\n')
		var line []byte
		if nl < 0 {
			line = data[pos:]
			pos = len(data)
		} else {
			line = data[pos : pos+nl]
			pos += nl + 1
		}
		if len(line) == 0 {
			continue
		}

		if parser.Parse(line, kernel.InWindow, row) == parser.Skip {
			continue
		}

		// A rewind within one file (the current row's time precedes the
		// previous row's) also forces a lag reset: the carried lag no
		// longer precedes the current row in time.
		if lag.HasPrev && row.SecOfDay < lag.PrevTradeTime {
			lag.Reset()
		}

		in := kernel.Inputs{
			TBidVol: row.TBidVol,
			TAskVol: row.TAskVol,
			BidPx:   row.BidPx,
			BidVol:  row.BidVol,
			AskPx:   row.AskPx,
			AskVol:  row.AskVol,
		}

		if row.HasVolumes {
			var factors [kernel.NumFactors]float64
			kernel.Compute(&in, lag, &factors)
			key := packedkey.Pack(dayID, row.SecOfDay)
			tab.AddOrAccumulate(key, &factors)
		}

		kernel.Advance(&in, row.SecOfDay, lag)
	}
}
