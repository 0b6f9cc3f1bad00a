// Package merge implements the day-merger (component C6): it combines the
// per-chunk accumulator tables produced by however many workers processed
// one trading day into a single ordered set of finalized rows.
package merge

import (
	"sort"

	"github.com/fmgb/obfactors/internal/accum"
	"github.com/fmgb/obfactors/internal/kernel"
	"github.com/fmgb/obfactors/internal/packedkey"
)

// Row is one finalized output row: a secOfDay and its twenty
// cross-sectional factor means, narrowed to float32 only here, at the
// last possible moment, so every intermediate sum stays in full float64
// precision.
type Row struct {
	SecOfDay int
	Means    [kernel.NumFactors]float32
}

// Merge combines the worker tables for one day into sorted, finalized
// rows. Every chunk's table accumulates into a second-level table keyed
// by the same packed key, so a packed key produced by two different
// chunks (the usual case: one day's instruments are spread over several
// chunks that all report the same seconds) merges into a single row.
//
// No row is dropped for count==0: every packed key any chunk ever wrote
// is guaranteed count>=1 by construction, so a "skip zero-count rows"
// guard would be dead code here and is intentionally not included.
func Merge(tables []*accum.Table) []Row {
	combined := accum.New()
	for _, t := range tables {
		t.Drain(func(e accum.Entry) {
			combined.AddWeighted(e.Key, &e.Sum, e.Count)
		})
	}

	rows := make([]Row, 0, combined.Len())
	combined.Drain(func(e accum.Entry) {
		var row Row
		row.SecOfDay = packedkey.SecOfDay(e.Key)
		for i := 0; i < kernel.NumFactors; i++ {
			row.Means[i] = float32(e.Sum[i] / e.Count)
		}
		rows = append(rows, row)
	})

	sort.Slice(rows, func(i, j int) bool { return rows[i].SecOfDay < rows[j].SecOfDay })
	return rows
}
