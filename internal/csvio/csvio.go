// Package csvio implements the per-day CSV writer (component C8): a
// buffered writer with a commit/abort lifecycle so that a failed day
// never leaves a partial file behind.
package csvio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fmgb/obfactors/internal/floatfmt"
	"github.com/fmgb/obfactors/internal/kernel"
	"github.com/fmgb/obfactors/internal/merge"
)

// header is the fixed first line of every output file.
const header = "tradeTime,alpha_1,alpha_2,alpha_3,alpha_4,alpha_5,alpha_6,alpha_7,alpha_8,alpha_9,alpha_10,alpha_11,alpha_12,alpha_13,alpha_14,alpha_15,alpha_16,alpha_17,alpha_18,alpha_19,alpha_20\n"

// bufferSize is the underlying write buffer, sized generously so the
// writer rarely has to flush mid-day.
const bufferSize = 2 << 20

// lineBufSize comfortably holds HHMMSS plus twenty shortest-round-trip
// float32 values.
const lineBufSize = 1024

// Writer buffers one day's output CSV and owns its commit/abort
// lifecycle. The zero value is not ready to use; call New.
type Writer struct {
	f         *os.File
	w         *bufio.Writer
	tmpPath   string
	finalPath string
	line      [lineBufSize]byte
}

// New opens <outDir>/<mmdd>.csv.tmp for writing and returns a Writer
// positioned to receive the header, then rows, then a Commit or Abort.
func New(outDir, mmdd string) (*Writer, error) {
	finalPath := filepath.Join(outDir, mmdd+".csv")
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("csvio: create %q: %w", tmpPath, err)
	}

	wr := &Writer{
		f:         f,
		w:         bufio.NewWriterSize(f, bufferSize),
		tmpPath:   tmpPath,
		finalPath: finalPath,
	}
	if _, err := wr.w.WriteString(header); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("csvio: write header for %q: %w", finalPath, err)
	}
	return wr, nil
}

// WriteRow encodes one finalized row (HHMMSS then twenty comma-prefixed
// shortest-round-trip factor values) into the reusable line buffer and
// writes it to the buffered writer.
func (w *Writer) WriteRow(row merge.Row) error {
	pos := writeHHMMSS(w.line[:], row.SecOfDay)
	for i := 0; i < kernel.NumFactors; i++ {
		w.line[pos] = ','
		pos++
		pos = floatfmt.Format(w.line[:], pos, row.Means[i])
	}
	w.line[pos] = '\n'
	pos++

	if _, err := w.w.Write(w.line[:pos]); err != nil {
		return fmt.Errorf("csvio: write row for %q: %w", w.finalPath, err)
	}
	return nil
}

// Commit flushes and closes the temporary file and renames it into
// place. If the flush or close fails, the temporary file is deleted.
// After Commit, the Writer must not be used again.
func (w *Writer) Commit() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		os.Remove(w.tmpPath)
		return fmt.Errorf("csvio: flush %q: %w", w.tmpPath, err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("csvio: close %q: %w", w.tmpPath, err)
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		return fmt.Errorf("csvio: rename %q to %q: %w", w.tmpPath, w.finalPath, err)
	}
	return nil
}

// Abort discards the in-progress output: the temporary file is closed
// and deleted, and no file named <mmdd>.csv is left behind.
func (w *Writer) Abort() error {
	w.f.Close()
	if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("csvio: remove %q: %w", w.tmpPath, err)
	}
	return nil
}

// writeHHMMSS writes secOfDay as a fixed-width six-digit zero-padded
// HHMMSS into buf starting at position 0 via the divmod-by-10 pattern,
// returning the position just past it (always 6).
func writeHHMMSS(buf []byte, secOfDay int) int {
	hh := secOfDay / 3600
	rem := secOfDay % 3600
	mm := rem / 60
	ss := rem % 60

	buf[0] = byte('0' + hh/10)
	buf[1] = byte('0' + hh%10)
	buf[2] = byte('0' + mm/10)
	buf[3] = byte('0' + mm%10)
	buf[4] = byte('0' + ss/10)
	buf[5] = byte('0' + ss%10)
	return 6
}
