// Package plan implements the split planner (component C4): trading-day
// discovery over the input tree and partitioning of each day's files into
// at most P chunks for worker dispatch.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// MaxParallelism is the hard cap on chunks-per-day: the target deployment
// is a single host with 2 physical / 4 logical cores, and more chunks
// than this hurt cache locality without adding throughput.
const MaxParallelism = 8

// EffectiveParallelism clamps a driver-supplied hint to
// min(MaxParallelism, hardware parallelism). A non-positive hint means
// "no preference": use hardware parallelism alone.
func EffectiveParallelism(hint int) int {
	p := runtime.GOMAXPROCS(0)
	if hint > 0 && hint < p {
		p = hint
	}
	if p > MaxParallelism {
		p = MaxParallelism
	}
	if p < 1 {
		p = 1
	}
	return p
}

// Day describes one discovered trading day: its MMDD directory name, the
// packed dayId (month*100+day), and the chunks its files have been
// partitioned into.
type Day struct {
	MMDD   string
	DayID  int
	Chunks [][]string
}

// Discover scans root's immediate children for MMDD trading-day
// directories, partitions each day's files into chunks, and returns the
// days in filesystem-enumeration order.
//
// os.ReadDir already returns entries sorted by filename, so no separate
// sort pass is needed here.
func Discover(root string, parallelismHint int) ([]Day, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("plan: read root %q: %w", root, err)
	}

	parallelism := EffectiveParallelism(parallelismHint)

	var days []Day
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != 4 {
			continue
		}
		mmdd := e.Name()
		month, day, ok := parseMMDD(mmdd)
		if !ok {
			continue
		}

		files, err := filesForDay(root, mmdd)
		if err != nil {
			return nil, fmt.Errorf("plan: list day %q: %w", mmdd, err)
		}
		if len(files) == 0 {
			continue
		}

		days = append(days, Day{
			MMDD:   mmdd,
			DayID:  month*100 + day,
			Chunks: Partition(files, parallelism),
		})
	}

	return days, nil
}

// filesForDay lists every instrument's snapshot.csv under root/mmdd, in
// the stock directory's filesystem-enumeration order.
func filesForDay(root, mmdd string) ([]string, error) {
	dayDir := filepath.Join(root, mmdd)
	stocks, err := os.ReadDir(dayDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, s := range stocks {
		if !s.IsDir() {
			continue
		}
		candidate := filepath.Join(dayDir, s.Name(), "snapshot.csv")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			files = append(files, candidate)
		}
	}
	return files, nil
}

// Partition splits files (belonging to one trading day) into chunks of
// ceil(N/S) consecutive files, where S = min(parallelism, len(files)),
// the last one possibly shorter. That yields at most S chunks, and fewer
// when the sizes do not work out evenly (N=9, S=4 gives three chunks of
// three). A chunk never crosses a
// trading-day boundary because Partition only ever sees one day's files
// at a time.
func Partition(files []string, parallelism int) [][]string {
	n := len(files)
	if n == 0 {
		return nil
	}
	s := parallelism
	if s > n {
		s = n
	}
	if s < 1 {
		s = 1
	}

	chunkSize := (n + s - 1) / s // ceil(N/S)
	chunks := make([][]string, 0, s)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, files[start:end])
	}
	return chunks
}

func parseMMDD(s string) (month, day int, ok bool) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, 0, false
		}
	}
	month = int(s[0]-'0')*10 + int(s[1]-'0')
	day = int(s[2]-'0')*10 + int(s[3]-'0')
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, false
	}
	return month, day, true
}
