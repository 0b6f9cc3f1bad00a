package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, root, mmdd, stock string) {
	t.Helper()
	dir := filepath.Join(root, mmdd, stock)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot.csv"), []byte("header\n"), 0o644))
}

func TestDiscover_GroupsByDayNeverCrossesBoundary(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "0102", "A")
	writeSnapshot(t, root, "0102", "B")
	writeSnapshot(t, root, "0104", "C")

	days, err := Discover(root, 4)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "0102", days[0].MMDD)
	assert.Equal(t, 102, days[0].DayID)
	assert.Equal(t, "0104", days[1].MMDD)
	assert.Equal(t, 104, days[1].DayID)

	for _, d := range days {
		for _, chunk := range d.Chunks {
			for _, f := range chunk {
				assert.Contains(t, f, d.MMDD)
			}
		}
	}
}

func TestDiscover_SkipsNonMMDDEntries(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "0102", "A")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-day"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	days, err := Discover(root, 4)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "0102", days[0].MMDD)
}

func TestPartition_ChunkCountAndSizes(t *testing.T) {
	files := make([]string, 10)
	for i := range files {
		files[i] = "f"
	}

	chunks := Partition(files, 4)
	require.Len(t, chunks, 4)
	// ceil(10/4) = 3, so sizes are 3,3,3,1.
	sizes := make([]int, len(chunks))
	total := 0
	for i, c := range chunks {
		sizes[i] = len(c)
		total += len(c)
	}
	assert.Equal(t, []int{3, 3, 3, 1}, sizes)
	assert.Equal(t, 10, total)
}

func TestPartition_FewerFilesThanParallelism(t *testing.T) {
	files := []string{"a", "b", "c"}
	chunks := Partition(files, 8)
	assert.Len(t, chunks, 3, "S = min(P,N)")
	for _, c := range chunks {
		assert.Len(t, c, 1)
	}
}

func TestPartition_Empty(t *testing.T) {
	assert.Nil(t, Partition(nil, 4))
}

func TestEffectiveParallelism_CappedAtEight(t *testing.T) {
	assert.LessOrEqual(t, EffectiveParallelism(1000), MaxParallelism)
	assert.GreaterOrEqual(t, EffectiveParallelism(0), 1)
}

func TestParseMMDD(t *testing.T) {
	m, d, ok := parseMMDD("0229")
	require.True(t, ok)
	assert.Equal(t, 2, m)
	assert.Equal(t, 29, d)

	_, _, ok = parseMMDD("1301")
	assert.False(t, ok, "month 13 is invalid")

	_, _, ok = parseMMDD("abcd")
	assert.False(t, ok)
}
