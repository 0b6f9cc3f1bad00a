// Package accum implements the open-addressed (day,time) -> sum/count
// accumulator table (component C3). It replicates CPython 3.9's dict
// probe sequence over two flat arrays, so that the whole structure is
// allocation-free apart from the two backing slices and their occasional
// doubling.
package accum

import "fmt"

// Columns is the number of stored values per slot: twenty factor sums
// plus one running count.
const Columns = 21

// CountColumn is the index of the count column within a slot's Columns
// values.
const CountColumn = 20

const (
	initialCapacity = 16384
	maxLoad         = 0.555
)

// Table is a flat-array open-addressed map from a packed (day,time) key
// to a 20-wide running sum plus a running count. The zero value is not
// ready to use; call New.
//
// Internally a stored key of 0 means "empty slot"; a live entry for
// packed key K is stored as K+1, since a legitimate packed key can itself
// be 0 and would otherwise be indistinguishable from an empty slot.
type Table struct {
	keys []int32
	vals []float64 // len == capacity*Columns, slot*Columns+column
	size int
}

// New creates a Table with the spec's default initial capacity (16384
// slots, 0.555 load factor).
func New() *Table {
	return NewWithCapacity(initialCapacity)
}

// NewWithCapacity creates a Table whose initial capacity is the smallest
// power of two >= capacity, and at least 2 (the probe sequence requires a power-of-two
// table size so that mask = capacity-1 visits every slot).
func NewWithCapacity(capacity int) *Table {
	c := nextPowerOfTwo(capacity)
	return &Table{
		keys: make([]int32, c),
		vals: make([]float64, c*Columns),
	}
}

func nextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Len reports the number of live entries.
func (t *Table) Len() int { return t.size }

// Cap reports the current slot capacity.
func (t *Table) Cap() int { return len(t.keys) }

// ErrProbeOverflow signals a probe path longer than the table mask, which
// indicates a programmer error (the resize policy should have grown the
// table long before this could happen), not a recoverable runtime
// condition.
type ErrProbeOverflow struct {
	Key      int32
	Capacity int
}

func (e *ErrProbeOverflow) Error() string {
	return fmt.Sprintf("accum: probe sequence exceeded table mask (key=%d, capacity=%d): accumulator is pathologically full", e.Key, e.Capacity)
}

// AddOrAccumulate inserts factors under key if absent (count becomes 1),
// or adds factors element-wise into the existing entry and increments its
// count. It panics with *ErrProbeOverflow if the probe sequence cannot
// find a slot within one full traversal of the table — the resize policy
// above keeps the table well under capacity, so this should never happen.
func (t *Table) AddOrAccumulate(key int32, factors *[Columns - 1]float64) {
	t.AddWeighted(key, factors, 1.0)
}

// AddWeighted is AddOrAccumulate generalized to an arbitrary starting
// count, used by the day-merger to fold a drained Entry (whose Count may
// already be >1) into a second-level table without losing the source
// count.
func (t *Table) AddWeighted(key int32, factors *[Columns - 1]float64, weight float64) {
	if float64(t.size+1) > float64(len(t.keys))*maxLoad {
		t.resize(len(t.keys) * 2)
	}
	t.insert(t.keys, t.vals, len(t.keys), key, factors, weight)
}

// insert runs the probe sequence against the given arrays for a live
// insert (resize-time rehashing goes through rawInsert instead) and
// returns having either accumulated into an existing slot or created a
// new one.
func (t *Table) insert(keys []int32, vals []float64, capacity int, key int32, factors *[Columns - 1]float64, weight float64) {
	stored := key + 1
	mask := uint32(capacity - 1)
	hash := uint32(stored)
	idx := hash & mask
	perturb := hash

	for probes := 0; ; probes++ {
		cur := keys[idx]
		if cur == 0 {
			keys[idx] = stored
			base := int(idx) * Columns
			for i, v := range factors {
				vals[base+i] = v
			}
			vals[base+CountColumn] = weight
			t.size++
			return
		}
		if cur == stored {
			base := int(idx) * Columns
			for i, v := range factors {
				vals[base+i] += v
			}
			vals[base+CountColumn] += weight
			return
		}
		if probes > int(mask) {
			panic(&ErrProbeOverflow{Key: key, Capacity: capacity})
		}
		perturb >>= 5 // logical shift: perturb is unsigned
		idx = (5*idx + 1 + perturb) & mask
	}
}

// rawInsert is the resize-time variant of insert: every live entry is
// known-unique and known-absent from the new table, so it never needs the
// accumulate branch.
func rawInsert(keys []int32, vals []float64, capacity int, stored int32, srcVals []float64) {
	mask := uint32(capacity - 1)
	hash := uint32(stored)
	idx := hash & mask
	perturb := hash

	for probes := 0; ; probes++ {
		if keys[idx] == 0 {
			keys[idx] = stored
			copy(vals[int(idx)*Columns:int(idx)*Columns+Columns], srcVals)
			return
		}
		if probes > int(mask) {
			panic(&ErrProbeOverflow{Key: stored - 1, Capacity: capacity})
		}
		perturb >>= 5
		idx = (5*idx + 1 + perturb) & mask
	}
}

// resize doubles the table and re-inserts every live entry using the same
// probe logic against the new mask. Amortized O(1) per insert, same as
// the CPython dict it imitates.
func (t *Table) resize(newCapacity int) {
	newKeys := make([]int32, newCapacity)
	newVals := make([]float64, newCapacity*Columns)

	for i, k := range t.keys {
		if k == 0 {
			continue
		}
		src := t.vals[i*Columns : i*Columns+Columns]
		rawInsert(newKeys, newVals, newCapacity, k, src)
	}

	t.keys = newKeys
	t.vals = newVals
}

// Entry is one drained (key, sum, count) record, as yielded by Drain.
type Entry struct {
	Key   int32
	Sum   [Columns - 1]float64
	Count float64
}

// Drain performs a linear scan over the slot array, calling fn once per
// live entry. Scan order is unspecified; the day-merger re-sorts by
// secOfDay downstream.
func (t *Table) Drain(fn func(Entry)) {
	for i, k := range t.keys {
		if k == 0 {
			continue
		}
		base := i * Columns
		var e Entry
		e.Key = k - 1
		copy(e.Sum[:], t.vals[base:base+Columns-1])
		e.Count = t.vals[base+CountColumn]
		fn(e)
	}
}
