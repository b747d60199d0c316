// Package bitmap provides a compact row mask backed by uint64 words. The
// cleaning stages use it to mark rows for removal in one pass and then
// materialize the surviving rows in their original order.
package bitmap

import "math/bits"

// Mask is a fixed-size bitset over row indexes [0, n).
type Mask struct {
	n    int
	data []uint64
}

// New allocates a mask for n rows with no bits set.
func New(n int) *Mask {
	if n <= 0 {
		return &Mask{}
	}
	return &Mask{n: n, data: make([]uint64, (n+63)/64)}
}

// Len returns the number of rows the mask covers.
func (m *Mask) Len() int { return m.n }

// Set marks row i. Out-of-range indexes are ignored.
func (m *Mask) Set(i int) {
	if i < 0 || i >= m.n {
		return
	}
	m.data[i/64] |= 1 << uint(i%64)
}

// Has reports whether row i is marked.
func (m *Mask) Has(i int) bool {
	if i < 0 || i >= m.n {
		return false
	}
	return m.data[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the number of marked rows.
func (m *Mask) Count() int {
	total := 0
	for _, w := range m.data {
		total += bits.OnesCount64(w)
	}
	return total
}

// Unmarked returns the indexes of unmarked rows in ascending order. This is
// the survivor set when the mask marks rows to drop.
func (m *Mask) Unmarked() []int {
	out := make([]int, 0, m.n-m.Count())
	for i := 0; i < m.n; i++ {
		if !m.Has(i) {
			out = append(out, i)
		}
	}
	return out
}
