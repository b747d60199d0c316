// Package dedup removes rows that duplicate an earlier row under a
// configurable column equality. The first occurrence (lowest row index) is
// always retained, which makes the operation idempotent and its output order
// a stable subsequence of the input.
//
// Unlike per-value comparison semantics, Missing compares equal to Missing
// here: a fully duplicated row with holes in the same places is still a
// duplicate.
package dedup

import (
	"cleanse/internal/bitmap"
	"cleanse/internal/table"
)

// Apply removes duplicate rows from t. cols selects the columns that define
// equality; nil or empty means all columns. Returns the deduplicated table
// and the number of rows removed.
func Apply(t *table.Table, cols []string) (*table.Table, int, error) {
	var compare []table.Column
	if len(cols) == 0 {
		compare = t.Columns()
	} else {
		compare = make([]table.Column, len(cols))
		for i, name := range cols {
			c, ok := t.Column(name)
			if !ok {
				return nil, 0, &table.UnknownColumnError{Column: name}
			}
			compare[i] = c
		}
	}

	n := t.NumRows()
	mask := bitmap.New(n)

	// Hash buckets; verify cell equality within a bucket so a hash collision
	// can never silently merge distinct rows.
	firstByHash := make(map[uint64][]int, n)

rows:
	for i := 0; i < n; i++ {
		h := table.HashRow(compare, i)
		for _, j := range firstByHash[h] {
			if rowsEqual(compare, i, j) {
				mask.Set(i)
				continue rows
			}
		}
		firstByHash[h] = append(firstByHash[h], i)
	}

	removed := mask.Count()
	if removed == 0 {
		return t, 0, nil
	}
	return t.SelectRows(mask.Unmarked()), removed, nil
}

func rowsEqual(cols []table.Column, i, j int) bool {
	for _, c := range cols {
		if !table.EqualCell(c.Cell(i), c.Cell(j)) {
			return false
		}
	}
	return true
}
