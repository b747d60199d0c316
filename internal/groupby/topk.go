package groupby

import (
	"fmt"
	"sort"
	"time"

	"cleanse/internal/table"
)

// lessCell orders two non-nil cells of the same column. Cross-type
// comparisons are a schema defect and return an error.
func lessCell(a, b any) (bool, error) {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return x < y, nil
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y, nil
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y, nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			return !x && y, nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Before(y), nil
		}
	}
	return false, fmt.Errorf("incomparable cells %T and %T", a, b)
}

// TopK selects, within each partition of t over key, the k rows with the
// largest (or smallest) value of orderBy. Ties break by original row order;
// rows whose orderBy cell is Missing rank after every concrete value; when k
// meets or exceeds the partition size the whole partition is returned.
// Partitions appear in first-seen key order and the result carries every
// column of t.
func TopK(t *table.Table, key []string, orderBy string, k int, largest bool) (*table.Table, error) {
	if k <= 0 {
		return nil, fmt.Errorf("groupby: top-k requires k > 0, got %d", k)
	}
	ord, ok := t.Column(orderBy)
	if !ok {
		return nil, &table.UnknownColumnError{Column: orderBy}
	}
	parts, _, err := partitionRows(t, key)
	if err != nil {
		return nil, err
	}

	var selected []int
	for _, p := range parts {
		rows := append([]int(nil), p.rows...)
		var sortErr error
		sort.SliceStable(rows, func(a, b int) bool {
			if sortErr != nil {
				return false
			}
			va, vb := ord.Cell(rows[a]), ord.Cell(rows[b])
			if va == nil || vb == nil {
				// Missing ranks last regardless of direction.
				return vb == nil && va != nil
			}
			var less bool
			var err error
			if largest {
				less, err = lessCell(vb, va)
			} else {
				less, err = lessCell(va, vb)
			}
			if err != nil {
				sortErr = err
				return false
			}
			return less
		})
		if sortErr != nil {
			return nil, fmt.Errorf("groupby: top-k over %q: %w", orderBy, sortErr)
		}
		if k < len(rows) {
			rows = rows[:k]
		}
		selected = append(selected, rows...)
	}

	return t.SelectRows(selected), nil
}
