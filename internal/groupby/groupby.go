// Package groupby partitions a table by a key-column tuple and reduces each
// partition to summary values, plus deterministic top-k row selection within
// partitions.
//
// Partitions are formed from observed key tuples only and are emitted in
// first-seen order, independent of map iteration or hashing, so repeated runs
// over the same input produce identical output ordering. A Missing key cell
// is a distinct group value: rows with holes in the key form their own
// partition instead of being silently dropped.
package groupby

import (
	"fmt"

	"cleanse/internal/table"
)

// Reducer names an aggregation function.
type Reducer string

const (
	Mean            Reducer = "mean"
	Sum             Reducer = "sum"
	Count           Reducer = "count"
	CountNonMissing Reducer = "count-nonmissing"
	Min             Reducer = "min"
	Max             Reducer = "max"
	First           Reducer = "first"
	Last            Reducer = "last"
)

// ParseReducer maps a config string to a Reducer.
func ParseReducer(s string) (Reducer, bool) {
	switch Reducer(s) {
	case Mean, Sum, Count, CountNonMissing, Min, Max, First, Last:
		return Reducer(s), true
	}
	return "", false
}

// Agg maps one output column to (source column, reducer).
type Agg struct {
	Name    string
	Source  string
	Reducer Reducer
}

// Spec is a grouped-aggregation request.
type Spec struct {
	Key  []string
	Aggs []Agg
}

// partition is one group: the index of its first row plus all member rows.
type partition struct {
	rows []int
}

// partitionRows splits t into first-seen-ordered partitions over the key
// columns. Key hashing is verified with cell equality so collisions cannot
// merge distinct tuples.
func partitionRows(t *table.Table, key []string) ([]partition, []table.Column, error) {
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("groupby: empty group key")
	}
	keyCols := make([]table.Column, len(key))
	for i, name := range key {
		c, ok := t.Column(name)
		if !ok {
			return nil, nil, &table.UnknownColumnError{Column: name}
		}
		keyCols[i] = c
	}

	var parts []partition
	byHash := make(map[uint64][]int) // hash -> partition indexes

rows:
	for i := 0; i < t.NumRows(); i++ {
		h := table.HashRow(keyCols, i)
		for _, pi := range byHash[h] {
			first := parts[pi].rows[0]
			same := true
			for _, c := range keyCols {
				if !table.EqualCell(c.Cell(i), c.Cell(first)) {
					same = false
					break
				}
			}
			if same {
				parts[pi].rows = append(parts[pi].rows, i)
				continue rows
			}
		}
		byHash[h] = append(byHash[h], len(parts))
		parts = append(parts, partition{rows: []int{i}})
	}
	return parts, keyCols, nil
}

// Apply groups t by spec.Key and computes one output row per partition, in
// first-seen key order. Output columns are the key columns followed by one
// column per Agg.
func Apply(t *table.Table, spec Spec) (*table.Table, error) {
	parts, keyCols, err := partitionRows(t, spec.Key)
	if err != nil {
		return nil, err
	}
	for _, a := range spec.Aggs {
		if !t.HasColumn(a.Source) {
			return nil, &table.UnknownColumnError{Column: a.Source}
		}
	}

	out := make([]table.Column, 0, len(keyCols)+len(spec.Aggs))

	for _, kc := range keyCols {
		cells := make([]any, len(parts))
		for pi, p := range parts {
			cells[pi] = kc.Cell(p.rows[0])
		}
		col := table.NewColumn(kc.Name, kc.Type, cells)
		col.Levels = kc.Levels
		out = append(out, col)
	}

	for _, a := range spec.Aggs {
		src, _ := t.Column(a.Source)
		typ, err := outputType(a.Reducer, src)
		if err != nil {
			return nil, err
		}
		cells := make([]any, len(parts))
		for pi, p := range parts {
			v, err := reduce(a.Reducer, src, p.rows)
			if err != nil {
				return nil, fmt.Errorf("groupby: %s(%s): %w", a.Reducer, a.Source, err)
			}
			cells[pi] = v
		}
		out = append(out, table.NewColumn(a.Name, typ, cells))
	}

	return table.New(out...)
}

func numeric(t table.Type) bool { return t == table.Integer || t == table.Float }

func outputType(r Reducer, src table.Column) (table.Type, error) {
	switch r {
	case Mean:
		if !numeric(src.Type) {
			return "", fmt.Errorf("groupby: mean requires a numeric column, %q is %s", src.Name, src.Type)
		}
		return table.Float, nil
	case Sum:
		if !numeric(src.Type) {
			return "", fmt.Errorf("groupby: sum requires a numeric column, %q is %s", src.Name, src.Type)
		}
		return src.Type, nil
	case Count, CountNonMissing:
		return table.Integer, nil
	case Min, Max, First, Last:
		return src.Type, nil
	}
	return "", fmt.Errorf("groupby: unknown reducer %q", r)
}

// reduce computes one reducer over the partition rows. Mean and Sum skip
// Missing inputs and yield Missing only when every input is Missing; Count
// includes Missing rows; Min and Max exclude Missing from comparison and
// break ties toward the first-seen row.
func reduce(r Reducer, src table.Column, rows []int) (any, error) {
	switch r {
	case Count:
		return int64(len(rows)), nil

	case CountNonMissing:
		n := int64(0)
		for _, i := range rows {
			if !src.IsMissing(i) {
				n++
			}
		}
		return n, nil

	case First:
		return src.Cell(rows[0]), nil

	case Last:
		return src.Cell(rows[len(rows)-1]), nil

	case Mean, Sum:
		var sum float64
		var isum int64
		n := 0
		for _, i := range rows {
			switch x := src.Cell(i).(type) {
			case nil:
				continue
			case int64:
				next := isum + x
				// int64 wraps on overflow; the sign flip detects it.
				if r == Sum && ((x > 0 && next < isum) || (x < 0 && next > isum)) {
					return nil, fmt.Errorf("integer sum overflow in column %q", src.Name)
				}
				isum = next
				sum += float64(x)
				n++
			case float64:
				sum += x
				n++
			default:
				return nil, fmt.Errorf("non-numeric cell %T", x)
			}
		}
		if n == 0 {
			return nil, nil // all inputs Missing
		}
		if r == Sum {
			if src.Type == table.Integer {
				return isum, nil
			}
			return sum, nil
		}
		return sum / float64(n), nil

	case Min, Max:
		var best any
		for _, i := range rows {
			v := src.Cell(i)
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			// Strict comparisons keep the first-seen row on ties.
			if r == Min {
				less, err := lessCell(v, best)
				if err != nil {
					return nil, err
				}
				if less {
					best = v
				}
			} else {
				greater, err := lessCell(best, v)
				if err != nil {
					return nil, err
				}
				if greater {
					best = v
				}
			}
		}
		return best, nil
	}
	return nil, fmt.Errorf("unknown reducer %q", r)
}
