// Package missing implements the per-column missing-value policy: a row may
// be dropped because governing columns are Missing, a Missing cell may be
// imputed with a fixed default, or it may be kept as-is for downstream
// stages.
//
// Drop conditions compose two ways, and the two differ materially in rows
// retained:
//
//   - each DropRowIfMissing rule is its own condition (OR across rules);
//   - a Groups entry lists columns that must ALL be Missing for the row to
//     drop (an explicit conjunction, e.g. "drop only when shape AND day_part
//     are both missing").
//
// Neither composition is a guessed default; callers state exactly which one
// they want.
package missing

import (
	"fmt"

	"cleanse/internal/bitmap"
	"cleanse/internal/table"
)

// RuleKind enumerates the per-column policies.
type RuleKind string

const (
	// KeepAsMissing leaves Missing cells untouched.
	KeepAsMissing RuleKind = "keep"
	// DropRowIfMissing removes any row where this column is Missing.
	DropRowIfMissing RuleKind = "drop-row"
	// ImputeWith replaces Missing cells with Rule.Default.
	ImputeWith RuleKind = "impute"
)

// Rule is the policy for one column.
type Rule struct {
	Kind RuleKind
	// Default is the imputation value for ImputeWith. Its dynamic type must
	// match the column's semantic type; that is the caller's contract.
	Default any
}

// Policy maps columns to rules and optionally adds conjunction groups.
type Policy struct {
	Rules map[string]Rule

	// Groups lists AND-composed drop conditions: a row is marked when every
	// column in one group is Missing. Groups combine with each other and
	// with DropRowIfMissing rules by OR.
	Groups [][]string
}

// governed returns every column name the policy references.
func (p Policy) governed() []string {
	var out []string
	for col := range p.Rules {
		out = append(out, col)
	}
	for _, g := range p.Groups {
		out = append(out, g...)
	}
	return out
}

// Apply evaluates the policy over t. Imputation happens before drop
// evaluation, so an imputed column can no longer trigger a drop. The returned
// table preserves relative row order; removed is the count of dropped rows,
// always reported so callers can assert on data loss.
func Apply(t *table.Table, p Policy) (out *table.Table, removed int, err error) {
	for _, col := range p.governed() {
		if !t.HasColumn(col) {
			return nil, 0, &table.UnknownColumnError{Column: col}
		}
	}
	for _, g := range p.Groups {
		if len(g) == 0 {
			return nil, 0, fmt.Errorf("missing: empty drop group")
		}
	}

	out = t

	// 1) Impute, walking columns in table order for determinism.
	for _, name := range t.Names() {
		rule, ok := p.Rules[name]
		if !ok || rule.Kind != ImputeWith {
			continue
		}
		src, _ := out.Column(name)
		cells := src.Cells()
		changed := false
		for i, v := range cells {
			if v == nil {
				cells[i] = rule.Default
				changed = true
			}
		}
		if !changed {
			continue
		}
		col := table.NewColumn(src.Name, src.Type, cells)
		col.Levels = src.Levels
		if out, err = out.WithColumn(col); err != nil {
			return nil, 0, err
		}
	}

	// 2) Mark rows to drop.
	mask := bitmap.New(out.NumRows())

	for _, name := range out.Names() {
		rule, ok := p.Rules[name]
		if !ok || rule.Kind != DropRowIfMissing {
			continue
		}
		col, _ := out.Column(name)
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				mask.Set(i)
			}
		}
	}

	for _, group := range p.Groups {
		cols := make([]table.Column, len(group))
		for j, name := range group {
			cols[j], _ = out.Column(name)
		}
		for i := 0; i < out.NumRows(); i++ {
			all := true
			for _, c := range cols {
				if !c.IsMissing(i) {
					all = false
					break
				}
			}
			if all {
				mask.Set(i)
			}
		}
	}

	removed = mask.Count()
	if removed == 0 {
		return out, 0, nil
	}
	return out.SelectRows(mask.Unmarked()), removed, nil
}
