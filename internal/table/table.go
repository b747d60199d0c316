// Package table defines the in-memory tabular data model shared by every
// pipeline stage: an immutable ordered collection of equal-length, uniquely
// named, semantically typed columns.
//
// Missing values are represented by a nil cell, never by an empty string or a
// zero value. Concrete cell values are restricted per semantic type:
//
//	Text, Categorical → string
//	Integer           → int64
//	Float             → float64
//	Boolean           → bool
//	Date, DateTime    → time.Time
//
// Tables are values: stages construct new Tables from old ones and never
// mutate a Table visible to another stage. The constructor enforces the
// structural invariants (equal column lengths, unique column names) so that
// malformed tables fail at construction, not at use.
package table

import (
	"fmt"
)

// Type is the semantic type of a Column.
type Type string

const (
	Text        Type = "text"
	Categorical Type = "categorical"
	Integer     Type = "integer"
	Float       Type = "float"
	Boolean     Type = "boolean"
	Date        Type = "date"
	DateTime    Type = "datetime"
)

// ParseType maps a config string to a Type. Unknown names return false.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case Text, Categorical, Integer, Float, Boolean, Date, DateTime:
		return Type(s), true
	}
	return "", false
}

// Column is a named, typed, ordered sequence of cells. A nil cell is the
// explicit Missing marker.
type Column struct {
	Name string
	Type Type

	// Levels holds the category labels of a Categorical column in first-seen
	// order. Nil for other types.
	Levels []string

	cells []any
}

// NewColumn builds a Column over the given cells. The cells slice is copied
// so later mutation by the caller cannot leak into a Table.
func NewColumn(name string, typ Type, cells []any) Column {
	cp := make([]any, len(cells))
	copy(cp, cells)
	return Column{Name: name, Type: typ, cells: cp}
}

// Len returns the number of cells.
func (c Column) Len() int { return len(c.cells) }

// Cell returns the value at row i; nil means Missing.
func (c Column) Cell(i int) any { return c.cells[i] }

// IsMissing reports whether row i holds the Missing marker.
func (c Column) IsMissing(i int) bool { return c.cells[i] == nil }

// Cells returns a copy of the cell slice.
func (c Column) Cells() []any {
	cp := make([]any, len(c.cells))
	copy(cp, c.cells)
	return cp
}

// InvariantError reports a structurally invalid table: mismatched column
// lengths or duplicate column names. It is returned by New and never allowed
// to propagate as a half-built Table.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "table: " + e.Msg }

// UnknownColumnError reports a caller configuration defect: an operation
// referenced a column that does not exist in the table.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("table: unknown column %q", e.Column)
}

// Table is an immutable ordered collection of equal-length columns with
// unique names.
type Table struct {
	cols   []Column
	byName map[string]int
	nrows  int
}

// New validates and assembles a Table from the given columns. All columns
// must have identical length and distinct names.
func New(cols ...Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, &InvariantError{Msg: fmt.Sprintf("column %d has empty name", i)}
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, &InvariantError{Msg: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		if i == 0 {
			t.nrows = c.Len()
		} else if c.Len() != t.nrows {
			return nil, &InvariantError{Msg: fmt.Sprintf(
				"column %q has %d rows, want %d", c.Name, c.Len(), t.nrows)}
		}
		t.byName[c.Name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New for static test fixtures; it panics on invariant violations.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in declaration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Row returns the positional tuple at row i, one cell per column.
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.cells[i]
	}
	return out
}

// Rows materializes every row tuple. Intended for handing the table to a
// storage sink; column order matches Names().
func (t *Table) Rows() [][]any {
	out := make([][]any, t.nrows)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// SelectRows builds a new Table containing the given row indexes in the given
// order. Column names, types, and levels carry over unchanged.
func (t *Table) SelectRows(idx []int) *Table {
	cols := make([]Column, len(t.cols))
	for j, c := range t.cols {
		cells := make([]any, len(idx))
		for k, i := range idx {
			cells[k] = c.cells[i]
		}
		cols[j] = Column{Name: c.Name, Type: c.Type, Levels: c.Levels, cells: cells}
	}
	out, err := New(cols...)
	if err != nil {
		// Row selection cannot introduce length or name conflicts.
		panic(err)
	}
	return out
}

// WithColumn returns a new Table with the named column replaced. The
// replacement must keep the same name and row count.
func (t *Table) WithColumn(c Column) (*Table, error) {
	i, ok := t.byName[c.Name]
	if !ok {
		return nil, &UnknownColumnError{Column: c.Name}
	}
	if c.Len() != t.nrows {
		return nil, &InvariantError{Msg: fmt.Sprintf(
			"replacement column %q has %d rows, want %d", c.Name, c.Len(), t.nrows)}
	}
	cols := make([]Column, len(t.cols))
	copy(cols, t.cols)
	cols[i] = c
	return New(cols...)
}
