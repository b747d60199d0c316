// Package coerce converts raw text columns into typed columns according to a
// per-column target type map. It is the first pipeline stage: downstream
// stages rely on the semantic type resolved here and never re-infer types.
//
// Failure policy differs by target type:
//
//   - Integer/Float/Boolean: a value that does not parse becomes Missing and
//     is counted per column. It is never replaced by a silent zero.
//   - Date/DateTime: the default policy is abort-on-first-error, returning a
//     ParseError that names the row and raw value; timestamps silently turned
//     into Missing corrupt time-series work, so the downgrade to Missing is
//     opt-in via OnError.
package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cleanse/internal/table"
)

// ErrorMode selects how date/datetime parse failures are handled.
type ErrorMode string

const (
	// Abort stops the coercion at the first unparseable date value.
	Abort ErrorMode = "abort"
	// ToMissing records the failure and stores Missing instead.
	ToMissing ErrorMode = "to-missing"
)

// Spec configures the coercion stage.
type Spec struct {
	// Types maps column name -> target semantic type. Columns not listed are
	// passed through unchanged.
	Types map[string]table.Type

	// Layout is the date/datetime layout (Go reference time). Required when
	// any column targets Date or DateTime.
	Layout string

	// Location resolves wall-clock datetimes; nil means time.UTC. An explicit
	// zone is required semantics, not a convenience: layouts without a zone
	// suffix are otherwise ambiguous.
	Location *time.Location

	// OnError governs Date/DateTime failures. Empty means Abort.
	OnError ErrorMode

	// Truthy and Falsy override the recognized boolean vocabularies
	// (lowercase). When empty, defaults cover true/false, t/f, yes/no, y/n,
	// and 1/0.
	Truthy []string
	Falsy  []string
}

// Stats reports per-column coercion failure counts. A column appears only if
// at least one value failed to parse.
type Stats struct {
	Failures map[string]int
}

// Total returns the sum of all per-column failure counts.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.Failures {
		n += c
	}
	return n
}

// ParseError reports a raw value that does not match the target type grammar.
type ParseError struct {
	Column string
	Row    int
	Raw    string
	Type   table.Type
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("coerce: column %q row %d: %q is not a valid %s",
		e.Column, e.Row, e.Raw, e.Type)
}

var (
	defaultTruthy = map[string]struct{}{
		"1": {}, "t": {}, "true": {}, "yes": {}, "y": {},
	}
	defaultFalsy = map[string]struct{}{
		"0": {}, "f": {}, "false": {}, "no": {}, "n": {},
	}
)

func boolSets(spec Spec) (truthy, falsy map[string]struct{}) {
	truthy, falsy = defaultTruthy, defaultFalsy
	if len(spec.Truthy) > 0 {
		truthy = make(map[string]struct{}, len(spec.Truthy))
		for _, s := range spec.Truthy {
			truthy[strings.ToLower(s)] = struct{}{}
		}
	}
	if len(spec.Falsy) > 0 {
		falsy = make(map[string]struct{}, len(spec.Falsy))
		for _, s := range spec.Falsy {
			falsy[strings.ToLower(s)] = struct{}{}
		}
	}
	return truthy, falsy
}

// Apply coerces the listed columns of t and returns a new table plus failure
// stats. Referencing a column absent from t is a caller defect and returns a
// table.UnknownColumnError.
func Apply(t *table.Table, spec Spec) (*table.Table, Stats, error) {
	stats := Stats{Failures: map[string]int{}}
	if len(spec.Types) == 0 {
		return t, stats, nil
	}

	for col, typ := range spec.Types {
		if !t.HasColumn(col) {
			return nil, Stats{}, &table.UnknownColumnError{Column: col}
		}
		if (typ == table.Date || typ == table.DateTime) && spec.Layout == "" {
			return nil, Stats{}, fmt.Errorf("coerce: column %q targets %s but no layout is configured", col, typ)
		}
	}

	truthy, falsy := boolSets(spec)
	loc := spec.Location
	if loc == nil {
		loc = time.UTC
	}
	mode := spec.OnError
	if mode == "" {
		mode = Abort
	}

	out := t
	// Deterministic column order: walk the table, not the map.
	for _, name := range t.Names() {
		typ, ok := spec.Types[name]
		if !ok {
			continue
		}
		src, _ := out.Column(name)
		coerced, failed, err := coerceColumn(src, typ, spec.Layout, loc, mode, truthy, falsy)
		if err != nil {
			return nil, Stats{}, err
		}
		if failed > 0 {
			stats.Failures[name] = failed
		}
		out, err = out.WithColumn(coerced)
		if err != nil {
			return nil, Stats{}, err
		}
	}
	return out, stats, nil
}

func coerceColumn(
	src table.Column,
	typ table.Type,
	layout string,
	loc *time.Location,
	mode ErrorMode,
	truthy, falsy map[string]struct{},
) (table.Column, int, error) {
	n := src.Len()
	cells := make([]any, n)
	failed := 0
	var levels []string
	var seen map[string]struct{}
	if typ == table.Categorical {
		seen = make(map[string]struct{})
	}

	for i := 0; i < n; i++ {
		v := src.Cell(i)
		if v == nil {
			continue // Missing stays Missing
		}
		raw, isStr := v.(string)
		if !isStr {
			// Already typed (e.g. re-running coerce on a typed table): keep.
			cells[i] = v
			continue
		}

		switch typ {
		case table.Text:
			cells[i] = raw

		case table.Categorical:
			cells[i] = raw
			if _, dup := seen[raw]; !dup {
				seen[raw] = struct{}{}
				levels = append(levels, raw)
			}

		case table.Integer:
			if x, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
				cells[i] = x
			} else {
				failed++
			}

		case table.Float:
			if x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				cells[i] = x
			} else {
				failed++
			}

		case table.Boolean:
			s := strings.ToLower(strings.TrimSpace(raw))
			if _, ok := truthy[s]; ok {
				cells[i] = true
			} else if _, ok := falsy[s]; ok {
				cells[i] = false
			} else {
				failed++
			}

		case table.Date, table.DateTime:
			x, err := time.ParseInLocation(layout, strings.TrimSpace(raw), loc)
			if err != nil {
				if mode == Abort {
					return table.Column{}, 0, &ParseError{
						Column: src.Name, Row: i, Raw: raw, Type: typ,
					}
				}
				failed++
				break
			}
			cells[i] = x

		default:
			return table.Column{}, 0, fmt.Errorf("coerce: unsupported target type %q", typ)
		}
	}

	out := table.NewColumn(src.Name, typ, cells)
	out.Levels = levels
	return out, failed, nil
}
