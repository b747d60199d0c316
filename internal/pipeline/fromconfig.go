package pipeline

import (
	"fmt"
	"time"

	"cleanse/internal/coerce"
	"cleanse/internal/config"
	"cleanse/internal/groupby"
	"cleanse/internal/missing"
	"cleanse/internal/table"
)

// FromConfig translates the JSON pipeline model into runnable Options.
// String-typed enums (semantic types, reducers, rule kinds) are parsed here
// so that a malformed config surfaces as a single descriptive error before
// any data is touched.
func FromConfig(p config.Pipeline) (Options, error) {
	var opt Options

	if c := p.Clean.Coerce; c != nil {
		spec, err := coerceSpec(c)
		if err != nil {
			return Options{}, err
		}
		opt.Coerce = spec
	}

	if m := p.Clean.Missing; m != nil {
		pol, err := missingPolicy(m, p.Clean.Coerce)
		if err != nil {
			return Options{}, err
		}
		opt.Missing = pol
	}

	if d := p.Clean.Dedup; d != nil && d.Enabled {
		opt.Dedup = &DedupSpec{Columns: d.Columns}
	}

	if g := p.Group; g != nil {
		spec, err := groupSpec(g)
		if err != nil {
			return Options{}, err
		}
		opt.Group = spec
	}

	if tk := p.TopK; tk != nil {
		if tk.Order != "" && tk.Order != "largest" && tk.Order != "smallest" {
			return Options{}, fmt.Errorf("top_k: unknown order %q", tk.Order)
		}
		opt.TopK = &TopKSpec{
			Key:     tk.Key,
			OrderBy: tk.OrderBy,
			K:       tk.K,
			Largest: tk.Order != "smallest",
		}
	}

	return opt, nil
}

func coerceSpec(c *config.Coerce) (*coerce.Spec, error) {
	spec := &coerce.Spec{
		Types:  make(map[string]table.Type, len(c.Types)),
		Layout: c.Layout,
		Truthy: c.Truthy,
		Falsy:  c.Falsy,
	}
	for col, s := range c.Types {
		typ, ok := table.ParseType(s)
		if !ok {
			return nil, fmt.Errorf("coerce: column %q: unknown type %q", col, s)
		}
		spec.Types[col] = typ
	}
	switch c.OnError {
	case "", "abort":
		spec.OnError = coerce.Abort
	case "to-missing":
		spec.OnError = coerce.ToMissing
	default:
		return nil, fmt.Errorf("coerce: unknown on_error %q", c.OnError)
	}
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("coerce: timezone: %w", err)
		}
		spec.Location = loc
	}
	return spec, nil
}

func missingPolicy(m *config.Missingness, c *config.Coerce) (*missing.Policy, error) {
	pol := &missing.Policy{
		Rules:  make(map[string]missing.Rule, len(m.Rules)),
		Groups: m.DropGroups,
	}
	for col, r := range m.Rules {
		rule := missing.Rule{Default: r.Default}
		switch r.Kind {
		case "keep":
			rule.Kind = missing.KeepAsMissing
		case "drop-row":
			rule.Kind = missing.DropRowIfMissing
		case "impute":
			rule.Kind = missing.ImputeWith
		default:
			return nil, fmt.Errorf("missing: column %q: unknown rule kind %q", col, r.Kind)
		}
		if rule.Kind == missing.ImputeWith && c != nil {
			if typ, ok := table.ParseType(c.Types[col]); ok {
				v, err := normalizeDefault(rule.Default, typ)
				if err != nil {
					return nil, fmt.Errorf("missing: column %q: %w", col, err)
				}
				rule.Default = v
			}
		}
		pol.Rules[col] = rule
	}
	return pol, nil
}

// normalizeDefault aligns a JSON-decoded imputation value with the column's
// concrete cell type. JSON numbers decode as float64, so an integer column's
// default arrives as 7.0 and must be stored as int64(7).
func normalizeDefault(v any, typ table.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typ {
	case table.Integer:
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("default %v is not an integer", n)
			}
			return int64(n), nil
		case int64:
			return n, nil
		}
	case table.Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		}
	case table.Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case table.Text, table.Categorical:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case table.Date, table.DateTime:
		// Date defaults are not supported from JSON; an explicit value of a
		// concrete time.Time may still be set programmatically.
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		return nil, fmt.Errorf("default for date column must be set programmatically")
	}
	return nil, fmt.Errorf("default %v (%T) does not match column type %s", v, v, typ)
}

func groupSpec(g *config.Group) (*groupby.Spec, error) {
	spec := &groupby.Spec{Key: g.Key, Aggs: make([]groupby.Agg, 0, len(g.Aggs))}
	for _, a := range g.Aggs {
		red, ok := groupby.ParseReducer(a.Reducer)
		if !ok {
			return nil, fmt.Errorf("group: aggregation %q: unknown reducer %q", a.Name, a.Reducer)
		}
		spec.Aggs = append(spec.Aggs, groupby.Agg{Name: a.Name, Source: a.Source, Reducer: red})
	}
	return spec, nil
}
