package csv

import "cleanse/internal/config"

// FromConfig interprets the free-form parser options block. Unknown keys are
// ignored so that configs stay forward compatible.
//
// Recognized keys: has_header (bool), comma (string, first rune),
// trim_space (bool), expected_fields (int), header_map (object of strings),
// empty_as_missing (bool), rewrites (array of {"old","new"} objects).
func FromConfig(o config.Options) Options {
	opt := Options{
		HasHeader:      o.Bool("has_header", false),
		Comma:          o.Rune("comma", ','),
		TrimSpace:      o.Bool("trim_space", false),
		ExpectedFields: o.Int("expected_fields", 0),
		EmptyAsMissing: o.Bool("empty_as_missing", false),
	}
	if m := o.StringMap("header_map"); len(m) > 0 {
		opt.HeaderMap = m
	}
	if raw, ok := o.Any("rewrites").([]any); ok {
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			old, _ := m["old"].(string)
			nw, _ := m["new"].(string)
			if old != "" {
				opt.Rewrites = append(opt.Rewrites, Rewrite{Old: old, New: nw})
			}
		}
	}
	return opt
}
