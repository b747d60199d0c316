// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "clean.coerce.types.duration"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownTypes mirrors the semantic types the coerce stage accepts.
var knownTypes = map[string]struct{}{
	"text": {}, "categorical": {}, "integer": {}, "float": {},
	"boolean": {}, "date": {}, "datetime": {},
}

// knownReducers mirrors the reducers the group stage accepts.
var knownReducers = map[string]struct{}{
	"mean": {}, "sum": {}, "count": {}, "count-nonmissing": {},
	"min": {}, "max": {}, "first": {}, "last": {},
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values;
// callers decide whether to treat warnings as fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateClean(p.Clean)...)
	issues = append(issues, validateAnalysis(p)...)
	issues = append(issues, validateStorage(p.Storage)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires a non-empty url",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}
	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; ensure a matching implementation exists", p.Kind),
		})
		return issues
	}

	if !p.Options.Bool("has_header", false) && p.Options.Int("expected_fields", 0) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.options",
			Message:  "csv parser has neither has_header nor expected_fields; column names will be taken from the first data row width",
		})
	}
	return issues
}

func validateClean(c Clean) []Issue {
	var issues []Issue

	if co := c.Coerce; co != nil {
		needsLayout := false
		for col, typ := range co.Types {
			if _, ok := knownTypes[typ]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "clean.coerce.types." + col,
					Message:  fmt.Sprintf("unknown semantic type %q", typ),
				})
			}
			if typ == "date" || typ == "datetime" {
				needsLayout = true
			}
		}
		if needsLayout && strings.TrimSpace(co.Layout) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "clean.coerce.layout",
				Message:  "date/datetime columns require an explicit layout",
			})
		}
		if co.OnError != "" && co.OnError != "abort" && co.OnError != "to-missing" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "clean.coerce.on_error",
				Message:  fmt.Sprintf("on_error must be \"abort\" or \"to-missing\", got %q", co.OnError),
			})
		}
	}

	if m := c.Missing; m != nil {
		for col, r := range m.Rules {
			switch r.Kind {
			case "keep", "drop-row", "impute":
			default:
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "clean.missing.rules." + col,
					Message:  fmt.Sprintf("unknown rule kind %q", r.Kind),
				})
			}
			if r.Kind == "impute" && r.Default == nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "clean.missing.rules." + col,
					Message:  "impute rule requires a default value",
				})
			}
		}
		for i, g := range m.DropGroups {
			if len(g) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("clean.missing.drop_groups[%d]", i),
					Message:  "drop group must list at least one column",
				})
			}
		}
	}
	return issues
}

func validateAnalysis(p Pipeline) []Issue {
	var issues []Issue

	if p.Group != nil && p.TopK != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "group",
			Message:  "group and top_k are mutually exclusive",
		})
	}

	if g := p.Group; g != nil {
		if len(g.Key) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "group.key",
				Message:  "group requires at least one key column",
			})
		}
		if len(g.Aggs) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "group.aggs",
				Message:  "group has no aggregations; output will contain key columns only",
			})
		}
		for i, a := range g.Aggs {
			path := fmt.Sprintf("group.aggs[%d]", i)
			if a.Name == "" || a.Source == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path,
					Message:  "aggregation requires both name and source",
				})
			}
			if _, ok := knownReducers[a.Reducer]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".reducer",
					Message:  fmt.Sprintf("unknown reducer %q", a.Reducer),
				})
			}
		}
	}

	if tk := p.TopK; tk != nil {
		if len(tk.Key) == 0 || tk.OrderBy == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "top_k",
				Message:  "top_k requires key columns and an order_by column",
			})
		}
		if tk.K <= 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "top_k.k",
				Message:  "k must be > 0",
			})
		}
		if tk.Order != "" && tk.Order != "largest" && tk.Order != "smallest" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "top_k.order",
				Message:  fmt.Sprintf("order must be \"largest\" or \"smallest\", got %q", tk.Order),
			})
		}
	}
	return issues
}

func validateStorage(s *Storage) []Issue {
	if s == nil {
		return nil
	}
	var issues []Issue

	switch s.Kind {
	case "postgres", "sqlite", "mysql", "mssql":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty when storage is configured",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage requires a non-empty dsn",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage requires a non-empty table",
		})
	}
	return issues
}
