// Package config defines the canonical, JSON-serializable configuration model
// for cleaning pipelines. It is intentionally small and explicit so that
// pipeline files can be loaded from disk and passed through the program
// without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure used in pipeline
//     files.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library, with a light Options helper for the free-form
//     parser block.
//
// Example (trimmed):
//
//	{
//	  "job":    "ufo",
//	  "source": { "kind": "file", "file": { "path": "data/ufo.csv" } },
//	  "parser": { "kind": "csv", "options": { "has_header": true, "empty_as_missing": true } },
//	  "clean": {
//	    "coerce":  { "types": { "duration": "integer" }, "layout": "2006-01-02" },
//	    "missing": { "drop_groups": [["shape", "day_part"]] },
//	    "dedup":   { "enabled": true }
//	  },
//	  "group":   { "key": ["shape"], "aggs": [ { "name": "n", "source": "shape", "reducer": "count" } ] },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "ufo.db", "table": "sightings" } }
//	}
package config

import "encoding/json"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for metrics labeling and log prefixes.
	Job string `json:"job"`

	// Source describes where the raw dataset comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes become a raw table.
	Parser Parser `json:"parser"`

	// Clean configures the coerce, missingness, and dedup stages.
	Clean Clean `json:"clean"`

	// Group optionally configures grouped aggregation of the cleaned table.
	Group *Group `json:"group,omitempty"`

	// TopK optionally selects extremal rows per partition instead of
	// reducing; mutually exclusive with Group.
	TopK *TopK `json:"top_k,omitempty"`

	// Storage optionally persists the final table.
	Storage *Storage `json:"storage,omitempty"`

	// Render optionally writes a human-facing artifact of the final table.
	Render *Render `json:"render,omitempty"`

	// Runtime controls batch sizes and concurrency for multi-job runs.
	Runtime Runtime `json:"runtime"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url"`

	// AllowInsecureTLS skips certificate verification; useful for
	// self-signed internal endpoints.
	AllowInsecureTLS bool `json:"allow_insecure_tls,omitempty"`
}

// Parser selects how to parse the raw source into a table.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include: has_header (bool), comma (string),
	// trim_space (bool), expected_fields (int), header_map (object),
	// empty_as_missing (bool), rewrites (array of {old,new}).
	Options Options `json:"options"`
}

// Clean configures the three cleaning stages. Absent blocks skip the stage.
type Clean struct {
	Coerce  *Coerce      `json:"coerce,omitempty"`
	Missing *Missingness `json:"missing,omitempty"`
	Dedup   *Dedup       `json:"dedup,omitempty"`
}

// Coerce configures per-column type coercion.
type Coerce struct {
	// Types maps column name -> semantic type: "text", "categorical",
	// "integer", "float", "boolean", "date", "datetime".
	Types map[string]string `json:"types"`

	// Layout is the Go reference-time layout for date/datetime columns.
	Layout string `json:"layout,omitempty"`

	// Timezone is an IANA zone name resolving wall-clock datetimes;
	// empty means UTC.
	Timezone string `json:"timezone,omitempty"`

	// OnError is "abort" (default) or "to-missing" for date/datetime
	// failures.
	OnError string `json:"on_error,omitempty"`

	// Truthy and Falsy override the recognized boolean vocabularies.
	Truthy []string `json:"truthy,omitempty"`
	Falsy  []string `json:"falsy,omitempty"`
}

// Missingness configures the missing-value policy.
type Missingness struct {
	// Rules maps column name -> rule. Kind is "keep", "drop-row", or
	// "impute"; Default carries the imputation value for "impute".
	Rules map[string]MissingRule `json:"rules,omitempty"`

	// DropGroups lists AND-composed drop conditions: a row drops only when
	// every column in one group is missing. Groups OR with each other and
	// with "drop-row" rules.
	DropGroups [][]string `json:"drop_groups,omitempty"`
}

// MissingRule is the JSON form of one column's missingness rule.
type MissingRule struct {
	Kind    string `json:"kind"`
	Default any    `json:"default,omitempty"`
}

// Dedup configures duplicate-row elimination.
type Dedup struct {
	Enabled bool `json:"enabled"`

	// Columns restricts the equality contract; empty means all columns.
	Columns []string `json:"columns,omitempty"`
}

// Group configures grouped aggregation.
type Group struct {
	Key  []string `json:"key"`
	Aggs []Agg    `json:"aggs"`
}

// Agg maps one output column to a source column and reducer.
type Agg struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Reducer string `json:"reducer"`
}

// TopK configures extremal row selection per partition.
type TopK struct {
	Key     []string `json:"key"`
	OrderBy string   `json:"order_by"`
	K       int      `json:"k"`
	// Order is "largest" (default) or "smallest".
	Order string `json:"order,omitempty"`
}

// Storage selects the sink used to persist the final table.
type Storage struct {
	// Kind selects the storage implementation: "postgres", "sqlite",
	// "mysql", or "mssql".
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend connection string (pgx pool DSN, sqlite path,
	// mysql DSN).
	DSN string `json:"dsn"`

	// Table is the destination table name (fully qualified where the
	// backend supports schemas, e.g. "public.sightings").
	Table string `json:"table"`

	// AutoCreateTable creates the destination table from the final table's
	// column types before loading.
	AutoCreateTable bool `json:"auto_create_table"`

	// BatchSize caps rows per bulk write; 0 uses the loader default.
	BatchSize int `json:"batch_size,omitempty"`
}

// Render configures the human-facing artifact of the final table.
type Render struct {
	// Path is the output file; empty writes to stdout.
	Path string `json:"path,omitempty"`

	// Format is "text" (aligned columns, default) or "csv".
	Format string `json:"format,omitempty"`

	// Columns restricts and orders the rendered columns; empty renders all.
	Columns []string `json:"columns,omitempty"`

	// Caption is printed above the table.
	Caption string `json:"caption,omitempty"`

	// MaxRows truncates the rendered body; 0 renders every row.
	MaxRows int `json:"max_rows,omitempty"`

	// MissingAs is the placeholder for Missing cells; default "NA".
	MissingAs string `json:"missing_as,omitempty"`
}

// Runtime controls concurrency for multi-pipeline invocations.
type Runtime struct {
	// Workers caps concurrently running pipelines when several configs are
	// passed to one invocation. 0 means one goroutine per pipeline.
	Workers int `json:"workers"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It performs only
// minimal type coercion and returns provided defaults when a key is absent or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Useful for single-character settings such as a CSV
// delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	switch m := o[key].(type) {
	case map[string]any:
		for k, vv := range m {
			if s, ok := vv.(string); ok {
				res[k] = s
			}
		}
	case map[string]string:
		for k, s := range m {
			res[k] = s
		}
	}
	return res
}

// Any returns the raw value for key, which may itself be a nested
// map[string]any, []any, or primitive.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON decodes a missing or null "options" object to a non-nil,
// empty Options map, removing the need for nil checks at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// MarshalConfig renders a Pipeline as indented JSON, e.g. for the probe tool
// to emit ready-to-edit pipeline files.
func MarshalConfig(p Pipeline) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
