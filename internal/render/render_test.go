package render

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cleanse/internal/config"
	"cleanse/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewColumn("shape", table.Categorical, []any{"circle", "light", "fireball"}),
		table.NewColumn("count", table.Integer, []any{int64(12), int64(3), nil}),
		table.NewColumn("seen", table.Date, []any{
			time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			nil,
		}),
	)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tbl
}

func renderToString(t *testing.T, tbl *table.Table, opt Options) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.txt")
	opt.Path = path
	if err := Render(tbl, opt); err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func TestRenderText(t *testing.T) {
	out := renderToString(t, sampleTable(t), Options{Caption: "sightings by shape"})

	if !strings.HasPrefix(out, "sightings by shape\n") {
		t.Fatalf("missing caption:\n%s", out)
	}
	for _, want := range []string{"shape", "count", "seen", "circle", "2024-01-15", "NA", "(3 rows)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	// Columns align: every body line has the header's width or more.
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	header := lines[1]
	if !strings.Contains(header, "shape") {
		t.Fatalf("unexpected header line %q", header)
	}
}

func TestRenderTextTruncation(t *testing.T) {
	out := renderToString(t, sampleTable(t), Options{MaxRows: 1})
	if !strings.Contains(out, "... 2 more rows") {
		t.Fatalf("missing truncation footer:\n%s", out)
	}
	if strings.Contains(out, "light") {
		t.Fatalf("truncated row leaked:\n%s", out)
	}
	if !strings.Contains(out, "(3 rows)") {
		t.Fatalf("footer must report full count:\n%s", out)
	}
}

func TestRenderTextMissingPlaceholder(t *testing.T) {
	out := renderToString(t, sampleTable(t), Options{MissingAs: "-"})
	if strings.Contains(out, "NA") {
		t.Fatalf("default placeholder leaked:\n%s", out)
	}
}

func TestRenderCSV(t *testing.T) {
	out := renderToString(t, sampleTable(t), Options{Format: "csv"})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "shape,count,seen" {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("want 4 lines, got %d:\n%s", len(lines), out)
	}
	if lines[3] != "fireball,NA,NA" {
		t.Fatalf("missing row = %q", lines[3])
	}
}

func TestRenderColumnSubset(t *testing.T) {
	out := renderToString(t, sampleTable(t), Options{Format: "csv", Columns: []string{"count", "shape"}})
	if !strings.HasPrefix(out, "count,shape\n") {
		t.Fatalf("column order not honored:\n%s", out)
	}

	err := Render(sampleTable(t), Options{Path: filepath.Join(t.TempDir(), "x"), Columns: []string{"foo"}})
	var uc *table.UnknownColumnError
	if !errors.As(err, &uc) || uc.Column != "foo" {
		t.Fatalf("want UnknownColumnError for foo, got %v", err)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(sampleTable(t), Options{Path: filepath.Join(t.TempDir(), "x"), Format: "parquet"})
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("err = %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	opt := FromConfig(config.Render{
		Path:      "out.csv",
		Format:    "csv",
		Columns:   []string{"a"},
		Caption:   "c",
		MaxRows:   5,
		MissingAs: "-",
	})
	if opt.Path != "out.csv" || opt.Format != "csv" || opt.MaxRows != 5 || opt.MissingAs != "-" {
		t.Fatalf("opt = %+v", opt)
	}
}

func TestFormatCellTypes(t *testing.T) {
	ts := time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)
	dtCol := table.NewColumn("t", table.DateTime, []any{ts})
	if got := formatCell(dtCol, 0, Options{}); got != "2024-03-04T10:30:00Z" {
		t.Fatalf("datetime = %q", got)
	}
	fCol := table.NewColumn("f", table.Float, []any{2.5})
	if got := formatCell(fCol, 0, Options{}); got != "2.5" {
		t.Fatalf("float = %q", got)
	}
	bCol := table.NewColumn("b", table.Boolean, []any{true})
	if got := formatCell(bCol, 0, Options{}); got != "true" {
		t.Fatalf("bool = %q", got)
	}
}
