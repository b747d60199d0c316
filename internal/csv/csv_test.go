package csv

import (
	"reflect"
	"strings"
	"testing"

	"cleanse/internal/table"
)

func TestParseHeaderNormalization(t *testing.T) {
	in := "\uFEFFSighting Shape,Day Part\ndisk,dawn\n"
	tbl, skipped, err := NewParser(Options{HasHeader: true}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d", skipped)
	}
	if !reflect.DeepEqual(tbl.Names(), []string{"sighting_shape", "day_part"}) {
		t.Fatalf("names = %v", tbl.Names())
	}
}

func TestParseHeaderMap(t *testing.T) {
	in := "Tvar,Doba\ndisk,dawn\n"
	tbl, _, err := NewParser(Options{
		HasHeader: true,
		HeaderMap: map[string]string{"Tvar": "shape", "Doba": "day_part"},
	}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(tbl.Names(), []string{"shape", "day_part"}) {
		t.Fatalf("names = %v", tbl.Names())
	}
}

func TestParseSkipsMisalignedRows(t *testing.T) {
	in := "a,b\n1,2\nonly-one\n3,4\n"
	tbl, skipped, err := NewParser(Options{HasHeader: true}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.NumRows())
	}
}

func TestParseEmptyAsMissingIsOptIn(t *testing.T) {
	in := "a,b\n1,\n"
	tbl, _, err := NewParser(Options{HasHeader: true}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, _ := tbl.Column("b")
	if b.IsMissing(0) {
		t.Fatal("empty string must stay a value by default")
	}

	tbl, _, err = NewParser(Options{HasHeader: true, EmptyAsMissing: true}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, _ = tbl.Column("b")
	if !b.IsMissing(0) {
		t.Fatal("EmptyAsMissing must tag empty fields as Missing")
	}
}

func TestParseDelimiterAndTrim(t *testing.T) {
	in := "a;b\n 1 ; x \n"
	tbl, _, err := NewParser(Options{HasHeader: true, Comma: ';', TrimSpace: true}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(tbl.Row(0), []any{"1", "x"}) {
		t.Fatalf("row = %#v", tbl.Row(0))
	}
}

func TestParseHeaderless(t *testing.T) {
	in := "1,2\n3,4\n"
	tbl, _, err := NewParser(Options{ExpectedFields: 2}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(tbl.Names(), []string{"col_0", "col_1"}) {
		t.Fatalf("names = %v", tbl.Names())
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("rows = %d", tbl.NumRows())
	}
}

func TestParseColumnsAreText(t *testing.T) {
	in := "n\n42\n"
	tbl, _, err := NewParser(Options{HasHeader: true}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, _ := tbl.Column("n")
	if c.Type != table.Text || c.Cell(0) != "42" {
		t.Fatalf("column = %v %#v", c.Type, c.Cell(0))
	}
}

func TestStreamingRewriter(t *testing.T) {
	// Pattern straddles internal chunk boundaries; use a small input with
	// repeats to exercise the carry logic.
	in := strings.Repeat(`x "bad`, 3)
	var sb strings.Builder
	r := newStreamingRewriter(strings.NewReader(in), []byte(` "bad`), []byte(` (ok)`))
	buf := make([]byte, 7) // deliberately tiny reads
	for {
		n, err := r.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if got, want := sb.String(), strings.Repeat("x (ok)", 3); got != want {
		t.Fatalf("rewritten = %q, want %q", got, want)
	}
}

func TestParseWithRewrite(t *testing.T) {
	in := "a,b\n\"broken \"\"v liquidation,2\n"
	tbl, _, err := NewParser(Options{
		HasHeader: true,
		Rewrites:  []Rewrite{{Old: ` ""v liquidation`, New: ` (v liquidation)"`}},
	}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", tbl.NumRows())
	}
	a, _ := tbl.Column("a")
	if a.Cell(0) != "broken (v liquidation)" {
		t.Fatalf("cell = %q", a.Cell(0))
	}
}
