package missing

import (
	"errors"
	"reflect"
	"testing"

	"cleanse/internal/table"
)

// ufoTable mirrors the end-to-end fixture: 5 rows, shape missing in rows 2
// and 4 (1-based), day_part missing in row 4 only.
func ufoTable() *table.Table {
	return table.MustNew(
		table.NewColumn("shape", table.Text, []any{"disk", nil, "light", nil, "oval"}),
		table.NewColumn("day_part", table.Text, []any{"dawn", "dusk", "night", nil, "noon"}),
	)
}

func TestConjunctionGroupDropsOnlyJointlyMissing(t *testing.T) {
	out, removed, err := Apply(ufoTable(), Policy{
		Groups: [][]string{{"shape", "day_part"}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Row 2 (shape missing, day_part present) survives; row 4 drops.
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if out.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4", out.NumRows())
	}
	dp, _ := out.Column("day_part")
	if !reflect.DeepEqual(dp.Cells(), []any{"dawn", "dusk", "night", "noon"}) {
		t.Fatalf("day_part = %#v", dp.Cells())
	}
}

func TestDisjunctionRulesDropEitherMissing(t *testing.T) {
	out, removed, err := Apply(ufoTable(), Policy{
		Rules: map[string]Rule{
			"shape":    {Kind: DropRowIfMissing},
			"day_part": {Kind: DropRowIfMissing},
		},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// OR semantics: rows 2 and 4 both drop.
	if removed != 2 || out.NumRows() != 3 {
		t.Fatalf("removed = %d rows = %d, want 2 and 3", removed, out.NumRows())
	}
}

func TestRowCountConservation(t *testing.T) {
	in := ufoTable()
	out, removed, err := Apply(in, Policy{
		Rules: map[string]Rule{"shape": {Kind: DropRowIfMissing}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.NumRows()+removed != in.NumRows() {
		t.Fatalf("|out| + removed = %d + %d, want %d", out.NumRows(), removed, in.NumRows())
	}
}

func TestImputeBeforeDrop(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("shape", table.Text, []any{nil, "disk"}),
	)
	out, removed, err := Apply(in, Policy{
		Rules: map[string]Rule{
			"shape": {Kind: ImputeWith, Default: "unknown"},
		},
		Groups: [][]string{{"shape"}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, imputed column must not trigger drops", removed)
	}
	c, _ := out.Column("shape")
	if !reflect.DeepEqual(c.Cells(), []any{"unknown", "disk"}) {
		t.Fatalf("cells = %#v", c.Cells())
	}
}

func TestKeepAsMissingIsNoop(t *testing.T) {
	in := ufoTable()
	out, removed, err := Apply(in, Policy{
		Rules: map[string]Rule{"shape": {Kind: KeepAsMissing}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if removed != 0 || out.NumRows() != in.NumRows() {
		t.Fatal("keep rule must not remove rows")
	}
	c, _ := out.Column("shape")
	if !c.IsMissing(1) {
		t.Fatal("Missing must remain tagged Missing")
	}
}

func TestUnknownGovernedColumn(t *testing.T) {
	_, _, err := Apply(ufoTable(), Policy{
		Rules: map[string]Rule{"foo": {Kind: DropRowIfMissing}},
	})
	var ue *table.UnknownColumnError
	if !errors.As(err, &ue) || ue.Column != "foo" {
		t.Fatalf("want UnknownColumnError for \"foo\", got %v", err)
	}
}

func TestEmptyStringIsNotMissing(t *testing.T) {
	in := table.MustNew(table.NewColumn("s", table.Text, []any{"", nil}))
	out, removed, err := Apply(in, Policy{
		Rules: map[string]Rule{"s": {Kind: DropRowIfMissing}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if removed != 1 || out.NumRows() != 1 {
		t.Fatalf("removed = %d, want 1 (empty string must survive)", removed)
	}
	c, _ := out.Column("s")
	if c.Cell(0) != "" {
		t.Fatalf("cell = %#v, want empty string", c.Cell(0))
	}
}
