package storage

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"cleanse/internal/table"
)

type fakeRepo struct {
	calls  [][][]any
	cols   []string
	failAt int // 1-based call index to fail on; 0 never fails
	closed bool
}

func (f *fakeRepo) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	f.cols = columns
	copied := make([][]any, len(rows))
	copy(copied, rows)
	f.calls = append(f.calls, copied)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return 0, fmt.Errorf("boom")
	}
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(ctx context.Context, sql string) error { return nil }
func (f *fakeRepo) Close()                                     { f.closed = true }

func testTable(t *testing.T, n int) *table.Table {
	t.Helper()
	a := make([]any, n)
	b := make([]any, n)
	for i := 0; i < n; i++ {
		a[i] = int64(i)
		if i%3 == 0 {
			b[i] = nil
		} else {
			b[i] = fmt.Sprintf("v%d", i)
		}
	}
	tbl, err := table.New(
		table.NewColumn("id", table.Integer, a),
		table.NewColumn("label", table.Text, b),
	)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}

func TestLoadBatching(t *testing.T) {
	repo := &fakeRepo{}
	tbl := testTable(t, 7)

	total, err := Load(context.Background(), repo, tbl, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if total != 7 {
		t.Fatalf("total = %d, want 7", total)
	}
	if len(repo.calls) != 3 {
		t.Fatalf("batches = %d, want 3 (3+3+1)", len(repo.calls))
	}
	if !reflect.DeepEqual(repo.cols, []string{"id", "label"}) {
		t.Fatalf("columns = %v", repo.cols)
	}
	// Missing cells travel as nil.
	if repo.calls[0][0][1] != nil {
		t.Fatalf("row 0 label = %v, want nil", repo.calls[0][0][1])
	}
}

func TestLoadStopsOnCopyError(t *testing.T) {
	repo := &fakeRepo{failAt: 2}
	tbl := testTable(t, 7)

	_, err := Load(context.Background(), repo, tbl, 3)
	if err == nil {
		t.Fatalf("expected copy error")
	}
	if len(repo.calls) != 2 {
		t.Fatalf("batches = %d, want 2 (stop at failure)", len(repo.calls))
	}
}

func TestLoadDefaultBatchSize(t *testing.T) {
	repo := &fakeRepo{}
	tbl := testTable(t, 5)

	if _, err := Load(context.Background(), repo, tbl, 0); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(repo.calls) != 1 {
		t.Fatalf("batches = %d, want 1 under default batch size", len(repo.calls))
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, &fakeRepo{}, testTable(t, 2), 10); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestFactoryRegistry(t *testing.T) {
	Register("fake", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "fake"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	repo.Close()

	if _, err := New(context.Background(), Config{Kind: "nope"}); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}

func TestEnsureTableUnregisteredKind(t *testing.T) {
	err := EnsureTable(context.Background(), "nope", &fakeRepo{}, "t", testTable(t, 1))
	if err == nil {
		t.Fatalf("expected error for unregistered DDL kind")
	}
}
