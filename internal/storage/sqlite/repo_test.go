package sqlite

import (
	"context"
	"testing"

	"cleanse/internal/storage"
	"cleanse/internal/table"
)

func newMemRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{
		DSN:   ":memory:",
		Table: "sightings",
	})
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func TestCopyFromRoundTrip(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()

	if err := r.Exec(ctx, `CREATE TABLE "sightings" ("shape" TEXT, "n" INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows := [][]any{
		{"circle", int64(3)},
		{"disk", nil},
	}
	n, err := r.CopyFrom(ctx, []string{"shape", "n"}, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "sightings"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	var nulls int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "sightings" WHERE "n" IS NULL`).Scan(&nulls); err != nil {
		t.Fatalf("nulls: %v", err)
	}
	if nulls != 1 {
		t.Fatalf("null cells = %d, want 1", nulls)
	}
}

func TestCopyFromRowWidthMismatch(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()
	if err := r.Exec(ctx, `CREATE TABLE "sightings" ("shape" TEXT, "n" INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.CopyFrom(ctx, []string{"shape", "n"}, [][]any{{"circle"}}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestNewRepositoryEmptyDSN(t *testing.T) {
	t.Parallel()
	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestDDLBootstrap(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()

	final := table.MustNew(
		table.NewColumn("shape", table.Categorical, []any{"circle"}),
		table.NewColumn("avg_duration", table.Float, []any{12.5}),
	)
	wrapped := &wrappedRepo{Repository: r}
	if err := storage.EnsureTable(ctx, "sqlite", wrapped, "agg", final); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// Idempotent: IF NOT EXISTS makes a second bootstrap a no-op.
	if err := storage.EnsureTable(ctx, "sqlite", wrapped, "agg", final); err != nil {
		t.Fatalf("EnsureTable rerun: %v", err)
	}

	if _, err := r.CopyFrom(ctx, []string{"shape", "avg_duration"}, [][]any{{"circle", 12.5}}); err == nil {
		// CopyFrom targets cfg.Table ("sightings"), not "agg"; this insert
		// must fail because that table was never created.
		t.Fatalf("expected error inserting into missing table")
	}
}

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called bool
		gotCfg Config
		closed bool
	)
	fake := &Repository{}
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return fake, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:  "sqlite",
		DSN:   "file:test.db?mode=memory&cache=shared",
		Table: "events",
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != "file:test.db?mode=memory&cache=shared" || gotCfg.Table != "events" {
		t.Fatalf("hook cfg = %+v", gotCfg)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not call the close function")
	}
}
