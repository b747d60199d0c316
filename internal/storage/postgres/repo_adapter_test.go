package postgres

import (
	"context"
	"testing"

	"cleanse/internal/storage"
)

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		gotCfg Config
		closed bool
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:  "postgres",
		DSN:   "postgres://u:p@localhost:5432/warehouse",
		Table: "public.sightings_agg",
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	if gotCfg.Table != "public.sightings_agg" {
		t.Fatalf("hook cfg = %+v", gotCfg)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not call the close function")
	}
}
