// This adapter wires the Postgres backend into the storage-agnostic factory
// by registering a constructor and a DDL bootstrapper at init time. Callers
// obtain a Repository via storage.New without importing this package
// directly.
package postgres

import (
	"context"
	"fmt"

	"cleanse/internal/storage"
	"cleanse/internal/table"
)

// newRepository is a test hook pointing at NewRepository by default.
var newRepository = NewRepository

// wrappedRepo implements storage.Repository by delegating to the concrete
// *Repository while closing via the function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("postgres",
		func(ctx context.Context, repo storage.Repository, dest string, t *table.Table) error {
			ddl, err := createTableSQL(dest, t)
			if err != nil {
				return fmt.Errorf("render DDL: %w", err)
			}
			if err := repo.Exec(ctx, ddl); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}
