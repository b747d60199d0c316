// This adapter registers the MySQL backend with the storage factory and the
// DDL bootstrapper registry at init time.
package mysql

import (
	"context"
	"fmt"
	"strings"

	"cleanse/internal/storage"
	"cleanse/internal/table"
)

var newRepository = NewRepository

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

// sqlType maps a semantic column type to its MySQL storage type.
func sqlType(t table.Type) (string, error) {
	switch t {
	case table.Text, table.Categorical:
		return "TEXT", nil
	case table.Integer:
		return "BIGINT", nil
	case table.Float:
		return "DOUBLE", nil
	case table.Boolean:
		return "TINYINT(1)", nil
	case table.Date:
		return "DATE", nil
	case table.DateTime:
		return "DATETIME", nil
	default:
		return "", fmt.Errorf("mysql: no storage type for column type %q", t)
	}
}

func createTableSQL(dest string, t *table.Table) (string, error) {
	cols := t.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		st, err := sqlType(c.Type)
		if err != nil {
			return "", err
		}
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c.Name), st))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(dest), strings.Join(defs, ", ")), nil
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mysql",
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
