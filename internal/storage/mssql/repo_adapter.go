// This adapter registers the SQL Server backend with the storage factory and
// the DDL bootstrapper registry at init time.
package mssql

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

// sqlType maps a semantic column type to a SQL Server column type.
func sqlType(t table.Type) (string, error) {
	switch t {
	case table.Text, table.Categorical:
		return "NVARCHAR(MAX)", nil
	case table.Integer:
		return "BIGINT", nil
	case table.Float:
		return "FLOAT", nil
	case table.Boolean:
		return "BIT", nil
	case table.Date:
		return "DATE", nil
	case table.DateTime:
		return "DATETIMEOFFSET", nil
	default:
		return "", fmt.Errorf("mssql: no storage type for column type %q", t)
	}
}

// createTableSQL renders conditional-create DDL. SQL Server predates
// CREATE TABLE IF NOT EXISTS, so OBJECT_ID guards the statement.
func createTableSQL(dest string, t *table.Table) (string, error) {
	cols := t.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		st, err := sqlType(c.Type)
		if err != nil {
			return "", err
		}
		defs = append(defs, fmt.Sprintf("%s %s", msIdent(c.Name), st))
	}
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		strings.ReplaceAll(dest, "'", "''"),
		msFQN(dest),
		strings.Join(defs, ", "),
	), nil
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mssql",
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
