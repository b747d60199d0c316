// Package mysql implements a MySQL-backed storage.Repository using
// database/sql with the go-sql-driver. Bulk writes use multi-row INSERT
// statements, MySQL's practical bulk path without LOAD DATA.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN is a go-sql-driver DSN, e.g. "user:pass@tcp(host:3306)/db?parseTime=true".
	DSN   string
	Table string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a MySQL connection pool and returns the Repository
// plus a close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// CopyFrom inserts rows with one multi-row INSERT per call. Rows must align
// with the columns order; nil cells become SQL NULL.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	rowPH := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: row %d has %d values, want %d", i, len(row), len(columns))
		}
		placeholders[i] = rowPH
		args = append(args, row...)
	}

	insert := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		quoteIdent(r.cfg.Table),
		strings.Join(quoteAll(columns), ","),
		strings.Join(placeholders, ","),
	)

	res, err := r.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return 0, fmt.Errorf("mysql: insert into %s: %w", r.cfg.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil
	}
	return n, nil
}

// Exec runs a single statement, typically DDL from the bootstrapper.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// Close closes the underlying connection pool.
func (r *Repository) Close() { r.db.Close() }

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = quoteIdent(id)
	}
	return out
}
