package storage

import (
	"context"
	"fmt"
	"sync"

	"cleanse/internal/table"
)

// DDLBootstrapper maps the final table's column types onto backend DDL and
// applies it via repo.Exec (typically CREATE TABLE IF NOT EXISTS). Backends
// register their implementation for their storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, dest string, t *table.Table) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL installs (or replaces) the DDLBootstrapper for a storage kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the bootstrapper for kind and applies it, creating the
// destination table from the final table's column types. Callers never branch
// on the backend themselves.
func EnsureTable(ctx context.Context, kind string, repo Repository, dest string, t *table.Table) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage: no DDL bootstrapper registered for kind %q", kind)
	}
	return fn(ctx, repo, dest, t)
}
