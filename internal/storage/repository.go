// Package storage contains the backend-agnostic sink contracts: the
// Repository interface, a factory keyed by storage kind, and a batched
// loader that writes a cleaned table through any Repository.
//
// Concrete backends (postgres, sqlite, mysql) register themselves with the
// factory at init time; callers import cleanse/internal/storage/all for the
// side effect and stay free of backend-specific imports.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Repository is the bulk-write surface a backend must provide.
//
// CopyFrom inserts rows aligned to the columns order using the backend's most
// efficient primitive (Postgres COPY, multi-row INSERT elsewhere) and returns
// the number of rows written. Exec runs a single DDL/utility statement.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config carries the backend-independent connection settings.
type Config struct {
	// Kind selects the registered backend ("postgres", "sqlite", "mysql").
	Kind string

	// DSN is the backend connection string.
	DSN string

	// Table is the destination table, schema-qualified where supported.
	Table string
}

// Factory constructs a Repository from Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a storage kind. Backends
// call this from init().
func Register(kind string, fn Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind. Unknown kinds are an error listing
// nothing; the caller decides how to surface it.
func New(ctx context.Context, cfg Config) (Repository, error) {
	factoryMu.RLock()
	fn, ok := factories[cfg.Kind]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q", cfg.Kind)
	}
	return fn(ctx, cfg)
}
