// Package all wires every built-in storage backend into the storage factory.
//
// It exists purely for side effects: a blank import runs each backend's
// init function, which registers its factory and DDL bootstrapper with the
// storage package. Importing this package makes the kinds "postgres",
// "sqlite", "mysql", and "mssql" available at runtime.
//
// Binaries that only need a subset can blank-import the individual backend
// packages instead.
package all

import (
	_ "cleanse/internal/storage/mssql"
	_ "cleanse/internal/storage/mysql"
	_ "cleanse/internal/storage/postgres"
	_ "cleanse/internal/storage/sqlite"
)
