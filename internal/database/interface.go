package database

import (
	"context"

	"github.com/koustreak/sqlsheet/internal/resultset"
)

// DB is the contract every driver implements. Layers above this package
// talk only to this interface, never to a driver package directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// QueryResults executes query and drains every result it produces into
	// memory, in order. A multi-statement batch yields several results.
	// args are bound to the dialect's placeholders (see Dialect.Placeholder).
	QueryResults(ctx context.Context, query string, args ...any) ([]*resultset.ResultSet, error)

	// Dialect reports the SQL dialect for building queries.
	Dialect() Dialect
}
