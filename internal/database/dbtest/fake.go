// Package dbtest provides an in-memory database.DB for tests.
package dbtest

import (
	"context"
	"sync"

	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/resultset"
)

// DB returns canned results for every query and records what it was asked.
type DB struct {
	mu      sync.Mutex
	results []*resultset.ResultSet
	calls   []Call

	QueryErr error
	PingErr  error
	Dial     database.Dialect
}

// Call is one QueryResults invocation.
type Call struct {
	Query string
	Args  []any
}

// New returns a DB answering every query with results.
func New(results ...*resultset.ResultSet) *DB {
	return &DB{results: results}
}

func (d *DB) Ping(context.Context) error { return d.PingErr }

func (d *DB) Close() {}

func (d *DB) Dialect() database.Dialect { return d.Dial }

func (d *DB) QueryResults(ctx context.Context, query string, args ...any) ([]*resultset.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Query: query, Args: args})
	if d.QueryErr != nil {
		return nil, d.QueryErr
	}
	return d.results, nil
}

// Queries returns the query texts received so far.
func (d *DB) Queries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.Query
	}
	return out
}

// Calls returns every invocation received so far, with its bound args.
func (d *DB) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}
