package db

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
)

// ErrNoRows is returned by Row.Scan when the query selected nothing,
// whichever driver is underneath.
var ErrNoRows = errors.New("db: no rows in result set")

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set that must be closed by the caller.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier is implemented by both the connection pool and an open transaction,
// so repositories can be bound to either.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// TransactionFn is a function that executes within a transaction
type TransactionFn func(ctx context.Context, q Querier) error

// Database is the handle every repository and service depends on.
type Database interface {
	Querier
	Dialect() Dialect
	WithTransaction(ctx context.Context, fn TransactionFn) error
	Ping(ctx context.Context) error
	Close()
}

// Dialect carries the SQL differences between the supported drivers.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// LockSuffix is appended to SELECTs that must hold a row lock until commit.
	LockSuffix string
}

// Builder returns a squirrel statement builder for the dialect.
func (d Dialect) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

var (
	PostgresDialect = Dialect{Name: "postgres", Placeholder: sq.Dollar, LockSuffix: "FOR UPDATE"}
	// SQLite has no row locks; the pool is limited to one connection instead.
	SQLiteDialect = Dialect{Name: "sqlite", Placeholder: sq.Question}
)
