package store

import (
	"context"
	"errors"

	"github.com/martaz/querykit/filter"
)

// ErrNoRows is returned by Executor.QueryRow when the statement matched
// nothing. Executors map their driver's own sentinel onto it.
var ErrNoRows = errors.New("store: no rows in result set")

// Record is one row keyed by column name.
type Record map[string]any

// Executor runs compiled statements against a database.
type Executor interface {
	// Dialect is the SQL dialect the executor's database speaks.
	Dialect() filter.Dialect
	Query(ctx context.Context, sql string, args ...any) ([]Record, error)
	// QueryRow returns the first row, or ErrNoRows.
	QueryRow(ctx context.Context, sql string, args ...any) (Record, error)
	// Exec returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}
