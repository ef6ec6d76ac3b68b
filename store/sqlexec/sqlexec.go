// Package sqlexec runs store statements through database/sql, e.g. with
// github.com/lib/pq or modernc.org/sqlite.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/martaz/querykit/filter"
	"github.com/martaz/querykit/store"
)

// DB is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Executor struct {
	db      DB
	dialect filter.Dialect
}

func New(db DB, dialect filter.Dialect) *Executor {
	return &Executor{db: db, dialect: dialect}
}

// Open opens a database with a registered driver and picks the dialect from
// the driver name.
func Open(driver, dsn string) (*sql.DB, *Executor, error) {
	dialect, err := filter.ParseDialect(driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if dialect == filter.SQLite {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}
	return db, New(db, dialect), nil
}

func (e *Executor) Dialect() filter.Dialect {
	return e.dialect
}

func (e *Executor) Query(ctx context.Context, query string, args ...any) ([]store.Record, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows, 0)
}

func (e *Executor) QueryRow(ctx context.Context, query string, args ...any) (store.Record, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNoRows
	}
	return records[0], nil
}

func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanRecords reads at most limit rows (all rows when limit is 0).
func scanRecords(rows *sql.Rows, limit int) ([]store.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []store.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(store.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		records = append(records, record)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, rows.Err()
}
