// Package pgxexec runs store statements on a pgx connection, pool or
// transaction.
package pgxexec

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/martaz/querykit/filter"
	"github.com/martaz/querykit/store"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Executor struct {
	db Querier
}

func New(db Querier) *Executor {
	return &Executor{db: db}
}

func (e *Executor) Dialect() filter.Dialect {
	return filter.Postgres
}

func (e *Executor) Query(ctx context.Context, sql string, args ...any) ([]store.Record, error) {
	rows, err := e.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	records := make([]store.Record, len(maps))
	for i, m := range maps {
		records[i] = m
	}
	return records, nil
}

func (e *Executor) QueryRow(ctx context.Context, sql string, args ...any) (store.Record, error) {
	rows, err := e.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (e *Executor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := e.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
