// Package store runs filter queries against a database through an injected
// Executor. It resolves model names to tables, fills in ids and timestamps on
// writes and normalizes camelCase keys to snake_case columns.
package store

import (
	"context"
	"errors"
	"maps"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/martaz/querykit/filter"
)

// TimestampLayout is the ISO-8601 form written to created_at and updated_at.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	opFindMany = "findMany"
	opFindOne  = "findOne"
	opCreate   = "create"
	opUpdate   = "update"
	opDestroy  = "destroy"
	opCount    = "count"
)

const (
	idColumn        = "id"
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

// Store translates queries into SQL and executes them. It keeps no per-call
// state and is safe for concurrent use.
type Store struct {
	exec          Executor
	conv          *filter.Converter
	tables        map[string]string
	newID         func() string
	now           func() time.Time
	logger        zerolog.Logger
	metrics       *Metrics
	filterOptions []filter.Option
}

// New creates a Store on top of exec.
func New(exec Executor, options ...Option) *Store {
	s := &Store{
		exec:   exec,
		tables: maps.Clone(DefaultTables),
		newID:  uuid.NewString,
		now:    time.Now,
		logger: log.Logger,
	}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}

	filterOptions := append([]filter.Option{filter.WithLogger(s.logger)}, s.filterOptions...)
	filterOptions = append(filterOptions, filter.WithDialect(exec.Dialect()))
	s.conv = filter.NewConverter(filterOptions...)
	s.logger = s.logger.With().Str("component", "store").Logger()
	return s
}

// Converter returns the converter the store compiles queries with.
func (s *Store) Converter() *filter.Converter {
	return s.conv
}

// FindMany returns the rows matching q. The result is never nil.
func (s *Store) FindMany(ctx context.Context, table string, q filter.Query) ([]Record, error) {
	table = s.resolveTable(table)
	start := time.Now()

	b, err := s.conv.Select(table, q)
	if err != nil {
		return nil, s.fail(opFindMany, table, start, err)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, s.fail(opFindMany, table, start, err)
	}

	rows, err := s.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(opFindMany, table, start, err)
	}
	s.done(opFindMany, table, start, query)
	if rows == nil {
		rows = []Record{}
	}
	return rows, nil
}

// FindOne returns the first row matching q, or nil when there is none.
func (s *Store) FindOne(ctx context.Context, table string, q filter.Query) (Record, error) {
	table = s.resolveTable(table)
	start := time.Now()

	b, err := s.conv.Select(table, q.WithLimit(1))
	if err != nil {
		return nil, s.fail(opFindOne, table, start, err)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, s.fail(opFindOne, table, start, err)
	}

	row, err := s.exec.QueryRow(ctx, query, args...)
	if errors.Is(err, ErrNoRows) {
		s.done(opFindOne, table, start, query)
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(opFindOne, table, start, err)
	}
	s.done(opFindOne, table, start, query)
	return row, nil
}

// Create inserts data and returns the stored row. A missing id gets a new
// UUID and missing created_at/updated_at get the current time. camelCase keys
// are written to snake_case columns.
func (s *Store) Create(ctx context.Context, table string, data Record) (Record, error) {
	table = s.resolveTable(table)
	start := time.Now()

	row := filter.NormalizeKeys(data)
	if _, ok := row[idColumn]; !ok {
		row[idColumn] = s.newID()
	}
	now := s.timestamp()
	if _, ok := row[createdAtColumn]; !ok {
		row[createdAtColumn] = now
	}
	if _, ok := row[updatedAtColumn]; !ok {
		row[updatedAtColumn] = now
	}

	query, args, err := s.conv.Insert(table, row).ToSql()
	if err != nil {
		return nil, s.fail(opCreate, table, start, err)
	}
	created, err := s.exec.QueryRow(ctx, query, args...)
	if err != nil {
		return nil, s.fail(opCreate, table, start, err)
	}
	s.done(opCreate, table, start, query)
	return created, nil
}

// Update applies data to the rows matching q.Where and returns how many were
// changed. Order and pagination in q are ignored.
func (s *Store) Update(ctx context.Context, table string, data Record, q filter.Query) (int64, error) {
	table = s.resolveTable(table)
	start := time.Now()

	values := filter.NormalizeKeys(data)
	if _, ok := values[updatedAtColumn]; !ok {
		values[updatedAtColumn] = s.timestamp()
	}

	b, err := s.conv.Update(table, values, q.Where)
	if err != nil {
		return 0, s.fail(opUpdate, table, start, err)
	}
	return s.execute(ctx, opUpdate, table, start, b)
}

// Destroy deletes the rows matching q.Where and returns how many were removed.
func (s *Store) Destroy(ctx context.Context, table string, q filter.Query) (int64, error) {
	table = s.resolveTable(table)
	start := time.Now()

	b, err := s.conv.Delete(table, q.Where)
	if err != nil {
		return 0, s.fail(opDestroy, table, start, err)
	}
	return s.execute(ctx, opDestroy, table, start, b)
}

// Count returns the number of rows matching q.Where without fetching them.
func (s *Store) Count(ctx context.Context, table string, q filter.Query) (int64, error) {
	table = s.resolveTable(table)
	start := time.Now()

	b, err := s.conv.Count(table, q)
	if err != nil {
		return 0, s.fail(opCount, table, start, err)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, s.fail(opCount, table, start, err)
	}

	row, err := s.exec.QueryRow(ctx, query, args...)
	if err != nil {
		return 0, s.fail(opCount, table, start, err)
	}
	n, err := cast.ToInt64E(row["count"])
	if err != nil {
		return 0, s.fail(opCount, table, start, err)
	}
	s.done(opCount, table, start, query)
	return n, nil
}

func (s *Store) execute(ctx context.Context, operation, table string, start time.Time, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, s.fail(operation, table, start, err)
	}
	n, err := s.exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, s.fail(operation, table, start, err)
	}
	s.done(operation, table, start, query)
	return n, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// fail logs err with its operation and table and returns it unchanged.
func (s *Store) fail(operation, table string, start time.Time, err error) error {
	s.metrics.observe(operation, table, "error", time.Since(start))
	s.logger.Error().
		Err(err).
		Str("operation", operation).
		Str("table", table).
		Msg("store operation failed")
	return err
}

func (s *Store) done(operation, table string, start time.Time, query string) {
	elapsed := time.Since(start)
	s.metrics.observe(operation, table, "ok", elapsed)
	s.logger.Debug().
		Str("operation", operation).
		Str("table", table).
		Str("sql", query).
		Dur("elapsed", elapsed).
		Msg("store operation")
}
