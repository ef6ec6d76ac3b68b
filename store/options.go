package store

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/martaz/querykit/filter"
)

type Option func(*Store)

// WithLogger sets the logger for storage errors and converter warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTables adds model name to table aliases on top of DefaultTables.
func WithTables(aliases map[string]string) Option {
	return func(s *Store) {
		for model, table := range aliases {
			s.tables[model] = table
		}
	}
}

// WithIDGenerator replaces the UUID generator used by Create.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) {
		s.newID = f
	}
}

// WithClock replaces the clock used for created_at and updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithFilterOptions passes options through to the filter converter. The
// dialect always comes from the executor.
func WithFilterOptions(options ...filter.Option) Option {
	return func(s *Store) {
		s.filterOptions = append(s.filterOptions, options...)
	}
}
