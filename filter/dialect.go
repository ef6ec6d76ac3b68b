package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect selects placeholder style and pattern-match rendering.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// ParseDialect maps a configuration value to a Dialect. Driver names are
// accepted too, so "pgx" and "postgres" both mean Postgres.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pgx", "pq":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Postgres, fmt.Errorf("unknown dialect: %s", s)
	}
}

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

func (d Dialect) placeholders() sq.PlaceholderFormat {
	if d == SQLite {
		return sq.Question
	}
	return sq.Dollar
}
