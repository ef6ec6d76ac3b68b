package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/martaz/querykit/config"
	"github.com/martaz/querykit/store"
	"github.com/martaz/querykit/store/pgxexec"
	"github.com/martaz/querykit/store/sqlexec"
)

// openExecutor connects with the configured driver: pgx uses a pgxpool,
// postgres (lib/pq) and sqlite go through database/sql.
func openExecutor(ctx context.Context, db config.Database) (store.Executor, func(), error) {
	if db.DSN == "" {
		return nil, nil, errors.New("database.dsn is required (set " + config.EnvPrefix + "DATABASE_DSN)")
	}

	switch driver := strings.ToLower(db.Driver); driver {
	case "", "pgx":
		pool, err := pgxpool.New(ctx, db.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect: %w", err)
		}
		return pgxexec.New(pool), pool.Close, nil
	case "postgres", "sqlite":
		sqlDB, exec, err := sqlexec.Open(driver, db.DSN)
		if err != nil {
			return nil, nil, err
		}
		return exec, func() { _ = sqlDB.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", db.Driver)
	}
}
