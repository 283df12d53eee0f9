package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	// This is necessary to register the MySQL driver
	_ "github.com/go-sql-driver/mysql"
	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bunslog"
	"github.com/uptrace/bun/schema"
	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/elstracker/elstracker/internal/config"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the configured database, installs the query logging hook
// and verifies the connection with a ping.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DBImpl, error) {
	var driverName string
	var dialect schema.Dialect

	driver := strings.ToLower(cfg.DBDriver)
	switch driver {
	case DriverMySQL:
		driverName, dialect = "mysql", mysqldialect.New()
	case DriverPostgres:
		driverName, dialect = "pgx", pgdialect.New()
	case DriverSQLite:
		driverName, dialect = "sqlite", sqlitedialect.New()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	sqldb, err := sql.Open(driverName, cfg.DBConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// https://bun.uptrace.dev/guide/running-bun-in-production.html#running-bun-in-production
	maxOpenConns := 4 * runtime.GOMAXPROCS(0)
	if driver == DriverSQLite {
		// a single writer, and in-memory databases only exist per connection
		maxOpenConns = 1
	}
	if cfg.DBMaxOpenConns > 0 {
		maxOpenConns = cfg.DBMaxOpenConns
	}
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, dialect)

	queryLogLevel := slog.LevelDebug
	if cfg.DBQueryLogLevel == "info" {
		queryLogLevel = slog.LevelInfo
	}

	db.AddQueryHook(bunslog.NewQueryHook(
		bunslog.WithQueryLogLevel(queryLogLevel),
		bunslog.WithSlowQueryLogLevel(slog.LevelWarn),
		bunslog.WithErrorQueryLogLevel(slog.LevelError),
		bunslog.WithSlowQueryThreshold(3*time.Second),
		bunslog.WithLogger(logger.With("component", "database")),
	))

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDB(db), nil
}
