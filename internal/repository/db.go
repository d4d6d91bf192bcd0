package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
)

// DB is an ent SQL driver over either SQLite or a pgx pool.
type DB struct {
	drv     *entsql.Driver
	dialect string
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// Open connects to the configured store and creates the schema if needed.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		db  *DB
		err error
	)
	switch cfg.Driver {
	case common.StoreDriverSQLite:
		db, err = openSQLite(cfg, logger)
	case common.StoreDriverPostgres:
		db, err = openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", common.ErrInvalidInput, cfg.Driver)
	}
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", common.ErrDatabase, err)
	}
	logger.Info("successfully connected to database", "driver", cfg.Driver)
	return db, nil
}

func openSQLite(cfg common.StoreConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("opening sqlite database", "dsn", cfg.DSN)
	sqldb, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// one writer at a time
	sqldb.SetMaxOpenConns(1)
	if _, err := sqldb.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &DB{drv: entsql.OpenDB(dialect.SQLite, sqldb), dialect: dialect.SQLite, logger: logger}, nil
}

func openPostgres(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "invoice-reader"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	// Wrap pool as *sql.DB for the ent driver
	sqldb := stdlib.OpenDBFromPool(pool)
	return &DB{drv: entsql.OpenDB(dialect.Postgres, sqldb), dialect: dialect.Postgres, pool: pool, logger: logger}, nil
}

// Close closes the database connections gracefully
func (db *DB) Close() {
	db.logger.Info("closing database connections")
	if err := db.drv.Close(); err != nil {
		db.logger.Error("failed to close database", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.drv.DB().PingContext(ctx); err != nil {
		db.logger.Error("database ping failed", "error", err)
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	db.logger.Debug("database ping successful")
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.dialect == dialect.Postgres {
		id = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS document_outcomes (
	` + id + `,
	run_id TEXT NOT NULL,
	path TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	status TEXT NOT NULL,
	method TEXT NOT NULL,
	pages INTEGER NOT NULL,
	ocr_pages INTEGER NOT NULL,
	kind TEXT NOT NULL,
	error TEXT NOT NULL,
	record TEXT,
	processed_at TEXT NOT NULL,
	elapsed_ms BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS document_outcomes_run_id ON document_outcomes (run_id)`,
	}
	for _, s := range stmts {
		if err := db.drv.Exec(ctx, s, []any{}, nil); err != nil {
			return err
		}
	}
	return nil
}
