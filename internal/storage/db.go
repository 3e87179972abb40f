package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"expenses/internal/log"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Options selects and configures the database.
type Options struct {
	Dialect     Dialect
	SQLitePath  string // file path or ":memory:"
	DatabaseURL string // postgres://...
	MaxRetries  int
	RetryDelay  time.Duration
}

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, opts Options, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)

	var (
		db       *sql.DB
		pgConfig *pgx.ConnConfig
		err      error
	)
	switch opts.Dialect {
	case DialectSQLite:
		db, err = openSQLite(opts.SQLitePath)
	case DialectPostgres:
		pgConfig, err = pgx.ParseConfig(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		db, err = openPostgres(ctx, pgConfig, opts, logger)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", opts.Dialect)
	}
	if err != nil {
		return nil, err
	}

	if opts.Dialect == DialectSQLite {
		err = migrateSQLite(db)
	} else {
		err = migratePostgres(pgConfig)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("Database ready", "dialect", opts.Dialect)
	return NewStore(db, opts.Dialect, logger), nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func openPostgres(ctx context.Context, config *pgx.ConnConfig, opts Options, logger *log.Logger) (*sql.DB, error) {
	var err error
	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}

	db := stdlib.OpenDB(*config)
	for i := 0; i < maxRetries; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if i < maxRetries-1 {
			logger.Warn("Database not ready, retrying",
				"attempt", i+1,
				"max_attempts", maxRetries,
				"retry_in", retryDelay.String(),
				log.FieldError, err.Error())
			select {
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	db.Close()
	return nil, fmt.Errorf("ping database after %d attempts: %w", maxRetries, err)
}
