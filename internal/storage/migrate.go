package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrateSQLite migrates through db itself: an in-memory database only
// exists on that handle. The migrate instance is not closed because the
// sqlite driver would close db with it.
func migrateSQLite(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	_, err = up(DialectSQLite, "sqlite", driver)
	return err
}

// migratePostgres opens a separate connection for migrations so the main
// pool is left untouched.
func migratePostgres(config *pgx.ConnConfig) error {
	migrateDB := stdlib.OpenDB(*config)

	driver, err := migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
	if err != nil {
		migrateDB.Close()
		return fmt.Errorf("create pgx driver: %w", err)
	}
	m, err := up(DialectPostgres, "pgx5", driver)
	if m == nil {
		driver.Close()
		return err
	}
	if _, dbErr := m.Close(); err == nil && dbErr != nil {
		err = fmt.Errorf("close migration database: %w", dbErr)
	}
	return err
}

func up(dialect Dialect, driverName string, driver database.Driver) (*migrate.Migrate, error) {
	d, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return m, fmt.Errorf("run migrations: %w", err)
	}
	return m, nil
}
