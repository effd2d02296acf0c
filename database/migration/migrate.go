// Package migration applies schema migrations to plugin databases.
//
// Versioned SQL files are run through golang-migrate from any fs.FS,
// typically an embed.FS next to the plugin:
//
//	//go:embed migrations/*.sql
//	var migrationsFS embed.FS
//
//	db, _ := database.Client(ctx)
//	err := migration.MigrateUp(db, migrationsFS, "migrations", migration.Postgres)
//
// Programmatic migrations that run against sqlite as well use Runner.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// DriverFunc creates a migrate database driver on an open connection pool.
type DriverFunc func(*sql.DB) (database.Driver, error)

// Postgres is the DriverFunc for postgres databases.
func Postgres(db *sql.DB) (database.Driver, error) {
	return migratepg.WithInstance(db, &migratepg.Config{})
}

// PostgresSchema returns a DriverFunc that keeps the version table inside
// schemaName, so plugins sharing one database track versions separately.
func PostgresSchema(schemaName string) DriverFunc {
	return func(db *sql.DB) (database.Driver, error) {
		return migratepg.WithInstance(db, &migratepg.Config{SchemaName: schemaName})
	}
}

// MigrateUp runs all pending migrations from dir in fsys. Files follow
// VERSION_name.up.sql and VERSION_name.down.sql. Having nothing to apply
// is not an error.
func MigrateUp(db *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) error {
	m, err := newMigrator(db, fsys, dir, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back all migrations.
func MigrateDown(db *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) error {
	m, err := newMigrator(db, fsys, dir, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrateSteps applies n migrations forward, or rolls back -n.
func MigrateSteps(db *gorm.DB, fsys fs.FS, dir string, n int, driverFunc DriverFunc) error {
	m, err := newMigrator(db, fsys, dir, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied version and whether it is dirty.
// A database without migrations reports version 0.
func MigrateVersion(db *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) (version uint, dirty bool, err error) {
	m, err := newMigrator(db, fsys, dir, driverFunc)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrator must not be closed by callers: closing it would close the
// plugin's pool.
func newMigrator(db *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	driver, err := driverFunc(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "database", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
