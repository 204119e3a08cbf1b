package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed catalog/*.sql inventory/*.sql
var MigrationFiles embed.FS

// Service names the migration set to apply. Each service owns its store
// independently, so the catalog and inventory schemas migrate separately
// even when they share a database in development.
type Service string

const (
	Catalog   Service = "catalog"
	Inventory Service = "inventory"
)

// Run executes all pending migrations for one service against the provided
// database. If autoMigrate is false, it only logs the current version.
func Run(db *sql.DB, service Service, autoMigrate bool) error {
	sourceDriver, err := iofs.New(MigrationFiles, string(service))
	if err != nil {
		return fmt.Errorf("failed to create migration source for %s: %w", service, err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: fmt.Sprintf("schema_migrations_%s", service),
	})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		slog.Warn("Database is in dirty state - migration was interrupted",
			"service", service,
			"version", version,
			"action", "attempting automatic recovery",
		)

		// Each service has a single baseline migration, so forcing back to
		// the current version is a safe recovery.
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to recover dirty migration state at version %d: %w", version, err)
		}
		slog.Info("Recovered dirty migration state", "service", service, "version", version)
	}

	if !autoMigrate {
		slog.Info("Auto-migration disabled, skipping migrations",
			"service", service,
			"current_version", version,
		)
		return nil
	}

	slog.Info("Running database migrations", "service", service, "current_version", version)

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			slog.Info("Database schema is up to date", "service", service, "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated migration version: %w", err)
	}

	slog.Info("Database migrations completed successfully",
		"service", service,
		"from_version", version,
		"to_version", newVersion,
	)

	return nil
}
