package database

import (
	"context"
	"embed"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies every pending migration from the embedded migrations directory
func (db *DB) RunMigrations(ctx context.Context) error {
	logger := slog.With("component", "migrations")
	logger.Info("Starting database migrations")

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		logger.Error("Failed to load migration files", "error", err)
		return fmt.Errorf("failed to load migration files: %w", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("Failed to close migration source", "error", err)
		}
	}()

	// The driver gets its own connection; closing it must not close the pool.
	conn, err := db.DB.DB.Conn(ctx)
	if err != nil {
		logger.Error("Failed to acquire migration connection", "error", err)
		return fmt.Errorf("failed to acquire migration connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to release migration connection", "error", err)
		}
	}()

	driver, err := migratepostgres.WithConnection(ctx, conn, &migratepostgres.Config{})
	if err != nil {
		logger.Error("Failed to create migration driver", "error", err)
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		logger.Error("Failed to initialise migrator", "error", err)
		return fmt.Errorf("failed to initialise migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			logger.Info("Database schema is up to date")
			return nil
		}
		logger.Error("Failed to apply migrations", "error", err)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.Warn("Failed to read schema version", "error", err)
	} else {
		logger.Info("All migrations completed successfully", "version", version, "dirty", dirty)
	}

	return nil
}
