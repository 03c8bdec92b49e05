package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations of the remote schema
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	if err := prepareGoose(); err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...")

	if err := goose.Up(db, migrationsDir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("Migrations completed successfully", zap.Int64("version", version))
	return nil
}

// MigrationStatus prints the state of every migration
func MigrationStatus(db *sql.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.Status(db, migrationsDir)
}
