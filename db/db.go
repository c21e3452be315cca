package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"push-relay/pkg/logger"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// Migrate runs a goose command ("up", "down", "status", "version") against the embedded migrations
func Migrate(ctx context.Context, sqlDB *sql.DB, command string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(logger.For("Migration"))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}
	return nil
}
