package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// Migrate applies every pending migration in migrations/.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := MigrateVersion(ctx, db)
	return err
}

// MigrateVersion is Migrate that also reports the schema version afterwards.
func MigrateVersion(ctx context.Context, db *sql.DB) (int64, error) {
	fsys, err := fs.Sub(EmbedMigrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return version, nil
}
