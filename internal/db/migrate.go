package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/stationware/medsync/internal/mapper"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate brings the store schema up to date using the embedded goose
// migrations for its dialect.
func (s *Store) Migrate(ctx context.Context) error {
	gooseDialect := "sqlite3"
	dir := "migrations/sqlite"
	if s.dialect == mapper.Postgres {
		gooseDialect = "pgx"
		dir = "migrations/postgres"
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %v", err)
	}
	if err := goose.UpContext(ctx, s.DB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %v", err)
	}

	s.logger.Info("Store schema is up to date")
	return nil
}
