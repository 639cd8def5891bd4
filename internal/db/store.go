// Package db owns the medsync stores: opening them, migrating them, and the
// repositories that read and write them. Stations run embedded SQLite and
// hospital aggregators run Postgres; everything above this package speaks to
// both through the same interfaces.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/stationware/medsync/internal/mapper"
)

// Store wraps the open database together with its dialect, so callers can
// build SQL that actually runs on it.
type Store struct {
	DB      *sql.DB
	dialect mapper.Dialect
	logger  *slog.Logger
}

// Open connects to the configured store and verifies the connection with a
// bounded ping. The driver name comes from config, not from the wire.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(ctx, dsn, logger)
	case "postgres", "pgx":
		return openPostgres(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func openSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %v", err)
	}

	// SQLite allows a single writer; a second connection only buys
	// SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %v", err)
	}

	logger.Info("Connected to SQLite store", "dsn", dsn)
	return &Store{DB: db, dialect: mapper.SQLite, logger: logger}, nil
}

func openPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres store: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %v", err)
	}

	logger.Info("Connected to Postgres store")
	return &Store{DB: db, dialect: mapper.Postgres, logger: logger}, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(pingCtx)
}

// Dialect reports which SQL dialect the store speaks.
func (s *Store) Dialect() mapper.Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// rebind rewrites ? placeholders into the $N form when the target store
// speaks Postgres. Repository SQL is written once, in ? style.
func rebind(dialect mapper.Dialect, query string) string {
	if dialect != mapper.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
