// Command migrate applies the embedded SQL migrations in order. Applied
// files are tracked in schema_migrations so reruns are no-ops.
package main

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"time"

	"casefile/internal/platform/config"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/postgres"
	"casefile/migrations"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		log.Error("CASEFILE_DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := run(ctx, db, log.Info); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, db *sql.DB, report func(msg string, args ...any)) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return err
	}

	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`,
			name,
		).Scan(&applied); err != nil {
			return err
		}
		if applied {
			continue
		}

		contents, err := migrations.Files.ReadFile(name)
		if err != nil {
			return err
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		report("applied migration", "filename", name)
	}
	return nil
}
