package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
)

// ApplySQLite brings a SQLite handle up to date with the .sql files under dir, using the
// same version bookkeeping as Migrator. SQLite needs no advisory lock: writers are serialized
// by the database lock.
func ApplySQLite(ctx context.Context, sqlDB *sql.DB, fsys fs.FS, dir string) error {
	if sqlDB == nil {
		return fmt.Errorf("sql db is required")
	}

	files, err := sqlFiles(fsys, dir)
	if err != nil {
		return err
	}

	if _, err := sqlDB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}

	applied, err := sqliteAppliedVersions(ctx, sqlDB)
	if err != nil {
		return err
	}

	for _, file := range pendingFiles(files, applied) {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := applySQLiteFile(ctx, sqlDB, migrationVersion(file), ExtractUpMigration(string(content))); err != nil {
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func applySQLiteFile(ctx context.Context, sqlDB *sql.DB, version, body string) (err error) {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if strings.TrimSpace(body) != "" {
		if _, err = tx.ExecContext(ctx, body); err != nil {
			return fmt.Errorf("exec: %w", err)
		}
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}

func sqliteAppliedVersions(ctx context.Context, sqlDB *sql.DB) (map[string]bool, error) {
	rows, err := sqlDB.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to read applied migrations: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
