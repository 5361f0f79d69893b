package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplySQLiteRunsEachVersionOnce(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "migrate.sqlite"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fsys := fstest.MapFS{
		"m/001_init.sql":   {Data: []byte("CREATE TABLE courses (id INTEGER PRIMARY KEY);")},
		"m/002_grades.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE grades (id INTEGER PRIMARY KEY);\n-- +migrate Down\nDROP TABLE grades;\n")},
	}
	ctx := context.Background()

	for run := 1; run <= 2; run++ {
		if err := ApplySQLite(ctx, db, fsys, "m"); err != nil {
			t.Fatalf("run %d: ApplySQLite() error = %v", run, err)
		}
	}

	var recorded int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&recorded); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if recorded != 2 {
		t.Fatalf("recorded = %d, want 2", recorded)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO grades (id) VALUES (1)`); err != nil {
		t.Fatalf("grades table missing: %v", err)
	}
}
