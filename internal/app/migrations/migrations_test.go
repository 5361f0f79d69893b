package migrations

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	up := ExtractUpMigration(content)
	if !strings.Contains(up, "CREATE TABLE a") {
		t.Fatalf("up section missing create: %q", up)
	}
	if strings.Contains(up, "DROP TABLE") {
		t.Fatalf("up section leaked down sql: %q", up)
	}

	plain := "CREATE TABLE b (id INTEGER);"
	if got := ExtractUpMigration(plain); got != plain {
		t.Fatalf("plain content changed: %q", got)
	}
}

func TestSQLFilesSortedAndFiltered(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/002_grades.sql": {Data: []byte("SELECT 2;")},
		"m/001_init.sql":   {Data: []byte("SELECT 1;")},
		"m/README.md":      {Data: []byte("notes")},
	}
	files, err := sqlFiles(fsys, "m")
	if err != nil {
		t.Fatalf("sqlFiles() error = %v", err)
	}
	want := []string{"m/001_init.sql", "m/002_grades.sql"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestMigrationVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"postgres/001_init.sql": "001",
		"002_grade_ledger.sql":  "002",
		"sqlite/010.sql":        "010",
		"postgres/_leading.sql": "_leading",
	}
	for in, want := range tests {
		if got := migrationVersion(in); got != want {
			t.Errorf("migrationVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPendingFilesSkipsRecordedVersions(t *testing.T) {
	t.Parallel()

	files := []string{"m/001_init.sql", "m/002_grades.sql", "m/003_indexes.sql"}
	got := pendingFiles(files, map[string]bool{"001": true, "003": true})
	if len(got) != 1 || got[0] != "m/002_grades.sql" {
		t.Fatalf("pendingFiles() = %v, want [m/002_grades.sql]", got)
	}
	if got := pendingFiles(files, nil); len(got) != 3 {
		t.Fatalf("pendingFiles(nil) = %v, want all", got)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	t.Parallel()

	pgFiles, err := sqlFiles(PostgresFS, "postgres")
	if err != nil || len(pgFiles) == 0 {
		t.Fatalf("postgres migrations = %v, err = %v", pgFiles, err)
	}
	liteFiles, err := sqlFiles(SQLiteFS, "sqlite")
	if err != nil || len(liteFiles) == 0 {
		t.Fatalf("sqlite migrations = %v, err = %v", liteFiles, err)
	}
}
