package migrations

import "embed"

// PostgresFS contains the PostgreSQL schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// SQLiteFS contains the SQLite schema migrations.
//
//go:embed sqlite/*.sql
var SQLiteFS embed.FS
