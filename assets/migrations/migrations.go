// Package migrations embeds the schema for the SQL task stores.
package migrations

import "embed"

// FS holds one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql mysql/*.sql
var FS embed.FS

const (
	Postgres = "postgres"
	SQLite   = "sqlite"
	MySQL    = "mysql"
)
