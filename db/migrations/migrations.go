// Package migrations embeds the versioned schema for each supported
// database dialect.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// For returns the migration files of dialect rooted at the dialect directory.
func For(dialect string) (fs.FS, error) {
	return fs.Sub(files, dialect)
}
