// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests and server bootstrap.
//
// Postgres holds the server schema; SQLite holds the schema shared by the
// file-backed server store and the client's local store.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// Postgres and SQLite are rooted at their migration directory, ready for
// goose.NewProvider.
var (
	Postgres = mustSub(postgresFS, "postgres")
	SQLite   = mustSub(sqliteFS, "sqlite")
)

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("migrations: " + err.Error())
	}
	return sub
}
