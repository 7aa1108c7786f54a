// Package migrations embeds the CRS local repository store's sqlite
// schema, the way the teacher's datastore/postgres/migrations package
// embeds its own *.sql files.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/maxtruxa/bpt/internal/store"
)

//go:embed *.sql
var sys embed.FS

// MetaTable names the per-subsystem migration version table for the
// local repository store (spec §4.B: "crs_repo_meta").
const MetaTable = "crs_repo_meta"

// Migrations is the ordered list of schema migrations for a repository's
// repo.db.
var Migrations = []store.Migration{
	{Name: "01_init.sql", Up: runFile("01_init.sql")},
}

func runFile(name string) func(*sql.Tx) error {
	return func(tx *sql.Tx) error {
		b, err := sys.ReadFile(name)
		if err != nil {
			return err
		}
		_, err = tx.Exec(string(b))
		return err
	}
}
