// Package migrations embeds the build executor's deps-record schema, the
// same way package repo's and package cache's migrations packages embed
// theirs.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/maxtruxa/bpt/internal/store"
)

//go:embed *.sql
var sys embed.FS

// MetaTable names the per-subsystem migration version table for the
// build executor's deps database.
const MetaTable = "bpt_build_meta"

// Migrations is the ordered list of schema migrations for the deps DB.
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
