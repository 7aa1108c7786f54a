// Package migrations embeds the remote cache's sqlite schema, the same
// way repo/migrations embeds the local repository store's.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/maxtruxa/bpt/internal/store"
)

//go:embed *.sql
var sys embed.FS

// MetaTable names the remote cache's migration version table (spec §4.D /
// §9: "crs_cache_meta").
const MetaTable = "crs_cache_meta"

// Migrations is the ordered list of schema migrations for a cache's
// cache.db.
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
