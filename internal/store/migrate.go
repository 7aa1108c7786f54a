package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maxtruxa/bpt"
)

// Migration is one schema change, applied exactly once in list order. This
// mirrors dds/util/db/migrate.cpp's detail::do_migrations_1: a per-table
// integer version is tracked, and every not-yet-applied migration in the
// list runs inside a single transaction.
type Migration struct {
	Name string
	Up   func(tx *sql.Tx) error
}

// Migrate ensures table (one per subsystem, e.g. "crs_repo_meta") exists
// with a single version row, then applies any migrations with an index
// at or past the current version, inside one transaction. It is a no-op
// if the table's version already equals len(migrations).
func (d *DB) Migrate(ctx context.Context, table string, migrations []Migration) error {
	initStmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS "%s" (version INTEGER NOT NULL)`, table)
	if err := d.ExecScript(ctx, initStmt); err != nil {
		return bpt.Wrap(bpt.ErrMigrationFailed, err, fmt.Sprintf("initializing migration table %q", table)).WithOp("migrate")
	}

	version, err := d.migrationVersion(ctx, table)
	if err != nil {
		return err
	}
	if version < 0 {
		return bpt.New(bpt.ErrMigrationFailed, fmt.Sprintf("migration table %q has a negative version", table))
	}
	if version > len(migrations) {
		return bpt.New(bpt.ErrMigrationFailed,
			fmt.Sprintf("database schema for %q is newer (version %d) than known migrations (%d)", table, version, len(migrations)))
	}
	if version == len(migrations) {
		return nil
	}

	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op if already committed

	for _, m := range migrations[version:] {
		if err := m.Up(tx); err != nil {
			return bpt.Wrap(bpt.ErrMigrationFailed, err, fmt.Sprintf("applying migration %q to %q", m.Name, table)).WithOp("migrate")
		}
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE "%s" SET version = ?`, table), len(migrations)); err != nil {
		return bpt.Wrap(bpt.ErrMigrationFailed, err, fmt.Sprintf("updating version on %q", table)).WithOp("migrate")
	}
	if err := tx.Commit(); err != nil {
		return bpt.Wrap(bpt.ErrMigrationFailed, err, fmt.Sprintf("committing migrations on %q", table)).WithOp("migrate")
	}
	return nil
}

func (d *DB) migrationVersion(ctx context.Context, table string) (int, error) {
	row := d.sqldb.QueryRowContext(ctx, fmt.Sprintf(`SELECT version FROM "%s"`, table))
	var v int
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			if _, err := d.sqldb.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO "%s" (version) VALUES (0)`, table)); err != nil {
				return 0, bpt.Wrap(bpt.ErrMigrationFailed, err, fmt.Sprintf("seeding version row for %q", table)).WithOp("migrate")
			}
			return 0, nil
		}
		return 0, bpt.Wrap(bpt.ErrMigrationFailed, err, fmt.Sprintf("reading version for %q", table)).WithOp("migrate")
	}
	return v, nil
}
