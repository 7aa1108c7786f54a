// Package repo implements the local, on-disk CRS repository store:
// content-addressed package archives plus the metadata database, per
// spec §4.C.
package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/internal/store"
	"github.com/maxtruxa/bpt/repo/migrations"
)

// selfRowID is the fixed sentinel rowid for a repository's own identity
// row, carried over from the original tool's choice of value.
const selfRowID = 1729

// Repository is a handle to an on-disk CRS repository rooted at a
// directory: repo.db (authoritative), repo.db.gz (compressed snapshot),
// pkg/ (content-addressed archives), tmp/ (staging).
type Repository struct {
	db  *store.DB
	dir string
}

func dbPath(dir string) string  { return filepath.Join(dir, "repo.db") }
func gzPath(dir string) string  { return filepath.Join(dir, "repo.db.gz") }
func pkgPath(dir string) string { return filepath.Join(dir, "pkg") }
func tmpPath(dir string) string { return filepath.Join(dir, "tmp") }

// Dir returns the repository's root directory.
func (r *Repository) Dir() string { return r.dir }

// PkgDir returns the repository's content-addressed package archive root.
func (r *Repository) PkgDir() string { return pkgPath(r.dir) }

// TmpDir returns the repository's scratch directory for in-flight imports.
func (r *Repository) TmpDir() string { return tmpPath(r.dir) }

// SubdirOf returns the directory holding id's pkg.tgz and pkg.json.
func (r *Repository) SubdirOf(id crs.PackageID) string {
	return filepath.Join(r.PkgDir(), id.Name.String(), id.SubdirName())
}

// Close releases the underlying database handle.
func (r *Repository) Close() error { return r.db.Close() }

func ensureMigrated(ctx context.Context, db *store.DB) error {
	return db.Migrate(ctx, migrations.MetaTable, migrations.Migrations)
}

// Create initializes a new repository at dir with the given name,
// creating dir if absent. Fails with bpt.ErrRepoAlreadyInit if dir
// already holds an initialized repository.
func Create(ctx context.Context, dir, name string) (*Repository, error) {
	op := fmt.Sprintf("creating repository at %s", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, bpt.Wrap(bpt.ErrIOOther, err, op)
	}
	db, err := store.Open(dbPath(dir))
	if err != nil {
		return nil, wrapOp(err, op)
	}
	if err := ensureMigrated(ctx, db); err != nil {
		db.Close()
		return nil, wrapOp(err, op)
	}

	st, err := db.Prepare(ctx, `INSERT INTO crs_repo_self (rowid, name) VALUES (?, ?)`)
	if err != nil {
		db.Close()
		return nil, wrapOp(err, op)
	}
	if _, err := st.ExecContext(ctx, selfRowID, name); err != nil {
		db.Close()
		classified := store.Classify(err, "insert-self-row")
		// SQLite reports a duplicate INTEGER PRIMARY KEY as a UNIQUE
		// constraint failure, so both sub-kinds mean the self-row exists.
		if store.IsConstraint(classified, bpt.ConstraintPrimaryKey) ||
			store.IsConstraint(classified, bpt.ConstraintUnique) {
			return nil, bpt.New(bpt.ErrRepoAlreadyInit, dir).WithOp(op)
		}
		return nil, wrapOp(classified, op)
	}

	r := &Repository{db: db, dir: dir}
	if err := r.vacuumAndCompress(ctx); err != nil {
		db.Close()
		return nil, wrapOp(err, op)
	}
	return r, nil
}

// OpenExisting opens a previously-created repository at dir, applying any
// pending migrations.
func OpenExisting(ctx context.Context, dir string) (*Repository, error) {
	op := fmt.Sprintf("opening repository at %s", dir)
	db, err := store.Open(dbPath(dir))
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrRepoOpenFailed, err, dir).WithOp(op)
	}
	if err := ensureMigrated(ctx, db); err != nil {
		db.Close()
		return nil, wrapOp(err, op)
	}
	return &Repository{db: db, dir: dir}, nil
}

// Name returns the repository's self-identified name.
func (r *Repository) Name(ctx context.Context) (string, error) {
	st, err := r.db.Prepare(ctx, `SELECT name FROM crs_repo_self WHERE rowid = ?`)
	if err != nil {
		return "", err
	}
	var name string
	if err := st.QueryRowContext(ctx, selfRowID).Scan(&name); err != nil {
		return "", bpt.Wrap(bpt.ErrRepoOpenFailed, err, "reading repository self-row")
	}
	return name, nil
}

func (r *Repository) vacuumAndCompress(ctx context.Context) error {
	if err := r.db.Vacuum(ctx); err != nil {
		return err
	}
	return compressFileGz(dbPath(r.dir), gzPath(r.dir))
}

func wrapOp(err error, op string) error {
	if err == nil {
		return nil
	}
	if be, ok := err.(*bpt.Error); ok {
		return be.WithOp(op)
	}
	return bpt.Wrap(bpt.ErrRepoImportFailed, err, op)
}
