// Package store is the embedded metadata database wrapper shared by the
// local repository store (package repo) and the remote cache (package
// cache). It wraps database/sql over modernc.org/sqlite — a pure-Go
// driver, the same one the teacher uses in rpm/sqlite to read embedded
// sqlite files directly — with the schema-migration discipline, prepared
// statement caching, and failure-mode taxonomy described in spec §4.B.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/maxtruxa/bpt"
)

// DB is a handle to a single-file embedded sqlite database.
type DB struct {
	sqldb *sql.DB
	path  string

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// Open opens (creating if absent) the sqlite database at path, with
// foreign keys enforced.
func Open(path string) (*DB, error) {
	u := url.URL{
		Scheme: "file",
		Opaque: path,
		RawQuery: url.Values{
			"_pragma": {"foreign_keys(1)", "busy_timeout(5000)"},
		}.Encode(),
	}
	sqldb, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrDBOpenFailed, err, fmt.Sprintf("opening %s", path))
	}
	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, bpt.Wrap(bpt.ErrDBOpenFailed, err, fmt.Sprintf("opening %s", path))
	}
	return &DB{sqldb: sqldb, path: path, stmts: make(map[string]*sql.Stmt)}, nil
}

// Close releases the underlying connection pool and cached statements.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, st := range d.stmts {
		st.Close()
	}
	d.stmts = nil
	return d.sqldb.Close()
}

// Raw exposes the underlying *sql.DB for callers needing direct access
// (e.g. passing to a migration runner or a transaction).
func (d *DB) Raw() *sql.DB { return d.sqldb }

// Path returns the filesystem path the DB was opened from.
func (d *DB) Path() string { return d.path }

// ExecScript runs a multi-statement DDL string outside of a transaction
// (sqlite executes multi-statement Exec calls sequentially).
func (d *DB) ExecScript(ctx context.Context, script string) error {
	if _, err := d.sqldb.ExecContext(ctx, script); err != nil {
		return classify(err, "exec-script")
	}
	return nil
}

// Prepare returns a cached *sql.Stmt for sqlText, preparing it on first
// use. Statements are never explicitly reset/finalized between uses by
// callers; Close releases them all at once.
func (d *DB) Prepare(ctx context.Context, sqlText string) (*sql.Stmt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.stmts[sqlText]; ok {
		return st, nil
	}
	st, err := d.sqldb.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, classify(err, "prepare")
	}
	d.stmts[sqlText] = st
	return st, nil
}

// Begin starts a transaction on the underlying connection.
func (d *DB) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := d.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err, "begin")
	}
	return tx, nil
}

// Vacuum compacts the database file. Must not be called while a
// transaction is open on this connection.
func (d *DB) Vacuum(ctx context.Context) error {
	if _, err := d.sqldb.ExecContext(ctx, "VACUUM"); err != nil {
		return classify(err, "vacuum")
	}
	return nil
}

// classify maps a database/sql or driver error to bpt's error taxonomy.
// modernc.org/sqlite does not export stable sentinel error types across
// versions, so classification is done on the error text, the same
// pragmatic approach used for cross-driver compatibility elsewhere in
// the ecosystem.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "unique constraint"):
		return (&bpt.Error{Kind: bpt.ErrConstraintViolated, Message: bpt.ConstraintUnique, Inner: err}).WithOp(op)
	case strings.Contains(lower, "primary key"):
		return (&bpt.Error{Kind: bpt.ErrConstraintViolated, Message: bpt.ConstraintPrimaryKey, Inner: err}).WithOp(op)
	case strings.Contains(lower, "foreign key"):
		return (&bpt.Error{Kind: bpt.ErrConstraintViolated, Message: bpt.ConstraintForeignKey, Inner: err}).WithOp(op)
	case strings.Contains(lower, "database is locked"), strings.Contains(lower, "busy"):
		return bpt.Wrap(bpt.ErrBusy, err, op).WithOp(op)
	default:
		return bpt.Wrap(bpt.ErrGenericSQL, err, op).WithOp(op)
	}
}

// Classify maps a raw database/sql or driver error to bpt's error
// taxonomy. Callers that run statements directly against a *sql.Stmt
// returned by Prepare (rather than through ExecScript/Vacuum, which
// classify internally) should pass their error through this before
// inspecting it with IsConstraint.
func Classify(err error, op string) error { return classify(err, op) }

// IsConstraint reports whether err is a constraint-violation error of the
// given sub-kind (bpt.ConstraintUnique, bpt.ConstraintPrimaryKey, …).
func IsConstraint(err error, subKind string) bool {
	var e *bpt.Error
	for err != nil {
		if be, ok := err.(*bpt.Error); ok {
			e = be
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == bpt.ErrConstraintViolated && e.Message == subKind
}
