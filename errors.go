// Package bpt holds the error domain type shared by every subsystem in
// this module: the CRS store, the resolver, the toolchain model, and the
// build executor.
package bpt

import (
	"strings"
)

// Error is bpt's structured error domain type.
//
// Every error surfaced across a package boundary in this module should be
// inspectable as (errors.As) an *Error at some point in the error chain.
// Components create an Error at the point a failure is first observed (a
// failed syscall, a SQL constraint violation, a bad parse) and attach
// context with WithOp as the error propagates back up through scopes,
// rather than rewriting it into a new error type at each layer.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("]")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Inner != nil {
		b.WriteString(": ")
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables errors.Is by comparing error kind. Callers compare against a
// declared ErrorKind, e.g. errors.Is(err, bpt.ErrRepoAlreadyInit).
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	if !ok {
		return false
	}
	return e.Kind == k
}

// Unwrap enables errors.Unwrap / errors.As on the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// WithOp returns a copy of e with Op set, for attaching scope context as
// an error propagates ("while importing directory X", "while parsing
// dependency string Y").
func (e *Error) WithOp(op string) *Error {
	cp := *e
	if cp.Op == "" {
		cp.Op = op
	} else {
		cp.Op = op + ": " + cp.Op
	}
	return &cp
}

// New constructs an *Error of the given kind with a message.
func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap constructs an *Error of the given kind wrapping an underlying
// cause, e.g. a driver error from database/sql or a *fs.PathError.
func Wrap(kind ErrorKind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Inner: cause}
}

// ErrorKind is the taxonomy of error kinds named in the spec, not a set
// of distinct Go types. Callers should compare against a declared
// ErrorKind with errors.Is rather than against a concrete *Error value.
type ErrorKind string

// Error implements error so an ErrorKind can itself be passed to
// errors.Is as the target.
func (k ErrorKind) Error() string { return string(k) }

// Input/parse kinds.
const (
	ErrInvalidName           ErrorKind = "invalid-name"
	ErrInvalidVersion        ErrorKind = "invalid-version"
	ErrInvalidDepShorthand   ErrorKind = "invalid-dep-shorthand"
	ErrUnknownManifestKey    ErrorKind = "unknown-manifest-key"
	ErrBadManifestValue      ErrorKind = "bad-manifest-value"
)

// Repository kinds.
const (
	ErrRepoAlreadyInit    ErrorKind = "repo-already-init"
	ErrRepoOpenFailed     ErrorKind = "repo-open-failed"
	ErrPkgAlreadyPresent  ErrorKind = "pkg-already-present"
	ErrInvalidPkgRevision ErrorKind = "invalid-pkg-revision"
	ErrRepoImportFailed   ErrorKind = "repo-import-failed"
)

// Database kinds.
const (
	ErrDBOpenFailed       ErrorKind = "db-open-failed"
	ErrMigrationFailed    ErrorKind = "migration-failed"
	ErrConstraintViolated ErrorKind = "constraint-violation"
	ErrBusy               ErrorKind = "busy"
	ErrGenericSQL         ErrorKind = "generic-sql"
)

// Constraint-violation sub-kinds, carried in Error.Message alongside
// ErrConstraintViolated.
const (
	ConstraintPrimaryKey = "primary-key"
	ConstraintUnique     = "unique"
	ConstraintForeignKey = "foreign-key"
)

// Resolver kinds.
const (
	ErrDependencySolveFailure ErrorKind = "dependency-solve-failure"
	ErrNoSuchPackage          ErrorKind = "no-such-package"
	ErrNoSuchLibrary          ErrorKind = "no-such-library"
)

// Toolchain/build kinds.
const (
	ErrToolchainLoadFailed ErrorKind = "toolchain-load-failed"
	ErrCompilationFailed   ErrorKind = "compilation-failed"
	ErrArchiveFailed       ErrorKind = "archive-failed"
	ErrLinkFailed          ErrorKind = "link-failed"
	ErrMissingDepsFile     ErrorKind = "missing-deps-file"
)

// I/O kinds.
const (
	ErrPathNotFound     ErrorKind = "path-not-found"
	ErrPermissionDenied ErrorKind = "permission-denied"
	ErrIOOther          ErrorKind = "io-other"
)
