package repo

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/internal/store"
)

const pkgJSONMember = "pkg.json"

func (r *Repository) stagingDir() (string, error) {
	dir := filepath.Join(r.TmpDir(), uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("creating staging directory %s", dir))
	}
	return dir, nil
}

// ImportTargz imports a pre-built pkg.tgz (containing a pkg.json member at
// its root) into the repository, grounded on bpt/crs/repo.cpp's
// import_targz: the archive's pkg.json is read without fully unpacking the
// tree, then the metadata insert and the filesystem copy are both folded
// into a single commit point — the original wraps both in one
// neo::sqlite3::transaction_guard that only commits once the filesystem
// side has succeeded, so a failed copy never leaves a metadata row with no
// matching on-disk package (spec §4.C, invariant 1).
func (r *Repository) ImportTargz(ctx context.Context, tgzPath string) (crs.PackageInfo, error) {
	op := fmt.Sprintf("importing %s", tgzPath)

	raw, err := extractFileFromTargz(tgzPath, pkgJSONMember)
	if err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	pkg, err := crs.ParseJSON(raw)
	if err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	defer tx.Rollback() //nolint:errcheck // no-op if already committed

	if err := recordMetadataTx(ctx, tx, pkg); err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}

	dest := r.SubdirOf(pkg.ID)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(bpt.Wrap(bpt.ErrIOOther, err, dest), op)
	}
	if err := copyFile(tgzPath, filepath.Join(dest, "pkg.tgz")); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	if err := os.WriteFile(filepath.Join(dest, pkgJSONMember), []byte(pkg.ToJSON()), 0o644); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(bpt.Wrap(bpt.ErrIOOther, err, "writing pkg.json"), op)
	}

	if err := tx.Commit(); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(bpt.Wrap(bpt.ErrGenericSQL, err, "committing import"), op)
	}

	if err := r.vacuumAndCompress(ctx); err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	return pkg, nil
}

// ImportDir imports a package from a source tree containing a pkg.json and
// one directory per library, archiving the library sources into a fresh
// pkg.tgz the way import_dir's copy_source_tree/archive_package_libraries
// do in the original tool. Only each library's src/ and include/
// subtrees are copied (spec §4.C), matching the original's copy_library,
// which checks each candidate subdirectory with fs::is_directory before
// copying it and skips it entirely otherwise.
//
// As with ImportTargz, the metadata insert and the filesystem publish
// share a single commit point so a failed copy never leaves a dangling
// metadata row (spec §4.C, invariant 1).
func (r *Repository) ImportDir(ctx context.Context, srcDir string) (crs.PackageInfo, error) {
	op := fmt.Sprintf("importing directory %s", srcDir)

	raw, err := os.ReadFile(filepath.Join(srcDir, pkgJSONMember))
	if err != nil {
		return crs.PackageInfo{}, wrapOp(bpt.Wrap(bpt.ErrPathNotFound, err, "reading pkg.json"), op)
	}
	pkg, err := crs.ParseJSON(raw)
	if err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}

	staging, err := r.stagingDir()
	if err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	defer os.RemoveAll(staging)

	for _, lib := range pkg.Libraries {
		if err := copyLibrarySubtrees(filepath.Join(srcDir, lib.Path), filepath.Join(staging, lib.Path)); err != nil {
			return crs.PackageInfo{}, wrapOp(err, op)
		}
	}
	if err := os.WriteFile(filepath.Join(staging, pkgJSONMember), []byte(pkg.ToJSON()), 0o644); err != nil {
		return crs.PackageInfo{}, wrapOp(bpt.Wrap(bpt.ErrIOOther, err, "writing staged pkg.json"), op)
	}

	tgz := filepath.Join(r.TmpDir(), uuid.NewString()+".tgz")
	defer os.Remove(tgz)
	if err := archiveDirToTargz(staging, tgz); err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	defer tx.Rollback() //nolint:errcheck // no-op if already committed

	if err := recordMetadataTx(ctx, tx, pkg); err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}

	dest := r.SubdirOf(pkg.ID)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(bpt.Wrap(bpt.ErrIOOther, err, dest), op)
	}
	if err := copyFile(tgz, filepath.Join(dest, "pkg.tgz")); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	if err := copyFile(filepath.Join(staging, pkgJSONMember), filepath.Join(dest, pkgJSONMember)); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(err, op)
	}

	if err := tx.Commit(); err != nil {
		os.RemoveAll(dest)
		return crs.PackageInfo{}, wrapOp(bpt.Wrap(bpt.ErrGenericSQL, err, "committing import"), op)
	}

	if err := r.vacuumAndCompress(ctx); err != nil {
		return crs.PackageInfo{}, wrapOp(err, op)
	}
	return pkg, nil
}

// libSubtrees are the only per-library subdirectories a repository import
// ever copies (spec §4.C); anything else alongside a library's sources —
// build scratch, IDE metadata, vendored trees the manifest doesn't
// declare as a library — is left behind.
var libSubtrees = []string{"src", "include"}

// copyLibrarySubtrees copies only the src/ and include/ subdirectories of
// a library directory that actually exist, mirroring the original tool's
// copy_library, which probes each candidate with fs::is_directory and
// silently skips those absent.
func copyLibrarySubtrees(libSrc, libDst string) error {
	for _, sub := range libSubtrees {
		srcSub := filepath.Join(libSrc, sub)
		info, err := os.Stat(srcSub)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("statting %s", srcSub))
		}
		if !info.IsDir() {
			continue
		}
		if err := copyTree(srcSub, filepath.Join(libDst, sub)); err != nil {
			return err
		}
	}
	return nil
}

// recordMetadataTx inserts pkg's canonical metadata into
// crs_repo_packages within tx, translating a unique-constraint violation
// (same name/version/pkg-version already present) into
// bpt.ErrPkgAlreadyPresent. Run inside the caller's import transaction so
// the row is only durable once the filesystem publish has also
// succeeded.
func recordMetadataTx(ctx context.Context, tx *sql.Tx, pkg crs.PackageInfo) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO crs_repo_packages (meta_json) VALUES (?)`, pkg.ToJSON()); err != nil {
		classified := store.Classify(err, "record-metadata")
		if store.IsConstraint(classified, bpt.ConstraintUnique) {
			return bpt.New(bpt.ErrPkgAlreadyPresent, pkg.ID.String())
		}
		return bpt.Wrap(bpt.ErrRepoImportFailed, classified, "recording package metadata")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("opening %s", src))
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("creating %s", dst))
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("copying %s to %s", src, dst))
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return bpt.Wrap(bpt.ErrIOOther, err, fmt.Sprintf("walking %s", src))
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return bpt.Wrap(bpt.ErrIOOther, err, "computing relative source path")
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}
