package repo

import (
	"context"
	"os"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
)

// AllPackages returns every package publication in the repository,
// including every revision of every version, in insertion order.
func (r *Repository) AllPackages(ctx context.Context) ([]crs.PackageInfo, error) {
	st, err := r.db.Prepare(ctx, `SELECT meta_json FROM crs_repo_packages ORDER BY package_id`)
	if err != nil {
		return nil, err
	}
	rows, err := st.QueryContext(ctx)
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, "querying all packages")
	}
	defer rows.Close()

	var out []crs.PackageInfo
	for rows.Next() {
		var metaJSON string
		if err := rows.Scan(&metaJSON); err != nil {
			return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, "scanning package row")
		}
		pkg, err := crs.ParseJSON([]byte(metaJSON))
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, "iterating package rows")
	}
	return out, nil
}

// AllLatestRevPackages returns, for each distinct (name, version), only the
// publication with the highest pkg-version revision — the set a resolver
// should see by default (spec §4.E: resolution prefers the latest revision
// of a given version unless pinned).
func (r *Repository) AllLatestRevPackages(ctx context.Context) ([]crs.PackageInfo, error) {
	st, err := r.db.Prepare(ctx, `
		SELECT p.meta_json
		FROM crs_repo_packages p
		WHERE p.pkg_version = (
			SELECT MAX(p2.pkg_version)
			FROM crs_repo_packages p2
			WHERE p2.name = p.name AND p2.version = p.version
		)
		ORDER BY p.name, p.version`)
	if err != nil {
		return nil, err
	}
	rows, err := st.QueryContext(ctx)
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, "querying latest-revision packages")
	}
	defer rows.Close()

	var out []crs.PackageInfo
	for rows.Next() {
		var metaJSON string
		if err := rows.Scan(&metaJSON); err != nil {
			return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, "scanning package row")
		}
		pkg, err := crs.ParseJSON([]byte(metaJSON))
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, bpt.Wrap(bpt.ErrRepoImportFailed, err, "iterating package rows")
	}
	return out, nil
}

// RemovePkg deletes id's metadata row and content directory, then
// re-publishes the compressed snapshot. It is a no-op, not an error, if id
// is already absent (mirroring the original tool's remove_pkg, which is
// idempotent so repeated cleanup scripts don't fail).
func (r *Repository) RemovePkg(ctx context.Context, id crs.PackageID) error {
	op := "removing " + id.String()

	st, err := r.db.Prepare(ctx, `
		DELETE FROM crs_repo_packages
		WHERE name = ? AND version = ? AND pkg_version = ?`)
	if err != nil {
		return wrapOp(err, op)
	}
	if _, err := st.ExecContext(ctx, id.Name.String(), id.Version.String(), id.Revision); err != nil {
		return wrapOp(bpt.Wrap(bpt.ErrRepoImportFailed, err, "deleting package metadata"), op)
	}

	if err := os.RemoveAll(r.SubdirOf(id)); err != nil && !os.IsNotExist(err) {
		return wrapOp(bpt.Wrap(bpt.ErrIOOther, err, "removing package directory"), op)
	}

	return wrapOp(r.vacuumAndCompress(ctx), op)
}
