package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/internal/store"
)

// SyncRemote fetches url's repo.db.gz snapshot, decompresses it, and
// overwrites this cache's local mirror of that remote's package metadata.
// Idempotent: repeated syncs against an unchanged remote leave the mirror
// unchanged other than last_synced_at. Overwrite semantics only — no
// diff-merge against a shrunk remote (see DESIGN.md Open Question
// "Repo merging").
func (c *Cache) SyncRemote(ctx context.Context, url string) error {
	op := fmt.Sprintf("syncing remote %s", url)

	snapshot, err := c.fetchSnapshot(ctx, joinRemoteURL(url, "repo.db.gz"))
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, op)
	}
	defer os.Remove(snapshot)

	remoteDB, err := store.Open(snapshot)
	if err != nil {
		return bpt.Wrap(bpt.ErrDBOpenFailed, err, op)
	}
	defer remoteDB.Close()

	rows, err := remoteDB.Raw().QueryContext(ctx, `SELECT meta_json FROM crs_repo_packages`)
	if err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, op)
	}
	var metas []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			rows.Close()
			return bpt.Wrap(bpt.ErrGenericSQL, err, op)
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return bpt.Wrap(bpt.ErrGenericSQL, err, op)
	}
	rows.Close()

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op if already committed

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO crs_cache_remotes (url, enabled, last_synced_at) VALUES (?, 0, ?)
		ON CONFLICT(url) DO UPDATE SET last_synced_at = excluded.last_synced_at`,
		url, now); err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, op)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM crs_cache_packages WHERE remote_url = ?`, url); err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, op)
	}
	for _, m := range metas {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO crs_cache_packages (remote_url, meta_json) VALUES (?, ?)`, url, m); err != nil {
			return bpt.Wrap(bpt.ErrGenericSQL, err, op)
		}
	}
	if err := tx.Commit(); err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, op)
	}
	return nil
}

// EnableRemote marks url as eligible for resolution queries.
func (c *Cache) EnableRemote(ctx context.Context, url string) error {
	return c.setEnabled(ctx, url, true)
}

// DisableRemote excludes url from AllEnabledPackages without discarding its
// synced mirror (spec §4.D: "disabled remotes remain synced").
func (c *Cache) DisableRemote(ctx context.Context, url string) error {
	return c.setEnabled(ctx, url, false)
}

func (c *Cache) setEnabled(ctx context.Context, url string, enabled bool) error {
	_, err := c.db.Raw().ExecContext(ctx, `
		INSERT INTO crs_cache_remotes (url, enabled) VALUES (?, ?)
		ON CONFLICT(url) DO UPDATE SET enabled = excluded.enabled`, url, enabled)
	if err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, fmt.Sprintf("updating remote %s", url))
	}
	return nil
}

// AllEnabledPackages returns the union of package metadata across all
// enabled remotes, deduplicated by PackageID. Rows are ordered by the
// order in which each remote was first recorded in the cache (by
// SyncRemote or EnableRemote), then by name, version text and revision;
// on a duplicate PackageID the first such remote wins. The time a remote
// was last enabled is not tracked and does not affect the order.
func (c *Cache) AllEnabledPackages(ctx context.Context) ([]crs.PackageInfo, error) {
	rows, err := c.db.Raw().QueryContext(ctx, `
		SELECT p.meta_json
		FROM crs_cache_packages p
		JOIN crs_cache_remotes r ON r.url = p.remote_url
		WHERE r.enabled = 1
		ORDER BY r.rowid, p.name, p.version, p.pkg_version`)
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrGenericSQL, err, "querying enabled packages")
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []crs.PackageInfo
	for rows.Next() {
		var metaJSON string
		if err := rows.Scan(&metaJSON); err != nil {
			return nil, bpt.Wrap(bpt.ErrGenericSQL, err, "scanning cache package row")
		}
		pkg, err := crs.ParseJSON([]byte(metaJSON))
		if err != nil {
			return nil, err
		}
		key := pkg.ID.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, bpt.Wrap(bpt.ErrGenericSQL, err, "iterating cache package rows")
	}
	return out, nil
}

// fetchSnapshot downloads and gzip-decompresses url into a temporary file,
// returning its path. The caller owns removing it.
func (c *Cache) fetchSnapshot(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", err
	}
	defer gz.Close()

	tmpDir := filepath.Join(c.dir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(tmpDir, uuid.NewString()+".db")
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, gz); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// joinRemoteURL appends member to a remote base URL, the way Repository's
// on-disk layout (repo.db.gz, pkg/<name>/<version>~<rev>/pkg.tgz) is
// mirrored by a remote served over plain HTTP.
func joinRemoteURL(base, member string) string {
	if strings.HasSuffix(base, "/") {
		return base + member
	}
	return base + "/" + member
}
