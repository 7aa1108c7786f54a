package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
)

// Prefetch ensures id's archive is materialized under the cache's package
// store, downloading it from whichever enabled remote advertises it. It is
// a no-op if the archive is already present, and fails with
// bpt.ErrNoSuchPackage if no enabled remote advertises id.
func (c *Cache) Prefetch(ctx context.Context, id crs.PackageID) error {
	op := fmt.Sprintf("prefetching %s", id)
	dest := c.subdirOf(id)

	if already, err := c.alreadyPrefetched(ctx, id); err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, op)
	} else if already {
		if _, err := os.Stat(filepath.Join(dest, "pkg.tgz")); err == nil {
			return nil
		}
	}

	remoteURL, err := c.findAdvertisingRemote(ctx, id)
	if err != nil {
		return err
	}

	archiveURL := joinRemoteURL(remoteURL, fmt.Sprintf("pkg/%s/%s/pkg.tgz", id.Name.String(), id.SubdirName()))
	if err := c.downloadFile(ctx, archiveURL, dest); err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, op)
	}

	if _, err := c.db.Raw().ExecContext(ctx, `
		INSERT INTO crs_cache_prefetched (name, version, pkg_version, remote_url) VALUES (?, ?, ?, ?)
		ON CONFLICT(name, version, pkg_version) DO UPDATE SET remote_url = excluded.remote_url`,
		id.Name.String(), id.Version.String(), id.Revision, remoteURL); err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, op)
	}
	return nil
}

func (c *Cache) subdirOf(id crs.PackageID) string {
	return filepath.Join(c.PkgDir(), id.Name.String(), id.SubdirName())
}

func (c *Cache) alreadyPrefetched(ctx context.Context, id crs.PackageID) (bool, error) {
	var remoteURL string
	err := c.db.Raw().QueryRowContext(ctx, `
		SELECT remote_url FROM crs_cache_prefetched
		WHERE name = ? AND version = ? AND pkg_version = ?`,
		id.Name.String(), id.Version.String(), id.Revision).Scan(&remoteURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// findAdvertisingRemote returns the enabled remote advertising id that was
// first recorded in the cache, matching AllEnabledPackages's precedence
// rule.
func (c *Cache) findAdvertisingRemote(ctx context.Context, id crs.PackageID) (string, error) {
	var remoteURL string
	err := c.db.Raw().QueryRowContext(ctx, `
		SELECT p.remote_url
		FROM crs_cache_packages p
		JOIN crs_cache_remotes r ON r.url = p.remote_url
		WHERE r.enabled = 1 AND p.name = ? AND p.version = ? AND p.pkg_version = ?
		ORDER BY r.rowid
		LIMIT 1`,
		id.Name.String(), id.Version.String(), id.Revision).Scan(&remoteURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", bpt.New(bpt.ErrNoSuchPackage, id.String())
		}
		return "", bpt.Wrap(bpt.ErrGenericSQL, err, fmt.Sprintf("looking up remote for %s", id))
	}
	return remoteURL, nil
}

func (c *Cache) downloadFile(ctx context.Context, url, destDir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(destDir, "pkg.tgz"))
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}
