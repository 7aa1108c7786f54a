// Package cache implements the remote CRS cache: a local mirror of one or
// more remote repositories' metadata, plus a lazily-populated package
// archive store, per spec §4.D.
package cache

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/cache/migrations"
	"github.com/maxtruxa/bpt/internal/store"
)

// Cache is a handle to an on-disk remote cache rooted at a directory:
// cache.db (remote metadata mirrors), pkg/ (prefetched archives).
type Cache struct {
	db     *store.DB
	dir    string
	client *http.Client
}

func dbPath(dir string) string  { return filepath.Join(dir, "cache.db") }
func pkgPath(dir string) string { return filepath.Join(dir, "pkg") }

// DefaultPath returns the default cache root, "<user cache dir>/bpt/crs",
// honoring $XDG_CACHE_HOME / the platform equivalent the way os.UserCacheDir
// does (spec §4.D: "default ~/.cache/<app>/crs").
func DefaultPath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", bpt.Wrap(bpt.ErrIOOther, err, "resolving default cache directory")
	}
	return filepath.Join(base, "bpt", "crs"), nil
}

// Open opens (creating and migrating if absent) the cache rooted at dir.
func Open(ctx context.Context, dir string) (*Cache, error) {
	op := fmt.Sprintf("opening cache at %s", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, bpt.Wrap(bpt.ErrIOOther, err, op)
	}
	db, err := store.Open(dbPath(dir))
	if err != nil {
		return nil, bpt.Wrap(bpt.ErrDBOpenFailed, err, op)
	}
	if err := db.Migrate(ctx, migrations.MetaTable, migrations.Migrations); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, dir: dir, client: http.DefaultClient}, nil
}

// WithHTTPClient overrides the *http.Client used for remote fetches
// (tests point this at an httptest.Server).
func (c *Cache) WithHTTPClient(client *http.Client) *Cache {
	c.client = client
	return c
}

// Dir returns the cache's root directory.
func (c *Cache) Dir() string { return c.dir }

// PkgDir returns the cache's prefetched-archive root.
func (c *Cache) PkgDir() string { return pkgPath(c.dir) }

// Close releases the underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }
