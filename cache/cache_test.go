package cache_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/cache"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/repo"
)

// newFakeRemote builds a real Repository with one imported package and
// serves its directory tree over HTTP, the way a remote CRS repository is
// expected to be reachable (repo.db.gz at the root, pkg/<name>/<version>~<rev>/pkg.tgz
// underneath).
func newFakeRemote(t *testing.T) (*httptest.Server, crs.PackageID) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	r, err := repo.Create(ctx, dir, "remote-repo")
	if err != nil {
		t.Fatalf("repo.Create: %v", err)
	}

	src := filepath.Join(t.TempDir(), "src")
	if err := os.MkdirAll(filepath.Join(src, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	pkgJSON := `{"name": "widget", "version": "1.0.0", "pkg-version": 1, "libraries": [{"name": "widget", "path": "."}]}`
	if err := os.WriteFile(filepath.Join(src, "pkg.json"), []byte(pkgJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "lib", "widget.cpp"), []byte("// widget\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pkg, err := r.ImportDir(ctx, src)
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)
	return srv, pkg.ID
}

func TestSyncRemoteThenAllEnabledPackages(t *testing.T) {
	ctx := context.Background()
	srv, id := newFakeRemote(t)

	c, err := cache.Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()
	c.WithHTTPClient(srv.Client())

	if err := c.SyncRemote(ctx, srv.URL); err != nil {
		t.Fatalf("SyncRemote: %v", err)
	}

	// Not yet enabled: no packages visible.
	pkgs, err := c.AllEnabledPackages(ctx)
	if err != nil {
		t.Fatalf("AllEnabledPackages (before enable): %v", err)
	}
	if len(pkgs) != 0 {
		t.Fatalf("AllEnabledPackages before EnableRemote = %+v, want empty", pkgs)
	}

	if err := c.EnableRemote(ctx, srv.URL); err != nil {
		t.Fatalf("EnableRemote: %v", err)
	}
	pkgs, err = c.AllEnabledPackages(ctx)
	if err != nil {
		t.Fatalf("AllEnabledPackages: %v", err)
	}
	if len(pkgs) != 1 || !pkgs[0].ID.Equal(id) {
		t.Fatalf("AllEnabledPackages = %+v, want [%v]", pkgs, id)
	}

	if err := c.DisableRemote(ctx, srv.URL); err != nil {
		t.Fatalf("DisableRemote: %v", err)
	}
	pkgs, err = c.AllEnabledPackages(ctx)
	if err != nil {
		t.Fatalf("AllEnabledPackages (after disable): %v", err)
	}
	if len(pkgs) != 0 {
		t.Fatalf("AllEnabledPackages after DisableRemote = %+v, want empty", pkgs)
	}
}

func TestPrefetch(t *testing.T) {
	ctx := context.Background()
	srv, id := newFakeRemote(t)

	c, err := cache.Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()
	c.WithHTTPClient(srv.Client())

	if err := c.SyncRemote(ctx, srv.URL); err != nil {
		t.Fatalf("SyncRemote: %v", err)
	}
	if err := c.EnableRemote(ctx, srv.URL); err != nil {
		t.Fatalf("EnableRemote: %v", err)
	}

	if err := c.Prefetch(ctx, id); err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	archivePath := filepath.Join(c.PkgDir(), id.Name.String(), id.SubdirName(), "pkg.tgz")
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("expected %s to exist after Prefetch: %v", archivePath, err)
	}

	// Re-prefetching is a no-op, not an error.
	if err := c.Prefetch(ctx, id); err != nil {
		t.Fatalf("second Prefetch: %v", err)
	}
}

func TestPrefetchUnknownPackageFails(t *testing.T) {
	ctx := context.Background()
	srv, _ := newFakeRemote(t)

	c, err := cache.Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()
	c.WithHTTPClient(srv.Client())

	if err := c.SyncRemote(ctx, srv.URL); err != nil {
		t.Fatalf("SyncRemote: %v", err)
	}
	if err := c.EnableRemote(ctx, srv.URL); err != nil {
		t.Fatalf("EnableRemote: %v", err)
	}

	missing := crs.PackageID{Name: crs.MustName("nonexistent"), Version: mustVersion(t, "9.9.9"), Revision: 1}
	err = c.Prefetch(ctx, missing)
	if !errors.Is(err, bpt.ErrNoSuchPackage) {
		t.Errorf("error = %v, want ErrNoSuchPackage", err)
	}
}

func mustVersion(t *testing.T, s string) crs.Version {
	t.Helper()
	v, err := crs.ParseVersion(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
