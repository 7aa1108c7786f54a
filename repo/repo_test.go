package repo_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/repo"
)

// writeSourceTree lays out a minimal importable directory: a pkg.json plus
// one library directory containing a single source file.
func writeSourceTree(t *testing.T, dir string, rev int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := fmt.Sprintf(`{
	"name": "widget",
	"version": "1.0.0",
	"pkg-version": %d,
	"libraries": [
		{"name": "widget", "path": "."}
	]
}`, rev)
	if err := os.WriteFile(filepath.Join(dir, "pkg.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "widget.cpp"), []byte("// widget\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRepoCreateThenOpenExisting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := repo.Create(ctx, dir, "test-repo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	name, err := r.Name(ctx)
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name != "test-repo" {
		t.Errorf("name = %q, want test-repo", name)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "repo.db.gz")); err != nil {
		t.Errorf("expected repo.db.gz to exist after Create: %v", err)
	}

	r2, err := repo.OpenExisting(ctx, dir)
	if err != nil {
		t.Fatalf("OpenExisting: %v", err)
	}
	defer r2.Close()
	name2, err := r2.Name(ctx)
	if err != nil {
		t.Fatalf("Name (reopened): %v", err)
	}
	if name2 != "test-repo" {
		t.Errorf("reopened name = %q, want test-repo", name2)
	}
}

func TestRepoCreateTwiceFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := repo.Create(ctx, dir, "one")
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	r.Close()

	_, err = repo.Create(ctx, dir, "two")
	if !errors.Is(err, bpt.ErrRepoAlreadyInit) {
		t.Fatalf("second Create error = %v, want ErrRepoAlreadyInit", err)
	}
}

func TestImportDirThreeRevisions(t *testing.T) {
	ctx := context.Background()
	repoDir := t.TempDir()
	r, err := repo.Create(ctx, repoDir, "test-repo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.Close()

	for rev := 1; rev <= 3; rev++ {
		src := filepath.Join(t.TempDir(), "src")
		writeSourceTree(t, src, rev)
		pkg, err := r.ImportDir(ctx, src)
		if err != nil {
			t.Fatalf("ImportDir (rev %d): %v", rev, err)
		}
		if pkg.ID.Revision != rev {
			t.Fatalf("imported revision = %d, want %d", pkg.ID.Revision, rev)
		}
	}

	all, err := r.AllPackages(ctx)
	if err != nil {
		t.Fatalf("AllPackages: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("AllPackages returned %d entries, want 3", len(all))
	}

	latest, err := r.AllLatestRevPackages(ctx)
	if err != nil {
		t.Fatalf("AllLatestRevPackages: %v", err)
	}
	if len(latest) != 1 || latest[0].ID.Revision != 3 {
		t.Fatalf("AllLatestRevPackages = %+v, want single entry at revision 3", latest)
	}
}

func TestImportDirDuplicateRevisionFails(t *testing.T) {
	ctx := context.Background()
	repoDir := t.TempDir()
	r, err := repo.Create(ctx, repoDir, "test-repo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.Close()

	src := filepath.Join(t.TempDir(), "src")
	writeSourceTree(t, src, 1)
	if _, err := r.ImportDir(ctx, src); err != nil {
		t.Fatalf("first ImportDir: %v", err)
	}

	all, err := r.AllPackages(ctx)
	if err != nil {
		t.Fatalf("AllPackages: %v", err)
	}

	_, err = r.ImportDir(ctx, src)
	if !errors.Is(err, bpt.ErrPkgAlreadyPresent) {
		t.Fatalf("duplicate ImportDir error = %v, want ErrPkgAlreadyPresent", err)
	}

	allAfter, err := r.AllPackages(ctx)
	if err != nil {
		t.Fatalf("AllPackages after failed import: %v", err)
	}
	if len(allAfter) != len(all) {
		t.Fatalf("failed import changed package count: %d -> %d", len(all), len(allAfter))
	}
}

func TestRemovePkg(t *testing.T) {
	ctx := context.Background()
	repoDir := t.TempDir()
	r, err := repo.Create(ctx, repoDir, "test-repo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.Close()

	src := filepath.Join(t.TempDir(), "src")
	writeSourceTree(t, src, 1)
	pkg, err := r.ImportDir(ctx, src)
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}

	if err := r.RemovePkg(ctx, pkg.ID); err != nil {
		t.Fatalf("RemovePkg: %v", err)
	}
	all, err := r.AllPackages(ctx)
	if err != nil {
		t.Fatalf("AllPackages: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("AllPackages after RemovePkg = %+v, want empty", all)
	}

	if _, err := os.Stat(r.SubdirOf(pkg.ID)); !os.IsNotExist(err) {
		t.Errorf("expected package directory to be removed, stat err = %v", err)
	}

	// Removing an already-absent package is a no-op, not an error.
	if err := r.RemovePkg(ctx, pkg.ID); err != nil {
		t.Errorf("RemovePkg on absent id: %v", err)
	}
}
