package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/resolve"
)

func mustPkg(t *testing.T, jsonDoc string) crs.PackageInfo {
	t.Helper()
	pkg, err := crs.ParseJSON([]byte(jsonDoc))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	return pkg
}

func mustDep(t *testing.T, s string) crs.Dependency {
	t.Helper()
	d, err := crs.ParseDependencyShorthand(s)
	if err != nil {
		t.Fatalf("ParseDependencyShorthand(%q): %v", s, err)
	}
	return d
}

func idString(ids []crs.PackageID, name string) (string, bool) {
	for _, id := range ids {
		if id.Name.String() == name {
			return id.Version.String(), true
		}
	}
	return "", false
}

func TestSolveSimpleChain(t *testing.T) {
	ctx := context.Background()
	src := resolve.NewStaticSource([]crs.PackageInfo{
		mustPkg(t, `{"name":"a","version":"1.0.0","pkg-version":1,"libraries":[{"name":"a","path":"."}]}`),
		mustPkg(t, `{"name":"b","version":"2.0.0","pkg-version":1,"depends":["a^1.0.0"],"libraries":[{"name":"b","path":"."}]}`),
	})

	ids, err := resolve.Solve(ctx, src, []crs.Dependency{mustDep(t, "b^2.0.0")})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if v, ok := idString(ids, "a"); !ok || v != "1.0.0" {
		t.Errorf("a = %q, %v; want 1.0.0, true", v, ok)
	}
	if v, ok := idString(ids, "b"); !ok || v != "2.0.0" {
		t.Errorf("b = %q, %v; want 2.0.0, true", v, ok)
	}
}

func TestSolvePrefersHighestVersionThenRevision(t *testing.T) {
	ctx := context.Background()
	src := resolve.NewStaticSource([]crs.PackageInfo{
		mustPkg(t, `{"name":"a","version":"1.0.0","pkg-version":1}`),
		mustPkg(t, `{"name":"a","version":"1.2.0","pkg-version":1}`),
		mustPkg(t, `{"name":"a","version":"1.2.0","pkg-version":2}`),
	})

	ids, err := resolve.Solve(ctx, src, []crs.Dependency{mustDep(t, "a^1.0.0")})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(ids) != 1 || ids[0].Version.String() != "1.2.0" || ids[0].Revision != 2 {
		t.Fatalf("ids = %+v, want a@1.2.0~2", ids)
	}
}

func TestSolveConflictingRootConstraintsFails(t *testing.T) {
	ctx := context.Background()
	src := resolve.NewStaticSource([]crs.PackageInfo{
		mustPkg(t, `{"name":"a","version":"1.0.0","pkg-version":1}`),
		mustPkg(t, `{"name":"a","version":"2.0.0","pkg-version":1}`),
	})

	_, err := resolve.Solve(ctx, src, []crs.Dependency{
		mustDep(t, "a^1.0.0"),
		mustDep(t, "a^2.0.0"),
	})
	if !errors.Is(err, bpt.ErrDependencySolveFailure) {
		t.Fatalf("error = %v, want ErrDependencySolveFailure", err)
	}
}

func TestSolveMissingExplicitLibraryFails(t *testing.T) {
	ctx := context.Background()
	src := resolve.NewStaticSource([]crs.PackageInfo{
		mustPkg(t, `{"name":"a","version":"1.0.0","pkg-version":1,"libraries":[{"name":"core","path":"."}]}`),
	})

	_, err := resolve.Solve(ctx, src, []crs.Dependency{mustDep(t, "a^1.0.0 using missing")})
	if !errors.Is(err, bpt.ErrNoSuchLibrary) {
		t.Fatalf("error = %v, want ErrNoSuchLibrary", err)
	}
}

func TestSolveUnknownPackageFails(t *testing.T) {
	ctx := context.Background()
	src := resolve.NewStaticSource(nil)

	_, err := resolve.Solve(ctx, src, []crs.Dependency{mustDep(t, "nonexistent^1.0.0")})
	if !errors.Is(err, bpt.ErrNoSuchPackage) {
		t.Fatalf("error = %v, want ErrNoSuchPackage", err)
	}
}

func TestSolveBacktracksToOlderVersionOnConflict(t *testing.T) {
	ctx := context.Background()
	// y has a single candidate, so it is decided first (tightest
	// constraint). x has two candidates satisfying the root's "any
	// version" dependency; the solver tries the newer one first, but it
	// requires a y range that conflicts with the already-assigned y, so
	// it must backtrack and retry with the older x.
	src := resolve.NewStaticSource([]crs.PackageInfo{
		mustPkg(t, `{"name":"y","version":"1.5.0","pkg-version":1}`),
		mustPkg(t, `{"name":"x","version":"2.0.0","pkg-version":1,"depends":["y^2.0.0"]}`),
		mustPkg(t, `{"name":"x","version":"1.0.0","pkg-version":1,"depends":["y^1.0.0"]}`),
	})

	ids, err := resolve.Solve(ctx, src, []crs.Dependency{
		mustDep(t, "x+0.0.0"),
		mustDep(t, "y^1.0.0"),
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if v, ok := idString(ids, "x"); !ok || v != "1.0.0" {
		t.Fatalf("x = %q, %v; want 1.0.0, true (should have backtracked off x@2.0.0)", v, ok)
	}
	if v, ok := idString(ids, "y"); !ok || v != "1.5.0" {
		t.Fatalf("y = %q, %v; want 1.5.0, true", v, ok)
	}
}
