package main

import (
	"context"
	"fmt"

	"github.com/maxtruxa/bpt/cache"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/resolve"
)

// dispatchPkg handles "bpt pkg <get|prefetch|solve> ...".
func dispatchPkg(ctx context.Context, gf globalFlags, args []string) (string, error) {
	if len(args) == 0 {
		return "pkg", fmt.Errorf("usage: bpt pkg <get|prefetch|solve> ...")
	}
	switch args[0] {
	case "get":
		return "pkg-get", pkgGet(ctx, gf, args[1:])
	case "prefetch":
		return "pkg-prefetch", pkgPrefetch(ctx, gf, args[1:])
	case "solve":
		return "pkg-solve", pkgSolve(ctx, gf, args[1:])
	default:
		return "pkg", fmt.Errorf("unknown pkg subcommand %q", args[0])
	}
}

func openCache(ctx context.Context, gf globalFlags) (*cache.Cache, error) {
	dir := cacheRootOverride()
	if dir == "" {
		var err error
		dir, err = cache.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	c, err := cache.Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	if gf.useRepo != "" {
		if err := c.SyncRemote(ctx, gf.useRepo); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// pkgGet resolves a single dependency shorthand against the enabled
// remotes and ensures the chosen package is present locally.
func pkgGet(ctx context.Context, gf globalFlags, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bpt pkg get <name><op><version>[ using <lib>,...]")
	}
	dep, err := crs.ParseDependencyShorthand(args[0])
	if err != nil {
		return err
	}

	c, err := openCache(ctx, gf)
	if err != nil {
		return err
	}
	defer c.Close()

	pkgs, err := c.AllEnabledPackages(ctx)
	if err != nil {
		return err
	}
	src := resolve.NewStaticSource(pkgs)
	ids, err := resolve.Solve(ctx, src, []crs.Dependency{dep})
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id.Name.Compare(dep.Name) != 0 {
			continue
		}
		if err := c.Prefetch(ctx, id); err != nil {
			return err
		}
		fmt.Println(id.String())
		return nil
	}
	return fmt.Errorf("solver produced no id for %s", dep.Name.String())
}

// pkgPrefetch downloads every package named on the command line without
// running the resolver, by the exact version/revision given.
func pkgPrefetch(ctx context.Context, gf globalFlags, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bpt pkg prefetch <name> <version~revision> [...]")
	}
	if len(args)%2 != 0 {
		return fmt.Errorf("expected pairs of <name> <version~revision>")
	}

	c, err := openCache(ctx, gf)
	if err != nil {
		return err
	}
	defer c.Close()

	for i := 0; i < len(args); i += 2 {
		id, err := parsePackageID(args[i], args[i+1])
		if err != nil {
			return err
		}
		if err := c.Prefetch(ctx, id); err != nil {
			return err
		}
		fmt.Println(id.String())
	}
	return nil
}

// pkgSolve resolves a full dependency set against the enabled remotes and
// prints the chosen package IDs, one per line, without prefetching.
func pkgSolve(ctx context.Context, gf globalFlags, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bpt pkg solve <dep-shorthand> [...]")
	}
	deps := make([]crs.Dependency, 0, len(args))
	for _, a := range args {
		dep, err := crs.ParseDependencyShorthand(a)
		if err != nil {
			return err
		}
		deps = append(deps, dep)
	}

	c, err := openCache(ctx, gf)
	if err != nil {
		return err
	}
	defer c.Close()

	pkgs, err := c.AllEnabledPackages(ctx)
	if err != nil {
		return err
	}
	src := resolve.NewStaticSource(pkgs)
	ids, err := resolve.Solve(ctx, src, deps)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id.String())
	}
	return nil
}
