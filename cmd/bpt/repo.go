package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/repo"
)

// dispatchRepo handles "bpt repo <init|import|ls|remove> ...". It
// returns the dash-joined op path (for error-marker rendering) alongside
// any error.
func dispatchRepo(ctx context.Context, gf globalFlags, args []string) (string, error) {
	if len(args) == 0 {
		return "repo", fmt.Errorf("usage: bpt repo <init|import|ls|remove> ...")
	}
	switch args[0] {
	case "init":
		return "repo-init", repoInit(ctx, gf, args[1:])
	case "import":
		return "repo-import", repoImport(ctx, args[1:])
	case "ls":
		return "repo-ls", repoLs(ctx, args[1:])
	case "remove":
		return "repo-remove", repoRemove(ctx, args[1:])
	default:
		return "repo", fmt.Errorf("unknown repo subcommand %q", args[0])
	}
}

func repoInit(ctx context.Context, gf globalFlags, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: bpt repo init <dir> <name>")
	}
	dir, name := args[0], args[1]

	r, err := repo.Create(ctx, dir, name)
	if err != nil {
		if errors.Is(err, bpt.ErrRepoAlreadyInit) {
			switch gf.ifExists {
			case ifExistsIgnore:
				return nil
			case ifExistsReplace:
				if err := os.RemoveAll(dir); err != nil {
					return err
				}
				r, err = repo.Create(ctx, dir, name)
				if err != nil {
					return err
				}
				return r.Close()
			}
		}
		return err
	}
	return r.Close()
}

func repoImport(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: bpt repo import <dir> <tgz-or-srcdir>")
	}
	dir, src := args[0], args[1]

	r, err := repo.OpenExisting(ctx, dir)
	if err != nil {
		return err
	}
	defer r.Close()

	info, err := os.Stat(src)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, src)
	}
	var pkg crs.PackageInfo
	if info.IsDir() {
		pkg, err = r.ImportDir(ctx, src)
	} else {
		pkg, err = r.ImportTargz(ctx, src)
	}
	if err != nil {
		return err
	}
	fmt.Println(pkg.ID.String())
	return nil
}

func repoLs(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bpt repo ls <dir>")
	}
	r, err := repo.OpenExisting(ctx, args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	pkgs, err := r.AllPackages(ctx)
	if err != nil {
		return err
	}
	for _, pkg := range pkgs {
		fmt.Println(pkg.ID.String())
	}
	return nil
}

func repoRemove(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: bpt repo remove <dir> <name> <version~revision>")
	}
	dir, name, verRev := args[0], args[1], args[2]

	id, err := parsePackageID(name, verRev)
	if err != nil {
		return err
	}

	r, err := repo.OpenExisting(ctx, dir)
	if err != nil {
		return err
	}
	defer r.Close()

	return r.RemovePkg(ctx, id)
}

// parsePackageID parses "<version>~<revision>" alongside a separately
// given name, the same shorthand crs.PackageID.SubdirName produces.
func parsePackageID(name, verRev string) (crs.PackageID, error) {
	n, err := crs.ParseName(name)
	if err != nil {
		return crs.PackageID{}, err
	}
	verStr, revStr, ok := cut(verRev, '~')
	if !ok {
		return crs.PackageID{}, fmt.Errorf("expected <version>~<revision>, got %q", verRev)
	}
	v, err := crs.ParseVersion(verStr)
	if err != nil {
		return crs.PackageID{}, err
	}
	rev, err := strconv.Atoi(revStr)
	if err != nil {
		return crs.PackageID{}, fmt.Errorf("invalid revision %q: %w", revStr, err)
	}
	return crs.NewPackageID(n, v, rev)
}

func cut(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
