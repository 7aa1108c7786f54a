package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// ifExistsPolicy is the §6 global "--if-exists" flag: how a subcommand
// should react when the thing it's about to create already exists.
type ifExistsPolicy string

const (
	ifExistsFail    ifExistsPolicy = "fail"
	ifExistsIgnore  ifExistsPolicy = "ignore"
	ifExistsReplace ifExistsPolicy = "replace"
)

type rawFlags struct {
	ifExists string
	out      string
	useRepo  string
}

func (r rawFlags) resolve() (globalFlags, error) {
	switch ifExistsPolicy(r.ifExists) {
	case ifExistsFail, ifExistsIgnore, ifExistsReplace:
	default:
		return globalFlags{}, fmt.Errorf("invalid --if-exists value %q (want fail, ignore, or replace)", r.ifExists)
	}
	return globalFlags{
		ifExists: ifExistsPolicy(r.ifExists),
		out:      r.out,
		useRepo:  r.useRepo,
	}, nil
}

func newFlagSet() (*pflag.FlagSet, *rawFlags) {
	fs := pflag.NewFlagSet("bpt", pflag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintln(out, "usage: bpt [flags] <repo|pkg|build> <subcommand> [args...]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  repo init|import|ls|remove")
		fmt.Fprintln(out, "  pkg get|prefetch|solve")
		fmt.Fprintln(out, "  build")
		fmt.Fprintln(out)
		fs.PrintDefaults()
	}

	rf := &rawFlags{}
	fs.StringVar(&rf.ifExists, "if-exists", string(ifExistsFail), "policy when the target already exists: fail, ignore, replace")
	fs.StringVar(&rf.out, "out", "", "output path override")
	fs.StringVar(&rf.useRepo, "use-repo", "", "remote repository URL")
	return fs, rf
}

// cacheRootOverride reads the cache-root environment override named in
// spec §6 ("Environment variables (consumed)").
func cacheRootOverride() string {
	return os.Getenv("BPT_CACHE_ROOT")
}
