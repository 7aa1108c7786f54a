// Command bpt is the thin CLI front end over the repository store,
// remote cache, dependency resolver, and build executor (spec §6, "CLI
// surface (external collaborator, summarised only)"): subcommands `repo
// init|import|ls|remove`, `pkg get|prefetch|solve`, `build`.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

type globalFlags struct {
	ifExists ifExistsPolicy
	out      string
	useRepo  string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	slog.SetDefault(newLogger())

	fs, gfPtrs := newFlagSet()
	if err := fs.Parse(argv); err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		return 2
	}
	gf, err := gfPtrs.resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		return 2
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return 2
	}

	ctx := context.Background()
	var opPath string
	switch args[0] {
	case "repo":
		opPath, err = dispatchRepo(ctx, gf, args[1:])
	case "pkg":
		opPath, err = dispatchPkg(ctx, gf, args[1:])
	case "build":
		opPath, err = dispatchBuild(ctx, gf, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "error: unknown subcommand %q\n", args[0])
		return 2
	}

	if err != nil {
		writeErrorMarker(opPath, err)
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		return 1
	}
	return 0
}
