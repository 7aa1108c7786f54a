package main

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/buildexec"
	"github.com/maxtruxa/bpt/buildplan"
	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/resolve"
	"github.com/maxtruxa/bpt/toolchain"
)

// dispatchBuild handles "bpt build <project-dir> <toolchain-file>": it
// resolves the project's own dependencies against the enabled remotes,
// prefetches and extracts each one, derives a build plan across the
// project plus its dependencies, and drives the incremental executor.
func dispatchBuild(ctx context.Context, gf globalFlags, args []string) (string, error) {
	if len(args) != 2 {
		return "build", fmt.Errorf("usage: bpt build <project-dir> <toolchain-file>")
	}
	return "build", runBuild(ctx, gf, args[0], args[1])
}

func runBuild(ctx context.Context, gf globalFlags, projectDir, toolchainPath string) error {
	manifestData, err := os.ReadFile(filepath.Join(projectDir, "pkg.json"))
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, "reading project pkg.json")
	}
	self, err := crs.ParseJSON(manifestData)
	if err != nil {
		return err
	}

	tf, err := os.Open(toolchainPath)
	if err != nil {
		return bpt.Wrap(bpt.ErrIOOther, err, "opening toolchain file")
	}
	defer tf.Close()
	tc, err := toolchain.Load(tf)
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
	ids, err := resolve.Solve(ctx, src, self.Dependencies)
	if err != nil {
		return err
	}

	buildRoot := gf.out
	if buildRoot == "" {
		buildRoot = filepath.Join(projectDir, "build")
	}
	extractRoot := filepath.Join(buildRoot, "deps")

	resolved := []buildplan.ResolvedPackage{{Info: self, Dir: projectDir}}
	for _, id := range ids {
		if err := c.Prefetch(ctx, id); err != nil {
			return err
		}
		depDir := filepath.Join(extractRoot, id.Name.String(), id.SubdirName())
		info, err := extractDependency(c.PkgDir(), id, depDir)
		if err != nil {
			return err
		}
		resolved = append(resolved, buildplan.ResolvedPackage{Info: info, Dir: depDir})
	}

	plan, err := buildplan.Build(buildRoot, tc.ArchiveSuffix, resolved)
	if err != nil {
		return err
	}

	deps, err := buildexec.OpenDepsStore(ctx, filepath.Join(buildRoot, "deps.db"))
	if err != nil {
		return err
	}
	defer deps.Close()

	exec := buildexec.New(buildexec.Options{
		Toolchain: tc,
		Deps:      deps,
		Runner:    buildexec.NewOSRunner(),
		DepsMode:  buildexec.GNUMakeDeps,
	})

	if err := exec.CompileAll(ctx, plan.Compiles); err != nil {
		return err
	}
	if err := exec.ArchiveAll(ctx, plan.Archives); err != nil {
		return err
	}
	return exec.LinkAll(ctx, plan.Links, toolchainLinker{tc: tc})
}

// extractDependency materializes id's already-prefetched pkg.tgz under
// destDir (a no-op if it looks already extracted) and returns its parsed
// manifest.
func extractDependency(cachePkgDir string, id crs.PackageID, destDir string) (crs.PackageInfo, error) {
	manifestPath := filepath.Join(destDir, "pkg.json")
	if data, err := os.ReadFile(manifestPath); err == nil {
		return crs.ParseJSON(data)
	}

	tgzPath := filepath.Join(cachePkgDir, id.Name.String(), id.SubdirName(), "pkg.tgz")
	if err := extractTargz(tgzPath, destDir); err != nil {
		return crs.PackageInfo{}, err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return crs.PackageInfo{}, bpt.Wrap(bpt.ErrIOOther, err, "reading extracted pkg.json")
	}
	return crs.ParseJSON(data)
}

// extractTargz fully unpacks a .tar.gz archive into destDir, mirroring
// the repository store's own archive handling (package repo's
// extractFileFromTargz reads a single member; this walks every entry).
func extractTargz(tgzPath, destDir string) error {
	f, err := os.Open(tgzPath)
	if err != nil {
		return bpt.Wrap(bpt.ErrPathNotFound, err, fmt.Sprintf("opening %s", tgzPath))
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return bpt.Wrap(bpt.ErrRepoImportFailed, err, fmt.Sprintf("%s is not gzip-compressed", tgzPath))
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return bpt.Wrap(bpt.ErrRepoImportFailed, err, fmt.Sprintf("reading %s", tgzPath))
		}
		name := filepath.Clean(hdr.Name)
		if strings.HasPrefix(name, "..") {
			return bpt.New(bpt.ErrRepoImportFailed, fmt.Sprintf("%s: member %q escapes archive root", tgzPath, hdr.Name))
		}
		dest := filepath.Join(destDir, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return bpt.Wrap(bpt.ErrIOOther, err, "creating directory from archive")
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return bpt.Wrap(bpt.ErrIOOther, err, "creating directory from archive")
			}
			out, err := os.Create(dest)
			if err != nil {
				return bpt.Wrap(bpt.ErrIOOther, err, "creating file from archive")
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return bpt.Wrap(bpt.ErrIOOther, err, "writing file from archive")
			}
			if err := out.Close(); err != nil {
				return bpt.Wrap(bpt.ErrIOOther, err, "closing file from archive")
			}
		}
	}
}

// toolchainLinker is the project's own link-command convention: invoke
// the C++ compile driver's program (the first token of its template) in
// link mode, passing every translation unit's own object file followed
// by its transitive archive chain. The toolchain model has no
// Link-Template key (spec §4.G), so this lives in cmd/bpt rather than
// package toolchain.
type toolchainLinker struct {
	tc *toolchain.Toolchain
}

func (l toolchainLinker) LinkArgs(p buildplan.LinkPlan) []string {
	driver := l.tc.CompileCxxTemplate[0]
	args := []string{driver, p.Object}
	args = append(args, p.Archives...)
	args = append(args, "-o", p.Output)
	return args
}
