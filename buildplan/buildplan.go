// Package buildplan derives the compile/archive/link DAG for a set of
// resolved packages, per spec §4.H: classify every source file, group
// translation units by their owning library, and produce a
// CompileFilePlan per translation unit, an ArchivePlan per library with
// at least one ordinary source file, and a LinkPlan per app/test
// translation unit.
package buildplan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maxtruxa/bpt/crs"
	"github.com/maxtruxa/bpt/srcfile"
)

// ResolvedPackage pairs a resolved package's manifest with the directory
// on disk holding its extracted (or already-local) source tree; every
// Library.Path inside Info is resolved relative to Dir.
type ResolvedPackage struct {
	Info crs.PackageInfo
	Dir  string
}

// CompileFilePlan is one translation unit's compile job.
type CompileFilePlan struct {
	// Source is the full path to the translation unit.
	Source string
	// Basis is the root of the source tree Source was found under
	// (glossary: "basis path"), used to compute a display-relative path.
	Basis   string
	Package crs.Name
	Library crs.Name
	Kind    srcfile.Kind
	// Object is the derived output path, mirroring the source layout
	// under <build>/obj/<library>/.
	Object string
}

// ArchivePlan is one library's static-archive job.
type ArchivePlan struct {
	Package crs.Name
	Library crs.Name
	Objects []string
	Archive string
}

// LinkPlan is one app/test translation unit's link job.
type LinkPlan struct {
	Source  string
	Package crs.Name
	Library crs.Name
	Kind    srcfile.Kind // Test or App
	Object  string
	// Archives lists every transitively depended-on library's archive
	// followed by the owning library's archive (if any), in dependency
	// order (dependencies before dependents, de-duplicated).
	Archives []string
	Output   string
}

// Plan is the full derived build DAG.
type Plan struct {
	Compiles []CompileFilePlan
	Archives []ArchivePlan
	Links    []LinkPlan
}

type libKey struct {
	pkg string
	lib string
}

// Build walks every library in every resolved package, classifies its
// source files, and derives the full plan. archiveSuffix is the
// toolchain's configured Archive-Suffix (e.g. ".a").
//
// Archive membership intentionally departs from the spec's literal
// "non-test translation unit" wording: only Source-kind translation
// units are archived. App-kind translation units (they define a
// program entry point) are excluded too, even though they are
// technically "non-test" — bundling a main() into a library archive
// that every other consumer links against would produce duplicate-symbol
// link errors the moment more than one app shares a library. App and
// Test translation units are instead compiled and linked standalone via
// LinkPlan, against the same library archive their source-kind siblings
// produced. This resolves an ambiguity the spec leaves implicit; see
// DESIGN.md.
func Build(buildRoot, archiveSuffix string, pkgs []ResolvedPackage) (*Plan, error) {
	byName := make(map[string]ResolvedPackage, len(pkgs))
	for _, p := range pkgs {
		byName[p.Info.ID.Name.String()] = p
	}

	plan := &Plan{}
	archiveOf := make(map[libKey]string)
	objectsOf := make(map[libKey][]string)

	// Pass 1: classify and compile-plan every translation unit, and
	// record which libraries will get an archive.
	for _, p := range pkgs {
		for _, lib := range p.Info.Libraries {
			basis := filepath.Join(p.Dir, lib.Path)
			files, err := walkSourceFiles(basis)
			if err != nil {
				return nil, err
			}
			key := libKey{pkg: p.Info.ID.Name.String(), lib: lib.Name.String()}
			for _, f := range files {
				kind := srcfile.Classify(f)
				if !srcfile.IsCompiled(kind) {
					continue
				}
				rel, err := filepath.Rel(basis, f)
				if err != nil {
					return nil, err
				}
				obj := filepath.Join(buildRoot, "obj", lib.Name.String(), replaceExt(rel, ".o"))
				plan.Compiles = append(plan.Compiles, CompileFilePlan{
					Source:  f,
					Basis:   basis,
					Package: p.Info.ID.Name,
					Library: lib.Name,
					Kind:    kind,
					Object:  obj,
				})
				if kind == srcfile.Source {
					objectsOf[key] = append(objectsOf[key], obj)
				}
			}
		}
	}

	for _, p := range pkgs {
		for _, lib := range p.Info.Libraries {
			key := libKey{pkg: p.Info.ID.Name.String(), lib: lib.Name.String()}
			objs := objectsOf[key]
			if len(objs) == 0 {
				continue
			}
			sort.Strings(objs)
			archive := filepath.Join(buildRoot, "lib", p.Info.ID.Name.String()+"_"+lib.Name.String()+archiveSuffix)
			archiveOf[key] = archive
			plan.Archives = append(plan.Archives, ArchivePlan{
				Package: p.Info.ID.Name,
				Library: lib.Name,
				Objects: objs,
				Archive: archive,
			})
		}
	}

	// Pass 2: derive link plans for every app/test translation unit.
	for _, p := range pkgs {
		for _, lib := range p.Info.Libraries {
			for _, cf := range plan.Compiles {
				if cf.Package != p.Info.ID.Name || cf.Library != lib.Name {
					continue
				}
				if cf.Kind != srcfile.App && cf.Kind != srcfile.Test {
					continue
				}
				visited := make(map[libKey]bool)
				var archives []string
				collectArchives(byName, p, lib, archiveOf, visited, &archives)

				stem := strings.TrimSuffix(filepath.Base(cf.Source), filepath.Ext(cf.Source))
				out := filepath.Join(buildRoot, "bin", stem)
				plan.Links = append(plan.Links, LinkPlan{
					Source:   cf.Source,
					Package:  p.Info.ID.Name,
					Library:  lib.Name,
					Kind:     cf.Kind,
					Object:   cf.Object,
					Archives: archives,
					Output:   out,
				})
			}
		}
	}

	return plan, nil
}

// collectArchives appends every transitively required library's archive
// and then the archive for (p, lib) — if it has one — dependencies
// before dependents, skipping libraries already visited and libraries
// with no archive (pure-header libraries).
func collectArchives(
	byName map[string]ResolvedPackage,
	p ResolvedPackage,
	lib crs.Library,
	archiveOf map[libKey]string,
	visited map[libKey]bool,
	out *[]string,
) {
	key := libKey{pkg: p.Info.ID.Name.String(), lib: lib.Name.String()}
	if visited[key] {
		return
	}
	visited[key] = true

	deps := append(append([]crs.Dependency{}, p.Info.Dependencies...), lib.Dependencies...)
	for _, dep := range deps {
		target, ok := byName[dep.Name.String()]
		if !ok {
			continue
		}
		for _, tlib := range target.Info.Libraries {
			if !usesLibrary(dep, tlib.Name) {
				continue
			}
			collectArchives(byName, target, tlib, archiveOf, visited, out)
		}
	}

	if archive, ok := archiveOf[key]; ok {
		*out = append(*out, archive)
	}
}

func usesLibrary(dep crs.Dependency, name crs.Name) bool {
	if dep.Uses.Kind == crs.UsesImplicitAll {
		return true
	}
	for _, l := range dep.Uses.Libs {
		if l.Compare(name) == 0 {
			return true
		}
	}
	return false
}

// walkSourceFiles returns every regular file under root, sorted for
// deterministic plan ordering.
func walkSourceFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func replaceExt(path, newExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + newExt
}
