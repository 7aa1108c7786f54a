// Package resolve implements the dependency resolver: a backtracking
// constraint solver over a cache's package view. It backtracks
// chronologically and does not learn incompatibilities. There is no third-party PubGrub engine wired in here — the one
// candidate found in the retrieval pack (contriboss/pubgrub-go) is present
// only as a single interface file with no visible solve entry point, so
// guessing at its real API was judged too risky; this is a from-scratch
// implementation grounded in bpt's solve.hpp contract and golang-dep's gps
// solver design (see DESIGN.md).
package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
)

// rootName is the synthetic dependent name attributed to the caller's own
// root dependencies, used only in failure explanations.
const rootName = "<root>"

// Source is the package view the solver searches: every known publication
// of a given name, in source priority order (earliest-enabled remote
// first — tie-break 3). Package cache's AllEnabledPackages and package
// repo's AllPackages both produce data that can back a Source.
type Source interface {
	Candidates(ctx context.Context, name crs.Name) ([]crs.PackageInfo, error)
}

// edgeRef records one dependency edge for failure-explanation purposes:
// "from" is the dependent package name (or rootName), dep is the
// constraint it placed on its target.
type edgeRef struct {
	from string
	dep  crs.Dependency
}

// Solve resolves rootDeps against src, returning one PackageID per
// distinct name. The search maintains a partial assignment, an
// accumulated range constraint and an edge history (derivation record)
// per unresolved name, and a queue of names still to decide — backtracking
// chronologically to the most recent choice point on conflict. This
// chronological-backtrack scheme is a deliberate simplification of full
// PubGrub's non-chronological backjumping and unit propagation (see
// DESIGN.md); it preserves the documented tie-break rules and produces a
// derivation-graph explanation on failure, but may explore more of the
// search space than a full incompatibility-learning solver would on
// pathological inputs.
func Solve(ctx context.Context, src Source, rootDeps []crs.Dependency) ([]crs.PackageID, error) {
	constraints := make(map[string]crs.VersionRangeSet)
	origin := make(map[string][]edgeRef)
	var queue []string

	for _, dep := range rootDeps {
		mergeEdge(constraints, origin, &queue, rootName, dep)
	}

	assigned, err := step(ctx, src, queue, constraints, map[string]crs.PackageInfo{}, origin)
	if err != nil {
		return nil, err
	}

	ids := make([]crs.PackageID, 0, len(assigned))
	for _, pkg := range assigned {
		ids = append(ids, pkg.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids, nil
}

// step is the recursive core of the solver. Every map argument is treated
// as owned by the caller and is defensively cloned before mutation, so a
// failed candidate at this level leaves the caller's state untouched and
// free to try its own next candidate — this is what gives the recursion
// its backtracking behavior.
func step(
	ctx context.Context,
	src Source,
	queue []string,
	constraints map[string]crs.VersionRangeSet,
	assigned map[string]crs.PackageInfo,
	origin map[string][]edgeRef,
) (map[string]crs.PackageInfo, error) {
	if len(queue) == 0 {
		return assigned, nil
	}

	name, rest, err := pickTightest(ctx, src, queue, constraints)
	if err != nil {
		return nil, err
	}

	nameVal, err := crs.ParseName(name)
	if err != nil {
		return nil, err
	}
	all, err := src.Candidates(ctx, nameVal)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, bpt.New(bpt.ErrNoSuchPackage, name)
	}

	candidates := filterAndSort(all, constraints[name])
	if len(candidates) == 0 {
		return nil, explainNoCandidate(name, constraints[name], origin[name])
	}

	var lastErr error
	for _, cand := range candidates {
		if err := checkUsesAgainst(cand, origin[name]); err != nil {
			lastErr = err
			continue
		}

		newConstraints := cloneConstraints(constraints)
		newOrigin := cloneOrigin(origin)
		newAssigned := cloneAssigned(assigned)
		newAssigned[name] = cand
		newQueue := append([]string{}, rest...)

		conflictErr := applyDependenciesOf(name, cand, &newQueue, newConstraints, newOrigin, newAssigned)
		if conflictErr != nil {
			lastErr = conflictErr
			continue
		}

		result, err := step(ctx, src, newQueue, newConstraints, newAssigned, newOrigin)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// applyDependenciesOf merges cand's own dependency edges into the working
// state, detecting immediate conflicts against already-assigned names.
func applyDependenciesOf(
	name string,
	cand crs.PackageInfo,
	queue *[]string,
	constraints map[string]crs.VersionRangeSet,
	origin map[string][]edgeRef,
	assigned map[string]crs.PackageInfo,
) error {
	for _, dep := range allDependencies(cand) {
		mergeEdge(constraints, origin, queue, name, dep)
		dn := dep.Name.String()
		existing, isAssigned := assigned[dn]
		if !isAssigned {
			continue
		}
		if !constraints[dn].Contains(existing.ID.Version) {
			return bpt.New(bpt.ErrDependencySolveFailure, fmt.Sprintf(
				"%s requires %s, conflicting with already-chosen %s",
				name, crs.FormatDependency(dep), existing.ID.String()))
		}
		if err := checkUsesAgainst(existing, []edgeRef{{from: name, dep: dep}}); err != nil {
			return err
		}
	}
	return nil
}

// allDependencies returns a package's package-level dependencies plus
// every library's own, additive per crs.PackageInfo's documented contract.
func allDependencies(pkg crs.PackageInfo) []crs.Dependency {
	deps := append([]crs.Dependency{}, pkg.Dependencies...)
	for _, lib := range pkg.Libraries {
		deps = append(deps, lib.Dependencies...)
	}
	return deps
}

// mergeEdge folds dep into the working constraint/origin/queue state for
// dep.Name, queuing the name if this is its first mention.
func mergeEdge(constraints map[string]crs.VersionRangeSet, origin map[string][]edgeRef, queue *[]string, from string, dep crs.Dependency) {
	name := dep.Name.String()
	if existing, ok := constraints[name]; ok {
		constraints[name] = existing.Intersect(dep.Range)
	} else {
		constraints[name] = dep.Range
		*queue = append(*queue, name)
	}
	origin[name] = append(origin[name], edgeRef{from: from, dep: dep})
}

// checkUsesAgainst verifies every explicit-uses selector among edges
// targets a library cand actually exports.
func checkUsesAgainst(cand crs.PackageInfo, edges []edgeRef) error {
	for _, e := range edges {
		if e.dep.Uses.Kind != crs.UsesExplicitList {
			continue
		}
		for _, lib := range e.dep.Uses.Libs {
			if !hasLibrary(cand, lib) {
				return bpt.New(bpt.ErrNoSuchLibrary, fmt.Sprintf(
					"%s does not export library %q (required by %s)",
					cand.ID.String(), lib.String(), e.from))
			}
		}
	}
	return nil
}

func hasLibrary(pkg crs.PackageInfo, name crs.Name) bool {
	for _, lib := range pkg.Libraries {
		if lib.Name.Compare(name) == 0 {
			return true
		}
	}
	return false
}

func cloneConstraints(m map[string]crs.VersionRangeSet) map[string]crs.VersionRangeSet {
	out := make(map[string]crs.VersionRangeSet, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAssigned(m map[string]crs.PackageInfo) map[string]crs.PackageInfo {
	out := make(map[string]crs.PackageInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneOrigin(m map[string][]edgeRef) map[string][]edgeRef {
	out := make(map[string][]edgeRef, len(m))
	for k, v := range m {
		out[k] = append([]edgeRef{}, v...)
	}
	return out
}
