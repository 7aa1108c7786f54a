package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
)

// pickTightest removes and returns the queued name with the fewest
// candidates currently satisfying its accumulated constraint — a
// practical proxy for spec §4.E's "tightest current range" (an exact
// range-width comparison has no total order across disjoint interval
// unions spanning unrelated package namespaces, so cardinality under the
// live candidate set is used instead). Ties are broken by name for
// determinism.
func pickTightest(ctx context.Context, src Source, queue []string, constraints map[string]crs.VersionRangeSet) (string, []string, error) {
	type scored struct {
		name  string
		count int
	}
	scores := make([]scored, len(queue))
	for i, name := range queue {
		nameVal, err := crs.ParseName(name)
		if err != nil {
			return "", nil, err
		}
		all, err := src.Candidates(ctx, nameVal)
		if err != nil {
			return "", nil, err
		}
		scores[i] = scored{name: name, count: len(filterAndSort(all, constraints[name]))}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].count != scores[j].count {
			return scores[i].count < scores[j].count
		}
		return scores[i].name < scores[j].name
	})

	best := scores[0].name
	rest := make([]string, 0, len(queue)-1)
	for _, name := range queue {
		if name != best {
			rest = append(rest, name)
		}
	}
	return best, rest, nil
}

// filterAndSort keeps candidates whose version falls in r, ordered by the
// spec §4.E tie-break rules: higher version first, then higher revision,
// then earlier source priority (the order Candidates itself returned
// them in, which is stable-sorted against).
func filterAndSort(all []crs.PackageInfo, r crs.VersionRangeSet) []crs.PackageInfo {
	type ranked struct {
		pkg  crs.PackageInfo
		rank int
	}
	var kept []ranked
	for i, pkg := range all {
		if r.Contains(pkg.ID.Version) {
			kept = append(kept, ranked{pkg: pkg, rank: i})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i].pkg, kept[j].pkg
		if c := a.ID.Version.Compare(b.ID.Version); c != 0 {
			return c > 0
		}
		if a.ID.Revision != b.ID.Revision {
			return a.ID.Revision > b.ID.Revision
		}
		return kept[i].rank < kept[j].rank
	})
	out := make([]crs.PackageInfo, len(kept))
	for i, k := range kept {
		out[i] = k.pkg
	}
	return out
}

// explainNoCandidate builds a DependencySolveFailure rendering the
// derivation chain that narrowed name's range to nothing: every edge that
// contributed a constraint, naming the dependent package and the
// narrowing dependency (spec §4.E: "the chain of ranges that forced the
// conflict, with each link naming the package and the narrowing
// dependency").
func explainNoCandidate(name string, r crs.VersionRangeSet, edges []edgeRef) error {
	var b strings.Builder
	fmt.Fprintf(&b, "no version of %s satisfies all constraints (%s):", name, rangeSetString(r))
	for _, e := range edges {
		fmt.Fprintf(&b, "\n  %s requires %s", e.from, crs.FormatDependency(e.dep))
	}
	return bpt.New(bpt.ErrDependencySolveFailure, b.String())
}

func rangeSetString(r crs.VersionRangeSet) string {
	ivs := r.Intervals()
	if len(ivs) == 0 {
		return "<empty>"
	}
	parts := make([]string, len(ivs))
	for i, iv := range ivs {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " ∪ ")
}
