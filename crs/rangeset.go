package crs

import "sort"

// Interval is a half-open version range [Low, High).
type Interval struct {
	Low, High Version
}

func (iv Interval) contains(v Version) bool {
	return v.Compare(iv.Low) >= 0 && v.Compare(iv.High) < 0
}

func (iv Interval) String() string {
	return "[" + iv.Low.String() + ", " + iv.High.String() + ")"
}

// VersionRangeSet is a union of half-open version intervals. The zero
// value is the empty set, which is a legal ("unsatisfiable") value.
type VersionRangeSet struct {
	intervals []Interval // sorted by Low, pairwise disjoint and non-adjacent
}

// NewVersionRangeSet builds a VersionRangeSet from a single interval.
func NewVersionRangeSet(low, high Version) VersionRangeSet {
	if low.Compare(high) >= 0 {
		return VersionRangeSet{}
	}
	return VersionRangeSet{intervals: []Interval{{Low: low, High: high}}}
}

// Empty reports whether the set contains no versions.
func (s VersionRangeSet) Empty() bool { return len(s.intervals) == 0 }

// Contains reports whether v falls within any interval of s.
func (s VersionRangeSet) Contains(v Version) bool {
	for _, iv := range s.intervals {
		if iv.contains(v) {
			return true
		}
	}
	return false
}

// Intervals returns the sorted, disjoint intervals making up s. The
// caller must not mutate the returned slice.
func (s VersionRangeSet) Intervals() []Interval { return s.intervals }

// Union returns the set union of s and o.
func (s VersionRangeSet) Union(o VersionRangeSet) VersionRangeSet {
	all := append(append([]Interval{}, s.intervals...), o.intervals...)
	return coalesce(all)
}

// Intersect returns the set intersection of s and o.
func (s VersionRangeSet) Intersect(o VersionRangeSet) VersionRangeSet {
	var out []Interval
	for _, a := range s.intervals {
		for _, b := range o.intervals {
			lo := a.Low
			if b.Low.Compare(lo) > 0 {
				lo = b.Low
			}
			hi := a.High
			if b.High.Compare(hi) < 0 {
				hi = b.High
			}
			if lo.Compare(hi) < 0 {
				out = append(out, Interval{Low: lo, High: hi})
			}
		}
	}
	return coalesce(out)
}

// coalesce sorts intervals by Low and merges any that overlap.
func coalesce(ivs []Interval) VersionRangeSet {
	filtered := ivs[:0:0]
	for _, iv := range ivs {
		if iv.Low.Compare(iv.High) < 0 {
			filtered = append(filtered, iv)
		}
	}
	if len(filtered) == 0 {
		return VersionRangeSet{}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Low.Compare(filtered[j].Low) < 0
	})
	merged := []Interval{filtered[0]}
	for _, iv := range filtered[1:] {
		last := &merged[len(merged)-1]
		if iv.Low.Compare(last.High) <= 0 {
			if iv.High.Compare(last.High) > 0 {
				last.High = iv.High
			}
		} else {
			merged = append(merged, iv)
		}
	}
	return VersionRangeSet{intervals: merged}
}

// RangeOp is one of the dependency shorthand version operators.
type RangeOp byte

const (
	OpEq    RangeOp = '=' // singleton [v, v.patch+1)... actually exact: [v, next-patch)
	OpCaret RangeOp = '^' // compatible-with: same left-most nonzero component
	OpTilde RangeOp = '~' // patch-compatible: same major.minor
	OpPlus  RangeOp = '+' // or-greater: [v, +inf)
)

// infiniteVersion is used as the upper bound for "+" (or-greater) ranges.
// No real package will ever reach this version.
var infiniteVersion = MustVersion("999999.999999.999999")

// RangeFromOp expands an operator and base version into a VersionRangeSet
// per spec §4.A: "=" singleton, "^" compatible-with, "~" patch-compatible,
// "+" or-greater.
func RangeFromOp(op RangeOp, base Version) VersionRangeSet {
	switch op {
	case OpEq:
		return NewVersionRangeSet(base, base.bumpPatch())
	case OpCaret:
		switch {
		case base.Major() > 0:
			return NewVersionRangeSet(base, base.bumpMajor())
		case base.Minor() > 0:
			return NewVersionRangeSet(base, base.bumpMinor())
		default:
			return NewVersionRangeSet(base, base.bumpPatch())
		}
	case OpTilde:
		return NewVersionRangeSet(base, base.bumpMinor())
	case OpPlus:
		return NewVersionRangeSet(base, infiniteVersion)
	default:
		return VersionRangeSet{}
	}
}
