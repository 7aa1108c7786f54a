package crs_test

import "testing"
import "github.com/maxtruxa/bpt/crs"

func TestVersionRangeSetContains(t *testing.T) {
	rng := crs.NewVersionRangeSet(crs.MustVersion("1.2.3"), crs.MustVersion("2.0.0"))
	in := []string{"1.2.3", "1.9.9", "1.2.3+build"}
	for _, v := range in {
		if !rng.Contains(crs.MustVersion(v)) {
			t.Errorf("expected range to contain %s", v)
		}
	}
	out := []string{"1.2.2", "2.0.0", "3.0.0"}
	for _, v := range out {
		if rng.Contains(crs.MustVersion(v)) {
			t.Errorf("expected range to exclude %s", v)
		}
	}
}

func TestVersionRangeSetEmptyIsUnsatisfiable(t *testing.T) {
	var rng crs.VersionRangeSet
	if !rng.Empty() {
		t.Fatal("zero-value VersionRangeSet should be empty")
	}
	if rng.Contains(crs.MustVersion("1.0.0")) {
		t.Fatal("empty set should not contain any version")
	}
}

func TestVersionRangeSetIntersect(t *testing.T) {
	a := crs.NewVersionRangeSet(crs.MustVersion("1.0.0"), crs.MustVersion("2.0.0"))
	b := crs.NewVersionRangeSet(crs.MustVersion("1.5.0"), crs.MustVersion("3.0.0"))
	got := a.Intersect(b)
	if got.Empty() {
		t.Fatal("expected non-empty intersection")
	}
	if !got.Contains(crs.MustVersion("1.9.0")) {
		t.Error("expected intersection to contain 1.9.0")
	}
	if got.Contains(crs.MustVersion("1.2.0")) {
		t.Error("did not expect intersection to contain 1.2.0")
	}

	c := crs.NewVersionRangeSet(crs.MustVersion("5.0.0"), crs.MustVersion("6.0.0"))
	if !a.Intersect(c).Empty() {
		t.Error("expected disjoint ranges to intersect to empty set")
	}
}

func TestVersionRangeSetUnionCoalescesOverlap(t *testing.T) {
	a := crs.NewVersionRangeSet(crs.MustVersion("1.0.0"), crs.MustVersion("2.0.0"))
	b := crs.NewVersionRangeSet(crs.MustVersion("1.5.0"), crs.MustVersion("3.0.0"))
	u := a.Union(b)
	if len(u.Intervals()) != 1 {
		t.Fatalf("expected overlapping union to coalesce to one interval, got %d", len(u.Intervals()))
	}
	if !u.Contains(crs.MustVersion("2.5.0")) {
		t.Error("expected union to contain 2.5.0")
	}
}

func TestRangeFromOpCaretZeroMajor(t *testing.T) {
	// Caret on 0.x.y is compatible-with the left-most nonzero component.
	r := crs.RangeFromOp(crs.OpCaret, crs.MustVersion("0.2.3"))
	if !r.Contains(crs.MustVersion("0.2.9")) {
		t.Error("expected ^0.2.3 to contain 0.2.9")
	}
	if r.Contains(crs.MustVersion("0.3.0")) {
		t.Error("did not expect ^0.2.3 to contain 0.3.0")
	}

	r2 := crs.RangeFromOp(crs.OpCaret, crs.MustVersion("0.0.3"))
	if !r2.Contains(crs.MustVersion("0.0.3")) {
		t.Error("expected ^0.0.3 to contain 0.0.3")
	}
	if r2.Contains(crs.MustVersion("0.0.4")) {
		t.Error("did not expect ^0.0.3 to contain 0.0.4")
	}
}
