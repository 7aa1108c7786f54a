package crs_test

import (
	"errors"
	"testing"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/crs"
)

func mustRange(t *testing.T, low, high string) crs.VersionRangeSet {
	t.Helper()
	return crs.NewVersionRangeSet(crs.MustVersion(low), crs.MustVersion(high))
}

func TestParseDependencyShorthand(t *testing.T) {
	cases := []struct {
		in       string
		wantName string
		wantLow  string
		wantHigh string
		wantUses []string // nil means ImplicitAll
	}{
		{"foo^1.2.3", "foo", "1.2.3", "2.0.0", nil},
		{"foo@1.2.3", "foo", "1.2.3", "2.0.0", nil},
		{"foo=1.2.3", "foo", "1.2.3", "1.2.4", nil},
		{"foo^1 using a, b", "foo", "1.0.0", "2.0.0", []string{"a", "b"}},
	}
	for _, c := range cases {
		dep, err := crs.ParseDependencyShorthand(c.in)
		if err != nil {
			t.Fatalf("ParseDependencyShorthand(%q) error: %v", c.in, err)
		}
		if dep.Name.String() != c.wantName {
			t.Errorf("%q: name = %q, want %q", c.in, dep.Name.String(), c.wantName)
		}
		want := mustRange(t, c.wantLow, c.wantHigh)
		if dep.Range.Intervals()[0].Low.Compare(want.Intervals()[0].Low) != 0 ||
			dep.Range.Intervals()[0].High.Compare(want.Intervals()[0].High) != 0 {
			t.Errorf("%q: range = %v, want [%s, %s)", c.in, dep.Range.Intervals(), c.wantLow, c.wantHigh)
		}
		if c.wantUses == nil {
			if dep.Uses.Kind != crs.UsesImplicitAll {
				t.Errorf("%q: uses = %v, want ImplicitAll", c.in, dep.Uses)
			}
		} else {
			if dep.Uses.Kind != crs.UsesExplicitList {
				t.Fatalf("%q: uses.Kind = %v, want ExplicitList", c.in, dep.Uses.Kind)
			}
			if len(dep.Uses.Libs) != len(c.wantUses) {
				t.Fatalf("%q: uses = %v, want %v", c.in, dep.Uses.Libs, c.wantUses)
			}
			for i, l := range c.wantUses {
				if dep.Uses.Libs[i].String() != l {
					t.Errorf("%q: uses[%d] = %q, want %q", c.in, i, dep.Uses.Libs[i].String(), l)
				}
			}
		}
	}
}

func TestParseDependencyShorthandErrors(t *testing.T) {
	for _, in := range []string{"foo", "foo^1 using a,"} {
		_, err := crs.ParseDependencyShorthand(in)
		if err == nil {
			t.Fatalf("ParseDependencyShorthand(%q): expected error", in)
		}
		if !errors.Is(err, bpt.ErrInvalidDepShorthand) {
			t.Errorf("ParseDependencyShorthand(%q): error kind = %v, want ErrInvalidDepShorthand", in, err)
		}
	}
}

func TestFormatDependencyRoundTrip(t *testing.T) {
	cases := []string{"foo^1.2.3", "foo=1.2.3", "foo~1.2.3", "foo+1.2.3"}
	for _, in := range cases {
		dep, err := crs.ParseDependencyShorthand(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		out := crs.FormatDependency(dep)
		if out != in {
			t.Errorf("FormatDependency(parse(%q)) = %q, want %q", in, out, in)
		}
	}
	// '@' normalizes to '^'.
	dep, err := crs.ParseDependencyShorthand("foo@1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := crs.FormatDependency(dep), "foo^1.2.3"; got != want {
		t.Errorf("FormatDependency = %q, want %q", got, want)
	}
}
