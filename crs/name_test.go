package crs_test

import "testing"
import "github.com/maxtruxa/bpt/crs"

func TestParseNameValid(t *testing.T) {
	for _, s := range []string{"foo", "foo-bar", "foo_bar", "a1", "A_B-1"} {
		if _, err := crs.ParseName(s); err != nil {
			t.Errorf("ParseName(%q) unexpected error: %v", s, err)
		}
	}
}

func TestParseNameInvalid(t *testing.T) {
	for _, s := range []string{"", "1abc", "foo.bar", "foo bar", "foo@bar"} {
		if _, err := crs.ParseName(s); err == nil {
			t.Errorf("ParseName(%q): expected error", s)
		}
	}
}

func TestPackageIDOrdering(t *testing.T) {
	a, _ := crs.NewPackageID(crs.MustName("a"), crs.MustVersion("1.0.0"), 1)
	b, _ := crs.NewPackageID(crs.MustName("a"), crs.MustVersion("1.0.0"), 2)
	c, _ := crs.NewPackageID(crs.MustName("b"), crs.MustVersion("0.0.1"), 1)

	if a.Compare(b) >= 0 {
		t.Error("expected a < b (lower revision sorts first)")
	}
	if b.Compare(c) >= 0 {
		t.Error("expected b < c (name comparison dominates)")
	}
}

func TestPackageIDRejectsRevisionZero(t *testing.T) {
	_, err := crs.NewPackageID(crs.MustName("a"), crs.MustVersion("1.0.0"), 0)
	if err == nil {
		t.Fatal("expected error for revision 0")
	}
}
