package dym_test

import (
	"testing"

	"github.com/maxtruxa/bpt/internal/dym"
)

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"name", "nmae", 2},
	}
	for _, c := range cases {
		if got := dym.EditDistance(c.a, c.b); got != c.want {
			t.Errorf("EditDistance(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	known := []string{"name", "version", "namespace", "libraries"}
	if got := dym.Suggest("nane", known); got != "name" {
		t.Errorf("Suggest = %q, want %q", got, "name")
	}
	if got := dym.Suggest("xyz", nil); got != "" {
		t.Errorf("Suggest with no candidates = %q, want empty", got)
	}
}
