package srcfile_test

import (
	"testing"

	"github.com/maxtruxa/bpt/srcfile"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want srcfile.Kind
	}{
		{"foo.h", srcfile.Header},
		{"foo.HPP", srcfile.Header},
		{"foo.hxx", srcfile.Header},
		{"detail.inc", srcfile.HeaderImpl},
		{"detail.ipp", srcfile.HeaderImpl},
		{"widget.cpp", srcfile.Source},
		{"widget.CC", srcfile.Source},
		{"widget.test.cpp", srcfile.Test},
		{"widget.main.cc", srcfile.App},
		{"README.md", srcfile.None},
		{"noext", srcfile.None},
	}
	for _, c := range cases {
		if got := srcfile.Classify(c.path); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestIsCompiled(t *testing.T) {
	for _, k := range []srcfile.Kind{srcfile.Source, srcfile.Test, srcfile.App} {
		if !srcfile.IsCompiled(k) {
			t.Errorf("IsCompiled(%v) = false, want true", k)
		}
	}
	for _, k := range []srcfile.Kind{srcfile.Header, srcfile.HeaderImpl, srcfile.None} {
		if srcfile.IsCompiled(k) {
			t.Errorf("IsCompiled(%v) = true, want false", k)
		}
	}
}

func TestKindString(t *testing.T) {
	if srcfile.Header.String() != "header" {
		t.Errorf("Header.String() = %q", srcfile.Header.String())
	}
	if srcfile.None.String() != "none" {
		t.Errorf("None.String() = %q", srcfile.None.String())
	}
}
