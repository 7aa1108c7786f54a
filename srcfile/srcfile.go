// Package srcfile classifies source-tree paths by extension, per spec
// §4.F: every recognized extension maps to a Kind, looked up through a
// sorted table asserted sorted at init time (the lookup itself needs
// nothing beyond sort.Search — there is no ecosystem library for "binary
// search a fixed extension table", so this one corner of the module
// stays on the standard library; see DESIGN.md).
package srcfile

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies what role a source-tree file plays.
type Kind int

const (
	// None is returned for paths whose extension is not recognized.
	None Kind = iota
	// Header is a plain declaration header (.h, .hh, .hpp, .hxx, .h++).
	Header
	// HeaderImpl is a template/inline-implementation header included by
	// headers, not compiled directly (.inc, .inl, .ipp).
	HeaderImpl
	// Source is an ordinary compiled translation unit.
	Source
	// Test is a translation unit whose stem ends in ".test".
	Test
	// App is a translation unit whose stem ends in ".main".
	App
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case HeaderImpl:
		return "header_impl"
	case Source:
		return "source"
	case Test:
		return "test"
	case App:
		return "app"
	default:
		return "none"
	}
}

// extKind is the family an extension belongs to before the
// test/app/source stem refinement is applied to translation units.
type extKind int

const (
	extNone extKind = iota
	extHeader
	extHeaderImpl
	extTranslationUnit
)

type extEntry struct {
	ext  string
	kind extKind
}

// table is sorted lexicographically by ext (lower-case) and binary
// searched by Classify. Keep it sorted: init asserts this.
var table = []extEntry{
	{".c", extTranslationUnit},
	{".c++", extTranslationUnit},
	{".cc", extTranslationUnit},
	{".cpp", extTranslationUnit},
	{".cxx", extTranslationUnit},
	{".h", extHeader},
	{".h++", extHeader},
	{".hh", extHeader},
	{".hpp", extHeader},
	{".hxx", extHeader},
	{".inc", extHeaderImpl},
	{".inl", extHeaderImpl},
	{".ipp", extHeaderImpl},
}

func init() {
	for i := 1; i < len(table); i++ {
		if table[i-1].ext >= table[i].ext {
			panic("srcfile: extension table is not sorted: " + table[i-1].ext + " >= " + table[i].ext)
		}
	}
}

func lookupExt(ext string) extKind {
	i := sort.Search(len(table), func(i int) bool { return table[i].ext >= ext })
	if i < len(table) && table[i].ext == ext {
		return table[i].kind
	}
	return extNone
}

// Classify returns the Kind of path based on its extension and, for
// translation units, the suffix of its filename stem: a stem ending in
// ".test" is Test, ".main" is App, otherwise Source. Matching is
// case-insensitive (spec §4.F allows uppercase extension variants).
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch lookupExt(ext) {
	case extHeader:
		return Header
	case extHeaderImpl:
		return HeaderImpl
	case extTranslationUnit:
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		switch {
		case strings.HasSuffix(stem, ".test"):
			return Test
		case strings.HasSuffix(stem, ".main"):
			return App
		default:
			return Source
		}
	default:
		return None
	}
}

// IsCompiled reports whether k denotes a translation unit that the
// toolchain should compile (Source, Test, or App).
func IsCompiled(k Kind) bool {
	return k == Source || k == Test || k == App
}
