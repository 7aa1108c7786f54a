package crs

import (
	"fmt"
	"strings"

	"github.com/maxtruxa/bpt"
)

// ParseDependencyShorthand parses the project-manifest dependency
// shorthand grammar from spec §4.A:
//
//	<name><op><version>[ using <lib>[, <lib>]*]
//
// where <op> is one of '=', '@', '^', '~', '+'. '@' normalizes to '^'.
func ParseDependencyShorthand(s string) (Dependency, error) {
	orig := s
	name, rest, op, found := splitOnOperator(s)
	if !found {
		return Dependency{}, bpt.New(bpt.ErrInvalidDepShorthand,
			fmt.Sprintf("e_parse_dep_range_shorthand_string: missing version operator in %q", orig))
	}
	n, err := ParseName(name)
	if err != nil {
		return Dependency{}, bpt.Wrap(bpt.ErrInvalidDepShorthand, err,
			fmt.Sprintf("invalid package name in dependency shorthand %q", orig))
	}

	verStr := rest
	uses := ImplicitAll()
	if idx := strings.Index(rest, " using "); idx >= 0 {
		verStr = rest[:idx]
		libsStr := strings.TrimSpace(rest[idx+len(" using "):])
		libs, err := parseUsesList(libsStr)
		if err != nil {
			return Dependency{}, bpt.Wrap(bpt.ErrInvalidDepShorthand, err,
				fmt.Sprintf("invalid 'using' clause in dependency shorthand %q", orig))
		}
		uses = ExplicitUses(libs)
	}
	verStr = strings.TrimSpace(verStr)
	if verStr == "" {
		return Dependency{}, bpt.New(bpt.ErrInvalidDepShorthand,
			fmt.Sprintf("e_parse_dep_range_shorthand_string: missing version in %q", orig))
	}

	base, err := parsePartialVersion(verStr)
	if err != nil {
		return Dependency{}, bpt.Wrap(bpt.ErrInvalidDepShorthand, err,
			fmt.Sprintf("invalid version in dependency shorthand %q", orig))
	}

	if op == '@' {
		op = '^'
	}
	rng := RangeFromOp(RangeOp(op), base)
	if rng.Empty() {
		return Dependency{}, bpt.New(bpt.ErrInvalidDepShorthand,
			fmt.Sprintf("e_parse_dep_range_shorthand_string: unknown operator %q in %q", string(op), orig))
	}

	return Dependency{Name: n, Range: rng, Uses: uses}, nil
}

// splitOnOperator finds the first occurrence of one of the recognized
// operators and splits name/rest around it. found is false if no operator
// character appears in s (e.g. a bare "foo" with no version).
func splitOnOperator(s string) (name string, rest string, op byte, found bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '=', '@', '^', '~', '+':
			return s[:i], s[i+1:], s[i], true
		}
	}
	return s, "", 0, false
}

func parseUsesList(s string) ([]Name, error) {
	if s == "" {
		return nil, bpt.New(bpt.ErrInvalidDepShorthand, "'using' clause requires at least one library name")
	}
	parts := strings.Split(s, ",")
	libs := make([]Name, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, bpt.New(bpt.ErrInvalidDepShorthand,
				fmt.Sprintf("empty library name at position %d in 'using' clause (trailing comma?)", i))
		}
		n, err := ParseName(p)
		if err != nil {
			return nil, err
		}
		libs = append(libs, n)
	}
	return libs, nil
}

// parsePartialVersion accepts "1", "1.2", or "1.2.3" (with optional
// pre-release/build metadata on the final component present), defaulting
// missing trailing components to 0, per the dependency shorthand grammar
// ("foo^1" means major=1, minor=0, patch=0).
func parsePartialVersion(s string) (Version, error) {
	// Split off any pre-release/build suffix before counting dot-separated
	// numeric components.
	main := s
	suffix := ""
	for i, r := range s {
		if r == '-' || r == '+' {
			main = s[:i]
			suffix = s[i:]
			break
		}
	}
	parts := strings.Split(main, ".")
	if len(parts) > 3 {
		return Version{}, bpt.New(bpt.ErrInvalidVersion, fmt.Sprintf("invalid version %q", s))
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return ParseVersion(strings.Join(parts, ".") + suffix)
}

// FormatDependency renders a Dependency back to shorthand form. Operator
// normalization ('@' -> '^') means formatting a Dependency parsed from an
// '@' string yields the '^' form, per the round-trip property in spec §8
// ("modulo @<->^ normalization and whitespace").
func FormatDependency(d Dependency) string {
	var b strings.Builder
	b.WriteString(d.Name.String())

	op, base, ok := singleOpFromRange(d.Range)
	if ok {
		b.WriteByte(byte(op))
		b.WriteString(base.String())
	} else {
		// Not expressible as a single shorthand operator (e.g. a
		// resolver-internal intersection); fall back to the widest
		// operator that is still a superset, prefixed with '+'.
		if !d.Range.Empty() {
			b.WriteByte('+')
			b.WriteString(d.Range.Intervals()[0].Low.String())
		}
	}

	if d.Uses.Kind == UsesExplicitList {
		b.WriteString(" using ")
		for i, l := range d.Uses.Libs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(l.String())
		}
	}
	return b.String()
}

// singleOpFromRange attempts to recover the operator and base version
// that would have produced rng via RangeFromOp, for round-tripping.
func singleOpFromRange(rng VersionRangeSet) (RangeOp, Version, bool) {
	if len(rng.Intervals()) != 1 {
		return 0, Version{}, false
	}
	iv := rng.Intervals()[0]
	base := iv.Low

	if eq := RangeFromOp(OpEq, base); rangesEqual(eq, rng) {
		return OpEq, base, true
	}
	if c := RangeFromOp(OpCaret, base); rangesEqual(c, rng) {
		return OpCaret, base, true
	}
	if t := RangeFromOp(OpTilde, base); rangesEqual(t, rng) {
		return OpTilde, base, true
	}
	if p := RangeFromOp(OpPlus, base); rangesEqual(p, rng) {
		return OpPlus, base, true
	}
	return 0, Version{}, false
}

func rangesEqual(a, b VersionRangeSet) bool {
	ai, bi := a.Intervals(), b.Intervals()
	if len(ai) != len(bi) {
		return false
	}
	for i := range ai {
		if ai[i].Low.Compare(bi[i].Low) != 0 || ai[i].High.Compare(bi[i].High) != 0 {
			return false
		}
	}
	return true
}
