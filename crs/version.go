package crs

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver"

	"github.com/maxtruxa/bpt"
)

// strictSemverPattern enforces the exact grammar from spec §4.A:
// major.minor.patch[-pre][+build], all of major/minor/patch being
// non-negative integers with no leading zero (other than "0" itself).
// Masterminds/semver is more lenient (e.g. it accepts a missing patch
// component), so this validator runs first.
var strictSemverPattern = regexp.MustCompile(
	`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?` +
		`(\+[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?$`)

// Version is a strict semantic version, backed by Masterminds/semver for
// comparison the way the teacher uses that library directly.
type Version struct {
	v *semver.Version
}

// ParseVersion parses s as a strict semantic version.
func ParseVersion(s string) (Version, error) {
	if !strictSemverPattern.MatchString(s) {
		return Version{}, bpt.New(bpt.ErrInvalidVersion,
			fmt.Sprintf("invalid version %q: must be major.minor.patch[-pre][+build]", s))
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, bpt.Wrap(bpt.ErrInvalidVersion, err, fmt.Sprintf("invalid version %q", s))
	}
	return Version{v: v}, nil
}

// MustVersion is ParseVersion but panics on error.
func MustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.Original()
}

// Compare returns <0, 0, >0 as v is less than, equal to, or greater than
// o, per semver precedence rules (pre-release < release).
func (v Version) Compare(o Version) int { return v.v.Compare(o.v) }

func (v Version) Major() int64 { return v.v.Major() }
func (v Version) Minor() int64 { return v.v.Minor() }
func (v Version) Patch() int64 { return v.v.Patch() }
func (v Version) Prerelease() string { return v.v.Prerelease() }

// IsPrerelease reports whether v carries a pre-release component.
func (v Version) IsPrerelease() bool { return v.v.Prerelease() != "" }

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.v == nil }

func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// bumpMajor returns the version with Major+1, Minor=0, Patch=0, no
// pre-release/build — used to compute the upper bound of "^" ranges.
func (v Version) bumpMajor() Version {
	return MustVersion(fmt.Sprintf("%d.0.0", v.Major()+1))
}

// bumpMinor returns the version with Minor+1, Patch=0 — upper bound of
// "~" ranges, and of "^" ranges when Major==0.
func (v Version) bumpMinor() Version {
	return MustVersion(fmt.Sprintf("%d.%d.0", v.Major(), v.Minor()+1))
}

// bumpPatch returns the version with Patch+1 — upper bound of "="
// ranges.
func (v Version) bumpPatch() Version {
	return MustVersion(fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()+1))
}
