package crs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/internal/dym"
)

// Metadata holds the free-form publishing metadata a pkg.json may carry,
// named explicitly in spec §6.
type Metadata struct {
	Authors       []string        `json:"authors,omitempty"`
	Description   string          `json:"description,omitempty"`
	Documentation string          `json:"documentation,omitempty"`
	Readme        string          `json:"readme,omitempty"`
	Homepage      string          `json:"homepage,omitempty"`
	Repository    string          `json:"repository,omitempty"`
	License       string          `json:"license,omitempty"`
	LicenseFile   string          `json:"license-file,omitempty"`
	X             json.RawMessage `json:"x,omitempty"`
}

// PackageInfo is the immutable, parsed form of a pkg.json. Libraries is
// never empty-constructed without going through ParseJSON, which
// validate every field against the name/version/revision rules.
type PackageInfo struct {
	ID           PackageID
	Namespace    Name
	Libraries    []Library
	Dependencies []Dependency // package-level; additive with each Library's own
	Metadata     Metadata

	// rawJSON is the canonical serialized form produced by ToJSON, cached
	// so repeated round-trips are idempotent (spec invariant: "every
	// other attribute is derived from it").
	rawJSON string
}

// wireLibrary / wirePackage mirror the pkg.json wire shape.
type wireLibrary struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Depends []string `json:"depends,omitempty"`
}

type wirePackage struct {
	Name       string          `json:"name"`
	Version    string          `json:"version"`
	PkgVersion int             `json:"pkg-version"`
	Namespace  string          `json:"namespace,omitempty"`
	Libraries  []wireLibrary   `json:"libraries,omitempty"`
	Depends    []string        `json:"depends,omitempty"`
	Metadata
}

var knownTopLevelKeys = []string{
	"name", "version", "pkg-version", "namespace", "libraries", "depends",
	"authors", "description", "documentation", "readme", "homepage",
	"repository", "license", "license-file", "x",
}

// ParseJSON parses and validates a pkg.json document, rejecting unknown
// top-level keys with a did-you-mean suggestion.
func ParseJSON(data []byte) (PackageInfo, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return PackageInfo{}, bpt.Wrap(bpt.ErrBadManifestValue, err, "pkg.json is not a JSON object")
	}
	for k := range raw {
		if !isKnownKey(k) {
			sugg := dym.Suggest(k, knownTopLevelKeys)
			msg := fmt.Sprintf("unknown manifest key %q", k)
			if sugg != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", sugg)
			}
			return PackageInfo{}, bpt.New(bpt.ErrUnknownManifestKey, msg)
		}
	}

	var w wirePackage
	if err := json.Unmarshal(data, &w); err != nil {
		return PackageInfo{}, bpt.Wrap(bpt.ErrBadManifestValue, err, "invalid pkg.json")
	}

	name, err := ParseName(w.Name)
	if err != nil {
		return PackageInfo{}, err
	}
	version, err := ParseVersion(w.Version)
	if err != nil {
		return PackageInfo{}, err
	}
	if w.PkgVersion < 1 {
		return PackageInfo{}, bpt.New(bpt.ErrInvalidPkgRevision,
			fmt.Sprintf("pkg-version must be an integer >= 1, got %d", w.PkgVersion))
	}
	id, err := NewPackageID(name, version, w.PkgVersion)
	if err != nil {
		return PackageInfo{}, err
	}

	var namespace Name
	if w.Namespace != "" {
		namespace, err = ParseName(w.Namespace)
		if err != nil {
			return PackageInfo{}, err
		}
	}

	deps, err := parseDependShorthands(w.Depends)
	if err != nil {
		return PackageInfo{}, err
	}

	libs := make([]Library, 0, len(w.Libraries))
	for _, wl := range w.Libraries {
		ln, err := ParseName(wl.Name)
		if err != nil {
			return PackageInfo{}, err
		}
		ldeps, err := parseDependShorthands(wl.Depends)
		if err != nil {
			return PackageInfo{}, err
		}
		libs = append(libs, Library{Name: ln, Path: wl.Path, Dependencies: ldeps})
	}

	pkg := PackageInfo{
		ID:           id,
		Namespace:    namespace,
		Libraries:    libs,
		Dependencies: deps,
		Metadata:     w.Metadata,
	}
	pkg.rawJSON = canonicalJSON(w)
	return pkg, nil
}

func parseDependShorthands(ss []string) ([]Dependency, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	deps := make([]Dependency, 0, len(ss))
	for _, s := range ss {
		d, err := ParseDependencyShorthand(s)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

func isKnownKey(k string) bool {
	for _, known := range knownTopLevelKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ToJSON returns the canonical serialized form of pkg, with top-level
// keys sorted lexicographically (spec invariant 2: "canonicalize sorts
// keys lexicographically").
func (pkg PackageInfo) ToJSON() string {
	if pkg.rawJSON != "" {
		return pkg.rawJSON
	}
	return canonicalJSON(pkg.toWire())
}

func (pkg PackageInfo) toWire() wirePackage {
	w := wirePackage{
		Name:       pkg.ID.Name.String(),
		Version:    pkg.ID.Version.String(),
		PkgVersion: pkg.ID.Revision,
		Metadata:   pkg.Metadata,
	}
	if !pkg.Namespace.IsZero() {
		w.Namespace = pkg.Namespace.String()
	}
	for _, d := range pkg.Dependencies {
		w.Depends = append(w.Depends, FormatDependency(d))
	}
	for _, l := range pkg.Libraries {
		wl := wireLibrary{Name: l.Name.String(), Path: l.Path}
		for _, d := range l.Dependencies {
			wl.Depends = append(wl.Depends, FormatDependency(d))
		}
		w.Libraries = append(w.Libraries, wl)
	}
	return w
}

// canonicalJSON marshals v to JSON, then re-encodes with top-level keys
// sorted lexicographically, matching spec invariant 2's "canonicalize"
// definition exactly (it is intentionally a textual re-sort, not a
// semantic re-derivation, so authors/x ordering within nested objects is
// preserved as encoding/json produced it).
func canonicalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// wirePackage/wireLibrary are always marshalable; a failure here
		// would be a programming error, not a user-facing one.
		panic(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(m[k])
	}
	buf.WriteByte('}')
	return buf.String()
}
