package resolve

import (
	"context"

	"github.com/maxtruxa/bpt/crs"
)

// StaticSource is an in-memory Source, suitable for tests and for feeding
// a resolver the result of a previous AllPackages/AllEnabledPackages
// call. Candidates are grouped by name and returned in the exact order
// they were given, preserving caller-supplied source priority.
type StaticSource struct {
	byName map[string][]crs.PackageInfo
}

// NewStaticSource groups pkgs by name, preserving input order within each
// group.
func NewStaticSource(pkgs []crs.PackageInfo) *StaticSource {
	s := &StaticSource{byName: make(map[string][]crs.PackageInfo)}
	for _, pkg := range pkgs {
		name := pkg.ID.Name.String()
		s.byName[name] = append(s.byName[name], pkg)
	}
	return s
}

// Candidates implements Source.
func (s *StaticSource) Candidates(_ context.Context, name crs.Name) ([]crs.PackageInfo, error) {
	return s.byName[name.String()], nil
}
