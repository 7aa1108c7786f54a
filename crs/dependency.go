package crs

// UsesKind tags which alternative of UsesSelector is populated.
type UsesKind int

const (
	// UsesImplicitAll selects every library the dependency exports.
	UsesImplicitAll UsesKind = iota
	// UsesExplicitList selects a named, ordered, non-empty subset.
	UsesExplicitList
)

// UsesSelector is the tagged union picking which libraries of a
// dependency a consumer links against.
type UsesSelector struct {
	Kind  UsesKind
	Libs  []Name // only meaningful when Kind == UsesExplicitList
}

// ImplicitAll constructs the "use every library" selector.
func ImplicitAll() UsesSelector { return UsesSelector{Kind: UsesImplicitAll} }

// ExplicitUses constructs the "use exactly these libraries" selector.
// libs must be non-empty; callers validate that at parse time.
func ExplicitUses(libs []Name) UsesSelector {
	return UsesSelector{Kind: UsesExplicitList, Libs: libs}
}

// Dependency names a package and the versions/libraries a consumer
// accepts from it.
type Dependency struct {
	Name     Name
	Range    VersionRangeSet
	Uses     UsesSelector
}

// Library is a named, path-rooted unit of a package, with its own
// additive dependencies.
type Library struct {
	Name         Name
	Path         string
	Dependencies []Dependency
}
