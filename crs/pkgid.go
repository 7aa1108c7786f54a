package crs

import (
	"fmt"

	"github.com/maxtruxa/bpt"
)

// PackageID is the immutable (name, version, revision) triple identifying
// a specific publication of a package. Two PackageIDs are equal iff all
// three components match; they total-order lexicographically by
// (name, version, revision).
type PackageID struct {
	Name     Name
	Version  Version
	Revision int
}

// NewPackageID validates revision >= 1 and constructs a PackageID.
func NewPackageID(name Name, version Version, revision int) (PackageID, error) {
	if revision < 1 {
		return PackageID{}, bpt.New(bpt.ErrInvalidPkgRevision,
			fmt.Sprintf("revision must be >= 1, got %d", revision))
	}
	return PackageID{Name: name, Version: version, Revision: revision}, nil
}

func (id PackageID) String() string {
	return fmt.Sprintf("%s@%s~%d", id.Name.String(), id.Version.String(), id.Revision)
}

// Equal reports whether id and o name the same package publication.
func (id PackageID) Equal(o PackageID) bool {
	return id.Name == o.Name && id.Version.String() == o.Version.String() && id.Revision == o.Revision
}

// Compare total-orders PackageIDs by (name, version, revision).
func (id PackageID) Compare(o PackageID) int {
	if c := id.Name.Compare(o.Name); c != 0 {
		return c
	}
	if c := id.Version.Compare(o.Version); c != 0 {
		return c
	}
	switch {
	case id.Revision < o.Revision:
		return -1
	case id.Revision > o.Revision:
		return 1
	default:
		return 0
	}
}

// SubdirName returns the "<version>~<revision>" path component used under
// a repository's pkg/<name>/ directory (spec §4.C).
func (id PackageID) SubdirName() string {
	return fmt.Sprintf("%s~%d", id.Version.String(), id.Revision)
}
