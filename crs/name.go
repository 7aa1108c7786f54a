package crs

import (
	"fmt"
	"strings"

	"github.com/maxtruxa/bpt"
)

// Name is a validated package, library, or namespace identifier: letters,
// digits, '_', and '-', with no leading digit.
type Name struct {
	str string
}

// ParseName validates s as a Name.
func ParseName(s string) (Name, error) {
	if !isValidName(s) {
		return Name{}, bpt.New(bpt.ErrInvalidName,
			fmt.Sprintf("invalid name %q: must start with a letter or '_'/'-' "+
				"and contain only letters, digits, '_', '-'", s))
	}
	return Name{str: s}, nil
}

// MustName is ParseName but panics on an invalid name. Intended for
// literals known valid at compile time (tests, constants).
func MustName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_' || r == '-':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// String returns the underlying identifier string.
func (n Name) String() string { return n.str }

// IsZero reports whether n is the zero Name (never produced by ParseName).
func (n Name) IsZero() bool { return n.str == "" }

func (n Name) MarshalText() ([]byte, error) { return []byte(n.str), nil }

func (n *Name) UnmarshalText(b []byte) error {
	parsed, err := ParseName(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Compare orders names lexicographically by their underlying string.
func (n Name) Compare(o Name) int { return strings.Compare(n.str, o.str) }
