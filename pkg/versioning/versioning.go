// Package versioning models the declared major.minor version a typings
// package advertises and compares it against real npm semver releases.
package versioning

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Comparison is the outcome of comparing a declared version against a
// published release.
type Comparison int

const (
	ComparisonLess Comparison = iota
	ComparisonEqual
	ComparisonGreater
)

// DeclaredVersion is the major.minor pair a typings package declares for
// the library it describes. Declarations carry no patch component.
type DeclaredVersion struct {
	Major int
	Minor int
}

// String renders the version as "MAJOR.MINOR".
func (d DeclaredVersion) String() string {
	return fmt.Sprintf("%d.%d", d.Major, d.Minor)
}

// IsZero reports whether the declaration is the 0.0 placeholder.
func (d DeclaredVersion) IsZero() bool {
	return d.Major == 0 && d.Minor == 0
}

// Compare orders the declaration against a published version using only
// the major and minor components. The release's patch and prerelease
// parts are ignored: a 1.1 declaration is considered equal to 1.1.9.
func (d DeclaredVersion) Compare(v *semver.Version) Comparison {
	if c := compareInt(int64(d.Major), int64(v.Major())); c != ComparisonEqual {
		return c
	}
	return compareInt(int64(d.Minor), int64(v.Minor()))
}

// AtLeast reports whether the declaration is greater than or equal to
// the published version under Compare's major.minor ordering.
func (d DeclaredVersion) AtLeast(v *semver.Version) bool {
	return d.Compare(v) != ComparisonLess
}

func compareInt(a, b int64) Comparison {
	switch {
	case a < b:
		return ComparisonLess
	case a > b:
		return ComparisonGreater
	default:
		return ComparisonEqual
	}
}
