// Package registry queries npm-compatible package registries for the
// version history of upstream packages.
package registry

import (
	"context"

	"github.com/Masterminds/semver/v3"
)

// DefaultRegistryURL is the public npm registry.
const DefaultRegistryURL = "https://registry.npmjs.org/"

// Oracle answers the one question the redundancy audit asks about an
// upstream package: from which published version on does it bundle its
// own type declarations?
type Oracle interface {
	// FirstVersionWithTypes returns the earliest published version of the
	// named package whose manifest carries a "types" or "typings" entry.
	// A nil version with a nil error means the package is unknown to the
	// registry, has no published versions, or never shipped types; none
	// of those are failures.
	FirstVersionWithTypes(ctx context.Context, packageName string) (*semver.Version, error)
}
