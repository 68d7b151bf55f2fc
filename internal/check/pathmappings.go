package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mxl/types-publisher/internal/packages"
)

// CheckPathMappings enforces the transitive path-mapping invariant: whenever
// a package depends, directly or through test dependencies, on a package
// declaring a path mapping, it must declare the identical (prefix, version)
// pair itself, and every mapping it declares must be required by something
// in its dependency closure. A mapping keyed by a dependency's own name
// counts as used. The first violation aborts the audit: an inconsistent
// mapping means module resolution silently diverges downstream, and an
// unused one is dead configuration.
func CheckPathMappings(all *packages.AllPackages) error {
	for _, pkg := range all.AllTypings() {
		remaining := make(map[string]struct{}, len(pkg.PathMappings))
		for prefix := range pkg.PathMappings {
			remaining[prefix] = struct{}{}
		}

		for _, dependency := range all.DependencyClosure(pkg) {
			for _, prefix := range dependency.MappingPrefixes() {
				version := dependency.PathMappings[prefix]
				own, ok := pkg.PathMappings[prefix]
				if !ok || own != version {
					return fmt.Errorf(
						"%w: %s depends on %s, which maps %s to v%d, so it must declare the identical mapping itself",
						packages.ErrInvalidData, pkg.Desc(), dependency.Desc(), prefix, version)
				}
				delete(remaining, prefix)
			}
			delete(remaining, dependency.Name)
		}

		if len(remaining) > 0 {
			orphans := make([]string, 0, len(remaining))
			for prefix := range remaining {
				orphans = append(orphans, prefix)
			}
			sort.Strings(orphans)
			return fmt.Errorf("%w: %s has unused path mappings: %s",
				packages.ErrInvalidData, pkg.Desc(), strings.Join(orphans, ", "))
		}
	}
	return nil
}
