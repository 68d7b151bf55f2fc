package check

import (
	"fmt"

	"github.com/mxl/types-publisher/internal/auditlog"
	"github.com/mxl/types-publisher/internal/packages"
)

// CheckForDuplicates reports every human-facing name produced by selector
// that is shared by more than one package. Packages for which the selector
// yields nothing are skipped. Findings are soft: they go to the log and
// never fail the audit. Returns the number of duplicate groups found.
func CheckForDuplicates(pkgs []packages.AnyPackage, selector func(packages.AnyPackage) string, label string, log *auditlog.Log) int {
	byName := make(map[string][]packages.AnyPackage)
	var order []string
	for _, pkg := range pkgs {
		name := selector(pkg)
		if name == "" {
			continue
		}
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = append(byName[name], pkg)
	}

	groups := 0
	for _, name := range order {
		sharers := byName[name]
		if len(sharers) < 2 {
			continue
		}
		groups++
		lines := make([]string, 0, len(sharers)+1)
		lines = append(lines, fmt.Sprintf(" * Duplicate %s descriptions %q", label, name))
		for _, pkg := range sharers {
			lines = append(lines, fmt.Sprintf("   * %s", pkg.Desc()))
		}
		log.Append(lines...)
	}
	return groups
}
