package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/mxl/types-publisher/internal/auditlog"
	"github.com/mxl/types-publisher/internal/packages"
	"github.com/mxl/types-publisher/pkg/registry"
)

const githubPrefix = "https://github.com/"

// CheckNpm asks the oracle whether the upstream package has begun shipping
// its own type declarations. When it has, a remediation report is appended
// to the log as one batch, so reports from concurrent workers never
// interleave mid-report. Returns true when a report was emitted; errors
// only surface from the oracle.
func CheckNpm(ctx context.Context, pkg *packages.TypingsData, log *auditlog.Log, dependedOn map[string]struct{}, oracle registry.Oracle) (bool, error) {
	asOfVersion, err := oracle.FirstVersionWithTypes(ctx, pkg.Name)
	if err != nil {
		return false, err
	}
	if asOfVersion == nil {
		return false, nil
	}

	publishArgs := fmt.Sprintf("%s %s %s", pkg.Name, asOfVersion, pkg.ProjectName)
	if pkg.LibraryName != pkg.Name {
		publishArgs += fmt.Sprintf(" %q", pkg.LibraryName)
	}

	lines := []string{
		"",
		fmt.Sprintf("Typings already defined for %s (%s) as of %s (our version: %s)",
			pkg.Name, pkg.LibraryName, asOfVersion, pkg.Version),
		"  To fix this:",
		fmt.Sprintf("  git checkout -b not-needed-%s", pkg.Name),
		fmt.Sprintf("  yarn not-needed -- %s", publishArgs),
		fmt.Sprintf("  git add --all && git commit -m %q && git push -u origin not-needed-%s",
			pkg.Name+": Provides its own types", pkg.Name),
		fmt.Sprintf("  And comment PR: This will deprecate `@types/%s` in favor of just `%s`. CC %s",
			pkg.Name, pkg.Name, contributorList(pkg.Contributors)),
	}
	if pkg.Version.AtLeast(asOfVersion) {
		lines = append(lines, "  WARNING: our version is greater!")
	}
	if _, ok := dependedOn[pkg.Name]; ok {
		lines = append(lines, "  WARNING: other packages depend on this!")
	}
	log.Append(lines...)
	return true, nil
}

// contributorList renders contributors for the CC line: GitHub profiles
// shorten to @handle, anything else stays "name (url)".
func contributorList(contributors []packages.Contributor) string {
	rendered := make([]string, 0, len(contributors))
	for _, c := range contributors {
		if handle, ok := strings.CutPrefix(c.URL, githubPrefix); ok {
			rendered = append(rendered, "@"+handle)
		} else {
			rendered = append(rendered, fmt.Sprintf("%s (%s)", c.Name, c.URL))
		}
	}
	return strings.Join(rendered, ", ")
}
