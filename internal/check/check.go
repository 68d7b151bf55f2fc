// Package check implements the registry audit: the duplicate-name scans,
// the path-mapping consistency check over the dependency graph, and the npm
// redundancy check that flags packages whose upstream now ships its own
// type declarations.
package check

import (
	"context"
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/mxl/types-publisher/internal/auditlog"
	"github.com/mxl/types-publisher/internal/packages"
	"github.com/mxl/types-publisher/pkg/logger"
	"github.com/mxl/types-publisher/pkg/registry"
)

// DefaultConcurrency bounds in-flight registry lookups when Options leaves
// Concurrency unset.
const DefaultConcurrency = 10

// Options configures one audit run.
type Options struct {
	Data   *packages.AllPackages
	Oracle registry.Oracle
	// Offline skips every registry lookup; the graph audits still run.
	Offline bool
	// Concurrency bounds in-flight oracle queries. DefaultConcurrency when
	// not positive.
	Concurrency int
	// Filters restricts npm checks to package names matching any of the
	// glob patterns. Empty means every typed package.
	Filters []string
	Log     *auditlog.Log
}

// Summary describes what one run covered and found.
type Summary struct {
	Packages        int  `json:"packages"`
	TypedPackages   int  `json:"typedPackages"`
	DuplicateGroups int  `json:"duplicateGroups"`
	Checked         int  `json:"checked"`
	Redundant       int  `json:"redundant"`
	Offline         bool `json:"offline"`
}

// Run executes one audit. The duplicate-name scans and the path-mapping
// check always run; a path-mapping violation aborts immediately. Unless
// opts.Offline, every selected typed package is then checked against the
// registry with bounded concurrency, failing fast on the first oracle
// error. The caller persists opts.Log afterwards.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	universe := opts.Data.All()
	summary := &Summary{
		Packages:      len(universe),
		TypedPackages: len(opts.Data.AllTypings()),
		Offline:       opts.Offline,
	}

	logger.Debug("auditing names and path mappings",
		logger.Int("packages", summary.Packages))
	summary.DuplicateGroups += CheckForDuplicates(universe, packages.AnyPackage.Library, "Library Name", opts.Log)
	summary.DuplicateGroups += CheckForDuplicates(universe, packages.AnyPackage.Project, "Project Name", opts.Log)

	if err := CheckPathMappings(opts.Data); err != nil {
		return nil, err
	}

	if opts.Offline {
		return summary, nil
	}

	selected, err := selectPackages(opts.Data.AllTypings(), opts.Filters)
	if err != nil {
		return nil, err
	}
	summary.Checked = len(selected)

	dependedOn := opts.Data.DependedOn()
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger.Debug("checking packages against the registry",
		logger.Int("packages", len(selected)), logger.Int("concurrency", concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	redundant := 0
	for _, pkg := range selected {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			reported, err := CheckNpm(gctx, pkg, opts.Log, dependedOn, opts.Oracle)
			if err != nil {
				return err
			}
			if reported {
				mu.Lock()
				redundant++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	summary.Redundant = redundant

	return summary, nil
}

// selectPackages narrows the typed set to names matching any filter
// pattern. No filters selects everything. Patterns are validated up front
// so a bad filter fails the run instead of silently matching nothing.
func selectPackages(typings []*packages.TypingsData, filters []string) ([]*packages.TypingsData, error) {
	if len(filters) == 0 {
		return typings, nil
	}
	for _, pattern := range filters {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid filter pattern %q", pattern)
		}
	}

	var selected []*packages.TypingsData
	for _, pkg := range typings {
		for _, pattern := range filters {
			matched, err := doublestar.Match(pattern, pkg.Name)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", pattern, err)
			}
			if matched {
				selected = append(selected, pkg)
				break
			}
		}
	}
	return selected, nil
}
