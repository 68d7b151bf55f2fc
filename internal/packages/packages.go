// Package packages models the registry's package universe: the typed
// declaration packages, the retired "not needed" entries, and the
// dependency graph between them. The graph is immutable once built;
// audits only read it.
package packages

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/mxl/types-publisher/pkg/versioning"
)

// AnyPackage is implemented by every entry in the registry universe.
type AnyPackage interface {
	// PackageName is the unique registry name.
	PackageName() string
	// Library is the human-facing library name, empty when unset.
	Library() string
	// Project is the upstream project name or URL, empty when unset.
	Project() string
	// Desc is the human-readable description used in findings.
	Desc() string
}

// DependencyVersion pins a dependency edge to a major version, or to
// whatever is latest ("*"). Only the edge's name participates in graph
// traversal; the version rides along for display.
type DependencyVersion struct {
	Latest bool
	Major  int
}

func (v DependencyVersion) String() string {
	if v.Latest {
		return "*"
	}
	return strconv.Itoa(v.Major)
}

// UnmarshalJSON accepts the two shapes the data file uses: an integer
// major version or the string "*".
func (v *DependencyVersion) UnmarshalJSON(data []byte) error {
	if string(data) == `"*"` {
		*v = DependencyVersion{Latest: true}
		return nil
	}
	var major int
	if err := json.Unmarshal(data, &major); err != nil {
		return fmt.Errorf(`dependency version must be an integer major or "*": %w`, err)
	}
	if major < 0 {
		return fmt.Errorf("dependency version must be non-negative, got %d", major)
	}
	*v = DependencyVersion{Major: major}
	return nil
}

// Dependency is one declared edge to another package, by name.
type Dependency struct {
	Name    string            `json:"name"`
	Version DependencyVersion `json:"version"`
}

// Contributor identifies an author of a typings package.
type Contributor struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TypingsData is a typed declaration package: the unit every audit runs
// over.
type TypingsData struct {
	Name             string
	LibraryName      string
	ProjectName      string
	Version          versioning.DeclaredVersion
	Dependencies     []Dependency
	TestDependencies []string
	Contributors     []Contributor
	PathMappings     map[string]int
}

func (t *TypingsData) PackageName() string { return t.Name }
func (t *TypingsData) Library() string     { return t.LibraryName }
func (t *TypingsData) Project() string     { return t.ProjectName }

// Desc renders "<name> v<major>.<minor>", or the bare name while the
// declared version is still the 0.0 placeholder.
func (t *TypingsData) Desc() string {
	if t.Version.IsZero() {
		return t.Name
	}
	return fmt.Sprintf("%s v%s", t.Name, t.Version)
}

// MappingPrefixes returns the path-mapping prefixes in sorted order.
func (t *TypingsData) MappingPrefixes() []string {
	prefixes := make([]string, 0, len(t.PathMappings))
	for prefix := range t.PathMappings {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// NotNeededPackage records a typings package retired because upstream
// ships its own declarations from AsOfVersion on. It carries no graph
// structure; it exists so the duplicate-name audit sees the whole
// universe.
type NotNeededPackage struct {
	Name          string
	LibraryName   string
	ProjectName   string
	AsOfVersion   string
	SourceRepoURL string
}

func (n *NotNeededPackage) PackageName() string { return n.Name }
func (n *NotNeededPackage) Library() string     { return n.LibraryName }
func (n *NotNeededPackage) Project() string     { return n.ProjectName }
func (n *NotNeededPackage) Desc() string        { return n.Name }

// AllPackages is the arena of the package universe, indexed by name.
// Dependency edges are stored as names and resolved through the arena
// during traversal, so cycles surface as repeat visits instead of
// unbounded recursion.
type AllPackages struct {
	typings   map[string]*TypingsData
	order     []string
	notNeeded []*NotNeededPackage
}

// NewAllPackages builds the arena, preserving the given typed-package
// order. Duplicate typed names, and not-needed entries reusing a typed
// name, are authoring errors.
func NewAllPackages(typings []*TypingsData, notNeeded []*NotNeededPackage) (*AllPackages, error) {
	all := &AllPackages{
		typings: make(map[string]*TypingsData, len(typings)),
		order:   make([]string, 0, len(typings)),
	}
	for _, t := range typings {
		if _, exists := all.typings[t.Name]; exists {
			return nil, fmt.Errorf("duplicate typings package %q", t.Name)
		}
		all.typings[t.Name] = t
		all.order = append(all.order, t.Name)
	}
	for _, n := range notNeeded {
		if _, exists := all.typings[n.Name]; exists {
			return nil, fmt.Errorf("package %q is listed as both typed and not-needed", n.Name)
		}
		all.notNeeded = append(all.notNeeded, n)
	}
	return all, nil
}

// All returns the full universe: typed packages first, then not-needed
// entries, each group in arena order.
func (a *AllPackages) All() []AnyPackage {
	out := make([]AnyPackage, 0, len(a.order)+len(a.notNeeded))
	for _, name := range a.order {
		out = append(out, a.typings[name])
	}
	for _, n := range a.notNeeded {
		out = append(out, n)
	}
	return out
}

// AllTypings returns the typed packages in arena order.
func (a *AllPackages) AllTypings() []*TypingsData {
	out := make([]*TypingsData, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.typings[name])
	}
	return out
}

// NotNeeded returns the retired entries in arena order.
func (a *AllPackages) NotNeeded() []*NotNeededPackage {
	return append([]*NotNeededPackage(nil), a.notNeeded...)
}

// TryGetTypings resolves a name to its typed package, if present.
func (a *AllPackages) TryGetTypings(name string) (*TypingsData, bool) {
	t, ok := a.typings[name]
	return t, ok
}

// DependencyClosure returns every typed package transitively reachable
// from pkg through dependency and test-dependency edges, excluding pkg
// itself. Names that resolve to no typed package (plain npm packages)
// are skipped. The result is sorted by name so violations and reports
// come out in a stable order.
func (a *AllPackages) DependencyClosure(pkg *TypingsData) []*TypingsData {
	visited := map[string]bool{pkg.Name: true}
	worklist := edgeNames(pkg)

	var closure []*TypingsData
	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		dep, ok := a.typings[name]
		if !ok {
			continue
		}
		closure = append(closure, dep)
		worklist = append(worklist, edgeNames(dep)...)
	}

	sort.Slice(closure, func(i, j int) bool { return closure[i].Name < closure[j].Name })
	return closure
}

// DependedOn returns the set of names referenced by at least one other
// package's dependencies or test dependencies. Self-references do not
// count.
func (a *AllPackages) DependedOn() map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range a.order {
		t := a.typings[name]
		for _, edge := range edgeNames(t) {
			if edge == t.Name {
				continue
			}
			set[edge] = struct{}{}
		}
	}
	return set
}

// edgeNames lists the outgoing edge targets of a typed package:
// dependencies first, then test dependencies.
func edgeNames(t *TypingsData) []string {
	names := make([]string, 0, len(t.Dependencies)+len(t.TestDependencies))
	for _, d := range t.Dependencies {
		names = append(names, d.Name)
	}
	names = append(names, t.TestDependencies...)
	return names
}
