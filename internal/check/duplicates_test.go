package check

import (
	"reflect"
	"testing"

	"github.com/mxl/types-publisher/internal/auditlog"
	"github.com/mxl/types-publisher/internal/packages"
	"github.com/mxl/types-publisher/pkg/versioning"
)

func TestCheckForDuplicates(t *testing.T) {
	universe := []packages.AnyPackage{
		&packages.TypingsData{Name: "p1", LibraryName: "X", Version: versioning.DeclaredVersion{Major: 1}},
		&packages.TypingsData{Name: "p2", LibraryName: "X", Version: versioning.DeclaredVersion{Major: 2}},
		&packages.TypingsData{Name: "p3", LibraryName: "Y", Version: versioning.DeclaredVersion{Major: 1}},
		&packages.TypingsData{Name: "p4", Version: versioning.DeclaredVersion{Major: 1}},
	}

	log := auditlog.New()
	groups := CheckForDuplicates(universe, packages.AnyPackage.Library, "Library Name", log)

	if groups != 1 {
		t.Errorf("groups = %d, want 1", groups)
	}
	want := []string{
		` * Duplicate Library Name descriptions "X"`,
		`   * p1 v1.0`,
		`   * p2 v2.0`,
	}
	if !reflect.DeepEqual(log.Lines(), want) {
		t.Errorf("log lines = %#v, want %#v", log.Lines(), want)
	}
}

func TestCheckForDuplicates_MixedUniverse(t *testing.T) {
	// Typed and not-needed packages share one universe; descriptions differ.
	universe := []packages.AnyPackage{
		&packages.TypingsData{Name: "moment-timezone", LibraryName: "Moment Timezone", Version: versioning.DeclaredVersion{Major: 0, Minor: 5}},
		&packages.NotNeededPackage{Name: "moment", LibraryName: "Moment Timezone"},
	}

	log := auditlog.New()
	groups := CheckForDuplicates(universe, packages.AnyPackage.Library, "Library Name", log)

	if groups != 1 {
		t.Fatalf("groups = %d, want 1", groups)
	}
	want := []string{
		` * Duplicate Library Name descriptions "Moment Timezone"`,
		`   * moment-timezone v0.5`,
		`   * moment`,
	}
	if !reflect.DeepEqual(log.Lines(), want) {
		t.Errorf("log lines = %#v, want %#v", log.Lines(), want)
	}
}

func TestCheckForDuplicates_MultipleGroupsInDiscoveryOrder(t *testing.T) {
	universe := []packages.AnyPackage{
		&packages.TypingsData{Name: "a", ProjectName: "https://m.example.com"},
		&packages.TypingsData{Name: "b", ProjectName: "https://n.example.com"},
		&packages.TypingsData{Name: "c", ProjectName: "https://n.example.com"},
		&packages.TypingsData{Name: "d", ProjectName: "https://m.example.com"},
	}

	log := auditlog.New()
	groups := CheckForDuplicates(universe, packages.AnyPackage.Project, "Project Name", log)

	if groups != 2 {
		t.Fatalf("groups = %d, want 2", groups)
	}
	want := []string{
		` * Duplicate Project Name descriptions "https://m.example.com"`,
		`   * a`,
		`   * d`,
		` * Duplicate Project Name descriptions "https://n.example.com"`,
		`   * b`,
		`   * c`,
	}
	if !reflect.DeepEqual(log.Lines(), want) {
		t.Errorf("log lines = %#v, want %#v", log.Lines(), want)
	}
}

func TestCheckForDuplicates_NoFindings(t *testing.T) {
	universe := []packages.AnyPackage{
		&packages.TypingsData{Name: "a", LibraryName: "A"},
		&packages.TypingsData{Name: "b", LibraryName: "B"},
		&packages.TypingsData{Name: "c"},
		&packages.TypingsData{Name: "d"},
	}

	log := auditlog.New()
	if groups := CheckForDuplicates(universe, packages.AnyPackage.Library, "Library Name", log); groups != 0 {
		t.Errorf("groups = %d, want 0", groups)
	}
	if log.Len() != 0 {
		t.Errorf("log should stay empty, got %#v", log.Lines())
	}
}
