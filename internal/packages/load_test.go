package packages

import (
	"errors"
	"io/fs"
	"reflect"
	"testing"

	"github.com/mxl/types-publisher/pkg/versioning"
)

func TestRead_JSON(t *testing.T) {
	all, err := Read("testdata/valid")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	typings := all.AllTypings()
	var names []string
	for _, pkg := range typings {
		names = append(names, pkg.Name)
	}
	if want := []string{"history", "react", "react-dom"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("typed package order = %v, want %v", names, want)
	}

	history, ok := all.TryGetTypings("history")
	if !ok {
		t.Fatal("history not loaded")
	}
	if history.LibraryName != "history" {
		t.Errorf("LibraryName = %q", history.LibraryName)
	}
	if history.ProjectName != "https://github.com/mjackson/history" {
		t.Errorf("ProjectName = %q", history.ProjectName)
	}
	if want := (versioning.DeclaredVersion{Major: 4, Minor: 6}); history.Version != want {
		t.Errorf("Version = %v, want %v", history.Version, want)
	}
	wantDeps := []Dependency{{Name: "react", Version: DependencyVersion{Major: 16}}}
	if !reflect.DeepEqual(history.Dependencies, wantDeps) {
		t.Errorf("Dependencies = %+v, want %+v", history.Dependencies, wantDeps)
	}
	if !reflect.DeepEqual(history.TestDependencies, []string{"react-dom"}) {
		t.Errorf("TestDependencies = %v", history.TestDependencies)
	}
	if len(history.Contributors) != 1 || history.Contributors[0].URL != "https://github.com/sergey-buturlakin" {
		t.Errorf("Contributors = %+v", history.Contributors)
	}
	if !reflect.DeepEqual(history.PathMappings, map[string]int{"history": 2}) {
		t.Errorf("PathMappings = %v", history.PathMappings)
	}

	react, _ := all.TryGetTypings("react")
	wantReactDeps := []Dependency{{Name: "csstype", Version: DependencyVersion{Latest: true}}}
	if !reflect.DeepEqual(react.Dependencies, wantReactDeps) {
		t.Errorf("react Dependencies = %+v, want %+v", react.Dependencies, wantReactDeps)
	}

	notNeeded := all.NotNeeded()
	if len(notNeeded) != 1 {
		t.Fatalf("NotNeeded length = %d, want 1", len(notNeeded))
	}
	chalk := notNeeded[0]
	if chalk.Name != "chalk" || chalk.AsOfVersion != "2.0.0" || chalk.SourceRepoURL != "https://github.com/chalk/chalk" {
		t.Errorf("notNeeded entry = %+v", chalk)
	}
}

func TestRead_YAML(t *testing.T) {
	all, err := Read("testdata/valid_yaml")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	split2, ok := all.TryGetTypings("split2")
	if !ok {
		t.Fatal("split2 not loaded from YAML")
	}
	if want := (versioning.DeclaredVersion{Major: 2, Minor: 1}); split2.Version != want {
		t.Errorf("Version = %v, want %v", split2.Version, want)
	}
	wantDeps := []Dependency{
		{Name: "node", Version: DependencyVersion{Major: 10}},
		{Name: "through2", Version: DependencyVersion{Latest: true}},
	}
	if !reflect.DeepEqual(split2.Dependencies, wantDeps) {
		t.Errorf("Dependencies = %+v, want %+v", split2.Dependencies, wantDeps)
	}

	if len(all.NotNeeded()) != 1 || all.NotNeeded()[0].Name != "commander" {
		t.Errorf("NotNeeded = %+v", all.NotNeeded())
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(t.TempDir())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing definitions file should wrap fs.ErrNotExist, got %v", err)
	}
}

func TestRead_SchemaViolation(t *testing.T) {
	_, err := Read("testdata/bad_schema")
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("schema violation should wrap ErrInvalidData, got %v", err)
	}
}

func TestRead_TypedNotNeededConflict(t *testing.T) {
	_, err := Read("testdata/conflict")
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("typed/not-needed conflict should wrap ErrInvalidData, got %v", err)
	}
}

func TestRead_DuplicateMappingPrefix(t *testing.T) {
	_, err := Read("testdata/dup_mapping")
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("duplicate path mapping should wrap ErrInvalidData, got %v", err)
	}
}

func TestRead_RejectsTraversal(t *testing.T) {
	if _, err := Read("testdata/../../../etc"); err == nil {
		t.Error("path traversal should be rejected")
	}
}
