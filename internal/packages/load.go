package packages

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/mxl/types-publisher/pkg/safeio"
	"github.com/mxl/types-publisher/pkg/versioning"
)

//go:embed definitions.schema.json
var definitionsSchema []byte

const (
	jsonDataFile = "definitions.json"
	yamlDataFile = "definitions.yaml"
)

// ErrInvalidData marks authoring errors in the definitions file: schema
// violations, duplicate names, malformed structures. These need a human
// fix; retrying or continuing would audit garbage.
var ErrInvalidData = errors.New("invalid definitions data")

// rawDataFile mirrors the on-disk definitions document.
type rawDataFile struct {
	Typings   map[string]rawTypings `json:"typings"`
	NotNeeded []rawNotNeeded        `json:"notNeeded"`
}

type rawTypings struct {
	LibraryName         string           `json:"libraryName"`
	ProjectName         string           `json:"projectName"`
	LibraryMajorVersion int              `json:"libraryMajorVersion"`
	LibraryMinorVersion int              `json:"libraryMinorVersion"`
	Dependencies        []Dependency     `json:"dependencies"`
	TestDependencies    []string         `json:"testDependencies"`
	Contributors        []Contributor    `json:"contributors"`
	PathMappings        []rawPathMapping `json:"pathMappings"`
}

type rawPathMapping struct {
	PackageName  string `json:"packageName"`
	MajorVersion int    `json:"majorVersion"`
}

type rawNotNeeded struct {
	Name          string `json:"name"`
	LibraryName   string `json:"libraryName"`
	ProjectName   string `json:"projectName"`
	AsOfVersion   string `json:"asOfVersion"`
	SourceRepoURL string `json:"sourceRepoURL"`
}

// Read loads the package universe from dataDir. definitions.json is
// preferred; definitions.yaml is accepted and normalized through the
// same JSON path, so both formats validate against the same schema.
func Read(dataDir string) (*AllPackages, error) {
	cleanDir, err := safeio.CleanUserPath(dataDir)
	if err != nil {
		return nil, fmt.Errorf("data directory %q: %w", dataDir, err)
	}

	path, data, err := readDataFile(cleanDir)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".yaml") {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalidData, err)
		}
	}

	if err := validateDefinitions(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var raw rawDataFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalidData, err)
	}

	all, err := buildPackages(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return all, nil
}

// readDataFile returns the first definitions file found under dir.
func readDataFile(dir string) (string, []byte, error) {
	for _, name := range []string{jsonDataFile, yamlDataFile} {
		path := filepath.Join(dir, name)
		data, err := safeio.ReadFileContained(dir, path)
		if err == nil {
			return path, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return "", nil, fmt.Errorf("no %s or %s under %q: %w", jsonDataFile, yamlDataFile, dir, os.ErrNotExist)
}

// yamlToJSON re-encodes a YAML document as JSON so schema validation
// and decoding share one code path.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// validateDefinitions checks the document against the embedded schema.
func validateDefinitions(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(definitionsSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if !result.Valid() {
		var violations []string
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		return fmt.Errorf("%w: schema violations:\n%s", ErrInvalidData, strings.Join(violations, "\n"))
	}
	return nil
}

// buildPackages converts the raw document into the arena. Typed
// packages are ordered by name: JSON objects carry no usable order, and
// a stable arena order keeps runs reproducible.
func buildPackages(raw rawDataFile) (*AllPackages, error) {
	names := make([]string, 0, len(raw.Typings))
	for name := range raw.Typings {
		names = append(names, name)
	}
	sort.Strings(names)

	typings := make([]*TypingsData, 0, len(names))
	for _, name := range names {
		entry := raw.Typings[name]

		mappings := make(map[string]int, len(entry.PathMappings))
		for _, m := range entry.PathMappings {
			if _, dup := mappings[m.PackageName]; dup {
				return nil, fmt.Errorf("%w: package %q declares path mapping %q twice", ErrInvalidData, name, m.PackageName)
			}
			mappings[m.PackageName] = m.MajorVersion
		}

		typings = append(typings, &TypingsData{
			Name:        name,
			LibraryName: entry.LibraryName,
			ProjectName: entry.ProjectName,
			Version: versioning.DeclaredVersion{
				Major: entry.LibraryMajorVersion,
				Minor: entry.LibraryMinorVersion,
			},
			Dependencies:     entry.Dependencies,
			TestDependencies: entry.TestDependencies,
			Contributors:     entry.Contributors,
			PathMappings:     mappings,
		})
	}

	notNeeded := make([]*NotNeededPackage, 0, len(raw.NotNeeded))
	for _, entry := range raw.NotNeeded {
		notNeeded = append(notNeeded, &NotNeededPackage{
			Name:          entry.Name,
			LibraryName:   entry.LibraryName,
			ProjectName:   entry.ProjectName,
			AsOfVersion:   entry.AsOfVersion,
			SourceRepoURL: entry.SourceRepoURL,
		})
	}

	all, err := NewAllPackages(typings, notNeeded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return all, nil
}
