package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// impostorPackage is an npm package whose name collides with a typings
// package for something that was never published to npm. The npm package
// "aws-lambda" is a third-party deployment helper; the declarations under
// that name describe AWS's Lambda runtime API, so the helper's manifest
// must never be taken as evidence that upstream ships types.
const impostorPackage = "aws-lambda"

// NPMClient implements Oracle against an npm registry. It keeps no
// cache: every call is a fresh lookup, so a run always reflects the
// live registry and two runs over the same data agree with each other.
type NPMClient struct {
	baseURL       string
	fetcher       HTTPFetcher
	maxRetries    uint64
	retryInterval time.Duration
}

// NewNPMClient creates an NPMClient with real HTTP for production use.
// An empty baseURL selects the public npm registry.
func NewNPMClient(baseURL string) *NPMClient {
	return NewNPMClientWithFetcher(baseURL, NewRealHTTPFetcher(NewDefaultHTTPClient()))
}

// NewNPMClientWithFetcher creates an NPMClient with injectable HTTP for testing
func NewNPMClientWithFetcher(baseURL string, fetcher HTTPFetcher) *NPMClient {
	if baseURL == "" {
		baseURL = DefaultRegistryURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &NPMClient{
		baseURL:       baseURL,
		fetcher:       fetcher,
		maxRetries:    2,
		retryInterval: 500 * time.Millisecond,
	}
}

// packument is the slice of an npm registry package document this client
// cares about: the set of published versions keyed by version string.
type packument struct {
	Versions map[string]versionManifest `json:"versions"`
}

// versionManifest carries only the two manifest keys that mark a version
// as shipping its own declarations. Raw messages so that key presence is
// what counts, not the value under it.
type versionManifest struct {
	Types   json.RawMessage `json:"types"`
	Typings json.RawMessage `json:"typings"`
}

func (m versionManifest) hasTypes() bool {
	return len(m.Types) > 0 || len(m.Typings) > 0
}

// FirstVersionWithTypes implements Oracle. Among all published versions
// whose manifest has a "types" or "typings" key, the minimum under
// semantic-version ordering is returned; version strings that do not
// parse as semver are skipped.
func (c *NPMClient) FirstVersionWithTypes(ctx context.Context, packageName string) (*semver.Version, error) {
	if packageName == impostorPackage {
		return nil, nil
	}

	lookupURL := c.baseURL + url.PathEscape(packageName)

	var doc packument
	if err := fetchJSON(ctx, c.fetcher, lookupURL, &doc, c.maxRetries, c.retryInterval); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying npm for %s: %w", packageName, err)
	}

	var earliest *semver.Version
	for raw, manifest := range doc.Versions {
		if !manifest.hasTypes() {
			continue
		}
		version, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if earliest == nil || version.LessThan(earliest) {
			earliest = version
		}
	}
	return earliest, nil
}
