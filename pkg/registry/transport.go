package registry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
)

// ErrNotFound indicates the registry has no document under the requested
// package name.
var ErrNotFound = errors.New("package not found in registry")

// HTTPFetcher abstracts HTTP calls for testability
type HTTPFetcher interface {
	Get(url string) (*http.Response, error)
	Do(req *http.Request) (*http.Response, error)
}

// RealHTTPFetcher wraps http.Client for production use
type RealHTTPFetcher struct {
	client *http.Client
}

// NewRealHTTPFetcher creates a production HTTP fetcher
func NewRealHTTPFetcher(client *http.Client) HTTPFetcher {
	return &RealHTTPFetcher{client: client}
}

func (f *RealHTTPFetcher) Get(url string) (*http.Response, error) {
	return f.client.Get(url)
}

func (f *RealHTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return f.client.Do(req)
}

// NewDefaultHTTPClient builds the client used against the npm registry:
// TLS 1.2 minimum, a 30 second per-request timeout, and a caching DNS
// resolver. A full run issues one lookup per typings package, all
// against the same host, so repeated resolution is wasted work.
func NewDefaultHTTPClient() *http.Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, fmt.Errorf("failed to dial any resolved address for %s", host)
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// fetchJSON issues a GET against rawurl and decodes the JSON body into v.
// Transport errors and 5xx responses are retried with exponential backoff
// (maxRetries additional attempts, starting at initialInterval); a 404
// maps to ErrNotFound without retry, and any other 4xx fails immediately.
func fetchJSON(ctx context.Context, fetcher HTTPFetcher, rawurl string, v interface{}, maxRetries uint64, initialInterval time.Duration) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := fetcher.Do(req)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", rawurl, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return backoff.Permanent(fmt.Errorf("decoding response from %s: %w", rawurl, err))
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("registry returned status %d for %s", resp.StatusCode, rawurl)
		default:
			return backoff.Permanent(fmt.Errorf("registry returned status %d for %s", resp.StatusCode, rawurl))
		}
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, maxRetries), ctx)
	return backoff.Retry(op, policy)
}

// MockHTTPFetcher simulates HTTP responses for testing
type MockHTTPFetcher struct {
	mu        sync.Mutex
	responses map[string]*mockResponse
	errors    map[string]error
	requests  []string
}

type mockResponse struct {
	statusCode int
	body       string
}

// NewMockHTTPFetcher creates a mock HTTP fetcher
func NewMockHTTPFetcher() *MockHTTPFetcher {
	return &MockHTTPFetcher{
		responses: make(map[string]*mockResponse),
		errors:    make(map[string]error),
	}
}

// AddResponse registers a mock response for a URL
func (m *MockHTTPFetcher) AddResponse(urlStr string, statusCode int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[urlStr] = &mockResponse{statusCode: statusCode, body: body}
}

// AddError registers a mock error for a URL
func (m *MockHTTPFetcher) AddError(urlStr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[urlStr] = err
}

// Requests returns the URLs fetched so far, in order.
func (m *MockHTTPFetcher) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func (m *MockHTTPFetcher) Get(urlStr string) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, urlStr)
	err, haveErr := m.errors[urlStr]
	mock, haveResp := m.responses[urlStr]
	m.mu.Unlock()

	if haveErr {
		return nil, err
	}
	if haveResp {
		parsedURL, _ := url.Parse(urlStr)
		return &http.Response{
			StatusCode: mock.statusCode,
			Body:       io.NopCloser(strings.NewReader(mock.body)),
			Header:     make(http.Header),
			Request:    &http.Request{URL: parsedURL},
		}, nil
	}
	// Unknown URLs are 404s
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("Not Found")),
		Header:     make(http.Header),
	}, nil
}

func (m *MockHTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return m.Get(req.URL.String())
}
