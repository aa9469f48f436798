package updatecheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"k8s.io/utils/clock"
)

// MaxDocumentSize caps the version document read by a probe.
const MaxDocumentSize = 64 << 10

var (
	// ErrUnexpectedStatus reports a non-2xx answer from the version resource.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrDocumentTooLarge reports a body larger than MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("version document too large")
)

// Fetcher reads the currently deployed descriptor.
type Fetcher interface {
	Fetch(ctx context.Context) (Descriptor, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (Descriptor, error)

func (f FetcherFunc) Fetch(ctx context.Context) (Descriptor, error) { return f(ctx) }

// HTTPFetcher reads the version document over HTTP, bypassing every cache on the way.
type HTTPFetcher struct {
	url       *url.URL
	client    *http.Client
	bustParam string
	clock     clock.PassiveClock
	userAgent string
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcherOption customizes an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client (whose Timeout is the fetch timeout).
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.client = client }
}

// WithCacheBustParam sets the query parameter carrying the request time. Empty disables it.
func WithCacheBustParam(name string) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.bustParam = name }
}

// WithFetchClock sets the clock used for cache-busting timestamps.
func WithFetchClock(c clock.PassiveClock) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.clock = c }
}

// WithUserAgent sets the User-Agent header of probe requests.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// NewHTTPFetcher builds a fetcher for rawURL.
func NewHTTPFetcher(rawURL string, timeout time.Duration, opts ...HTTPFetcherOption) (*HTTPFetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse version url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("version url must be http or https, got %q", rawURL)
	}

	f := &HTTPFetcher{
		url:       u,
		client:    &http.Client{Timeout: timeout},
		bustParam: "t",
		clock:     clock.RealClock{},
		userAgent: "vitrine-update-agent",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch performs one cache-bypassing GET and parses the descriptor.
func (f *HTTPFetcher) Fetch(ctx context.Context) (Descriptor, error) {
	target := *f.url
	if f.bustParam != "" {
		q := target.Query()
		q.Set(f.bustParam, strconv.FormatInt(f.clock.Now().UnixMilli(), 10))
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, max-age=0")
	req.Header.Set("Pragma", "no-cache")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch version document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return "", fmt.Errorf("read version document: %w", err)
	}
	if len(body) > MaxDocumentSize {
		return "", ErrDocumentTooLarge
	}

	return ParseVersionDocument(body)
}
