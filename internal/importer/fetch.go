package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Fetcher = (*DirFetcher)(nil)
)

// HTTPFetcher retrieves files below a base URL, throttled by a token bucket.
type HTTPFetcher struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher constructs an HTTPFetcher. rps == 0 disables throttling.
//
// Precondition: base must be an absolute http(s) URL; burst >= 1 when rps > 0.
func NewHTTPFetcher(base string, rps float64, burst int, timeout time.Duration) *HTTPFetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPFetcher{
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, max(1, burst)),
	}
}

// Fetch issues a GET for base/path.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting to fetch %s: %w", path, err)
	}
	url := f.base + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// DirFetcher reads files from a local checkout of the source repository.
type DirFetcher struct {
	root string
}

// NewDirFetcher constructs a DirFetcher rooted at root.
func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{root: root}
}

// Fetch reads root/path. Paths escaping root are rejected.
func (f *DirFetcher) Fetch(_ context.Context, path string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(path, "/")))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("path %q escapes source root", path)
	}
	data, err := os.ReadFile(filepath.Join(f.root, clean))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
