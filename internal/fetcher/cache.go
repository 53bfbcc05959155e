package fetcher

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache is an in-memory store of fetched page bodies keyed by page URL.
//
// Only pages whose path contains one of the configured markers are kept
// (by default a single locale), bounding memory while still giving the
// downstream geo-consistency check the sample it needs. At roughly 25KB per
// page and a few thousand pages per batch that is well under 100MB.
type Cache struct {
	mu      sync.Mutex
	pages   map[string][]byte
	markers []string
}

// NewCache creates a Cache that keeps pages whose path contains any of the
// given markers. With no markers every page is cacheable.
func NewCache(markers ...string) *Cache {
	return &Cache{
		pages:   make(map[string][]byte),
		markers: markers,
	}
}

// Cacheable reports whether the cache would keep the given page URL.
func (c *Cache) Cacheable(pageURL string) bool {
	if len(c.markers) == 0 {
		return true
	}
	for _, m := range c.markers {
		if strings.Contains(pageURL, m) {
			return true
		}
	}
	return false
}

// Get returns the cached body for pageURL, if present.
func (c *Cache) Get(pageURL string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.pages[pageURL]
	return body, ok
}

// Put stores body under pageURL if the URL is cacheable.
func (c *Cache) Put(pageURL string, body []byte) {
	if !c.Cacheable(pageURL) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[pageURL] = body
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// Export writes every cached body to dir, one file per page, and returns
// the number of files written. Filenames are the URL-escaped page URL with
// slashes flattened to underscores; pages with path-like URIs (trailing
// slash) get an ".html" suffix so the dump is easier to filter.
func (c *Cache) Export(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return 0, fmt.Errorf("failed to create cache export directory: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for pageURL, body := range c.pages {
		name := pageURL
		if strings.HasSuffix(name, "/") {
			name += ".html"
		}
		name = strings.ReplaceAll(url.PathEscape(name), "%2F", "_")

		if err := os.WriteFile(filepath.Join(dir, name), body, 0600); err != nil {
			return count, fmt.Errorf("failed to export cached page %s: %w", pageURL, err)
		}
		count++
	}
	return count, nil
}
