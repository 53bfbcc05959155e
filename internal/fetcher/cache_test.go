package fetcher

import (
	"os"
	"path/filepath"
	"testing"
)

// TestCacheMarkers verifies the locale-marker gate on Put.
func TestCacheMarkers(t *testing.T) {
	t.Parallel()

	t.Run("no markers caches everything", func(t *testing.T) {
		t.Parallel()
		c := NewCache()
		if !c.Cacheable("https://www.example.org/anything/") {
			t.Error("expected markerless cache to accept every URL")
		}
	})

	t.Run("marker selects matching paths only", func(t *testing.T) {
		t.Parallel()
		c := NewCache("/en-US/")
		c.Put("https://www.example.org/en-US/about/", []byte("kept"))
		c.Put("https://www.example.org/de/about/", []byte("dropped"))

		if _, ok := c.Get("https://www.example.org/en-US/about/"); !ok {
			t.Error("expected marked page to be cached")
		}
		if _, ok := c.Get("https://www.example.org/de/about/"); ok {
			t.Error("expected unmarked page not to be cached")
		}
		if c.Len() != 1 {
			t.Errorf("expected 1 cached page, got %d", c.Len())
		}
	})
}

// TestCacheExport verifies the on-disk dump: filename flattening and the
// ".html" suffix for path-like URLs.
func TestCacheExport(t *testing.T) {
	t.Parallel()

	c := NewCache()
	c.Put("https://www.example.org/en-US/about/", []byte("<html>about</html>"))
	c.Put("https://www.example.org/en-US/robots.txt", []byte("User-agent: *"))

	dir := filepath.Join(t.TempDir(), "page_cache")
	count, err := c.Export(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 exported files, got %d", count)
	}

	t.Run("trailing-slash URL gets an .html suffix", func(t *testing.T) {
		t.Parallel()
		name := "https:__www.example.org_en-US_about_.html"
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected export file %q: %v", name, err)
		}
		if string(body) != "<html>about</html>" {
			t.Errorf("unexpected body: %q", body)
		}
	})

	t.Run("file-like URL keeps its own name", func(t *testing.T) {
		t.Parallel()
		name := "https:__www.example.org_en-US_robots.txt"
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected export file %q: %v", name, err)
		}
	})
}
