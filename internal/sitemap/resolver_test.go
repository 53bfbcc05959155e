package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/outscan/outscan/internal/fetcher"
	"github.com/outscan/outscan/internal/model"
)

// sitemapServer serves canned sitemap documents keyed by request path.
func sitemapServer(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, ok := docs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// urlset builds a urlset document from page URLs.
func urlset(urls ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, u := range urls {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>", u)
	}
	b.WriteString("</urlset>")
	return b.String()
}

// sitemapindex builds a sitemap-index document from child sitemap URLs.
func sitemapindex(children ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, c := range children {
		fmt.Fprintf(&b, "<sitemap><loc>%s</loc></sitemap>", c)
	}
	b.WriteString("</sitemapindex>")
	return b.String()
}

// TestResolveFlatSitemap verifies resolution of a single urlset document.
func TestResolveFlatSitemap(t *testing.T) {
	t.Parallel()

	srv := sitemapServer(t, map[string]string{
		"/sitemap.xml": urlset(
			"https://www.example.org/b/",
			"https://www.example.org/a/",
		),
	})

	r := NewResolver(fetcher.New())
	pages, errs, err := r.Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected resolution errors: %v", errs)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].URL >= pages[1].URL {
		t.Errorf("expected pages sorted by URL, got %s before %s", pages[0].URL, pages[1].URL)
	}
	if pages[0].SourceSitemap != srv.URL+"/sitemap.xml" {
		t.Errorf("expected source sitemap to be recorded, got %q", pages[0].SourceSitemap)
	}
}

// TestResolveSitemapIndex verifies recursion into child sitemaps.
func TestResolveSitemapIndex(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	srv = sitemapServer(t, nil)
	docs := map[string]string{
		"/sitemap.xml": sitemapindex(
			srv.URL+"/sitemaps/one.xml",
			srv.URL+"/sitemaps/two.xml",
		),
		"/sitemaps/one.xml": urlset("https://www.example.org/one/"),
		"/sitemaps/two.xml": urlset("https://www.example.org/two/"),
	}
	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, ok := docs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, doc)
	})

	r := NewResolver(fetcher.New())
	pages, errs, err := r.Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected resolution errors: %v", errs)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages from 2 child sitemaps, got %d", len(pages))
	}
}

// TestResolveHostnameRewrite verifies the hostname substitution rules:
// discovered URLs are rewritten to the root sitemap's host unless hostnames
// are maintained.
func TestResolveHostnameRewrite(t *testing.T) {
	t.Parallel()

	t.Run("pages rewritten to the sitemap host by default", func(t *testing.T) {
		t.Parallel()
		srv := sitemapServer(t, map[string]string{
			"/sitemap.xml": urlset("https://www.production.example/en-US/about/"),
		})

		r := NewResolver(fetcher.New())
		pages, _, err := r.Resolve(context.Background(), srv.URL+"/sitemap.xml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := srv.URL + "/en-US/about/"
		if len(pages) != 1 || pages[0].URL != want {
			t.Errorf("expected %q, got %v", want, pages)
		}
	})

	t.Run("maintain-hostname keeps listed hosts untouched", func(t *testing.T) {
		t.Parallel()
		srv := sitemapServer(t, map[string]string{
			"/sitemap.xml": urlset("https://www.production.example/en-US/about/"),
		})

		r := NewResolver(fetcher.New(), WithMaintainHostname(true))
		pages, _, err := r.Resolve(context.Background(), srv.URL+"/sitemap.xml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "https://www.production.example/en-US/about/"
		if len(pages) != 1 || pages[0].URL != want {
			t.Errorf("expected %q, got %v", want, pages)
		}
	})
}

// TestResolveErrors verifies that broken subtrees degrade to resolution
// errors while valid siblings still resolve.
func TestResolveErrors(t *testing.T) {
	t.Parallel()

	t.Run("unreachable child yields error, sibling survives", func(t *testing.T) {
		t.Parallel()
		var srv *httptest.Server
		srv = sitemapServer(t, nil)
		docs := map[string]string{
			"/sitemap.xml": sitemapindex(
				srv.URL+"/missing.xml",
				srv.URL+"/good.xml",
			),
			"/good.xml": urlset("https://www.example.org/ok/"),
		}
		srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			doc, ok := docs[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, doc)
		})

		r := NewResolver(fetcher.New())
		pages, errs, err := r.Resolve(context.Background(), srv.URL+"/sitemap.xml")
		if err != nil {
			t.Fatalf("unexpected hard error: %v", err)
		}
		if len(pages) != 1 {
			t.Errorf("expected the good sibling to resolve, got %v", pages)
		}
		if len(errs) != 1 || errs[0].Kind != model.KindResolution {
			t.Errorf("expected one resolution error, got %v", errs)
		}
	})

	t.Run("non-sitemap XML yields error", func(t *testing.T) {
		t.Parallel()
		srv := sitemapServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`,
		})

		r := NewResolver(fetcher.New())
		pages, errs, err := r.Resolve(context.Background(), srv.URL+"/sitemap.xml")
		if err != nil {
			t.Fatalf("unexpected hard error: %v", err)
		}
		if len(pages) != 0 {
			t.Errorf("expected no pages, got %v", pages)
		}
		if len(errs) != 1 || errs[0].Kind != model.KindResolution {
			t.Errorf("expected one resolution error, got %v", errs)
		}
	})

	t.Run("unparseable root URL is a hard error", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(fetcher.New())
		if _, _, err := r.Resolve(context.Background(), "not a url"); err == nil {
			t.Error("expected error for unparseable root URL")
		}
	})

	t.Run("cycle terminates via the visited set", func(t *testing.T) {
		t.Parallel()
		var srv *httptest.Server
		srv = sitemapServer(t, nil)
		docs := map[string]string{}
		srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, docs[r.URL.Path])
		})
		docs["/a.xml"] = sitemapindex(srv.URL + "/b.xml")
		docs["/b.xml"] = sitemapindex(srv.URL + "/a.xml")

		r := NewResolver(fetcher.New())
		pages, errs, err := r.Resolve(context.Background(), srv.URL+"/a.xml")
		if err != nil {
			t.Fatalf("unexpected hard error: %v", err)
		}
		if len(pages) != 0 || len(errs) != 0 {
			t.Errorf("expected a silent empty result from a pure cycle, got pages=%v errs=%v", pages, errs)
		}
	})

	t.Run("nesting beyond the depth limit yields error", func(t *testing.T) {
		t.Parallel()
		var srv *httptest.Server
		srv = sitemapServer(t, nil)
		srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Every level points one deeper, forever.
			next := fmt.Sprintf("%s%s0", srv.URL, r.URL.Path)
			fmt.Fprint(w, sitemapindex(next))
		})

		r := NewResolver(fetcher.New(), WithMaxDepth(3))
		_, errs, err := r.Resolve(context.Background(), srv.URL+"/s")
		if err != nil {
			t.Fatalf("unexpected hard error: %v", err)
		}
		if len(errs) != 1 || errs[0].Kind != model.KindResolution {
			t.Fatalf("expected one depth-limit error, got %v", errs)
		}
		if !strings.Contains(errs[0].Message, "depth limit") {
			t.Errorf("expected depth-limit message, got %q", errs[0].Message)
		}
	})
}
