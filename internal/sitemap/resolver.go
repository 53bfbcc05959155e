package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/outscan/outscan/internal/fetcher"
	"github.com/outscan/outscan/internal/model"
)

// Sitemap document element names.
const (
	elementSitemapIndex = "sitemapindex"
	elementURLSet       = "urlset"
)

// locEntry is a <sitemap> or <url> child carrying a <loc> target.
type locEntry struct {
	Loc string `xml:"loc"`
}

// sitemapDoc covers both sitemap kinds: a sitemap-index listing child
// sitemaps, and a urlset listing pages. The two kinds may co-exist in one
// document, so both child lists are decoded.
type sitemapDoc struct {
	XMLName  xml.Name
	Sitemaps []locEntry `xml:"sitemap"`
	URLs     []locEntry `xml:"url"`
}

// Resolver flattens a sitemap tree into the list of pages to check.
type Resolver struct {
	fetcher *fetcher.Fetcher

	// maxDepth is a hard ceiling on sitemap-index recursion, guarding
	// against malformed or adversarial sitemap cycles.
	maxDepth int

	// maintainHostname keeps page hostnames exactly as listed. When false,
	// every discovered URL is rewritten to the scheme and host of the root
	// sitemap URL the caller supplied.
	maintainHostname bool

	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth sets the recursion ceiling for nested sitemap indexes.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		r.maxDepth = depth
	}
}

// WithMaintainHostname keeps hostnames exactly as the sitemap lists them.
// Used when checking an origin server directly, so links naturally pointing
// back at that origin stay assigned to it instead of being forced to the
// wrong host.
func WithMaintainHostname(maintain bool) Option {
	return func(r *Resolver) {
		r.maintainHostname = maintain
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver that fetches sitemap documents with f.
func NewResolver(f *fetcher.Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:  f,
		maxDepth: 8,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve fetches the sitemap tree rooted at rootURL and returns the
// flattened page list, sorted by URL, plus a resolution error for every
// subtree that could not be fetched or parsed. Failed subtrees are skipped,
// not fatal: the only hard error is a root URL that cannot be parsed at all.
func (r *Resolver) Resolve(ctx context.Context, rootURL string) ([]model.PageURL, []model.ScanError, error) {
	root, err := url.Parse(rootURL)
	if err != nil || root.Host == "" {
		return nil, nil, fmt.Errorf("invalid sitemap URL %q: %w", rootURL, err)
	}

	state := &resolveState{
		origin:  root,
		visited: make(map[string]bool),
	}
	r.walk(ctx, rootURL, 0, state)

	sort.Slice(state.pages, func(i, j int) bool { return state.pages[i].URL < state.pages[j].URL })
	return state.pages, state.errs, nil
}

// resolveState accumulates pages and errors across the recursive walk.
type resolveState struct {
	origin  *url.URL
	visited map[string]bool
	pages   []model.PageURL
	errs    []model.ScanError
}

// walk fetches one sitemap document and recurses into its children.
func (r *Resolver) walk(ctx context.Context, sitemapURL string, depth int, state *resolveState) {
	if ctx.Err() != nil {
		return
	}
	if depth > r.maxDepth {
		state.errs = append(state.errs, model.ScanError{
			Kind:    model.KindResolution,
			URL:     sitemapURL,
			Message: fmt.Sprintf("sitemap nesting exceeds depth limit %d", r.maxDepth),
		})
		return
	}
	if state.visited[sitemapURL] {
		r.logger.Debug("skipping already-visited sitemap", "url", sitemapURL)
		return
	}
	state.visited[sitemapURL] = true

	body, err := r.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		state.errs = append(state.errs, model.ScanError{
			Kind:    model.KindResolution,
			URL:     sitemapURL,
			Message: err.Error(),
		})
		return
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		state.errs = append(state.errs, model.ScanError{
			Kind:    model.KindResolution,
			URL:     sitemapURL,
			Message: fmt.Sprintf("not a parseable sitemap: %v", err),
		})
		return
	}
	if doc.XMLName.Local != elementSitemapIndex && doc.XMLName.Local != elementURLSet {
		state.errs = append(state.errs, model.ScanError{
			Kind:    model.KindResolution,
			URL:     sitemapURL,
			Message: fmt.Sprintf("document root <%s> is neither <sitemapindex> nor <urlset>", doc.XMLName.Local),
		})
		return
	}

	if len(doc.Sitemaps) > 0 {
		r.logger.Info("discovered child sitemaps", "parent", sitemapURL, "count", len(doc.Sitemaps))
	}
	for _, child := range doc.Sitemaps {
		if child.Loc == "" {
			continue
		}
		childURL := r.rewriteHost(child.Loc, state.origin)
		r.logger.Debug("diving into child sitemap", "url", childURL)
		r.walk(ctx, childURL, depth+1, state)
	}

	if len(doc.URLs) > 0 {
		r.logger.Info("adding page URLs", "sitemap", sitemapURL, "count", len(doc.URLs))
	}
	for _, entry := range doc.URLs {
		if entry.Loc == "" {
			state.errs = append(state.errs, model.ScanError{
				Kind:    model.KindResolution,
				URL:     sitemapURL,
				Message: "url node missing <loc>",
			})
			continue
		}
		state.pages = append(state.pages, model.PageURL{
			URL:           r.rewriteHost(entry.Loc, state.origin),
			SourceSitemap: sitemapURL,
		})
	}
}

// rewriteHost replaces raw's scheme and host with the root sitemap's,
// unless hostnames are being maintained. Unparseable URLs pass through
// untouched and surface later as fetch errors.
func (r *Resolver) rewriteHost(raw string, origin *url.URL) string {
	if r.maintainHostname {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	rewritten := *u
	rewritten.Scheme = origin.Scheme
	rewritten.Host = origin.Host
	return rewritten.String()
}
