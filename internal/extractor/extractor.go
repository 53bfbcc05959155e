package extractor

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/outscan/outscan/internal/model"
)

// Extractor yields the outbound links of a single page. One Extractor is
// created per page and its Extract method consumes the document in a single
// pass; it is not restartable.
//
// Design decision: we use golang.org/x/net/html rather than regex or a CSS
// selector library because it degrades gracefully on malformed markup, which
// is an explicit requirement: broken HTML must yield whatever links can
// still be located, never a fatal error.
type Extractor struct {
	// base is the page URL, used for resolving relative links.
	base *url.URL
}

// New creates an Extractor for the page at pageURL.
func New(pageURL string) (*Extractor, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Extractor{base: base}, nil
}

// linkAttrs maps hyperlink-bearing elements to the attributes that carry
// their targets. Link elements are checked for both href (stylesheets,
// Atom/RSS feeds) and src.
var linkAttrs = map[string][]string{
	"a":      {"href"},
	"script": {"src"},
	"link":   {"href", "src"},
}

// Extract parses the document and returns every outbound link found,
// resolved to normalized absolute form. The sequence is finite and in
// document order; duplicates are preserved (the classification engine
// deduplicates).
func (e *Extractor) Extract(r io.Reader) ([]model.OutboundURL, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	links := make([]model.OutboundURL, 0)
	page := e.base.String()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attrs, ok := linkAttrs[n.Data]; ok {
				for _, attr := range attrs {
					if target := getAttr(n, attr); target != "" {
						if resolved, ok := e.resolve(target); ok {
							links = append(links, model.OutboundURL{URL: resolved, Page: page})
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolve turns a raw attribute value into a normalized absolute URL.
// Fragments carry no server-side meaning and are stripped; query strings
// and trailing slashes are preserved, since masking either would hide real
// configuration differences.
func (e *Extractor) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return "", false
	}
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(href, scheme) {
			return "", false
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := e.base.ResolveReference(u)
	resolved.Fragment = ""
	if resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
