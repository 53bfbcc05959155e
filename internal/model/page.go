package model

// PageURL is a single page identified for checking.
// Instances are created during sitemap flattening and are read-only
// afterwards; the fetch/extract stage consumes each one exactly once.
type PageURL struct {
	// URL is the absolute URL of the page.
	URL string `json:"url"`

	// SourceSitemap is the URL of the sitemap document that listed this page.
	// Empty for pages supplied directly (--specific-url, extra-URLs file).
	SourceSitemap string `json:"source_sitemap,omitempty"`

	// Batch is the 1-indexed batch this page was assigned to.
	// Zero until batch partitioning has run.
	Batch int `json:"batch,omitempty"`
}

// OutboundURL is a URL discovered as a link target on some page.
//
// Design decision: the Page field is a back-reference (the page's URL string)
// rather than a *PageURL because the outbound link does not own or control
// the page's lifecycle; it only needs to name where it was found.
type OutboundURL struct {
	// URL is the normalized absolute form of the link target.
	// Relative links are resolved against the owning page's URL and
	// fragments are stripped before this value is set.
	URL string `json:"url"`

	// Page is the URL of the page the link was found on.
	Page string `json:"page"`
}
