// Package sitemap discovers the full set of pages to check. Given a root
// sitemap URL it recursively flattens sitemap-index trees into page URLs,
// optionally rewriting hostnames to the host that served the sitemap, and
// partitions the deterministic page list into batches.
package sitemap
