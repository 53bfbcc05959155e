// Package main provides the entry point for the outscan CLI.
//
// outscan verifies the outbound hyperlinks of a website: it resolves an XML
// sitemap tree into pages, extracts every outbound link from every page,
// classifies each against an allowlist, and reports the unexpected ones
// mapped back to the pages that reference them.
//
// Usage:
//
//	outscan scan --sitemap-url https://www.example.org/sitemap.xml --allowlist allowlist.yaml
//	outscan scan --specific-url https://www.example.org/about --allowlist allowlist.yaml
//
// See --help for all available options.
package main

// main is the entry point for outscan.
func main() {
	Execute()
}
