// Package extractor parses fetched HTML documents and yields every outbound
// hyperlink they contain: anchor hrefs, script sources, and link element
// targets. Relative links are resolved against the owning page's URL.
package extractor
