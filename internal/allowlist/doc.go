// Package allowlist loads and evaluates the rule set of accepted outbound
// URLs: literal matches, regex patterns, and the implicit allowance of the
// scanned site's own domain.
package allowlist
