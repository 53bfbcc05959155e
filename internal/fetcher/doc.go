// Package fetcher retrieves page bodies over HTTP with an identifying
// user-agent, bounded redirects, retry-with-wait, politeness rate limiting,
// and an in-memory page cache that can be exported for downstream checks.
package fetcher
