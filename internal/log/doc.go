// Package log provides a slog handler wrapper that scrubs credentials from
// logged URLs. Page and sitemap URLs flow through nearly every log line in
// outscan, and signed or tokenized URLs must not leak into CI logs.
package log
