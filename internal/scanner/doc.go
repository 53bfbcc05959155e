// Package scanner drives the fetch-extract-classify loop over a batch of
// pages and accumulates results. The classification engine itself is a pure
// decision over the allowlist; all network I/O happens before it runs.
package scanner
