package model

import (
	"sort"
	"time"
)

// ErrorKind categorizes recoverable errors accumulated during a scan.
// Configuration errors are not represented here because they abort the run
// before a ScanResult exists.
type ErrorKind string

// Recoverable error kinds. Each maps to one stage of the scan: sitemap
// resolution, page fetching, and HTML extraction.
const (
	KindResolution ErrorKind = "resolution"
	KindFetch      ErrorKind = "fetch"
	KindExtraction ErrorKind = "extraction"
)

// ScanError records a recoverable failure for one URL. The run continues;
// the error is surfaced alongside the unexpected-URL report so operators can
// distinguish "found violations" from "failed to fully scan".
type ScanError struct {
	// Kind is the stage the error occurred in.
	Kind ErrorKind `json:"kind"`

	// URL is the sitemap or page URL the error relates to.
	URL string `json:"url"`

	// Message is the human-readable error description.
	Message string `json:"message"`
}

// ScanResult accumulates the outcome of one run (or one batch).
//
// It holds the mapping from unexpected URL to the set of pages referencing
// it, the reverse mapping from page to the unexpected URLs found on it, and
// a flat deduplicated set of all unexpected URLs. Every (URL, page) pair
// appears in both views exactly once.
//
// ScanResult is not safe for concurrent use. Callers that classify pages in
// parallel must serialize writes (see scanner.Scanner).
type ScanResult struct {
	// Hostname is the host the scan ran against.
	Hostname string

	// BatchLabel identifies the batch this result belongs to.
	// "all" for an unbatched run, otherwise the chunk number.
	BatchLabel string

	// StartedAt is when the scan began.
	StartedAt time.Time

	// FinishedAt is set by Finalize.
	FinishedAt time.Time

	// PagesChecked counts pages that were fetched and extracted.
	PagesChecked int

	byURL  map[string]map[string]struct{}
	byPage map[string]map[string]struct{}
	flat   map[string]struct{}
	errs   []ScanError

	finalized bool
}

// NewScanResult creates an empty accumulator for one run or batch.
func NewScanResult(hostname, batchLabel string) *ScanResult {
	return &ScanResult{
		Hostname:   hostname,
		BatchLabel: batchLabel,
		StartedAt:  time.Now().UTC(),
		byURL:      make(map[string]map[string]struct{}),
		byPage:     make(map[string]map[string]struct{}),
		flat:       make(map[string]struct{}),
	}
}

// AddUnexpected records that url was found on page and matched no allowlist
// rule. Duplicate (url, page) pairs collapse, so classifying the same input
// twice leaves the result unchanged. Calls after Finalize are ignored.
func (r *ScanResult) AddUnexpected(url, page string) {
	if r.finalized {
		return
	}

	if r.byURL[url] == nil {
		r.byURL[url] = make(map[string]struct{})
	}
	r.byURL[url][page] = struct{}{}

	if r.byPage[page] == nil {
		r.byPage[page] = make(map[string]struct{})
	}
	r.byPage[page][url] = struct{}{}

	r.flat[url] = struct{}{}
}

// AddError appends a recoverable error to the run's error log.
func (r *ScanResult) AddError(e ScanError) {
	if r.finalized {
		return
	}
	r.errs = append(r.errs, e)
}

// Finalize marks the result complete. After Finalize the result never
// mutates again; AddUnexpected and AddError become no-ops.
func (r *ScanResult) Finalize() {
	if r.finalized {
		return
	}
	r.finalized = true
	r.FinishedAt = time.Now().UTC()
}

// Unexpected returns all unexpected URLs, deduplicated and sorted.
// This is the flat view: the projection of the nested view's keys.
func (r *ScanResult) Unexpected() []string {
	return sortedKeys(r.flat)
}

// PagesFor returns the sorted set of pages that reference url.
func (r *ScanResult) PagesFor(url string) []string {
	return sortedKeys(r.byURL[url])
}

// Pages returns every page with at least one unexpected URL, sorted.
func (r *ScanResult) Pages() []string {
	return sortedKeys(r.byPage)
}

// URLsOn returns the sorted set of unexpected URLs found on page.
func (r *ScanResult) URLsOn(page string) []string {
	return sortedKeys(r.byPage[page])
}

// Errors returns the accumulated error log in insertion order.
func (r *ScanResult) Errors() []ScanError {
	return r.errs
}

// UnexpectedCount returns the number of distinct unexpected URLs.
func (r *ScanResult) UnexpectedCount() int {
	return len(r.flat)
}

// Clean reports whether the run found no unexpected URLs and hit no
// recoverable errors. A clean run produces no report files.
func (r *ScanResult) Clean() bool {
	return len(r.flat) == 0 && len(r.errs) == 0
}

// sortedKeys returns the keys of m in lexicographic order. Report output
// must never depend on map iteration order, so every view sorts explicitly.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
