package config

import "errors"

// Configuration validation errors. These are fatal: the run aborts before
// any fetch. We use package-level sentinel errors so callers can match with
// errors.Is while still getting a readable message.
var (
	// ErrNoInput is returned when neither a sitemap URL nor specific URLs
	// are supplied; there is nothing to scan.
	ErrNoInput = errors.New("no sitemap or input URLs specified: cannot proceed")

	// ErrConflictingInputs is returned when both --sitemap-url and
	// --specific-url are supplied; the two input modes are mutually
	// exclusive.
	ErrConflictingInputs = errors.New("conflicting inputs: --sitemap-url and --specific-url cannot be used together")

	// ErrNoAllowlist is returned when no allowlist path is supplied via
	// flag or the ALLOWLIST_FILEPATH environment variable.
	ErrNoAllowlist = errors.New("no allowlist specified: use --allowlist or set ALLOWLIST_FILEPATH")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not
	// positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRetryLimit is returned when the retry limit is negative.
	ErrInvalidRetryLimit = errors.New("invalid retry limit: must be non-negative")

	// ErrInvalidSitemapDepth is returned when the sitemap recursion ceiling
	// is not positive.
	ErrInvalidSitemapDepth = errors.New("invalid sitemap depth: must be positive")

	// ErrInvalidBatch is returned when the batch spec is malformed or the
	// chunk number falls outside 1..total.
	ErrInvalidBatch = errors.New("invalid batch: format is {chunk}/{total} with 1 <= chunk <= total")
)
