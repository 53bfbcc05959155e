package config

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the per-request timeout. Public sites answer fast;
	// anything slower than 30 seconds is treated as a fetch error for that
	// page rather than holding up the whole batch.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryLimit is the number of additional attempts after a failed
	// fetch. Transient CDN hiccups usually clear within a couple of retries.
	DefaultRetryLimit = 3

	// DefaultRetryWait is the pause between retry attempts.
	DefaultRetryWait = 4 * time.Second

	// DefaultMaxSitemapDepth caps sitemap-index recursion. Real sitemap
	// trees are one or two levels deep; the ceiling guards against
	// malformed or adversarial sitemap cycles.
	DefaultMaxSitemapDepth = 8

	// DefaultMaxRedirects bounds redirect following per request.
	DefaultMaxRedirects = 10

	// DefaultConcurrency is the number of parallel page fetches within one
	// batch. Batches already parallelize across CI jobs, so in-process
	// fetching defaults to sequential.
	DefaultConcurrency = 1

	// DefaultRequestsPerSecond is the politeness rate limit for page
	// fetches. Two requests per second keeps a full site scan well under
	// typical rate-limiting thresholds.
	DefaultRequestsPerSecond = 2

	// DefaultMaxBodySize limits how much of a response body is read.
	// 5MB is generous for HTML pages while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies outscan in HTTP requests so operators
	// can recognize scanner traffic in their logs.
	DefaultUserAgent = "outscan/1.0 (+https://github.com/outscan/outscan)"

	// DefaultOutputDir is where report artifacts and the exported page
	// cache are written, relative to the working directory.
	DefaultOutputDir = "output"

	// DefaultBatch treats all URLs as a single batch.
	DefaultBatch = "1/1"

	// AppName is used for XDG directory paths.
	AppName = "outscan"
)

// Environment variables honored when the corresponding flag is absent.
const (
	// EnvAllowlistPath supplies the allowlist path (--allowlist wins).
	EnvAllowlistPath = "ALLOWLIST_FILEPATH"

	// EnvExtraURLsPath supplies the extra-URLs file path
	// (--additional-urls-file wins).
	EnvExtraURLsPath = "EXTRA_URLS_FILEPATH"

	// EnvUserAgent supplies the User-Agent string (--user-agent wins).
	EnvUserAgent = "OUTSCAN_USER_AGENT"
)

// DefaultCacheablePathMarkers lists path segments that mark a page as
// cacheable. Only one locale's pages are cached to bound memory; the cache
// exists for the downstream geo-consistency check, which samples a single
// locale anyway.
var DefaultCacheablePathMarkers = []string{"/en-US/"}

// Config holds all options for one scan run. It is populated from CLI flags
// (with environment fallbacks) and passed explicitly through the call chain;
// nothing below the command layer reads environment state.
type Config struct {
	// SitemapURL is the root sitemap to resolve pages from.
	// Mutually exclusive with SpecificURLs.
	SitemapURL string

	// SpecificURLs bypasses sitemap resolution entirely and checks exactly
	// these pages.
	SpecificURLs []string

	// Batch selects which slice of the flattened page list to work on.
	Batch BatchSpec

	// AllowlistPath is the YAML allowlist file.
	AllowlistPath string

	// ExtraURLsPath is an optional YAML file of additional paths to check
	// (pages deliberately absent from the sitemap).
	ExtraURLsPath string

	// MaintainHostname keeps page hostnames exactly as the sitemap lists
	// them. When false, every resolved page URL is rewritten to the
	// hostname that served the sitemap, so a CDN can be tested even though
	// the sitemap lists origin-server URLs (or vice versa).
	MaintainHostname bool

	// ExportCache dumps cached page bodies to the output directory for
	// other checks to consume.
	ExportCache bool

	// OutputDir is the report artifact directory.
	OutputDir string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// Concurrency is the number of parallel page fetches within the batch.
	Concurrency int

	// RequestsPerSecond caps the fetch rate. Zero disables rate limiting.
	RequestsPerSecond float64

	// RetryLimit is the number of retries after a failed fetch.
	RetryLimit int

	// RetryWait is the pause between retries.
	RetryWait time.Duration

	// MaxSitemapDepth caps sitemap-index recursion.
	MaxSitemapDepth int

	// MaxRedirects bounds redirect following per request.
	MaxRedirects int

	// MaxBodySize limits how much of a response body is read.
	MaxBodySize int64

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// SaveHistory records the completed run in the scan database.
	SaveHistory bool

	// DBDir is the scan database directory.
	DBDir string

	// CacheablePathMarkers selects which pages the in-memory cache keeps.
	CacheablePathMarkers []string
}

// NewConfig returns a Config with all defaults applied.
func NewConfig() *Config {
	return &Config{
		Timeout:              DefaultTimeout,
		UserAgent:            DefaultUserAgent,
		Concurrency:          DefaultConcurrency,
		RequestsPerSecond:    DefaultRequestsPerSecond,
		RetryLimit:           DefaultRetryLimit,
		RetryWait:            DefaultRetryWait,
		MaxSitemapDepth:      DefaultMaxSitemapDepth,
		MaxRedirects:         DefaultMaxRedirects,
		MaxBodySize:          DefaultMaxBodySize,
		OutputDir:            DefaultOutputDir,
		SaveHistory:          true,
		DBDir:                XDGDataDir(),
		CacheablePathMarkers: DefaultCacheablePathMarkers,
	}
}

// Hostname returns the host the scan runs against: the sitemap's host, or
// the first specific URL's host when sitemap resolution is bypassed.
func (c *Config) Hostname() string {
	raw := c.SitemapURL
	if raw == "" && len(c.SpecificURLs) > 0 {
		raw = c.SpecificURLs[0]
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// Validate checks the configuration and returns the first problem found.
// It runs once after flag parsing, before any network I/O, so configuration
// errors abort the run before a single fetch happens.
func (c *Config) Validate() error {
	if c.SitemapURL == "" && len(c.SpecificURLs) == 0 {
		return ErrNoInput
	}
	if c.SitemapURL != "" && len(c.SpecificURLs) > 0 {
		return ErrConflictingInputs
	}
	if c.AllowlistPath == "" {
		return ErrNoAllowlist
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RetryLimit < 0 {
		return ErrInvalidRetryLimit
	}
	if c.MaxSitemapDepth <= 0 {
		return ErrInvalidSitemapDepth
	}
	if err := c.Batch.validate(); err != nil {
		return err
	}
	return nil
}

// Getenv returns the value of the named environment variable, or fallback
// when it is unset or empty.
func Getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// XDGDataDir returns the XDG data directory for outscan.
// On Linux: ~/.local/share/outscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for outscan.
// On Linux: ~/.cache/outscan
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}
