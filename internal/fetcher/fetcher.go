package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// StatusError is returned when a page responds with a non-success status.
// Any non-2xx status is a fetch error for that page, recorded but not fatal
// to the run.
type StatusError struct {
	// URL is the page that failed.
	URL string

	// StatusCode is the HTTP status received.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Fetcher retrieves page bodies over HTTP.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	limiter     *rate.Limiter
	retryLimit  int
	retryWait   time.Duration
	maxBodySize int64
	cache       *Cache
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRateLimit caps requests per second. Zero or negative disables the
// limiter.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			f.limiter = nil
		}
	}
}

// WithRetry sets the number of retries after a failed fetch and the wait
// between attempts.
func WithRetry(limit int, wait time.Duration) Option {
	return func(f *Fetcher) {
		f.retryLimit = limit
		f.retryWait = wait
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithMaxRedirects bounds redirect following per request.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= n {
				return fmt.Errorf("stopped after %d redirects", n)
			}
			return nil
		}
	}
}

// WithCache attaches a page cache. Cacheable bodies are stored on fetch and
// served from the cache on repeat requests.
func WithCache(c *Cache) Option {
	return func(f *Fetcher) {
		f.cache = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with sane defaults: 30 second timeout, 10 redirect
// ceiling, no retries, no rate limit, no cache.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent:   "outscan/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}
	WithMaxRedirects(10)(f)

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch retrieves the body at pageURL, consulting the cache first. Failed
// attempts are retried up to the configured limit with a wait in between;
// context cancellation aborts both the wait and the request.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(pageURL); ok {
			f.logger.Debug("serving from cache", "url", pageURL)
			return body, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= f.retryLimit; attempt++ {
		if attempt > 0 {
			f.logger.Debug("waiting before retry",
				"url", pageURL,
				"attempt", attempt,
				"wait", f.retryWait,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryWait):
			}
		}

		body, err := f.get(ctx, pageURL)
		if err == nil {
			if f.cache != nil {
				f.cache.Put(pageURL, body)
			}
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	f.logger.Warn("max retries reached", "url", pageURL, "error", lastErr)
	return nil, lastErr
}

// get performs a single GET attempt.
func (f *Fetcher) get(ctx context.Context, pageURL string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	f.logger.Debug("pulling down", "url", pageURL)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}
	return body, nil
}
