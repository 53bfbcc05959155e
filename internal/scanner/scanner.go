package scanner

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/outscan/outscan/internal/extractor"
	"github.com/outscan/outscan/internal/fetcher"
	"github.com/outscan/outscan/internal/model"
)

// Scanner runs the per-page fetch-extract-classify loop for one batch.
//
// Pages fetch in parallel up to the configured concurrency (I/O bound), but
// every write to the shared ScanResult happens under one mutex: workers
// hand over completed per-page link lists, preserving the single-writer
// discipline. Page order never affects the final contents, only report row
// ordering, which the report builder sorts explicitly.
type Scanner struct {
	fetcher     *fetcher.Fetcher
	classifier  *Classifier
	concurrency int
	logger      *slog.Logger

	mu sync.Mutex
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConcurrency sets the number of parallel page fetches.
// Values below one fall back to sequential.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner.
func New(f *fetcher.Fetcher, c *Classifier, opts ...Option) *Scanner {
	s := &Scanner{
		fetcher:     f,
		classifier:  c,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run processes every page in the batch and accumulates into result.
// Fetch and extraction failures are recorded as recoverable errors; only
// context cancellation aborts the run early. Result is finalized on return.
func (s *Scanner) Run(ctx context.Context, pages []model.PageURL, result *model.ScanResult) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, page := range pages {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.checkPage(ctx, page, result)
			return nil
		})
	}

	err := g.Wait()
	result.Finalize()

	s.logger.Info("batch complete",
		"pages", result.PagesChecked,
		"unexpected", result.UnexpectedCount(),
		"errors", len(result.Errors()),
	)
	return err
}

// checkPage fetches one page, extracts its links, and classifies each.
func (s *Scanner) checkPage(ctx context.Context, page model.PageURL, result *model.ScanResult) {
	s.logger.Info("checking page", "url", page.URL)

	body, err := s.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		s.logger.Warn("fetch failed", "url", page.URL, "error", err)
		s.record(func() {
			result.AddError(model.ScanError{Kind: model.KindFetch, URL: page.URL, Message: err.Error()})
		})
		return
	}

	ext, err := extractor.New(page.URL)
	if err != nil {
		s.record(func() {
			result.AddError(model.ScanError{Kind: model.KindExtraction, URL: page.URL, Message: err.Error()})
		})
		return
	}

	links, err := ext.Extract(bytes.NewReader(body))
	if err != nil {
		// Partial extraction still counts; whatever links were found are
		// classified below.
		s.logger.Warn("extraction degraded", "url", page.URL, "error", err)
		s.record(func() {
			result.AddError(model.ScanError{Kind: model.KindExtraction, URL: page.URL, Message: err.Error()})
		})
	}

	s.record(func() {
		for _, link := range links {
			s.classifier.Classify(link, result)
		}
		result.PagesChecked++
	})
}

// record serializes accumulator writes across fetch workers.
func (s *Scanner) record(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
