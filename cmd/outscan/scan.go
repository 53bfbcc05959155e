package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/outscan/outscan/internal/allowlist"
	"github.com/outscan/outscan/internal/config"
	"github.com/outscan/outscan/internal/database"
	"github.com/outscan/outscan/internal/fetcher"
	"github.com/outscan/outscan/internal/log"
	"github.com/outscan/outscan/internal/model"
	"github.com/outscan/outscan/internal/report"
	"github.com/outscan/outscan/internal/scanner"
	"github.com/outscan/outscan/internal/sitemap"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a site's pages for unexpected outbound URLs",
		Long: `Scan resolves an XML sitemap tree (or takes specific URLs), fetches every
page, extracts outbound hyperlinks, and classifies each against the
allowlist. URLs matching no rule are written to report files:

  - a flat deduplicated list of unexpected URLs
  - a nested list mapping each URL to the pages referencing it
  - a page-keyed JSON document for the allowlist-update workflow
  - a Markdown summary including the scan error log

Examples:
  # Scan a full site via its sitemap
  outscan scan --sitemap-url https://www.example.org/sitemap.xml --allowlist allowlist.yaml

  # Scan the second of four batches
  outscan scan --sitemap-url https://www.example.org/sitemap.xml --allowlist allowlist.yaml --batch 2/4

  # Check one page only
  outscan scan --specific-url https://www.example.org/about --allowlist allowlist.yaml

  # Test an origin server whose sitemap lists CDN URLs
  outscan scan --sitemap-url https://origin.example.org/sitemap.xml --allowlist allowlist.yaml

  # Keep hostnames exactly as the sitemap lists them
  outscan scan --sitemap-url https://origin.example.org/sitemap.xml --allowlist allowlist.yaml --maintain-hostname`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Input source flags
	cmd.Flags().StringP("sitemap-url", "s", "",
		"URL of an XML sitemap to use as source data")
	cmd.Flags().StringSliceP("specific-url", "u", nil,
		"Specific URL/page to check (repeatable, mutually exclusive with --sitemap-url)")
	cmd.Flags().StringP("batch", "b", config.DefaultBatch,
		"Work on one slice of the page list; format is {chunk}/{total} or {chunk}:{total}")

	// Configuration files
	cmd.Flags().StringP("allowlist", "a", "",
		"Path to the YAML allowlist (default: $"+config.EnvAllowlistPath+")")
	cmd.Flags().String("additional-urls-file", "",
		"Path to a YAML list of additional URLs to check (default: $"+config.EnvExtraURLsPath+")")

	// Scan behavior flags
	cmd.Flags().Bool("maintain-hostname", false,
		"Keep page hostnames exactly as the sitemap lists them instead of rewriting them to the sitemap's host")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().String("user-agent", "",
		"User-Agent header for HTTP requests (default: $"+config.EnvUserAgent+" or built-in)")
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of parallel page fetches within the batch")
	cmd.Flags().Int("max-sitemap-depth", config.DefaultMaxSitemapDepth,
		"Maximum sitemap-index nesting depth")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory for report artifacts")
	cmd.Flags().Bool("export-cache", false,
		"Dump fetched pages to the output directory for other checks to use")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the scan history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags, applying
// environment fallbacks only where the flag is absent.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.SitemapURL, err = cmd.Flags().GetString("sitemap-url")
	if err != nil {
		return nil, err
	}
	cfg.SpecificURLs, err = cmd.Flags().GetStringSlice("specific-url")
	if err != nil {
		return nil, err
	}

	batchSpec, err := cmd.Flags().GetString("batch")
	if err != nil {
		return nil, err
	}
	cfg.Batch, err = config.ParseBatch(batchSpec)
	if err != nil {
		return nil, err
	}

	cfg.AllowlistPath, err = cmd.Flags().GetString("allowlist")
	if err != nil {
		return nil, err
	}
	if cfg.AllowlistPath == "" {
		cfg.AllowlistPath = config.Getenv(config.EnvAllowlistPath, "")
	}

	cfg.ExtraURLsPath, err = cmd.Flags().GetString("additional-urls-file")
	if err != nil {
		return nil, err
	}
	if cfg.ExtraURLsPath == "" {
		cfg.ExtraURLsPath = config.Getenv(config.EnvExtraURLsPath, "")
	}

	cfg.MaintainHostname, err = cmd.Flags().GetBool("maintain-hostname")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.Getenv(config.EnvUserAgent, config.DefaultUserAgent)
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	cfg.MaxSitemapDepth, err = cmd.Flags().GetInt("max-sitemap-depth")
	if err != nil {
		return nil, err
	}
	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.ExportCache, err = cmd.Flags().GetBool("export-cache")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity. All handlers
// are wrapped so credentials embedded in logged URLs never reach CI logs.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(log.NewRedactHandler(handler))
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	hostname := cfg.Hostname()
	if hostname == "" {
		return fmt.Errorf("configuration error: could not determine hostname from inputs")
	}

	logger.Info("starting scan",
		"hostname", hostname,
		"batch", cfg.Batch.String(),
		"maintainHostname", cfg.MaintainHostname,
	)

	// Load the allowlist up front; a broken allowlist aborts before any fetch.
	allowOpts := []allowlist.Option{}
	if cfg.MaintainHostname {
		allowOpts = append(allowOpts, allowlist.WithoutHostScope())
	}
	allow, err := allowlist.Load(cfg.AllowlistPath, hostname, allowOpts...)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if allow.Empty() {
		logger.Warn("no allowlist rules for hostname, treating all outbound URLs as unexpected",
			"hostname", hostname,
			"path", cfg.AllowlistPath,
		)
	}

	cache := fetcher.NewCache(cfg.CacheablePathMarkers...)
	fetch := fetcher.New(
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithRateLimit(cfg.RequestsPerSecond),
		fetcher.WithRetry(cfg.RetryLimit, cfg.RetryWait),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithMaxRedirects(cfg.MaxRedirects),
		fetcher.WithCache(cache),
		fetcher.WithLogger(logger),
	)

	result := model.NewScanResult(hostname, cfg.Batch.Label())

	pages, err := collectPages(ctx, cfg, fetch, logger, result)
	if err != nil {
		return err
	}
	logger.Info("discovered URLs to check", "count", len(pages))

	batch := sitemap.Partition(pages, cfg.Batch)
	if !cfg.Batch.IsNoop() {
		logger.Info("working on batch", "batch", cfg.Batch.String(), "pages", len(batch))
	}

	scan := scanner.New(fetch, scanner.NewClassifier(allow),
		scanner.WithConcurrency(cfg.Concurrency),
		scanner.WithLogger(logger),
	)
	if err := scan.Run(ctx, batch, result); err != nil {
		return err
	}

	if err := emitReport(cfg, result, logger); err != nil {
		return err
	}

	if cfg.ExportCache {
		dir := filepath.Join(cfg.OutputDir, "page_cache")
		count, err := cache.Export(dir)
		if err != nil {
			return fmt.Errorf("failed to export page cache: %w", err)
		}
		logger.Info("page cache exported", "files", count, "dir", dir)
	}

	if cfg.SaveHistory {
		saveHistory(ctx, cfg, result, logger)
	}

	return nil
}

// collectPages assembles the page list: sitemap resolution or specific
// URLs, plus any extra-URLs file. Resolution errors land in result.
func collectPages(ctx context.Context, cfg *config.Config, fetch *fetcher.Fetcher, logger *slog.Logger, result *model.ScanResult) ([]model.PageURL, error) {
	var pages []model.PageURL

	if cfg.SitemapURL != "" {
		resolver := sitemap.NewResolver(fetch,
			sitemap.WithMaxDepth(cfg.MaxSitemapDepth),
			sitemap.WithMaintainHostname(cfg.MaintainHostname),
			sitemap.WithLogger(logger),
		)
		resolved, resErrs, err := resolver.Resolve(ctx, cfg.SitemapURL)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		for _, e := range resErrs {
			result.AddError(e)
		}
		pages = resolved
	} else {
		for _, u := range cfg.SpecificURLs {
			pages = append(pages, model.PageURL{URL: u})
		}
	}

	if cfg.ExtraURLsPath != "" {
		extras, err := config.LoadExtraURLs(cfg.ExtraURLsPath, result.Hostname)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		logger.Info("added extra URLs", "count", len(extras), "path", cfg.ExtraURLsPath)
		for _, u := range extras {
			pages = append(pages, model.PageURL{URL: u})
		}
	}

	return pages, nil
}

// emitReport writes the artifact files and prints the run outcome.
func emitReport(cfg *config.Config, result *model.ScanResult, logger *slog.Logger) error {
	builder := report.NewBuilder(cfg.OutputDir)
	paths, err := builder.Build(result)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	switch {
	case result.Clean():
		fmt.Println("Checks completed and no unexpected outbound URLs found")
	case result.UnexpectedCount() > 0:
		fmt.Printf("Unexpected outbound URLs found on %s!\n", result.Hostname)
	default:
		fmt.Printf("No unexpected outbound URLs, but %d pages could not be fully scanned\n", len(result.Errors()))
	}
	for _, p := range paths {
		logger.Info("report artifact written", "path", p)
	}
	return nil
}

// saveHistory records the run in the scan database. History is best
// effort: failures are logged, never fatal to a completed scan.
func saveHistory(ctx context.Context, cfg *config.Config, result *model.ScanResult, logger *slog.Logger) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Error("failed to open scan database", "dir", cfg.DBDir, "error", err)
		return
	}
	defer db.Close()

	start := time.Now()
	runID, err := db.SaveResult(ctx, result)
	if err != nil {
		logger.Error("failed to save scan history", "error", err)
		return
	}
	logger.Info("scan history saved", "runID", runID, "elapsed", time.Since(start).Round(time.Millisecond))
}
