package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/outscan/outscan/internal/model"
)

// ScanDB provides SQLite-based storage for scan run history.
type ScanDB struct {
	db     *sql.DB
	dbPath string
}

// Run is one recorded scan run.
type Run struct {
	// ID is the run's database identifier.
	ID int64

	// Hostname is the host the run scanned.
	Hostname string

	// BatchLabel identifies the batch within the run's scan.
	BatchLabel string

	// StartedAt is when the run began.
	StartedAt time.Time

	// PagesChecked is the number of pages fetched and extracted.
	PagesChecked int

	// UnexpectedCount is the number of distinct unexpected URLs found.
	UnexpectedCount int

	// ErrorCount is the number of recoverable errors hit.
	ErrorCount int
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB in the given directory.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, "outscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return sdb, nil
}

// Close closes the database connection.
func (s *ScanDB) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *ScanDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hostname TEXT NOT NULL,
		batch_label TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages_checked INTEGER NOT NULL,
		unexpected_count INTEGER NOT NULL,
		error_count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS unexpected_urls (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		page TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_unexpected_urls_run ON unexpected_urls(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_hostname ON runs(hostname);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveResult records a finalized scan result and returns the new run ID.
func (s *ScanDB) SaveResult(ctx context.Context, result *model.ScanResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (hostname, batch_label, started_at, finished_at, pages_checked, unexpected_count, error_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.Hostname,
		result.BatchLabel,
		result.StartedAt.Format(time.RFC3339),
		result.FinishedAt.Format(time.RFC3339),
		result.PagesChecked,
		result.UnexpectedCount(),
		len(result.Errors()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, u := range result.Unexpected() {
		for _, page := range result.PagesFor(u) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO unexpected_urls (run_id, url, page) VALUES (?, ?, ?)`,
				runID, u, page,
			); err != nil {
				return 0, fmt.Errorf("failed to insert unexpected URL: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *ScanDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hostname, batch_label, started_at, pages_checked, unexpected_count, error_count
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Hostname, &r.BatchLabel, &started, &r.PagesChecked, &r.UnexpectedCount, &r.ErrorCount); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// UnexpectedForRun returns the distinct unexpected URLs of one run, sorted.
func (s *ScanDB) UnexpectedForRun(ctx context.Context, runID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT url FROM unexpected_urls WHERE run_id = ? ORDER BY url`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unexpected URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan URL row: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Diff compares two sorted URL lists and returns what appeared in b but not
// a, and what disappeared from a.
func Diff(a, b []string) (appeared, resolved []string) {
	inA := make(map[string]bool, len(a))
	for _, u := range a {
		inA[u] = true
	}
	inB := make(map[string]bool, len(b))
	for _, u := range b {
		inB[u] = true
		if !inA[u] {
			appeared = append(appeared, u)
		}
	}
	for _, u := range a {
		if !inB[u] {
			resolved = append(resolved, u)
		}
	}
	return appeared, resolved
}
