package database

import (
	"context"
	"reflect"
	"testing"

	"github.com/outscan/outscan/internal/model"
)

// openTestDB creates a ScanDB in a temporary directory.
func openTestDB(t *testing.T) *ScanDB {
	t.Helper()
	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// saveSample records one run carrying the given unexpected URLs.
func saveSample(t *testing.T, db *ScanDB, urls ...string) int64 {
	t.Helper()
	result := model.NewScanResult("www.example.org", "all")
	for _, u := range urls {
		result.AddUnexpected(u, "https://www.example.org/about/")
	}
	result.PagesChecked = 10
	result.Finalize()

	id, err := db.SaveResult(context.Background(), result)
	if err != nil {
		t.Fatalf("failed to save result: %v", err)
	}
	return id
}

// TestOpen verifies database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates the database file by default", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		if db == nil {
			t.Fatal("expected a database")
		}
	})

	t.Run("refuses a missing database when creation is off", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})
}

// TestSaveAndListRuns verifies run persistence and newest-first listing.
func TestSaveAndListRuns(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	first := saveSample(t, db, "https://evil.example/one")
	second := saveSample(t, db, "https://evil.example/one", "https://evil.example/two")

	runs, err := db.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest-first ordering, got IDs %d, %d", runs[0].ID, runs[1].ID)
	}
	if runs[0].Hostname != "www.example.org" {
		t.Errorf("unexpected hostname %q", runs[0].Hostname)
	}
	if runs[0].UnexpectedCount != 2 {
		t.Errorf("expected 2 unexpected URLs in the second run, got %d", runs[0].UnexpectedCount)
	}
	if runs[0].PagesChecked != 10 {
		t.Errorf("expected 10 pages checked, got %d", runs[0].PagesChecked)
	}
	if runs[0].StartedAt.IsZero() {
		t.Error("expected StartedAt to round-trip")
	}

	t.Run("limit caps the listing", func(t *testing.T) {
		limited, err := db.ListRuns(context.Background(), 1)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 1 || limited[0].ID != second {
			t.Errorf("expected only the newest run, got %v", limited)
		}
	})
}

// TestUnexpectedForRun verifies per-run URL retrieval, distinct and sorted.
func TestUnexpectedForRun(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	result := model.NewScanResult("www.example.org", "all")
	result.AddUnexpected("https://evil.example/b", "https://www.example.org/p1/")
	result.AddUnexpected("https://evil.example/b", "https://www.example.org/p2/")
	result.AddUnexpected("https://evil.example/a", "https://www.example.org/p1/")
	result.Finalize()

	id, err := db.SaveResult(context.Background(), result)
	if err != nil {
		t.Fatalf("failed to save result: %v", err)
	}

	urls, err := db.UnexpectedForRun(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load URLs: %v", err)
	}
	want := []string{"https://evil.example/a", "https://evil.example/b"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("UnexpectedForRun = %v, want %v", urls, want)
	}
}

// TestDiff verifies the appeared/resolved comparison between two runs.
func TestDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		a, b         []string
		wantAppeared []string
		wantResolved []string
	}{
		{
			name: "no change",
			a:    []string{"https://x.example/"},
			b:    []string{"https://x.example/"},
		},
		{
			name:         "new finding appears",
			a:            []string{"https://x.example/"},
			b:            []string{"https://x.example/", "https://y.example/"},
			wantAppeared: []string{"https://y.example/"},
		},
		{
			name:         "old finding resolves",
			a:            []string{"https://x.example/", "https://y.example/"},
			b:            []string{"https://x.example/"},
			wantResolved: []string{"https://y.example/"},
		},
		{
			name:         "full turnover",
			a:            []string{"https://old.example/"},
			b:            []string{"https://new.example/"},
			wantAppeared: []string{"https://new.example/"},
			wantResolved: []string{"https://old.example/"},
		},
		{
			name: "both empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			appeared, resolved := Diff(tt.a, tt.b)
			if !reflect.DeepEqual(appeared, tt.wantAppeared) {
				t.Errorf("appeared = %v, want %v", appeared, tt.wantAppeared)
			}
			if !reflect.DeepEqual(resolved, tt.wantResolved) {
				t.Errorf("resolved = %v, want %v", resolved, tt.wantResolved)
			}
		})
	}
}
