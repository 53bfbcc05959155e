package main

import (
	"context"
	"strconv"
	"testing"

	"github.com/outscan/outscan/internal/database"
	"github.com/outscan/outscan/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history" {
			t.Errorf("expected use 'history', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != "20" {
			t.Errorf("expected default '20', got %q", flag.DefValue)
		}
	})

	t.Run("has diff flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("diff") == nil {
			t.Error("expected diff flag")
		}
	})

	t.Run("has db-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("db-dir") == nil {
			t.Error("expected db-dir flag")
		}
	})
}

// seedHistory writes one run into a fresh database directory and returns the
// directory and run ID.
func seedHistory(t *testing.T, urls ...string) (string, int64) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	result := model.NewScanResult("www.example.org", "all")
	for _, u := range urls {
		result.AddUnexpected(u, "https://www.example.org/about/")
	}
	result.Finalize()

	id, err := db.SaveResult(context.Background(), result)
	if err != nil {
		t.Fatalf("failed to save result: %v", err)
	}
	return dir, id
}

// TestRunHistoryCmd tests the history command execution.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists recorded runs", func(t *testing.T) {
		t.Parallel()
		dir, _ := seedHistory(t, "https://evil.example/track")

		cmd := NewHistoryCmd()
		cmd.SetArgs([]string{"--db-dir", dir})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing database is an error", func(t *testing.T) {
		t.Parallel()
		cmd := NewHistoryCmd()
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("diff requires exactly two run IDs", func(t *testing.T) {
		t.Parallel()
		dir, _ := seedHistory(t, "https://evil.example/track")

		cmd := NewHistoryCmd()
		cmd.SetArgs([]string{"--db-dir", dir, "--diff", "1"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for a single run ID")
		}
	})

	t.Run("diff rejects non-numeric run IDs", func(t *testing.T) {
		t.Parallel()
		dir, _ := seedHistory(t, "https://evil.example/track")

		cmd := NewHistoryCmd()
		cmd.SetArgs([]string{"--db-dir", dir, "--diff", "a,b"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for non-numeric run IDs")
		}
	})

	t.Run("diff of a run against itself succeeds", func(t *testing.T) {
		t.Parallel()
		dir, id := seedHistory(t, "https://evil.example/track")

		cmd := NewHistoryCmd()
		ref := strconv.FormatInt(id, 10)
		cmd.SetArgs([]string{"--db-dir", dir, "--diff", ref + "," + ref})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
