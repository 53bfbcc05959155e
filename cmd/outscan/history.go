package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/outscan/outscan/internal/config"
	"github.com/outscan/outscan/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scan runs and compare their findings",
		Long: `History lists past scan runs recorded in the local database, newest first.
With --diff, it compares the unexpected-URL sets of two runs and reports
which URLs appeared and which were resolved between them.

Examples:
  # Show the last 20 runs
  outscan history

  # Show the last 5 runs
  outscan history --limit 5

  # Compare run 3 against run 7
  outscan history --diff 3,7`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringSlice("diff", nil, "Compare two run IDs: --diff OLD,NEW")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Scan database directory")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no scan history found in %s: %w", dbDir, err)
	}
	defer db.Close()

	diffArgs, err := cmd.Flags().GetStringSlice("diff")
	if err != nil {
		return err
	}
	if len(diffArgs) > 0 {
		return diffRuns(cmd, db, diffArgs)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return listRuns(cmd, db, limit)
}

// listRuns prints recorded runs, newest first.
func listRuns(cmd *cobra.Command, db *database.ScanDB, limit int) error {
	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list scan runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No scan runs recorded yet")
		return nil
	}

	fmt.Printf("%-6s %-30s %-8s %-20s %8s %10s %7s\n",
		"ID", "HOSTNAME", "BATCH", "STARTED", "PAGES", "UNEXPECTED", "ERRORS")
	for _, r := range runs {
		fmt.Printf("%-6d %-30s %-8s %-20s %8d %10d %7d\n",
			r.ID, r.Hostname, r.BatchLabel,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.PagesChecked, r.UnexpectedCount, r.ErrorCount)
	}
	return nil
}

// diffRuns compares the unexpected-URL sets of two recorded runs.
func diffRuns(cmd *cobra.Command, db *database.ScanDB, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("--diff requires exactly two run IDs, got %d", len(args))
	}

	ids := make([]int64, 2)
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", arg, err)
		}
		ids[i] = id
	}

	oldURLs, err := db.UnexpectedForRun(cmd.Context(), ids[0])
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", ids[0], err)
	}
	newURLs, err := db.UnexpectedForRun(cmd.Context(), ids[1])
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", ids[1], err)
	}

	appeared, resolved := database.Diff(oldURLs, newURLs)
	if len(appeared) == 0 && len(resolved) == 0 {
		fmt.Printf("Runs %d and %d found the same unexpected URLs\n", ids[0], ids[1])
		return nil
	}

	if len(appeared) > 0 {
		fmt.Printf("Appeared in run %d (%d):\n", ids[1], len(appeared))
		for _, u := range appeared {
			fmt.Printf("  + %s\n", u)
		}
	}
	if len(resolved) > 0 {
		fmt.Printf("Resolved since run %d (%d):\n", ids[0], len(resolved))
		for _, u := range resolved {
			fmt.Printf("  - %s\n", u)
		}
	}
	return nil
}
