// Package main provides the entry point for the outscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for outscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outscan",
		Short: "Detect unexpected outbound URLs on a website",
		Long: `outscan crawls a site's sitemap tree, extracts every outbound hyperlink
from every discovered page, and classifies each URL against an allowlist of
accepted literals and regex patterns. URLs that match no rule are reported,
mapped back to the pages that reference them.

A scan that finds violations still exits 0; the report files are the signal.
Only configuration errors abort the run.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	// A .env in the working directory supplies ALLOWLIST_FILEPATH and
	// friends during local development; absence is not an error.
	_ = godotenv.Load() //nolint:errcheck // Optional file

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
