// Package main provides the bm CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
	configPath  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bm",
	Short: "BibTeX bibliography manager",
	Long: `bm keeps a single, deduplicated, sorted BibTeX database.

Entries are merged from BibTeX files, Paperpile exports and ADS, with
duplicates detected by DOI, ISBN, ADS bibcode and arXiv eprint. The
database is stored as git-versionable JSONL under the bm home directory
(~/.bm, or BM_HOME), exported to bm.bib after every change, and indexed
in a disposable SQLite cache for full-text search.

The database is not locked: concurrent bm processes on the same home can
lose updates.

All commands output JSON by default; use --human for text.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yml (default $XDG_CONFIG_HOME/bm/config.yml)")
	rootCmd.Version = Version
}

// setup loads .env, the settings and the logger, and attaches them to the
// command context.
func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; ADS_TOKEN may come from the environment.
	_ = godotenv.Load()

	s, err := newSession(configPath, logLevel)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	cmd.SetContext(withSession(cmd.Context(), s))
	return nil
}
