package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/export"
	"github.com/pcubillos/bibmanager-sub000/internal/storage"
)

var rebuildForce bool

func init() {
	rebuildCmd.Flags().BoolVar(&rebuildForce, "force", false, "Rebuild even when the database is unchanged")
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query index and bm.bib from the database",
	Long: `Rebuild the SQLite query index from bm.jsonl and export bm.bib again.

Use this after pulling the database from git or if the index is
corrupted. The index is skipped when bm.jsonl has not changed since it
was built, unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	s.mustBeInitialized()

	db, err := storage.OpenDB(config.DBPath(s.home))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	defer db.Close()

	count, rebuilt, err := db.RebuildFromJSONL(config.StorePath(s.home), rebuildForce)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}

	status := "unchanged"
	if rebuilt {
		status = "rebuilt"
		entries, _ := s.mustLoad()
		if _, err := export.WriteFile(config.BibPath(s.home), entries, true, time.Now()); err != nil {
			exitWithError(ExitError, "exporting %s: %v", config.BibFile, err)
		}
	}

	if humanOutput {
		fmt.Printf("Query index %s with %d entries\n", status, count)
	} else {
		outputJSON(RebuildResult{Status: status, Entries: count})
	}
	return nil
}
