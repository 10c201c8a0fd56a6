package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/export"
	"github.com/pcubillos/bibmanager-sub000/internal/search"
)

var (
	exportMeta  bool
	exportQuery string
)

func init() {
	exportCmd.Flags().BoolVar(&exportMeta, "meta", false, "Include the freeze, pdf and tags lines")
	exportCmd.Flags().StringVar(&exportQuery, "query", "", "Export only entries matching a search query")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the database to a BibTeX file",
	Long: `Export the database to a BibTeX file.

A file not created by bm is backed up to orig_<date>_<name> next to it
before being overwritten.

Examples:
  bm export refs.bib
  bm export refs.bib --meta
  bm export atm.bib --query "tags:atm"`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

// ExportResponse is the response for the export command.
type ExportResponse struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Backup  string `json:"backup,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	entries, _ := s.mustLoad()

	if exportQuery != "" {
		filters, err := search.ParseQuery(exportQuery)
		if err != nil {
			exitWithErr(err, "parsing query")
		}
		if entries, err = search.Search(entries, filters); err != nil {
			exitWithErr(err, "searching")
		}
	}

	path := args[0]
	backup, err := export.WriteFile(path, entries, exportMeta, time.Now())
	if err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}

	if humanOutput {
		if backup != "" {
			fmt.Printf("Existing file backed up to %s\n", backup)
		}
		fmt.Printf("Exported %d entries to %s\n", len(entries), path)
	} else {
		outputJSON(ExportResponse{Status: "exported", Path: path, Entries: len(entries), Backup: backup})
	}
	return nil
}
