package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/importer"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

var (
	initBibfile string
	initForce   bool
)

func init() {
	initCmd.Flags().StringVar(&initBibfile, "bibfile", "", "Seed the database with the entries of a BibTeX file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reset an existing database")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the bm database",
	Long: `Initialize the bm database in the home directory (~/.bm, or BM_HOME).

Creates:
  ~/.bm/
  ├── bm.jsonl   # Database, one entry per line
  ├── bm.bib     # BibTeX export of the database
  ├── pdf/       # Attached PDF files
  └── cache/     # Query index (disposable)

With --bibfile the database starts with the entries of that file,
deduplicated and sorted. An existing database is only reset with --force.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)

	if config.IsInitialized(s.home) && !initForce {
		exitWithError(ExitError, "a bm database already exists at %s (use --force to reset it)", s.home)
	}
	if err := config.Init(s.home); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	var entries []*reference.Entry
	var warn bibtex.Warnings
	if initBibfile != "" {
		d, done := s.decider(false)
		defer done()
		var err error
		entries, warn, err = importer.ReadFile(initBibfile, importer.ParseOptions{
			Decider: d,
			PDFHome: config.PDFPath(s.home),
		})
		if err != nil {
			exitWithErr(err, "reading "+initBibfile)
		}
	}
	s.mustSave(entries)

	printWarnings(warn)
	if humanOutput {
		fmt.Printf("Initialized bm database in %s with %d entries\n", s.home, len(entries))
	} else {
		outputJSON(StatusResponse{
			Status:   "initialized",
			Path:     s.home,
			Entries:  len(entries),
			Warnings: warn,
		})
	}
	return nil
}
