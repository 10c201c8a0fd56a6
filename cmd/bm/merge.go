package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/importer"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

var (
	mergeTake   string
	mergeFormat string
	mergeDryRun bool
)

func init() {
	mergeCmd.Flags().StringVar(&mergeTake, "take", "old", "Policy for entries already in the database (old, new, ask)")
	mergeCmd.Flags().StringVar(&mergeFormat, "format", "", "Input format (bibtex, paperpile); guessed from the extension when empty")
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Show what would change without writing")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <file>",
	Short: "Merge a BibTeX file or Paperpile export into the database",
	Long: `Merge the entries of a file into the database.

Entries matching an existing one by DOI, ISBN, bibcode or eprint replace
it when they are a better published version (--take old), always
(--take new), or after asking when their keys differ (--take ask). Key and
title collisions are asked about on the terminal.

Examples:
  bm merge refs.bib
  bm merge refs.bib --take new
  bm merge paperpile.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

// MergeResponse is the response for merge and add.
type MergeResponse struct {
	Added    []string          `json:"added"`
	Replaced []string          `json:"replaced"`
	Renamed  map[string]string `json:"renamed,omitempty"`
	Skipped  []string          `json:"skipped"`
	Total    int               `json:"total"`
	DryRun   bool              `json:"dry_run,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings bibtex.Warnings   `json:"warnings,omitempty"`
}

func runMerge(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	s.mustBeInitialized()
	policy, err := conflict.ParsePolicy(mergeTake)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	path := args[0]
	format, err := inputFormat(path, mergeFormat)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	d, done := s.decider(false)
	defer done()
	var incoming []*reference.Entry
	var warn bibtex.Warnings
	var parseErrors []string
	switch format {
	case "paperpile":
		data, err := os.ReadFile(path)
		if err != nil {
			exitWithError(ExitError, "reading file: %v", err)
		}
		var errs []error
		incoming, errs = importer.ParsePaperpile(data)
		for _, e := range errs {
			parseErrors = append(parseErrors, e.Error())
		}
		if len(incoming) == 0 && len(errs) > 0 {
			exitWithError(ExitDataError, "failed to parse any references:\n  - %s", strings.Join(parseErrors, "\n  - "))
		}
	default:
		incoming, warn, err = importer.ReadFile(path, importer.ParseOptions{
			Decider: d,
			PDFHome: config.PDFPath(s.home),
		})
		if err != nil {
			exitWithErr(err, "reading "+path)
		}
	}

	resp := mergeIntoDatabase(s, incoming, policy, d, mergeDryRun)
	resp.Errors = parseErrors
	resp.Warnings = append(warn, resp.Warnings...)
	printMergeResponse(resp)
	return nil
}

// inputFormat resolves the --format flag, guessing from the extension.
func inputFormat(path, format string) (string, error) {
	switch format {
	case "bibtex", "paperpile":
		return format, nil
	case "":
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return "paperpile", nil
		}
		return "bibtex", nil
	}
	return "", fmt.Errorf("unknown format %q (valid: bibtex, paperpile)", format)
}

// mergeIntoDatabase merges incoming into the stored collection and saves
// the result unless dryRun is set.
func mergeIntoDatabase(s *session, incoming []*reference.Entry, policy conflict.Policy, d conflict.Decider, dryRun bool) MergeResponse {
	existing, warn := s.mustLoad()
	res, err := conflict.Merge(existing, incoming, conflict.Options{Policy: policy, Decider: d})
	if err != nil {
		exitWithErr(err, "merging")
	}
	if !dryRun {
		s.mustSave(res.Entries)
	}
	s.log.Info("merged", "added", len(res.Added), "replaced", len(res.Replaced), "skipped", len(res.Skipped))
	return newMergeResponse(res, dryRun, warn)
}

func newMergeResponse(res conflict.Result, dryRun bool, warn bibtex.Warnings) MergeResponse {
	resp := MergeResponse{
		Added:    nonNil(res.Added),
		Replaced: nonNil(res.Replaced),
		Skipped:  nonNil(res.Skipped),
		Total:    len(res.Entries),
		DryRun:   dryRun,
		Warnings: warn,
	}
	if len(res.Renamed) > 0 {
		resp.Renamed = res.Renamed
	}
	return resp
}

func printMergeResponse(resp MergeResponse) {
	printWarnings(resp.Warnings)
	if !humanOutput {
		outputJSON(resp)
		return
	}
	for _, e := range resp.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", e)
	}
	prefix := ""
	if resp.DryRun {
		prefix = "[dry run] "
	}
	fmt.Printf("%sAdded %d, replaced %d, skipped %d entries (%d in database)\n",
		prefix, len(resp.Added), len(resp.Replaced), len(resp.Skipped), resp.Total)
	for old, key := range resp.Renamed {
		fmt.Printf("  renamed %s -> %s\n", old, key)
	}
}

// nonNil keeps empty lists as [] in JSON output.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
