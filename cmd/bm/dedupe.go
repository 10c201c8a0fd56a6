package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

var dedupeDryRun bool

func init() {
	dedupeCmd.Flags().BoolVar(&dedupeDryRun, "dry-run", false, "Show what would be removed without writing")
	rootCmd.AddCommand(dedupeCmd)
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate entries from the database",
	Long: `Remove entries sharing a DOI, ISBN, ADS bibcode or arXiv eprint.

Of each group the best published entry is kept; ties are asked about on
the terminal.`,
	Args: cobra.NoArgs,
	RunE: runDedupe,
}

// DedupeResponse is the response for the dedupe command.
type DedupeResponse struct {
	Removed map[string]string `json:"removed"` // Removed key -> surviving key
	Total   int               `json:"total"`
	DryRun  bool              `json:"dry_run,omitempty"`
}

func runDedupe(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	entries, _ := s.mustLoad()

	d, done := s.decider(false)
	defer done()
	kept, removed, err := dedupeAll(entries, d)
	if err != nil {
		exitWithErr(err, "removing duplicates")
	}
	if !dedupeDryRun && len(removed) > 0 {
		s.mustSave(kept)
	}

	if humanOutput {
		if len(removed) == 0 {
			fmt.Println("No duplicates found")
			return nil
		}
		for old, key := range removed {
			fmt.Printf("  %s -> %s\n", old, key)
		}
		fmt.Printf("Removed %d duplicates (%d entries left)\n", len(removed), len(kept))
	} else {
		outputJSON(DedupeResponse{Removed: removed, Total: len(kept), DryRun: dedupeDryRun})
	}
	return nil
}

// dedupeAll removes duplicates on every identifier in turn and collects
// the removed keys.
func dedupeAll(entries []*reference.Entry, d conflict.Decider) ([]*reference.Entry, map[string]string, error) {
	removed := make(map[string]string)
	for _, field := range reference.IDFields {
		var gone map[string]string
		var err error
		entries, gone, err = conflict.RemoveDuplicates(entries, field, d)
		if err != nil {
			return nil, nil, err
		}
		for old, key := range gone {
			removed[old] = key
		}
	}
	return entries, removed, nil
}
