package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/git"
)

var diffSince string

func init() {
	diffCmd.Flags().StringVar(&diffSince, "since", "HEAD", "Commit to compare against")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show entries changed since a git commit",
	Long: `Show entries added, removed or modified in bm.jsonl since a commit,
for a bm home kept under git.

Examples:
  bm diff                  # Uncommitted changes
  bm diff --since HEAD~5`,
	Args: cobra.NoArgs,
	RunE: runDiff,
}

// DiffResponse is the response for the diff command.
type DiffResponse struct {
	Since    string      `json:"since"`
	Added    []EntryView `json:"added"`
	Removed  []EntryView `json:"removed"`
	Modified []EntryView `json:"modified"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	entries, _ := s.mustLoad()

	d, err := git.DiffSince(config.StorePath(s.home), diffSince, entries)
	if err != nil {
		switch {
		case errors.Is(err, git.ErrNotGitRepo):
			exitWithError(ExitConfigError, "%s is not in a git repository", s.home)
		case errors.Is(err, git.ErrCommitNotFound):
			exitWithError(ExitError, "commit %q not found", diffSince)
		}
		exitWithErr(err, "comparing with "+diffSince)
	}

	if humanOutput {
		if d.IsEmpty() {
			fmt.Printf("No changes since %s\n", diffSince)
			return nil
		}
		for _, e := range d.Added {
			fmt.Printf("+ %s\n", e.Key)
		}
		for _, e := range d.Removed {
			fmt.Printf("- %s\n", e.Key)
		}
		for _, e := range d.Modified {
			fmt.Printf("~ %s\n", e.Key)
		}
		return nil
	}
	outputJSON(DiffResponse{
		Since:    diffSince,
		Added:    entryViews(d.Added, false),
		Removed:  entryViews(d.Removed, false),
		Modified: entryViews(d.Modified, false),
	})
	return nil
}
