package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
)

var (
	resolveDryRun bool
	resolveTake   string
)

func init() {
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Show proposed resolution without modifying files")
	resolveCmd.Flags().StringVar(&resolveTake, "take", "ask", "Policy for entries present on both sides (old, new, ask)")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve git merge conflicts in bm.jsonl",
	Long: `Resolve git merge conflicts in bm.jsonl with the merge rules of bm.

The clean lines and the HEAD side of every conflict region form the
existing collection; the incoming sides are merged into it exactly as
'bm merge' would, matching entries by DOI, ISBN, bibcode, eprint, key and
title.

Examples:
  bm resolve              # Resolve, asking about true conflicts
  bm resolve --take new   # Prefer the incoming side without asking
  bm resolve --dry-run    # Preview what would happen`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

// ResolveResult is the response for the resolve command.
type ResolveResult struct {
	Regions int `json:"regions"`
	MergeResponse
}

func runResolve(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	s.mustBeInitialized()
	policy, err := conflict.ParsePolicy(resolveTake)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	storePath := config.StorePath(s.home)
	f, err := os.Open(storePath)
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", config.StoreFile, err)
	}
	parsed, err := conflict.ParseMarkers(f, nil)
	f.Close()
	if err != nil {
		exitWithErr(err, "parsing "+config.StoreFile)
	}

	if !parsed.HasConflicts() {
		if humanOutput {
			fmt.Printf("No conflicts detected in %s.\n", config.StoreFile)
		} else {
			outputJSON(ResolveResult{MergeResponse: MergeResponse{
				Added: []string{}, Replaced: []string{}, Skipped: []string{},
				Total: len(parsed.Clean),
			}})
		}
		return nil
	}

	d, done := s.decider(false)
	defer done()
	res, err := conflict.Resolve(parsed, conflict.Options{Policy: policy, Decider: d})
	if err != nil {
		exitWithErr(err, "resolving")
	}
	if !resolveDryRun {
		s.mustSave(res.Entries)
	}
	s.log.Info("resolved conflicts", "regions", len(parsed.Regions), "entries", len(res.Entries))

	resp := newMergeResponse(res, resolveDryRun, nil)
	if humanOutput {
		fmt.Printf("Resolved %d conflict regions\n", len(parsed.Regions))
		printMergeResponse(resp)
		if !resolveDryRun {
			fmt.Printf("Resolved %s written to %s\n", config.StoreFile, storePath)
		}
	} else {
		outputJSON(ResolveResult{Regions: len(parsed.Regions), MergeResponse: resp})
	}
	return nil
}
