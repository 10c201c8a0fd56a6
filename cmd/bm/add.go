package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/importer"
)

var addTake string

func init() {
	addCmd.Flags().StringVar(&addTake, "take", "new", "Policy for entries already in the database (old, new, ask)")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add BibTeX entries read from stdin",
	Long: `Add BibTeX entries read from standard input.

Unlike merge, the incoming entries are preferred by default, since they
were typed in on purpose. Questions are asked on the terminal.

Examples:
  pbpaste | bm add
  bm add --take ask < new.bib`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	s.mustBeInitialized()
	policy, err := conflict.ParsePolicy(addTake)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	d, done := s.decider(true)
	defer done()
	incoming, warn, err := importer.Read(os.Stdin, importer.ParseOptions{
		Decider: d,
		PDFHome: config.PDFPath(s.home),
	})
	if err != nil {
		exitWithErr(err, "reading stdin")
	}
	if len(incoming) == 0 {
		exitWithError(ExitDataError, "no BibTeX entries found on stdin")
	}

	resp := mergeIntoDatabase(s, incoming, policy, d, false)
	resp.Warnings = append(warn, resp.Warnings...)
	printMergeResponse(resp)
	return nil
}
