package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/search"
)

var (
	findBibcode string
	findMeta    bool
	findCopy    bool
)

func init() {
	findCmd.Flags().StringVar(&findBibcode, "bibcode", "", "Find by ADS bibcode instead of key")
	findCmd.Flags().BoolVar(&findMeta, "meta", false, "Show the freeze, pdf and tags lines (human output)")
	findCmd.Flags().BoolVar(&findCopy, "copy", false, "Copy the key to the clipboard")
	rootCmd.AddCommand(findCmd)
}

var findCmd = &cobra.Command{
	Use:   "find [key]",
	Short: "Show one entry by key or bibcode",
	Long: `Show one entry by citation key or ADS bibcode.

Examples:
  bm find Hunter2007ieeeMatplotlib
  bm find --bibcode 2016Natur.529...59S --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFind,
}

func runFind(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	var key string
	if len(args) == 1 {
		key = args[0]
	}

	entries, _ := s.mustLoad()
	e, err := search.Find(entries, key, findBibcode)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if findCopy {
		copyKeys(s, []string{e.Key})
	}

	if humanOutput {
		if findMeta {
			fmt.Print(e.Meta())
		}
		fmt.Println(e.Content)
	} else {
		outputJSON(newEntryView(e, true))
	}
	return nil
}
