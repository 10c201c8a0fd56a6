package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/search"
	"github.com/pcubillos/bibmanager-sub000/internal/storage"
)

var (
	searchLimit int
	searchFTS   bool
	searchCopy  bool
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().BoolVar(&searchFTS, "fts", false, "Full-text search on the SQLite index")
	searchCmd.Flags().BoolVar(&searchCopy, "copy", false, "Copy the matching keys to the clipboard, comma-separated")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the database",
	Long: `Search the database.

Query Syntax:
  author:"Last, F"   - Author (a leading ^ matches first author only)
  title:"word"       - Title substring, case-insensitive
  year:1984          - Exact year; also 1984-2004, -1984 and 1984-
  key:Key2000        - Citation key
  bibcode:2000Code   - ADS bibcode
  tags:tag           - Tag

Several terms of the same kind are ANDed (keys and bibcodes are ORed);
different kinds are always ANDed. With --fts the query is plain text
matched against titles, authors, keys and tags in the index.

Examples:
  bm search 'author:"^Payne, C" year:1925-1930'
  bm search 'title:"exoplanet" tags:atm'
  bm search --fts "hot jupiter"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	query := strings.Join(args, " ")

	if searchFTS {
		db := s.mustOpenDatabase()
		defer db.Close()
		hits, err := db.Search(query, searchLimit)
		if err != nil {
			exitWithError(ExitError, "searching: %v", err)
		}
		if hits == nil {
			hits = []storage.Hit{}
		}
		if searchCopy {
			var keys []string
			for _, h := range hits {
				keys = append(keys, h.Key)
			}
			copyKeys(s, keys)
		}
		if humanOutput {
			printHits(hits)
		} else {
			outputJSON(hits)
		}
		return nil
	}

	filters, err := search.ParseQuery(query)
	if err != nil {
		exitWithErr(err, "parsing query")
	}
	entries, _ := s.mustLoad()
	found, err := search.Search(entries, filters)
	if err != nil {
		exitWithErr(err, "searching")
	}
	if len(found) > searchLimit {
		found = found[:searchLimit]
	}
	if searchCopy {
		var keys []string
		for _, e := range found {
			keys = append(keys, e.Key)
		}
		copyKeys(s, keys)
	}

	if humanOutput {
		if len(found) == 0 {
			fmt.Println("No entries found")
			return nil
		}
		fmt.Printf("Found %d entries:\n\n", len(found))
		for i, e := range found {
			printEntrySummary(i+1, e)
		}
	} else {
		outputJSON(entryViews(found, false))
	}
	return nil
}

func printHits(hits []storage.Hit) {
	if len(hits) == 0 {
		fmt.Println("No entries found")
		return
	}
	fmt.Printf("Found %d entries:\n\n", len(hits))
	for i, h := range hits {
		fmt.Printf("[%d] %s\n", i+1, truncateString(h.String(), SearchTitleMaxLen+len(h.Key)))
		if h.Authors != "" {
			fmt.Printf("    %s\n", truncateString(h.Authors, SearchTitleMaxLen))
		}
	}
}
