package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 50 // Default limit for search commands
	SearchTitleMaxLen  = 70 // Used in search result summaries
	MaxAuthorsShown    = 3
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitWithErr exits with the code exitCodeFor assigns to err.
func exitWithErr(err error, context string) {
	exitWithError(exitCodeFor(err), "%s: %v", context, err)
}

// printWarnings writes warnings to stderr in human mode. JSON output
// carries them in the response instead.
func printWarnings(warn bibtex.Warnings) {
	if !humanOutput {
		return
	}
	for _, w := range warn {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w.Message)
	}
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status   string          `json:"status"`
	Path     string          `json:"path,omitempty"`
	Entries  int             `json:"entries"`
	Warnings bibtex.Warnings `json:"warnings,omitempty"`
}

// EntryView is the JSON form of an entry.
type EntryView struct {
	Key     string   `json:"key"`
	Title   string   `json:"title,omitempty"`
	Authors string   `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	Bibcode string   `json:"bibcode,omitempty"`
	Eprint  string   `json:"eprint,omitempty"`
	PDF     string   `json:"pdf,omitempty"`
	Freeze  bool     `json:"freeze,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Content string   `json:"content,omitempty"`
}

func newEntryView(e *reference.Entry, withContent bool) EntryView {
	v := EntryView{
		Key:     e.Key,
		Title:   e.Title,
		Authors: bibtex.FormatAuthors(e.Authors, bibtex.StyleShort),
		Year:    e.Year,
		DOI:     e.DOI,
		Bibcode: e.Bibcode,
		Eprint:  e.Eprint,
		PDF:     e.PDF,
		Freeze:  e.Freeze,
		Tags:    e.Tags,
	}
	if withContent {
		v.Content = e.Content
	}
	return v
}

func entryViews(entries []*reference.Entry, withContent bool) []EntryView {
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(e, withContent))
	}
	return views
}

// printEntrySummary prints a numbered one-entry summary.
func printEntrySummary(num int, e *reference.Entry) {
	fmt.Printf("[%d] %s\n", num, e.Key)
	if e.Title != "" {
		fmt.Printf("    %s\n", truncateString(e.Title, SearchTitleMaxLen))
	}
	if len(e.Authors) > 0 {
		fmt.Printf("    %s\n", formatAuthorsShort(e.Authors, MaxAuthorsShown))
	}
	var extra []string
	if e.Year > 0 {
		extra = append(extra, fmt.Sprintf("%d", e.Year))
	}
	if e.Bibcode != "" {
		extra = append(extra, e.Bibcode)
	}
	if len(e.Tags) > 0 {
		extra = append(extra, "tags: "+strings.Join(e.Tags, " "))
	}
	if len(extra) > 0 {
		fmt.Printf("    (%s)\n", strings.Join(extra, ", "))
	}
	fmt.Println()
}

var stripBraces = strings.NewReplacer("{", "", "}", "")

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAuthorsShort formats authors as "Last F" with "et al." past maxCount.
func formatAuthorsShort(authors []bibtex.Name, maxCount int) string {
	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		name := stripBraces.Replace(a.Last)
		if initials := bibtex.Initials(a.First); initials != "" {
			name += " " + strings.ToUpper(initials)
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
