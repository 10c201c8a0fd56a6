// Package author provides author name matching for search queries.
package author

import (
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
)

// Query represents a parsed author search query. Name parts are stored in
// their normalized comparison form.
type Query struct {
	Last      string // Purified last name (required)
	First     string // Initials of the first name (may be empty)
	Von       string // Purified von part (may be empty)
	Jr        string // Purified jr part (may be empty)
	FirstOnly bool   // Match only against the first author
}

// ParseQuery parses an author search string into a structured Query.
//
// Any BibTeX name form is accepted:
//   - "Doe"          → last="doe"
//   - "John Doe"     → first="j", last="doe"
//   - "Doe, J."      → first="j", last="doe"
//   - "^Doe"         → last="doe", first author only
//
// Matching is accent- and case-insensitive, and first names compare by
// initials, so "Doe, J" matches "{Doe}, John K.".
func ParseQuery(input string) (Query, error) {
	input = strings.TrimSpace(input)
	var q Query
	if rest, ok := strings.CutPrefix(input, "^"); ok {
		q.FirstOnly = true
		input = rest
	}
	name, err := bibtex.ParseName(input, nil, "", nil)
	if err != nil {
		return Query{}, err
	}
	q.Last = bibtex.Purify(name.Last, false)
	q.First = bibtex.Initials(name.First)
	q.Von = bibtex.Purify(name.Von, false)
	q.Jr = bibtex.Purify(name.Jr, false)
	return q, nil
}

// Matches checks if the query matches a given author.
//
// Matching rules:
//   - Last name: exact match after normalization (required)
//   - Von and Jr: exact match, only if the query has them
//   - First name: the query initials must prefix the author's initials
//
// This enables "J Doe" to match "John K. Doe" while "Doe, J K" does not
// match "John Doe".
func (q Query) Matches(a bibtex.Name) bool {
	if q.Jr != "" && q.Jr != bibtex.Purify(a.Jr, false) {
		return false
	}
	if q.Von != "" && q.Von != bibtex.Purify(a.Von, false) {
		return false
	}
	if q.First != "" && !strings.HasPrefix(bibtex.Initials(a.First), q.First) {
		return false
	}
	return q.Last == bibtex.Purify(a.Last, false)
}

// MatchesAny checks if the query matches any author in the list, or the
// first one when the query is marked FirstOnly.
func (q Query) MatchesAny(authors []bibtex.Name) bool {
	if q.FirstOnly && len(authors) > 0 {
		authors = authors[:1]
	}
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch checks if all queries match at least one author each.
// This implements AND logic for multiple author filters.
func AllMatch(queries []Query, authors []bibtex.Name) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}
