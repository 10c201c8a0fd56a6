// Package search filters a collection by author, year, title, key, bibcode
// and tag.
package search

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/author"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

var (
	// ErrEmptyQuery is returned by ParseQuery when the text holds no filter.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrInvalidYear is returned by ParseQuery for a year value that is not
	// YYYY, YYYY-YYYY, -YYYY or YYYY-.
	ErrInvalidYear = errors.New("invalid year filter")

	// ErrNoIdentifier is returned by Find when neither key nor bibcode is set.
	ErrNoIdentifier = errors.New("either key or bibcode is required")

	// ErrNotFound is returned by Find when no entry matches.
	ErrNotFound = errors.New("entry not found")
)

// MaxYear is the upper bound of an open-ended year range.
const MaxYear = 9999

// Filters selects entries. Filter kinds combine with AND; Keys and
// Bibcodes match any of their values, the other lists must all match.
type Filters struct {
	Authors  []string // BibTeX names; a leading '^' restricts to the first author
	YearFrom int      // Inclusive; 0 with YearTo 0 means no year filter
	YearTo   int      // Inclusive
	Title    []string // Case-insensitive substrings
	Keys     []string
	Bibcodes []string // URL-escaped codes are unescaped before matching
	Tags     []string
}

// IsZero reports whether f filters nothing.
func (f Filters) IsZero() bool {
	return len(f.Authors) == 0 && f.YearFrom == 0 && f.YearTo == 0 &&
		len(f.Title) == 0 && len(f.Keys) == 0 && len(f.Bibcodes) == 0 && len(f.Tags) == 0
}

// Search returns the entries matching every filter in f, in collection
// order. An empty Filters matches every entry.
func Search(entries []*reference.Entry, f Filters) ([]*reference.Entry, error) {
	queries := make([]author.Query, 0, len(f.Authors))
	for _, a := range f.Authors {
		q, err := author.ParseQuery(a)
		if err != nil {
			return nil, fmt.Errorf("author filter %q: %w", a, err)
		}
		queries = append(queries, q)
	}

	bibcodes := make([]string, len(f.Bibcodes))
	for i, b := range f.Bibcodes {
		if decoded, err := url.PathUnescape(b); err == nil {
			b = decoded
		}
		bibcodes[i] = b
	}

	titles := make([]string, len(f.Title))
	for i, w := range f.Title {
		titles[i] = strings.ToLower(w)
	}

	var matches []*reference.Entry
	for _, e := range entries {
		if f.YearFrom != 0 || f.YearTo != 0 {
			if e.Year == 0 || e.Year < f.YearFrom || e.Year > f.YearTo {
				continue
			}
		}
		if !author.AllMatch(queries, e.Authors) {
			continue
		}
		if !titleMatches(e.Title, titles) {
			continue
		}
		if len(f.Keys) > 0 && !slices.Contains(f.Keys, e.Key) {
			continue
		}
		if len(bibcodes) > 0 && (e.Bibcode == "" || !slices.Contains(bibcodes, e.Bibcode)) {
			continue
		}
		if !hasAllTags(e, f.Tags) {
			continue
		}
		matches = append(matches, e)
	}
	return matches, nil
}

func titleMatches(title string, words []string) bool {
	if len(words) == 0 {
		return true
	}
	if title == "" {
		return false
	}
	title = strings.ToLower(title)
	for _, w := range words {
		if !strings.Contains(title, w) {
			return false
		}
	}
	return true
}

func hasAllTags(e *reference.Entry, tags []string) bool {
	for _, t := range tags {
		if !e.HasTag(t) {
			return false
		}
	}
	return true
}

var (
	authorPattern  = regexp.MustCompile(`author:"([^"]+)`)
	titlePattern   = regexp.MustCompile(`title:"([^"]+)`)
	yearPattern    = regexp.MustCompile(`year:\s*(\S+)`)
	keyPattern     = regexp.MustCompile(`key:\s*(\S+)`)
	bibcodePattern = regexp.MustCompile(`bibcode:\s*(\S+)`)
	tagsPattern    = regexp.MustCompile(`tags:\s*(\S+)`)
)

// ParseQuery reads filters written the way ADS queries are:
//
//	author:"^Payne, C" title:"stellar atmospheres" year:1925-1930
//	key:Payne1925phdStellarAtmospheres bibcode:1925PhDT.........1P tags:stars
//
// Author and title values are quoted; the rest end at the next blank. Year
// takes YYYY, YYYY-YYYY, -YYYY or YYYY-. Every field may repeat.
func ParseQuery(text string) (Filters, error) {
	var f Filters
	f.Authors = submatches(authorPattern, text)
	f.Title = submatches(titlePattern, text)
	f.Keys = submatches(keyPattern, text)
	f.Bibcodes = submatches(bibcodePattern, text)
	f.Tags = submatches(tagsPattern, text)

	if m := yearPattern.FindStringSubmatch(text); m != nil {
		from, to, err := parseYears(m[1])
		if err != nil {
			return Filters{}, err
		}
		f.YearFrom, f.YearTo = from, to
	}

	if f.IsZero() {
		return Filters{}, ErrEmptyQuery
	}
	return f, nil
}

// parseYears reads YYYY, YYYY-YYYY, -YYYY or YYYY-.
func parseYears(s string) (int, int, error) {
	year := func(s string) (int, bool) {
		if len(s) != 4 {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		return n, err == nil && n >= 0
	}

	from, to, ranged := strings.Cut(s, "-")
	switch {
	case !ranged:
		if y, ok := year(from); ok {
			return y, y, nil
		}
	case from == "":
		if y, ok := year(to); ok {
			return 0, y, nil
		}
	case to == "":
		if y, ok := year(from); ok {
			return y, MaxYear, nil
		}
	default:
		y1, ok1 := year(from)
		y2, ok2 := year(to)
		if ok1 && ok2 {
			return y1, y2, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
}

func submatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// Find returns the entry with the given key or, when key is empty, the
// given bibcode.
func Find(entries []*reference.Entry, key, bibcode string) (*reference.Entry, error) {
	switch {
	case key != "":
		for _, e := range entries {
			if e.Key == key {
				return e, nil
			}
		}
		return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
	case bibcode != "":
		if decoded, err := url.PathUnescape(bibcode); err == nil {
			bibcode = decoded
		}
		for _, e := range entries {
			if e.Bibcode == bibcode {
				return e, nil
			}
		}
		return nil, fmt.Errorf("bibcode %q: %w", bibcode, ErrNotFound)
	}
	return nil, ErrNoIdentifier
}
