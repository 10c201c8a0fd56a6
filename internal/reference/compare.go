package reference

import (
	"cmp"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
)

// SortKey is the normalized first-author and date tuple entries are ordered
// and compared by. It is never displayed.
type SortKey struct {
	HasAuthor bool   // False when the entry has no parsable author
	Last      string // Purified
	First     string // Initials
	Von       string // Purified
	Jr        string // Purified
	Year      int    // 0 if unknown
	Month     int    // MonthUnknown if unknown
}

func newSortKey(e *Entry) SortKey {
	k := SortKey{Year: e.Year, Month: e.Month}
	if len(e.Authors) == 0 {
		return k
	}
	a := e.Authors[0]
	k.HasAuthor = true
	k.Last = bibtex.Purify(a.Last, false)
	k.First = bibtex.Initials(a.First)
	k.Von = bibtex.Purify(a.Von, false)
	k.Jr = bibtex.Purify(a.Jr, false)
	return k
}

// year returns the sort year; unknown years go after every known one.
func (k SortKey) year() int {
	if k.Year == 0 {
		return math.MaxInt
	}
	return k.Year
}

// Compare orders a and b by first author (last, first initials, von, jr),
// then year, then month. Entries without an author go after those with one.
// When either side's first name is a single initial only the leading
// letters are compared, so "J" and "J. K." tie on that field.
func Compare(a, b *Entry) int {
	s, o := a.SortKey, b.SortKey
	if s.HasAuthor != o.HasAuthor {
		if s.HasAuthor {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(s.Last, o.Last); c != 0 {
		return c
	}
	if c := compareFirst(s.First, o.First); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Von, o.Von); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Jr, o.Jr); c != 0 {
		return c
	}
	if c := cmp.Compare(s.year(), o.year()); c != 0 {
		return c
	}
	return cmp.Compare(s.Month, o.Month)
}

func compareFirst(s, o string) int {
	if utf8.RuneCountInString(s) == 1 || utf8.RuneCountInString(o) == 1 {
		if leading(s) == leading(o) {
			return 0
		}
	}
	return cmp.Compare(s, o)
}

func leading(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// Less reports whether a sorts before b.
func Less(a, b *Entry) bool {
	return Compare(a, b) < 0
}

// Equal reports whether a and b have the same first author and date under
// the Compare rules. Two entries without authors are equal when their
// year and month match.
func Equal(a, b *Entry) bool {
	return Compare(a, b) == 0
}

// Sort orders entries by Compare, keeping the input order of ties.
func Sort(entries []*Entry) {
	slices.SortStableFunc(entries, Compare)
}
