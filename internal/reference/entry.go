// Package reference defines the bibliography entry model: one parsed BibTeX
// record with its structured fields, sort key and local metadata.
package reference

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
)

// MonthUnknown is the Month of an entry without a usable month field.
const MonthUnknown = 13

// Entry is one bibliographic record.
type Entry struct {
	// Identity
	Key     string `json:"key"`     // Citation key
	Content string `json:"content"` // Raw BibTeX text, brace-balanced

	// Structured fields, derived from Content
	Authors []bibtex.Name `json:"authors,omitempty"` // nil if the entry has no author field
	Title   string        `json:"title,omitempty"`   // Braces removed, blanks collapsed
	Year    int           `json:"year,omitempty"`    // 0 if absent or unparsable
	Month   int           `json:"month"`             // 1-12, MonthUnknown otherwise
	DOI     string        `json:"doi,omitempty"`
	ISBN    string        `json:"isbn,omitempty"`    // Lowercased
	Eprint  string        `json:"eprint,omitempty"`  // Without arXiv: or astro-ph/ prefixes
	Bibcode string        `json:"bibcode,omitempty"` // ADS bibcode, taken from ADSURL
	ADSURL  string        `json:"adsurl,omitempty"`

	SortKey SortKey `json:"-"`

	// Local metadata, not part of Content
	PDF    string   `json:"pdf,omitempty"` // File name under the PDF home
	Freeze bool     `json:"freeze,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

var (
	yearPattern = regexp.MustCompile(`[0-9]{4}`)
	months      = map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}
)

// New parses one raw entry. Format problems in the year, month or author
// fields are recorded in warn and leave a best-effort value.
func New(content string, warn *bibtex.Warnings) (*Entry, error) {
	key, fields, err := bibtex.Fields(content)
	if err != nil {
		return nil, err
	}
	e := &Entry{Key: key, Content: content, Month: MonthUnknown}

	for _, f := range fields {
		switch KindOf(f.Name) {
		case FieldTitle:
			e.Title = strings.Join(strings.Fields(strings.NewReplacer("{", "", "}", "").Replace(f.Value)), " ")
		case FieldAuthor:
			authors, err := parseAuthors(f, key, warn)
			if err != nil {
				return nil, err
			}
			e.Authors = authors
		case FieldYear:
			e.Year = parseYear(f.Value, key, warn)
		case FieldMonth:
			e.Month = parseMonth(f.Value, key, warn)
		case FieldDOI:
			e.DOI = f.Value
		case FieldADSURL:
			e.ADSURL = f.Value
			e.Bibcode = bibcodeFromURL(f.Value)
		case FieldEprint:
			e.Eprint = strings.NewReplacer("arXiv:", "", "astro-ph/", "").Replace(f.Value)
		case FieldISBN:
			e.ISBN = strings.ToLower(strings.TrimSpace(f.Value))
		case FieldOther:
		}
	}

	e.SortKey = newSortKey(e)
	return e, nil
}

func parseAuthors(f bibtex.Field, key string, warn *bibtex.Warnings) ([]bibtex.Name, error) {
	value := strings.ReplaceAll(f.Value, "\n", " ")
	parts, nests := bibtex.CondSplit(value, " and ", f.Nest, -1)
	var authors []bibtex.Name
	for i, part := range parts {
		name, err := bibtex.ParseName(part, nests[i], key, warn)
		if err != nil {
			return nil, &bibtex.MalformedEntryError{
				Reason:  fmt.Sprintf("bad author name in entry '%s'", key),
				Snippet: err.Error(),
			}
		}
		if name == (bibtex.Name{}) {
			continue
		}
		authors = append(authors, name)
	}
	return authors, nil
}

func parseYear(value, key string, warn *bibtex.Warnings) int {
	match := yearPattern.FindString(value)
	if match == "" {
		warn.Add(bibtex.FieldWarning(key, "year", value, "Bad year format value"))
		return 0
	}
	year, _ := strconv.Atoi(match)
	return year
}

func parseMonth(raw, key string, warn *bibtex.Warnings) int {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return MonthUnknown
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
	} else if len(value) >= 3 {
		if m, ok := months[value[:3]]; ok {
			return m
		}
	}
	warn.Add(bibtex.FieldWarning(key, "month", strings.TrimSpace(raw), "Invalid month value"))
	return MonthUnknown
}

// bibcodeFromURL takes the last path segment of an ADS URL, drops
// backslashes and decodes %-escapes.
func bibcodeFromURL(adsurl string) string {
	bibcode := adsurl[strings.LastIndexByte(adsurl, '/')+1:]
	bibcode = strings.ReplaceAll(bibcode, `\`, "")
	if decoded, err := url.PathUnescape(bibcode); err == nil {
		return decoded
	}
	return bibcode
}

// Rekey changes the citation key, rewriting the key between the opening
// brace and the first comma of Content.
func (e *Entry) Rekey(newKey string) {
	if open := strings.IndexByte(e.Content, '{'); open >= 0 {
		if comma := strings.IndexByte(e.Content[open:], ','); comma >= 0 {
			head := e.Content[open+1 : open+comma]
			key := strings.TrimSpace(head)
			start := open + 1 + strings.Index(head, key)
			e.Content = e.Content[:start] + newKey + e.Content[start+len(key):]
		}
	}
	e.Key = newKey
}

// UpdateContent replaces the BibTeX record of e with that of other. Every
// structured field is replaced, so a field other lacks disappears from e.
// Metadata is only taken from other when other carries a value.
func (e *Entry) UpdateContent(other *Entry) {
	e.Key = other.Key
	e.Content = other.Content
	e.Authors = slices.Clone(other.Authors)
	e.Title = other.Title
	e.Year = other.Year
	e.Month = other.Month
	e.DOI = other.DOI
	e.ISBN = other.ISBN
	e.Eprint = other.Eprint
	e.Bibcode = other.Bibcode
	e.ADSURL = other.ADSURL
	e.SortKey = other.SortKey

	if other.PDF != "" {
		e.PDF = other.PDF
	}
	if other.Freeze {
		e.Freeze = true
	}
	if len(other.Tags) > 0 {
		e.Tags = slices.Clone(other.Tags)
	}
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Authors = slices.Clone(e.Authors)
	c.Tags = slices.Clone(e.Tags)
	return &c
}

// Meta renders the metadata lines written above an entry in a .bib file:
//
//	freeze
//	pdf: file.pdf
//	tags: a b
//
// Only present values produce a line.
func (e *Entry) Meta() string {
	var b strings.Builder
	if e.Freeze {
		b.WriteString("freeze\n")
	}
	if e.PDF != "" {
		fmt.Fprintf(&b, "pdf: %s\n", e.PDF)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(e.Tags, " "))
	}
	return b.String()
}

// Published ranks the publication status from the ADS bibcode:
// -1 without a bibcode, 0 for an arXiv bibcode, 1 otherwise.
func (e *Entry) Published() int {
	if e.Bibcode == "" {
		return -1
	}
	if strings.Contains(e.Bibcode, "arXiv") {
		return 0
	}
	return 1
}

// HasTag reports whether e carries tag.
func (e *Entry) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

// AddTags adds the tags e does not have yet, keeping the tag list sorted.
func (e *Entry) AddTags(tags ...string) {
	for _, t := range tags {
		if t != "" && !e.HasTag(t) {
			e.Tags = append(e.Tags, t)
		}
	}
	slices.Sort(e.Tags)
}

// RemoveTags drops the given tags from e.
func (e *Entry) RemoveTags(tags ...string) {
	e.Tags = slices.DeleteFunc(e.Tags, func(t string) bool {
		return slices.Contains(tags, t)
	})
	if len(e.Tags) == 0 {
		e.Tags = nil
	}
}
