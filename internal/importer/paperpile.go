// Package importer reads references from external formats: BibTeX files
// and Paperpile JSON exports.
package importer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
	"github.com/pcubillos/bibmanager-sub000/internal/storage"
)

// FlexibleString can unmarshal from either string or number JSON values.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	// Handle null
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// PaperpileEntry represents a single entry from a Paperpile JSON export.
type PaperpileEntry struct {
	ID        string `json:"_id"`
	Citekey   string `json:"citekey"`
	DOI       string `json:"doi"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Journal   string `json:"journal"`
	Published struct {
		Year  FlexibleString `json:"year"`
		Month FlexibleString `json:"month"`
	} `json:"published"`
	Author []struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"author"`
	Attachments []struct {
		ID         string `json:"_id"`
		ArticlePDF int    `json:"article_pdf"` // 1 = main PDF, 0 = supplement
		Filename   string `json:"filename"`
	} `json:"attachments"`
}

// ParsePaperpile parses a Paperpile JSON export into entries. Invalid
// entries are reported in the error slice and skipped; the rest are
// returned in export order. Repeated keys get a -2, -3, ... suffix.
func ParsePaperpile(data []byte) ([]*reference.Entry, []error) {
	var raw []PaperpileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []error{fmt.Errorf("parsing Paperpile JSON: %w", err)}
	}

	var entries []*reference.Entry
	var errs []error

	for i, pe := range raw {
		key := pe.Citekey
		if key == "" {
			key = pe.ID
		}
		e, err := paperpileToEntry(pe, storage.GenerateUniqueKey(entries, key))
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, key, err))
			continue
		}
		entries = append(entries, e)
	}

	return entries, errs
}

// paperpileToEntry renders pe as a BibTeX record under key and parses it.
func paperpileToEntry(pe PaperpileEntry, key string) (*reference.Entry, error) {
	if pe.Title == "" {
		return nil, fmt.Errorf("missing required field 'title'")
	}
	if len(pe.Author) == 0 {
		return nil, fmt.Errorf("missing required field 'author'")
	}
	if pe.Published.Year.String() == "" {
		return nil, fmt.Errorf("missing required field 'published.year'")
	}
	year, err := strconv.Atoi(pe.Published.Year.String())
	if err != nil {
		return nil, fmt.Errorf("invalid year: %s", pe.Published.Year.String())
	}
	if key == "" || strings.ContainsAny(key, " \t,{}") {
		return nil, fmt.Errorf("invalid citation key %q", key)
	}

	authors := make([]string, len(pe.Author))
	for i, a := range pe.Author {
		authors[i] = clean(a.Last)
		if a.First != "" {
			authors[i] += ", " + clean(a.First)
		}
	}

	kind := "Misc"
	if pe.Journal != "" {
		kind = "Article"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", kind, key)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %-8s = %s,\n", name, value)
		}
	}
	field("author", "{"+strings.Join(authors, " and ")+"}")
	field("title", "{{"+clean(pe.Title)+"}}")
	if pe.Journal != "" {
		field("journal", "{"+clean(pe.Journal)+"}")
	}
	field("year", strconv.Itoa(year))
	if m, err := strconv.Atoi(pe.Published.Month.String()); err == nil && m >= 1 && m <= 12 {
		field("month", strconv.Itoa(m))
	}
	if pe.DOI != "" {
		field("doi", "{"+clean(pe.DOI)+"}")
	}
	if pe.Abstract != "" {
		field("abstract", "{"+clean(pe.Abstract)+"}")
	}
	b.WriteString("}")

	e, err := reference.New(b.String(), nil)
	if err != nil {
		return nil, err
	}

	for _, att := range pe.Attachments {
		if att.ArticlePDF == 1 {
			e.PDF = filepath.Base(att.Filename)
			break
		}
	}
	return e, nil
}

// clean drops braces and folds blanks so a value cannot unbalance the record.
func clean(s string) string {
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
