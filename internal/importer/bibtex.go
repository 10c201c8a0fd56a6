package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// ParseOptions configures ParseCollection.
type ParseOptions struct {
	// Decider settles duplicates that cannot be ranked automatically.
	// Defaults{} when nil.
	Decider conflict.Decider

	// PDFHome, when set, is the directory attached PDF files live in. A
	// "pdf:" sidecar value naming an existing file elsewhere is moved there.
	PDFHome string
}

// meta holds the sidecar lines seen since the last entry.
type meta struct {
	pdf    string
	freeze bool
	tags   []string
}

// ParseCollection parses BibTeX text into entries, sorted and free of
// duplicates on DOI, ISBN, bibcode and eprint.
//
// Entries are delimited by brace counting, line by line: an entry starts on
// a line beginning with '@' and ends on the line that closes its braces.
// @comment, @string and @preamble blocks are skipped. Outside entries, the
// sidecar lines
//
//	freeze
//	pdf: file.pdf
//	tags: tag1 tag2
//
// attach to the next entry. Anything else outside entries is ignored.
func ParseCollection(text string, opts ParseOptions) ([]*reference.Entry, bibtex.Warnings, error) {
	var warn bibtex.Warnings
	var entries []*reference.Entry

	var (
		lines     []string
		startLine int
		depth     int
		pending   meta
	)

	for i, line := range strings.Split(text, "\n") {
		lineNum := i + 1
		line = strings.TrimRight(line, " \t\r")

		if strings.HasPrefix(line, "@") && depth != 0 {
			return nil, warn, &bibtex.MalformedEntryError{Line: lineNum, Snippet: line, Reason: "Mismatched braces"}
		}

		depth += bibtex.CountBraces(line)
		if depth == 0 && lines == nil && !strings.HasPrefix(line, "@") {
			pending.read(line)
			continue
		}
		if depth < 0 {
			return nil, warn, &bibtex.MalformedEntryError{Line: lineNum, Snippet: line, Reason: "Mismatched braces"}
		}

		if lines == nil {
			startLine = lineNum
		}
		lines = append(lines, line)
		if depth != 0 {
			continue
		}

		content := strings.Join(lines, "\n")
		lines = nil
		if skipped(content) {
			continue
		}

		e, err := reference.New(content, &warn)
		if err != nil {
			var me *bibtex.MalformedEntryError
			if errors.As(err, &me) && me.Line == 0 {
				me.Line = startLine
			}
			return nil, warn, err
		}
		if err := pending.apply(e, opts.PDFHome, &warn); err != nil {
			return nil, warn, err
		}
		pending = meta{}
		entries = append(entries, e)
	}

	if depth != 0 {
		snippet := ""
		if len(lines) > 0 {
			snippet = lines[0]
		}
		return nil, warn, &bibtex.MalformedEntryError{Line: startLine, Snippet: snippet, Reason: "Mismatched braces at end of file"}
	}

	var err error
	for _, field := range reference.IDFields {
		if entries, _, err = conflict.RemoveDuplicates(entries, field, opts.Decider); err != nil {
			return nil, warn, err
		}
	}
	reference.Sort(entries)
	return entries, warn, nil
}

// ReadFile parses the BibTeX file at path.
func ReadFile(path string, opts ParseOptions) ([]*reference.Entry, bibtex.Warnings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading bib file: %w", err)
	}
	return ParseCollection(string(data), opts)
}

// Read parses BibTeX text from r.
func Read(r io.Reader, opts ParseOptions) ([]*reference.Entry, bibtex.Warnings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading BibTeX input: %w", err)
	}
	return ParseCollection(string(data), opts)
}

// skipped reports whether content is a block that is not an entry.
func skipped(content string) bool {
	for _, kind := range []string{"@comment", "@string", "@preamble"} {
		if len(content) >= len(kind) && strings.EqualFold(content[:len(kind)], kind) {
			return true
		}
	}
	return false
}

// read records line if it is a sidecar metadata line.
func (m *meta) read(line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "freeze":
		m.freeze = true
	case strings.HasPrefix(line, "pdf:"):
		m.pdf = strings.TrimSpace(strings.TrimPrefix(line, "pdf:"))
	case strings.HasPrefix(line, "tags:"):
		m.tags = strings.Fields(strings.TrimPrefix(line, "tags:"))
	}
}

// apply attaches the pending metadata to e. With a PDF home, a pdf value
// that is a path is moved into the home and replaced by its base name; a
// path to a missing file is dropped with a warning.
func (m *meta) apply(e *reference.Entry, pdfHome string, warn *bibtex.Warnings) error {
	e.Freeze = m.freeze
	e.AddTags(m.tags...)
	if m.pdf == "" {
		return nil
	}

	name := filepath.Base(m.pdf)
	if pdfHome == "" || name == m.pdf {
		e.PDF = m.pdf
		return nil
	}
	if _, err := os.Stat(m.pdf); err != nil {
		warn.Add(bibtex.FieldWarning(e.Key, "pdf", m.pdf, "PDF file not found"))
		return nil
	}
	if err := os.MkdirAll(pdfHome, 0755); err != nil {
		return fmt.Errorf("creating PDF home: %w", err)
	}
	if err := os.Rename(m.pdf, filepath.Join(pdfHome, name)); err != nil {
		return fmt.Errorf("moving %s into PDF home: %w", m.pdf, err)
	}
	e.PDF = name
	return nil
}
