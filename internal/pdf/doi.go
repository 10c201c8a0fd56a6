package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// ErrExists is returned by Attach when the target file is already present.
var ErrExists = errors.New("PDF file already exists")

// 10.XXXX/... where XXXX is 4 to 9 digits.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// maxDOIPages is how many leading pages ExtractDOI scans.
const maxDOIPages = 3

// ExtractDOI returns the first DOI printed in the leading pages of a PDF,
// or "" when there is none.
func ExtractDOI(filePath string) (string, error) {
	text, err := ExtractText(filePath, maxDOIPages)
	if err != nil {
		return "", err
	}
	return findDOI(text), nil
}

// ExtractText extracts all text from the first maxPages pages of a PDF.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return "", err
	}
	defer f.Close()
	return pageText(r, maxPages), nil
}

func pageText(r *pdf.Reader, maxPages int) string {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String()
}

// findDOI finds a DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}

// AttachOptions configures Attach.
type AttachOptions struct {
	Name    string // Stored filename; defaults to <key>.pdf
	Move    bool   // Move src instead of copying it
	Replace bool   // Overwrite an existing file of the same name
}

// Attach stores src under dir and records its filename in e.PDF. When the
// PDF text carries a DOI that differs from the entry's, a FieldFormat
// warning is added; an unreadable PDF is attached all the same.
func Attach(e *reference.Entry, src, dir string, opts AttachOptions, warn *bibtex.Warnings) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", src, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", src)
	}

	name := opts.Name
	if name == "" {
		name = e.Key + ".pdf"
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("invalid PDF filename %q: must not contain a directory", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", fmt.Errorf("invalid PDF filename %q: must have a .pdf extension", name)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil && !opts.Replace {
		return "", fmt.Errorf("%w: %s", ErrExists, dest)
	}

	if opts.Move {
		err = os.Rename(src, dest)
	} else {
		err = copyFile(src, dest)
	}
	if err != nil {
		return "", fmt.Errorf("storing PDF: %w", err)
	}

	if doi, err := ExtractDOI(dest); err != nil {
		warn.Add(bibtex.FieldWarning(e.Key, "pdf", name, "Could not read text from PDF"))
	} else if doi != "" && e.DOI != "" && !strings.EqualFold(doi, e.DOI) {
		warn.Add(bibtex.FieldWarning(e.Key, "doi", doi, fmt.Sprintf("Entry DOI '%s' differs from PDF DOI", e.DOI)))
	}

	e.PDF = name
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
