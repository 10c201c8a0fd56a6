// Package export writes entries back out as a BibTeX file.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// HeaderLine is the first line of every file written by WriteFile. A file
// starting with anything else belongs to the user.
const HeaderLine = "This file was created by bm"

// ProjectURL is the second header line.
const ProjectURL = "https://github.com/pcubillos/bibmanager"

// Header is the text written before the first entry.
const Header = HeaderLine + "\n" + ProjectURL + "\n\n"

// Render returns the header followed by the content of each entry. With
// includeMeta, the freeze/pdf/tags lines are written above each entry so
// that importing the file restores them.
func Render(entries []*reference.Entry, includeMeta bool) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, e := range entries {
		if includeMeta {
			b.WriteString(e.Meta())
		}
		b.WriteString(e.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteFile renders entries into path. An existing file not written by bm
// is first copied to orig_<YYYY-MM-DD>_<name> in the same directory, dated
// with now. The returned string is the backup path, or "" if none was made.
func WriteFile(path string, entries []*reference.Entry, includeMeta bool, now time.Time) (string, error) {
	backup, err := backupForeign(path, now)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(Render(entries, includeMeta)), 0644); err != nil {
		return "", fmt.Errorf("writing bib file: %w", err)
	}
	return backup, nil
}

// IsManaged reports whether the file at path starts with HeaderLine.
// A missing file is not managed.
func IsManaged(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return strings.TrimSpace(line) == HeaderLine, nil
}

func backupForeign(path string, now time.Time) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}
	managed, err := IsManaged(path)
	if err != nil {
		return "", fmt.Errorf("reading existing bib file: %w", err)
	}
	if managed {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading existing bib file: %w", err)
	}
	backup := filepath.Join(filepath.Dir(path), "orig_"+now.Format("2006-01-02")+"_"+filepath.Base(path))
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	return backup, nil
}
