// Package storage handles data persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Record is the persisted form of an entry: the raw BibTeX plus local
// metadata. Structured fields are re-derived from Content on load.
type Record struct {
	Key     string   `json:"key"`
	Content string   `json:"content"`
	PDF     string   `json:"pdf,omitempty"`
	Freeze  bool     `json:"freeze,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// NewRecord returns the persisted form of e.
func NewRecord(e *reference.Entry) Record {
	return Record{
		Key:     e.Key,
		Content: e.Content,
		PDF:     e.PDF,
		Freeze:  e.Freeze,
		Tags:    e.Tags,
	}
}

// Entry parses the record content back into an entry.
func (r Record) Entry(warn *bibtex.Warnings) (*reference.Entry, error) {
	e, err := reference.New(r.Content, warn)
	if err != nil {
		return nil, err
	}
	if e.Key != r.Key {
		return nil, fmt.Errorf("record key %q does not match content key %q", r.Key, e.Key)
	}
	e.PDF = r.PDF
	e.Freeze = r.Freeze
	e.AddTags(r.Tags...)
	return e, nil
}

// DecodeLine decodes one JSONL line into an entry.
func DecodeLine(line []byte, warn *bibtex.Warnings) (*reference.Entry, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, err
	}
	return r.Entry(warn)
}

// EncodeLine encodes an entry as one JSONL line, without the newline.
func EncodeLine(e *reference.Entry) ([]byte, error) {
	return json.Marshal(NewRecord(e))
}

// ReadAll reads all entries from a JSONL file. Warnings raised while
// re-parsing the stored BibTeX are recorded in warn.
func ReadAll(path string, warn *bibtex.Warnings) ([]*reference.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer f.Close()

	var entries []*reference.Entry
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		e, err := DecodeLine(line, warn)
		if err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}

	return entries, nil
}

// Append adds an entry to the end of a JSONL file.
func Append(path string, e *reference.Entry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening store for append: %w", err)
	}
	defer f.Close()

	data, err := EncodeLine(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return nil
}

// WriteAll writes all entries to a JSONL file, replacing existing content.
// The file is written to a temporary sibling and renamed into place.
func WriteAll(path string, entries []*reference.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	w := bufio.NewWriter(f)
	for i, e := range entries {
		data, err := EncodeLine(e)
		if err != nil {
			f.Close()
			return fmt.Errorf("encoding entry %d: %w", i, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}

// FindByKey searches for an entry by citation key.
func FindByKey(entries []*reference.Entry, key string) (int, bool) {
	for i, e := range entries {
		if e.Key == key {
			return i, true
		}
	}
	return -1, false
}

// GenerateUniqueKey returns a key that doesn't conflict with existing entries.
// If the base key exists, appends -2, -3, etc.
func GenerateUniqueKey(entries []*reference.Entry, baseKey string) string {
	if _, found := FindByKey(entries, baseKey); !found {
		return baseKey
	}

	// Start at 2: baseKey is taken, so first duplicate becomes baseKey-2
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseKey, i)
		if _, found := FindByKey(entries, candidate); !found {
			return candidate
		}
	}
}
