package bibtex

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEntry matches every *MalformedEntryError via errors.Is.
	ErrMalformedEntry = errors.New("malformed BibTeX entry")

	// ErrMissingLastName is returned by ParseName for a comma-separated name
	// whose von-Last part is blank.
	ErrMissingLastName = errors.New("name has no last name")
)

// MalformedEntryError reports text that cannot be parsed as an entry.
type MalformedEntryError struct {
	Line    int    // 1-indexed line where the fault was detected, 0 if unknown
	Snippet string // Offending line or entry text
	Reason  string // e.g. "mismatched braces"
}

func (e *MalformedEntryError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at/after line %d:\n%s", e.Reason, e.Line, e.Snippet)
	}
	if e.Snippet != "" {
		return fmt.Sprintf("%s:\n%s", e.Reason, e.Snippet)
	}
	return e.Reason
}

// Is makes errors.Is(err, ErrMalformedEntry) succeed.
func (e *MalformedEntryError) Is(target error) bool {
	return target == ErrMalformedEntry
}

// WarningKind classifies a non-fatal parsing anomaly.
type WarningKind string

const (
	NameFormat  WarningKind = "name_format"  // Too many comma-separated name parts
	FieldFormat WarningKind = "field_format" // Unparsable year, month or pdf value
)

// Warning is a recoverable anomaly found while parsing. The parser keeps
// going with a best-effort value and records one of these.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Key     string      `json:"key,omitempty"`   // Owning entry key, if known
	Field   string      `json:"field,omitempty"` // Field name (author, year, month, pdf)
	Value   string      `json:"value"`           // Offending text
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// Warnings collects Warning values. A nil *Warnings discards them.
type Warnings []Warning

// Add records w.
func (ws *Warnings) Add(w Warning) {
	if ws == nil {
		return
	}
	*ws = append(*ws, w)
}

// forEntry appends the " for entry 'key'" suffix used by every message.
func forEntry(msg, key string) string {
	if key == "" {
		return msg
	}
	return fmt.Sprintf("%s for entry '%s'", msg, key)
}

// FieldWarning builds a FieldFormat warning with the standard message.
func FieldWarning(key, field, value, msg string) Warning {
	return Warning{
		Kind:    FieldFormat,
		Key:     key,
		Field:   field,
		Value:   value,
		Message: forEntry(fmt.Sprintf("%s '%s'", msg, value), key),
	}
}
