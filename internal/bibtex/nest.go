// Package bibtex implements the low-level pieces of BibTeX handling:
// brace-aware splitting, field extraction, name parsing and the
// normalization used for sorting and matching.
package bibtex

import "strings"

// Nest returns the brace-nesting depth of every byte in text.
// The depth of a byte reflects the braces that precede it, so an opening
// brace sits at the outer level and a closing brace at the inner one:
//
//	Nest("{a}") = [0 1 1]
func Nest(text string) []int {
	nested := make([]int, len(text))
	depth := 0
	for i := 0; i < len(text); i++ {
		nested[i] = depth
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return nested
}

// CountBraces returns the number of opening minus closing braces in text.
func CountBraces(text string) int {
	return strings.Count(text, "{") - strings.Count(text, "}")
}

// CondSplit splits text on the case-insensitive separator sep, but only at
// matches that start at brace depth level. A negative level means the depth
// of the first byte of text. If nested is nil it is computed from text.
//
// Leading or trailing separators produce empty strings, as strings.Split
// does. The second return value holds the nesting slice of every part.
func CondSplit(text, sep string, nested []int, level int) ([]string, [][]int) {
	if nested == nil {
		nested = Nest(text)
	}
	if len(text) == 0 || len(sep) == 0 {
		return []string{text}, [][]int{nested}
	}
	if level < 0 {
		level = nested[0]
	}

	bounds := []int{0}
	for i := 0; i+len(sep) <= len(text); {
		if !strings.EqualFold(text[i:i+len(sep)], sep) {
			i++
			continue
		}
		if nested[i] == level {
			bounds = append(bounds, i, i+len(sep))
		}
		i += len(sep)
	}
	if len(bounds) == 1 {
		return []string{text}, [][]int{nested}
	}
	bounds = append(bounds, len(text))

	parts := make([]string, 0, len(bounds)/2)
	nests := make([][]int, 0, len(bounds)/2)
	for i := 0; i < len(bounds); i += 2 {
		parts = append(parts, text[bounds[i]:bounds[i+1]])
		nests = append(nests, nested[bounds[i]:bounds[i+1]])
	}
	return parts, nests
}

// CondNext returns the index of the first occurrence of pattern in text
// that starts at brace depth level. When there is none it returns the
// index of the last byte of text (zero for empty text).
func CondNext(text, pattern string, nested []int, level int) int {
	if len(text) == 0 {
		return 0
	}
	for i := 0; i+len(pattern) <= len(text); {
		j := strings.Index(text[i:], pattern)
		if j < 0 {
			break
		}
		if nested[i+j] == level {
			return i + j
		}
		i += j + max(len(pattern), 1)
	}
	return len(text) - 1
}

// FindClosingBracket locates the first opening brace at or after start and
// the brace that closes it. Both indices are -1 when there is no opening
// brace or it is never closed.
func FindClosingBracket(text string, start int) (open, closing int) {
	if start < 0 || start > len(text) {
		return -1, -1
	}
	left := strings.IndexByte(text[start:], '{')
	if left < 0 {
		return -1, -1
	}
	open = start + left
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 0 {
			return open, i
		}
	}
	return -1, -1
}

// NextChar returns the index of the first non-blank byte of text, or zero
// when text is empty or blank.
func NextChar(text string) int {
	for i := 0; i < len(text); i++ {
		if !isBlank(text[i]) {
			return i
		}
	}
	return 0
}

// LastChar returns the index just past the last non-blank byte of text, or
// zero when text is empty or blank.
func LastChar(text string) int {
	i := len(text)
	for i > 0 && isBlank(text[i-1]) {
		i--
	}
	return i
}

func isBlank(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// collapse joins the whitespace-separated words of s with single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
