package bibtex

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Name is an author name split into its BibTeX parts.
type Name struct {
	Last  string `json:"last"`
	First string `json:"first,omitempty"`
	Von   string `json:"von,omitempty"`
	Jr    string `json:"jr,omitempty"`
}

// String renders the name as "von Last, Jr, First", skipping empty parts.
func (n Name) String() string {
	name := n.Last
	if n.Von != "" {
		name = n.Von + " " + name
	}
	if n.Jr != "" {
		name += ", " + n.Jr
	}
	if n.First != "" {
		name += ", " + n.First
	}
	return name
}

// ParseName parses one author name. nested is the nesting profile of name
// (nil to compute it), key names the owning entry in warnings.
//
// The three BibTeX forms are recognized by their unprotected commas:
//
//	First von Last
//	von Last, First
//	von Last, Jr, First
//
// The von part is the run of words starting with a lowercase letter;
// braced groups never split and never count as lowercase.
// More than two commas is recovered from by folding everything after the
// first comma into First, and a NameFormat warning is added to warn.
func ParseName(name string, nested []int, key string, warn *Warnings) (Name, error) {
	if nested == nil {
		nested = Nest(name)
	}
	name = replaceTies(name, nested)

	parts, nests := CondSplit(name, ",", nested, -1)
	if len(parts) > 3 {
		warn.Add(Warning{
			Kind:    NameFormat,
			Key:     key,
			Field:   "author",
			Value:   name,
			Message: forEntry(fmt.Sprintf("Too many commas in name '%s'", name), key),
		})
		rest := strings.Join(parts[1:], " ")
		parts = []string{parts[0], rest}
		nests = [][]int{nests[0], Nest(rest)}
	}

	if len(parts) == 1 {
		words := splitWords(parts[0], nests[0])
		if len(words) == 0 {
			return Name{}, nil
		}
		ifirst, ilast := len(words)-1, len(words)-1
		if lo, hi := lowercaseSpan(words); lo >= 0 {
			ifirst, ilast = lo, hi+1
		}
		return Name{
			First: collapse(strings.Join(words[:ifirst], " ")),
			Von:   collapse(strings.Join(words[ifirst:ilast], " ")),
			Last:  collapse(strings.Join(words[ilast:], " ")),
		}, nil
	}

	vonLast := parts[0]
	if strings.TrimSpace(vonLast) == "" {
		return Name{}, fmt.Errorf("%w: '%s'", ErrMissingLastName, name)
	}

	var n Name
	if len(parts) == 2 {
		n.First = collapse(parts[1])
	} else {
		n.Jr = collapse(parts[1])
		n.First = collapse(parts[2])
	}

	words := splitWords(vonLast, nests[0])
	ilast := 0
	if _, hi := lowercaseSpan(words); hi >= 0 {
		ilast = hi + 1
	}
	n.Von = collapse(strings.Join(words[:ilast], " "))
	n.Last = collapse(strings.Join(words[ilast:], " "))
	return n, nil
}

// replaceTies turns unprotected ~ ties into spaces. The result has the same
// length as name, so nested stays valid.
func replaceTies(name string, nested []int) string {
	if !strings.Contains(name, "~") || len(name) == 0 {
		return name
	}
	level := nested[0]
	b := []byte(name)
	for i, c := range b {
		if c == '~' && nested[i] == level {
			b[i] = ' '
		}
	}
	return string(b)
}

// splitWords splits on unprotected spaces, dropping empty words.
func splitWords(text string, nested []int) []string {
	parts, _ := CondSplit(text, " ", nested, -1)
	var words []string
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

// lowercaseSpan returns the first and last index among words[:len-1] whose
// first character is a lowercase letter, or -1, -1 if there is none.
func lowercaseSpan(words []string) (lo, hi int) {
	lo, hi = -1, -1
	for i := 0; i < len(words)-1; i++ {
		r, _ := utf8.DecodeRuneInString(words[i])
		if unicode.IsLower(r) {
			if lo < 0 {
				lo = i
			}
			hi = i
		}
	}
	return lo, hi
}

// Author list styles for FormatAuthors.
const (
	StyleLong   = "long"
	StyleShort  = "short"
	StyleUShort = "ushort"
)

var ushortStrip = regexp.MustCompile(`[^\p{L}\p{N}_\s\-()]`)

// FormatAuthors renders an author list for display.
//
//	long:   "Jones, Eric; Oliphant, Travis; and Peterson, Pearu"
//	short:  "Jones, Eric; et al."
//	ushort: "Jones+" (last name of the first author only)
//
// One or two authors are always joined with " and ".
func FormatAuthors(names []Name, style string) string {
	if len(names) == 0 {
		return ""
	}
	if style == StyleUShort {
		last := ushortStrip.ReplaceAllString(names[0].Last, "")
		if len(names) > 1 {
			last += "+"
		}
		return last
	}
	if len(names) <= 2 {
		rendered := make([]string, len(names))
		for i, n := range names {
			rendered[i] = n.String()
		}
		return strings.Join(rendered, " and ")
	}
	if style == StyleShort {
		return names[0].String() + "; et al."
	}
	rendered := make([]string, len(names))
	for i, n := range names {
		rendered[i] = n.String()
	}
	return strings.Join(rendered[:len(rendered)-1], "; ") + "; and " + rendered[len(rendered)-1]
}
