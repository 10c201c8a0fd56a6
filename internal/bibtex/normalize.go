package bibtex

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	umlauts = []struct{ escape, plain string }{
		{`\"a`, "ae"},
		{`\"o`, "oe"},
		{`\"u`, "ue"},
	}

	// \" \^ \` \. \' \~
	symbolAccent = regexp.MustCompile("\\\\[\"^`.'~]")
	// \c x, \v x, ... with the letter after a space
	letterAccentSpace = regexp.MustCompile(`\\[cuHvdbt] `)
	// \c{x}, \v{x}, ...
	letterAccentBrace = regexp.MustCompile(`\\[cuHvdbt]\{`)

	// Special letters, in replacement order.
	specialLetters = []string{"o", "O", "l", "L", "i", "j", "aa", "AA", "AE", "oe", "OE", "ss"}

	braces = strings.NewReplacer("{", "", "}", "")
)

// Purify strips LaTeX accent escapes and braces from name, then trims and
// lowercases it. With german set, umlauts expand to their two-letter
// spelling ({\"o} becomes oe).
//
//	Purify(`Schr{\"o}dinger`, false) = "schrodinger"
//	Purify(`Knausg{\aa}rd`, false)   = "knausgaard"
//
// The result is only meant for comparisons; display text keeps its escapes.
func Purify(name string, german bool) string {
	if german {
		for _, u := range umlauts {
			name = strings.ReplaceAll(name, u.escape, u.plain)
		}
	}
	name = symbolAccent.ReplaceAllString(name, "")
	name = letterAccentSpace.ReplaceAllString(name, "")
	name = letterAccentBrace.ReplaceAllString(name, "{")
	for _, letter := range specialLetters {
		name = strings.ReplaceAll(name, `\`+letter, letter)
	}
	return strings.ToLower(strings.TrimSpace(braces.Replace(name)))
}

// Initials returns the first letter of every word of the purified name,
// treating hyphens as word breaks.
//
//	Initials("J. Y.-K.") = "jyk"
func Initials(name string) string {
	words := strings.Fields(strings.ReplaceAll(Purify(name, false), "-", " "))
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
	}
	return b.String()
}
