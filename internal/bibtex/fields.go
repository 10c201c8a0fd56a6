package bibtex

import "strings"

// Field is one name = value pair of an entry.
type Field struct {
	Name  string // Lowercased field name
	Value string // Value with delimiting braces or quotes and outer blanks removed
	Nest  []int  // Brace depth of every byte of Value, relative to the whole entry
}

// Fields splits a raw entry into its citation key and its fields, in source
// order. Repeated field names are returned as they appear.
//
// Values delimited by braces end at the matching closing brace, quoted
// values at the next quote outside any braces, and bare values at the next
// top-level comma.
func Fields(entry string) (string, []Field, error) {
	if CountBraces(entry) != 0 {
		return "", nil, &MalformedEntryError{Reason: "mismatched braces in entry", Snippet: entry}
	}
	nested := Nest(entry)

	start := indexDepth(nested, 1)
	if start < 0 {
		return "", nil, &MalformedEntryError{Reason: "entry has no opening brace", Snippet: entry}
	}
	comma := strings.IndexByte(entry[start:], ',')
	if comma < 0 {
		return "", nil, &MalformedEntryError{Reason: "entry has no comma after its key", Snippet: entry}
	}
	loc := start + comma
	key := strings.TrimSpace(entry[start:loc])
	loc++

	var fields []Field
	for loc < len(entry) {
		eq := strings.IndexByte(entry[loc:], '=')
		if eq < 0 {
			break
		}
		name := strings.ToLower(strings.TrimSpace(entry[loc : loc+eq]))
		vstart := loc + eq + 1
		vstart += NextChar(entry[vstart:])
		if vstart >= len(entry) {
			break
		}

		var end int
		switch entry[vstart] {
		case '{':
			rel := indexDepth(nested[vstart+1:], nested[vstart])
			if rel < 0 {
				return "", nil, &MalformedEntryError{Reason: "unterminated value for field " + name, Snippet: entry}
			}
			end = vstart + rel
			vstart++
		case '"':
			vstart++
			end = vstart + CondNext(entry[vstart:], `"`, nested[vstart:], 1)
		default:
			end = vstart + CondNext(entry[vstart:], ",", nested[vstart:], 1)
		}
		if end < vstart {
			end = vstart
		}

		vstart += NextChar(entry[vstart:end])
		end = vstart + LastChar(entry[vstart:end])

		value := make([]int, end-vstart)
		copy(value, nested[vstart:end])
		fields = append(fields, Field{Name: name, Value: entry[vstart:end], Nest: value})

		next := strings.IndexByte(entry[end:], ',')
		if next < 0 {
			next = 0
		}
		loc = end + next + 1
	}

	return key, fields, nil
}

func indexDepth(nested []int, depth int) int {
	for i, d := range nested {
		if d == depth {
			return i
		}
	}
	return -1
}
