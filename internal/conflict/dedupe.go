package conflict

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// RemoveDuplicates drops entries that share the identifier field with
// another entry. It returns the remaining entries, in their original order,
// and a map from each removed key to the key that survived it.
//
// Within each group of entries sharing a non-empty identifier:
//   - byte-identical contents are collapsed to the first one;
//   - only the entries with the highest Published rank are kept;
//   - for ISBN, entries whose DOI is unique in the group are distinct works
//     (chapters of one book) and are all kept;
//   - if several candidates remain, d picks the survivor.
func RemoveDuplicates(entries []*reference.Entry, field reference.IDField, d Decider) ([]*reference.Entry, map[string]string, error) {
	removed := make([]bool, len(entries))
	survivors := make(map[string]string)

	groups := make(map[string][]int)
	var order []string
	for i, e := range entries {
		v := idKey(e, field)
		if v == "" {
			continue
		}
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], i)
	}

	for _, v := range order {
		group := groups[v]
		if len(group) < 2 {
			continue
		}

		var unique []int
		for _, i := range group {
			if j, ok := sameContent(entries, unique, i); ok {
				removed[i] = true
				survivors[entries[i].Key] = entries[j].Key
				continue
			}
			unique = append(unique, i)
		}
		if len(unique) < 2 {
			continue
		}

		best := -1
		for _, i := range unique {
			best = max(best, entries[i].Published())
		}
		var top, lower []int
		for _, i := range unique {
			if entries[i].Published() < best {
				lower = append(lower, i)
			} else {
				top = append(top, i)
			}
		}

		candidates := top
		if field == reference.IDISBN {
			candidates = sharedDOI(entries, top)
		}

		winner := top[0]
		if len(candidates) > 1 {
			choice, err := pick(entries, candidates, field, d)
			if err != nil {
				return nil, nil, err
			}
			winner = candidates[choice]
			for _, i := range candidates {
				if i != winner {
					removed[i] = true
					survivors[entries[i].Key] = entries[winner].Key
				}
			}
		}
		for _, i := range lower {
			removed[i] = true
			survivors[entries[i].Key] = entries[winner].Key
		}
	}

	kept := make([]*reference.Entry, 0, len(entries))
	for i, e := range entries {
		if !removed[i] {
			kept = append(kept, e)
		}
	}
	return kept, survivors, nil
}

// idKey is the value entries are grouped on for field. DOIs are
// case-insensitive.
func idKey(e *reference.Entry, field reference.IDField) string {
	if field == reference.IDDOI {
		return strings.ToLower(e.DOI)
	}
	return e.ID(field)
}

// sameContent finds among candidates an entry whose content equals that of
// entries[i].
func sameContent(entries []*reference.Entry, candidates []int, i int) (int, bool) {
	for _, j := range candidates {
		if entries[j].Content == entries[i].Content {
			return j, true
		}
	}
	return 0, false
}

// sharedDOI keeps the members whose DOI (absent counting as one value)
// appears more than once among idx.
func sharedDOI(entries []*reference.Entry, idx []int) []int {
	counts := make(map[string]int)
	for _, i := range idx {
		counts[idKey(entries[i], reference.IDDOI)]++
	}
	var shared []int
	for _, i := range idx {
		if counts[idKey(entries[i], reference.IDDOI)] > 1 {
			shared = append(shared, i)
		}
	}
	return shared
}

// pick asks d which of the candidate entries to keep and returns its
// position in candidates.
func pick(entries []*reference.Entry, candidates []int, field reference.IDField, d Decider) (int, error) {
	q := Question{
		Prompt:  fmt.Sprintf("Duplicate %s field, []keep first, [2]second, [3]third, etc.:", field),
		Options: []string{""},
	}
	for n, i := range candidates {
		q.Labels = append(q.Labels, Ordinal(n+1)+" ENTRY:")
		q.Entries = append(q.Entries, entries[i])
		q.Options = append(q.Options, strconv.Itoa(n+1))
	}
	answer, err := ask(d, q)
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return 0, nil
	}
	n, _ := strconv.Atoi(answer)
	return n - 1, nil
}
