package conflict

import (
	"fmt"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// Policy decides identifier matches between an existing and an incoming
// entry of the same work.
type Policy int

const (
	// PreferExisting replaces an existing entry only with a better
	// published incoming one.
	PreferExisting Policy = iota
	// PreferIncoming always takes the incoming entry, and takes incoming
	// content on key collisions without asking.
	PreferIncoming
	// Ask behaves like PreferExisting but, when an incoming entry that is
	// not better published has a different key, asks whether to take it.
	Ask
)

func (p Policy) String() string {
	switch p {
	case PreferExisting:
		return "old"
	case PreferIncoming:
		return "new"
	case Ask:
		return "ask"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps "old", "new" or "ask" to its Policy.
func ParsePolicy(s string) (Policy, error) {
	for _, p := range []Policy{PreferExisting, PreferIncoming, Ask} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown merge policy %q (want old, new or ask)", s)
}

// Options configures Merge.
type Options struct {
	Policy  Policy
	Decider Decider // Defaults{} when nil
}

// Result reports what Merge did.
type Result struct {
	Entries  []*reference.Entry // Merged collection, sorted
	Added    []string           // Keys of incoming entries added as new
	Replaced []string           // Keys of existing entries whose content was replaced
	Renamed  map[string]string  // Incoming key -> key it was added under
	Skipped  []string           // Keys of incoming entries dropped
}

// Merge folds incoming into existing and returns the union, sorted.
//
// The existing entries are updated in place; incoming entries are copied,
// never aliased. Stages run in order, each on what the previous one left:
//  1. identifier matches (DOI, ISBN, bibcode, eprint) update the existing
//     entry when the incoming one is better published or the policy is
//     PreferIncoming. Under Ask, a match with a different key is asked
//     about. The incoming entry is consumed either way. ISBN matches also
//     require equal DOIs;
//  2. key collisions drop identical contents and otherwise ask to ignore,
//     take or rename the incoming entry;
//  3. title collisions ask to ignore, replace or add;
//  4. what is left is added and the result is re-sorted.
func Merge(existing, incoming []*reference.Entry, opts Options) (Result, error) {
	res := Result{Renamed: make(map[string]string)}
	d := opts.Decider
	if d == nil {
		d = Defaults{}
	}

	pending := make([]*reference.Entry, len(incoming))
	for i, e := range incoming {
		pending[i] = e.Clone()
	}

	var err error
	for _, field := range reference.IDFields {
		pending, err = mergeIdentifiers(existing, pending, field, opts.Policy, d, &res)
		if err != nil {
			return Result{}, err
		}
	}
	if pending, err = mergeKeys(existing, pending, opts.Policy, d, &res); err != nil {
		return Result{}, err
	}
	if pending, err = mergeTitles(existing, pending, d, &res); err != nil {
		return Result{}, err
	}

	merged := make([]*reference.Entry, 0, len(existing)+len(pending))
	merged = append(merged, existing...)
	for _, e := range pending {
		merged = append(merged, e)
		res.Added = append(res.Added, e.Key)
	}
	reference.Sort(merged)
	res.Entries = merged
	return res, nil
}

func mergeIdentifiers(existing, pending []*reference.Entry, field reference.IDField, policy Policy, d Decider, res *Result) ([]*reference.Entry, error) {
	var rest []*reference.Entry
	for _, in := range pending {
		v := idKey(in, field)
		old := findEntry(existing, func(e *reference.Entry) bool {
			if v == "" || idKey(e, field) != v {
				return false
			}
			// Chapters of one book share the ISBN but not the DOI.
			return field != reference.IDISBN || idKey(e, reference.IDDOI) == idKey(in, reference.IDDOI)
		})
		if old == nil {
			rest = append(rest, in)
			continue
		}

		if in.Published() <= old.Published() && policy != PreferIncoming {
			take := false
			if policy == Ask && in.Key != old.Key {
				answer, err := ask(d, Question{
					Prompt:  fmt.Sprintf("Duplicate %s field but different keys, []keep database or take [n]ew:", field),
					Labels:  []string{"DATABASE:", "NEW:"},
					Entries: []*reference.Entry{old, in},
					Options: []string{"", "n"},
				})
				if err != nil {
					return nil, err
				}
				take = answer == "n"
			}
			if !take {
				res.Skipped = append(res.Skipped, in.Key)
				continue
			}
		}
		replace(existing, old, in)
		res.Replaced = append(res.Replaced, old.Key)
	}
	return rest, nil
}

// replace updates old with the content of in. If the incoming key already
// belongs to another existing entry, old keeps its own key.
func replace(existing []*reference.Entry, old, in *reference.Entry) {
	oldKey := old.Key
	taken := findEntry(existing, func(e *reference.Entry) bool { return e != old && e.Key == in.Key }) != nil
	old.UpdateContent(in)
	if taken {
		old.Rekey(oldKey)
	}
}

func mergeKeys(existing, pending []*reference.Entry, policy Policy, d Decider, res *Result) ([]*reference.Entry, error) {
	keys := make(map[string]*reference.Entry, len(existing)+len(pending))
	for _, e := range existing {
		keys[e.Key] = e
	}

	var rest []*reference.Entry
	for _, in := range pending {
		old, ok := keys[in.Key]
		if !ok {
			keys[in.Key] = in
			rest = append(rest, in)
			continue
		}
		if old.Content == in.Content {
			res.Skipped = append(res.Skipped, in.Key)
			continue
		}

		answer := "n"
		if policy != PreferIncoming {
			var err error
			answer, err = ask(d, Question{
				Prompt:  "Duplicate key but content differ.\n[]ignore new, take [n]ew, or\n[r]ename key of new entry:",
				Labels:  []string{"DATABASE:", "NEW:"},
				Entries: []*reference.Entry{old, in},
				Options: []string{"", "n", "r"},
			})
			if err != nil {
				return nil, err
			}
		}

		switch answer {
		case "":
			res.Skipped = append(res.Skipped, in.Key)
		case "n":
			old.UpdateContent(in)
			res.Replaced = append(res.Replaced, old.Key)
		case "r":
			newKey, err := d.NewKey(in)
			if err != nil {
				return nil, err
			}
			if _, taken := keys[newKey]; newKey == "" || taken {
				return nil, fmt.Errorf("%w: key %q is empty or already in use", ErrInvalidChoice, newKey)
			}
			res.Renamed[in.Key] = newKey
			in.Rekey(newKey)
			keys[newKey] = in
			rest = append(rest, in)
		}
	}
	return rest, nil
}

func mergeTitles(existing, pending []*reference.Entry, d Decider, res *Result) ([]*reference.Entry, error) {
	var rest []*reference.Entry
	for _, in := range pending {
		old := findEntry(existing, func(e *reference.Entry) bool { return in.Title != "" && e.Title == in.Title })
		if old == nil {
			rest = append(rest, in)
			continue
		}

		answer, err := ask(d, Question{
			Prompt:  "Found entry with same title.\n[]ignore new, [r]eplace database with new, or [a]dd new:",
			Labels:  []string{"DATABASE:", "NEW:"},
			Entries: []*reference.Entry{old, in},
			Options: []string{"", "r", "a"},
		})
		if err != nil {
			return nil, err
		}
		switch answer {
		case "":
			res.Skipped = append(res.Skipped, in.Key)
		case "r":
			old.UpdateContent(in)
			res.Replaced = append(res.Replaced, old.Key)
		case "a":
			rest = append(rest, in)
		}
	}
	return rest, nil
}

func findEntry(entries []*reference.Entry, match func(*reference.Entry) bool) *reference.Entry {
	for _, e := range entries {
		if match(e) {
			return e
		}
	}
	return nil
}
