package git

import (
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// Diff lists the changes between two versions of the database, by key.
type Diff struct {
	Added    []*reference.Entry
	Removed  []*reference.Entry
	Modified []*reference.Entry // Current version of entries whose content or metadata changed
}

// IsEmpty reports whether the two versions hold the same entries.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Compare computes the difference from old to current. Results keep the
// order of the collection they come from.
func Compare(old, current []*reference.Entry) *Diff {
	oldMap := make(map[string]*reference.Entry, len(old))
	for _, e := range old {
		oldMap[e.Key] = e
	}
	currentMap := make(map[string]*reference.Entry, len(current))
	for _, e := range current {
		currentMap[e.Key] = e
	}

	d := &Diff{}
	for _, e := range current {
		prev, ok := oldMap[e.Key]
		switch {
		case !ok:
			d.Added = append(d.Added, e)
		case prev.Content != e.Content || prev.Meta() != e.Meta():
			d.Modified = append(d.Modified, e)
		}
	}
	for _, e := range old {
		if _, ok := currentMap[e.Key]; !ok {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}

// DiffSince compares the store at storePath with its version at commitRef.
func DiffSince(storePath, commitRef string, current []*reference.Entry) (*Diff, error) {
	old, err := EntriesAtCommit(storePath, commitRef)
	if err != nil {
		return nil, err
	}
	return Compare(old, current), nil
}
