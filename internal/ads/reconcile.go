package ads

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// MaxBatch is the largest number of bibcodes sent in one export request.
const MaxBatch = 2000

// ErrMismatchedRequest is returned when the lists of a Request differ in
// length.
var ErrMismatchedRequest = errors.New("bibcodes, keys, eprints and dois must have the same length")

// Request lists the records to fetch. Keys[i] is the citation key wanted
// for Bibcodes[i]; Eprints and DOIs, when given, identify the same work
// and let a record returned under a newer bibcode still be matched.
type Request struct {
	Bibcodes []string
	Keys     []string
	Eprints  []string
	DOIs     []string
	Tags     []string // Added to every fetched entry
}

// Options configures ReconcileIncoming.
type Options struct {
	// UpdateKeys rewrites the year and the arXiv journal code of a key when
	// its record moved from a preprint to a published bibcode.
	UpdateKeys bool
	Decider    conflict.Decider
}

// KeyChange is a key rewritten by KeyUpdate.
type KeyChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Reconciliation reports what ReconcileIncoming did.
type Reconciliation struct {
	Entries      []*reference.Entry // Merged collection, sorted
	Merge        conflict.Result
	KeyChanges   []KeyChange
	ArxivUpdates int      // Entries moved from an arXiv to a published bibcode
	Unmatched    []string // Requested bibcodes with no record
	Unexpected   []string // Returned records matching no request
	Warnings     bibtex.Warnings
}

// ReconcileIncoming fetches the requested records, matches each to its
// request by bibcode, else eprint, else DOI, gives it the requested key
// and merges it into existing, preferring the incoming version.
func ReconcileIncoming(ctx context.Context, f Fetcher, existing []*reference.Entry, req Request, opts Options) (*Reconciliation, error) {
	n := len(req.Bibcodes)
	if len(req.Keys) != n || (req.Eprints != nil && len(req.Eprints) != n) || (req.DOIs != nil && len(req.DOIs) != n) {
		return nil, ErrMismatchedRequest
	}

	var records []string
	for start := 0; start < n; start += MaxBatch {
		end := min(start+MaxBatch, n)
		export, err := f.FetchBibTeX(ctx, req.Bibcodes[start:end])
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		records = append(records, export.Records...)
	}

	rec := &Reconciliation{}
	found := make([]bool, n)
	var incoming []*reference.Entry

	for _, record := range records {
		e, err := reference.New(record, &rec.Warnings)
		if err != nil {
			rec.Unexpected = append(rec.Unexpected, record)
			continue
		}
		i := match(req, found, e)
		if i < 0 {
			rec.Unexpected = append(rec.Unexpected, record)
			continue
		}
		found[i] = true

		key := req.Keys[i]
		if opts.UpdateKeys {
			if updated := KeyUpdate(key, e.Key, req.Bibcodes[i]); !strings.EqualFold(updated, key) {
				rec.KeyChanges = append(rec.KeyChanges, KeyChange{Old: key, New: updated})
				key = updated
			}
		}
		if strings.Contains(req.Bibcodes[i], "arXiv") && !strings.Contains(e.Bibcode, "arXiv") {
			rec.ArxivUpdates++
		}
		e.Rekey(key)
		e.AddTags(req.Tags...)
		incoming = append(incoming, e)
	}

	for i, ok := range found {
		if !ok {
			rec.Unmatched = append(rec.Unmatched, req.Bibcodes[i])
		}
	}

	res, err := conflict.Merge(existing, incoming, conflict.Options{Policy: conflict.PreferIncoming, Decider: opts.Decider})
	if err != nil {
		return nil, err
	}
	rec.Merge = res
	rec.Entries = res.Entries
	return rec, nil
}

// match returns the index of the request e answers, or -1. The record key
// of an ADS export is its bibcode.
func match(req Request, found []bool, e *reference.Entry) int {
	lookup := func(values []string, v string) int {
		if v == "" {
			return -1
		}
		for i, w := range values {
			if w == v && !found[i] {
				return i
			}
		}
		return -1
	}
	if i := lookup(req.Bibcodes, e.Key); i >= 0 {
		return i
	}
	if i := lookup(req.Eprints, e.Eprint); i >= 0 {
		return i
	}
	return lookup(req.DOIs, e.DOI)
}

// UpdateAll re-fetches every entry that has a bibcode and is not frozen,
// so that preprints are replaced by their published versions.
func UpdateAll(ctx context.Context, f Fetcher, existing []*reference.Entry, opts Options) (*Reconciliation, error) {
	var req Request
	for _, e := range existing {
		if e.Bibcode == "" || e.Freeze {
			continue
		}
		req.Bibcodes = append(req.Bibcodes, e.Bibcode)
		req.Keys = append(req.Keys, e.Key)
		req.Eprints = append(req.Eprints, e.Eprint)
		req.DOIs = append(req.DOIs, e.DOI)
	}
	if len(req.Bibcodes) == 0 {
		return &Reconciliation{Entries: slices.Clone(existing)}, nil
	}
	return ReconcileIncoming(ctx, f, existing, req, opts)
}

// KeyUpdate rewrites key for a record whose bibcode changed from
// oldBibcode. The year of oldBibcode is replaced once by the new year, and
// the first case-insensitive "arxiv" by the journal code of bibcode:
//
//	KeyUpdate("BeaulieuEtal2010arxivGJ436b", "2011ApJ...731...16B", "2010arXiv1007.0324B")
//	// "BeaulieuEtal2011apjGJ436b"
func KeyUpdate(key, bibcode, oldBibcode string) string {
	if len(bibcode) >= 4 && len(oldBibcode) >= 4 {
		oldYear, year := oldBibcode[:4], bibcode[:4]
		if oldYear != year && strings.Contains(key, oldYear) {
			key = strings.Replace(key, oldYear, year, 1)
		}
	}

	if len(bibcode) < 9 {
		return key
	}
	journal := strings.ToLower(strings.NewReplacer(".", "", "&", "").Replace(bibcode[4:9]))
	if i := strings.Index(strings.ToLower(key), "arxiv"); i >= 0 {
		key = key[:i] + journal + key[i+len("arxiv"):]
	}
	return key
}

// Summary renders the warnings an interactive command prints after a
// reconciliation, or "" when everything matched.
func (r *Reconciliation) Summary() string {
	var b strings.Builder
	if len(r.Unmatched) > 0 {
		fmt.Fprintf(&b, "There were bibcodes unmatched or not found in ADS:\n - %s\n", strings.Join(r.Unmatched, "\n - "))
	}
	if len(r.Unexpected) > 0 {
		fmt.Fprintf(&b, "These ADS results did not match input bibcodes:\n\n%s\n", strings.Join(r.Unexpected, "\n\n"))
	}
	if r.ArxivUpdates > 0 {
		fmt.Fprintf(&b, "There were %d entries updated from ArXiv to their peer-reviewed version.\n", r.ArxivUpdates)
	}
	if len(r.KeyChanges) > 0 {
		b.WriteString("These entries changed their key:\n")
		for _, c := range r.KeyChanges {
			fmt.Fprintf(&b, "  %s -> %s\n", c.Old, c.New)
		}
	}
	return b.String()
}
