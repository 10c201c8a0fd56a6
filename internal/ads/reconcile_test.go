package ads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// fakeFetcher answers each requested bibcode with the record stored under
// it, the way ADS answers an old bibcode with the current record.
type fakeFetcher struct {
	records map[string]string
	err     error
	calls   [][]string
}

func (f *fakeFetcher) FetchBibTeX(ctx context.Context, bibcodes []string) (*Export, error) {
	f.calls = append(f.calls, bibcodes)
	if f.err != nil {
		return nil, f.err
	}
	export := &Export{}
	for _, b := range bibcodes {
		if r, ok := f.records[b]; ok {
			export.Records = append(export.Records, r)
			export.Found++
		}
	}
	return export, nil
}

func readBib(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "bib", name+".bib"))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return strings.TrimSpace(string(data))
}

// asADS returns the fixture as ADS exports it, keyed by its bibcode.
func asADS(t *testing.T, name, key, bibcode string) string {
	t.Helper()
	return strings.Replace(readBib(t, name), key, bibcode, 1)
}

func mustNew(t *testing.T, content string) *reference.Entry {
	t.Helper()
	e, err := reference.New(content, nil)
	if err != nil {
		t.Fatalf("reference.New() error = %v", err)
	}
	return e
}

func keysOf(entries []*reference.Entry) []string {
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

const (
	singBibcode  = "2016Natur.529...59S"
	arxivBibcode = "2010arXiv1007.0324B"
	apjBibcode   = "2011ApJ...731...16B"
)

func TestReconcileIncoming_AddsWithKeyAndTags(t *testing.T) {
	f := &fakeFetcher{records: map[string]string{
		singBibcode: asADS(t, "sing", "SingEtal2016natHotJupiterTransmission", singBibcode),
	}}
	existing := []*reference.Entry{mustNew(t, readBib(t, "hunter"))}

	rec, err := ReconcileIncoming(context.Background(), f, existing, Request{
		Bibcodes: []string{singBibcode},
		Keys:     []string{"Sing2016"},
		Tags:     []string{"exo"},
	}, Options{UpdateKeys: true})
	if err != nil {
		t.Fatalf("ReconcileIncoming() error = %v", err)
	}

	if got := keysOf(rec.Entries); !slices.Equal(got, []string{"Hunter2007ieeeMatplotlib", "Sing2016"}) {
		t.Fatalf("entries = %v", got)
	}
	sing := rec.Entries[1]
	if !strings.HasPrefix(sing.Content, "@ARTICLE{Sing2016,") || !sing.HasTag("exo") {
		t.Errorf("added entry = %q tags %v", sing.Content[:30], sing.Tags)
	}
	if !slices.Equal(rec.Merge.Added, []string{"Sing2016"}) {
		t.Errorf("Added = %v", rec.Merge.Added)
	}
	if len(rec.KeyChanges) != 0 || rec.ArxivUpdates != 0 || rec.Unmatched != nil || rec.Unexpected != nil {
		t.Errorf("unexpected report: %+v", rec)
	}
	if rec.Summary() != "" {
		t.Errorf("Summary() = %q, want empty", rec.Summary())
	}
}

func TestUpdateAll_ArxivToPublished(t *testing.T) {
	f := &fakeFetcher{records: map[string]string{
		arxivBibcode: asADS(t, "beaulieu_apj", "BeaulieuEtal2011apjGJ436bMethane", apjBibcode),
	}}
	arxiv := mustNew(t, readBib(t, "beaulieu_arxiv"))
	arxiv.PDF = "Beaulieu2010.pdf"
	frozen := mustNew(t, readBib(t, "sing"))
	frozen.Freeze = true
	existing := []*reference.Entry{arxiv, mustNew(t, readBib(t, "hunter")), frozen}

	rec, err := UpdateAll(context.Background(), f, existing, Options{UpdateKeys: true})
	if err != nil {
		t.Fatalf("UpdateAll() error = %v", err)
	}

	if len(f.calls) != 1 || !slices.Equal(f.calls[0], []string{arxivBibcode}) {
		t.Errorf("requested %v, want only the unfrozen bibcode", f.calls)
	}
	want := []string{"BeaulieuEtal2011apjGJ436b", "Hunter2007ieeeMatplotlib", "SingEtal2016natHotJupiterTransmission"}
	if got := keysOf(rec.Entries); !slices.Equal(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	updated := rec.Entries[0]
	if updated.Bibcode != apjBibcode || updated.Year != 2011 || updated.PDF != "Beaulieu2010.pdf" {
		t.Errorf("updated entry = bibcode %s year %d pdf %q", updated.Bibcode, updated.Year, updated.PDF)
	}
	wantChange := []KeyChange{{Old: "BeaulieuEtal2010arxivGJ436b", New: "BeaulieuEtal2011apjGJ436b"}}
	if !slices.Equal(rec.KeyChanges, wantChange) {
		t.Errorf("KeyChanges = %v, want %v", rec.KeyChanges, wantChange)
	}
	if rec.ArxivUpdates != 1 {
		t.Errorf("ArxivUpdates = %d, want 1", rec.ArxivUpdates)
	}
	if s := rec.Summary(); !strings.Contains(s, "1 entries updated from ArXiv") || !strings.Contains(s, "BeaulieuEtal2010arxivGJ436b -> BeaulieuEtal2011apjGJ436b") {
		t.Errorf("Summary() = %q", s)
	}
}

func TestUpdateAll_KeepKeys(t *testing.T) {
	f := &fakeFetcher{records: map[string]string{
		arxivBibcode: asADS(t, "beaulieu_apj", "BeaulieuEtal2011apjGJ436bMethane", apjBibcode),
	}}
	existing := []*reference.Entry{mustNew(t, readBib(t, "beaulieu_arxiv"))}

	rec, err := UpdateAll(context.Background(), f, existing, Options{})
	if err != nil {
		t.Fatalf("UpdateAll() error = %v", err)
	}
	if got := keysOf(rec.Entries); !slices.Equal(got, []string{"BeaulieuEtal2010arxivGJ436b"}) {
		t.Errorf("entries = %v", got)
	}
	if rec.Entries[0].Bibcode != apjBibcode || rec.KeyChanges != nil {
		t.Errorf("bibcode %s, key changes %v", rec.Entries[0].Bibcode, rec.KeyChanges)
	}
}

func TestUpdateAll_NothingToUpdate(t *testing.T) {
	f := &fakeFetcher{}
	existing := []*reference.Entry{mustNew(t, readBib(t, "hunter"))}
	rec, err := UpdateAll(context.Background(), f, existing, Options{})
	if err != nil {
		t.Fatalf("UpdateAll() error = %v", err)
	}
	if len(f.calls) != 0 || len(rec.Entries) != 1 {
		t.Errorf("calls %v, entries %v", f.calls, keysOf(rec.Entries))
	}
}

func TestReconcileIncoming_UnmatchedAndUnexpected(t *testing.T) {
	f := &fakeFetcher{records: map[string]string{
		singBibcode: readBib(t, "hunter"),
	}}

	rec, err := ReconcileIncoming(context.Background(), f, nil, Request{
		Bibcodes: []string{singBibcode, "1925PhDT.........1P"},
		Keys:     []string{"Sing2016", "Payne1925"},
	}, Options{})
	if err != nil {
		t.Fatalf("ReconcileIncoming() error = %v", err)
	}
	if !slices.Equal(rec.Unmatched, []string{singBibcode, "1925PhDT.........1P"}) {
		t.Errorf("Unmatched = %v", rec.Unmatched)
	}
	if len(rec.Unexpected) != 1 || !strings.HasPrefix(rec.Unexpected[0], "@Article{Hunter2007") {
		t.Errorf("Unexpected = %v", rec.Unexpected)
	}
	if len(rec.Entries) != 0 {
		t.Errorf("entries = %v, want none", keysOf(rec.Entries))
	}
	s := rec.Summary()
	if !strings.Contains(s, " - 1925PhDT.........1P") || !strings.Contains(s, "did not match input bibcodes") {
		t.Errorf("Summary() = %q", s)
	}
}

func TestReconcileIncoming_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		req     Request
		wantErr error
	}{
		{
			name:    "mismatched keys",
			fetcher: &fakeFetcher{},
			req:     Request{Bibcodes: []string{singBibcode}},
			wantErr: ErrMismatchedRequest,
		},
		{
			name:    "mismatched eprints",
			fetcher: &fakeFetcher{},
			req:     Request{Bibcodes: []string{singBibcode}, Keys: []string{"k"}, Eprints: []string{"a", "b"}},
			wantErr: ErrMismatchedRequest,
		},
		{
			name:    "unauthorized",
			fetcher: &fakeFetcher{err: ErrUnauthorized},
			req:     Request{Bibcodes: []string{singBibcode}, Keys: []string{"k"}},
			wantErr: ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReconcileIncoming(context.Background(), tt.fetcher, nil, tt.req, Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReconcileIncoming() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReconcileIncoming_NotFoundIsUnmatched(t *testing.T) {
	f := &fakeFetcher{err: ErrNoResults}
	rec, err := ReconcileIncoming(context.Background(), f, nil, Request{
		Bibcodes: []string{"1925PhDT....X....1P"},
		Keys:     []string{"Payne1925"},
	}, Options{})
	if err != nil {
		t.Fatalf("ReconcileIncoming() error = %v", err)
	}
	if !slices.Equal(rec.Unmatched, []string{"1925PhDT....X....1P"}) {
		t.Errorf("Unmatched = %v", rec.Unmatched)
	}
}

func TestKeyUpdate(t *testing.T) {
	tests := []struct {
		key, bibcode, old string
		want              string
	}{
		{"BeaulieuEtal2010arxivGJ436b", "2011ApJ...731...16B", "2010arXiv1007.0324B", "BeaulieuEtal2011apjGJ436b"},
		{"CubillosEtal2018arXivRetrievals", "2019A&A...550A.100B", "2018arXiv123401234B", "CubillosEtal2019aaRetrievals"},
		{"Sing2016", "2016Natur.529...59S", "2016Natur.529...59S", "Sing2016"},
		{"SmithARXIV", "2011ApJ...731...16B", "2010arXiv1007.0324B", "Smithapj"},
		{"Smith2010", "2011", "2010arXiv1007.0324B", "Smith2011"},
		{"Smitharxiv", "", "", "Smitharxiv"},
	}

	for _, tt := range tests {
		if got := KeyUpdate(tt.key, tt.bibcode, tt.old); got != tt.want {
			t.Errorf("KeyUpdate(%q, %q, %q) = %q, want %q", tt.key, tt.bibcode, tt.old, got, tt.want)
		}
	}
}
