package search

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

const astropy = `@Misc{Astropy2013aaAstropy,
  author = {{Astropy Collaboration}},
  title  = {Astropy: A community Python package for astronomy},
  year   = 2013,
  adsurl = {https://ui.adsabs.harvard.edu/abs/2013A%26A...558A..33A},
}`

func collection(t *testing.T) []*reference.Entry {
	t.Helper()
	var entries []*reference.Entry
	for _, name := range []string{"jones_minimal", "jones_no_title", "hunter", "stodden", "beaulieu_apj", "sing"} {
		data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "bib", name+".bib"))
		if err != nil {
			t.Fatalf("failed to read fixture %s: %v", name, err)
		}
		entries = append(entries, mustNew(t, strings.TrimSpace(string(data))))
	}
	entries = append(entries, mustNew(t, astropy))
	entries[2].AddTags("ml", "bio")
	entries[3].AddTags("ml")
	return entries
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
	jones   = "JonesEtal2001scipy"
	noTitle = "JonesNoTitleEtal2001scipy"
	hunter  = "Hunter2007ieeeMatplotlib"
	stodden = "StoddenEtal2009ciseRRlegal"
	beaul   = "BeaulieuEtal2011apjGJ436bMethane"
	sing    = "SingEtal2016natHotJupiterTransmission"
	astro   = "Astropy2013aaAstropy"
)

func TestSearch(t *testing.T) {
	entries := collection(t)

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, []string{jones, noTitle, hunter, stodden, beaul, sing, astro}},
		{"co-author", Filters{Authors: []string{"Oliphant"}}, []string{jones, noTitle}},
		{"first author only", Filters{Authors: []string{"^Oliphant"}}, nil},
		{"first author with initial", Filters{Authors: []string{"^Jones, E"}}, []string{jones, noTitle}},
		{"wrong initial", Filters{Authors: []string{"Jones, T"}}, nil},
		{"authors AND", Filters{Authors: []string{"Beaulieu", "Tinetti"}}, []string{beaul}},
		{"authors AND no match", Filters{Authors: []string{"Beaulieu", "Sing"}}, nil},
		{"exact year", Filters{YearFrom: 2001, YearTo: 2001}, []string{jones, noTitle}},
		{"year range", Filters{YearFrom: 2007, YearTo: 2011}, []string{hunter, stodden, beaul}},
		{"open start", Filters{YearTo: 2001}, []string{jones, noTitle}},
		{"open end", Filters{YearFrom: 2013, YearTo: MaxYear}, []string{sing, astro}},
		{"title word", Filters{Title: []string{"MATPLOTLIB"}}, []string{hunter}},
		{"title words AND", Filters{Title: []string{"hot", "neptune"}}, []string{beaul}},
		{"title substring", Filters{Title: []string{"hot"}}, []string{beaul, sing}},
		{"keys OR", Filters{Keys: []string{stodden, hunter, "Missing"}}, []string{hunter, stodden}},
		{"bibcodes OR unescaped", Filters{Bibcodes: []string{"2013A%26A...558A..33A", "2016Natur.529...59S"}}, []string{sing, astro}},
		{"bibcode literal", Filters{Bibcodes: []string{"2013A&A...558A..33A"}}, []string{astro}},
		{"single tag", Filters{Tags: []string{"ml"}}, []string{hunter, stodden}},
		{"tags AND", Filters{Tags: []string{"ml", "bio"}}, []string{hunter}},
		{"kinds AND", Filters{Authors: []string{"Oliphant"}, Title: []string{"scipy"}}, []string{jones}},
		{"kinds AND no match", Filters{Authors: []string{"Hunter"}, YearFrom: 2008, YearTo: 2020}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Search(entries, tt.filters)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if !slices.Equal(keysOf(got), tt.want) {
				t.Errorf("Search(%+v) = %v, want %v", tt.filters, keysOf(got), tt.want)
			}
		})
	}
}

func TestSearch_BadAuthor(t *testing.T) {
	if _, err := Search(collection(t), Filters{Authors: []string{", John"}}); err == nil {
		t.Error("Search() expected error for author without last name")
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Filters
		wantErr error
	}{
		{
			name:  "first author",
			input: `author:"^Payne, C"`,
			want:  Filters{Authors: []string{"^Payne, C"}},
		},
		{
			name:  "several authors and titles",
			input: `author:"Payne, C" author:"Russell" title:"stellar" title:"atmospheres"`,
			want:  Filters{Authors: []string{"Payne, C", "Russell"}, Title: []string{"stellar", "atmospheres"}},
		},
		{
			name:  "exact year",
			input: "year: 1984",
			want:  Filters{YearFrom: 1984, YearTo: 1984},
		},
		{
			name:  "year range",
			input: "year:1984-2004",
			want:  Filters{YearFrom: 1984, YearTo: 2004},
		},
		{
			name:  "year up to",
			input: "year:-1984",
			want:  Filters{YearTo: 1984},
		},
		{
			name:  "year from",
			input: "year:1984-",
			want:  Filters{YearFrom: 1984, YearTo: MaxYear},
		},
		{
			name:  "unquoted fields",
			input: "key:Payne1925phdStellarAtmospheres bibcode:1925PhDT.........1P tags:stars tags:sun",
			want: Filters{
				Keys:     []string{"Payne1925phdStellarAtmospheres"},
				Bibcodes: []string{"1925PhDT.........1P"},
				Tags:     []string{"stars", "sun"},
			},
		},
		{
			name:  "combined",
			input: `author:"Payne, C" year:1925-1930`,
			want:  Filters{Authors: []string{"Payne, C"}, YearFrom: 1925, YearTo: 1930},
		},
		{name: "empty", input: "", wantErr: ErrEmptyQuery},
		{name: "unquoted author", input: "author:Payne", wantErr: ErrEmptyQuery},
		{name: "short year", input: "year:84", wantErr: ErrInvalidYear},
		{name: "bad range", input: "year:1984-85", wantErr: ErrInvalidYear},
		{name: "not a number", input: "year:nine", wantErr: ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuery(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseQuery(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	entries := collection(t)

	tests := []struct {
		name    string
		key     string
		bibcode string
		want    string
		wantErr error
	}{
		{"by key", hunter, "", hunter, nil},
		{"key wins over bibcode", hunter, "2016Natur.529...59S", hunter, nil},
		{"by bibcode", "", "2016Natur.529...59S", sing, nil},
		{"by escaped bibcode", "", "2013A%26A...558A..33A", astro, nil},
		{"missing key", "Nobody2000", "2016Natur.529...59S", "", ErrNotFound},
		{"missing bibcode", "", "2000Nope....1....1N", "", ErrNotFound},
		{"nothing given", "", "", "", ErrNoIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Find(entries, tt.key, tt.bibcode)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Find(%q, %q) error = %v, want %v", tt.key, tt.bibcode, err, tt.wantErr)
			}
			if tt.wantErr == nil && got.Key != tt.want {
				t.Errorf("Find(%q, %q) = %s, want %s", tt.key, tt.bibcode, got.Key, tt.want)
			}
		})
	}
}
