package reference

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "bib", name+".bib"))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return strings.TrimSpace(string(data))
}

func loadEntry(t *testing.T, name string) *Entry {
	t.Helper()
	e, err := New(readFixture(t, name), nil)
	if err != nil {
		t.Fatalf("New(%s) error = %v", name, err)
	}
	return e
}

func mustNew(t *testing.T, content string) *Entry {
	t.Helper()
	e, err := New(content, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestNew_Minimal(t *testing.T) {
	content := readFixture(t, "jones_minimal")
	e := loadEntry(t, "jones_minimal")

	if e.Content != content {
		t.Errorf("Content = %q, want the input text", e.Content)
	}
	if e.Key != "JonesEtal2001scipy" {
		t.Errorf("Key = %q, want JonesEtal2001scipy", e.Key)
	}
	wantAuthors := []bibtex.Name{
		{Last: "Jones", First: "Eric"},
		{Last: "Oliphant", First: "Travis"},
		{Last: "Peterson", First: "Pearu"},
	}
	if !slices.Equal(e.Authors, wantAuthors) {
		t.Errorf("Authors = %+v, want %+v", e.Authors, wantAuthors)
	}
	wantKey := SortKey{HasAuthor: true, Last: "jones", First: "e", Year: 2001, Month: 13}
	if e.SortKey != wantKey {
		t.Errorf("SortKey = %+v, want %+v", e.SortKey, wantKey)
	}
	if e.Year != 2001 {
		t.Errorf("Year = %d, want 2001", e.Year)
	}
	if e.Title != "SciPy: Open source scientific tools for Python" {
		t.Errorf("Title = %q", e.Title)
	}
	if e.DOI != "" || e.Bibcode != "" || e.ADSURL != "" || e.Eprint != "" || e.ISBN != "" {
		t.Errorf("identifiers should be absent, got %+v", e)
	}
	if e.Month != MonthUnknown {
		t.Errorf("Month = %d, want %d", e.Month, MonthUnknown)
	}
	if e.PDF != "" || e.Freeze || e.Tags != nil {
		t.Errorf("metadata should be absent, got pdf=%q freeze=%v tags=%v", e.PDF, e.Freeze, e.Tags)
	}
}

func TestNew_ADSEntry(t *testing.T) {
	e := loadEntry(t, "sing")

	if e.Key != "SingEtal2016natHotJupiterTransmission" {
		t.Errorf("Key = %q", e.Key)
	}
	if len(e.Authors) != 21 {
		t.Fatalf("got %d authors, want 21", len(e.Authors))
	}
	checks := map[int]bibtex.Name{
		0:  {Last: "{Sing}", First: "D. K."},
		4:  {Last: "{Kataria}", First: "T."},
		10: {Last: `{D{\'e}sert}`, First: "J.-M."},
		15: {Last: "{Lecavelier Des Etangs}", First: "A."},
		18: {Last: "{Vidal-Madjar}", First: "A."},
		20: {Last: "{Wilson}", First: "P. A."},
	}
	for i, want := range checks {
		if e.Authors[i] != want {
			t.Errorf("Authors[%d] = %+v, want %+v", i, e.Authors[i], want)
		}
	}
	wantKey := SortKey{HasAuthor: true, Last: "sing", First: "dk", Year: 2016, Month: 1}
	if e.SortKey != wantKey {
		t.Errorf("SortKey = %+v, want %+v", e.SortKey, wantKey)
	}
	if e.Title != "A continuum from clear to cloudy hot-Jupiter exoplanets without primordial water depletion" {
		t.Errorf("Title = %q", e.Title)
	}
	if e.DOI != "10.1038/nature16068" {
		t.Errorf("DOI = %q", e.DOI)
	}
	if e.Bibcode != "2016Natur.529...59S" {
		t.Errorf("Bibcode = %q", e.Bibcode)
	}
	if e.ADSURL != "http://adsabs.harvard.edu/abs/2016Natur.529...59S" {
		t.Errorf("ADSURL = %q", e.ADSURL)
	}
	if e.Eprint != "1512.04341" {
		t.Errorf("Eprint = %q", e.Eprint)
	}
	if e.ISBN != "" {
		t.Errorf("ISBN = %q, want empty", e.ISBN)
	}
	if e.Month != 1 {
		t.Errorf("Month = %d, want 1", e.Month)
	}
}

func TestNew_Identifiers(t *testing.T) {
	e := mustNew(t, `@Book{Doe2020,
  author = {Doe, J.},
  title  = {A Book},
  year   = 2020,
  eprint = {arXiv:astro-ph/0101001},
  isbn   = { 978-3-319-55333-X },
  adsurl = {http://adsabs.harvard.edu/abs/2020A\%26A...641A...1P},
}`)
	if e.Eprint != "0101001" {
		t.Errorf("Eprint = %q, want 0101001", e.Eprint)
	}
	if e.ISBN != "978-3-319-55333-x" {
		t.Errorf("ISBN = %q, want lowercased and trimmed", e.ISBN)
	}
	if e.Bibcode != "2020A&A...641A...1P" {
		t.Errorf("Bibcode = %q, want 2020A&A...641A...1P", e.Bibcode)
	}
}

func TestNew_MismatchedBraces(t *testing.T) {
	_, err := New(readFixture(t, "jones_braces"), nil)
	if !errors.Is(err, bibtex.ErrMalformedEntry) {
		t.Errorf("New(jones_braces) error = %v, want ErrMalformedEntry", err)
	}
}

func TestNew_NoAuthor(t *testing.T) {
	e := loadEntry(t, "jones_no_author")
	if e.Authors != nil {
		t.Errorf("Authors = %+v, want nil", e.Authors)
	}
	if e.SortKey.HasAuthor {
		t.Error("SortKey.HasAuthor = true, want false")
	}
}

func TestNew_Month(t *testing.T) {
	tests := []struct {
		field string
		want  int
	}{
		{"", 13},
		{"month  = {},", 13},
		{"month  = {Jan},", 1},
		{"month  = {1},", 1},
		{"month  = dec,", 12},
		{"month  = {September},", 9},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			e := mustNew(t, `@Misc{JonesEtal2001scipy,
       author = {Eric Jones},
       title  = {SciPy},
       year   = {2001},
       `+tt.field+"}")
			if e.Month != tt.want {
				t.Errorf("Month = %d, want %d", e.Month, tt.want)
			}
		})
	}
}

func TestNew_MonthWarning(t *testing.T) {
	for _, month := range []string{"15", "tuesday"} {
		t.Run(month, func(t *testing.T) {
			var warn bibtex.Warnings
			e, err := New(`@Misc{JonesEtal2001scipy,
       author = {Eric Jones},
       title  = {SciPy},
       year   = {2001},
       month = `+month+",}", &warn)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if e.Month != MonthUnknown {
				t.Errorf("Month = %d, want %d", e.Month, MonthUnknown)
			}
			if len(warn) != 1 {
				t.Fatalf("got %d warnings, want 1", len(warn))
			}
			want := "Invalid month value '" + month + "' for entry 'JonesEtal2001scipy'"
			if warn[0].Message != want {
				t.Errorf("warning = %q, want %q", warn[0].Message, want)
			}
			if warn[0].Kind != bibtex.FieldFormat {
				t.Errorf("warning kind = %q, want %q", warn[0].Kind, bibtex.FieldFormat)
			}
		})
	}
}

func TestNew_YearWarning(t *testing.T) {
	var warn bibtex.Warnings
	e, err := New(`@Misc{JonesEtal2001scipy,
       author = {Eric Jones},
       title  = {SciPy},
       year   = {200X},
    }`, &warn)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if e.Year != 0 {
		t.Errorf("Year = %d, want 0", e.Year)
	}
	if len(warn) != 1 || warn[0].Message != "Bad year format value '200X' for entry 'JonesEtal2001scipy'" {
		t.Errorf("warnings = %v", warn)
	}
}

func TestNew_AuthorCommaTypo(t *testing.T) {
	tests := []struct {
		name        string
		author      string
		wantAuthors int
		wantFirst   string
		wantMessage string
	}{
		{
			name:        "trailing comma",
			author:      "{Andreani}, P and {Trigo}, M, D, and {Remijan}, A",
			wantAuthors: 3,
			wantFirst:   "M D",
			wantMessage: "Too many commas in name '{Trigo}, M, D,' for entry 'Joint2017ALMAGuide'",
		},
		{
			name:        "missing and",
			author:      "{Andreani}, P and {Trigo}, M, {Remijan}, A",
			wantAuthors: 2,
			wantFirst:   "M {Remijan} A",
			wantMessage: "Too many commas in name '{Trigo}, M, {Remijan}, A' for entry 'Joint2017ALMAGuide'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warn bibtex.Warnings
			e, err := New(`@article{Joint2017ALMAGuide,
    title = {{ALMA Proposer's Guide}},
    year = {2017},
    author = {`+tt.author+`},
    }`, &warn)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if len(e.Authors) != tt.wantAuthors {
				t.Fatalf("got %d authors, want %d", len(e.Authors), tt.wantAuthors)
			}
			if e.Authors[1].First != tt.wantFirst {
				t.Errorf("Authors[1].First = %q, want %q", e.Authors[1].First, tt.wantFirst)
			}
			if len(warn) == 0 || warn[0].Message != tt.wantMessage {
				t.Errorf("warnings = %v, want %q", warn, tt.wantMessage)
			}
		})
	}
}

func TestRekey(t *testing.T) {
	e := loadEntry(t, "jones_minimal")
	e.Rekey("JonesOliphantPeterson2001scipy")
	if e.Key != "JonesOliphantPeterson2001scipy" {
		t.Errorf("Key = %q", e.Key)
	}
	want := `@Misc{JonesOliphantPeterson2001scipy,
  author = {Eric Jones and Travis Oliphant and Pearu Peterson},
  title  = {{SciPy}: Open source scientific tools for {Python}},
  year   = {2001},
}`
	if e.Content != want {
		t.Errorf("Content = %q, want %q", e.Content, want)
	}
}

func TestRekey_KeyInsideEntryType(t *testing.T) {
	tests := []struct {
		content string
		newKey  string
		want    string
	}{
		{"@Misc{M,\n  title = {Mm}}", "Smith2020", "@Misc{Smith2020,\n  title = {Mm}}"},
		{"@Article{ Art , title = {Art}}", "Art2", "@Article{ Art2 , title = {Art}}"},
		{"@Book{ook,\n  title = {ook}}", "Book2020", "@Book{Book2020,\n  title = {ook}}"},
	}

	for _, tt := range tests {
		t.Run(tt.newKey, func(t *testing.T) {
			e := mustNew(t, tt.content)
			e.Rekey(tt.newKey)
			if e.Content != tt.want {
				t.Errorf("Rekey(%q) content = %q, want %q", tt.newKey, e.Content, tt.want)
			}
			again := mustNew(t, e.Content)
			if again.Key != tt.newKey {
				t.Errorf("reparsed key = %q, want %q", again.Key, tt.newKey)
			}
		})
	}
}

func TestUpdateContent(t *testing.T) {
	e1 := loadEntry(t, "jones_minimal")
	e1.Bibcode = "bibcode1"
	e1.PDF = "pdf1"
	e1.Freeze = true
	e1.Tags = []string{"old"}
	e2 := loadEntry(t, "jones_minimal")
	e2.PDF = "pdf2"

	e1.UpdateContent(e2)

	if e1.Bibcode != "" {
		t.Errorf("Bibcode = %q, want it replaced by the absent value", e1.Bibcode)
	}
	if e1.PDF != "pdf2" {
		t.Errorf("PDF = %q, want pdf2", e1.PDF)
	}
	if !e1.Freeze {
		t.Error("Freeze = false, want it kept")
	}
	if !slices.Equal(e1.Tags, []string{"old"}) {
		t.Errorf("Tags = %v, want [old]", e1.Tags)
	}
}

func TestClone(t *testing.T) {
	e := loadEntry(t, "jones_minimal")
	e.Tags = []string{"a"}
	c := e.Clone()
	c.Tags[0] = "b"
	c.Authors[0].Last = "Other"
	if e.Tags[0] != "a" || e.Authors[0].Last != "Jones" {
		t.Error("Clone shares slices with the original")
	}
}

func TestMeta(t *testing.T) {
	e := loadEntry(t, "jones_minimal")
	if got := e.Meta(); got != "" {
		t.Errorf("Meta() = %q, want empty", got)
	}
	e.Freeze = true
	e.PDF = "file.pdf"
	if got := e.Meta(); got != "freeze\npdf: file.pdf\n" {
		t.Errorf("Meta() = %q", got)
	}
	e.Tags = []string{"planets", "transits"}
	if got := e.Meta(); got != "freeze\npdf: file.pdf\ntags: planets transits\n" {
		t.Errorf("Meta() = %q", got)
	}
}

func TestPublished(t *testing.T) {
	const head = `@ARTICLE{DoeEtal2020,
          author = {{Doe}, J. and {Perez}, J. and {Dupont}, J.},
           title = "What Have the Astromomers ever Done for Us?",
`
	tests := []struct {
		name   string
		adsurl string
		want   int
	}{
		{"peer reviewed", "adsurl = {http://adsabs.harvard.edu/abs/2016Natur.123...45S},\n", 1},
		{"arxiv", "adsurl = {http://adsabs.harvard.edu/abs/2016arXiv0123.0045S},\n", 0},
		{"non ads", "", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustNew(t, head+tt.adsurl+"            year = 2020,}")
			if got := e.Published(); got != tt.want {
				t.Errorf("Published() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTags(t *testing.T) {
	e := loadEntry(t, "jones_minimal")
	e.AddTags("python", "numerics", "python", "")
	if !slices.Equal(e.Tags, []string{"numerics", "python"}) {
		t.Errorf("Tags = %v, want [numerics python]", e.Tags)
	}
	if !e.HasTag("python") || e.HasTag("astro") {
		t.Errorf("HasTag gave wrong answers for %v", e.Tags)
	}
	e.RemoveTags("numerics", "python")
	if e.Tags != nil {
		t.Errorf("Tags = %v, want nil", e.Tags)
	}
}

func TestID(t *testing.T) {
	e := loadEntry(t, "sing")
	tests := []struct {
		field IDField
		want  string
	}{
		{IDDOI, "10.1038/nature16068"},
		{IDISBN, ""},
		{IDBibcode, "2016Natur.529...59S"},
		{IDEprint, "1512.04341"},
	}
	for _, tt := range tests {
		if got := e.ID(tt.field); got != tt.want {
			t.Errorf("ID(%s) = %q, want %q", tt.field, got, tt.want)
		}
		parsed, err := ParseIDField(tt.field.String())
		if err != nil || parsed != tt.field {
			t.Errorf("ParseIDField(%q) = %v, %v", tt.field.String(), parsed, err)
		}
	}
	if _, err := ParseIDField("url"); err == nil {
		t.Error("ParseIDField(url) should fail")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want FieldKind
	}{
		{"title", FieldTitle},
		{"author", FieldAuthor},
		{"adsurl", FieldADSURL},
		{"journal", FieldOther},
		{"Title", FieldOther},
	}
	for _, tt := range tests {
		if got := KindOf(tt.name); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
