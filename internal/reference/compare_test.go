package reference

import (
	"testing"
)

const (
	wind1978 = `@MISC{1978windEnergyReport,
        title = "{Wind energy systems: Program summary}",
         year = 1978,
    }`
	newWind1978 = `@MISC{1978NewWindEnergyReport,
        title = "{New wind energy systems: Program summary}",
         year = 1978,
    }`
	newWind1979 = `@MISC{1979NewWindEnergyReport,
        title = "{New wind energy systems: Program summary}",
         year = 1979,
    }`
	zjones2001 = `@Misc{ZJones2001Scipy,
       author = {Eric ZJones},
       title  = {SciPy},
         year = 2001,
    }`
	jones2001 = `@Misc{JonesEtal2001scipy,
       author = {Eric Jones},
       title  = {SciPy},
       year   = {2001},
    }`
	jonesNoYear = `@Misc{JonesEtalScipy_noyear,
       author = {Eric Jones},
       title  = {SciPy},
    }`
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"no author sorts after author", wind1978, zjones2001, 1},
		{"both without author by year", wind1978, newWind1979, -1},
		{"both without author same year", wind1978, newWind1978, 0},
		{"missing year sorts last", jones2001, jonesNoYear, -1},
		{"both without year", jonesNoYear, jonesNoYear, 0},
		{"by last name", jones2001, zjones2001, -1},
		{
			"single initial matches full first name",
			`@Misc{a, author = {Jones, E.}, year = 2001}`,
			`@Misc{b, author = {Jones, Eric Steve}, year = 2001}`,
			0,
		},
		{
			"full initials differ",
			`@Misc{a, author = {Jones, E. A.}, year = 2001}`,
			`@Misc{b, author = {Jones, E. S.}, year = 2001}`,
			-1,
		},
		{
			"von decides",
			`@Misc{a, author = {de Jones, E.}, year = 2001}`,
			`@Misc{b, author = {Jones, E.}, year = 2001}`,
			1,
		},
		{
			"month decides",
			`@Misc{a, author = {Jones, E.}, year = 2001, month = feb}`,
			`@Misc{b, author = {Jones, E.}, year = 2001, month = jan}`,
			1,
		},
		{
			"unknown month sorts last",
			`@Misc{a, author = {Jones, E.}, year = 2001}`,
			`@Misc{b, author = {Jones, E.}, year = 2001, month = dec}`,
			1,
		},
		{
			"accents are ignored",
			`@Misc{a, author = {Schr{\"o}dinger, E.}, year = 1926}`,
			`@Misc{b, author = {Schrodinger, Erwin}, year = 1926}`,
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := mustNew(t, tt.a), mustNew(t, tt.b)
			if got := Compare(a, b); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", a.Key, b.Key, got, tt.want)
			}
			if got := Compare(b, a); got != -tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", b.Key, a.Key, got, -tt.want)
			}
			if got := Equal(a, b); got != (tt.want == 0) {
				t.Errorf("Equal(%s, %s) = %v, want %v", a.Key, b.Key, got, tt.want == 0)
			}
			if got := Less(a, b); got != (tt.want < 0) {
				t.Errorf("Less(%s, %s) = %v, want %v", a.Key, b.Key, got, tt.want < 0)
			}
		})
	}
}

func TestCompare_Totality(t *testing.T) {
	names := []string{"jones_minimal", "jones_no_year", "jones_no_author", "sing", "hunter",
		"stodden", "beaulieu_apj", "beaulieu_arxiv", "oliphant_dup", "no_oliphant"}
	entries := make([]*Entry, len(names))
	for i, n := range names {
		entries[i] = loadEntry(t, n)
	}

	for _, a := range entries {
		for _, b := range entries {
			n := 0
			if Less(a, b) {
				n++
			}
			if Less(b, a) {
				n++
			}
			if Equal(a, b) {
				n++
			}
			if n != 1 {
				t.Errorf("%s vs %s: %d of less/greater/equal hold, want exactly 1", a.Key, b.Key, n)
			}
		}
	}
}

func TestSort(t *testing.T) {
	entries := []*Entry{
		mustNew(t, wind1978),
		loadEntry(t, "sing"),
		mustNew(t, jonesNoYear),
		loadEntry(t, "hunter"),
		mustNew(t, jones2001),
		loadEntry(t, "beaulieu_apj"),
	}
	Sort(entries)

	want := []string{
		"BeaulieuEtal2011apjGJ436bMethane",
		"Hunter2007ieeeMatplotlib",
		"JonesEtal2001scipy",
		"JonesEtalScipy_noyear",
		"SingEtal2016natHotJupiterTransmission",
		"1978windEnergyReport",
	}
	for i, e := range entries {
		if e.Key != want[i] {
			t.Errorf("Sort()[%d] = %s, want %s", i, e.Key, want[i])
		}
	}
}

func TestSort_Stable(t *testing.T) {
	a := mustNew(t, `@Misc{first, author = {Jones, E.}, year = 2001}`)
	b := mustNew(t, `@Misc{second, author = {Jones, Eric}, year = 2001}`)
	entries := []*Entry{a, b}
	Sort(entries)
	if entries[0].Key != "first" || entries[1].Key != "second" {
		t.Errorf("Sort() reordered equal entries: %s, %s", entries[0].Key, entries[1].Key)
	}
}
