package reference

import "fmt"

// FieldKind classifies the BibTeX fields an Entry understands.
type FieldKind int

const (
	FieldOther FieldKind = iota
	FieldTitle
	FieldAuthor
	FieldYear
	FieldMonth
	FieldDOI
	FieldADSURL
	FieldEprint
	FieldISBN
)

var fieldKinds = map[string]FieldKind{
	"title":  FieldTitle,
	"author": FieldAuthor,
	"year":   FieldYear,
	"month":  FieldMonth,
	"doi":    FieldDOI,
	"adsurl": FieldADSURL,
	"eprint": FieldEprint,
	"isbn":   FieldISBN,
}

// KindOf returns the kind of a lowercased field name. Fields the entry
// model does not interpret are FieldOther.
func KindOf(name string) FieldKind {
	if k, ok := fieldKinds[name]; ok {
		return k
	}
	return FieldOther
}

// IDField names a strong identifier shared by records of the same work.
type IDField int

const (
	IDDOI IDField = iota
	IDISBN
	IDBibcode
	IDEprint
)

// IDFields lists the identifiers in reconciliation priority order.
var IDFields = []IDField{IDDOI, IDISBN, IDBibcode, IDEprint}

func (f IDField) String() string {
	switch f {
	case IDDOI:
		return "doi"
	case IDISBN:
		return "isbn"
	case IDBibcode:
		return "bibcode"
	case IDEprint:
		return "eprint"
	}
	return fmt.Sprintf("IDField(%d)", int(f))
}

// ParseIDField maps "doi", "isbn", "bibcode" or "eprint" to its IDField.
func ParseIDField(s string) (IDField, error) {
	for _, f := range IDFields {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown identifier field %q", s)
}

// ID returns the value of identifier f, "" when absent.
func (e *Entry) ID(f IDField) string {
	switch f {
	case IDDOI:
		return e.DOI
	case IDISBN:
		return e.ISBN
	case IDBibcode:
		return e.Bibcode
	case IDEprint:
		return e.Eprint
	}
	return ""
}
