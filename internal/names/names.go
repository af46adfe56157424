// Package names implements the two package-name universes used throughout
// the workspace: conda names (case-insensitive, with a canonical spelling)
// and PyPI names (PEP 503 normalized).
package names

import "strings"

// CondaName is a conda package name. Conda names are case-insensitive but
// carry a canonical "source" spelling for display purposes.
type CondaName struct {
	source     string
	normalized string
}

// NewCondaName builds a CondaName from its source spelling.
func NewCondaName(source string) CondaName {
	return CondaName{source: source, normalized: strings.ToLower(source)}
}

// Source returns the canonical spelling, as originally declared.
func (n CondaName) Source() string { return n.source }

// Normalized returns the lowercase form used for comparisons and map keys.
func (n CondaName) Normalized() string { return n.normalized }

// Equal reports whether two conda names are the same package, ignoring case.
func (n CondaName) Equal(other CondaName) bool { return n.normalized == other.normalized }

// IsZero reports whether this is the zero CondaName.
func (n CondaName) IsZero() bool { return n.normalized == "" }

// PyPiName is a PEP 503 normalized PyPI project name.
type PyPiName struct {
	normalized string
}

// NewPyPiName normalizes a raw PyPI name per PEP 503: lowercase, with runs
// of [-_.] collapsed to a single hyphen.
func NewPyPiName(raw string) PyPiName {
	return PyPiName{normalized: Normalize(raw)}
}

// String returns the normalized form.
func (n PyPiName) String() string { return n.normalized }

// Equal reports whether two PyPI names refer to the same project.
func (n PyPiName) Equal(other PyPiName) bool { return n.normalized == other.normalized }

// IsZero reports whether this is the zero PyPiName.
func (n PyPiName) IsZero() bool { return n.normalized == "" }

// Normalize normalizes a Python package name per PEP 503: lowercase, with
// runs of [-_.] collapsed into a single hyphen.
func Normalize(name string) string {
	name = strings.ToLower(name)

	var b strings.Builder

	prevHyphen := false

	for i := range len(name) {
		switch name[i] {
		case '-', '_', '.':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		default:
			b.WriteByte(name[i])
			prevHyphen = false
		}
	}

	return b.String()
}

// Extras is a set of PyPI extras declared alongside a requirement or
// provided by a conda package that maps onto a PyPI identity.
type Extras map[string]struct{}

// NewExtras builds an Extras set from a slice of raw extra names.
func NewExtras(raw []string) Extras {
	if len(raw) == 0 {
		return nil
	}

	e := make(Extras, len(raw))
	for _, r := range raw {
		e[Normalize(r)] = struct{}{}
	}

	return e
}

// Has reports whether the given extra (normalized) is present.
func (e Extras) Has(extra string) bool {
	if e == nil {
		return false
	}

	_, ok := e[Normalize(extra)]

	return ok
}
