package record

import "github.com/prefix-dev/pixi-sub001/internal/names"

// PixiRecord is a locked conda package: either a fully-resolved binary
// artifact or a package built from source. It is a tagged variant rather
// than a common interface hiding the distinction, matching spec.md §9's
// "Polymorphism over record kinds" note — source records carry freshness
// obligations that binary records don't, so callers are expected to switch
// on IsSource.
type PixiRecord struct {
	Binary *BinaryCondaRecord
	Source *SourceCondaRecord
}

// IsSource reports whether this record was built from source.
func (r PixiRecord) IsSource() bool { return r.Source != nil }

// IsBinary reports whether this record is a fully-resolved binary package.
func (r PixiRecord) IsBinary() bool { return r.Binary != nil }

// Name returns the conda name shared by both variants.
func (r PixiRecord) Name() names.CondaName {
	if r.Binary != nil {
		return r.Binary.Name
	}

	return r.Source.Name
}

// Depends returns the match-spec strings shared by both variants.
func (r PixiRecord) Depends() []string {
	if r.Binary != nil {
		return r.Binary.Depends
	}

	return r.Source.Depends
}

// Purls returns the purl list shared by both variants (nil for sources that
// carry none).
func (r PixiRecord) Purls() []string {
	if r.Binary != nil {
		return r.Binary.Purls
	}

	return r.Source.Purls
}

// BinaryCondaRecord is a fully-resolved conda package pinned to a specific
// build from a specific channel.
type BinaryCondaRecord struct {
	Name    names.CondaName
	Version string
	Build   string
	Subdir  string // platform tag, e.g. "linux-64"
	Depends []string
	Channel string
	FileName string

	// Purls map this conda package into the PyPI universe. Authoritative
	// for "this conda package IS this PyPI package" (spec.md §3).
	Purls []string

	// ContentHash is the package tarball's content hash, when known.
	ContentHash string
}

// SourceCondaRecord is a conda package built from source.
type SourceCondaRecord struct {
	Name     names.CondaName
	Location SourceLocation
	Depends  []string

	// Sources maps a transitive dependency name to its own nested source
	// location, used to promote a plain conda dependency into a source
	// dependency during the platform walk (spec.md §4.4 step 4).
	Sources map[string]SourceLocation

	Purls []string

	// InputHash is present when source-tree drift detection applies (I4).
	InputHash *InputHash
}

// PyPiRecord is a locked PyPI package.
type PyPiRecord struct {
	Name     names.PyPiName
	Version  string
	Location PyPiLocation

	// ContentHash is present for path/directory-located records (I5).
	ContentHash string

	// RequiresDist holds the PEP 508 requirement strings this package
	// declares; walked further during platform satisfiability (spec.md
	// §4.4 "PyPI record expansion").
	RequiresDist []string

	// RequiresPython is a PEP 440 specifier, checked against the marker
	// environment's python_version (spec.md §4.4).
	RequiresPython string

	Editable bool
}

// ProvidedExtras reports the extras a conda record makes available to PyPI
// requirements it satisfies via purl, derived from the purl query string
// convention `pkg:pypi/name@version?extras=a,b`. Absent any encoded extras,
// it returns nil.
func ProvidedExtras(purl string) names.Extras {
	const marker = "extras="
	idx := indexOf(purl, marker)

	if idx < 0 {
		return nil
	}

	rest := purl[idx+len(marker):]
	if amp := indexOf(rest, "&"); amp >= 0 {
		rest = rest[:amp]
	}

	return names.NewExtras(splitComma(rest))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}

	return -1
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}

	var out []string

	start := 0

	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}

	out = append(out, s[start:])

	return out
}
