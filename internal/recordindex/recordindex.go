// Package recordindex implements C1: an in-memory index of a locked
// environment+platform's records, by conda name and by PyPI-normalized
// name, with duplicate detection (spec.md §4.1).
package recordindex

import (
	"fmt"

	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/record"
)

// DuplicateEntryError is returned when construction finds two records
// sharing a conda name (I1).
type DuplicateEntryError struct {
	Name names.CondaName
}

func (e DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate conda record for %q", e.Name.Source())
}

// PyPiIdentifier carries enough metadata about a purl-mapped conda record
// to answer "does this conda record satisfy this PyPI requirement?"
// (spec.md §4.1).
type PyPiIdentifier struct {
	Name    names.PyPiName
	Version string
	Extras  names.Extras

	// Index is the position of the owning record in RecordIndex.Records(),
	// and RecordName is its conda name, so callers can mark it "used-by-pypi"
	// without a second lookup.
	Index      int
	RecordName names.CondaName
}

// RecordIndex holds the full set of locked PixiRecords for one
// (environment, platform) pair.
type RecordIndex struct {
	records []record.PixiRecord

	byCondaName map[string]int // normalized conda name -> index into records

	pythonInterpreterCondaName names.CondaName

	byPyPiName map[string]PyPiIdentifier // built lazily on first ByPyPiName call
	pypiBuilt  bool
}

// New builds a RecordIndex, failing with DuplicateEntryError if two
// records share a conda name (I1). pythonInterpreterName identifies which
// conda name is the registered Python interpreter package, used by
// PythonInterpreterRecord.
func New(records []record.PixiRecord, pythonInterpreterName names.CondaName) (*RecordIndex, error) {
	idx := &RecordIndex{
		records:                    records,
		byCondaName:                make(map[string]int, len(records)),
		pythonInterpreterCondaName: pythonInterpreterName,
	}

	for i, r := range records {
		key := r.Name().Normalized()
		if key == "" {
			continue // pypi-only records have no conda name
		}

		if _, exists := idx.byCondaName[key]; exists {
			return nil, DuplicateEntryError{Name: r.Name()}
		}

		idx.byCondaName[key] = i
	}

	return idx, nil
}

// Records returns every record in the index, in original order.
func (idx *RecordIndex) Records() []record.PixiRecord { return idx.records }

// ByName looks up a locked conda record by name.
func (idx *RecordIndex) ByName(name names.CondaName) (record.PixiRecord, bool) {
	i, ok := idx.byCondaName[name.Normalized()]
	if !ok {
		return record.PixiRecord{}, false
	}

	return idx.records[i], true
}

// PythonInterpreterRecord returns the locked record for the registered
// Python interpreter package, if present. It anchors PEP 508 marker
// evaluation (spec.md §4.1).
func (idx *RecordIndex) PythonInterpreterRecord() (record.PixiRecord, bool) {
	if idx.pythonInterpreterCondaName.IsZero() {
		return record.PixiRecord{}, false
	}

	return idx.ByName(idx.pythonInterpreterCondaName)
}

// ByPyPiName looks up the purl-derived identity of a conda record that
// satisfies the given PyPI normalized name. The by-pypi-name map is built
// lazily on first use (spec.md §4.1).
func (idx *RecordIndex) ByPyPiName(name names.PyPiName) (PyPiIdentifier, bool) {
	if !idx.pypiBuilt {
		idx.buildPyPiIndex()
	}

	id, ok := idx.byPyPiName[name.String()]

	return id, ok
}

func (idx *RecordIndex) buildPyPiIndex() {
	idx.byPyPiName = map[string]PyPiIdentifier{}
	idx.pypiBuilt = true

	for i, r := range idx.records {
		if !r.IsBinary() {
			continue
		}

		for _, purl := range r.Purls() {
			pypiName, version, ok := parsePurl(purl)
			if !ok {
				continue
			}

			idx.byPyPiName[pypiName.String()] = PyPiIdentifier{
				Name:       pypiName,
				Version:    version,
				Extras:     record.ProvidedExtras(purl),
				Index:      i,
				RecordName: r.Name(),
			}
		}
	}
}

// parsePurl extracts the PyPI name and version from a purl of the form
// "pkg:pypi/<name>@<version>[?query]". Returns ok=false for non-pypi purls.
func parsePurl(purl string) (names.PyPiName, string, bool) {
	const prefix = "pkg:pypi/"

	if len(purl) < len(prefix) || purl[:len(prefix)] != prefix {
		return names.PyPiName{}, "", false
	}

	rest := purl[len(prefix):]

	if q := indexOfByte(rest, '?'); q >= 0 {
		rest = rest[:q]
	}

	name := rest
	version := ""

	if at := indexOfByte(rest, '@'); at >= 0 {
		name = rest[:at]
		version = rest[at+1:]
	}

	return names.NewPyPiName(name), version, true
}

func indexOfByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}

	return -1
}
