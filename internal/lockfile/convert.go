package lockfile

import (
	"fmt"

	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/record"
)

// FromPixiRecord converts a resolved record into its on-disk form.
func FromPixiRecord(r record.PixiRecord) CondaEntry {
	switch {
	case r.Binary != nil:
		b := r.Binary

		return CondaEntry{
			Kind:     "binary",
			Name:     b.Name.Source(),
			Version:  b.Version,
			Build:    b.Build,
			Subdir:   b.Subdir,
			Depends:  b.Depends,
			Channel:  b.Channel,
			FileName: b.FileName,
			Purls:    b.Purls,
			SHA256:   b.ContentHash,
		}

	case r.Source != nil:
		s := r.Source

		entry := CondaEntry{
			Kind:    "source",
			Name:    s.Name.Source(),
			Depends: s.Depends,
			Purls:   s.Purls,
			Source:  locationToEntry(s.Location),
		}

		if len(s.Sources) > 0 {
			entry.Sources = make(map[string]SourceLocationEntry, len(s.Sources))
			for name, loc := range s.Sources {
				entry.Sources[name] = *locationToEntry(loc)
			}
		}

		if s.InputHash != nil {
			entry.InputHashGlobs = s.InputHash.Globs
			entry.InputHashDigest = s.InputHash.Digest
		}

		return entry

	default:
		return CondaEntry{}
	}
}

// ToPixiRecord converts an on-disk entry back into the resolved record
// model.
func (e CondaEntry) ToPixiRecord() (record.PixiRecord, error) {
	switch e.Kind {
	case "binary":
		return record.PixiRecord{Binary: &record.BinaryCondaRecord{
			Name:     names.NewCondaName(e.Name),
			Version:  e.Version,
			Build:    e.Build,
			Subdir:   e.Subdir,
			Depends:  e.Depends,
			Channel:  e.Channel,
			FileName: e.FileName,
			Purls:    e.Purls,
			ContentHash: e.SHA256,
		}}, nil

	case "source":
		if e.Source == nil {
			return record.PixiRecord{}, fmt.Errorf("source record %q missing source location", e.Name)
		}

		src := &record.SourceCondaRecord{
			Name:     names.NewCondaName(e.Name),
			Location: e.Source.toLocation(),
			Depends:  e.Depends,
			Purls:    e.Purls,
		}

		if len(e.Sources) > 0 {
			src.Sources = make(map[string]record.SourceLocation, len(e.Sources))
			for name, loc := range e.Sources {
				src.Sources[name] = loc.toLocation()
			}
		}

		if e.InputHashDigest != "" {
			src.InputHash = &record.InputHash{Globs: e.InputHashGlobs, Digest: e.InputHashDigest}
		}

		return record.PixiRecord{Source: src}, nil

	default:
		return record.PixiRecord{}, fmt.Errorf("unknown conda record kind %q", e.Kind)
	}
}

func locationToEntry(loc record.SourceLocation) *SourceLocationEntry {
	e := &SourceLocationEntry{Subdir: loc.Subdir}

	switch loc.Kind {
	case record.SourceLocationPath:
		e.Path = loc.Path
	case record.SourceLocationGit:
		e.GitURL = loc.GitURL
		e.GitRef = loc.GitRef
	case record.SourceLocationURL:
		e.URL = loc.URL
	}

	return e
}

func (e SourceLocationEntry) toLocation() record.SourceLocation {
	switch {
	case e.Path != "":
		return record.SourceLocation{Kind: record.SourceLocationPath, Path: e.Path, Subdir: e.Subdir}
	case e.GitURL != "":
		return record.SourceLocation{Kind: record.SourceLocationGit, GitURL: e.GitURL, GitRef: e.GitRef, Subdir: e.Subdir}
	default:
		return record.SourceLocation{Kind: record.SourceLocationURL, URL: e.URL, Subdir: e.Subdir}
	}
}

// FromPyPiRecord converts a resolved PyPI record into its on-disk form.
func FromPyPiRecord(r record.PyPiRecord) PypiEntry {
	entry := PypiEntry{
		Name:           r.Name.String(),
		Version:        r.Version,
		SHA256:         r.ContentHash,
		RequiresDist:   r.RequiresDist,
		RequiresPython: r.RequiresPython,
		Editable:       r.Editable,
	}

	switch r.Location.Kind {
	case record.PyPiLocationRegistry:
		entry.Kind = "registry"
	case record.PyPiLocationURL:
		entry.Kind = "url"
		entry.URL = r.Location.URL
	case record.PyPiLocationPath:
		entry.Kind = "path"
		entry.Path = r.Location.Path
	}

	return entry
}

// ToPyPiRecord converts an on-disk entry back into the resolved record
// model.
func (e PypiEntry) ToPyPiRecord() (record.PyPiRecord, error) {
	r := record.PyPiRecord{
		Name:           names.NewPyPiName(e.Name),
		Version:        e.Version,
		ContentHash:    e.SHA256,
		RequiresDist:   e.RequiresDist,
		RequiresPython: e.RequiresPython,
		Editable:       e.Editable,
	}

	switch e.Kind {
	case "registry":
		r.Location = record.PyPiLocation{Kind: record.PyPiLocationRegistry}
	case "url":
		r.Location = record.PyPiLocation{Kind: record.PyPiLocationURL, URL: e.URL}
	case "path":
		r.Location = record.PyPiLocation{Kind: record.PyPiLocationPath, Path: e.Path}
	default:
		return record.PyPiRecord{}, fmt.Errorf("unknown pypi record kind %q", e.Kind)
	}

	return r, nil
}
