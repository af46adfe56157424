// Package record implements the locked-record data model of the workspace
// lock-file: resolved conda and PyPI packages, their source locations, and
// the input-hash bookkeeping used to detect source-tree drift.
package record

// SourceLocation identifies where a source-built conda package or a
// directory/editable PyPI package comes from. Exactly one of the three
// forms is populated; callers switch on Kind.
type SourceLocation struct {
	Kind SourceLocationKind

	// Path is set when Kind == SourceLocationPath. It is relative to the
	// workspace root.
	Path string

	// GitURL and GitRef are set when Kind == SourceLocationGit.
	GitURL string
	GitRef string

	// URL is set when Kind == SourceLocationURL (a source archive).
	URL string

	// Subdir is an optional subdirectory within the git/path/url source.
	Subdir string
}

type SourceLocationKind int

const (
	SourceLocationPath SourceLocationKind = iota
	SourceLocationGit
	SourceLocationURL
)

// Equal compares two source locations for the satisfiability checks of
// spec.md §4.4 ("same URL+ref or same path, subdir equal").
func (l SourceLocation) Equal(other SourceLocation) bool {
	if l.Kind != other.Kind || l.Subdir != other.Subdir {
		return false
	}

	switch l.Kind {
	case SourceLocationPath:
		return l.Path == other.Path
	case SourceLocationGit:
		return l.GitURL == other.GitURL && l.GitRef == other.GitRef
	case SourceLocationURL:
		return l.URL == other.URL
	default:
		return false
	}
}

// InputHash records the digest of a source tree under a declared glob set,
// used to detect drift between lock and working tree (I4).
type InputHash struct {
	Globs  []string
	Digest string
}

// PyPiLocationKind distinguishes a registry/index-hosted wheel or sdist
// from a direct URL, a local path, or a local directory.
type PyPiLocationKind int

const (
	PyPiLocationRegistry PyPiLocationKind = iota
	PyPiLocationURL
	PyPiLocationPath
)

// PyPiLocation is where a locked PyPI record's artifact came from.
type PyPiLocation struct {
	Kind PyPiLocationKind

	// URL is set for PyPiLocationURL; by convention it carries the
	// "direct+" prefix used to distinguish direct references from registry
	// downloads (spec.md §4.4's "Url" row).
	URL string

	// Path is set for PyPiLocationPath. Editable records always use this
	// form, pointing at a directory.
	Path string
}
