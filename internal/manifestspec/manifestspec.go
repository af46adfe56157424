// Package manifestspec implements the "what the manifest declares" half of
// the data model (spec.md §3 "Specs"): the dependency specifications a
// workspace manifest can express, as opposed to the resolved records a
// lock-file holds (internal/record).
package manifestspec

// GitRefKind is how a git source spec pins a revision.
type GitRefKind int

const (
	GitRefDefaultBranch GitRefKind = iota
	GitRefBranch
	GitRefTag
	GitRefRev
	GitRefCommit
)

// GitRef pins a git source to a branch, tag, revision, or exact commit, or
// leaves it floating on the default branch.
type GitRef struct {
	Kind  GitRefKind
	Value string // unused when Kind == GitRefDefaultBranch
}

// SourceSpec declares a conda (or PyPI directory) package built from
// source: a local path, a git repository, or a downloadable archive URL.
type SourceSpec struct {
	Kind SourceSpecKind

	Path string

	GitURL string
	GitRef GitRef

	URL string

	Subdir string
}

type SourceSpecKind int

const (
	SourceSpecPath SourceSpecKind = iota
	SourceSpecGit
	SourceSpecURL
)

// BinarySpec is a conda match-spec subset declared in a manifest: an
// optional version range, build string, and channel override. The package
// name itself is carried by the surrounding map key in the manifest, not
// here.
type BinarySpec struct {
	VersionRange string // e.g. ">=1.20,<2"
	Build        string
	Channel      string // overrides the feature's channel list when set
}

// PixiSpec is a conda dependency specification: either a binary match-spec
// or a source spec. Tagged rather than unified, mirroring record.PixiRecord
// (spec.md §9).
type PixiSpec struct {
	Binary *BinarySpec
	Source *SourceSpec
}

func (s PixiSpec) IsBinary() bool { return s.Binary != nil }
func (s PixiSpec) IsSource() bool { return s.Source != nil }

// PyPiSpecKind is the form of a `[pypi-dependencies]` entry.
type PyPiSpecKind int

const (
	PyPiSpecVersion PyPiSpecKind = iota
	PyPiSpecGit
	PyPiSpecURL
	PyPiSpecPath
	PyPiSpecDirectory
)

// PyPiSpec is a PyPI dependency specification.
type PyPiSpec struct {
	Kind PyPiSpecKind

	VersionRange string // PyPiSpecVersion

	GitURL string // PyPiSpecGit
	GitRef GitRef
	Subdir string

	URL string // PyPiSpecURL

	Path string // PyPiSpecPath / PyPiSpecDirectory

	Extras   []string
	Editable bool
}
