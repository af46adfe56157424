// Package lockfile models the versioned lock-file document: per
// environment, an ordered channel list, solver options, optional PyPI
// indexes, and per-platform conda/pypi package entries (spec.md §6
// "Lock-file format").
package lockfile

// CurrentVersion is the lock-file format version this package writes.
const CurrentVersion = 6

// LockFile is the top-level persisted document.
type LockFile struct {
	Version      int                          `yaml:"version"`
	Environments map[string]LockedEnvironment `yaml:"environments"`
}

// LockedChannel is one channel in an environment's priority-ordered list.
type LockedChannel struct {
	URL string `yaml:"url"`
}

// SolverOptions are the solver settings recorded alongside an environment,
// checked for drift by C3 (spec.md §4.3 SolveStrategyMismatch /
// ChannelPriorityMismatch / ExcludeNewerMismatch).
type SolverOptions struct {
	Strategy        string `yaml:"strategy,omitempty"`
	ChannelPriority string `yaml:"channel-priority,omitempty"`
	ExcludeNewer    string `yaml:"exclude-newer,omitempty"`
}

// LockedEnvironment is one environment's full locked state.
type LockedEnvironment struct {
	Channels      []LockedChannel             `yaml:"channels"`
	Indexes       []string                    `yaml:"indexes,omitempty"`
	Options       SolverOptions               `yaml:"options,omitempty"`
	Packages      map[string]PlatformPackages `yaml:"packages"` // keyed by platform
}

// PlatformPackages holds one platform's locked conda and pypi packages.
type PlatformPackages struct {
	Conda []CondaEntry `yaml:"conda,omitempty"`
	Pypi  []PypiEntry  `yaml:"pypi,omitempty"`
}

// SourceLocationEntry is the on-disk form of record.SourceLocation.
type SourceLocationEntry struct {
	Path   string `yaml:"path,omitempty"`
	GitURL string `yaml:"git,omitempty"`
	GitRef string `yaml:"rev,omitempty"`
	URL    string `yaml:"url,omitempty"`
	Subdir string `yaml:"subdir,omitempty"`
}

// CondaEntry is the on-disk form of a record.PixiRecord (binary or source).
type CondaEntry struct {
	Kind     string   `yaml:"kind"` // "binary" | "source"
	Name     string   `yaml:"name"`
	Version  string   `yaml:"version,omitempty"`
	Build    string   `yaml:"build,omitempty"`
	Subdir   string   `yaml:"subdir,omitempty"`
	Depends  []string `yaml:"depends,omitempty"`
	Channel  string   `yaml:"channel,omitempty"`
	FileName string   `yaml:"filename,omitempty"`
	Purls    []string `yaml:"purls,omitempty"`
	SHA256   string   `yaml:"sha256,omitempty"`

	// Source-only fields.
	Source          *SourceLocationEntry           `yaml:"source,omitempty"`
	Sources         map[string]SourceLocationEntry  `yaml:"sources,omitempty"`
	InputHashGlobs  []string                        `yaml:"input-hash-globs,omitempty"`
	InputHashDigest string                          `yaml:"input-hash-digest,omitempty"`
}

// PypiEntry is the on-disk form of a record.PyPiRecord.
type PypiEntry struct {
	Name           string   `yaml:"name"`
	Version        string   `yaml:"version"`
	Kind           string   `yaml:"kind"` // "registry" | "url" | "path"
	URL            string   `yaml:"url,omitempty"`
	Path           string   `yaml:"path,omitempty"`
	SHA256         string   `yaml:"sha256,omitempty"`
	RequiresDist   []string `yaml:"requires-dist,omitempty"`
	RequiresPython string   `yaml:"requires-python,omitempty"`
	Editable       bool     `yaml:"editable,omitempty"`
}
