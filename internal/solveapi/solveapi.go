// Package solveapi declares the external collaborators named in spec.md §1
// as out-of-scope: the conda and PyPI solvers, source-metadata extraction,
// purl amendment, and installers. The core only ever depends on these
// interfaces; concrete implementations (an actual SAT solver, a PyPI
// resolver, a build backend, a linker) live outside this module.
package solveapi

import (
	"context"

	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
	"github.com/prefix-dev/pixi-sub001/internal/marker"
	"github.com/prefix-dev/pixi-sub001/internal/record"
)

// CondaSolveRequest is the input to a conda solve.
type CondaSolveRequest struct {
	Specs            map[string]manifestspec.PixiSpec
	VirtualPackages  []string
	Locked           []record.PixiRecord
	Channels         []string
	Platform         string
	Strategy         string
	ChannelPriority  string
}

// PyPISolveRequest is the input to a PyPI solve.
type PyPISolveRequest struct {
	Requirements []string
	Markers      marker.Env
	CondaRecords []record.PixiRecord
	Locked       []record.PyPiRecord
}

// SourceRecord is what extracting a source package's metadata yields: the
// conda records it produces (usually one, itself a SourceCondaRecord) plus
// any further match-specs discovered as transitive build dependencies.
type SourceRecord struct {
	Records           []record.PixiRecord
	TransitiveDepends []string
}

// CondaSolver resolves a set of conda match-specs against available
// channel data (spec.md §1: `solve_conda`).
type CondaSolver interface {
	SolveConda(ctx context.Context, req CondaSolveRequest) ([]record.PixiRecord, error)
}

// PyPISolver resolves a set of PEP 508 requirements (spec.md §1:
// `solve_pypi`).
type PyPISolver interface {
	SolvePyPI(ctx context.Context, req PyPISolveRequest) ([]record.PyPiRecord, error)
}

// SourceMetadataExtractor invokes a build backend to discover a source
// package's own dependencies before the conda solver runs (spec.md §4.6
// "Source-dependency integration").
type SourceMetadataExtractor interface {
	ExtractSourceMetadata(ctx context.Context, source manifestspec.SourceSpec, channels []string, platform string, virtualPackages []string) (SourceRecord, error)
}

// PurlAmender asks an external mapping service to annotate binary conda
// records with their canonical PyPI purls (spec.md §4.6 "Pypi-name
// amendment").
type PurlAmender interface {
	AmendPurls(ctx context.Context, records []record.BinaryCondaRecord) ([]record.BinaryCondaRecord, error)
}

// CondaInstaller realizes locked conda records into an on-disk prefix
// (spec.md §4.7).
type CondaInstaller interface {
	InstallConda(ctx context.Context, prefix string, records []record.PixiRecord, reinstall []string) error
}

// PyPIInstaller realizes locked PyPI records into an on-disk prefix
// (spec.md §4.7).
type PyPIInstaller interface {
	InstallPyPI(ctx context.Context, prefix string, records []record.PyPiRecord, reinstall []string) error
}
