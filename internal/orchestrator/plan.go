// Package orchestrator implements C6: the update task graph that re-solves
// outdated (environment, platform) pairs and assembles a new lock-file
// (spec.md §4.6). Every conda or PyPI solve result is published into a
// single-writer, many-reader taskcell.Cell so that environments sharing a
// solve group observe one solve's output instead of repeating it.
package orchestrator

import (
	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
)

// SolveGroupKey identifies one conda solve task: a solve group (or a lone
// environment acting as its own group) at one platform.
type SolveGroupKey struct {
	SolveGroup string
	Platform   string
}

// EnvironmentPlan is everything the orchestrator needs to know about one
// outdated environment to schedule its solves.
type EnvironmentPlan struct {
	Environment string

	// SolveGroup is the owning solve group's name, or the environment's own
	// name when it does not belong to one (spec.md §4.6 rule 1).
	SolveGroup string

	Platforms []string

	// BestPlatform is the platform whose conda solve yields the Python
	// interpreter record used to derive the marker environment for this
	// environment's PyPI solve (spec.md §4.6 rule 2).
	BestPlatform string

	CondaRequirements map[string]manifestspec.PixiSpec
	PyPIRequirements  []string

	// HasDirectPyPISource marks an environment with at least one PyPI
	// dependency built from source (git, local path, or local directory)
	// rather than fetched as a prebuilt wheel, which drives the PyPI solve
	// concurrency default (spec.md §4.6 "Suspension and ordering").
	HasDirectPyPISource bool

	Channels        []string
	VirtualPackages []string

	// RequiresCondaPrefix is set when resolving wheels for this environment
	// needs Python itself (building sources, running backend hooks), so the
	// orchestrator must install the solved conda records into a prefix
	// before invoking the PyPI solver (spec.md §4.6 rule 3).
	RequiresCondaPrefix bool
}

// Plan is the full update task graph input: every environment that needs
// attention, and which of its (environment, platform) cells are outdated on
// the conda and/or pypi side (spec.md §4.5's Report, narrowed to what's
// being updated this pass).
type Plan struct {
	Environments []EnvironmentPlan

	OutdatedConda map[EnvironmentPlatform]bool
	OutdatedPyPI  map[EnvironmentPlatform]bool
}

// EnvironmentPlatform names one cell of the plan.
type EnvironmentPlatform struct {
	Environment string
	Platform    string
}
