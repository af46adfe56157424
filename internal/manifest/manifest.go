// Package manifest models the workspace manifest: features, environments,
// solve groups, and the channel/platform/dependency tables a TOML manifest
// declares (spec.md §3 "Workspace entities", §6 "Manifest file").
package manifest

import "github.com/prefix-dev/pixi-sub001/internal/manifestspec"

// Platform is a conda subdir/platform tag, e.g. "linux-64", "osx-arm64".
type Platform string

// SpecType distinguishes the three dependency tables a feature can carry.
type SpecType int

const (
	Run SpecType = iota
	Host
	Build
)

// Channel is one entry in a feature's channel list.
type Channel struct {
	Name     string
	Priority int
}

// PyPIOptions carries the per-feature PyPI resolution options (spec.md §3).
type PyPIOptions struct {
	IndexURL          string
	ExtraIndexURLs    []string
	NoBuild           bool
	NoBuildIsolation  []string
	IndexStrategy     string
	ExcludeNewer      string
}

// Task is a named, shell-invoked command. Its execution is out of scope;
// only its declaration is modeled.
type Task struct {
	Name    string
	Command string
	DependsOn []string
}

// Feature is a named bag of dependencies, channels, platforms, tasks, and
// activation scripts that environments compose.
type Feature struct {
	Name string

	CondaDeps map[SpecType]map[string]manifestspec.PixiSpec
	PyPiDeps  map[string]manifestspec.PyPiSpec

	Channels  []Channel
	Platforms []Platform

	Tasks []Task

	ActivationScripts []string
	ActivationEnv     map[string]string

	PyPIOptions PyPIOptions

	// DependencyOverrides replaces a PyPI requirement of the same name
	// during the platform walk (spec.md §4.4 step 2), keyed by PyPI
	// normalized name.
	DependencyOverrides map[string]manifestspec.PyPiSpec
}

// Environment is a named composition of features.
type Environment struct {
	Name             string
	FeatureIndices   []int
	SolveGroupIndex  *int
	NoDefaultFeature bool
}

// SolveGroup is a set of environments whose conda dependencies must be
// solved together.
type SolveGroup struct {
	Name               string
	EnvironmentIndices []int
}

// Workspace is the parsed, immutable manifest (spec.md §3 "Ownership and
// lifecycle": environments hold indices into the feature and solve-group
// tables, and solve groups hold indices into the environment table, not
// pointers, avoiding cycles).
type Workspace struct {
	Name    string
	Version string

	Features     []Feature
	Environments []Environment
	SolveGroups  []SolveGroup

	DefaultFeatureIndex int
}

// FeatureIndexByName looks up a feature's index by name, or -1 if absent.
func (w *Workspace) FeatureIndexByName(name string) int {
	for i, f := range w.Features {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// EnvironmentByName looks up an environment by name.
func (w *Workspace) EnvironmentByName(name string) (Environment, bool) {
	for _, e := range w.Environments {
		if e.Name == name {
			return e, true
		}
	}

	return Environment{}, false
}

// FeaturesFor returns the ordered list of features composing env: its
// declared features in the order the environment lists them, followed by
// the default feature (unless NoDefaultFeature is set or the environment
// already lists it).
func (w *Workspace) FeaturesFor(env Environment) []Feature {
	features := make([]Feature, 0, len(env.FeatureIndices)+1)

	for _, idx := range env.FeatureIndices {
		features = append(features, w.Features[idx])
	}

	if !env.NoDefaultFeature {
		hasDefault := false

		for _, idx := range env.FeatureIndices {
			if idx == w.DefaultFeatureIndex {
				hasDefault = true

				break
			}
		}

		if !hasDefault {
			features = append(features, w.Features[w.DefaultFeatureIndex])
		}
	}

	return features
}

// SolveGroupFor returns the solve group env belongs to, if any.
func (w *Workspace) SolveGroupFor(env Environment) (SolveGroup, bool) {
	if env.SolveGroupIndex == nil {
		return SolveGroup{}, false
	}

	return w.SolveGroups[*env.SolveGroupIndex], true
}

// EnvironmentsInGroup resolves a solve group's member environments through
// the workspace-level environment table (spec.md §9 "Back-references":
// neither side owns the other).
func (w *Workspace) EnvironmentsInGroup(g SolveGroup) []Environment {
	envs := make([]Environment, 0, len(g.EnvironmentIndices))

	for _, idx := range g.EnvironmentIndices {
		envs = append(envs, w.Environments[idx])
	}

	return envs
}

// EffectiveChannels computes the ordered union of channels across an
// environment's active features, duplicates removed from the second
// occurrence onward (spec.md §4.2 "Channel ordering and priority").
func (w *Workspace) EffectiveChannels(env Environment) []Channel {
	seen := make(map[string]bool)

	var channels []Channel

	for _, f := range w.FeaturesFor(env) {
		for _, c := range f.Channels {
			if seen[c.Name] {
				continue
			}

			seen[c.Name] = true
			channels = append(channels, c)
		}
	}

	return channels
}

// EffectivePlatforms computes the union of platforms declared across env's
// active features, in first-seen order (spec.md §3 "an environment solves
// across the union of its features' platforms").
func (w *Workspace) EffectivePlatforms(env Environment) []Platform {
	seen := make(map[Platform]bool)

	var platforms []Platform

	for _, f := range w.FeaturesFor(env) {
		for _, p := range f.Platforms {
			if seen[p] {
				continue
			}

			seen[p] = true
			platforms = append(platforms, p)
		}
	}

	return platforms
}

// EffectiveCondaDependencies merges the run-dependency table across env's
// active features. Later features (as ordered by FeaturesFor) override
// earlier ones for the same package name, matching the "later layers win"
// merge rule already used for config layering (spec.md §4.2).
func (w *Workspace) EffectiveCondaDependencies(env Environment, specType SpecType) map[string]manifestspec.PixiSpec {
	merged := map[string]manifestspec.PixiSpec{}

	for _, f := range w.FeaturesFor(env) {
		for name, spec := range f.CondaDeps[specType] {
			merged[name] = spec
		}
	}

	return merged
}

// EffectivePyPIDependencies merges the `[pypi-dependencies]` table across
// env's active features, later features winning on name collisions.
func (w *Workspace) EffectivePyPIDependencies(env Environment) map[string]manifestspec.PyPiSpec {
	merged := map[string]manifestspec.PyPiSpec{}

	for _, f := range w.FeaturesFor(env) {
		for name, spec := range f.PyPiDeps {
			merged[name] = spec
		}
	}

	return merged
}

// AddChannel inserts a channel into a feature's channel list, at the head
// if prepend is true, else at the tail (spec.md §4.2).
func (f *Feature) AddChannel(c Channel, prepend bool) {
	if prepend {
		f.Channels = append([]Channel{c}, f.Channels...)

		return
	}

	f.Channels = append(f.Channels, c)
}

// RemoveChannel removes a channel by name, returning an error if it is not
// present (spec.md §4.2: "Removing a non-existent channel is an error").
func (f *Feature) RemoveChannel(name string) error {
	for i, c := range f.Channels {
		if c.Name == name {
			f.Channels = append(f.Channels[:i], f.Channels[i+1:]...)

			return nil
		}
	}

	return channelNotFoundError{name: name}
}

type channelNotFoundError struct{ name string }

func (e channelNotFoundError) Error() string { return "channel not found: " + e.name }
