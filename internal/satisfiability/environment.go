package satisfiability

import (
	"sort"

	"github.com/prefix-dev/pixi-sub001/internal/lockfile"
)

// ExpectedEnvironmentOptions is the manifest-derived envelope an
// environment's lock entry must match (spec.md §4.3).
type ExpectedEnvironmentOptions struct {
	Channels  []string // effective channel URLs, in priority order
	Platforms []string

	Indexes []string // populated only when the environment has pypi deps

	Strategy        string
	ChannelPriority string
	ExcludeNewer    string

	NoBuild      bool
	NoBuildNames map[string]bool // non-empty subset; ignored when NoBuild is true
}

// VerifyEnvironment checks that a locked environment's channel/platform/
// solver-option envelope still matches what the manifest declares (spec.md
// §4.3, C3). It does not look at individual package records; that is
// VerifyPlatform's job.
func VerifyEnvironment(expected ExpectedEnvironmentOptions, locked lockfile.LockedEnvironment, hasPyPIDeps bool, nonBinaryPyPINames []string) error {
	lockedChannels := make([]string, len(locked.Channels))
	for i, c := range locked.Channels {
		lockedChannels[i] = c.URL
	}

	if !stringSlicesEqual(lockedChannels, expected.Channels) {
		return ChannelsMismatch{}
	}

	lockedPlatforms := make(map[string]bool, len(locked.Packages))
	for platform := range locked.Packages {
		lockedPlatforms[platform] = true
	}

	expectedPlatforms := make(map[string]bool, len(expected.Platforms))
	for _, p := range expected.Platforms {
		expectedPlatforms[p] = true
	}

	var additional []string

	for p := range lockedPlatforms {
		if !expectedPlatforms[p] {
			additional = append(additional, p)
		}
	}

	if len(additional) > 0 {
		sort.Strings(additional)
		return AdditionalPlatformsInLockFile{Platforms: additional}
	}

	if hasPyPIDeps {
		if !stringSlicesEqual(locked.Indexes, expected.Indexes) {
			return IndexesMismatch{Expected: expected.Indexes, Found: locked.Indexes}
		}

		if expected.NoBuild || len(expected.NoBuildNames) > 0 {
			for _, name := range nonBinaryPyPINames {
				if expected.NoBuild || expected.NoBuildNames[name] {
					return NoBuildWithNonBinaryPackages{Name: name}
				}
			}
		}
	}

	if expected.Strategy != "" && locked.Options.Strategy != "" && locked.Options.Strategy != expected.Strategy {
		return SolveStrategyMismatch{Locked: locked.Options.Strategy, Expected: expected.Strategy}
	}

	if expected.ChannelPriority != "" && locked.Options.ChannelPriority != "" && locked.Options.ChannelPriority != expected.ChannelPriority {
		return ChannelPriorityMismatch{Locked: locked.Options.ChannelPriority, Expected: expected.ChannelPriority}
	}

	if locked.Options.ExcludeNewer != expected.ExcludeNewer {
		return ExcludeNewerMismatch{Locked: locked.Options.ExcludeNewer, Expected: expected.ExcludeNewer}
	}

	return nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
