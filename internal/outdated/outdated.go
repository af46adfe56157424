// Package outdated implements C5: comparing a manifest against a lock-file
// to decide which (environment, platform) pairs need re-solving (spec.md
// §4.5).
package outdated

import "github.com/prefix-dev/pixi-sub001/internal/satisfiability"

// EnvironmentPlatform names one cell of the outdated report.
type EnvironmentPlatform struct {
	Environment string
	Platform    string
}

// Report is the outcome of comparing every environment's manifest
// declaration against its lock entry.
type Report struct {
	CondaOutdated []EnvironmentPlatform
	PyPIOutdated  []EnvironmentPlatform

	// DisregardLockedContent marks (environment, platform) pairs whose
	// locked data must not be reused verbatim when assembling the updated
	// lock (spec.md §4.5).
	DisregardLockedContent map[EnvironmentPlatform]bool
}

// CheckResult is one environment's C3/C4 verification outcome, already
// computed by the caller (one VerifyEnvironment call and one VerifyPlatform
// call per platform).
type CheckResult struct {
	Environment        string
	EnvironmentErr      error // from VerifyEnvironment (C3); nil if satisfied
	PlatformErrs        map[string]error // platform -> VerifyPlatform error; nil/absent if satisfied
}

// Build classifies every environment's check results into the conda/pypi
// outdated sets (spec.md §4.5).
func Build(results []CheckResult) Report {
	report := Report{DisregardLockedContent: map[EnvironmentPlatform]bool{}}

	for _, r := range results {
		if r.EnvironmentErr != nil {
			// A C3 failure invalidates every platform of this environment.
			for platform := range r.PlatformErrs {
				ep := EnvironmentPlatform{Environment: r.Environment, Platform: platform}
				report.CondaOutdated = append(report.CondaOutdated, ep)
				report.DisregardLockedContent[ep] = true
			}

			continue
		}

		for platform, err := range r.PlatformErrs {
			if err == nil {
				continue
			}

			ep := EnvironmentPlatform{Environment: r.Environment, Platform: platform}

			if isPyPIOnly(err) {
				report.PyPIOutdated = append(report.PyPIOutdated, ep)
			} else {
				report.CondaOutdated = append(report.CondaOutdated, ep)
				report.DisregardLockedContent[ep] = true
			}
		}
	}

	return report
}

func isPyPIOnly(err error) bool {
	pu, ok := err.(satisfiability.PlatformUnsat)
	return ok && pu.IsPyPIOnly()
}
