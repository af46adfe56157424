package satisfiability_test

import (
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/lockfile"
	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
	"github.com/prefix-dev/pixi-sub001/internal/marker"
	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/recordindex"
	"github.com/prefix-dev/pixi-sub001/internal/satisfiability"
)

func TestVerifyEnvironmentChannelsMismatch(t *testing.T) {
	expected := satisfiability.ExpectedEnvironmentOptions{
		Channels:  []string{"https://conda.anaconda.org/conda-forge"},
		Platforms: []string{"linux-64"},
	}

	locked := lockfile.LockedEnvironment{
		Channels: []lockfile.LockedChannel{{URL: "https://conda.anaconda.org/defaults"}},
		Packages: map[string]lockfile.PlatformPackages{"linux-64": {}},
	}

	err := satisfiability.VerifyEnvironment(expected, locked, false, nil)
	if _, ok := err.(satisfiability.ChannelsMismatch); !ok {
		t.Fatalf("expected ChannelsMismatch, got %v", err)
	}
}

func TestVerifyEnvironmentAdditionalPlatform(t *testing.T) {
	expected := satisfiability.ExpectedEnvironmentOptions{
		Channels:  []string{"https://conda.anaconda.org/conda-forge"},
		Platforms: []string{"linux-64"},
	}

	locked := lockfile.LockedEnvironment{
		Channels: []lockfile.LockedChannel{{URL: "https://conda.anaconda.org/conda-forge"}},
		Packages: map[string]lockfile.PlatformPackages{"linux-64": {}, "osx-arm64": {}},
	}

	err := satisfiability.VerifyEnvironment(expected, locked, false, nil)

	additional, ok := err.(satisfiability.AdditionalPlatformsInLockFile)
	if !ok {
		t.Fatalf("expected AdditionalPlatformsInLockFile, got %v", err)
	}

	if len(additional.Platforms) != 1 || additional.Platforms[0] != "osx-arm64" {
		t.Errorf("unexpected platforms: %v", additional.Platforms)
	}
}

func TestVerifyEnvironmentOK(t *testing.T) {
	expected := satisfiability.ExpectedEnvironmentOptions{
		Channels:        []string{"https://conda.anaconda.org/conda-forge"},
		Platforms:       []string{"linux-64"},
		Strategy:        "highest",
		ChannelPriority: "strict",
	}

	locked := lockfile.LockedEnvironment{
		Channels: []lockfile.LockedChannel{{URL: "https://conda.anaconda.org/conda-forge"}},
		Packages: map[string]lockfile.PlatformPackages{"linux-64": {}},
		Options:  lockfile.SolverOptions{Strategy: "highest", ChannelPriority: "strict"},
	}

	if err := satisfiability.VerifyEnvironment(expected, locked, false, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestVerifyPlatformUnsatisfiableMatchSpec(t *testing.T) {
	idx, err := recordindex.New(nil, names.CondaName{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := satisfiability.PlatformInputs{
		Origin: "default",
		CondaRequirements: map[string]manifestspec.PixiSpec{
			"numpy": {Binary: &manifestspec.BinarySpec{VersionRange: ">=1.20"}},
		},
		Index: idx,
	}

	_, err = satisfiability.VerifyPlatform(in)

	if _, ok := err.(satisfiability.UnsatisfiableMatchSpec); !ok {
		t.Fatalf("expected UnsatisfiableMatchSpec, got %v", err)
	}
}

func TestVerifyPlatformSatisfiesAndReportsOrphan(t *testing.T) {
	records := []record.PixiRecord{
		{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("numpy"), Version: "1.25.0", Build: "py311_0"}},
		{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("unused"), Version: "1.0.0"}},
	}

	idx, err := recordindex.New(records, names.CondaName{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := satisfiability.PlatformInputs{
		Origin: "default",
		CondaRequirements: map[string]manifestspec.PixiSpec{
			"numpy": {Binary: &manifestspec.BinarySpec{VersionRange: ">=1.20"}},
		},
		Index: idx,
	}

	_, err = satisfiability.VerifyPlatform(in)

	tooMany, ok := err.(satisfiability.TooManyCondaPackages)
	if !ok {
		t.Fatalf("expected TooManyCondaPackages, got %v", err)
	}

	if len(tooMany.Names) != 1 || tooMany.Names[0] != "unused" {
		t.Errorf("unexpected names: %v", tooMany.Names)
	}
}

func TestVerifyPlatformFullySatisfied(t *testing.T) {
	records := []record.PixiRecord{
		{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("numpy"), Version: "1.25.0", Build: "py311_0"}},
	}

	idx, err := recordindex.New(records, names.CondaName{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := satisfiability.PlatformInputs{
		Origin: "default",
		CondaRequirements: map[string]manifestspec.PixiSpec{
			"numpy": {Binary: &manifestspec.BinarySpec{VersionRange: ">=1.20"}},
		},
		Index: idx,
	}

	result, err := satisfiability.VerifyPlatform(in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.ExpectedCondaPackages) != 1 || result.ExpectedCondaPackages[0] != "numpy" {
		t.Errorf("unexpected expected-packages: %v", result.ExpectedCondaPackages)
	}
}

func TestVerifyPlatformMissingPythonInterpreter(t *testing.T) {
	idx, err := recordindex.New(nil, names.CondaName{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := satisfiability.PlatformInputs{
		Origin:           "default",
		PyPIRequirements: []string{"requests>=2.0"},
		Index:            idx,
	}

	_, err = satisfiability.VerifyPlatform(in)
	if _, ok := err.(satisfiability.MissingPythonInterpreter); !ok {
		t.Fatalf("expected MissingPythonInterpreter, got %v", err)
	}
}

func TestVerifyPlatformCondaSatisfiesPyPIRequirement(t *testing.T) {
	records := []record.PixiRecord{
		{Binary: &record.BinaryCondaRecord{
			Name:    names.NewCondaName("requests"),
			Version: "2.31.0",
			Purls:   []string{"pkg:pypi/requests@2.31.0"},
		}},
	}

	idx, err := recordindex.New(records, names.CondaName{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := satisfiability.PlatformInputs{
		Origin:           "default",
		PyPIRequirements: []string{"requests>=2.0"},
		Index:            idx,
		HasInterpreter:   true,
		MarkerEnv:        marker.Env{PythonVersion: "3.11"},
	}

	result, err := satisfiability.VerifyPlatform(in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.CondaPackagesUsedByPyPI) != 1 || result.CondaPackagesUsedByPyPI[0] != "requests" {
		t.Errorf("unexpected used-by-pypi: %v", result.CondaPackagesUsedByPyPI)
	}
}

func TestVerifySolveGroupCondaPackageShouldBePypi(t *testing.T) {
	members := []satisfiability.VerifiedIndividualEnvironment{
		{ExpectedCondaPackages: []string{"python"}, CondaPackagesUsedByPyPI: []string{"requests"}},
		{ExpectedCondaPackages: []string{"python"}},
	}

	err := satisfiability.VerifySolveGroup(members)

	mismatch, ok := err.(satisfiability.GroupCondaPackageShouldBePypi)
	if !ok {
		t.Fatalf("expected GroupCondaPackageShouldBePypi, got %v", err)
	}

	if mismatch.Name != "requests" {
		t.Errorf("unexpected name: %s", mismatch.Name)
	}
}

func TestVerifySolveGroupOK(t *testing.T) {
	members := []satisfiability.VerifiedIndividualEnvironment{
		{ExpectedCondaPackages: []string{"python", "requests"}, CondaPackagesUsedByPyPI: []string{"requests"}},
	}

	if err := satisfiability.VerifySolveGroup(members); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
