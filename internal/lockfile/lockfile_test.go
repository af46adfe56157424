package lockfile_test

import (
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/lockfile"
	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/record"
)

func sampleLockFile() lockfile.LockFile {
	return lockfile.LockFile{
		Version: lockfile.CurrentVersion,
		Environments: map[string]lockfile.LockedEnvironment{
			"default": {
				Channels: []lockfile.LockedChannel{{URL: "https://conda.anaconda.org/conda-forge"}},
				Options:  lockfile.SolverOptions{Strategy: "highest"},
				Packages: map[string]lockfile.PlatformPackages{
					"linux-64": {
						Conda: []lockfile.CondaEntry{
							{Kind: "binary", Name: "numpy", Version: "1.25.0", Build: "py311h1234_0", Subdir: "linux-64"},
						},
						Pypi: []lockfile.PypiEntry{
							{Name: "requests", Version: "2.31.0", Kind: "registry"},
						},
					},
				},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	l := sampleLockFile()

	data, err := lockfile.Marshal(l)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	got, err := lockfile.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	data2, err := lockfile.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal (2nd) error: %v", err)
	}

	if string(data) != string(data2) {
		t.Errorf("round trip not byte-equivalent:\n%s\nvs\n%s", data, data2)
	}
}

func TestCondaEntryRecordRoundTrip(t *testing.T) {
	rec := record.PixiRecord{Binary: &record.BinaryCondaRecord{
		Name:    names.NewCondaName("numpy"),
		Version: "1.25.0",
		Build:   "py311h1234_0",
		Subdir:  "linux-64",
		Depends: []string{"python >=3.11"},
		Purls:   []string{"pkg:pypi/numpy"},
	}}

	entry := lockfile.FromPixiRecord(rec)

	back, err := entry.ToPixiRecord()
	if err != nil {
		t.Fatalf("ToPixiRecord error: %v", err)
	}

	if !back.Name().Equal(rec.Name()) || back.Binary.Version != rec.Binary.Version {
		t.Errorf("round trip mismatch: got %+v, want %+v", back.Binary, rec.Binary)
	}
}

func TestSourceCondaEntryRoundTrip(t *testing.T) {
	rec := record.PixiRecord{Source: &record.SourceCondaRecord{
		Name:    names.NewCondaName("mypkg"),
		Location: record.SourceLocation{Kind: record.SourceLocationPath, Path: "./pkg"},
		Depends: []string{"python"},
		InputHash: &record.InputHash{Globs: []string{"**/*.py"}, Digest: "abc123"},
	}}

	entry := lockfile.FromPixiRecord(rec)

	back, err := entry.ToPixiRecord()
	if err != nil {
		t.Fatalf("ToPixiRecord error: %v", err)
	}

	if !back.IsSource() || back.Source.InputHash == nil || back.Source.InputHash.Digest != "abc123" {
		t.Errorf("expected input hash preserved, got %+v", back.Source)
	}

	if !back.Source.Location.Equal(rec.Source.Location) {
		t.Errorf("expected location preserved, got %+v, want %+v", back.Source.Location, rec.Source.Location)
	}
}
