package prefixdata_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/lockfile"
	"github.com/prefix-dev/pixi-sub001/internal/prefixdata"
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/solveapi"
)

type memEnvFileStore struct {
	mu    sync.Mutex
	files map[string]prefixdata.EnvFile
}

func newMemEnvFileStore() *memEnvFileStore {
	return &memEnvFileStore{files: map[string]prefixdata.EnvFile{}}
}

func (m *memEnvFileStore) Read(dir string) (prefixdata.EnvFile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ef, ok := m.files[dir]

	return ef, ok, nil
}

func (m *memEnvFileStore) Write(dir string, ef prefixdata.EnvFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[dir] = ef

	return nil
}

func sampleLock() lockfile.LockFile {
	return lockfile.LockFile{
		Version: lockfile.CurrentVersion,
		Environments: map[string]lockfile.LockedEnvironment{
			"default": {
				Channels: []lockfile.LockedChannel{{URL: "https://conda.anaconda.org/conda-forge"}},
				Packages: map[string]lockfile.PlatformPackages{
					"linux-64": {
						Conda: []lockfile.CondaEntry{
							{Kind: "binary", Name: "python", Version: "3.11.0", Subdir: "linux-64"},
						},
					},
				},
			},
		},
	}
}

func TestPrefixQuickValidateReusesExistingInstall(t *testing.T) {
	store := newMemEnvFileStore()

	var condaCalls int32

	fake := &solveapi.Fake{
		InstallCondaFunc: func(ctx context.Context, prefix string, records []record.PixiRecord, reinstall []string) error {
			atomic.AddInt32(&condaCalls, 1)
			return nil
		},
	}

	d := &prefixdata.LockFileDerivedData{
		Lock:           sampleLock(),
		PixiVersion:    "0.1.0",
		EnvFiles:       store,
		CondaInstaller: fake,
	}

	ctx := context.Background()

	if _, err := d.Prefix(ctx, "/envs/default", "default", "linux-64", prefixdata.QuickValidate, prefixdata.ReinstallNone()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if condaCalls != 1 {
		t.Fatalf("expected one install on first call, got %d", condaCalls)
	}

	// A brand new LockFileDerivedData simulates a later command invocation
	// reading the same env file from disk.
	d2 := &prefixdata.LockFileDerivedData{
		Lock:           sampleLock(),
		PixiVersion:    "0.1.0",
		EnvFiles:       store,
		CondaInstaller: fake,
	}

	if _, err := d2.Prefix(ctx, "/envs/default", "default", "linux-64", prefixdata.QuickValidate, prefixdata.ReinstallNone()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if condaCalls != 1 {
		t.Fatalf("expected quick-validate to skip reinstalling, got %d calls", condaCalls)
	}
}

func TestPrefixRunsInstallerAtMostOnceConcurrently(t *testing.T) {
	store := newMemEnvFileStore()

	var condaCalls int32

	fake := &solveapi.Fake{
		InstallCondaFunc: func(ctx context.Context, prefix string, records []record.PixiRecord, reinstall []string) error {
			atomic.AddInt32(&condaCalls, 1)
			return nil
		},
	}

	d := &prefixdata.LockFileDerivedData{
		Lock:           sampleLock(),
		PixiVersion:    "0.1.0",
		EnvFiles:       store,
		CondaInstaller: fake,
	}

	ctx := context.Background()

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := d.Prefix(ctx, "/envs/default", "default", "linux-64", prefixdata.FullInstall, prefixdata.ReinstallNone()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if condaCalls != 1 {
		t.Fatalf("expected exactly one installer run across concurrent callers, got %d", condaCalls)
	}
}

func TestPrefixFullInstallAlwaysReinstalls(t *testing.T) {
	store := newMemEnvFileStore()

	var condaCalls int32

	fake := &solveapi.Fake{
		InstallCondaFunc: func(ctx context.Context, prefix string, records []record.PixiRecord, reinstall []string) error {
			atomic.AddInt32(&condaCalls, 1)
			return nil
		},
	}

	d := &prefixdata.LockFileDerivedData{
		Lock:           sampleLock(),
		PixiVersion:    "0.1.0",
		EnvFiles:       store,
		CondaInstaller: fake,
	}

	ctx := context.Background()

	// An env file matching the lock is already present, as after an earlier
	// install; FullInstall runs the installer regardless.
	hash, err := prefixdata.LockedEnvironmentHash(sampleLock().Environments["default"], "0.1.0")
	if err != nil {
		t.Fatalf("hashing locked environment: %v", err)
	}

	_ = store.Write("/envs/default", prefixdata.EnvFile{EnvironmentName: "default", PixiVersion: "0.1.0", EnvironmentLockFileHash: hash})

	if _, err := d.Prefix(ctx, "/envs/default", "default", "linux-64", prefixdata.FullInstall, prefixdata.ReinstallNone()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if condaCalls != 1 {
		t.Fatalf("expected the installer to run, got %d calls", condaCalls)
	}
}

func TestReinstallScope(t *testing.T) {
	none := prefixdata.ReinstallNone()
	if none.Includes("numpy") {
		t.Error("ReinstallNone should include nothing")
	}

	all := prefixdata.ReinstallAll()
	if !all.Includes("numpy") || all.Names() != nil {
		t.Error("ReinstallAll should include everything and report nil explicit names")
	}

	some := prefixdata.ReinstallSome([]string{"numpy", "scipy"})
	if !some.Includes("numpy") || some.Includes("pandas") {
		t.Error("ReinstallSome should include only the named packages")
	}
}
