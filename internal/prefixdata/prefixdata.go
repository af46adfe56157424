// Package prefixdata implements C7: LockFileDerivedData, the lazy,
// idempotent binding from a freshly computed lock-file to installed
// on-disk prefixes (spec.md §4.7). Each environment's conda and PyPI
// installation runs at most once per LockFileDerivedData lifetime, memoized
// in a taskcell.Cell and deduplicated across concurrent callers with
// singleflight, the same pairing the update orchestrator uses for its own
// one-shot cells.
package prefixdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gohugoio/hashstructure"
	"golang.org/x/sync/singleflight"

	"github.com/prefix-dev/pixi-sub001/internal/lockfile"
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/solveapi"
	"github.com/prefix-dev/pixi-sub001/internal/taskcell"
)

// Mode selects how thoroughly prefix() validates an existing installation
// before reusing it (spec.md §4.7 step 1).
type Mode int

const (
	// FullInstall always runs the installers, regardless of the env file.
	FullInstall Mode = iota
	// QuickValidate reuses the existing prefix when the recorded hash
	// matches and the lock has no source packages for this platform.
	QuickValidate
)

// Reinstall scopes which packages are forced to reinstall even when
// otherwise considered already present (spec.md §4.7 step 2: "None / All /
// Some(names)").
type Reinstall struct {
	all   bool
	names map[string]bool
}

// ReinstallNone reinstalls nothing beyond what's missing.
func ReinstallNone() Reinstall { return Reinstall{} }

// ReinstallAll forces every package to be reinstalled.
func ReinstallAll() Reinstall { return Reinstall{all: true} }

// ReinstallSome forces only the named packages to be reinstalled.
func ReinstallSome(names []string) Reinstall {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	return Reinstall{names: set}
}

// Includes reports whether name is in scope for forced reinstall.
func (r Reinstall) Includes(name string) bool {
	return r.all || r.names[name]
}

// Names returns the explicit reinstall set, or nil when scope is None or
// All (in which case callers pass nil to mean "installer's default").
func (r Reinstall) Names() []string {
	if r.all || len(r.names) == 0 {
		return nil
	}

	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}

	return out
}

// PythonStatus reports whether an environment's conda prefix provides a
// Python interpreter, and which one, derived from the solved conda records
// (needed to resolve wheels in the PyPI install step that follows).
type PythonStatus struct {
	Present     bool
	Interpreter string
	Version     string
}

// ResolvedPrefix is a ready-to-use on-disk environment: installed conda and
// PyPI packages alike.
type ResolvedPrefix struct {
	Dir    string
	Python PythonStatus
}

// EnvFile is the small persisted state inside an environment directory that
// makes the quick-validate path (spec.md §4.7, §6 "Persisted per-environment
// state") possible.
type EnvFile struct {
	ManifestPath            string `yaml:"manifest_path"`
	EnvironmentName         string `yaml:"environment_name"`
	PixiVersion             string `yaml:"pixi_version"`
	EnvironmentLockFileHash uint64 `yaml:"environment_lock_file_hash"`
}

// EnvFileStore reads and writes the persisted per-environment state. The
// default implementation is backed by a YAML file inside the environment
// directory; tests substitute an in-memory one.
type EnvFileStore interface {
	Read(dir string) (EnvFile, bool, error)
	Write(dir string, ef EnvFile) error
}

// LockFileDerivedData holds a freshly computed lock-file and the lazily
// instantiated prefixes derived from it, for the remainder of one command
// invocation (spec.md §4.7).
type LockFileDerivedData struct {
	Lock         lockfile.LockFile
	ManifestPath string
	PixiVersion  string

	EnvFiles       EnvFileStore
	CondaInstaller solveapi.CondaInstaller
	PyPIInstaller  solveapi.PyPIInstaller

	Logger *slog.Logger

	mu      sync.Mutex
	conda   map[string]*taskcell.Cell[condaPrefixResult]
	pypi    map[string]*taskcell.Cell[string]
	group   singleflight.Group
}

type condaPrefixResult struct {
	dir    string
	python PythonStatus
}

// Prefix returns a ready-to-use prefix for environment at platform,
// installing conda then PyPI packages as needed (spec.md §4.7 step 2).
// envDir is where the environment is (or will be) installed. Concurrent
// calls for the same environment observe exactly one installer run each for
// conda and for PyPI.
func (d *LockFileDerivedData) Prefix(ctx context.Context, envDir, environment, platform string, mode Mode, reinstall Reinstall) (ResolvedPrefix, error) {
	condaRes, err := d.condaPrefix(ctx, envDir, environment, platform, mode, reinstall)
	if err != nil {
		return ResolvedPrefix{}, err
	}

	pypiDir, err := d.pypiPrefix(ctx, envDir, environment, platform, mode, reinstall, condaRes)
	if err != nil {
		return ResolvedPrefix{}, err
	}

	return ResolvedPrefix{Dir: pypiDir, Python: condaRes.python}, nil
}

func (d *LockFileDerivedData) condaPrefix(ctx context.Context, envDir, environment, platform string, mode Mode, reinstall Reinstall) (condaPrefixResult, error) {
	cell := d.condaCell(environment)

	if res, err, ok := cell.TryGet(); ok {
		return res, err
	}

	key := "conda:" + environment

	_, err, _ := d.group.Do(key, func() (any, error) {
		if res, err, ok := cell.TryGet(); ok {
			return res, err
		}

		result, err := d.installConda(ctx, envDir, environment, platform, mode, reinstall)
		cell.Set(result, err)

		return result, err
	})
	if err != nil {
		return condaPrefixResult{}, err
	}

	return cell.Wait(ctx)
}

func (d *LockFileDerivedData) pypiPrefix(ctx context.Context, envDir, environment, platform string, mode Mode, reinstall Reinstall, conda condaPrefixResult) (string, error) {
	cell := d.pypiCell(environment)

	if res, err, ok := cell.TryGet(); ok {
		return res, err
	}

	key := "pypi:" + environment

	_, err, _ := d.group.Do(key, func() (any, error) {
		if res, err, ok := cell.TryGet(); ok {
			return res, err
		}

		result, err := d.installPyPI(ctx, envDir, environment, platform, mode, reinstall, conda)
		cell.Set(result, err)

		return result, err
	})
	if err != nil {
		return "", err
	}

	return cell.Wait(ctx)
}

func (d *LockFileDerivedData) condaCell(environment string) *taskcell.Cell[condaPrefixResult] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conda == nil {
		d.conda = map[string]*taskcell.Cell[condaPrefixResult]{}
	}

	if _, ok := d.conda[environment]; !ok {
		d.conda[environment] = taskcell.New[condaPrefixResult]()
	}

	return d.conda[environment]
}

func (d *LockFileDerivedData) pypiCell(environment string) *taskcell.Cell[string] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pypi == nil {
		d.pypi = map[string]*taskcell.Cell[string]{}
	}

	if _, ok := d.pypi[environment]; !ok {
		d.pypi[environment] = taskcell.New[string]()
	}

	return d.pypi[environment]
}

func (d *LockFileDerivedData) installConda(ctx context.Context, envDir, environment, platform string, mode Mode, reinstall Reinstall) (condaPrefixResult, error) {
	env, ok := d.Lock.Environments[environment]
	if !ok {
		return condaPrefixResult{}, fmt.Errorf("no locked environment %q", environment)
	}

	hash, err := LockedEnvironmentHash(env, d.PixiVersion)
	if err != nil {
		return condaPrefixResult{}, fmt.Errorf("hashing locked environment %q: %w", environment, err)
	}

	if mode == QuickValidate && reinstall.Names() == nil && !reinstall.all {
		if ef, found, err := d.EnvFiles.Read(envDir); err == nil && found {
			if ef.EnvironmentLockFileHash == hash && !hasSourcePackages(env, platform) {
				return condaPrefixResult{dir: envDir, python: pythonStatusFromLock(env, platform)}, nil
			}
		}
	}

	records, err := condaRecords(env, platform)
	if err != nil {
		return condaPrefixResult{}, err
	}

	if d.CondaInstaller != nil {
		if err := d.CondaInstaller.InstallConda(ctx, envDir, records, reinstall.Names()); err != nil {
			return condaPrefixResult{}, fmt.Errorf("installing conda packages for %q: %w", environment, err)
		}
	}

	if err := d.EnvFiles.Write(envDir, EnvFile{
		ManifestPath:            d.ManifestPath,
		EnvironmentName:         environment,
		PixiVersion:             d.PixiVersion,
		EnvironmentLockFileHash: hash,
	}); err != nil {
		return condaPrefixResult{}, fmt.Errorf("persisting env file for %q: %w", environment, err)
	}

	return condaPrefixResult{dir: envDir, python: pythonStatusFromRecords(records)}, nil
}

func (d *LockFileDerivedData) installPyPI(ctx context.Context, envDir, environment, platform string, mode Mode, reinstall Reinstall, conda condaPrefixResult) (string, error) {
	env, ok := d.Lock.Environments[environment]
	if !ok {
		return "", fmt.Errorf("no locked environment %q", environment)
	}

	platformPkgs := env.Packages[platform]
	if len(platformPkgs.Pypi) == 0 {
		return envDir, nil
	}

	if mode == QuickValidate && !conda.python.Present {
		return "", fmt.Errorf("installing pypi packages for %q: no python interpreter available", environment)
	}

	records := make([]record.PyPiRecord, 0, len(platformPkgs.Pypi))

	for _, entry := range platformPkgs.Pypi {
		r, err := entry.ToPyPiRecord()
		if err != nil {
			return "", fmt.Errorf("converting locked pypi record %q for %q: %w", entry.Name, environment, err)
		}

		records = append(records, r)
	}

	if d.PyPIInstaller != nil {
		if err := d.PyPIInstaller.InstallPyPI(ctx, envDir, records, reinstall.Names()); err != nil {
			return "", fmt.Errorf("installing pypi packages for %q: %w", environment, err)
		}
	}

	return envDir, nil
}

func condaRecords(env lockfile.LockedEnvironment, platform string) ([]record.PixiRecord, error) {
	entries := env.Packages[platform].Conda

	records := make([]record.PixiRecord, 0, len(entries))

	for _, entry := range entries {
		r, err := entry.ToPixiRecord()
		if err != nil {
			return nil, fmt.Errorf("converting locked conda record %q: %w", entry.Name, err)
		}

		records = append(records, r)
	}

	return records, nil
}

func hasSourcePackages(env lockfile.LockedEnvironment, platform string) bool {
	pkgs := env.Packages[platform]

	for _, c := range pkgs.Conda {
		if c.Kind == "source" {
			return true
		}
	}

	for _, p := range pkgs.Pypi {
		if p.Kind == "path" {
			return true
		}
	}

	return false
}

func pythonStatusFromLock(env lockfile.LockedEnvironment, platform string) PythonStatus {
	for _, c := range env.Packages[platform].Conda {
		if c.Name == "python" {
			return PythonStatus{Present: true, Interpreter: "python", Version: c.Version}
		}
	}

	return PythonStatus{}
}

func pythonStatusFromRecords(records []record.PixiRecord) PythonStatus {
	for _, r := range records {
		if r.Binary != nil && r.Binary.Name.Normalized() == "python" {
			return PythonStatus{Present: true, Interpreter: "python", Version: r.Binary.Version}
		}
	}

	return PythonStatus{}
}

// LockedEnvironmentHash computes a stable hash over a locked environment's
// package identities and solver options, used to decide whether an existing
// prefix can be reused under QuickValidate (spec.md §4.7 step 1).
func LockedEnvironmentHash(env lockfile.LockedEnvironment, pixiVersion string) (uint64, error) {
	return hashstructure.Hash(hashInput{Env: env, PixiVersion: pixiVersion}, hashstructure.FormatV2, nil)
}

type hashInput struct {
	Env         lockfile.LockedEnvironment
	PixiVersion string
}
