package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prefix-dev/pixi-sub001/internal/cachestore"
	"github.com/prefix-dev/pixi-sub001/internal/lockfile"
	"github.com/prefix-dev/pixi-sub001/internal/manifest"
	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
	"github.com/prefix-dev/pixi-sub001/internal/marker"
	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/orchestrator"
	"github.com/prefix-dev/pixi-sub001/internal/outdated"
	"github.com/prefix-dev/pixi-sub001/internal/prefixdata"
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/recordindex"
	"github.com/prefix-dev/pixi-sub001/internal/satisfiability"
)

var version = "0.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:           "pixi-core",
		Short:         "Workspace-scoped conda/PyPI environment satisfiability and update core",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("manifest", "pixi.toml", "Path to the workspace manifest")
	rootCmd.PersistentFlags().String("lock", "pixi.lock", "Path to the lock-file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Verify every environment's lock against its manifest",
		RunE:  runCheck,
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Re-solve outdated environments and write a new lock-file",
		RunE:  runUpdate,
	}

	installCmd := &cobra.Command{
		Use:   "install [environment]",
		Short: "Materialize an environment's locked packages into a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInstall,
	}

	installCmd.Flags().String("platform", "", "Platform to install (default: current)")
	installCmd.Flags().String("envs-dir", ".pixi/envs", "Directory holding installed environment prefixes")
	installCmd.Flags().Bool("force-reinstall", false, "Ignore the quick-validate path and reinstall everything")

	rootCmd.AddCommand(checkCmd, updateCmd, installCmd)

	return rootCmd.Execute()
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadWorkspace(cmd *cobra.Command, logger *slog.Logger) (*manifest.Workspace, lockfile.LockFile, string, error) {
	manifestPath, _ := cmd.Flags().GetString("manifest")
	lockPath, _ := cmd.Flags().GetString("lock")

	manifestData, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, lockfile.LockFile{}, "", fmt.Errorf("reading manifest %s: %w", manifestPath, err)
	}

	ws, err := manifest.Parse(manifestData, logger)
	if err != nil {
		return nil, lockfile.LockFile{}, "", fmt.Errorf("parsing manifest %s: %w", manifestPath, err)
	}

	lockData, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			empty := lockfile.LockFile{Version: lockfile.CurrentVersion, Environments: map[string]lockfile.LockedEnvironment{}}
			return ws, empty, lockPath, nil
		}

		return nil, lockfile.LockFile{}, "", fmt.Errorf("reading lock-file %s: %w", lockPath, err)
	}

	lock, err := lockfile.Unmarshal(lockData)
	if err != nil {
		return nil, lockfile.LockFile{}, "", fmt.Errorf("parsing lock-file %s: %w", lockPath, err)
	}

	return ws, lock, lockPath, nil
}

func platformStrings(platforms []manifest.Platform) []string {
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}

	return out
}

func channelURLs(channels []manifest.Channel) []string {
	urls := make([]string, len(channels))
	for i, c := range channels {
		urls[i] = c.Name
	}

	return urls
}

// errPlatformNotLocked marks a manifest-declared platform with no entry at
// all in the lock file (spec.md §8 seed case 1: a brand-new environment's
// empty lock has no per-platform packages to walk, but every one of its
// declared platforms still needs a first solve).
type errPlatformNotLocked struct{ platform string }

func (e errPlatformNotLocked) Error() string {
	return fmt.Sprintf("platform %s has no locked packages", e.platform)
}

// checkEnvironment runs C3 (VerifyEnvironment), then C4 (VerifyPlatform) for
// every manifest-declared platform, for one workspace environment (spec.md
// §4.3/§4.4). It seeds a PlatformErrs entry per platform the manifest
// declares via ws.EffectivePlatforms — not merely the platforms already
// present in the lock — so a fresh, never-solved environment's platforms
// still show up as outdated instead of vanishing because the lock has
// nothing to range over yet. verified carries the per-platform C4 output for
// platforms that verified cleanly, keyed for the solve-group cross-check.
func checkEnvironment(ws *manifest.Workspace, env manifest.Environment, locked lockfile.LockedEnvironment) (outdated.CheckResult, map[string]satisfiability.VerifiedIndividualEnvironment) {
	result := outdated.CheckResult{Environment: env.Name, PlatformErrs: map[string]error{}}
	verified := map[string]satisfiability.VerifiedIndividualEnvironment{}

	platforms := platformStrings(ws.EffectivePlatforms(env))

	for _, platform := range platforms {
		result.PlatformErrs[platform] = nil
	}

	pypiDeps := ws.EffectivePyPIDependencies(env)
	hasPyPI := len(pypiDeps) > 0

	expected := satisfiability.ExpectedEnvironmentOptions{
		Channels:  channelURLs(ws.EffectiveChannels(env)),
		Platforms: platforms,
	}

	if err := satisfiability.VerifyEnvironment(expected, locked, hasPyPI, nil); err != nil {
		result.EnvironmentErr = err
		return result, verified
	}

	condaDeps := ws.EffectiveCondaDependencies(env, manifest.Run)

	pypiReqs := make([]string, 0, len(pypiDeps))
	for name, spec := range pypiDeps {
		pypiReqs = append(pypiReqs, pypiRequirementString(name, spec))
	}

	for _, platform := range platforms {
		pkgs, ok := locked.Packages[platform]
		if !ok {
			result.PlatformErrs[platform] = errPlatformNotLocked{platform: platform}
			continue
		}

		in, err := buildPlatformInputs(env.Name, platform, condaDeps, pypiReqs, pkgs)
		if err != nil {
			result.PlatformErrs[platform] = err
			continue
		}

		v, err := satisfiability.VerifyPlatform(in)
		if err != nil {
			result.PlatformErrs[platform] = err
			continue
		}

		verified[platform] = v
	}

	return result, verified
}

// pypiRequirementString renders a manifest PyPI dependency as the PEP 508
// requirement string satisfiability.ParseRequirement expects.
func pypiRequirementString(name string, spec manifestspec.PyPiSpec) string {
	if spec.VersionRange != "" {
		return name + spec.VersionRange
	}

	return name
}

func buildPlatformInputs(origin, platform string, condaDeps map[string]manifestspec.PixiSpec, pypiReqs []string, pkgs lockfile.PlatformPackages) (satisfiability.PlatformInputs, error) {
	condaRecords := make([]record.PixiRecord, 0, len(pkgs.Conda))

	for _, entry := range pkgs.Conda {
		r, err := entry.ToPixiRecord()
		if err != nil {
			return satisfiability.PlatformInputs{}, fmt.Errorf("decoding locked conda package: %w", err)
		}

		condaRecords = append(condaRecords, r)
	}

	idx, err := recordindex.New(condaRecords, names.NewCondaName("python"))
	if err != nil {
		return satisfiability.PlatformInputs{}, fmt.Errorf("indexing locked conda packages: %w", err)
	}

	pypiRecords := make(map[string]record.PyPiRecord, len(pkgs.Pypi))

	for _, entry := range pkgs.Pypi {
		r, err := entry.ToPyPiRecord()
		if err != nil {
			return satisfiability.PlatformInputs{}, fmt.Errorf("decoding locked pypi package: %w", err)
		}

		pypiRecords[r.Name.String()] = r
	}

	_, hasInterpreter := idx.PythonInterpreterRecord()

	return satisfiability.PlatformInputs{
		Origin:            origin,
		Platform:          platform,
		CondaRequirements: condaDeps,
		PyPIRequirements:  pypiReqs,
		Index:             idx,
		PyPiRecords:       pypiRecords,
		MarkerEnv:         marker.Env{},
		HasInterpreter:    hasInterpreter,
	}, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	ws, lock, _, err := loadWorkspace(cmd, logger)
	if err != nil {
		return err
	}

	allOK := true

	verifiedByEnv := make(map[string]map[string]satisfiability.VerifiedIndividualEnvironment, len(ws.Environments))

	for _, env := range ws.Environments {
		locked := lock.Environments[env.Name]

		result, verified := checkEnvironment(ws, env, locked)
		verifiedByEnv[env.Name] = verified

		if result.EnvironmentErr != nil {
			allOK = false
			fmt.Printf("%s: %v\n", env.Name, result.EnvironmentErr)

			continue
		}

		clean := true

		for platform, perr := range result.PlatformErrs {
			if perr == nil {
				continue
			}

			clean = false
			allOK = false

			fmt.Printf("%s/%s: %v\n", env.Name, platform, perr)
		}

		if clean {
			fmt.Printf("%s: up to date\n", env.Name)
		}
	}

	if !checkSolveGroups(ws, verifiedByEnv) {
		allOK = false
	}

	if !allOK {
		return fmt.Errorf("one or more environments are out of date")
	}

	return nil
}

// checkSolveGroups runs the cross-environment check of spec.md §4.4's final
// paragraph ("Solve-group cross-check") for every solve group, at every
// platform any of its members verified cleanly, printing a line per
// violation. Returns false if any group/platform combination failed.
func checkSolveGroups(ws *manifest.Workspace, verifiedByEnv map[string]map[string]satisfiability.VerifiedIndividualEnvironment) bool {
	ok := true

	for _, group := range ws.SolveGroups {
		members := ws.EnvironmentsInGroup(group)

		platforms := map[string]bool{}
		for _, m := range members {
			for platform := range verifiedByEnv[m.Name] {
				platforms[platform] = true
			}
		}

		for platform := range platforms {
			var verifiedMembers []satisfiability.VerifiedIndividualEnvironment

			for _, m := range members {
				if v, present := verifiedByEnv[m.Name][platform]; present {
					verifiedMembers = append(verifiedMembers, v)
				}
			}

			if len(verifiedMembers) == 0 {
				continue
			}

			if err := satisfiability.VerifySolveGroup(verifiedMembers); err != nil {
				ok = false
				fmt.Printf("solve-group %s/%s: %v\n", group.Name, platform, err)
			}
		}
	}

	return ok
}

func runUpdate(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	ws, lock, lockPath, err := loadWorkspace(cmd, logger)
	if err != nil {
		return err
	}

	checkResults := make([]outdated.CheckResult, 0, len(ws.Environments))

	for _, env := range ws.Environments {
		result, _ := checkEnvironment(ws, env, lock.Environments[env.Name])
		checkResults = append(checkResults, result)
	}

	report := outdated.Build(checkResults)

	if len(report.CondaOutdated) == 0 && len(report.PyPIOutdated) == 0 {
		fmt.Println("nothing to update")
		return nil
	}

	plan := buildPlan(ws, report)

	o := &orchestrator.Orchestrator{Logger: logger}

	// internal/solveapi.CondaSolver/PyPISolver are external collaborators
	// (spec.md §1): this demo binary schedules the update task graph but
	// does not embed a real solver, so it reports the plan instead of
	// silently no-opping or panicking inside Orchestrator.Run.
	if o.Conda == nil || o.PyPI == nil {
		return fmt.Errorf("%d environment(s) need re-solving for lock-file %s, but no conda/pypi solver is wired into this binary (supply internal/solveapi.CondaSolver and PyPISolver to orchestrator.Orchestrator)", len(plan.Environments), lockPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := o.Run(ctx, plan); err != nil {
		return fmt.Errorf("running update plan: %w", err)
	}

	fmt.Printf("update plan assembled for %d environment(s); lock-file target %s\n", len(plan.Environments), lockPath)

	return nil
}

func buildPlan(ws *manifest.Workspace, report outdated.Report) orchestrator.Plan {
	plan := orchestrator.Plan{
		OutdatedConda: map[orchestrator.EnvironmentPlatform]bool{},
		OutdatedPyPI:  map[orchestrator.EnvironmentPlatform]bool{},
	}

	for _, ep := range report.CondaOutdated {
		plan.OutdatedConda[orchestrator.EnvironmentPlatform{Environment: ep.Environment, Platform: ep.Platform}] = true
	}

	for _, ep := range report.PyPIOutdated {
		plan.OutdatedPyPI[orchestrator.EnvironmentPlatform{Environment: ep.Environment, Platform: ep.Platform}] = true
	}

	for _, env := range ws.Environments {
		platforms := platformStrings(ws.EffectivePlatforms(env))

		solveGroup := env.Name
		if sg, ok := ws.SolveGroupFor(env); ok {
			solveGroup = sg.Name
		}

		bestPlatform := ""
		if len(platforms) > 0 {
			bestPlatform = platforms[0]
		}

		pypiDeps := ws.EffectivePyPIDependencies(env)
		pypiReqs := make([]string, 0, len(pypiDeps))
		hasDirectSource := false

		for name, spec := range pypiDeps {
			pypiReqs = append(pypiReqs, pypiRequirementString(name, spec))

			if spec.Kind != manifestspec.PyPiSpecVersion {
				hasDirectSource = true
			}
		}

		plan.Environments = append(plan.Environments, orchestrator.EnvironmentPlan{
			Environment:         env.Name,
			SolveGroup:          solveGroup,
			Platforms:           platforms,
			BestPlatform:        bestPlatform,
			CondaRequirements:   ws.EffectiveCondaDependencies(env, manifest.Run),
			PyPIRequirements:    pypiReqs,
			HasDirectPyPISource: hasDirectSource,
			Channels:            channelURLs(ws.EffectiveChannels(env)),
		})
	}

	return plan
}

func runInstall(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	ws, lock, _, err := loadWorkspace(cmd, logger)
	if err != nil {
		return err
	}

	environment := "default"
	if len(args) > 0 {
		environment = args[0]
	}

	if _, ok := ws.EnvironmentByName(environment); !ok {
		return fmt.Errorf("no environment %q in manifest", environment)
	}

	platform, _ := cmd.Flags().GetString("platform")
	envsDir, _ := cmd.Flags().GetString("envs-dir")
	forceReinstall, _ := cmd.Flags().GetBool("force-reinstall")

	if _, err := cachestore.New(cachestore.WithLogger(logger)); err != nil {
		return fmt.Errorf("initializing package cache: %w", err)
	}

	d := &prefixdata.LockFileDerivedData{
		Lock:     lock,
		EnvFiles: prefixdata.DirEnvFileStore{},
		Logger:   logger,
	}

	mode := prefixdata.QuickValidate

	reinstall := prefixdata.ReinstallNone()
	if forceReinstall {
		mode = prefixdata.FullInstall
		reinstall = prefixdata.ReinstallAll()
	}

	// internal/solveapi.CondaInstaller/PyPIInstaller are external
	// collaborators (spec.md §1). d.Prefix would silently skip the actual
	// install with neither configured, which QuickValidate's cache-hit path
	// can legitimately do but a forced reinstall never can — so only the
	// forced case is rejected outright here.
	if forceReinstall && (d.CondaInstaller == nil || d.PyPIInstaller == nil) {
		return fmt.Errorf("--force-reinstall requires a conda/pypi installer backend, which this binary does not embed (supply internal/solveapi.CondaInstaller and PyPIInstaller to prefixdata.LockFileDerivedData)")
	}

	envDir := filepath.Join(envsDir, environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := d.Prefix(ctx, envDir, environment, platform, mode, reinstall); err != nil {
		return fmt.Errorf("resolving prefix for %s: %w", environment, err)
	}

	fmt.Printf("%s installed at %s\n", environment, envDir)

	return nil
}
