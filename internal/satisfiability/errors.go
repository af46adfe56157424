package satisfiability

import "fmt"

// EnvironmentUnsat is the reason a locked environment's channel/solver-option
// envelope no longer matches the manifest (spec.md §4.3).
type EnvironmentUnsat interface {
	error
	environmentUnsat()
}

type ChannelsMismatch struct{}

func (ChannelsMismatch) Error() string {
	return "the channels in the lock-file do not match the environment's channels"
}
func (ChannelsMismatch) environmentUnsat() {}

type AdditionalPlatformsInLockFile struct{ Platforms []string }

func (e AdditionalPlatformsInLockFile) Error() string {
	return fmt.Sprintf("platform(s) %v present in the lock-file but not in the environment", e.Platforms)
}
func (AdditionalPlatformsInLockFile) environmentUnsat() {}

type IndexesMismatch struct{ Expected, Found []string }

func (e IndexesMismatch) Error() string {
	return fmt.Sprintf("the indexes used to previously solve the lock-file (%v) do not match the environment's indexes (%v)", e.Found, e.Expected)
}
func (IndexesMismatch) environmentUnsat() {}

type SolveStrategyMismatch struct{ Locked, Expected string }

func (e SolveStrategyMismatch) Error() string {
	return fmt.Sprintf("the lock-file was solved with a different strategy (%s) than the one selected (%s)", e.Locked, e.Expected)
}
func (SolveStrategyMismatch) environmentUnsat() {}

type ChannelPriorityMismatch struct{ Locked, Expected string }

func (e ChannelPriorityMismatch) Error() string {
	return fmt.Sprintf("the lock-file was solved with a different channel priority (%s) than the one selected (%s)", e.Locked, e.Expected)
}
func (ChannelPriorityMismatch) environmentUnsat() {}

type ExcludeNewerMismatch struct{ Locked, Expected string }

func (e ExcludeNewerMismatch) Error() string {
	return fmt.Sprintf("the lock-file was solved with exclude-newer %q, but the environment has it set to %q", e.Locked, e.Expected)
}
func (ExcludeNewerMismatch) environmentUnsat() {}

type NoBuildWithNonBinaryPackages struct{ Name string }

func (e NoBuildWithNonBinaryPackages) Error() string {
	return fmt.Sprintf("the lock-file contains non-binary package %q, but the pypi-option no-build is set", e.Name)
}
func (NoBuildWithNonBinaryPackages) environmentUnsat() {}

// PlatformUnsat is the reason a specific (environment, platform) closure
// does not satisfy the manifest (spec.md §4.4).
type PlatformUnsat interface {
	error
	platformUnsat()
	// IsPyPIOnly reports whether this problem concerns pypi packages only,
	// meaning the conda packages in the lock are still considered valid
	// (spec.md §4.5, used by the outdated detector).
	IsPyPIOnly() bool
}

type basePlatformUnsat struct{}

func (basePlatformUnsat) platformUnsat() {}
func (basePlatformUnsat) IsPyPIOnly() bool { return false }

type pypiOnlyPlatformUnsat struct{ basePlatformUnsat }

func (pypiOnlyPlatformUnsat) IsPyPIOnly() bool { return true }

type UnsatisfiableMatchSpec struct {
	basePlatformUnsat
	Spec, RequiredBy string
}

func (e UnsatisfiableMatchSpec) Error() string {
	return fmt.Sprintf("the requirement %q could not be satisfied (required by %q)", e.Spec, e.RequiredBy)
}

type SourcePackageMissing struct {
	basePlatformUnsat
	Name, RequiredBy string
}

func (e SourcePackageMissing) Error() string {
	return fmt.Sprintf("no package named exists %q (required by %q)", e.Name, e.RequiredBy)
}

type RequiredSourceIsBinary struct {
	basePlatformUnsat
	Name, RequiredBy string
}

func (e RequiredSourceIsBinary) Error() string {
	return fmt.Sprintf("required source package %q is locked as binary (required by %q)", e.Name, e.RequiredBy)
}

type RequiredBinaryIsSource struct {
	basePlatformUnsat
	Name string
}

func (e RequiredBinaryIsSource) Error() string {
	return fmt.Sprintf("package %q is locked as source, but is only required as binary", e.Name)
}

type SourcePackageMismatch struct {
	basePlatformUnsat
	Name, Detail string
}

func (e SourcePackageMismatch) Error() string {
	return fmt.Sprintf("the locked source package %q does not match the requested source package, %s", e.Name, e.Detail)
}

type UnsatisfiableRequirement struct {
	pypiOnlyPlatformUnsat
	Requirement, RequiredBy string
}

func (e UnsatisfiableRequirement) Error() string {
	return fmt.Sprintf("the requirement %q could not be satisfied (required by %q)", e.Requirement, e.RequiredBy)
}

type CondaUnsatisfiableRequirement struct {
	basePlatformUnsat
	Requirement, RequiredBy string
}

func (e CondaUnsatisfiableRequirement) Error() string {
	return fmt.Sprintf("the conda package does not satisfy the pypi requirement %q (required by %q)", e.Requirement, e.RequiredBy)
}

type TooManyCondaPackages struct {
	basePlatformUnsat
	Names []string
}

func (e TooManyCondaPackages) Error() string {
	return fmt.Sprintf("there are more conda packages in the lock-file than are used by the environment: %v", e.Names)
}

type TooManyPypiPackages struct {
	pypiOnlyPlatformUnsat
	Names []string
}

func (e TooManyPypiPackages) Error() string {
	return fmt.Sprintf("there are more pypi packages in the lock-file than are used by the environment: %v", e.Names)
}

type MissingPythonInterpreter struct{ basePlatformUnsat }

func (MissingPythonInterpreter) Error() string {
	return "there are pypi dependencies but a python interpreter is missing from the lock-file"
}

type PythonVersionMismatch struct {
	pypiOnlyPlatformUnsat
	Name, Specifiers, Locked string
}

func (e PythonVersionMismatch) Error() string {
	return fmt.Sprintf("%q requires python version %s but the python interpreter in the lock-file has version %s", e.Name, e.Specifiers, e.Locked)
}

type EditableDependencyOnCondaInstalledPackage struct {
	basePlatformUnsat
	Name string
}

func (e EditableDependencyOnCondaInstalledPackage) Error() string {
	return fmt.Sprintf("editable pypi dependency on conda-resolved package %q is not supported", e.Name)
}

type DirectURLDependencyOnCondaInstalledPackage struct {
	basePlatformUnsat
	Name string
}

func (e DirectURLDependencyOnCondaInstalledPackage) Error() string {
	return fmt.Sprintf("direct pypi url dependency to conda-installed package %q is not supported", e.Name)
}

type GitDependencyOnCondaInstalledPackage struct {
	basePlatformUnsat
	Name string
}

func (e GitDependencyOnCondaInstalledPackage) Error() string {
	return fmt.Sprintf("git dependency on conda-installed package %q is not supported", e.Name)
}

type PathDependencyOnCondaInstalledPackage struct {
	basePlatformUnsat
	Name string
}

func (e PathDependencyOnCondaInstalledPackage) Error() string {
	return fmt.Sprintf("path dependency on conda-installed package %q is not supported", e.Name)
}

type DirectoryDependencyOnCondaInstalledPackage struct {
	basePlatformUnsat
	Name string
}

func (e DirectoryDependencyOnCondaInstalledPackage) Error() string {
	return fmt.Sprintf("directory dependency on conda-installed package %q is not supported", e.Name)
}

type EditablePackageMismatch struct {
	pypiOnlyPlatformUnsat
	ExpectedEditable, UnexpectedEditable []string
}

func (e EditablePackageMismatch) Error() string {
	return fmt.Sprintf("editable package set mismatch: expected %v, unexpected %v", e.ExpectedEditable, e.UnexpectedEditable)
}

type FailedToDetermineSourceTreeHash struct {
	pypiOnlyPlatformUnsat
	Name string
	Err  error
}

func (e FailedToDetermineSourceTreeHash) Error() string {
	return fmt.Sprintf("failed to determine pypi source tree hash for %q: %v", e.Name, e.Err)
}
func (e FailedToDetermineSourceTreeHash) Unwrap() error { return e.Err }

type SourceTreeHashMismatch struct {
	pypiOnlyPlatformUnsat
	Name, Computed, Locked string
}

func (e SourceTreeHashMismatch) Error() string {
	return fmt.Sprintf("source tree hash for %q does not match the hash in the lock-file (computed %s, locked %s)", e.Name, e.Computed, e.Locked)
}

type InputHashMismatch struct {
	basePlatformUnsat
	Name, Computed, Locked string
}

func (e InputHashMismatch) Error() string {
	return fmt.Sprintf("the input hash for %q (%s) does not match the hash in the lock-file (%s)", e.Name, e.Computed, e.Locked)
}

type LockedPyPINamesMismatch struct {
	basePlatformUnsat
	Expected, Found string
}

func (e LockedPyPINamesMismatch) Error() string {
	return fmt.Sprintf("expected pypi package name %q but found %q", e.Expected, e.Found)
}

type LockedPyPIVersionsMismatch struct {
	pypiOnlyPlatformUnsat
	Name, Specifiers, Version string
}

func (e LockedPyPIVersionsMismatch) Error() string {
	return fmt.Sprintf("%q with specifiers %q does not match the locked version %q", e.Name, e.Specifiers, e.Version)
}

type LockedPyPIMalformedURL struct {
	basePlatformUnsat
	URL string
}

func (e LockedPyPIMalformedURL) Error() string {
	return fmt.Sprintf("the direct url should start with `direct+` or `git+` but found %q", e.URL)
}

type LockedPyPIRequiresDirectURL struct {
	pypiOnlyPlatformUnsat
	Name string
}

func (e LockedPyPIRequiresDirectURL) Error() string {
	return fmt.Sprintf("the spec for %q required a direct url but it was not locked as such", e.Name)
}

type LockedPyPIDirectURLMismatch struct {
	pypiOnlyPlatformUnsat
	Name, SpecURL, LockURL string
}

func (e LockedPyPIDirectURLMismatch) Error() string {
	return fmt.Sprintf("%q has mismatching url: %q != %q", e.Name, e.SpecURL, e.LockURL)
}

type LockedPyPIGitURLMismatch struct {
	pypiOnlyPlatformUnsat
	Name, SpecURL, LockURL string
}

func (e LockedPyPIGitURLMismatch) Error() string {
	return fmt.Sprintf("%q has mismatching git url: %q != %q", e.Name, e.SpecURL, e.LockURL)
}

type LockedPyPIGitSubdirectoryMismatch struct {
	pypiOnlyPlatformUnsat
	Name, SpecSubdir, LockSubdir string
}

func (e LockedPyPIGitSubdirectoryMismatch) Error() string {
	return fmt.Sprintf("%q has mismatching git subdirectory: %q != %q", e.Name, e.SpecSubdir, e.LockSubdir)
}

type LockedPyPIGitRefMismatch struct {
	pypiOnlyPlatformUnsat
	Name, ExpectedRef, FoundRef string
}

func (e LockedPyPIGitRefMismatch) Error() string {
	return fmt.Sprintf("%q has mismatching git ref: %q != %q", e.Name, e.ExpectedRef, e.FoundRef)
}

type LockedPyPIRequiresGitURL struct {
	pypiOnlyPlatformUnsat
	Name, LockedURL string
}

func (e LockedPyPIRequiresGitURL) Error() string {
	return fmt.Sprintf("%q expected a git url but the lock file has %q", e.Name, e.LockedURL)
}

type LockedPyPIRequiresPath struct {
	pypiOnlyPlatformUnsat
	Name string
}

func (e LockedPyPIRequiresPath) Error() string {
	return fmt.Sprintf("%q expected a path but the lock file has a url", e.Name)
}

type LockedPyPIPathMismatch struct {
	pypiOnlyPlatformUnsat
	Name, InstallPath, LockedPath string
}

func (e LockedPyPIPathMismatch) Error() string {
	return fmt.Sprintf("%q absolute required path is %q but currently locked at %q", e.Name, e.InstallPath, e.LockedPath)
}

type CondaPackageShouldBePypi struct {
	basePlatformUnsat
	Name string
}

func (e CondaPackageShouldBePypi) Error() string {
	return fmt.Sprintf("%q is locked as a conda package but only requested by pypi dependencies", e.Name)
}

// SolveGroupUnsat is a cross-environment inconsistency found after every
// member of a solve group has been individually verified (spec.md §4.4
// "Solve-group cross-check").
type SolveGroupUnsat interface {
	error
	solveGroupUnsat()
}

type GroupCondaPackageShouldBePypi struct{ Name string }

func (e GroupCondaPackageShouldBePypi) Error() string {
	return fmt.Sprintf("%q is locked as a conda package but only requested by pypi dependencies", e.Name)
}
func (GroupCondaPackageShouldBePypi) solveGroupUnsat() {}
