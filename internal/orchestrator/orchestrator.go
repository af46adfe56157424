package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
	"github.com/prefix-dev/pixi-sub001/internal/matchspec"
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/solveapi"
	"github.com/prefix-dev/pixi-sub001/internal/taskcell"
)

// Orchestrator runs the update task graph of spec.md §4.6 against a set of
// external collaborators.
type Orchestrator struct {
	Conda           solveapi.CondaSolver
	PyPI            solveapi.PyPISolver
	SourceExtractor solveapi.SourceMetadataExtractor
	PurlAmender     solveapi.PurlAmender
	CondaInstaller  solveapi.CondaInstaller

	// CondaConcurrency caps simultaneous conda solves; PyPIConcurrency caps
	// simultaneous PyPI solves (spec.md §4.6 "Suspension and ordering").
	// Zero means "no explicit cap" (errgroup.SetLimit(-1)).
	CondaConcurrency int
	PyPIConcurrency  int

	Logger *slog.Logger

	// sourceExtractGroup collapses concurrent ExtractSourceMetadata calls
	// for the same source package into one: a path or git dependency
	// referenced by more than one solve group is otherwise extracted once
	// per group running concurrently (spec.md §5 "External calls are
	// deduplicated by key").
	sourceExtractGroup singleflight.Group
}

// condaResult is a conda solve's published output; a failed solve publishes
// its error alongside it through the cell.
type condaResult struct {
	records []record.PixiRecord
}

// pypiResult is a PyPI solve's published output for one (environment,
// platform) pair.
type pypiResult struct {
	records []record.PyPiRecord
}

// Run executes the full task graph for plan and returns the per-environment,
// per-platform results needed to assemble a new lock-file. On the first
// task error, in-flight tasks are abandoned and that error is returned
// (spec.md §4.6 "Cancellation").
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (*Results, error) {
	logger := o.logger()

	condaCells := map[SolveGroupKey]*taskcell.Cell[condaResult]{}
	for _, env := range plan.Environments {
		for _, platform := range env.Platforms {
			ep := EnvironmentPlatform{Environment: env.Environment, Platform: platform}
			if !plan.OutdatedConda[ep] {
				continue
			}

			key := SolveGroupKey{SolveGroup: env.SolveGroup, Platform: platform}
			if _, exists := condaCells[key]; !exists {
				condaCells[key] = taskcell.New[condaResult]()
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limitOrUnbounded(o.CondaConcurrency))

	condaReqByKey := buildCondaRequestIndex(plan)

	for key, cell := range condaCells {
		key, cell := key, cell

		g.Go(func() error {
			logger.Debug("solving conda", slog.String("solve_group", key.SolveGroup), slog.String("platform", key.Platform))

			req := condaReqByKey[key]

			if o.SourceExtractor != nil {
				expanded, err := o.expandSourceSpecs(gctx, req, key.Platform)
				if err != nil {
					cell.Set(condaResult{}, err)
					return fmt.Errorf("extracting source metadata for %s/%s: %w", key.SolveGroup, key.Platform, err)
				}

				req = expanded
			}

			records, err := o.Conda.SolveConda(gctx, req)
			if err != nil {
				cell.Set(condaResult{}, err)
				return fmt.Errorf("solving conda for %s/%s: %w", key.SolveGroup, key.Platform, err)
			}

			if o.PurlAmender != nil && requestHasPyPIDeps(plan, key) {
				binaries := binaryRecords(records)

				amended, err := o.PurlAmender.AmendPurls(gctx, binaries)
				if err != nil {
					cell.Set(condaResult{}, err)
					return fmt.Errorf("amending purls for %s/%s: %w", key.SolveGroup, key.Platform, err)
				}

				records = mergeAmendedBinaries(records, amended)
			}

			cell.Set(condaResult{records: records}, nil)

			return nil
		})
	}

	pypiG, pypiCtx := errgroup.WithContext(ctx)
	pypiG.SetLimit(limitOrUnbounded(o.effectivePyPIConcurrency(plan)))

	pypiCells := map[EnvironmentPlatform]*taskcell.Cell[pypiResult]{}

	for _, env := range plan.Environments {
		env := env

		for _, platform := range env.Platforms {
			ep := EnvironmentPlatform{Environment: env.Environment, Platform: platform}
			if !plan.OutdatedPyPI[ep] {
				continue
			}

			platform := platform
			cell := taskcell.New[pypiResult]()
			pypiCells[ep] = cell

			ownKey := SolveGroupKey{SolveGroup: env.SolveGroup, Platform: platform}
			bestKey := SolveGroupKey{SolveGroup: env.SolveGroup, Platform: env.BestPlatform}

			pypiG.Go(func() error {
				condaHere, err := awaitConda(pypiCtx, condaCells, ownKey)
				if err != nil {
					cell.Set(pypiResult{}, err)
					return err
				}

				condaBest := condaHere
				if bestKey != ownKey {
					condaBest, err = awaitConda(pypiCtx, condaCells, bestKey)
					if err != nil {
						cell.Set(pypiResult{}, err)
						return err
					}
				}

				if env.RequiresCondaPrefix && o.CondaInstaller != nil {
					prefix := fmt.Sprintf("%s/%s", env.Environment, env.BestPlatform)
					if err := o.CondaInstaller.InstallConda(pypiCtx, prefix, condaBest.records, nil); err != nil {
						cell.Set(pypiResult{}, err)
						return fmt.Errorf("installing conda prefix for %s: %w", env.Environment, err)
					}
				}

				records, err := o.PyPI.SolvePyPI(pypiCtx, solveapi.PyPISolveRequest{
					Requirements: env.PyPIRequirements,
					CondaRecords: condaHere.records,
				})
				if err != nil {
					cell.Set(pypiResult{}, err)
					return fmt.Errorf("solving pypi for %s/%s: %w", env.Environment, platform, err)
				}

				cell.Set(pypiResult{records: records}, nil)

				return nil
			})
		}
	}

	var condaErr, pypiErr error

	condaErr = g.Wait()
	pypiErr = pypiG.Wait()

	if condaErr != nil {
		return nil, condaErr
	}

	if pypiErr != nil {
		return nil, pypiErr
	}

	return collectResults(condaCells, pypiCells), nil
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.Default()
}

func limitOrUnbounded(n int) int {
	if n <= 0 {
		return -1
	}

	return n
}

// effectivePyPIConcurrency resolves o.PyPIConcurrency against spec.md §4.6's
// default: when left unset, the cap is 1 if any environment in plan has a
// direct PyPI source dependency (git, path, or directory), else it falls
// back to the conda cap.
func (o *Orchestrator) effectivePyPIConcurrency(plan Plan) int {
	if o.PyPIConcurrency > 0 {
		return o.PyPIConcurrency
	}

	for _, env := range plan.Environments {
		if env.HasDirectPyPISource {
			return 1
		}
	}

	return o.CondaConcurrency
}

func awaitConda(ctx context.Context, cells map[SolveGroupKey]*taskcell.Cell[condaResult], key SolveGroupKey) (condaResult, error) {
	cell, ok := cells[key]
	if !ok {
		return condaResult{}, fmt.Errorf("no conda solve scheduled for %s/%s", key.SolveGroup, key.Platform)
	}

	return cell.Wait(ctx)
}

func binaryRecords(records []record.PixiRecord) []record.BinaryCondaRecord {
	out := make([]record.BinaryCondaRecord, 0, len(records))

	for _, r := range records {
		if r.Binary != nil {
			out = append(out, *r.Binary)
		}
	}

	return out
}

func mergeAmendedBinaries(original []record.PixiRecord, amended []record.BinaryCondaRecord) []record.PixiRecord {
	byName := make(map[string]record.BinaryCondaRecord, len(amended))
	for _, b := range amended {
		byName[b.Name.Normalized()] = b
	}

	out := make([]record.PixiRecord, len(original))

	for i, r := range original {
		if r.Binary == nil {
			out[i] = r
			continue
		}

		if b, ok := byName[r.Binary.Name.Normalized()]; ok {
			out[i] = record.PixiRecord{Binary: &b}
			continue
		}

		out[i] = r
	}

	return out
}

func buildCondaRequestIndex(plan Plan) map[SolveGroupKey]solveapi.CondaSolveRequest {
	out := map[SolveGroupKey]solveapi.CondaSolveRequest{}

	for _, env := range plan.Environments {
		for _, platform := range env.Platforms {
			ep := EnvironmentPlatform{Environment: env.Environment, Platform: platform}
			if !plan.OutdatedConda[ep] {
				continue
			}

			key := SolveGroupKey{SolveGroup: env.SolveGroup, Platform: platform}
			if existing, ok := out[key]; ok {
				out[key] = mergeCondaRequests(existing, env, platform)
				continue
			}

			out[key] = solveapi.CondaSolveRequest{
				Specs:           env.CondaRequirements,
				Channels:        env.Channels,
				Platform:        platform,
				VirtualPackages: env.VirtualPackages,
			}
		}
	}

	return out
}

// mergeCondaRequests combines two environments sharing a solve group into
// one solve request: their conda specs are unioned (spec.md §4.6 rule 1,
// "multiple environments share its output cell").
func mergeCondaRequests(existing solveapi.CondaSolveRequest, env EnvironmentPlan, _ string) solveapi.CondaSolveRequest {
	merged := make(map[string]manifestspec.PixiSpec, len(existing.Specs)+len(env.CondaRequirements))
	for k, v := range existing.Specs {
		merged[k] = v
	}

	for k, v := range env.CondaRequirements {
		merged[k] = v
	}

	existing.Specs = merged

	return existing
}

// expandSourceSpecs resolves every source package named in req before the
// conda solver runs, folding each extracted build dependency back in as a
// plain binary spec so the solver sees the source package's own requirements
// (spec.md §4.6 "Source-dependency integration").
func (o *Orchestrator) expandSourceSpecs(ctx context.Context, req solveapi.CondaSolveRequest, platform string) (solveapi.CondaSolveRequest, error) {
	var names []string
	for name, spec := range req.Specs {
		if spec.IsSource() {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	for _, name := range names {
		spec := req.Specs[name]

		extracted, err := o.extractSourceMetadata(ctx, *spec.Source, req.Channels, platform, req.VirtualPackages)
		if err != nil {
			return req, fmt.Errorf("extracting source metadata for %s: %w", name, err)
		}

		req.Locked = append(req.Locked, extracted.Records...)

		for _, dep := range extracted.TransitiveDepends {
			parsed, err := matchspec.Parse(dep)
			if err != nil {
				return req, fmt.Errorf("parsing transitive dependency %q of %s: %w", dep, name, err)
			}

			depName := parsed.Name.Normalized()
			if _, exists := req.Specs[depName]; exists {
				continue
			}

			req.Specs[depName] = manifestspec.PixiSpec{
				Binary: &manifestspec.BinarySpec{VersionRange: parsed.VersionRange, Build: parsed.Build},
			}
		}
	}

	return req, nil
}

// extractSourceMetadata calls the configured SourceMetadataExtractor,
// deduplicating concurrent calls that share the same source, channel set,
// platform, and virtual packages via sourceExtractGroup.
func (o *Orchestrator) extractSourceMetadata(
	ctx context.Context,
	source manifestspec.SourceSpec,
	channels []string,
	platform string,
	virtualPackages []string,
) (solveapi.SourceRecord, error) {
	key := sourceExtractKey(source, channels, platform, virtualPackages)

	v, err, _ := o.sourceExtractGroup.Do(key, func() (interface{}, error) {
		return o.SourceExtractor.ExtractSourceMetadata(ctx, source, channels, platform, virtualPackages)
	})
	if err != nil {
		return solveapi.SourceRecord{}, err
	}

	return v.(solveapi.SourceRecord), nil
}

func sourceExtractKey(source manifestspec.SourceSpec, channels []string, platform string, virtualPackages []string) string {
	return fmt.Sprintf("%d|%s|%s|%d:%s|%s|%s|%s|%v|%v",
		source.Kind, source.Path, source.GitURL, source.GitRef.Kind, source.GitRef.Value, source.URL, source.Subdir,
		platform, channels, virtualPackages)
}

func requestHasPyPIDeps(plan Plan, key SolveGroupKey) bool {
	for _, env := range plan.Environments {
		if env.SolveGroup != key.SolveGroup {
			continue
		}

		for _, p := range env.Platforms {
			if p == key.Platform && len(env.PyPIRequirements) > 0 {
				return true
			}
		}
	}

	return false
}
