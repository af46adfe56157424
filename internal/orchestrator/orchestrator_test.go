package orchestrator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/orchestrator"
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/solveapi"
)

func pixiSpec(versionRange string) manifestspec.PixiSpec {
	return manifestspec.PixiSpec{Binary: &manifestspec.BinarySpec{VersionRange: versionRange}}
}

func TestRunSharesCondaCellAcrossEnvironments(t *testing.T) {
	var condaCalls int32

	fake := &solveapi.Fake{
		CondaSolveFunc: func(ctx context.Context, req solveapi.CondaSolveRequest) ([]record.PixiRecord, error) {
			atomic.AddInt32(&condaCalls, 1)
			return []record.PixiRecord{{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("python")}}}, nil
		},
	}

	plan := orchestrator.Plan{
		Environments: []orchestrator.EnvironmentPlan{
			{
				Environment:       "default",
				SolveGroup:        "group-a",
				Platforms:         []string{"linux-64"},
				BestPlatform:      "linux-64",
				CondaRequirements: map[string]manifestspec.PixiSpec{"python": pixiSpec(">=3.10")},
			},
			{
				Environment:       "test",
				SolveGroup:        "group-a",
				Platforms:         []string{"linux-64"},
				BestPlatform:      "linux-64",
				CondaRequirements: map[string]manifestspec.PixiSpec{"pytest": pixiSpec(">=7")},
			},
		},
		OutdatedConda: map[orchestrator.EnvironmentPlatform]bool{
			{Environment: "default", Platform: "linux-64"}: true,
			{Environment: "test", Platform: "linux-64"}:    true,
		},
		OutdatedPyPI: map[orchestrator.EnvironmentPlatform]bool{},
	}

	o := &orchestrator.Orchestrator{Conda: fake, PyPI: fake}

	results, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if condaCalls != 1 {
		t.Fatalf("expected one shared conda solve for the solve group, got %d", condaCalls)
	}

	records, ok := results.CondaFor(plan.Environments[0], "linux-64")
	if !ok || len(records) != 1 {
		t.Fatalf("expected one record for default/linux-64, got %v ok=%v", records, ok)
	}
}

func TestRunPyPIDependsOnOwnAndBestPlatformConda(t *testing.T) {
	var sawPlatforms []string

	fake := &solveapi.Fake{
		CondaSolveFunc: func(ctx context.Context, req solveapi.CondaSolveRequest) ([]record.PixiRecord, error) {
			sawPlatforms = append(sawPlatforms, req.Platform)
			return []record.PixiRecord{{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("python"), Version: "3.11.0"}}}, nil
		},
		PyPISolveFunc: func(ctx context.Context, req solveapi.PyPISolveRequest) ([]record.PyPiRecord, error) {
			if len(req.CondaRecords) != 1 {
				t.Errorf("expected the own-platform conda records to be passed to the pypi solve, got %d", len(req.CondaRecords))
			}
			return []record.PyPiRecord{{Name: names.NewPyPiName("requests")}}, nil
		},
	}

	plan := orchestrator.Plan{
		Environments: []orchestrator.EnvironmentPlan{
			{
				Environment:      "default",
				SolveGroup:       "default",
				Platforms:        []string{"linux-64", "osx-64"},
				BestPlatform:     "linux-64",
				PyPIRequirements: []string{"requests"},
			},
		},
		OutdatedConda: map[orchestrator.EnvironmentPlatform]bool{
			{Environment: "default", Platform: "linux-64"}: true,
			{Environment: "default", Platform: "osx-64"}:   true,
		},
		OutdatedPyPI: map[orchestrator.EnvironmentPlatform]bool{
			{Environment: "default", Platform: "osx-64"}: true,
		},
	}

	o := &orchestrator.Orchestrator{Conda: fake, PyPI: fake}

	results, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sawPlatforms) != 2 {
		t.Fatalf("expected both linux-64 and osx-64 conda solves, got %v", sawPlatforms)
	}

	records, ok := results.PyPIFor("default", "osx-64")
	if !ok || len(records) != 1 {
		t.Fatalf("expected one pypi record for default/osx-64, got %v ok=%v", records, ok)
	}
}

func TestRunAbortsOnFirstError(t *testing.T) {
	boom := errors.New("solver exploded")

	fake := &solveapi.Fake{
		CondaSolveFunc: func(ctx context.Context, req solveapi.CondaSolveRequest) ([]record.PixiRecord, error) {
			return nil, boom
		},
	}

	plan := orchestrator.Plan{
		Environments: []orchestrator.EnvironmentPlan{
			{
				Environment:       "default",
				SolveGroup:        "default",
				Platforms:         []string{"linux-64"},
				BestPlatform:      "linux-64",
				CondaRequirements: map[string]manifestspec.PixiSpec{"python": pixiSpec(">=3.10")},
			},
		},
		OutdatedConda: map[orchestrator.EnvironmentPlatform]bool{
			{Environment: "default", Platform: "linux-64"}: true,
		},
		OutdatedPyPI: map[orchestrator.EnvironmentPlatform]bool{},
	}

	o := &orchestrator.Orchestrator{Conda: fake, PyPI: fake}

	_, err := o.Run(context.Background(), plan)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the solver error to propagate, got %v", err)
	}
}

func TestRunSkipsCellsThatAreNotOutdated(t *testing.T) {
	fake := &solveapi.Fake{
		CondaSolveFunc: func(ctx context.Context, req solveapi.CondaSolveRequest) ([]record.PixiRecord, error) {
			return []record.PixiRecord{{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("python")}}}, nil
		},
	}

	plan := orchestrator.Plan{
		Environments: []orchestrator.EnvironmentPlan{
			{
				Environment:       "default",
				SolveGroup:        "default",
				Platforms:         []string{"linux-64"},
				BestPlatform:      "linux-64",
				CondaRequirements: map[string]manifestspec.PixiSpec{"python": pixiSpec(">=3.10")},
			},
		},
		OutdatedConda: map[orchestrator.EnvironmentPlatform]bool{},
		OutdatedPyPI:  map[orchestrator.EnvironmentPlatform]bool{},
	}

	o := &orchestrator.Orchestrator{Conda: fake, PyPI: fake}

	results, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := results.CondaFor(plan.Environments[0], "linux-64"); ok {
		t.Fatal("expected no conda result for a cell that was not outdated")
	}
}
