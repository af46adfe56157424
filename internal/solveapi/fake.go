package solveapi

import (
	"context"
	"fmt"

	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
	"github.com/prefix-dev/pixi-sub001/internal/record"
)

// Fake is a hand-rolled, fully in-memory implementation of every
// collaborator interface in this package, for use in tests that exercise
// the orchestrator without a real solver, build backend, or installer.
type Fake struct {
	CondaSolveFunc    func(ctx context.Context, req CondaSolveRequest) ([]record.PixiRecord, error)
	PyPISolveFunc     func(ctx context.Context, req PyPISolveRequest) ([]record.PyPiRecord, error)
	ExtractSourceFunc func(ctx context.Context, source manifestspec.SourceSpec, channels []string, platform string, virtualPackages []string) (SourceRecord, error)
	AmendPurlsFunc    func(ctx context.Context, records []record.BinaryCondaRecord) ([]record.BinaryCondaRecord, error)
	InstallCondaFunc  func(ctx context.Context, prefix string, records []record.PixiRecord, reinstall []string) error
	InstallPyPIFunc   func(ctx context.Context, prefix string, records []record.PyPiRecord, reinstall []string) error

	CondaSolveCalls int
	PyPISolveCalls  int
}

func (f *Fake) SolveConda(ctx context.Context, req CondaSolveRequest) ([]record.PixiRecord, error) {
	f.CondaSolveCalls++

	if f.CondaSolveFunc != nil {
		return f.CondaSolveFunc(ctx, req)
	}

	return nil, fmt.Errorf("solveapi.Fake: SolveConda not configured")
}

func (f *Fake) SolvePyPI(ctx context.Context, req PyPISolveRequest) ([]record.PyPiRecord, error) {
	f.PyPISolveCalls++

	if f.PyPISolveFunc != nil {
		return f.PyPISolveFunc(ctx, req)
	}

	return nil, fmt.Errorf("solveapi.Fake: SolvePyPI not configured")
}

func (f *Fake) ExtractSourceMetadata(ctx context.Context, source manifestspec.SourceSpec, channels []string, platform string, virtualPackages []string) (SourceRecord, error) {
	if f.ExtractSourceFunc != nil {
		return f.ExtractSourceFunc(ctx, source, channels, platform, virtualPackages)
	}

	return SourceRecord{}, fmt.Errorf("solveapi.Fake: ExtractSourceMetadata not configured")
}

func (f *Fake) AmendPurls(ctx context.Context, records []record.BinaryCondaRecord) ([]record.BinaryCondaRecord, error) {
	if f.AmendPurlsFunc != nil {
		return f.AmendPurlsFunc(ctx, records)
	}

	return records, nil
}

func (f *Fake) InstallConda(ctx context.Context, prefix string, records []record.PixiRecord, reinstall []string) error {
	if f.InstallCondaFunc != nil {
		return f.InstallCondaFunc(ctx, prefix, records, reinstall)
	}

	return nil
}

func (f *Fake) InstallPyPI(ctx context.Context, prefix string, records []record.PyPiRecord, reinstall []string) error {
	if f.InstallPyPIFunc != nil {
		return f.InstallPyPIFunc(ctx, prefix, records, reinstall)
	}

	return nil
}
