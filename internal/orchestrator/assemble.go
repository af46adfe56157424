package orchestrator

import (
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/taskcell"
)

// Results is the task graph's output: the freshly solved conda records for
// each solve-group/platform cell that was re-solved, and the freshly solved
// PyPI records for each environment/platform cell that was re-solved.
// Callers (lock-file assembly) combine this with whatever was already locked
// for cells that were not outdated.
type Results struct {
	Conda map[SolveGroupKey][]record.PixiRecord
	PyPI  map[EnvironmentPlatform][]record.PyPiRecord
}

// CondaFor returns the solved conda records for one environment's platform,
// looked up by its solve group, and whether that cell was actually solved
// this run.
func (r *Results) CondaFor(env EnvironmentPlan, platform string) ([]record.PixiRecord, bool) {
	records, ok := r.Conda[SolveGroupKey{SolveGroup: env.SolveGroup, Platform: platform}]
	return records, ok
}

// PyPIFor returns the solved PyPI records for one environment's platform,
// and whether that cell was actually solved this run.
func (r *Results) PyPIFor(environment, platform string) ([]record.PyPiRecord, bool) {
	records, ok := r.PyPI[EnvironmentPlatform{Environment: environment, Platform: platform}]
	return records, ok
}

// collectResults drains every published cell into a Results value. It is
// only called after both errgroups have returned nil, so every cell that was
// created is guaranteed to have been written (taskcell.Cell.TryGet would
// otherwise report not-ready and the entry would be silently dropped).
func collectResults(
	condaCells map[SolveGroupKey]*taskcell.Cell[condaResult],
	pypiCells map[EnvironmentPlatform]*taskcell.Cell[pypiResult],
) *Results {
	out := &Results{
		Conda: make(map[SolveGroupKey][]record.PixiRecord, len(condaCells)),
		PyPI:  make(map[EnvironmentPlatform][]record.PyPiRecord, len(pypiCells)),
	}

	for key, cell := range condaCells {
		if res, _, ok := cell.TryGet(); ok {
			out.Conda[key] = res.records
		}
	}

	for ep, cell := range pypiCells {
		if res, _, ok := cell.TryGet(); ok {
			out.PyPI[ep] = res.records
		}
	}

	return out
}
