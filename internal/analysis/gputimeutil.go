package analysis

import (
	"context"

	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
	"github.com/perfgrid/utilmap/internal/store"
	"github.com/perfgrid/utilmap/pkg/heatmap"
	"github.com/perfgrid/utilmap/pkg/interval"
)

// gpuTimeUtil maps GPU kernel activity per (pid, device) onto duration bins.
// In the default mode overlapping kernels are consolidated first, so a bin
// percentage is the share of the bin during which the device was busy. In
// cumulative mode concurrent kernels add up and a bin can exceed 100%.
type gpuTimeUtil struct {
	base
}

func (a *gpuTimeUtil) Name() string {
	return KindGpuTimeUtil
}

func (a *gpuTimeUtil) Plan(ctx context.Context, paths []string) (Params, error) {
	return a.planBins(ctx, paths)
}

func (a *gpuTimeUtil) Task(path string, p Params) sched.Task {
	file := stem(path)

	return a.task(path, func(ctx context.Context, r store.Reader) sched.Outcome {
		records, err := r.KernelSpans(ctx)
		if err != nil {
			return sched.Failure(file, err)
		}
		if len(records) == 0 {
			return sched.Empty(file, "no kernel activity")
		}

		bins := heatmap.Bins(p.Bins, p.BinSize)
		table := report.NewTable("analysis", "Duration", "Kernel", "PID", "Device ID")

		groups, keys := groupSpans(records)
		for _, key := range keys {
			spans := toSpans(groups[key])
			if !p.Cumulative {
				spans = interval.Merge(spans).Spans()
			}

			pcts, err := heatmap.CoveragePcts(spans, bins, p.Decimals)
			if err != nil {
				return sched.Failure(file, err)
			}
			for i, b := range bins {
				table.Append(b.Start, pcts[i], key.Pid, key.Device)
			}
		}

		return sched.Success(file, &report.FileResult{File: file, Table: table})
	})
}

func (a *gpuTimeUtil) Reduce(results []*report.FileResult, _ Params) ([]*report.Table, error) {
	return stdReduce(results)
}
