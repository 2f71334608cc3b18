package analysis

import (
	"context"

	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
	"github.com/perfgrid/utilmap/internal/store"
	"github.com/perfgrid/utilmap/pkg/heatmap"
	"github.com/perfgrid/utilmap/pkg/interval"
)

// commGpuTimeUtil maps the utilization of communication kernels, compute
// kernels, their union and their overlap onto duration bins, per
// (pid, device). The overlap column is the intersection of the consolidated
// communication and compute sets: time the device spent doing both at once.
type commGpuTimeUtil struct {
	base
}

func (a *commGpuTimeUtil) Name() string {
	return KindCommGpuTimeUtil
}

func (a *commGpuTimeUtil) Plan(ctx context.Context, paths []string) (Params, error) {
	return a.planBins(ctx, paths)
}

func (a *commGpuTimeUtil) Task(path string, p Params) sched.Task {
	file := stem(path)

	return a.task(path, func(ctx context.Context, r store.Reader) sched.Outcome {
		records, err := r.KernelSpans(ctx)
		if err != nil {
			return sched.Failure(file, err)
		}
		if len(records) == 0 {
			return sched.Empty(file, "no kernel activity")
		}
		if !hasComm(records) {
			return sched.Empty(file, "no communication kernels")
		}

		bins := heatmap.Bins(p.Bins, p.BinSize)
		table := report.NewTable("analysis",
			"Duration", "All", "Communication", "Compute", "Overlap", "PID", "Device ID")

		groups, keys := groupSpans(records)
		for _, key := range keys {
			var commSpans, computeSpans []interval.Span
			for _, rec := range groups[key] {
				span := interval.Span{Start: rec.Start, End: rec.End}
				if rec.Comm {
					commSpans = append(commSpans, span)
				} else {
					computeSpans = append(computeSpans, span)
				}
			}

			all := interval.Merge(toSpans(groups[key]))
			comm := interval.Merge(commSpans)
			compute := interval.Merge(computeSpans)
			overlap := comm.Intersect(compute)

			columns := [][]interval.Span{
				all.Spans(), comm.Spans(), compute.Spans(), overlap.Spans(),
			}
			pcts := make([][]float64, len(columns))
			for i, spans := range columns {
				pcts[i], err = heatmap.CoveragePcts(spans, bins, p.Decimals)
				if err != nil {
					return sched.Failure(file, err)
				}
			}

			for i, b := range bins {
				table.Append(b.Start, pcts[0][i], pcts[1][i], pcts[2][i], pcts[3][i],
					key.Pid, key.Device)
			}
		}

		return sched.Success(file, &report.FileResult{File: file, Table: table})
	})
}

func (a *commGpuTimeUtil) Reduce(results []*report.FileResult, _ Params) ([]*report.Table, error) {
	return stdReduce(results)
}

func hasComm(records []store.KernelSpan) bool {
	for _, rec := range records {
		if rec.Comm {
			return true
		}
	}
	return false
}
