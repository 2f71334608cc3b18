package analysis

import (
	"context"

	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
	"github.com/perfgrid/utilmap/internal/store"
	"github.com/perfgrid/utilmap/pkg/heatmap"
	"github.com/perfgrid/utilmap/pkg/interval"
)

// lowGpuUtil finds time regions with low GPU utilization. For each
// (pid, device) the range from the first to the last GPU operation is split
// into equal chunks (the chunk width is rounded up, so the last chunk may
// extend past the range; the in-use percentage accounts for the clipped
// width). Chunks whose utilization falls below the threshold are reported;
// consecutive low chunks are coalesced into one region keeping the
// duration-weighted average percentage.
//
// The utilization is time utilization with multiplicity: concurrent
// operations add up, so a chunk can exceed 100%.
type lowGpuUtil struct {
	base
}

func (a *lowGpuUtil) Name() string {
	return KindLowGpuUtil
}

func (a *lowGpuUtil) Plan(_ context.Context, _ []string) (Params, error) {
	return a.params(), nil
}

func (a *lowGpuUtil) Task(path string, p Params) sched.Task {
	file := stem(path)

	return a.task(path, func(ctx context.Context, r store.Reader) sched.Outcome {
		records, err := r.KernelSpans(ctx)
		if err != nil {
			return sched.Failure(file, err)
		}
		if len(records) == 0 {
			return sched.Empty(file, "no kernel activity")
		}

		table := report.NewTable("analysis",
			"Start", "Duration", "In-Use", "PID", "Device ID")

		groups, keys := groupSpans(records)
		for _, key := range keys {
			spans := toSpans(groups[key])
			for _, region := range lowRegions(spans, p.Bins, p.Threshold, p.Decimals) {
				table.Append(region.start, region.duration, region.pct, key.Pid, key.Device)
			}
		}
		if len(table.Rows) == 0 {
			return sched.Empty(file, "no regions below threshold")
		}

		return sched.Success(file, &report.FileResult{File: file, Table: table})
	})
}

func (a *lowGpuUtil) Reduce(results []*report.FileResult, _ Params) ([]*report.Table, error) {
	return stdReduce(results)
}

type lowRegion struct {
	start    int64
	duration int64
	pct      float64
}

func lowRegions(spans []interval.Span, chunks int, threshold float64, decimals int) []lowRegion {
	rangeStart, rangeEnd := spans[0].Start, spans[0].End
	for _, sp := range spans[1:] {
		rangeStart = min(rangeStart, sp.Start)
		rangeEnd = max(rangeEnd, sp.End)
	}
	if rangeEnd <= rangeStart {
		return nil
	}

	size := (rangeEnd - rangeStart + int64(chunks) - 1) / int64(chunks)

	var (
		regions []lowRegion
		open    bool
		cur     lowRegion
		weight  float64 // pct * duration accumulator for the open region
	)

	for _, b := range heatmap.BinsFrom(rangeStart, chunks, size) {
		end := min(b.End, rangeEnd)
		width := end - b.Start
		if width <= 0 {
			break
		}

		var covered int64
		for _, sp := range spans {
			covered += sp.Overlap(interval.Span{Start: b.Start, End: end})
		}
		pct := float64(covered) / float64(width) * 100

		if pct >= threshold {
			if open {
				cur.pct = heatmap.Round(weight/float64(cur.duration), decimals)
				regions = append(regions, cur)
				open = false
			}
			continue
		}

		if !open {
			cur = lowRegion{start: b.Start}
			weight = 0
			open = true
		}
		cur.duration += width
		weight += pct * float64(width)
	}
	if open {
		cur.pct = heatmap.Round(weight/float64(cur.duration), decimals)
		regions = append(regions, cur)
	}

	return regions
}
