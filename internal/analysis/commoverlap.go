package analysis

import (
	"cmp"
	"context"
	"slices"

	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
	"github.com/perfgrid/utilmap/internal/store"
	"github.com/perfgrid/utilmap/pkg/heatmap"
	"github.com/perfgrid/utilmap/pkg/interval"
)

// commGpuOverlap traces, for every kernel, how much of its runtime overlaps
// communication and compute kernels of the same (pid, device). The raw spans
// are deliberately not consolidated: a kernel double-covered by two
// concurrent communication kernels counts both, so the sums preserve
// multiplicity. The divisor bounds the accumulator's peak memory.
type commGpuOverlap struct {
	base
}

func (a *commGpuOverlap) Name() string {
	return KindCommGpuOverlap
}

func (a *commGpuOverlap) Plan(_ context.Context, _ []string) (Params, error) {
	return a.params(), nil
}

func (a *commGpuOverlap) Task(path string, p Params) sched.Task {
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

		table := report.NewTable("trace",
			"Name", "Start", "End", "PID", "Device ID", "Communication Sum", "Compute Sum")

		groups, keys := groupSpans(records)
		for _, key := range keys {
			var comm, compute []store.KernelSpan
			for _, rec := range groups[key] {
				if rec.Comm {
					comm = append(comm, rec)
				} else {
					compute = append(compute, rec)
				}
			}
			commSpans := toSpans(comm)
			computeSpans := toSpans(compute)

			commCommSums, err := interval.SumSelfOverlaps(commSpans, p.Divisor)
			if err != nil {
				return sched.Failure(file, err)
			}
			commCompSums, err := interval.SumOverlaps(commSpans, computeSpans, p.Divisor)
			if err != nil {
				return sched.Failure(file, err)
			}
			compCommSums, err := interval.SumOverlaps(computeSpans, commSpans, p.Divisor)
			if err != nil {
				return sched.Failure(file, err)
			}
			compCompSums, err := interval.SumSelfOverlaps(computeSpans, p.Divisor)
			if err != nil {
				return sched.Failure(file, err)
			}

			for i, rec := range comm {
				table.Append(rec.Name, rec.Start, rec.End, key.Pid, key.Device,
					commCommSums[i], commCompSums[i])
			}
			for i, rec := range compute {
				table.Append(rec.Name, rec.Start, rec.End, key.Pid, key.Device,
					compCommSums[i], compCompSums[i])
			}
		}

		return sched.Success(file, &report.FileResult{File: file, Table: table})
	})
}

// Reduce derives per-kernel overlap percentages and a per-name aggregate
// weighted by total kernel duration.
func (a *commGpuOverlap) Reduce(results []*report.FileResult, p Params) ([]*report.Table, error) {
	rankTrace := report.NewTable("rank_trace",
		"Name", "Start", "End", "PID", "Device ID",
		"Communication Overlap", "Compute Overlap", "Rank")

	type aggregate struct {
		count    int64
		duration int64
		commSum  int64
		compSum  int64
	}
	byName := make(map[string]*aggregate)

	for rank, res := range results {
		for _, row := range res.Table.Rows {
			name := row[0].(string)
			start := row[1].(int64)
			end := row[2].(int64)
			commSum := row[5].(int64)
			compSum := row[6].(int64)
			duration := end - start

			rankTrace.Append(name, start, end, row[3], row[4],
				overlapPct(commSum, duration, p.Decimals),
				overlapPct(compSum, duration, p.Decimals),
				int64(rank))

			agg := byName[name]
			if agg == nil {
				agg = &aggregate{}
				byName[name] = agg
			}
			agg.count++
			agg.duration += duration
			agg.commSum += commSum
			agg.compSum += compSum
		}
	}

	grouped := report.NewTable("grouped_trace",
		"Name", "Count", "Communication Overlap", "Compute Overlap")

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.SortFunc(names, cmp.Compare)
	for _, name := range names {
		agg := byName[name]
		grouped.Append(name, agg.count,
			overlapPct(agg.commSum, agg.duration, p.Decimals),
			overlapPct(agg.compSum, agg.duration, p.Decimals))
	}

	return []*report.Table{rankTrace, grouped}, nil
}

func overlapPct(sum, duration int64, decimals int) float64 {
	if duration == 0 {
		return 0
	}
	return heatmap.Round(float64(sum)/float64(duration)*100, decimals)
}
