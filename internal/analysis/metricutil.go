package analysis

import (
	"context"
	"slices"
	"strings"

	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
	"github.com/perfgrid/utilmap/internal/store"
	"github.com/perfgrid/utilmap/pkg/heatmap"
)

// Metric name fragments matched against the report's metric names, which
// carry unit suffixes that vary between hardware generations.
var metricColumns = []struct {
	column string
	match  string
}{
	{"SMs Active", "SMs Active"},
	{"SM Issue", "SM Issue"},
	{"Tensor Active", "Tensor Active"},
}

// gpuMetricUtil maps hardware utilization metric samples onto duration bins:
// for each GPU, the mean sample value per bin of the SM activity, SM issue
// and tensor activity metrics.
type gpuMetricUtil struct {
	base
}

func (a *gpuMetricUtil) Name() string {
	return KindGpuMetricUtil
}

func (a *gpuMetricUtil) Plan(ctx context.Context, paths []string) (Params, error) {
	return a.planBins(ctx, paths)
}

func (a *gpuMetricUtil) Task(path string, p Params) sched.Task {
	file := stem(path)

	return a.task(path, func(ctx context.Context, r store.Reader) sched.Outcome {
		records, err := r.MetricSamples(ctx)
		if err != nil {
			return sched.Failure(file, err)
		}

		// Keyed by device, then by output column.
		perDevice := make(map[int64]map[string][]heatmap.Sample)
		for _, rec := range records {
			if rec.Timestamp < 0 || rec.Timestamp > p.MaxDuration {
				continue
			}
			column := matchMetric(rec.Metric)
			if column == "" {
				continue
			}
			if perDevice[rec.Device] == nil {
				perDevice[rec.Device] = make(map[string][]heatmap.Sample)
			}
			perDevice[rec.Device][column] = append(perDevice[rec.Device][column],
				heatmap.Sample{Timestamp: rec.Timestamp, Value: rec.Value})
		}
		if len(perDevice) == 0 {
			return sched.Empty(file, "no GPU metric samples")
		}

		bins := heatmap.Bins(p.Bins, p.BinSize)
		table := report.NewTable("analysis",
			"Duration", "SMs Active", "SM Issue", "Tensor Active", "GPU")

		devices := make([]int64, 0, len(perDevice))
		for device := range perDevice {
			devices = append(devices, device)
		}
		slices.Sort(devices)

		for _, device := range devices {
			means := make([][]float64, len(metricColumns))
			for i, mc := range metricColumns {
				ms, err := heatmap.MeanPerBin(perDevice[device][mc.column], bins, p.Decimals)
				if err != nil {
					return sched.Failure(file, err)
				}
				means[i] = ms
			}
			for i, b := range bins {
				table.Append(b.Start, means[0][i], means[1][i], means[2][i], device)
			}
		}

		return sched.Success(file, &report.FileResult{File: file, Table: table})
	})
}

func (a *gpuMetricUtil) Reduce(results []*report.FileResult, _ Params) ([]*report.Table, error) {
	return stdReduce(results)
}

func matchMetric(name string) string {
	for _, mc := range metricColumns {
		if strings.Contains(name, mc.match) {
			return mc.column
		}
	}
	return ""
}
