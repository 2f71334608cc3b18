// Package analysis implements the utilization analyses. Each analysis plans
// job-wide parameters from the input reports, builds one pure task per
// report, and reduces the ordered per-file results into final tables.
package analysis

import (
	"cmp"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/perfgrid/utilmap/internal/config"
	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
	"github.com/perfgrid/utilmap/internal/store"
	"github.com/perfgrid/utilmap/pkg/heatmap"
	"github.com/perfgrid/utilmap/pkg/interval"
)

// Params is the job-wide parameter set shared by every task of a run. It is
// computed once by Plan and passed to tasks by value.
type Params struct {
	Bins        int
	BinSize     int64
	MaxDuration int64
	Cumulative  bool
	Divisor     int
	Threshold   float64
	Decimals    int
}

// Analysis is one utilization analysis kind.
type Analysis interface {
	Name() string
	// Plan derives the job-wide parameters, such as the bin width from
	// the longest report, before any task is dispatched.
	Plan(ctx context.Context, paths []string) (Params, error)
	// Task builds the per-file task for one report.
	Task(path string, p Params) sched.Task
	// Reduce turns the ordered per-file results into final tables. The
	// results arrive sorted by filename with ranks already implied by
	// position.
	Reduce(results []*report.FileResult, p Params) ([]*report.Table, error)
}

// errNoActivity is reported by Plan when none of the reports records any
// activity. Not a failure: the job succeeds with zero output tables.
var errNoActivity = errors.New("no activity recorded")

// base carries what every analysis needs: the report opener and the job
// configuration snapshot.
type base struct {
	open store.Opener
	cfg  *config.Config
}

func (b base) params() Params {
	return Params{
		Bins:       b.cfg.Bins,
		Cumulative: b.cfg.Cumulative,
		Divisor:    b.cfg.Divisor,
		Threshold:  b.cfg.Threshold,
		Decimals:   b.cfg.Decimals,
	}
}

// planBins computes the shared bin width from the longest session across all
// reports, unless the configuration pins the duration explicitly.
func (b base) planBins(ctx context.Context, paths []string) (Params, error) {
	p := b.params()

	p.MaxDuration = b.cfg.MaxDurationNs
	if p.MaxDuration == 0 {
		for _, path := range paths {
			r, err := b.open(path)
			if err != nil {
				return Params{}, err
			}
			d, err := r.Duration(ctx)
			r.Close()
			if err != nil {
				return Params{}, err
			}
			// A report with no recorded activity has duration 0;
			// it cannot contribute to the bin width.
			p.MaxDuration = max(p.MaxDuration, d)
		}
		if p.MaxDuration == 0 {
			return Params{}, errNoActivity
		}
	}

	size, err := heatmap.BinSize(p.Bins, p.MaxDuration)
	if err != nil {
		return Params{}, err
	}
	p.BinSize = size
	return p, nil
}

// task wraps fn with report open/close and failure handling.
func (b base) task(path string, fn func(ctx context.Context, r store.Reader) sched.Outcome) sched.Task {
	file := stem(path)
	return sched.Task{
		File: file,
		Run: func(ctx context.Context) sched.Outcome {
			r, err := b.open(path)
			if err != nil {
				return sched.Failure(file, err)
			}
			defer r.Close()
			return fn(ctx, r)
		},
	}
}

// stem returns the report's base filename without extension; it identifies
// the file in results and in the rank manifest.
func stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// groupSpans partitions kernel spans by (pid, device). The returned keys are
// sorted so iteration order, and with it row order, is deterministic.
func groupSpans(spans []store.KernelSpan) (map[store.GroupKey][]store.KernelSpan, []store.GroupKey) {
	groups := make(map[store.GroupKey][]store.KernelSpan)
	for _, s := range spans {
		groups[s.Key] = append(groups[s.Key], s)
	}

	keys := make([]store.GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b store.GroupKey) int {
		if c := cmp.Compare(a.Pid, b.Pid); c != 0 {
			return c
		}
		return cmp.Compare(a.Device, b.Device)
	})
	return groups, keys
}

func toSpans(records []store.KernelSpan) []interval.Span {
	spans := make([]interval.Span, len(records))
	for i, rec := range records {
		spans[i] = interval.Span{Start: rec.Start, End: rec.End}
	}
	return spans
}
