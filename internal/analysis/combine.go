package analysis

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
)

// Combine turns the full set of task outcomes into the ordered per-file
// results. Empty outcomes are excluded; any failure fails the whole job with
// every failed file enumerated in the returned error. The surviving results
// are sorted by filename, so the output is identical no matter in which
// order the tasks finished.
func Combine(outcomes []sched.Outcome) ([]*report.FileResult, error) {
	var (
		results []*report.FileResult
		err     error
	)

	for _, out := range outcomes {
		switch out.Status {
		case sched.StatusSuccess:
			results = append(results, out.Result)
		case sched.StatusFailure:
			err = multierr.Append(err, fmt.Errorf("%s: %w", out.File, out.Err))
		}
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *report.FileResult) int {
		return cmp.Compare(a.File, b.File)
	})
	return results, nil
}

// Concat concatenates the per-file tables into one, appending a Rank column
// holding each file's position in the sorted order.
func Concat(name string, results []*report.FileResult) *report.Table {
	if len(results) == 0 {
		return nil
	}

	columns := append(slices.Clone(results[0].Table.Columns), "Rank")
	t := report.NewTable(name, columns...)
	for rank, res := range results {
		for _, row := range res.Table.Rows {
			t.Append(append(slices.Clone(row), int64(rank))...)
		}
	}
	return t
}

// Manifest builds the Rank to source filename mapping. It is the canonical
// way downstream consumers recover which rank corresponds to which report.
func Manifest(results []*report.FileResult) *report.Table {
	t := report.NewTable("files", "Rank", "File")
	for rank, res := range results {
		t.Append(int64(rank), res.File)
	}
	return t
}

// stdReduce is the reduction shared by the map-style analyses: one
// concatenated, rank-annotated analysis table.
func stdReduce(results []*report.FileResult) ([]*report.Table, error) {
	return []*report.Table{Concat("analysis", results)}, nil
}
