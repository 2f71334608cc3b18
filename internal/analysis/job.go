package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/perfgrid/utilmap/internal/config"
	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/sched"
	"github.com/perfgrid/utilmap/pkg/logutil"
)

// JobResult is the complete output of one run. Empty Tables means every
// report was processed but none held qualifying data; that is a successful
// run with nothing to write.
type JobResult struct {
	Tables []*report.Table
}

// Run executes the analysis over every configured report and combines the
// outcomes. It either returns the complete, deterministically ordered result
// set or an error enumerating the files that failed; it never returns
// partial output.
func Run(ctx context.Context, a Analysis, cfg *config.Config) (*JobResult, error) {
	logger := logutil.GetLogger()

	params, err := a.Plan(ctx, cfg.ReportPaths)
	if errors.Is(err, errNoActivity) {
		logger.Info("No output generated", zap.String("analysis", a.Name()))
		return &JobResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("planning %s: %w", a.Name(), err)
	}

	tasks := make([]sched.Task, len(cfg.ReportPaths))
	for i, path := range cfg.ReportPaths {
		tasks[i] = a.Task(path, params)
	}

	pool := sched.NewPool(cfg.Workers, cfg.TaskTimeout, cfg.AbortOnError)
	outcomes := pool.Run(ctx, tasks)

	results, err := Combine(outcomes)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", a.Name(), err)
	}
	if len(results) == 0 {
		logger.Info("No output generated", zap.String("analysis", a.Name()))
		return &JobResult{}, nil
	}

	tables, err := a.Reduce(results, params)
	if err != nil {
		return nil, fmt.Errorf("reducing %s: %w", a.Name(), err)
	}
	tables = append(tables, Manifest(results))

	return &JobResult{Tables: tables}, nil
}
