// Package sched fans per-file tasks out over a bounded worker pool and
// collects their outcomes with wait-all semantics. Tasks are independent:
// they share no state and never wait on each other, so completion order is
// arbitrary and carries no meaning.
package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/pkg/logutil"
)

// ErrTimeout marks a task that exceeded its per-file deadline.
var ErrTimeout = errors.New("task timed out")

// Status is the terminal state of a task.
type Status int

const (
	// StatusSuccess means the task produced a result.
	StatusSuccess Status = iota
	// StatusEmpty means the file was processed but held no qualifying
	// data. Not an error.
	StatusEmpty
	// StatusFailure means the task failed; Err holds the cause.
	StatusFailure
)

// Outcome is the terminal record of one task.
type Outcome struct {
	File   string
	Status Status
	Result *report.FileResult
	Reason string
	Err    error
}

func Success(file string, res *report.FileResult) Outcome {
	return Outcome{File: file, Status: StatusSuccess, Result: res}
}

func Empty(file, reason string) Outcome {
	return Outcome{File: file, Status: StatusEmpty, Reason: reason}
}

func Failure(file string, err error) Outcome {
	return Outcome{File: file, Status: StatusFailure, Err: err}
}

// Task is one unit of work over a single trace file. Run must be a pure
// function of its inputs so any number of tasks can execute concurrently.
type Task struct {
	File string
	Run  func(ctx context.Context) Outcome
}

// Pool executes tasks concurrently. Zero workers means one worker per CPU.
//
// With abortOnError false (the default policy), a failed task never
// interrupts the others: the pool drains every task and reports all
// outcomes, so one bad file cannot discard already-computed results. With
// abortOnError true, the first failure cancels the remaining tasks.
type Pool struct {
	workers      int
	timeout      time.Duration
	abortOnError bool
}

func NewPool(workers int, timeout time.Duration, abortOnError bool) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers, timeout: timeout, abortOnError: abortOnError}
}

// Run dispatches every task and blocks until all of them reach a terminal
// state. The returned outcomes are indexed like tasks, independent of
// completion order.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Outcome {
	logger := logutil.GetLogger()

	outcomes := make([]Outcome, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	logger.Info("Job submitted",
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", p.workers),
		zap.Bool("abort_on_error", p.abortOnError))

	for i, task := range tasks {
		g.Go(func() error {
			// Tasks that were still pending when the job aborted.
			if err := gctx.Err(); err != nil {
				outcomes[i] = Failure(task.File, err)
				return nil
			}

			logger.Debug("Task running", zap.String("file", task.File))
			outcomes[i] = p.runOne(gctx, task)

			switch out := outcomes[i]; out.Status {
			case StatusFailure:
				logger.Error("Task failed", zap.String("file", task.File), zap.Error(out.Err))
				if p.abortOnError {
					// Cancels gctx; running tasks drain, pending
					// ones are marked failed above.
					return out.Err
				}
			case StatusEmpty:
				logger.Info("Report was successfully processed, but no data was found",
					zap.String("file", task.File), zap.String("reason", out.Reason))
			default:
				logger.Debug("Task completed", zap.String("file", task.File))
			}
			return nil
		})
	}

	// Wait-all barrier: the job is done only when every task is terminal.
	_ = g.Wait()

	logger.Info("Job done", zap.Int("tasks", len(tasks)))
	return outcomes
}

func (p *Pool) runOne(ctx context.Context, task Task) Outcome {
	tctx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out := task.Run(tctx)
	if out.Status == StatusFailure && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		out.Err = fmt.Errorf("%w after %v: %v", ErrTimeout, p.timeout, out.Err)
	}
	if out.File == "" {
		out.File = task.File
	}
	return out
}
