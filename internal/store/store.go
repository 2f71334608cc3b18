// Package store reads group-keyed span and sample records out of trace
// report files. The analyses only depend on the Reader interface; the
// SQLite adapter in this package handles the actual report format.
package store

import (
	"context"
	"errors"
)

// ErrMalformed marks a report that exists but is missing data the analysis
// requires, such as a mandatory table. It is fatal for that file only.
var ErrMalformed = errors.New("malformed report")

// GroupKey partitions raw records before interval algebra is applied.
type GroupKey struct {
	Pid    int64
	Device int64
}

// KernelSpan is one recorded GPU operation. Comm marks communication
// (collective) kernels, classified by the adapter from the kernel name.
type KernelSpan struct {
	Key   GroupKey
	Name  string
	Start int64
	End   int64
	Comm  bool
}

// MetricSample is one time-stamped hardware metric measurement.
type MetricSample struct {
	Device    int64
	Metric    string
	Timestamp int64
	Value     float64
}

// Reader hands the core the contents of a single trace report. Empty result
// slices mean the report was processed but holds no qualifying data; that is
// not an error.
type Reader interface {
	// KernelSpans returns all recorded GPU operations.
	KernelSpans(ctx context.Context) ([]KernelSpan, error)
	// MetricSamples returns all recorded metric samples.
	MetricSamples(ctx context.Context) ([]MetricSample, error)
	// Duration returns the profiling session duration in nanoseconds.
	Duration(ctx context.Context) (int64, error)
	Close() error
}

// Opener opens the report at the given path.
type Opener func(path string) (Reader, error)
