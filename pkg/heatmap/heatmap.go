// Package heatmap partitions an analysis time range into fixed-width bins
// and computes per-bin utilization percentages from interval spans or from
// time-stamped metric samples.
package heatmap

import (
	"fmt"
	"math"

	"github.com/perfgrid/utilmap/pkg/interval"
)

// Bin is one fixed-width slice [Start, End) of the analysis time range.
type Bin struct {
	Index int
	Start int64
	End   int64
}

// Sample is a single time-stamped metric measurement.
type Sample struct {
	Timestamp int64
	Value     float64
}

// BinSize returns the bin width for splitting maxDuration into count equal
// bins. The width is rounded up to the nearest integer nanosecond, so the
// last bin may extend past maxDuration.
func BinSize(count int, maxDuration int64) (int64, error) {
	if count < 1 {
		return 0, fmt.Errorf("bin count must be at least 1, got %d", count)
	}
	if maxDuration <= 0 {
		return 0, fmt.Errorf("max duration must be positive, got %d", maxDuration)
	}
	return (maxDuration + int64(count) - 1) / int64(count), nil
}

// Bins builds count bins of the given width starting at 0.
func Bins(count int, size int64) []Bin {
	return BinsFrom(0, count, size)
}

// BinsFrom builds count bins of the given width starting at origin.
func BinsFrom(origin int64, count int, size int64) []Bin {
	bins := make([]Bin, count)
	for i := range bins {
		start := origin + int64(i)*size
		bins[i] = Bin{Index: i, Start: start, End: start + size}
	}
	return bins
}

// CoveragePcts computes, for each bin, the percentage of the bin covered by
// the given spans, rounded to the requested number of decimals.
//
// The spans are taken as-is: pass a normalized set for plain utilization, or
// raw overlapping spans for cumulative utilization, in which case concurrent
// activity adds up and a bin may exceed 100%. Spans entirely outside the
// binned range contribute nothing.
func CoveragePcts(spans []interval.Span, bins []Bin, decimals int) ([]float64, error) {
	pcts := make([]float64, len(bins))
	for i, b := range bins {
		width := b.End - b.Start
		if width <= 0 {
			return nil, fmt.Errorf("bin %d has non-positive width %d", b.Index, width)
		}

		var covered int64
		for _, sp := range spans {
			covered += sp.Overlap(interval.Span{Start: b.Start, End: b.End})
		}
		pcts[i] = Round(float64(covered)/float64(width)*100, decimals)
	}
	return pcts, nil
}

// MeanPerBin computes the mean sample value for each bin, rounded to the
// requested number of decimals. A sample belongs to the bin whose
// [Start, End) range contains its timestamp; bins without samples yield 0.
func MeanPerBin(samples []Sample, bins []Bin, decimals int) ([]float64, error) {
	sums := make([]float64, len(bins))
	counts := make([]int64, len(bins))

	if len(bins) > 0 {
		origin := bins[0].Start
		size := bins[0].End - bins[0].Start
		if size <= 0 {
			return nil, fmt.Errorf("bin %d has non-positive width %d", bins[0].Index, size)
		}
		for _, s := range samples {
			if s.Timestamp < origin {
				continue
			}
			i := int((s.Timestamp - origin) / size)
			if i >= len(bins) {
				continue
			}
			sums[i] += s.Value
			counts[i]++
		}
	}

	means := make([]float64, len(bins))
	for i := range bins {
		if counts[i] > 0 {
			means[i] = Round(sums[i]/float64(counts[i]), decimals)
		}
	}
	return means, nil
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
