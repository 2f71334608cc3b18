package heatmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgrid/utilmap/pkg/heatmap"
	"github.com/perfgrid/utilmap/pkg/interval"
)

func span(start, end int64) interval.Span {
	return interval.Span{Start: start, End: end}
}

func TestBinSize(t *testing.T) {
	size, err := heatmap.BinSize(3, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	// Rounded up, so the bins always cover the full duration.
	size, err = heatmap.BinSize(3, 31)
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	_, err = heatmap.BinSize(0, 30)
	assert.Error(t, err)
	_, err = heatmap.BinSize(3, 0)
	assert.Error(t, err)
}

func TestBins(t *testing.T) {
	bins := heatmap.Bins(3, 10)
	require.Len(t, bins, 3)
	assert.Equal(t, heatmap.Bin{Index: 0, Start: 0, End: 10}, bins[0])
	assert.Equal(t, heatmap.Bin{Index: 2, Start: 20, End: 30}, bins[2])

	offset := heatmap.BinsFrom(100, 2, 10)
	assert.Equal(t, int64(100), offset[0].Start)
	assert.Equal(t, int64(110), offset[1].Start)
}

func TestCoveragePcts(t *testing.T) {
	// merge([(0,10),(5,15),(20,25)]) over three 10ns bins of [0,30).
	set := interval.Merge([]interval.Span{span(0, 10), span(5, 15), span(20, 25)})
	bins := heatmap.Bins(3, 10)

	pcts, err := heatmap.CoveragePcts(set.Spans(), bins, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 50, 50}, pcts)
}

func TestCoveragePctsCumulative(t *testing.T) {
	// Two concurrent spans in the first bin: cumulative coverage passes 100%.
	raw := []interval.Span{span(0, 10), span(0, 10), span(2, 8)}
	bins := heatmap.Bins(2, 10)

	pcts, err := heatmap.CoveragePcts(raw, bins, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{260, 0}, pcts)

	// Consolidated, the same spans stay within [0,100].
	merged := interval.Merge(raw)
	pcts, err = heatmap.CoveragePcts(merged.Spans(), bins, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 0}, pcts)
}

func TestCoveragePctsEdgeCases(t *testing.T) {
	bins := heatmap.Bins(4, 10)

	// Empty set: all-zero bins.
	pcts, err := heatmap.CoveragePcts(nil, bins, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, pcts)

	// Spans fully outside the binned range are ignored.
	pcts, err = heatmap.CoveragePcts([]interval.Span{span(100, 200)}, bins, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, pcts)

	// Zero-width bin is a configuration error.
	_, err = heatmap.CoveragePcts(nil, []heatmap.Bin{{Index: 0, Start: 5, End: 5}}, 1)
	assert.Error(t, err)
}

func TestCoveragePctsRounding(t *testing.T) {
	bins := heatmap.Bins(1, 3)

	pcts, err := heatmap.CoveragePcts([]interval.Span{span(0, 1)}, bins, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{33.3}, pcts)

	pcts, err = heatmap.CoveragePcts([]interval.Span{span(0, 1)}, bins, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{33.333}, pcts)
}

func TestMeanPerBin(t *testing.T) {
	bins := heatmap.Bins(3, 10)
	samples := []heatmap.Sample{
		{Timestamp: 0, Value: 40},
		{Timestamp: 9, Value: 60},
		{Timestamp: 10, Value: 75},
		{Timestamp: 35, Value: 10}, // past the last bin, ignored
		{Timestamp: -1, Value: 10}, // before the first bin, ignored
	}

	means, err := heatmap.MeanPerBin(samples, bins, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 75, 0}, means)

	_, err = heatmap.MeanPerBin(samples, []heatmap.Bin{{Index: 0, Start: 5, End: 5}}, 1)
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 33.3, heatmap.Round(33.3333, 1))
	assert.Equal(t, 66.7, heatmap.Round(66.6666, 1))
	assert.Equal(t, 100.0, heatmap.Round(99.96, 1))
}
