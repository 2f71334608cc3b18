package interval_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgrid/utilmap/pkg/interval"
)

func span(start, end int64) interval.Span {
	return interval.Span{Start: start, End: end}
}

func TestMergeConsolidatesOverlapAndTouch(t *testing.T) {
	set := interval.Merge([]interval.Span{span(0, 10), span(5, 15), span(20, 25)})
	assert.Equal(t, []interval.Span{span(0, 15), span(20, 25)}, set.Spans())
	assert.Equal(t, int64(20), set.Duration())

	// Touching spans fuse into one.
	set = interval.Merge([]interval.Span{span(0, 5), span(5, 9)})
	assert.Equal(t, []interval.Span{span(0, 9)}, set.Spans())
}

func TestMergeEdgeCases(t *testing.T) {
	assert.Empty(t, interval.Merge(nil).Spans())
	assert.Zero(t, interval.Merge(nil).Duration())

	single := interval.Merge([]interval.Span{span(3, 7)})
	assert.Equal(t, []interval.Span{span(3, 7)}, single.Spans())

	// Disjoint spans come out sorted but otherwise unchanged.
	disjoint := interval.Merge([]interval.Span{span(20, 25), span(0, 5), span(10, 15)})
	assert.Equal(t, []interval.Span{span(0, 5), span(10, 15), span(20, 25)}, disjoint.Spans())

	// A fully contained span disappears.
	contained := interval.Merge([]interval.Span{span(0, 100), span(10, 20)})
	assert.Equal(t, []interval.Span{span(0, 100)}, contained.Spans())
}

func TestMergeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for range 100 {
		spans := randomSpans(rng, 30, 200)
		once := interval.Merge(spans)
		twice := interval.Merge(once.Spans())
		assert.True(t, once.Equal(twice))
	}
}

func TestMergeCoverageMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for range 100 {
		spans := randomSpans(rng, 20, 100)
		merged := interval.Merge(spans)

		// Boolean timeline over the bounded input range.
		var busy [100]bool
		for _, sp := range spans {
			for ts := sp.Start; ts < sp.End; ts++ {
				busy[ts] = true
			}
		}
		var want int64
		for _, b := range busy {
			if b {
				want++
			}
		}
		require.Equal(t, want, merged.Duration())

		// Normalization invariant: sorted, strictly separated.
		out := merged.Spans()
		for i := 1; i < len(out); i++ {
			require.Less(t, out[i-1].End, out[i].Start)
		}
	}
}

func TestIntersect(t *testing.T) {
	a := interval.Merge([]interval.Span{span(0, 10), span(5, 15), span(20, 25)})
	b := interval.Merge([]interval.Span{span(12, 22)})

	got := a.Intersect(b)
	assert.Equal(t, []interval.Span{span(12, 15), span(20, 22)}, got.Spans())
	assert.Equal(t, int64(5), got.Duration())
}

func TestIntersectCommutative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for range 100 {
		a := interval.Merge(randomSpans(rng, 15, 150))
		b := interval.Merge(randomSpans(rng, 15, 150))

		ab := a.Intersect(b)
		ba := b.Intersect(a)
		assert.True(t, ab.Equal(ba))

		// Self-intersection is identity for a normalized set.
		assert.True(t, a.Intersect(a).Equal(a))
	}
}

func TestIntersectDisjoint(t *testing.T) {
	a := interval.Merge([]interval.Span{span(0, 5)})
	b := interval.Merge([]interval.Span{span(5, 10)})
	assert.Zero(t, a.Intersect(b).Len())

	assert.Zero(t, a.Intersect(interval.Set{}).Len())
}

func TestZeroLengthSpans(t *testing.T) {
	assert.Zero(t, span(5, 5).Duration())
	assert.Zero(t, span(5, 5).Overlap(span(0, 10)))

	set := interval.Merge([]interval.Span{span(5, 5), span(0, 10)})
	assert.Equal(t, int64(10), set.Duration())

	// A standalone zero-length span covers no time and vanishes.
	assert.Empty(t, interval.Merge([]interval.Span{span(5, 5)}).Spans())
}

func randomSpans(rng *rand.Rand, n int, extent int64) []interval.Span {
	spans := make([]interval.Span, rng.Intn(n))
	for i := range spans {
		start := rng.Int63n(extent)
		end := start + rng.Int63n(extent-start+1)
		spans[i] = interval.Span{Start: start, End: min(end, extent)}
	}
	return spans
}
