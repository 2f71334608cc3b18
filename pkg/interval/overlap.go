package interval

import "fmt"

// SumOverlaps computes, for every span of a, the total duration during which
// that span overlaps spans of b. The spans need not be normalized; when the
// same region of b is covered by several spans, each covering span
// contributes, preserving multiplicity.
//
// The pairwise comparison is performed chunk by chunk: a is split into
// divisor contiguous chunks (the first len(a)%divisor chunks hold one extra
// element) and each chunk is accumulated against all of b, bounding peak
// working memory to one chunk's worth of partial sums. The result is
// identical for every valid divisor; divisor only trades time for memory.
func SumOverlaps(a, b []Span, divisor int) ([]int64, error) {
	return sumOverlaps(a, b, divisor, false)
}

// SumSelfOverlaps computes, for every span of a, the total duration during
// which it overlaps the other spans of a. A span's overlap with itself is
// excluded.
func SumSelfOverlaps(a []Span, divisor int) ([]int64, error) {
	return sumOverlaps(a, a, divisor, true)
}

func sumOverlaps(a, b []Span, divisor int, self bool) ([]int64, error) {
	if divisor < 1 {
		return nil, fmt.Errorf("overlap divisor must be a positive integer, got %d", divisor)
	}

	sums := make([]int64, len(a))
	if len(a) == 0 || len(b) == 0 {
		return sums, nil
	}

	chunkLen := len(a) / divisor
	extra := len(a) % divisor

	lo := 0
	for c := 0; c < divisor && lo < len(a); c++ {
		hi := lo + chunkLen
		if c < extra {
			hi++
		}
		if hi > len(a) {
			hi = len(a)
		}

		chunk := sums[lo:hi]
		for i, sa := range a[lo:hi] {
			for j, sb := range b {
				if self && lo+i == j {
					continue
				}
				chunk[i] += sa.Overlap(sb)
			}
		}
		lo = hi
	}

	return sums, nil
}
