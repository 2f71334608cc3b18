// Package interval implements the interval algebra used by the utilization
// analyses: consolidation of raw activity spans into normalized sets,
// set intersection, and memory-bounded pairwise overlap accumulation.
//
// All timestamps are integer nanoseconds and spans are half-open [Start, End).
package interval

import (
	"cmp"
	"slices"
)

// Span is a half-open [Start, End) range of nanosecond timestamps.
// Start <= End; a zero-length span is legal and contributes no duration.
type Span struct {
	Start int64
	End   int64
}

func (s Span) Duration() int64 {
	return s.End - s.Start
}

// Overlap returns the duration shared by s and o, or 0 if they are disjoint.
func (s Span) Overlap(o Span) int64 {
	lo := max(s.Start, o.Start)
	hi := min(s.End, o.End)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Set is a normalized collection of spans: sorted ascending by start and
// strictly non-overlapping. Sets are immutable; every operation returns a
// new Set.
type Set struct {
	spans []Span
}

// Merge consolidates an arbitrary, possibly unsorted and overlapping span
// sequence into a normalized Set covering the same union of time.
// Overlapping and touching spans are fused into one; zero-length spans cover
// no time and are dropped.
func Merge(spans []Span) Set {
	if len(spans) == 0 {
		return Set{}
	}

	sorted := slices.Clone(spans)
	slices.SortFunc(sorted, func(a, b Span) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})

	merged := make([]Span, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= cur.End {
			cur.End = max(cur.End, next.End)
			continue
		}
		if cur.Start < cur.End {
			merged = append(merged, cur)
		}
		cur = next
	}
	if cur.Start < cur.End {
		merged = append(merged, cur)
	}

	return Set{spans: merged}
}

// Len returns the number of spans in the set.
func (s Set) Len() int {
	return len(s.spans)
}

// Spans returns a copy of the normalized spans.
func (s Set) Spans() []Span {
	return slices.Clone(s.spans)
}

// Duration returns the total time covered by the set.
func (s Set) Duration() int64 {
	var total int64
	for _, sp := range s.spans {
		total += sp.Duration()
	}
	return total
}

// Intersect returns the normalized set of time covered by both s and o.
// Intersection is commutative and s.Intersect(s) equals s.
func (s Set) Intersect(o Set) Set {
	var out []Span

	i, j := 0, 0
	for i < len(s.spans) && j < len(o.spans) {
		a, b := s.spans[i], o.spans[j]

		lo := max(a.Start, b.Start)
		hi := min(a.End, b.End)
		if lo < hi {
			out = append(out, Span{Start: lo, End: hi})
		}

		// Advance the span that ends first; it cannot overlap anything
		// further in the other set.
		if a.End <= b.End {
			i++
		} else {
			j++
		}
	}

	return Set{spans: out}
}

// Equal reports whether two sets cover identical spans.
func (s Set) Equal(o Set) bool {
	return slices.Equal(s.spans, o.spans)
}
