package strata

import "fmt"

// NewEqualWidthHistogram builds a histogram whose buckets span equal
// slices of the value range. Distinct values are assigned to slices by
// their position in the estimation domain; bucket boundaries shrink to
// the actual values each slice received, so buckets stay non-overlapping
// for every data type.
func NewEqualWidthHistogram[T ColumnValue](values []T, maxBuckets int, domain valueDomain[T]) (*Histogram[T], error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("cannot build histogram over zero values")
	}
	if maxBuckets <= 0 {
		return nil, fmt.Errorf("bucket count must be positive, got %d", maxBuckets)
	}
	dist := distributionOf(values)
	h := &Histogram[T]{kind: HistogramEqualWidth, domain: domain}
	if len(dist.values) == 1 {
		// A single distinct value cannot be sliced.
		h.mins = []T{dist.values[0]}
		h.maxs = []T{dist.values[0]}
		h.counts = []float64{dist.counts[0]}
		h.distincts = []float64{1}
		return h, nil
	}

	lo := domain.toNumeric(dist.values[0])
	hi := domain.toNumeric(dist.values[len(dist.values)-1])
	width := (hi - lo + domain.step()) / float64(maxBuckets)
	slice := func(v T) int {
		if width <= 0 {
			return 0
		}
		idx := int((domain.toNumeric(v) - lo) / width)
		return min(max(idx, 0), maxBuckets-1)
	}

	start := 0
	for start < len(dist.values) {
		idx := slice(dist.values[start])
		end := start
		for end+1 < len(dist.values) && slice(dist.values[end+1]) == idx {
			end++
		}
		var count float64
		for i := start; i <= end; i++ {
			count += dist.counts[i]
		}
		h.mins = append(h.mins, dist.values[start])
		h.maxs = append(h.maxs, dist.values[end])
		h.counts = append(h.counts, count)
		h.distincts = append(h.distincts, float64(end-start+1))
		start = end + 1
	}
	return h, nil
}
