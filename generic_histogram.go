package strata

import "fmt"

// NewGenericHistogram builds a histogram from explicit bucket arrays.
// Buckets must be ordered, non-overlapping and internally consistent.
func NewGenericHistogram[T ColumnValue](mins, maxs []T, counts, distincts []float64, domain valueDomain[T]) (*Histogram[T], error) {
	if len(mins) == 0 {
		return nil, fmt.Errorf("cannot build histogram over zero buckets")
	}
	if len(maxs) != len(mins) || len(counts) != len(mins) || len(distincts) != len(mins) {
		return nil, fmt.Errorf("bucket arrays must align: %d mins, %d maxs, %d counts, %d distincts",
			len(mins), len(maxs), len(counts), len(distincts))
	}
	for i := range mins {
		if maxs[i] < mins[i] {
			return nil, fmt.Errorf("bucket %d has max below min", i)
		}
		if i > 0 && !(maxs[i-1] < mins[i]) {
			return nil, fmt.Errorf("bucket %d overlaps bucket %d", i, i-1)
		}
		if counts[i] < 0 || distincts[i] < 0 {
			return nil, fmt.Errorf("bucket %d has negative counts", i)
		}
		if distincts[i] > counts[i] {
			return nil, fmt.Errorf("bucket %d has more distinct values than rows", i)
		}
	}
	return &Histogram[T]{
		kind:      HistogramGeneric,
		mins:      mins,
		maxs:      maxs,
		counts:    counts,
		distincts: distincts,
		domain:    domain,
	}, nil
}

// NewGenericHistogramFromValues builds a generic histogram directly from
// a value sequence, reusing the equal-distinct-count boundary choice.
func NewGenericHistogramFromValues[T ColumnValue](values []T, maxBuckets int, domain valueDomain[T]) (*Histogram[T], error) {
	h, err := NewEqualDistinctCountHistogram(values, maxBuckets, domain)
	if err != nil {
		return nil, err
	}
	h.kind = HistogramGeneric
	return h, nil
}
