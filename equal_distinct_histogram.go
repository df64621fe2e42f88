package strata

import "fmt"

// NewEqualDistinctCountHistogram builds a histogram whose buckets each
// cover about the same number of distinct values. Input values are the
// non-null rows of one segment; building costs O(n log d) for d distinct
// values.
func NewEqualDistinctCountHistogram[T ColumnValue](values []T, maxBuckets int, domain valueDomain[T]) (*Histogram[T], error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("cannot build histogram over zero values")
	}
	if maxBuckets <= 0 {
		return nil, fmt.Errorf("bucket count must be positive, got %d", maxBuckets)
	}
	dist := distributionOf(values)

	distinct := len(dist.values)
	buckets := min(maxBuckets, distinct)
	perBucket := distinct / buckets
	remainder := distinct % buckets

	h := &Histogram[T]{kind: HistogramEqualDistinctCount, domain: domain}
	next := 0
	for b := 0; b < buckets; b++ {
		take := perBucket
		if b < remainder {
			take++
		}
		first, last := next, next+take-1
		next += take

		var count float64
		for i := first; i <= last; i++ {
			count += dist.counts[i]
		}
		h.mins = append(h.mins, dist.values[first])
		h.maxs = append(h.maxs, dist.values[last])
		h.counts = append(h.counts, count)
		h.distincts = append(h.distincts, float64(take))
	}
	return h, nil
}
