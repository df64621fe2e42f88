package strata

import (
	"fmt"
	"sort"
)

// HistogramType identifies how a histogram's bucket boundaries were
// chosen.
type HistogramType int

const (
	// HistogramEqualDistinctCount gives every bucket about the same
	// number of distinct values.
	HistogramEqualDistinctCount HistogramType = iota
	// HistogramEqualWidth gives every bucket an equal slice of the value
	// range.
	HistogramEqualWidth
	// HistogramGeneric carries arbitrary bucket boundaries.
	HistogramGeneric
)

func (h HistogramType) String() string {
	switch h {
	case HistogramEqualDistinctCount:
		return "equal-distinct-count"
	case HistogramEqualWidth:
		return "equal-width"
	case HistogramGeneric:
		return "generic"
	}
	return "unknown"
}

// CardinalityEstimate is the output of a histogram estimate: matching row
// count and matching distinct count.
type CardinalityEstimate struct {
	Count         float64
	DistinctCount float64
}

// StatisticsObject is the untyped surface of a histogram, consumed by
// segment statistics and the pruning rule.
type StatisticsObject interface {
	// HistogramType returns the bucket-boundary strategy tag.
	HistogramType() HistogramType
	// DataType returns the histogram's value type.
	DataType() DataType
	// TotalCount returns the number of rows covered.
	TotalCount() float64
	// TotalDistinctCount returns the number of distinct values covered.
	TotalDistinctCount() float64
	// EstimateCardinality estimates how many rows and distinct values
	// match the predicate.
	EstimateCardinality(op PredicateCondition, value Variant, value2 *Variant) (CardinalityEstimate, error)
	// DoesNotContain reports true only when no covered row can match the
	// predicate. It never returns a false positive.
	DoesNotContain(op PredicateCondition, value Variant, value2 *Variant) (bool, error)
	// ScaleWithSelectivity returns a histogram of the same variant with
	// bucket counts multiplied by s and boundaries preserved.
	ScaleWithSelectivity(s float64) StatisticsObject
}

// Histogram is an ordered list of non-overlapping buckets over one data
// type. All three variants share this representation and differ only in
// how constructors choose boundaries; the variant tag travels with the
// histogram.
type Histogram[T ColumnValue] struct {
	kind      HistogramType
	mins      []T
	maxs      []T
	counts    []float64
	distincts []float64
	domain    valueDomain[T]
}

// HistogramType returns the bucket-boundary strategy tag.
func (h *Histogram[T]) HistogramType() HistogramType {
	return h.kind
}

// DataType returns the histogram's value type.
func (h *Histogram[T]) DataType() DataType {
	return dataTypeOf[T]()
}

// BucketCount returns the number of buckets.
func (h *Histogram[T]) BucketCount() int {
	return len(h.mins)
}

// BucketMin returns the inclusive lower bound of bucket i.
func (h *Histogram[T]) BucketMin(i int) T {
	return h.mins[i]
}

// BucketMax returns the inclusive upper bound of bucket i.
func (h *Histogram[T]) BucketMax(i int) T {
	return h.maxs[i]
}

// BucketRowCount returns the row count of bucket i.
func (h *Histogram[T]) BucketRowCount(i int) float64 {
	return h.counts[i]
}

// BucketDistinctCount returns the distinct count of bucket i.
func (h *Histogram[T]) BucketDistinctCount(i int) float64 {
	return h.distincts[i]
}

// Min returns the smallest covered value.
func (h *Histogram[T]) Min() T {
	return h.mins[0]
}

// Max returns the largest covered value.
func (h *Histogram[T]) Max() T {
	return h.maxs[len(h.maxs)-1]
}

// TotalCount returns the number of rows covered.
func (h *Histogram[T]) TotalCount() float64 {
	var total float64
	for _, c := range h.counts {
		total += c
	}
	return total
}

// TotalDistinctCount returns the number of distinct values covered.
func (h *Histogram[T]) TotalDistinctCount() float64 {
	var total float64
	for _, d := range h.distincts {
		total += d
	}
	return total
}

// bucketContaining returns the index of the bucket whose range brackets
// v, or -1 when v falls outside every bucket.
func (h *Histogram[T]) bucketContaining(v T) int {
	i := sort.Search(len(h.maxs), func(i int) bool {
		return h.maxs[i] >= v
	})
	if i == len(h.maxs) || h.mins[i] > v {
		return -1
	}
	return i
}

// ScaleWithSelectivity returns a histogram of the same variant with all
// bucket counts multiplied by s. Boundaries are preserved; distinct
// counts are capped at the scaled row counts.
func (h *Histogram[T]) ScaleWithSelectivity(s float64) StatisticsObject {
	scaled := &Histogram[T]{
		kind:      h.kind,
		mins:      h.mins,
		maxs:      h.maxs,
		counts:    make([]float64, len(h.counts)),
		distincts: make([]float64, len(h.distincts)),
		domain:    h.domain,
	}
	for i := range h.counts {
		scaled.counts[i] = h.counts[i] * s
		scaled.distincts[i] = min(h.distincts[i], scaled.counts[i])
	}
	return scaled
}

// DoesNotContain reports true only when no covered row can match the
// predicate.
func (h *Histogram[T]) DoesNotContain(op PredicateCondition, value Variant, value2 *Variant) (bool, error) {
	switch op {
	case ConditionLike, ConditionNotLike, ConditionIsNull, ConditionIsNotNull:
		// Pattern matches and null checks are not decidable from bucket
		// boundaries.
		return false, nil
	}
	v, err := variantValue[T](value)
	if err != nil {
		return false, err
	}
	var v2 *T
	if op == ConditionBetween {
		if value2 == nil {
			return false, fmt.Errorf("between predicate needs a second value")
		}
		upper, err := variantValue[T](*value2)
		if err != nil {
			return false, err
		}
		v2 = &upper
	}
	return h.doesNotContain(op, v, v2), nil
}

func (h *Histogram[T]) doesNotContain(op PredicateCondition, v T, v2 *T) bool {
	if len(h.mins) == 0 {
		return true
	}
	switch op {
	case ConditionEquals:
		b := h.bucketContaining(v)
		return b < 0 || h.distincts[b] == 0
	case ConditionNotEquals:
		return h.TotalDistinctCount() == 1 && h.Min() == v && h.Max() == v
	case ConditionLessThan:
		return !(h.Min() < v)
	case ConditionLessThanEquals:
		return v < h.Min()
	case ConditionGreaterThan:
		return !(h.Max() > v)
	case ConditionGreaterThanEquals:
		return v > h.Max()
	case ConditionBetween:
		if v2 == nil {
			return false
		}
		return *v2 < h.Min() || v > h.Max() || *v2 < v
	}
	return false
}

// EstimateCardinality estimates how many rows and distinct values match
// the predicate. LIKE is estimated for strings only; other types get the
// conservative upper bound of the full histogram.
func (h *Histogram[T]) EstimateCardinality(op PredicateCondition, value Variant, value2 *Variant) (CardinalityEstimate, error) {
	switch op {
	case ConditionIsNull:
		// Histograms cover non-null rows only.
		return CardinalityEstimate{}, nil
	case ConditionIsNotNull:
		return h.everything(), nil
	case ConditionLike, ConditionNotLike:
		return h.estimateLike(op, value)
	}
	v, err := variantValue[T](value)
	if err != nil {
		return CardinalityEstimate{}, err
	}
	var v2 *T
	if op == ConditionBetween {
		if value2 == nil {
			return CardinalityEstimate{}, fmt.Errorf("between predicate needs a second value")
		}
		upper, err := variantValue[T](*value2)
		if err != nil {
			return CardinalityEstimate{}, err
		}
		v2 = &upper
	}
	return h.estimate(op, v, v2), nil
}

func (h *Histogram[T]) everything() CardinalityEstimate {
	return CardinalityEstimate{Count: h.TotalCount(), DistinctCount: h.TotalDistinctCount()}
}

func (h *Histogram[T]) estimate(op PredicateCondition, v T, v2 *T) CardinalityEstimate {
	if len(h.mins) == 0 {
		return CardinalityEstimate{}
	}
	switch op {
	case ConditionEquals:
		b := h.bucketContaining(v)
		if b < 0 || h.distincts[b] == 0 {
			return CardinalityEstimate{}
		}
		return CardinalityEstimate{Count: h.counts[b] / h.distincts[b], DistinctCount: 1}
	case ConditionNotEquals:
		eq := h.estimate(ConditionEquals, v, nil)
		return CardinalityEstimate{
			Count:         max(h.TotalCount()-eq.Count, 0),
			DistinctCount: max(h.TotalDistinctCount()-eq.DistinctCount, 0),
		}
	case ConditionLessThan:
		return h.estimateBelow(v, false)
	case ConditionLessThanEquals:
		return h.estimateBelow(v, true)
	case ConditionGreaterThan:
		below := h.estimateBelow(v, true)
		return h.subtractFromAll(below)
	case ConditionGreaterThanEquals:
		below := h.estimateBelow(v, false)
		return h.subtractFromAll(below)
	case ConditionBetween:
		if v2 == nil || *v2 < v {
			return CardinalityEstimate{}
		}
		upTo := h.estimateBelow(*v2, true)
		strictlyBelow := h.estimateBelow(v, false)
		return CardinalityEstimate{
			Count:         max(upTo.Count-strictlyBelow.Count, 0),
			DistinctCount: max(upTo.DistinctCount-strictlyBelow.DistinctCount, 0),
		}
	}
	return h.everything()
}

func (h *Histogram[T]) subtractFromAll(e CardinalityEstimate) CardinalityEstimate {
	return CardinalityEstimate{
		Count:         max(h.TotalCount()-e.Count, 0),
		DistinctCount: max(h.TotalDistinctCount()-e.DistinctCount, 0),
	}
}

// estimateBelow accumulates buckets strictly below v plus the
// interpolated share of the bucket bracketing v.
func (h *Histogram[T]) estimateBelow(v T, inclusive bool) CardinalityEstimate {
	var out CardinalityEstimate
	for i := range h.mins {
		if h.maxs[i] < v {
			out.Count += h.counts[i]
			out.DistinctCount += h.distincts[i]
			continue
		}
		if h.mins[i] > v {
			break
		}
		// v falls inside bucket i: take the domain share up to v.
		share := h.domain.shareBelow(h.mins[i], h.maxs[i], v, inclusive)
		out.Count += h.counts[i] * share
		out.DistinctCount += h.distincts[i] * share
		break
	}
	return out
}

func (h *Histogram[T]) estimateLike(op PredicateCondition, value Variant) (CardinalityEstimate, error) {
	if dataTypeOf[T]() != DataTypeString {
		return h.everything(), nil
	}
	pattern, err := variantValue[string](value)
	if err != nil {
		return CardinalityEstimate{}, err
	}
	prefix, ok := likePrefix(pattern)
	var like CardinalityEstimate
	if !ok || prefix == "" {
		like = h.everything()
	} else {
		// Match the range of strings sharing the literal prefix.
		hs := any(h).(*Histogram[string])
		upTo := hs.estimateBelow(prefixSuccessor(prefix), false)
		below := hs.estimateBelow(prefix, false)
		like = CardinalityEstimate{
			Count:         max(upTo.Count-below.Count, 0),
			DistinctCount: max(upTo.DistinctCount-below.DistinctCount, 0),
		}
	}
	if op == ConditionNotLike {
		return h.subtractFromAll(like), nil
	}
	return like, nil
}

// likePrefix extracts the literal prefix of a LIKE pattern up to the
// first wildcard.
func likePrefix(pattern string) (string, bool) {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '%' || pattern[i] == '_' {
			return pattern[:i], true
		}
	}
	// No wildcard: the pattern is an exact match.
	return pattern, false
}

// prefixSuccessor returns the smallest string greater than every string
// starting with the prefix.
func prefixSuccessor(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return prefix + "\xff"
}

// valueDomain maps values into a numeric domain for interpolation.
// Strings are ordered by a fixed-length byte prefix.
type valueDomain[T ColumnValue] struct {
	prefixLen int
}

func newValueDomain[T ColumnValue](prefixLen int) valueDomain[T] {
	if prefixLen <= 0 || prefixLen > 7 {
		prefixLen = DefaultStatisticsConfig().StringPrefixLength
	}
	return valueDomain[T]{prefixLen: prefixLen}
}

// toNumeric projects a value onto the estimation domain.
func (d valueDomain[T]) toNumeric(v T) float64 {
	switch v := any(v).(type) {
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		var out float64
		for i := 0; i < d.prefixLen; i++ {
			var b byte
			if i < len(v) {
				b = v[i]
			}
			out = out*256 + float64(b)
		}
		return out
	}
	return 0
}

// shareBelow returns the fraction of the inclusive range [lo, hi] that
// lies below v (or at v, when inclusive).
func (d valueDomain[T]) shareBelow(lo, hi, v T, inclusive bool) float64 {
	width := d.toNumeric(hi) - d.toNumeric(lo) + d.step()
	if width <= 0 {
		if inclusive || hi < v {
			return 1
		}
		return 0
	}
	covered := d.toNumeric(v) - d.toNumeric(lo)
	if inclusive {
		covered += d.step()
	}
	share := covered / width
	return min(max(share, 0), 1)
}

// step is the smallest domain distance between two distinct values:
// one for discrete domains, zero for continuous ones.
func (d valueDomain[T]) step() float64 {
	switch dataTypeOf[T]() {
	case DataTypeInt32, DataTypeInt64, DataTypeString:
		return 1
	}
	return 0
}

// valueDistribution is the sorted (value, occurrence count) input shared
// by the histogram builders.
type valueDistribution[T ColumnValue] struct {
	values []T
	counts []float64
}

func distributionOf[T ColumnValue](values []T) valueDistribution[T] {
	occurrences := make(map[T]float64, len(values))
	for _, v := range values {
		occurrences[v]++
	}
	dist := valueDistribution[T]{
		values: make([]T, 0, len(occurrences)),
		counts: make([]float64, 0, len(occurrences)),
	}
	for v := range occurrences {
		dist.values = append(dist.values, v)
	}
	sort.Slice(dist.values, func(i, j int) bool { return dist.values[i] < dist.values[j] })
	for _, v := range dist.values {
		dist.counts = append(dist.counts, occurrences[v])
	}
	return dist
}
