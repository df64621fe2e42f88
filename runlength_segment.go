package strata

import (
	"sort"

	"github.com/strata-db/strata/internal/bitmap"
)

// RunLengthSegment stores runs of identical (value, null) pairs as three
// aligned arrays: run values, run null flags, and cumulative end
// positions. Run i covers (endPositions[i-1], endPositions[i]].
type RunLengthSegment[T ColumnValue] struct {
	values       []T
	nullFlags    *bitmap.Bitmap
	endPositions []uint32
	size         uint32
}

// EncodeRunLengthSegment builds a run-length segment from a value segment.
// A new run starts whenever the (value, is_null) pair changes.
func EncodeRunLengthSegment[T ColumnValue](source *ValueSegment[T]) *RunLengthSegment[T] {
	seg := &RunLengthSegment[T]{size: source.Size()}
	var flags []bool
	for i, v := range source.values {
		isNull := source.NullAt(i)
		last := len(seg.values) - 1
		if last >= 0 && flags[last] == isNull && (isNull || seg.values[last] == v) {
			seg.endPositions[last] = uint32(i)
			continue
		}
		var runValue T
		if !isNull {
			runValue = v
		}
		seg.values = append(seg.values, runValue)
		flags = append(flags, isNull)
		seg.endPositions = append(seg.endPositions, uint32(i))
	}
	seg.nullFlags = bitmap.FromBools(flags)
	return seg
}

// RunCount returns the number of runs.
func (s *RunLengthSegment[T]) RunCount() int {
	return len(s.values)
}

// RunValues returns the per-run values. Null runs hold zero values.
func (s *RunLengthSegment[T]) RunValues() []T {
	return s.values
}

// RunNullFlags returns the per-run null flags.
func (s *RunLengthSegment[T]) RunNullFlags() []bool {
	return s.nullFlags.Bools()
}

// EndPositions returns the cumulative inclusive end position of each run.
func (s *RunLengthSegment[T]) EndPositions() []uint32 {
	return s.endPositions
}

// Size returns the row count.
func (s *RunLengthSegment[T]) Size() uint32 {
	return s.size
}

// DataType returns the logical element type.
func (s *RunLengthSegment[T]) DataType() DataType {
	return dataTypeOf[T]()
}

// Encoding returns EncodingRunLength.
func (s *RunLengthSegment[T]) Encoding() EncodingType {
	return EncodingRunLength
}

// EstimateMemoryUsage returns the approximate footprint in bytes.
func (s *RunLengthSegment[T]) EstimateMemoryUsage() uint64 {
	var total uint64
	for _, v := range s.values {
		total += uint64(sizeOfValue(v))
	}
	total += uint64(s.nullFlags.SizeBytes())
	total += uint64(len(s.endPositions) * 4)
	return total
}

// runAt returns the index of the run covering the given offset.
func (s *RunLengthSegment[T]) runAt(offset ChunkOffset) int {
	return sort.Search(len(s.endPositions), func(i int) bool {
		return s.endPositions[i] >= uint32(offset)
	})
}

// Get returns the value and null flag at the given offset.
func (s *RunLengthSegment[T]) Get(offset ChunkOffset) (T, bool, error) {
	if uint32(offset) >= s.size {
		var zero T
		return zero, false, validateOffsets(s.size, []ChunkOffset{offset})
	}
	run := s.runAt(offset)
	if s.nullFlags.Get(run) {
		var zero T
		return zero, true, nil
	}
	return s.values[run], false, nil
}

// Iterator returns a sequential iterator over all positions. The iterator
// advances through runs without re-searching.
func (s *RunLengthSegment[T]) Iterator() SegmentIterator[T] {
	return &runLengthSegmentIterator[T]{segment: s}
}

// PointIterator returns an iterator over the given offsets in list order.
// Each access binary-searches the run boundaries.
func (s *RunLengthSegment[T]) PointIterator(offsets []ChunkOffset) (SegmentIterator[T], error) {
	if err := validateOffsets(s.size, offsets); err != nil {
		return nil, err
	}
	return &pointAccessIterator[T]{
		get: func(off ChunkOffset) (T, bool) {
			run := s.runAt(off)
			if s.nullFlags.Get(run) {
				var zero T
				return zero, true
			}
			return s.values[run], false
		},
		offsets: offsets,
	}, nil
}

type runLengthSegmentIterator[T ColumnValue] struct {
	segment *RunLengthSegment[T]
	offset  uint32
	run     int
}

func (it *runLengthSegmentIterator[T]) Next() (SegmentPosition[T], bool) {
	if it.offset >= it.segment.size {
		return SegmentPosition[T]{}, false
	}
	for it.segment.endPositions[it.run] < it.offset {
		it.run++
	}
	pos := SegmentPosition[T]{ChunkOffset: ChunkOffset(it.offset)}
	if it.segment.nullFlags.Get(it.run) {
		pos.IsNull = true
	} else {
		pos.Value = it.segment.values[it.run]
	}
	it.offset++
	return pos, true
}
