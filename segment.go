package strata

import "fmt"

// Segment is one column's data within one chunk, under one encoding.
// Segments are immutable once produced by an encoder and safe for
// concurrent readers.
type Segment interface {
	// Size returns the row count.
	Size() uint32
	// DataType returns the logical type of the stored values.
	DataType() DataType
	// Encoding returns the encoding tag.
	Encoding() EncodingType
	// EstimateMemoryUsage returns the approximate footprint in bytes.
	EstimateMemoryUsage() uint64
}

// TypedSegment is the typed capability surface of a segment. Every
// concrete segment of element type T implements it.
type TypedSegment[T ColumnValue] interface {
	Segment

	// Get returns the value and null flag at the given offset.
	Get(offset ChunkOffset) (T, bool, error)
	// Iterator returns a sequential iterator over all positions.
	Iterator() SegmentIterator[T]
	// PointIterator returns an iterator over the given offsets, in list
	// order. Construction fails with ErrOutOfRange on invalid offsets;
	// iteration itself never fails.
	PointIterator(offsets []ChunkOffset) (SegmentIterator[T], error)
}

// SegmentPosition is one iteration step: the decoded value, its null flag
// and the offset it came from.
type SegmentPosition[T ColumnValue] struct {
	Value       T
	IsNull      bool
	ChunkOffset ChunkOffset
}

// SegmentIterator yields (value, is_null, chunk_offset) triples. The
// concrete iterator type is chosen per (encoding, element type) pair at
// construction so inner loops stay monomorphic.
type SegmentIterator[T ColumnValue] interface {
	Next() (SegmentPosition[T], bool)
}

// typedSegmentOf narrows an untyped segment handle to its element type.
func typedSegmentOf[T ColumnValue](seg Segment) (TypedSegment[T], error) {
	ts, ok := seg.(TypedSegment[T])
	if !ok {
		return nil, newStatisticsError("segment type does not match", dataTypeOf[T](), seg.DataType())
	}
	return ts, nil
}

func validateOffsets(size uint32, offsets []ChunkOffset) error {
	for _, off := range offsets {
		if uint32(off) >= size {
			return fmt.Errorf("%w: offset %d, segment size %d", ErrOutOfRange, off, size)
		}
	}
	return nil
}

// pointAccessIterator serves point access for segments with cheap random
// access: it resolves each listed offset through a getter closure.
type pointAccessIterator[T ColumnValue] struct {
	get     func(ChunkOffset) (T, bool)
	offsets []ChunkOffset
	i       int
}

func (it *pointAccessIterator[T]) Next() (SegmentPosition[T], bool) {
	if it.i >= len(it.offsets) {
		return SegmentPosition[T]{}, false
	}
	off := it.offsets[it.i]
	it.i++
	value, isNull := it.get(off)
	return SegmentPosition[T]{Value: value, IsNull: isNull, ChunkOffset: off}, true
}

// forEachPosition drains an iterator, invoking fn per triple.
func forEachPosition[T ColumnValue](it SegmentIterator[T], fn func(SegmentPosition[T])) {
	for {
		pos, ok := it.Next()
		if !ok {
			return
		}
		fn(pos)
	}
}

// materializeSegment decodes a typed segment into parallel value and null
// slices.
func materializeSegment[T ColumnValue](seg TypedSegment[T]) ([]T, []bool) {
	values := make([]T, 0, seg.Size())
	nulls := make([]bool, 0, seg.Size())
	forEachPosition(seg.Iterator(), func(pos SegmentPosition[T]) {
		values = append(values, pos.Value)
		nulls = append(nulls, pos.IsNull)
	})
	return values, nulls
}
