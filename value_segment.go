package strata

import (
	"github.com/strata-db/strata/internal/bitmap"
)

// ValueSegment stores values as a plain vector plus a parallel null
// bitmap. It is the only segment kind that accepts appends, and only
// until the owning chunk is finalized.
type ValueSegment[T ColumnValue] struct {
	values   []T
	nulls    *bitmap.Bitmap
	nullable bool
}

// NewValueSegment creates an empty, appendable value segment.
func NewValueSegment[T ColumnValue](nullable bool) *ValueSegment[T] {
	seg := &ValueSegment[T]{nullable: nullable}
	if nullable {
		seg.nulls = bitmap.New(0)
	}
	return seg
}

// NewValueSegmentFromValues wraps existing value and null slices. A nil
// nulls slice produces a non-nullable segment.
func NewValueSegmentFromValues[T ColumnValue](values []T, nulls []bool) *ValueSegment[T] {
	seg := &ValueSegment[T]{values: values}
	if nulls != nil {
		seg.nullable = true
		seg.nulls = bitmap.FromBools(nulls)
	}
	return seg
}

// Append adds a non-null value.
func (s *ValueSegment[T]) Append(v T) {
	s.values = append(s.values, v)
	if s.nullable {
		s.nulls.Append(false)
	}
}

// AppendNull adds a null position. The segment must be nullable.
func (s *ValueSegment[T]) AppendNull() error {
	if !s.nullable {
		return newStatisticsError("cannot append null to non-nullable segment", dataTypeOf[T](), DataTypeNull)
	}
	var zero T
	s.values = append(s.values, zero)
	s.nulls.Append(true)
	return nil
}

// appendVariant adds a variant value, checking its tag against T.
func (s *ValueSegment[T]) appendVariant(v Variant) error {
	if v.IsNull() {
		return s.AppendNull()
	}
	value, err := variantValue[T](v)
	if err != nil {
		return err
	}
	s.Append(value)
	return nil
}

// Size returns the row count.
func (s *ValueSegment[T]) Size() uint32 {
	return uint32(len(s.values))
}

// DataType returns the logical element type.
func (s *ValueSegment[T]) DataType() DataType {
	return dataTypeOf[T]()
}

// Encoding returns EncodingUnencoded.
func (s *ValueSegment[T]) Encoding() EncodingType {
	return EncodingUnencoded
}

// Nullable reports whether the segment carries a null bitmap.
func (s *ValueSegment[T]) Nullable() bool {
	return s.nullable
}

// Values exposes the raw value vector. Null positions hold zero values.
func (s *ValueSegment[T]) Values() []T {
	return s.values
}

// NullAt reports whether position i is null.
func (s *ValueSegment[T]) NullAt(i int) bool {
	return s.nullable && s.nulls.Get(i)
}

// Get returns the value and null flag at the given offset.
func (s *ValueSegment[T]) Get(offset ChunkOffset) (T, bool, error) {
	if uint32(offset) >= s.Size() {
		var zero T
		return zero, false, validateOffsets(s.Size(), []ChunkOffset{offset})
	}
	return s.values[offset], s.NullAt(int(offset)), nil
}

// EstimateMemoryUsage returns the approximate footprint in bytes.
func (s *ValueSegment[T]) EstimateMemoryUsage() uint64 {
	var total uint64
	for _, v := range s.values {
		total += uint64(sizeOfValue(v))
	}
	if s.nulls != nil {
		total += uint64(s.nulls.SizeBytes())
	}
	return total
}

// Iterator returns a sequential iterator over all positions.
func (s *ValueSegment[T]) Iterator() SegmentIterator[T] {
	return &valueSegmentIterator[T]{segment: s}
}

// PointIterator returns an iterator over the given offsets in list order.
func (s *ValueSegment[T]) PointIterator(offsets []ChunkOffset) (SegmentIterator[T], error) {
	if err := validateOffsets(s.Size(), offsets); err != nil {
		return nil, err
	}
	return &pointAccessIterator[T]{
		get: func(off ChunkOffset) (T, bool) {
			return s.values[off], s.NullAt(int(off))
		},
		offsets: offsets,
	}, nil
}

type valueSegmentIterator[T ColumnValue] struct {
	segment *ValueSegment[T]
	offset  int
}

func (it *valueSegmentIterator[T]) Next() (SegmentPosition[T], bool) {
	if it.offset >= len(it.segment.values) {
		return SegmentPosition[T]{}, false
	}
	pos := SegmentPosition[T]{
		Value:       it.segment.values[it.offset],
		IsNull:      it.segment.NullAt(it.offset),
		ChunkOffset: ChunkOffset(it.offset),
	}
	it.offset++
	return pos, true
}
