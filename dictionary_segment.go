package strata

import (
	"slices"

	"github.com/strata-db/strata/internal/compvec"
)

// DictionarySegment stores a sorted dictionary of distinct non-null values
// and a compressed attribute vector of dictionary indices. The index one
// past the last dictionary entry is the null code; no separate null bitmap
// is kept.
type DictionarySegment[T ColumnValue] struct {
	dictionary      []T
	attributeVector compvec.Vector
}

// EncodeDictionarySegment builds a dictionary segment from a value segment.
func EncodeDictionarySegment[T ColumnValue](source *ValueSegment[T]) *DictionarySegment[T] {
	distinct := make(map[T]struct{}, len(source.values))
	for i, v := range source.values {
		if source.NullAt(i) {
			continue
		}
		distinct[v] = struct{}{}
	}

	dictionary := make([]T, 0, len(distinct))
	for v := range distinct {
		dictionary = append(dictionary, v)
	}
	slices.Sort(dictionary)

	codes := make(map[T]uint64, len(dictionary))
	for i, v := range dictionary {
		codes[v] = uint64(i)
	}
	nullCode := uint64(len(dictionary))

	attribute := make([]uint64, len(source.values))
	for i, v := range source.values {
		if source.NullAt(i) {
			attribute[i] = nullCode
		} else {
			attribute[i] = codes[v]
		}
	}

	return &DictionarySegment[T]{
		dictionary:      dictionary,
		attributeVector: compvec.Encode(attribute),
	}
}

// Dictionary returns the sorted distinct values.
func (s *DictionarySegment[T]) Dictionary() []T {
	return s.dictionary
}

// AttributeVector returns the compressed index vector.
func (s *DictionarySegment[T]) AttributeVector() compvec.Vector {
	return s.attributeVector
}

// NullCode returns the reserved null index.
func (s *DictionarySegment[T]) NullCode() uint64 {
	return uint64(len(s.dictionary))
}

// UniqueValueCount returns the dictionary length.
func (s *DictionarySegment[T]) UniqueValueCount() int {
	return len(s.dictionary)
}

// Size returns the row count.
func (s *DictionarySegment[T]) Size() uint32 {
	return uint32(s.attributeVector.Size())
}

// DataType returns the logical element type.
func (s *DictionarySegment[T]) DataType() DataType {
	return dataTypeOf[T]()
}

// Encoding returns EncodingDictionary.
func (s *DictionarySegment[T]) Encoding() EncodingType {
	return EncodingDictionary
}

// EstimateMemoryUsage returns the approximate footprint in bytes.
func (s *DictionarySegment[T]) EstimateMemoryUsage() uint64 {
	var total uint64
	for _, v := range s.dictionary {
		total += uint64(sizeOfValue(v))
	}
	return total + uint64(s.attributeVector.SizeBytes())
}

// Get returns the value and null flag at the given offset.
func (s *DictionarySegment[T]) Get(offset ChunkOffset) (T, bool, error) {
	var zero T
	if uint32(offset) >= s.Size() {
		return zero, false, validateOffsets(s.Size(), []ChunkOffset{offset})
	}
	code := s.attributeVector.Get(int(offset))
	if code == s.NullCode() {
		return zero, true, nil
	}
	return s.dictionary[code], false, nil
}

// Iterator returns a sequential iterator over all positions.
func (s *DictionarySegment[T]) Iterator() SegmentIterator[T] {
	return &dictionarySegmentIterator[T]{segment: s, size: int(s.Size())}
}

// PointIterator returns an iterator over the given offsets in list order.
func (s *DictionarySegment[T]) PointIterator(offsets []ChunkOffset) (SegmentIterator[T], error) {
	if err := validateOffsets(s.Size(), offsets); err != nil {
		return nil, err
	}
	return &pointAccessIterator[T]{
		get: func(off ChunkOffset) (T, bool) {
			code := s.attributeVector.Get(int(off))
			if code == s.NullCode() {
				var zero T
				return zero, true
			}
			return s.dictionary[code], false
		},
		offsets: offsets,
	}, nil
}

type dictionarySegmentIterator[T ColumnValue] struct {
	segment *DictionarySegment[T]
	offset  int
	size    int
}

func (it *dictionarySegmentIterator[T]) Next() (SegmentPosition[T], bool) {
	if it.offset >= it.size {
		return SegmentPosition[T]{}, false
	}
	off := it.offset
	it.offset++
	code := it.segment.attributeVector.Get(off)
	pos := SegmentPosition[T]{ChunkOffset: ChunkOffset(off)}
	if code == it.segment.NullCode() {
		pos.IsNull = true
	} else {
		pos.Value = it.segment.dictionary[code]
	}
	return pos, true
}
