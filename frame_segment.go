package strata

import (
	"context"

	"github.com/strata-db/strata/internal/bitmap"
	"github.com/strata-db/strata/internal/compvec"
)

// forBlock is one fixed-size block of a frame-of-reference segment: the
// block minimum as reference plus bit-packed non-negative deltas.
type forBlock[T IntegralValue] struct {
	reference T
	deltas    *compvec.BitPacked
}

// FrameOfReferenceSegment stores integers as per-block references and
// bit-packed deltas. Null positions are tracked in a separate bitmap and
// hold a zero delta.
type FrameOfReferenceSegment[T IntegralValue] struct {
	blocks    []forBlock[T]
	blockSize int
	nulls     *bitmap.Bitmap
	size      uint32
}

// EncodeFrameOfReferenceSegment builds a frame-of-reference segment from a
// value segment, splitting it into blocks of blockSize values. The context
// is checked at block boundaries.
func EncodeFrameOfReferenceSegment[T IntegralValue](ctx context.Context, source *ValueSegment[T], blockSize int) (*FrameOfReferenceSegment[T], error) {
	if blockSize <= 0 {
		blockSize = DefaultEncodingConfig().FrameOfReferenceBlockSize
	}
	seg := &FrameOfReferenceSegment[T]{blockSize: blockSize, size: source.Size()}
	if source.Nullable() {
		flags := make([]bool, source.Size())
		for i := range flags {
			flags[i] = source.NullAt(i)
		}
		seg.nulls = bitmap.FromBools(flags)
	}

	values := source.values
	for start := 0; start < len(values); start += blockSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+blockSize, len(values))

		reference, any := minNonNull(source, start, end)
		deltas := make([]uint64, end-start)
		if any {
			for i := start; i < end; i++ {
				if !source.NullAt(i) {
					deltas[i-start] = uint64(values[i]) - uint64(reference)
				}
			}
		}
		seg.blocks = append(seg.blocks, forBlock[T]{
			reference: reference,
			deltas:    compvec.EncodeBitPacked(deltas),
		})
	}
	return seg, nil
}

func minNonNull[T IntegralValue](source *ValueSegment[T], start, end int) (T, bool) {
	var ref T
	found := false
	for i := start; i < end; i++ {
		if source.NullAt(i) {
			continue
		}
		if !found || source.values[i] < ref {
			ref = source.values[i]
			found = true
		}
	}
	return ref, found
}

// BlockCount returns the number of blocks.
func (s *FrameOfReferenceSegment[T]) BlockCount() int {
	return len(s.blocks)
}

// BlockSize returns the values-per-block split used at encode time.
func (s *FrameOfReferenceSegment[T]) BlockSize() int {
	return s.blockSize
}

// BlockReference returns the reference value of the given block.
func (s *FrameOfReferenceSegment[T]) BlockReference(block int) T {
	return s.blocks[block].reference
}

// BlockBitWidth returns the delta bit width of the given block.
func (s *FrameOfReferenceSegment[T]) BlockBitWidth(block int) uint8 {
	return s.blocks[block].deltas.Width()
}

// Size returns the row count.
func (s *FrameOfReferenceSegment[T]) Size() uint32 {
	return s.size
}

// DataType returns the logical element type.
func (s *FrameOfReferenceSegment[T]) DataType() DataType {
	return dataTypeOf[T]()
}

// Encoding returns EncodingFrameOfReference.
func (s *FrameOfReferenceSegment[T]) Encoding() EncodingType {
	return EncodingFrameOfReference
}

// EstimateMemoryUsage returns the approximate footprint in bytes.
func (s *FrameOfReferenceSegment[T]) EstimateMemoryUsage() uint64 {
	var zero T
	total := uint64(0)
	for _, b := range s.blocks {
		total += uint64(sizeOfValue(zero)) + 1 + uint64(b.deltas.SizeBytes())
	}
	if s.nulls != nil {
		total += uint64(s.nulls.SizeBytes())
	}
	return total
}

func (s *FrameOfReferenceSegment[T]) nullAt(i int) bool {
	return s.nulls != nil && s.nulls.Get(i)
}

func (s *FrameOfReferenceSegment[T]) decode(i int) T {
	block := s.blocks[i/s.blockSize]
	delta := block.deltas.Get(i % s.blockSize)
	return T(uint64(block.reference) + delta)
}

// Get returns the value and null flag at the given offset.
func (s *FrameOfReferenceSegment[T]) Get(offset ChunkOffset) (T, bool, error) {
	if uint32(offset) >= s.size {
		var zero T
		return zero, false, validateOffsets(s.size, []ChunkOffset{offset})
	}
	if s.nullAt(int(offset)) {
		var zero T
		return zero, true, nil
	}
	return s.decode(int(offset)), false, nil
}

// Iterator returns a sequential iterator over all positions.
func (s *FrameOfReferenceSegment[T]) Iterator() SegmentIterator[T] {
	return &frameOfReferenceIterator[T]{segment: s}
}

// PointIterator returns an iterator over the given offsets in list order.
func (s *FrameOfReferenceSegment[T]) PointIterator(offsets []ChunkOffset) (SegmentIterator[T], error) {
	if err := validateOffsets(s.size, offsets); err != nil {
		return nil, err
	}
	return &pointAccessIterator[T]{
		get: func(off ChunkOffset) (T, bool) {
			if s.nullAt(int(off)) {
				var zero T
				return zero, true
			}
			return s.decode(int(off)), false
		},
		offsets: offsets,
	}, nil
}

type frameOfReferenceIterator[T IntegralValue] struct {
	segment *FrameOfReferenceSegment[T]
	offset  int
}

func (it *frameOfReferenceIterator[T]) Next() (SegmentPosition[T], bool) {
	if uint32(it.offset) >= it.segment.size {
		return SegmentPosition[T]{}, false
	}
	off := it.offset
	it.offset++
	pos := SegmentPosition[T]{ChunkOffset: ChunkOffset(off)}
	if it.segment.nullAt(off) {
		pos.IsNull = true
	} else {
		pos.Value = it.segment.decode(off)
	}
	return pos, true
}
