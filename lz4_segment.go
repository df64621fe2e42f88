package strata

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/pierrec/lz4/v4"

	"github.com/strata-db/strata/internal/bitmap"
)

// LZ4Segment stores the whole segment as one LZ4-compressed blob. The
// null bitmap stays uncompressed so null filtering never pays a decode.
// Iteration decompresses the entire segment once per iterator.
type LZ4Segment[T ColumnValue] struct {
	originalSize   uint64
	compressedSize uint64
	compressed     []byte
	nulls          *bitmap.Bitmap
	size           uint32
}

// EncodeLZ4Segment builds an LZ4 segment from a value segment. Inputs
// larger than maxInputSize are rejected with ErrSegmentTooLarge. The
// context is checked before the compression pass.
func EncodeLZ4Segment[T ColumnValue](ctx context.Context, source *ValueSegment[T], maxInputSize int64) (*LZ4Segment[T], error) {
	if maxInputSize <= 0 {
		maxInputSize = DefaultEncodingConfig().LZ4MaxInputSize
	}
	raw := serializeValues(source.values)
	if int64(len(raw)) > maxInputSize {
		return nil, newEncodingError(EncodingErrorTypeTooLarge, EncodingLZ4, dataTypeOf[T](),
			fmt.Sprintf("input is %d bytes, limit is %d", len(raw), maxInputSize))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seg := &LZ4Segment[T]{originalSize: uint64(len(raw)), size: source.Size()}
	if source.Nullable() {
		flags := make([]bool, source.Size())
		for i := range flags {
			flags[i] = source.NullAt(i)
		}
		seg.nulls = bitmap.FromBools(flags)
	}

	var compressor lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := compressor.CompressBlock(raw, dst)
	if err != nil {
		return nil, &EncodingError{
			Type: EncodingErrorTypeInvalid, Encoding: EncodingLZ4, DataType: dataTypeOf[T](),
			Message: "compression failed", Cause: err,
		}
	}
	if n == 0 || n >= len(raw) {
		// Incompressible input is kept raw; the equal sizes mark it.
		seg.compressed = raw
		seg.compressedSize = uint64(len(raw))
	} else {
		seg.compressed = dst[:n]
		seg.compressedSize = uint64(n)
	}
	return seg, nil
}

// OriginalSize returns the uncompressed byte count.
func (s *LZ4Segment[T]) OriginalSize() uint64 {
	return s.originalSize
}

// CompressedSize returns the stored byte count.
func (s *LZ4Segment[T]) CompressedSize() uint64 {
	return s.compressedSize
}

// Size returns the row count.
func (s *LZ4Segment[T]) Size() uint32 {
	return s.size
}

// DataType returns the logical element type.
func (s *LZ4Segment[T]) DataType() DataType {
	return dataTypeOf[T]()
}

// Encoding returns EncodingLZ4.
func (s *LZ4Segment[T]) Encoding() EncodingType {
	return EncodingLZ4
}

// EstimateMemoryUsage returns the approximate footprint in bytes.
func (s *LZ4Segment[T]) EstimateMemoryUsage() uint64 {
	total := s.compressedSize + 16
	if s.nulls != nil {
		total += uint64(s.nulls.SizeBytes())
	}
	return total
}

func (s *LZ4Segment[T]) nullAt(i int) bool {
	return s.nulls != nil && s.nulls.Get(i)
}

// Decompress materializes the full value vector. It returns
// ErrInvalidSegment when the stored blob cannot be decoded; segments
// produced by EncodeLZ4Segment never fail here.
func (s *LZ4Segment[T]) Decompress() ([]T, error) {
	raw := s.compressed
	if s.compressedSize != s.originalSize {
		dst := make([]byte, s.originalSize)
		n, err := lz4.UncompressBlock(s.compressed, dst)
		if err != nil {
			return nil, &EncodingError{
				Type: EncodingErrorTypeInvalid, Encoding: EncodingLZ4, DataType: dataTypeOf[T](),
				Message: "decompression failed", Cause: err,
			}
		}
		if uint64(n) != s.originalSize {
			return nil, newEncodingError(EncodingErrorTypeInvalid, EncodingLZ4, dataTypeOf[T](),
				fmt.Sprintf("decompressed %d bytes, expected %d", n, s.originalSize))
		}
		raw = dst
	}
	return deserializeValues[T](raw, int(s.size))
}

// Get decompresses the segment to serve a single position. Prefer
// iterators for anything beyond one-off access.
func (s *LZ4Segment[T]) Get(offset ChunkOffset) (T, bool, error) {
	var zero T
	if uint32(offset) >= s.size {
		return zero, false, validateOffsets(s.size, []ChunkOffset{offset})
	}
	values, err := s.Decompress()
	if err != nil {
		return zero, false, err
	}
	return values[offset], s.nullAt(int(offset)), nil
}

// Iterator returns a sequential iterator over all positions. The whole
// segment is decompressed once at construction and the iterator walks the
// materialized buffer.
func (s *LZ4Segment[T]) Iterator() SegmentIterator[T] {
	values, err := s.Decompress()
	if err != nil {
		slog.Error("lz4 segment decode failed", "err", err)
		return &lz4SegmentIterator[T]{segment: s}
	}
	return &lz4SegmentIterator[T]{segment: s, values: values}
}

// PointIterator returns an iterator over the given offsets in list order.
// The segment is decompressed once at construction.
func (s *LZ4Segment[T]) PointIterator(offsets []ChunkOffset) (SegmentIterator[T], error) {
	if err := validateOffsets(s.size, offsets); err != nil {
		return nil, err
	}
	values, err := s.Decompress()
	if err != nil {
		return nil, err
	}
	return &pointAccessIterator[T]{
		get: func(off ChunkOffset) (T, bool) {
			return values[off], s.nullAt(int(off))
		},
		offsets: offsets,
	}, nil
}

type lz4SegmentIterator[T ColumnValue] struct {
	segment *LZ4Segment[T]
	values  []T
	offset  int
}

func (it *lz4SegmentIterator[T]) Next() (SegmentPosition[T], bool) {
	if it.offset >= len(it.values) {
		return SegmentPosition[T]{}, false
	}
	off := it.offset
	it.offset++
	return SegmentPosition[T]{
		Value:       it.values[off],
		IsNull:      it.segment.nullAt(off),
		ChunkOffset: ChunkOffset(off),
	}, true
}

// serializeValues concatenates the raw byte image of a value vector.
// Numerics are little-endian fixed width; strings use an offset-indexed
// layout of cumulative ends followed by the string bytes.
func serializeValues[T ColumnValue](values []T) []byte {
	switch vs := any(values).(type) {
	case []int32:
		out := make([]byte, 4*len(vs))
		for i, v := range vs {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
		return out
	case []int64:
		out := make([]byte, 8*len(vs))
		for i, v := range vs {
			binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
		}
		return out
	case []float32:
		out := make([]byte, 4*len(vs))
		for i, v := range vs {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
		return out
	case []float64:
		out := make([]byte, 8*len(vs))
		for i, v := range vs {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
		return out
	case []string:
		total := 4 * len(vs)
		for _, v := range vs {
			total += len(v)
		}
		out := make([]byte, 4*len(vs), total)
		end := uint32(0)
		for i, v := range vs {
			end += uint32(len(v))
			binary.LittleEndian.PutUint32(out[i*4:], end)
		}
		for _, v := range vs {
			out = append(out, v...)
		}
		return out
	}
	return nil
}

// deserializeValues reverses serializeValues for n values.
func deserializeValues[T ColumnValue](data []byte, n int) ([]T, error) {
	invalid := func(msg string) error {
		return newEncodingError(EncodingErrorTypeInvalid, EncodingLZ4, dataTypeOf[T](), msg)
	}
	values := make([]T, n)
	switch vs := any(values).(type) {
	case []int32:
		if len(data) < 4*n {
			return nil, invalid("truncated int32 image")
		}
		for i := range vs {
			vs[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case []int64:
		if len(data) < 8*n {
			return nil, invalid("truncated int64 image")
		}
		for i := range vs {
			vs[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case []float32:
		if len(data) < 4*n {
			return nil, invalid("truncated float image")
		}
		for i := range vs {
			vs[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case []float64:
		if len(data) < 8*n {
			return nil, invalid("truncated double image")
		}
		for i := range vs {
			vs[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case []string:
		if len(data) < 4*n {
			return nil, invalid("truncated string offsets")
		}
		body := data[4*n:]
		start := uint32(0)
		for i := range vs {
			end := binary.LittleEndian.Uint32(data[i*4:])
			if end < start || end > uint32(len(body)) {
				return nil, invalid("string offsets out of order")
			}
			vs[i] = string(body[start:end])
			start = end
		}
	}
	return values, nil
}
