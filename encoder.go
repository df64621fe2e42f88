package strata

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// EncodingType identifies a segment encoding. The set is closed.
type EncodingType int

const (
	// EncodingUnencoded is a plain value vector plus null bitmap.
	EncodingUnencoded EncodingType = iota
	// EncodingDictionary stores a sorted dictionary and an index vector.
	EncodingDictionary
	// EncodingRunLength collapses runs of identical values.
	EncodingRunLength
	// EncodingFrameOfReference stores per-block references and bit-packed
	// deltas. Integer columns only.
	EncodingFrameOfReference
	// EncodingLZ4 compresses the whole segment as one blob.
	EncodingLZ4
	// EncodingReference is a position list into another table. Reference
	// segments are produced by scans, never by the encoder.
	EncodingReference
)

func (e EncodingType) String() string {
	switch e {
	case EncodingUnencoded:
		return "unencoded"
	case EncodingDictionary:
		return "dictionary"
	case EncodingRunLength:
		return "run-length"
	case EncodingFrameOfReference:
		return "frame-of-reference"
	case EncodingLZ4:
		return "lz4"
	case EncodingReference:
		return "reference"
	}
	return "unknown"
}

// SupportedEncodings returns the encoder-producible encodings for a data
// type.
func SupportedEncodings(dt DataType) []EncodingType {
	base := []EncodingType{EncodingUnencoded, EncodingDictionary, EncodingRunLength, EncodingLZ4}
	if dt.IsIntegral() {
		return append(base, EncodingFrameOfReference)
	}
	return base
}

// Encode re-encodes a segment under the given encoding. See
// EncodeWithContext.
func Encode(encoding EncodingType, segment Segment, cfg EncodingConfig) (Segment, error) {
	return EncodeWithContext(context.Background(), encoding, segment, cfg)
}

// EncodeWithContext re-encodes a segment under the given encoding.
// Unsupported (encoding, data type) pairs fail with ErrUnsupportedEncoding.
// The context is checked at block boundaries inside the frame-of-reference
// and LZ4 encoders.
func EncodeWithContext(ctx context.Context, encoding EncodingType, segment Segment, cfg EncodingConfig) (Segment, error) {
	dt := segment.DataType()
	if encoding == EncodingReference {
		return nil, newEncodingError(EncodingErrorTypeUnsupported, encoding, dt,
			"reference segments are scan outputs, not encoder outputs")
	}
	var encoded Segment
	var err error
	switch dt {
	case DataTypeInt32:
		encoded, err = encodeIntegral[int32](ctx, encoding, segment, cfg)
	case DataTypeInt64:
		encoded, err = encodeIntegral[int64](ctx, encoding, segment, cfg)
	case DataTypeFloat:
		encoded, err = encodeTyped[float32](ctx, encoding, segment, cfg)
	case DataTypeDouble:
		encoded, err = encodeTyped[float64](ctx, encoding, segment, cfg)
	case DataTypeString:
		encoded, err = encodeTyped[string](ctx, encoding, segment, cfg)
	default:
		return nil, newEncodingError(EncodingErrorTypeUnsupported, encoding, dt, "no encoder for data type")
	}
	if err != nil {
		return nil, err
	}
	DefaultMetrics.segmentEncoded()
	return encoded, nil
}

func encodeIntegral[T IntegralValue](ctx context.Context, encoding EncodingType, segment Segment, cfg EncodingConfig) (Segment, error) {
	if encoding == EncodingFrameOfReference {
		source, err := valueSegmentOf[T](segment)
		if err != nil {
			return nil, err
		}
		return EncodeFrameOfReferenceSegment(ctx, source, cfg.FrameOfReferenceBlockSize)
	}
	return encodeTyped[T](ctx, encoding, segment, cfg)
}

func encodeTyped[T ColumnValue](ctx context.Context, encoding EncodingType, segment Segment, cfg EncodingConfig) (Segment, error) {
	if encoding == EncodingFrameOfReference {
		return nil, newEncodingError(EncodingErrorTypeUnsupported, encoding, segment.DataType(),
			"frame-of-reference requires an integer column")
	}
	source, err := valueSegmentOf[T](segment)
	if err != nil {
		return nil, err
	}
	switch encoding {
	case EncodingUnencoded:
		return source, nil
	case EncodingDictionary:
		return EncodeDictionarySegment(source), nil
	case EncodingRunLength:
		return EncodeRunLengthSegment(source), nil
	case EncodingLZ4:
		return EncodeLZ4Segment(ctx, source, cfg.LZ4MaxInputSize)
	}
	return nil, newEncodingError(EncodingErrorTypeUnsupported, encoding, segment.DataType(), "unknown encoding")
}

// valueSegmentOf returns the segment as a value segment, materializing
// encoded segments first. Encoders always consume plain value vectors.
func valueSegmentOf[T ColumnValue](segment Segment) (*ValueSegment[T], error) {
	if vs, ok := segment.(*ValueSegment[T]); ok {
		return vs, nil
	}
	typed, err := typedSegmentOf[T](segment)
	if err != nil {
		return nil, err
	}
	values, nulls := materializeSegment(typed)
	return NewValueSegmentFromValues(values, nulls), nil
}

// ChunkEncodingSpec names the target encoding of each column in a chunk.
type ChunkEncodingSpec []EncodingType

// EncodeChunk re-encodes every segment of a chunk per the spec. An
// EncodingUnencoded entry keeps the existing segment.
func EncodeChunk(ctx context.Context, chunk *Chunk, spec ChunkEncodingSpec, cfg EncodingConfig) (*Chunk, error) {
	if len(spec) != chunk.ColumnCount() {
		return nil, fmt.Errorf("encoding spec has %d entries, chunk has %d columns", len(spec), chunk.ColumnCount())
	}
	segments := make([]Segment, chunk.ColumnCount())
	for i, encoding := range spec {
		seg := chunk.Segment(ColumnID(i))
		if encoding == EncodingUnencoded {
			segments[i] = seg
			continue
		}
		encoded, err := EncodeWithContext(ctx, encoding, seg, cfg)
		if err != nil {
			return nil, err
		}
		segments[i] = encoded
	}
	return NewChunk(segments)
}

// ReencodeTable re-encodes all chunks of a table per the spec, running
// independent chunks in parallel, and swaps in the new chunk list. The
// context is checked at chunk boundaries; on error or cancellation the
// table keeps its previous chunks. Attached statistics stay valid: the
// logical content of every chunk is unchanged.
func ReencodeTable(ctx context.Context, table *Table, spec ChunkEncodingSpec, cfg EncodingConfig) error {
	table.mu.Lock()
	defer table.mu.Unlock()

	old := *table.chunks.Load()
	next := make([]*Chunk, len(old))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range old {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			encoded, err := EncodeChunk(gctx, chunk, spec, cfg)
			if err != nil {
				return err
			}
			next[i] = encoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	table.chunks.Store(&next)
	slog.Debug("re-encoded table", "chunks", len(next))
	return nil
}
