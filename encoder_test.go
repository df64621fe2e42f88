package strata

import (
	"context"
	"errors"
	"testing"

	"github.com/strata-db/strata/internal/testutil"
)

func TestSupportedEncodingsMatrix(t *testing.T) {
	for _, dt := range []DataType{DataTypeInt32, DataTypeInt64} {
		found := false
		for _, e := range SupportedEncodings(dt) {
			if e == EncodingFrameOfReference {
				found = true
			}
		}
		if !found {
			t.Errorf("%s should support frame-of-reference", dt)
		}
	}
	for _, dt := range []DataType{DataTypeFloat, DataTypeDouble, DataTypeString} {
		for _, e := range SupportedEncodings(dt) {
			if e == EncodingFrameOfReference {
				t.Errorf("%s should not support frame-of-reference", dt)
			}
		}
	}
}

func TestEncodeRejectsReferenceEncoding(t *testing.T) {
	source := NewValueSegmentFromValues([]int32{1}, nil)
	_, err := Encode(EncodingReference, source, DefaultEncodingConfig())
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestEncodeFromEncodedSegmentMaterializes(t *testing.T) {
	source := NewValueSegmentFromValues([]int32{3, 3, 5, 5}, nil)
	dict, err := Encode(EncodingDictionary, source, DefaultEncodingConfig())
	if err != nil {
		t.Fatalf("dictionary encode: %v", err)
	}
	rle, err := Encode(EncodingRunLength, dict, DefaultEncodingConfig())
	if err != nil {
		t.Fatalf("re-encode dictionary as run-length: %v", err)
	}
	if rle.Encoding() != EncodingRunLength {
		t.Errorf("encoding = %s, want run-length", rle.Encoding())
	}
	assertSameContent(t, EncodingRunLength, source, rle)
}

func TestEncodedMemoryNeverExceedsValueSegment(t *testing.T) {
	// Low-cardinality, run-heavy columns: every encoding should report a
	// footprint at or below the plain value vector.
	n := 2048
	ints := make([]int32, n)
	doubles := make([]float64, n)
	words := make([]string, n)
	for i := range ints {
		ints[i] = int32(i / 256)
		doubles[i] = float64(i/512) * 0.01
		words[i] = []string{"carefully final requests", "furiously silent deposits"}[i/1024]
	}

	check := func(t *testing.T, source Segment) {
		base := source.EstimateMemoryUsage()
		for _, encoding := range SupportedEncodings(source.DataType()) {
			if encoding == EncodingUnencoded {
				continue
			}
			encoded, err := Encode(encoding, source, DefaultEncodingConfig())
			if err != nil {
				t.Fatalf("encode %s: %v", encoding, err)
			}
			if got := encoded.EstimateMemoryUsage(); got > base {
				t.Errorf("%s reports %d bytes, value segment reports %d", encoding, got, base)
			}
		}
	}

	t.Run("int32", func(t *testing.T) { check(t, NewValueSegmentFromValues(ints, nil)) })
	t.Run("double", func(t *testing.T) { check(t, NewValueSegmentFromValues(doubles, nil)) })
	t.Run("string", func(t *testing.T) { check(t, NewValueSegmentFromValues(words, nil)) })
}

func TestEncodeChunkPerColumnSpec(t *testing.T) {
	chunk, err := NewChunk([]Segment{
		NewValueSegmentFromValues([]int32{1, 1, 2}, nil),
		NewValueSegmentFromValues([]string{"a", "a", "b"}, nil),
	})
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}

	encoded, err := EncodeChunk(context.Background(), chunk,
		ChunkEncodingSpec{EncodingRunLength, EncodingDictionary}, DefaultEncodingConfig())
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	if got := encoded.Segment(0).Encoding(); got != EncodingRunLength {
		t.Errorf("column 0 encoding = %s, want run-length", got)
	}
	if got := encoded.Segment(1).Encoding(); got != EncodingDictionary {
		t.Errorf("column 1 encoding = %s, want dictionary", got)
	}

	_, err = EncodeChunk(context.Background(), chunk, ChunkEncodingSpec{EncodingDictionary}, DefaultEncodingConfig())
	if err == nil {
		t.Error("expected error for mismatched spec length")
	}
}

func TestReencodeTableSwapsChunks(t *testing.T) {
	table := NewTable(Schema{{Name: "n", DataType: DataTypeInt32}})
	for _, values := range [][]int32{{1, 1, 2}, {3, 3, 3}} {
		chunk, err := NewChunk([]Segment{NewValueSegmentFromValues(values, nil)})
		if err != nil {
			t.Fatalf("NewChunk: %v", err)
		}
		if err := table.AppendChunk(chunk); err != nil {
			t.Fatalf("AppendChunk: %v", err)
		}
	}

	err := ReencodeTable(context.Background(), table, ChunkEncodingSpec{EncodingDictionary}, DefaultEncodingConfig())
	if err != nil {
		t.Fatalf("ReencodeTable: %v", err)
	}
	for i, chunk := range table.Chunks() {
		if got := chunk.Segment(0).Encoding(); got != EncodingDictionary {
			t.Errorf("chunk %d encoding = %s, want dictionary", i, got)
		}
	}
	if table.RowCount() != 6 {
		t.Errorf("row count = %d, want 6", table.RowCount())
	}
}

func TestReencodeTableCancelledKeepsOldChunks(t *testing.T) {
	table := NewTable(Schema{{Name: "n", DataType: DataTypeInt32}})
	chunk, _ := NewChunk([]Segment{NewValueSegmentFromValues(testutil.Sequence(0, 8), nil)})
	if err := table.AppendChunk(chunk); err != nil {
		t.Fatalf("AppendChunk: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReencodeTable(ctx, table, ChunkEncodingSpec{EncodingDictionary}, DefaultEncodingConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := table.Chunk(0).Segment(0).Encoding(); got != EncodingUnencoded {
		t.Errorf("cancelled re-encode replaced chunks: %s", got)
	}
}
