package strata

import (
	"testing"

	"github.com/strata-db/strata/internal/testutil"
)

func buildSingleColumnTable(t *testing.T, values []string, nulls []bool) (*Catalog, TableHandle) {
	t.Helper()
	table := NewTable(Schema{{Name: "col", DataType: DataTypeString, Nullable: nulls != nil}})
	chunk, err := NewChunk([]Segment{NewValueSegmentFromValues(values, nulls)})
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	if err := table.AppendChunk(chunk); err != nil {
		t.Fatalf("AppendChunk: %v", err)
	}
	catalog := NewCatalog()
	handle, err := catalog.Add("t", table)
	if err != nil {
		t.Fatalf("catalog.Add: %v", err)
	}
	return catalog, handle
}

func TestReferenceSegmentNullRowPreservation(t *testing.T) {
	catalog, handle := buildSingleColumnTable(t,
		[]string{"a", "", "b"}, testutil.NullsAt(3, 1))

	positions := PosList{
		{ChunkID: 0, ChunkOffset: 2},
		NullRowID,
		{ChunkID: 0, ChunkOffset: 0},
	}
	seg, err := NewReferenceSegment[string](catalog, handle, 0, positions)
	if err != nil {
		t.Fatalf("NewReferenceSegment: %v", err)
	}

	var got []SegmentPosition[string]
	forEachPosition(seg.Iterator(), func(pos SegmentPosition[string]) {
		got = append(got, pos)
	})
	if len(got) != 3 {
		t.Fatalf("yielded %d triples, want 3", len(got))
	}
	if got[0].Value != "b" || got[0].IsNull || got[0].ChunkOffset != 2 {
		t.Errorf("triple 0 = %+v, want (b, false, 2)", got[0])
	}
	if !got[1].IsNull {
		t.Errorf("triple 1 = %+v, want null", got[1])
	}
	if got[2].Value != "a" || got[2].IsNull || got[2].ChunkOffset != 0 {
		t.Errorf("triple 2 = %+v, want (a, false, 0)", got[2])
	}
}

func TestReferenceSegmentResolvesReferencedNulls(t *testing.T) {
	catalog, handle := buildSingleColumnTable(t,
		[]string{"a", "", "b"}, testutil.NullsAt(3, 1))

	seg, err := NewReferenceSegment[string](catalog, handle, 0, PosList{{ChunkID: 0, ChunkOffset: 1}})
	if err != nil {
		t.Fatalf("NewReferenceSegment: %v", err)
	}
	_, isNull, err := seg.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !isNull {
		t.Error("referenced null row should resolve as null")
	}
}

func TestReferenceSegmentValidation(t *testing.T) {
	catalog, handle := buildSingleColumnTable(t, []string{"a"}, nil)

	if _, err := NewReferenceSegment[string](catalog, handle, 0, PosList{{ChunkID: 1, ChunkOffset: 0}}); err == nil {
		t.Error("expected error for unknown chunk")
	}
	if _, err := NewReferenceSegment[string](catalog, handle, 0, PosList{{ChunkID: 0, ChunkOffset: 5}}); err == nil {
		t.Error("expected error for offset past chunk size")
	}
	if _, err := NewReferenceSegment[int32](catalog, handle, 0, PosList{}); err == nil {
		t.Error("expected error for mismatched element type")
	}
}

func TestReferenceSegmentAcrossChunks(t *testing.T) {
	table := NewTable(Schema{{Name: "n", DataType: DataTypeInt32}})
	for _, values := range [][]int32{{1, 2}, {3, 4}} {
		chunk, err := NewChunk([]Segment{NewValueSegmentFromValues(values, nil)})
		if err != nil {
			t.Fatalf("NewChunk: %v", err)
		}
		if err := table.AppendChunk(chunk); err != nil {
			t.Fatalf("AppendChunk: %v", err)
		}
	}
	catalog := NewCatalog()
	handle, _ := catalog.Add("t", table)

	positions := PosList{
		{ChunkID: 1, ChunkOffset: 1},
		{ChunkID: 0, ChunkOffset: 0},
		{ChunkID: 1, ChunkOffset: 0},
	}
	seg, err := NewReferenceSegment[int32](catalog, handle, 0, positions)
	if err != nil {
		t.Fatalf("NewReferenceSegment: %v", err)
	}
	want := []int32{4, 1, 3}
	i := 0
	forEachPosition(seg.Iterator(), func(pos SegmentPosition[int32]) {
		if pos.Value != want[i] {
			t.Errorf("triple %d value = %d, want %d", i, pos.Value, want[i])
		}
		i++
	})
	if i != 3 {
		t.Errorf("yielded %d triples, want 3", i)
	}
}
