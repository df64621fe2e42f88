package strata

import (
	"testing"

	"github.com/strata-db/strata/internal/testutil"
)

func TestDictionarySegmentStringRoundTrip(t *testing.T) {
	source := NewValueSegmentFromValues(
		[]string{"b", "a", "b", "c", "", "a"},
		testutil.NullsAt(6, 4),
	)
	seg := EncodeDictionarySegment(source)

	wantDict := []string{"a", "b", "c"}
	if got := seg.Dictionary(); len(got) != len(wantDict) {
		t.Fatalf("dictionary = %v, want %v", got, wantDict)
	}
	for i, want := range wantDict {
		if seg.Dictionary()[i] != want {
			t.Errorf("dictionary[%d] = %q, want %q", i, seg.Dictionary()[i], want)
		}
	}
	if seg.NullCode() != 3 {
		t.Errorf("null code = %d, want 3", seg.NullCode())
	}

	wantCodes := []uint64{1, 0, 1, 2, 3, 0}
	for i, want := range wantCodes {
		if got := seg.AttributeVector().Get(i); got != want {
			t.Errorf("attribute vector[%d] = %d, want %d", i, got, want)
		}
	}

	wantValues := []string{"b", "a", "b", "c", "", "a"}
	wantNulls := testutil.NullsAt(6, 4)
	values, nulls := materializeSegment[string](seg)
	for i := range wantValues {
		if nulls[i] != wantNulls[i] {
			t.Errorf("null at %d = %v, want %v", i, nulls[i], wantNulls[i])
		}
		if !nulls[i] && values[i] != wantValues[i] {
			t.Errorf("value at %d = %q, want %q", i, values[i], wantValues[i])
		}
	}
}

func TestDictionarySegmentSortedAndBounded(t *testing.T) {
	source := NewValueSegmentFromValues([]int32{30, 10, 20, 10, 30, 30}, nil)
	seg := EncodeDictionarySegment(source)

	dict := seg.Dictionary()
	for i := 1; i < len(dict); i++ {
		if dict[i-1] >= dict[i] {
			t.Errorf("dictionary not strictly sorted at %d: %v", i, dict)
		}
	}
	for i := 0; i < int(seg.Size()); i++ {
		if code := seg.AttributeVector().Get(i); code >= uint64(len(dict)) {
			t.Errorf("attribute vector[%d] = %d, exceeds dictionary length %d", i, code, len(dict))
		}
	}
	if seg.UniqueValueCount() != 3 {
		t.Errorf("unique count = %d, want 3", seg.UniqueValueCount())
	}
}

func TestDictionarySegmentGet(t *testing.T) {
	source := NewValueSegmentFromValues([]int64{7, 7, 9}, testutil.NullsAt(3, 1))
	seg := EncodeDictionarySegment(source)

	v, isNull, err := seg.Get(0)
	if err != nil || v != 7 || isNull {
		t.Errorf("Get(0) = (%d, %v, %v)", v, isNull, err)
	}
	_, isNull, _ = seg.Get(1)
	if !isNull {
		t.Error("Get(1) should be null")
	}
	v, _, _ = seg.Get(2)
	if v != 9 {
		t.Errorf("Get(2) = %d, want 9", v)
	}
}
