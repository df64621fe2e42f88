package bits

import "testing"

func TestWriteBitsReadAt(t *testing.T) {
	values := []uint64{0, 1, 5, 7, 3, 6, 2, 4, 7, 0}
	w := NewWriter()
	for _, v := range values {
		w.WriteBits(v, 3)
	}
	data := w.Bytes()

	for i, want := range values {
		got := ReadAt(data, i, 3)
		if got != want {
			t.Errorf("ReadAt(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestReadAtZeroWidth(t *testing.T) {
	if got := ReadAt(nil, 42, 0); got != 0 {
		t.Errorf("expected zero for zero-width read, got %d", got)
	}
}

func TestWidth(t *testing.T) {
	cases := []struct {
		v    uint64
		want uint8
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{255, 8},
		{256, 9},
		{951, 10},
	}
	for _, c := range cases {
		if got := Width(c.v); got != c.want {
			t.Errorf("Width(%d) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestWriterPartialByteFlush(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0b101, 3)
	data := w.Bytes()
	if len(data) != 1 {
		t.Fatalf("expected 1 byte, got %d", len(data))
	}
	if got := ReadAt(data, 0, 3); got != 0b101 {
		t.Errorf("expected 0b101, got %b", got)
	}
}
