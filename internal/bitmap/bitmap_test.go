package bitmap

import "testing"

func TestSetGet(t *testing.T) {
	b := New(20)
	b.Set(0)
	b.Set(7)
	b.Set(8)
	b.Set(19)
	for i := 0; i < 20; i++ {
		want := i == 0 || i == 7 || i == 8 || i == 19
		if got := b.Get(i); got != want {
			t.Errorf("Get(%d) = %v, want %v", i, got, want)
		}
	}
	if got := b.CountSet(); got != 4 {
		t.Errorf("CountSet() = %d, want 4", got)
	}
}

func TestFromBoolsRoundTrip(t *testing.T) {
	flags := []bool{true, false, false, true, true, false, true, false, true}
	b := FromBools(flags)
	got := b.Bools()
	if len(got) != len(flags) {
		t.Fatalf("len = %d, want %d", len(got), len(flags))
	}
	for i := range flags {
		if got[i] != flags[i] {
			t.Errorf("bit %d = %v, want %v", i, got[i], flags[i])
		}
	}
}

func TestAppend(t *testing.T) {
	b := New(0)
	for i := 0; i < 17; i++ {
		b.Append(i%3 == 0)
	}
	if b.Len() != 17 {
		t.Fatalf("len = %d, want 17", b.Len())
	}
	for i := 0; i < 17; i++ {
		if got := b.Get(i); got != (i%3 == 0) {
			t.Errorf("bit %d = %v, want %v", i, got, i%3 == 0)
		}
	}
}
