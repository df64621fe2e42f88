package strata

import (
	"errors"
	"testing"
)

func TestDataTypeString(t *testing.T) {
	cases := map[DataType]string{
		DataTypeNull:   "null",
		DataTypeInt32:  "int32",
		DataTypeInt64:  "int64",
		DataTypeFloat:  "float",
		DataTypeDouble: "double",
		DataTypeString: "string",
	}
	for dt, want := range cases {
		if got := dt.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", dt, got, want)
		}
	}
}

func TestVariantCompareSameTag(t *testing.T) {
	cases := []struct {
		a, b Variant
		want int
	}{
		{Int32Variant(1), Int32Variant(2), -1},
		{Int32Variant(2), Int32Variant(2), 0},
		{Int64Variant(5), Int64Variant(3), 1},
		{DoubleVariant(1.5), DoubleVariant(2.5), -1},
		{FloatVariant(2.5), FloatVariant(2.5), 0},
		{StringVariant("a"), StringVariant("b"), -1},
		{NullVariant(), NullVariant(), 0},
	}
	for _, c := range cases {
		got, err := c.a.Compare(c.b)
		if err != nil {
			t.Errorf("Compare(%v, %v) error: %v", c.a, c.b, err)
			continue
		}
		if got != c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestVariantCompareCrossTagForbidden(t *testing.T) {
	_, err := Int32Variant(1).Compare(Int64Variant(1))
	if err == nil {
		t.Fatal("expected error comparing int32 to int64")
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}

	_, err = StringVariant("1").Compare(Int32Variant(1))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestVariantAccessors(t *testing.T) {
	if v := Int32Variant(42); v.Int32() != 42 || v.DataType() != DataTypeInt32 || v.IsNull() {
		t.Errorf("unexpected int32 variant state: %v", v)
	}
	if v := StringVariant("x"); v.Str() != "x" || v.DataType() != DataTypeString {
		t.Errorf("unexpected string variant state: %v", v)
	}
	if !NullVariant().IsNull() {
		t.Error("null variant should report IsNull")
	}
	if DoubleVariant(1.25).Double() != 1.25 {
		t.Error("double payload lost")
	}
}
