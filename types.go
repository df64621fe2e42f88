package strata

import (
	"fmt"
	"strconv"
)

// DataType enumerates the logical column types. The set is closed.
type DataType int

const (
	// DataTypeNull is the type of the null variant.
	DataTypeNull DataType = iota
	// DataTypeInt32 is a 32-bit signed integer.
	DataTypeInt32
	// DataTypeInt64 is a 64-bit signed integer.
	DataTypeInt64
	// DataTypeFloat is a 32-bit floating point number.
	DataTypeFloat
	// DataTypeDouble is a 64-bit floating point number.
	DataTypeDouble
	// DataTypeString is a variable-length byte string.
	DataTypeString
)

func (d DataType) String() string {
	switch d {
	case DataTypeNull:
		return "null"
	case DataTypeInt32:
		return "int32"
	case DataTypeInt64:
		return "int64"
	case DataTypeFloat:
		return "float"
	case DataTypeDouble:
		return "double"
	case DataTypeString:
		return "string"
	}
	return "unknown"
}

// IsIntegral reports whether the type is a signed integer type.
func (d DataType) IsIntegral() bool {
	return d == DataTypeInt32 || d == DataTypeInt64
}

// ColumnValue constrains the Go types a segment can hold.
type ColumnValue interface {
	int32 | int64 | float32 | float64 | string
}

// IntegralValue constrains the types frame-of-reference encoding accepts.
type IntegralValue interface {
	int32 | int64
}

// Variant is a tagged value carrier over the closed type set plus null.
// Equality and ordering are defined per tag; comparing variants of
// different tags is an error.
type Variant struct {
	dt DataType
	i  int64
	f  float64
	s  string
}

// NullVariant returns the null value.
func NullVariant() Variant {
	return Variant{dt: DataTypeNull}
}

// Int32Variant wraps a 32-bit integer.
func Int32Variant(v int32) Variant {
	return Variant{dt: DataTypeInt32, i: int64(v)}
}

// Int64Variant wraps a 64-bit integer.
func Int64Variant(v int64) Variant {
	return Variant{dt: DataTypeInt64, i: v}
}

// FloatVariant wraps a 32-bit float.
func FloatVariant(v float32) Variant {
	return Variant{dt: DataTypeFloat, f: float64(v)}
}

// DoubleVariant wraps a 64-bit float.
func DoubleVariant(v float64) Variant {
	return Variant{dt: DataTypeDouble, f: v}
}

// StringVariant wraps a string.
func StringVariant(v string) Variant {
	return Variant{dt: DataTypeString, s: v}
}

// DataType returns the variant's tag.
func (v Variant) DataType() DataType {
	return v.dt
}

// IsNull reports whether the variant carries the null tag.
func (v Variant) IsNull() bool {
	return v.dt == DataTypeNull
}

// Int32 returns the int32 payload. The tag must be DataTypeInt32.
func (v Variant) Int32() int32 {
	return int32(v.i)
}

// Int64 returns the int64 payload. The tag must be DataTypeInt64.
func (v Variant) Int64() int64 {
	return v.i
}

// Float returns the float32 payload. The tag must be DataTypeFloat.
func (v Variant) Float() float32 {
	return float32(v.f)
}

// Double returns the float64 payload. The tag must be DataTypeDouble.
func (v Variant) Double() float64 {
	return v.f
}

// String returns a printable form of the variant.
func (v Variant) String() string {
	switch v.dt {
	case DataTypeNull:
		return "NULL"
	case DataTypeInt32, DataTypeInt64:
		return strconv.FormatInt(v.i, 10)
	case DataTypeFloat, DataTypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case DataTypeString:
		return v.s
	}
	return "unknown"
}

// Str returns the string payload. The tag must be DataTypeString.
func (v Variant) Str() string {
	return v.s
}

// Compare orders two variants of the same tag, returning -1, 0 or 1.
// Two nulls compare equal; any other tag mismatch is a type error.
func (v Variant) Compare(other Variant) (int, error) {
	if v.dt != other.dt {
		return 0, newStatisticsError("cannot compare variants", v.dt, other.dt)
	}
	switch v.dt {
	case DataTypeNull:
		return 0, nil
	case DataTypeInt32, DataTypeInt64:
		return compareOrdered(v.i, other.i), nil
	case DataTypeFloat, DataTypeDouble:
		return compareOrdered(v.f, other.f), nil
	case DataTypeString:
		return compareOrdered(v.s, other.s), nil
	}
	return 0, fmt.Errorf("compare: unknown data type %v", v.dt)
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// dataTypeOf maps a Go element type to its logical data type.
func dataTypeOf[T ColumnValue]() DataType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return DataTypeInt32
	case int64:
		return DataTypeInt64
	case float32:
		return DataTypeFloat
	case float64:
		return DataTypeDouble
	case string:
		return DataTypeString
	}
	return DataTypeNull
}

// variantValue extracts a typed value from a Variant, erroring on tag
// mismatch or null.
func variantValue[T ColumnValue](v Variant) (T, error) {
	var zero T
	want := dataTypeOf[T]()
	if v.dt != want {
		return zero, newStatisticsError("literal type does not match column type", want, v.dt)
	}
	switch p := any(&zero).(type) {
	case *int32:
		*p = v.Int32()
	case *int64:
		*p = v.Int64()
	case *float32:
		*p = v.Float()
	case *float64:
		*p = v.Double()
	case *string:
		*p = v.Str()
	}
	return zero, nil
}

// sizeOfValue reports the in-memory footprint of one element.
func sizeOfValue[T ColumnValue](v T) int {
	switch v := any(v).(type) {
	case int32, float32:
		return 4
	case int64, float64:
		return 8
	case string:
		return 16 + len(v)
	}
	return 0
}
