// Package testutil provides shared test helpers for strata packages.
package testutil

// Repeat returns n copies of v.
func Repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Sequence returns the n consecutive int32 values starting at start.
func Sequence(start int32, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = start + int32(i)
	}
	return out
}

// NullsAt builds a null mask of length n with nulls at the given
// positions.
func NullsAt(n int, positions ...int) []bool {
	mask := make([]bool, n)
	for _, p := range positions {
		mask[p] = true
	}
	return mask
}
