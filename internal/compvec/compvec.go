// Package compvec provides byte-packed unsigned integer vectors used as
// segment attribute vectors and frame-of-reference delta storage.
//
// Two layouts are implemented behind a uniform contract:
//   - FixedWidth: values stored in 8/16/32-bit lanes chosen by the maximum value
//   - BitPacked: every value stored in exactly as many bits as the maximum needs
//
// The layout is chosen at encode time and carried with the vector.
package compvec

import (
	"encoding/binary"

	"github.com/strata-db/strata/internal/bits"
)

// Layout identifies the physical layout of a compressed vector.
type Layout uint8

const (
	// LayoutFixed8 stores each value in one byte.
	LayoutFixed8 Layout = iota
	// LayoutFixed16 stores each value in two bytes.
	LayoutFixed16
	// LayoutFixed32 stores each value in four bytes.
	LayoutFixed32
	// LayoutBitPacked stores each value in ceil(log2(max+1)) bits.
	LayoutBitPacked
)

func (l Layout) String() string {
	switch l {
	case LayoutFixed8:
		return "fixed-8"
	case LayoutFixed16:
		return "fixed-16"
	case LayoutFixed32:
		return "fixed-32"
	case LayoutBitPacked:
		return "bit-packed"
	}
	return "unknown"
}

// Vector is the uniform decode contract over all layouts.
type Vector interface {
	// Size returns the number of stored values.
	Size() int
	// Get returns the value at position i.
	Get(i int) uint64
	// Iterate yields every value in order.
	Iterate(fn func(v uint64))
	// PointAccess yields the value at each given position, in list order.
	PointAccess(positions []uint32, fn func(pos uint32, v uint64))
	// Layout returns the layout tag stored with the vector.
	Layout() Layout
	// SizeBytes returns the memory footprint of the packed data.
	SizeBytes() int
}

// Encode compresses values under the layout with the smallest footprint.
// Fixed-width lanes win ties for their cheaper random access.
func Encode(values []uint64) Vector {
	var max uint64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	width := bits.Width(max)
	if width > 32 {
		return EncodeBitPacked(values)
	}
	fixedBytes := len(values) * laneForWidth(width)
	packedBytes := (len(values)*int(width) + 7) / 8
	if packedBytes < fixedBytes {
		return EncodeBitPacked(values)
	}
	return EncodeFixed(values)
}

func laneForWidth(width uint8) int {
	switch {
	case width <= 8:
		return 1
	case width <= 16:
		return 2
	default:
		return 4
	}
}

// FixedWidth packs values into uniform 8/16/32-bit lanes.
type FixedWidth struct {
	data []byte
	lane int
	n    int
}

// EncodeFixed packs values into the smallest lane that fits the maximum
// value. Values must fit in 32 bits.
func EncodeFixed(values []uint64) *FixedWidth {
	var max uint64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	lane := laneForWidth(bits.Width(max))
	v := &FixedWidth{data: make([]byte, len(values)*lane), lane: lane, n: len(values)}
	for i, val := range values {
		v.put(i, val)
	}
	return v
}

func (v *FixedWidth) put(i int, val uint64) {
	switch v.lane {
	case 1:
		v.data[i] = byte(val)
	case 2:
		binary.LittleEndian.PutUint16(v.data[i*2:], uint16(val))
	default:
		binary.LittleEndian.PutUint32(v.data[i*4:], uint32(val))
	}
}

// Size returns the number of stored values.
func (v *FixedWidth) Size() int {
	return v.n
}

// Get returns the value at position i.
func (v *FixedWidth) Get(i int) uint64 {
	switch v.lane {
	case 1:
		return uint64(v.data[i])
	case 2:
		return uint64(binary.LittleEndian.Uint16(v.data[i*2:]))
	default:
		return uint64(binary.LittleEndian.Uint32(v.data[i*4:]))
	}
}

// Iterate yields every value in order.
func (v *FixedWidth) Iterate(fn func(uint64)) {
	for i := 0; i < v.n; i++ {
		fn(v.Get(i))
	}
}

// PointAccess yields the value at each position in list order.
func (v *FixedWidth) PointAccess(positions []uint32, fn func(uint32, uint64)) {
	for _, pos := range positions {
		fn(pos, v.Get(int(pos)))
	}
}

// Layout returns the layout tag.
func (v *FixedWidth) Layout() Layout {
	switch v.lane {
	case 1:
		return LayoutFixed8
	case 2:
		return LayoutFixed16
	default:
		return LayoutFixed32
	}
}

// SizeBytes returns the packed data footprint.
func (v *FixedWidth) SizeBytes() int {
	return len(v.data)
}

// BitPacked stores each value in exactly Width bits.
type BitPacked struct {
	data  []byte
	width uint8
	n     int
}

// EncodeBitPacked packs values using the bit width of the maximum value.
func EncodeBitPacked(values []uint64) *BitPacked {
	var max uint64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	width := bits.Width(max)
	w := bits.NewWriter()
	for _, v := range values {
		w.WriteBits(v, int(width))
	}
	return &BitPacked{data: w.Bytes(), width: width, n: len(values)}
}

// Size returns the number of stored values.
func (v *BitPacked) Size() int {
	return v.n
}

// Width returns the per-value bit width.
func (v *BitPacked) Width() uint8 {
	return v.width
}

// Get returns the value at position i.
func (v *BitPacked) Get(i int) uint64 {
	return bits.ReadAt(v.data, i, v.width)
}

// Iterate yields every value in order.
func (v *BitPacked) Iterate(fn func(uint64)) {
	for i := 0; i < v.n; i++ {
		fn(v.Get(i))
	}
}

// PointAccess yields the value at each position in list order.
func (v *BitPacked) PointAccess(positions []uint32, fn func(uint32, uint64)) {
	for _, pos := range positions {
		fn(pos, v.Get(int(pos)))
	}
}

// Layout returns the layout tag.
func (v *BitPacked) Layout() Layout {
	return LayoutBitPacked
}

// SizeBytes returns the packed data footprint.
func (v *BitPacked) SizeBytes() int {
	return len(v.data)
}
