// Package endian provides byte-reversal helpers for 2/4/8-byte integers
// and a lazy byte-swapping iterator adaptor, grounded in SPEC_FULL.md
// §4.1 and ported from the alignment-helper style of oy3o/codec/util.go.
package endian

import (
	"encoding/binary"

	"golang.org/x/exp/constraints"
)

// Endianness tags a source or target byte order.
type Endianness uint8

const (
	Little Endianness = iota
	Big
)

// Native is the host's byte order, used to pick the zero-cost path in
// NewSwapIterator.
var Native = hostEndianness()

func hostEndianness() Endianness {
	var buf [2]byte
	binary.NativeEndian.PutUint16(buf[:], 1)
	if buf[0] == 1 {
		return Little
	}
	return Big
}

// Reverse16 swaps the byte order of a 16-bit value.
func Reverse16(v uint16) uint16 { return v<<8 | v>>8 }

// Reverse32 swaps the byte order of a 32-bit value.
func Reverse32(v uint32) uint32 {
	return v<<24 | (v&0xFF00)<<8 | (v>>8)&0xFF00 | v>>24
}

// Reverse64 swaps the byte order of a 64-bit value.
func Reverse64(v uint64) uint64 {
	return v<<56 | (v&0xFF00)<<40 | (v&0xFF0000)<<24 | (v&0xFF000000)<<8 |
		(v>>8)&0xFF000000 | (v>>24)&0xFF0000 | (v>>40)&0xFF00 | v>>56
}

// NativeToBig16 returns v unchanged on a big-endian host, byte-reversed
// on little-endian. The 32/64-bit and *ToLittle mirrors follow the same
// shape.
func NativeToBig16(v uint16) uint16 {
	if Native == Big {
		return v
	}
	return Reverse16(v)
}

func NativeToBig32(v uint32) uint32 {
	if Native == Big {
		return v
	}
	return Reverse32(v)
}

func NativeToBig64(v uint64) uint64 {
	if Native == Big {
		return v
	}
	return Reverse64(v)
}

func BigToNative16(v uint16) uint16 { return NativeToBig16(v) }
func BigToNative32(v uint32) uint32 { return NativeToBig32(v) }
func BigToNative64(v uint64) uint64 { return NativeToBig64(v) }

func NativeToLittle16(v uint16) uint16 {
	if Native == Little {
		return v
	}
	return Reverse16(v)
}

func NativeToLittle32(v uint32) uint32 {
	if Native == Little {
		return v
	}
	return Reverse32(v)
}

func NativeToLittle64(v uint64) uint64 {
	if Native == Little {
		return v
	}
	return Reverse64(v)
}

func LittleToNative16(v uint16) uint16 { return NativeToLittle16(v) }
func LittleToNative32(v uint32) uint32 { return NativeToLittle32(v) }
func LittleToNative64(v uint64) uint64 { return NativeToLittle64(v) }

// Roundup rounds n up to the nearest multiple of align. align must be
// a power of two. Ported from oy3o/codec/util.go's Roundup.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// Unsigned is the set of widths the swap iterator understands.
type Unsigned interface {
	~uint16 | ~uint32 | ~uint64
}

// reverseOf swaps the byte order of v, dispatching on width.
func reverseOf[T Unsigned](v T) T {
	switch any(v).(type) {
	case uint16:
		return T(Reverse16(uint16(v)))
	case uint32:
		return T(Reverse32(uint32(v)))
	case uint64:
		return T(Reverse64(uint64(v)))
	default:
		return v
	}
}

// Iterator yields successive integers of type T, applying a byte swap
// (or not) depending on how it was constructed.
type Iterator[T Unsigned] interface {
	// Next returns the next value and true, or the zero value and
	// false when the source is exhausted.
	Next() (T, bool)
}

// rawIterator is the zero-cost identity case: no swap is needed.
type rawIterator[T Unsigned] struct {
	src []T
	pos int
}

func (it *rawIterator[T]) Next() (T, bool) {
	if it.pos >= len(it.src) {
		var zero T
		return zero, false
	}
	v := it.src[it.pos]
	it.pos++
	return v, true
}

// swapIterator wraps src, byte-swapping each element on Next.
type swapIterator[T Unsigned] struct {
	src []T
	pos int
}

func (it *swapIterator[T]) Next() (T, bool) {
	if it.pos >= len(it.src) {
		var zero T
		return zero, false
	}
	v := reverseOf(it.src[it.pos])
	it.pos++
	return v, true
}

// NewSwapIterator returns an Iterator over src. If from already matches
// the host's native endianness it returns the raw (zero-cost) iterator
// instead of wrapping with a byte swap, per SPEC_FULL.md §4.1's
// "zero-cost case" requirement. Unsigned has no single-byte member, so
// there is no separate single-byte case.
func NewSwapIterator[T Unsigned](src []T, from Endianness) Iterator[T] {
	if from == Native {
		return &rawIterator[T]{src: src}
	}
	return &swapIterator[T]{src: src}
}
