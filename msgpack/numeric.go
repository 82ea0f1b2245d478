package msgpack

import (
	"encoding/binary"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/PavelKisliak/bitserializer-go/endian"
)

// rawNumber holds a decoded integer in whichever domain it naturally
// belongs: a non-negative magnitude up to the full uint64 range, or a
// negative value representable as int64. Keeping both avoids losing
// range when e.g. a uint64 payload exceeds math.MaxInt64.
type rawNumber struct {
	u   uint64
	i   int64
	neg bool
}

// decodeRawInteger reads one integer-or-boolean-coded value from c,
// per SPEC_FULL.md §4.6's "read_value<T> accepts any integer encoding
// plus either boolean byte" contract. The returned int64 is the position
// of the lead byte, for error reporting.
func decodeRawInteger(c cursor) (rawNumber, ValueType, int64, bool) {
	pos := c.GetPosition()
	b, ok := c.ReadByte()
	if !ok {
		return rawNumber{}, Unknown, pos, false
	}
	meta := byteCodeTable[b]

	switch meta.Type {
	case UnsignedInteger:
		if meta.FixedSize >= 0 {
			return rawNumber{u: uint64(meta.FixedSize)}, UnsignedInteger, pos, true
		}
		buf := c.ReadSolidBlock(meta.DataSize)
		if buf == nil {
			return rawNumber{}, Unknown, pos, false
		}
		return rawNumber{u: beUint(buf)}, UnsignedInteger, pos, true

	case SignedInteger:
		var v int64
		if meta.DataSize == 0 {
			v = int64(meta.FixedSize) // negative fixint
		} else {
			buf := c.ReadSolidBlock(meta.DataSize)
			if buf == nil {
				return rawNumber{}, Unknown, pos, false
			}
			v = beSignedInt(buf)
		}
		if v < 0 {
			return rawNumber{i: v, neg: true}, SignedInteger, pos, true
		}
		return rawNumber{u: uint64(v)}, SignedInteger, pos, true

	case Boolean:
		var u uint64
		if b == 0xC3 {
			u = 1
		}
		return rawNumber{u: u}, Boolean, pos, true

	default:
		return rawNumber{}, meta.Type, pos, true
	}
}

// beUint decodes buf as a big-endian magnitude. Fixed widths take a
// native-order read plus a conditional swap (a no-op on a big-endian
// host, per endian's zero-cost case) instead of byte-by-byte shifting.
func beUint(buf []byte) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(endian.BigToNative16(binary.NativeEndian.Uint16(buf)))
	case 4:
		return uint64(endian.BigToNative32(binary.NativeEndian.Uint32(buf)))
	case 8:
		return endian.BigToNative64(binary.NativeEndian.Uint64(buf))
	default:
		var v uint64
		for _, b := range buf {
			v = v<<8 | uint64(b)
		}
		return v
	}
}

func beSignedInt(buf []byte) int64 {
	switch len(buf) {
	case 1:
		return int64(int8(buf[0]))
	case 2:
		return int64(int16(beUint(buf)))
	case 4:
		return int64(int32(beUint(buf)))
	default:
		return int64(beUint(buf))
	}
}

func isUnsignedType[T constraints.Integer]() bool { return ^T(0) > 0 }

func bitSizeOf[T constraints.Integer]() int {
	var z T
	return int(unsafe.Sizeof(z)) * 8
}

func signedRange(size int) (int64, int64) {
	switch size {
	case 8:
		return math.MinInt8, math.MaxInt8
	case 16:
		return math.MinInt16, math.MaxInt16
	case 32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func unsignedMax(size int) uint64 {
	switch size {
	case 8:
		return math.MaxUint8
	case 16:
		return math.MaxUint16
	case 32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// narrowInt converts raw into T, reporting false if the value does not
// fit (the caller applies OverflowNumberPolicy to that result).
func narrowInt[T constraints.Integer](raw rawNumber) (T, bool) {
	size := bitSizeOf[T]()
	unsigned := isUnsignedType[T]()

	if raw.neg {
		if unsigned {
			return 0, false
		}
		lo, hi := signedRange(size)
		if raw.i < lo || raw.i > hi {
			return 0, false
		}
		return T(raw.i), true
	}

	if unsigned {
		if raw.u > unsignedMax(size) {
			return 0, false
		}
		return T(raw.u), true
	}

	_, hi := signedRange(size)
	if raw.u > uint64(hi) {
		return 0, false
	}
	return T(raw.u), true
}
