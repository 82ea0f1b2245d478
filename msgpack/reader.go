package msgpack

import (
	"io"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/PavelKisliak/bitserializer-go/binstream"
	"github.com/PavelKisliak/bitserializer-go/policy"
)

// Reader is the MessagePack decoding surface, implemented by both the
// zero-copy string reader and the buffered stream reader.
type Reader interface {
	GetPosition() int64
	SetPosition(pos int64) error
	IsEnd() bool

	ReadValueType() (ValueType, error)

	ReadNil() (bool, error)
	ReadBool() (bool, bool, error)
	ReadUint8() (uint8, bool, error)
	ReadUint16() (uint16, bool, error)
	ReadUint32() (uint32, bool, error)
	ReadUint64() (uint64, bool, error)
	ReadInt8() (int8, bool, error)
	ReadInt16() (int16, bool, error)
	ReadInt32() (int32, bool, error)
	ReadInt64() (int64, bool, error)
	ReadFloat32() (float32, bool, error)
	ReadFloat64() (float64, bool, error)
	ReadString() (string, bool, error)
	ReadTimestamp() (Ts, bool, error)
	ReadExt() (RawExt, bool, error)

	ReadArraySize() (int, bool, error)
	ReadMapSize() (int, bool, error)
	ReadBinarySize() (int, bool, error)
	ReadBinary() (byte, bool, error)

	SkipValue() error
}

type reader struct {
	c    cursor
	opts policy.Options
}

var _ Reader = (*reader)(nil)

// NewStringReader builds a zero-copy Reader over an in-memory buffer.
func NewStringReader(data []byte, opts policy.Options) Reader {
	return &reader{c: &stringCursor{data: data}, opts: opts}
}

// NewStreamReader builds a buffered Reader over an io.Reader, backed
// by a binstream.Reader sliding cache.
func NewStreamReader(r io.Reader, opts policy.Options) Reader {
	return &reader{c: binstream.NewReader(r), opts: opts}
}

func (r *reader) GetPosition() int64 { return r.c.GetPosition() }

func (r *reader) SetPosition(pos int64) error {
	if !r.c.SetPosition(pos) {
		return ErrSeekFailed
	}
	return nil
}

func (r *reader) IsEnd() bool { return r.c.IsEnd() }

// ReadValueType reports the value kind at the cursor without
// consuming it. On an Ext lead byte it peeks through to the type code
// to resolve the reserved -1 family to Timestamp, restoring the
// cursor position afterward (grounded in ReadExtFamilyType).
func (r *reader) ReadValueType() (ValueType, error) {
	b, ok := r.c.PeekByte()
	if !ok {
		return Unknown, ErrUnexpectedEnd
	}
	meta := byteCodeTable[b]
	if meta.Type != Ext {
		return meta.Type, nil
	}

	start := r.c.GetPosition()
	r.c.ReadByte()
	for i := 0; i < meta.SizePrefixBytes; i++ {
		if _, ok := r.c.ReadByte(); !ok {
			r.c.SetPosition(start)
			return Ext, nil
		}
	}
	typeByte, ok := r.c.ReadByte()
	r.c.SetPosition(start)
	if !ok {
		return Ext, nil
	}
	if int8(typeByte) == extFamilyTimestamp {
		return Timestamp, nil
	}
	return Ext, nil
}

// ReadNil consumes a Nil byte, reporting false (without error) if the
// cursor is not at Nil.
func (r *reader) ReadNil() (bool, error) {
	b, ok := r.c.PeekByte()
	if !ok {
		return false, ErrUnexpectedEnd
	}
	if byteCodeTable[b].Type != Nil {
		return false, nil
	}
	r.c.ReadByte()
	return true, nil
}

// peekIsNil reports and consumes a Nil byte at the cursor, implementing
// the Nil-is-exempt-from-MismatchedTypesPolicy rule shared by every
// typed read below.
func (r *reader) peekIsNil() (bool, bool) {
	b, ok := r.c.PeekByte()
	if !ok {
		return false, false
	}
	if byteCodeTable[b].Type == Nil {
		r.c.ReadByte()
		return true, true
	}
	return false, true
}

func (r *reader) mismatchOrSkip(pos int64, expected, actual ValueType) error {
	if r.opts.MismatchedTypesPolicy == policy.MismatchedTypesThrow {
		return mismatchError(pos, expected, actual)
	}
	_ = r.SkipValue()
	return nil
}

func (r *reader) ReadBool() (bool, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return false, false, ErrUnexpectedEnd
	} else if isNil {
		return false, false, nil
	}

	pos := r.c.GetPosition()
	b, ok := r.c.PeekByte()
	if !ok {
		return false, false, ErrUnexpectedEnd
	}
	if byteCodeTable[b].Type != Boolean {
		return false, false, r.mismatchOrSkip(pos, Boolean, byteCodeTable[b].Type)
	}
	r.c.ReadByte()
	return b == 0xC3, true, nil
}

func readIntValue[T constraints.Integer](r *reader) (T, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return 0, false, ErrUnexpectedEnd
	} else if isNil {
		return 0, false, nil
	}

	pos := r.c.GetPosition()
	raw, actual, _, ok := decodeRawInteger(r.c)
	if !ok {
		return 0, false, ErrUnexpectedEnd
	}
	if actual != UnsignedInteger && actual != SignedInteger && actual != Boolean {
		// decodeRawInteger already consumed the lead byte; rewind so
		// SkipValue (under the Skip policy) starts from it.
		r.c.SetPosition(pos)
		return 0, false, r.mismatchOrSkip(pos, UnsignedInteger, actual)
	}

	v, fits := narrowInt[T](raw)
	if !fits {
		if r.opts.OverflowNumberPolicy == policy.OverflowThrow {
			return 0, false, overflowError(pos, actual)
		}
		return 0, false, nil
	}
	return v, true, nil
}

func (r *reader) ReadUint8() (uint8, bool, error)   { return readIntValue[uint8](r) }
func (r *reader) ReadUint16() (uint16, bool, error) { return readIntValue[uint16](r) }
func (r *reader) ReadUint32() (uint32, bool, error) { return readIntValue[uint32](r) }
func (r *reader) ReadUint64() (uint64, bool, error) { return readIntValue[uint64](r) }
func (r *reader) ReadInt8() (int8, bool, error)     { return readIntValue[int8](r) }
func (r *reader) ReadInt16() (int16, bool, error)   { return readIntValue[int16](r) }
func (r *reader) ReadInt32() (int32, bool, error)   { return readIntValue[int32](r) }
func (r *reader) ReadInt64() (int64, bool, error)   { return readIntValue[int64](r) }

func (r *reader) ReadFloat32() (float32, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return 0, false, ErrUnexpectedEnd
	} else if isNil {
		return 0, false, nil
	}

	pos := r.c.GetPosition()
	b, ok := r.c.PeekByte()
	if !ok {
		return 0, false, ErrUnexpectedEnd
	}
	switch b {
	case 0xCA:
		r.c.ReadByte()
		buf := r.c.ReadSolidBlock(4)
		if buf == nil {
			return 0, false, ErrUnexpectedEnd
		}
		return math.Float32frombits(uint32(beUint(buf))), true, nil
	case 0xCB:
		r.c.ReadByte()
		buf := r.c.ReadSolidBlock(8)
		if buf == nil {
			return 0, false, ErrUnexpectedEnd
		}
		d := math.Float64frombits(beUint(buf))
		if d > math.MaxFloat32 || d < -math.MaxFloat32 {
			if r.opts.OverflowNumberPolicy == policy.OverflowThrow {
				return 0, false, overflowError(pos, Double)
			}
			return 0, false, nil
		}
		return float32(d), true, nil
	default:
		return 0, false, r.mismatchOrSkip(pos, Float, byteCodeTable[b].Type)
	}
}

func (r *reader) ReadFloat64() (float64, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return 0, false, ErrUnexpectedEnd
	} else if isNil {
		return 0, false, nil
	}

	pos := r.c.GetPosition()
	b, ok := r.c.PeekByte()
	if !ok {
		return 0, false, ErrUnexpectedEnd
	}
	switch b {
	case 0xCA:
		r.c.ReadByte()
		buf := r.c.ReadSolidBlock(4)
		if buf == nil {
			return 0, false, ErrUnexpectedEnd
		}
		return float64(math.Float32frombits(uint32(beUint(buf)))), true, nil
	case 0xCB:
		r.c.ReadByte()
		buf := r.c.ReadSolidBlock(8)
		if buf == nil {
			return 0, false, ErrUnexpectedEnd
		}
		return math.Float64frombits(beUint(buf)), true, nil
	default:
		return 0, false, r.mismatchOrSkip(pos, Double, byteCodeTable[b].Type)
	}
}

// readSizeOf reads meta's embedded-or-prefixed length: the
// fixed low-bits size when FixedSize >= 0, else a big-endian length
// prefix of meta.SizePrefixBytes bytes.
func readSizeOf(c cursor, meta byteCodeMeta) (int, bool) {
	if meta.FixedSize >= 0 {
		return meta.FixedSize, true
	}
	if meta.SizePrefixBytes == 0 {
		return 0, true
	}
	buf := c.ReadSolidBlock(meta.SizePrefixBytes)
	if buf == nil {
		return 0, false
	}
	return int(beUint(buf)), true
}

func (r *reader) ReadString() (string, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return "", false, ErrUnexpectedEnd
	} else if isNil {
		return "", false, nil
	}

	pos := r.c.GetPosition()
	b, ok := r.c.PeekByte()
	if !ok {
		return "", false, ErrUnexpectedEnd
	}
	meta := byteCodeTable[b]
	if meta.Type != String {
		return "", false, r.mismatchOrSkip(pos, String, meta.Type)
	}
	r.c.ReadByte()
	size, ok := readSizeOf(r.c, meta)
	if !ok {
		return "", false, ErrUnexpectedEnd
	}
	if r.opts.MaxStringSize > 0 && size > r.opts.MaxStringSize {
		return "", false, parsingError(pos, "string length exceeds the configured MaxStringSize")
	}
	buf := r.c.ReadSolidBlock(size)
	if buf == nil && size != 0 {
		return "", false, ErrUnexpectedEnd
	}
	return string(buf), true, nil
}

func (r *reader) readExtPayload() (int8, []byte, bool) {
	b, ok := r.c.ReadByte()
	if !ok {
		return 0, nil, false
	}
	meta := byteCodeTable[b]
	size, ok := readSizeOf(r.c, meta)
	if !ok {
		return 0, nil, false
	}
	if meta.FixedSize < 0 && meta.SizePrefixBytes == 0 {
		size = meta.DataSize // fixext N
	} else if meta.SizePrefixBytes > 0 {
		// ext8/16/32: size IS the payload length already.
	}
	typeByte, ok := r.c.ReadByte()
	if !ok {
		return 0, nil, false
	}
	payload := r.c.ReadSolidBlock(size)
	if payload == nil && size != 0 {
		return 0, nil, false
	}
	return int8(typeByte), payload, true
}

func (r *reader) ReadTimestamp() (Ts, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return Ts{}, false, ErrUnexpectedEnd
	} else if isNil {
		return Ts{}, false, nil
	}

	pos := r.c.GetPosition()
	b, ok := r.c.PeekByte()
	if !ok {
		return Ts{}, false, ErrUnexpectedEnd
	}
	if byteCodeTable[b].Type != Ext {
		return Ts{}, false, r.mismatchOrSkip(pos, Timestamp, byteCodeTable[b].Type)
	}

	typeCode, payload, ok := r.readExtPayload()
	if !ok {
		return Ts{}, false, ErrUnexpectedEnd
	}
	if typeCode != extFamilyTimestamp {
		// The ext value is already fully consumed; no further skip needed.
		if r.opts.MismatchedTypesPolicy == policy.MismatchedTypesThrow {
			return Ts{}, false, mismatchError(pos, Timestamp, Ext)
		}
		return Ts{}, false, nil
	}
	return decodeTimestamp(payload)
}

func decodeTimestamp(payload []byte) (Ts, bool, error) {
	switch len(payload) {
	case 4:
		return Ts{Seconds: int64(beUint(payload))}, true, nil
	case 8:
		packed := beUint(payload)
		return Ts{
			Seconds:     int64(packed & 0x3FFFFFFFF),
			Nanoseconds: int32(packed >> 34),
		}, true, nil
	case 12:
		// ts96 layout: seconds (i64 BE) followed by nanoseconds (u32 BE).
		secs := int64(beUint(payload[:8]))
		nanos := int32(beUint(payload[8:]))
		return Ts{Seconds: secs, Nanoseconds: nanos}, true, nil
	default:
		return Ts{}, false, parsingError(0, "invalid timestamp payload size")
	}
}

func (r *reader) ReadExt() (RawExt, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return RawExt{}, false, ErrUnexpectedEnd
	} else if isNil {
		return RawExt{}, false, nil
	}

	pos := r.c.GetPosition()
	b, ok := r.c.PeekByte()
	if !ok {
		return RawExt{}, false, ErrUnexpectedEnd
	}
	if byteCodeTable[b].Type != Ext {
		return RawExt{}, false, r.mismatchOrSkip(pos, Ext, byteCodeTable[b].Type)
	}
	typeCode, payload, ok := r.readExtPayload()
	if !ok {
		return RawExt{}, false, ErrUnexpectedEnd
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	return RawExt{TypeCode: typeCode, Data: data}, true, nil
}

func (r *reader) readContainerSize(expect ValueType) (int, bool, error) {
	if isNil, ok := r.peekIsNil(); !ok {
		return 0, false, ErrUnexpectedEnd
	} else if isNil {
		return 0, false, nil
	}

	pos := r.c.GetPosition()
	b, ok := r.c.PeekByte()
	if !ok {
		return 0, false, ErrUnexpectedEnd
	}
	meta := byteCodeTable[b]
	if meta.Type != expect {
		return 0, false, r.mismatchOrSkip(pos, expect, meta.Type)
	}
	r.c.ReadByte()
	size, ok := readSizeOf(r.c, meta)
	if !ok {
		return 0, false, ErrUnexpectedEnd
	}
	return size, true, nil
}

func (r *reader) ReadArraySize() (int, bool, error) { return r.readContainerSize(Array) }
func (r *reader) ReadMapSize() (int, bool, error)   { return r.readContainerSize(Map) }

func (r *reader) ReadBinarySize() (int, bool, error) { return r.readContainerSize(BinaryArray) }

func (r *reader) ReadBinary() (byte, bool, error) {
	b, ok := r.c.ReadByte()
	if !ok {
		return 0, false, ErrUnexpectedEnd
	}
	return b, true, nil
}

// SkipValue reads one byte, looks up its table entry, and advances
// past its fixed/size-prefixed/ext payload, recursing for Array/Map
// (which recurses twice per entry, for key and value).
func (r *reader) SkipValue() error {
	b, ok := r.c.ReadByte()
	if !ok {
		return ErrUnexpectedEnd
	}
	meta := byteCodeTable[b]

	switch meta.Type {
	case Nil, Boolean, UnsignedInteger, SignedInteger:
		if meta.DataSize == 0 {
			return nil
		}
		if r.c.ReadSolidBlock(meta.DataSize) == nil {
			return ErrUnexpectedEnd
		}
		return nil

	case Float, Double:
		if r.c.ReadSolidBlock(meta.DataSize) == nil {
			return ErrUnexpectedEnd
		}
		return nil

	case String, BinaryArray:
		size, ok := readSizeOf(r.c, meta)
		if !ok {
			return ErrUnexpectedEnd
		}
		if size > 0 && r.c.ReadSolidBlock(size) == nil {
			return ErrUnexpectedEnd
		}
		return nil

	case Ext:
		_, _, ok := r.readExtPayloadFrom(meta)
		if !ok {
			return ErrUnexpectedEnd
		}
		return nil

	case Array:
		size, ok := readSizeOf(r.c, meta)
		if !ok {
			return ErrUnexpectedEnd
		}
		for i := 0; i < size; i++ {
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
		return nil

	case Map:
		size, ok := readSizeOf(r.c, meta)
		if !ok {
			return ErrUnexpectedEnd
		}
		for i := 0; i < size*2; i++ {
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
		return nil

	default:
		return parsingError(r.c.GetPosition(), "unrecognized lead byte")
	}
}

// readExtPayloadFrom mirrors readExtPayload but takes an already-known
// meta (SkipValue has already consumed the lead byte).
func (r *reader) readExtPayloadFrom(meta byteCodeMeta) (int8, []byte, bool) {
	size, ok := readSizeOf(r.c, meta)
	if !ok {
		return 0, nil, false
	}
	if meta.FixedSize < 0 && meta.SizePrefixBytes == 0 {
		size = meta.DataSize
	}
	typeByte, ok := r.c.ReadByte()
	if !ok {
		return 0, nil, false
	}
	payload := r.c.ReadSolidBlock(size)
	if payload == nil && size != 0 {
		return 0, nil, false
	}
	return int8(typeByte), payload, true
}
