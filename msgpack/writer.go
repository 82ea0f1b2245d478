package msgpack

import (
	"io"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/PavelKisliak/bitserializer-go/binstream"
)

// Writer is the MessagePack encoding surface, implemented by both the
// in-memory string writer and the stream writer.
type Writer interface {
	WriteNil() error
	WriteBool(bool) error
	// WriteUint64/WriteInt64 are the two entry points the generic
	// WriteInt[T] helper dispatches to; each picks the narrowest wire
	// encoding that fits the given value.
	WriteUint64(uint64) error
	WriteInt64(int64) error
	WriteFloat32(float32) error
	WriteFloat64(float64) error
	WriteString(string) error
	WriteTimestamp(Ts) error
	WriteExt(typeCode int8, data []byte) error

	BeginArray(size int) error
	BeginMap(size int) error
	BeginBinary(size int) error
	WriteBinary(byte) error

	// Bytes returns the accumulated buffer for a string writer; nil for
	// a stream writer, which writes directly to its sink.
	Bytes() []byte
	Flush() error
}

type scope struct {
	size, index int
}

type writer struct {
	w         *binstream.Writer
	bytesSink *binstream.BytesWriter
	err       error
	stack     []scope
}

var _ Writer = (*writer)(nil)

// NewStringWriter builds a Writer that accumulates into an in-memory
// buffer retrievable via Bytes().
func NewStringWriter() Writer {
	bw := binstream.NewBytesWriter(256)
	return &writer{w: binstream.NewWriter(bw), bytesSink: bw}
}

// NewStreamWriter builds a Writer over an io.Writer sink.
func NewStreamWriter(w io.Writer) Writer {
	return &writer{w: binstream.NewWriter(w)}
}

func (w *writer) Bytes() []byte {
	if w.bytesSink == nil {
		return nil
	}
	_ = w.w.Flush()
	return w.bytesSink.Bytes()
}

func (w *writer) Flush() error {
	err := w.w.Flush()
	if w.err == nil {
		w.err = err
	}
	return w.err
}

// enterValue counts one element against the innermost open
// array/map/binary scope, enforcing the declared size bound. Once a
// scope's index reaches its size it is popped, along with any now-
// complete enclosing scopes, so a sibling write after a nested
// container finishes sees the correct (outer) scope on top.
func (w *writer) enterValue() error {
	if len(w.stack) == 0 {
		return nil
	}
	top := &w.stack[len(w.stack)-1]
	if top.index >= top.size {
		err := outOfRangeError(w.w.Count(), "attempted to write more values than the declared container size")
		w.err = err
		return err
	}
	top.index++
	w.popCompletedScopes()
	return nil
}

// popCompletedScopes removes every scope at the top of the stack whose
// index has reached its declared size, including a just-opened
// zero-size scope, which is "complete" before any element is written.
func (w *writer) popCompletedScopes() {
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		if top.index < top.size {
			return
		}
		w.stack = w.stack[:len(w.stack)-1]
	}
}

func (w *writer) checkErr() error {
	if w.err != nil {
		return w.err
	}
	return nil
}

func (w *writer) WriteNil() error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	return w.w.WriteByte(0xC0)
}

func (w *writer) WriteBool(v bool) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	if v {
		return w.w.WriteByte(0xC3)
	}
	return w.w.WriteByte(0xC2)
}

func (w *writer) WriteUint64(v uint64) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	switch {
	case v <= 0x7F:
		return w.w.WriteByte(byte(v))
	case v <= math.MaxUint8:
		w.w.WriteByte(0xCC)
		return w.w.WriteByte(byte(v))
	case v <= math.MaxUint16:
		w.w.WriteByte(0xCD)
		w.w.WriteUint16(uint16(v))
		return w.w.Err()
	case v <= math.MaxUint32:
		w.w.WriteByte(0xCE)
		w.w.WriteUint32(uint32(v))
		return w.w.Err()
	default:
		w.w.WriteByte(0xCF)
		w.w.WriteUint64(v)
		return w.w.Err()
	}
}

func (w *writer) WriteInt64(v int64) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	switch {
	case v >= -32 && v <= 127:
		return w.w.WriteByte(byte(int8(v)))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		w.w.WriteByte(0xD0)
		return w.w.WriteByte(byte(int8(v)))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		w.w.WriteByte(0xD1)
		w.w.WriteUint16(uint16(int16(v)))
		return w.w.Err()
	case v >= math.MinInt32 && v <= math.MaxInt32:
		w.w.WriteByte(0xD2)
		w.w.WriteUint32(uint32(int32(v)))
		return w.w.Err()
	default:
		w.w.WriteByte(0xD3)
		w.w.WriteUint64(uint64(v))
		return w.w.Err()
	}
}

// WriteInt picks WriteUint64 or WriteInt64 based on T's signedness,
// implementing the generic entry point described in SPEC_FULL.md §4.7.
func WriteInt[T constraints.Integer](w Writer, v T) error {
	if isUnsignedType[T]() {
		return w.WriteUint64(uint64(v))
	}
	return w.WriteInt64(int64(v))
}

func (w *writer) WriteFloat32(v float32) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	w.w.WriteByte(0xCA)
	w.w.WriteUint32(math.Float32bits(v))
	return w.w.Err()
}

func (w *writer) WriteFloat64(v float64) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	w.w.WriteByte(0xCB)
	w.w.WriteUint64(math.Float64bits(v))
	return w.w.Err()
}

func (w *writer) WriteString(s string) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	n := len(s)
	switch {
	case n <= 31:
		w.w.WriteByte(0xA0 | byte(n))
	case n <= math.MaxUint8:
		w.w.WriteByte(0xD9)
		w.w.WriteByte(byte(n))
	case n <= math.MaxUint16:
		w.w.WriteByte(0xDA)
		w.w.WriteUint16(uint16(n))
	case uint(n) <= math.MaxUint32:
		w.w.WriteByte(0xDB)
		w.w.WriteUint32(uint32(n))
	default:
		err := outOfRangeError(w.w.Count(), "string length exceeds u32::MAX")
		w.err = err
		return err
	}
	w.w.WriteString(s)
	return w.w.Err()
}

func (w *writer) WriteTimestamp(ts Ts) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	switch {
	case ts.Seconds >= 0 && ts.Seconds <= math.MaxUint32 && ts.Nanoseconds == 0:
		w.w.WriteByte(0xD6) // fixext4
		w.w.WriteByte(byte(int8(extFamilyTimestamp)))
		w.w.WriteUint32(uint32(ts.Seconds))
	case ts.Seconds >= 0 && ts.Seconds <= 0x3FFFFFFFF && ts.Nanoseconds >= 0 && ts.Nanoseconds <= 999999999:
		w.w.WriteByte(0xD7) // fixext8
		w.w.WriteByte(byte(int8(extFamilyTimestamp)))
		packed := uint64(ts.Nanoseconds)<<34 | uint64(ts.Seconds)
		w.w.WriteUint64(packed)
	default:
		w.w.WriteByte(0xC7) // ext8, 12-byte payload
		w.w.WriteByte(12)
		w.w.WriteByte(byte(int8(extFamilyTimestamp)))
		// ts96 layout: seconds (i64 BE) followed by nanoseconds (u32 BE).
		w.w.WriteUint64(uint64(ts.Seconds))
		w.w.WriteUint32(uint32(ts.Nanoseconds))
	}
	return w.w.Err()
}

func (w *writer) WriteExt(typeCode int8, data []byte) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	n := len(data)
	switch n {
	case 1:
		w.w.WriteByte(0xD4)
	case 2:
		w.w.WriteByte(0xD5)
	case 4:
		w.w.WriteByte(0xD6)
	case 8:
		w.w.WriteByte(0xD7)
	case 16:
		w.w.WriteByte(0xD8)
	default:
		switch {
		case n <= math.MaxUint8:
			w.w.WriteByte(0xC7)
			w.w.WriteByte(byte(n))
		case n <= math.MaxUint16:
			w.w.WriteByte(0xC8)
			w.w.WriteUint16(uint16(n))
		case uint(n) <= math.MaxUint32:
			w.w.WriteByte(0xC9)
			w.w.WriteUint32(uint32(n))
		default:
			err := outOfRangeError(w.w.Count(), "ext payload length exceeds u32::MAX")
			w.err = err
			return err
		}
	}
	w.w.WriteByte(byte(typeCode))
	w.w.Write(data)
	return w.w.Err()
}

func (w *writer) beginContainer(size int, fixLead func(n int) byte, b16, b32 byte) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	if size < 0 || uint(size) > math.MaxUint32 {
		err := outOfRangeError(w.w.Count(), "container size exceeds u32::MAX")
		w.err = err
		return err
	}
	switch {
	case fixLead != nil && size <= 15:
		w.w.WriteByte(fixLead(size))
	case size <= math.MaxUint16:
		w.w.WriteByte(b16)
		w.w.WriteUint16(uint16(size))
	default:
		w.w.WriteByte(b32)
		w.w.WriteUint32(uint32(size))
	}
	return w.w.Err()
}

func (w *writer) BeginArray(size int) error {
	if err := w.beginContainer(size, func(n int) byte { return 0x90 | byte(n) }, 0xDC, 0xDD); err != nil {
		return err
	}
	w.stack = append(w.stack, scope{size: size})
	w.popCompletedScopes()
	return nil
}

func (w *writer) BeginMap(size int) error {
	if err := w.beginContainer(size, func(n int) byte { return 0x80 | byte(n) }, 0xDE, 0xDF); err != nil {
		return err
	}
	w.stack = append(w.stack, scope{size: size * 2})
	w.popCompletedScopes()
	return nil
}

// BeginBinary has no fixed sub-form (unlike array/map): the header is
// always bin8/bin16/bin32, so it doesn't reuse beginContainer.
func (w *writer) BeginBinary(size int) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	if size < 0 || uint(size) > math.MaxUint32 {
		err := outOfRangeError(w.w.Count(), "container size exceeds u32::MAX")
		w.err = err
		return err
	}
	switch {
	case size <= math.MaxUint8:
		w.w.WriteByte(0xC4)
		w.w.WriteByte(byte(size))
	case size <= math.MaxUint16:
		w.w.WriteByte(0xC5)
		w.w.WriteUint16(uint16(size))
	default:
		w.w.WriteByte(0xC6)
		w.w.WriteUint32(uint32(size))
	}
	if err := w.w.Err(); err != nil {
		return err
	}
	w.stack = append(w.stack, scope{size: size})
	w.popCompletedScopes()
	return nil
}

func (w *writer) WriteBinary(b byte) error {
	if err := w.checkErr(); err != nil {
		return err
	}
	if err := w.enterValue(); err != nil {
		return err
	}
	return w.w.WriteByte(b)
}
