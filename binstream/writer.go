package binstream

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Writer is a buffered binary writer wrapping an io.Writer, tracking
// the first error encountered; subsequent writes become no-ops.
// Adapted from oy3o/codec's Writer, trimmed of the nested-writer-depth
// and adapter machinery this package's callers don't need, and
// defaulted to big-endian (MessagePack's wire order) instead of the
// teacher's package-level Order variable.
type Writer struct {
	w     *bufio.Writer
	count int64
	err   error
	order binary.ByteOrder
}

// NewWriter wraps w in a buffered Writer using big-endian order.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), order: binary.BigEndian}
}

// WithByteOrder overrides the byte order used by the multi-byte
// Write* helpers, returning the receiver for chaining.
func (w *Writer) WithByteOrder(order binary.ByteOrder) *Writer {
	w.order = order
	return w
}

func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Count returns the total number of bytes written.
func (w *Writer) Count() int64 { return w.count }

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	err := w.w.Flush()
	w.setError(err)
	return err
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) WriteByte(b byte) error {
	if w.err != nil {
		return w.err
	}
	err := w.w.WriteByte(b)
	if err == nil {
		w.count++
	} else {
		w.setError(err)
	}
	return w.err
}

func (w *Writer) WriteString(s string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.WriteString(s)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	w.order.PutUint16(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	w.order.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	w.order.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}
