package binstream

import "io"

// BytesWriter is an io.Writer that appends to a growable byte slice,
// used by msgpack's string-mode writer. Adapted from oy3o/codec's
// BytesWriter, trimmed to the append-only shape this package needs.
type BytesWriter struct {
	buf []byte
}

// NewBytesWriter creates a BytesWriter with the given initial capacity.
func NewBytesWriter(capacity int) *BytesWriter {
	return &BytesWriter{buf: make([]byte, 0, capacity)}
}

func (w *BytesWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *BytesWriter) WriteByte(c byte) error {
	w.buf = append(w.buf, c)
	return nil
}

func (w *BytesWriter) WriteString(s string) (int, error) {
	w.buf = append(w.buf, s...)
	return len(s), nil
}

// Grow reserves capacity for at least n more bytes, so callers with a
// known payload size (SetEstimatedSize-style hints) can avoid repeated
// reallocation.
func (w *BytesWriter) Grow(n int) { w.buf = append(w.buf, make([]byte, 0, n)...)[:len(w.buf)] }

// Bytes returns a slice view of the written data.
func (w *BytesWriter) Bytes() []byte { return w.buf }

// Reset discards all written data, retaining the underlying capacity.
func (w *BytesWriter) Reset() { w.buf = w.buf[:0] }

// Len returns the number of bytes written so far.
func (w *BytesWriter) Len() int { return len(w.buf) }

var _ io.Writer = (*BytesWriter)(nil)
