package csv

import (
	"bytes"
	"io"

	"github.com/PavelKisliak/bitserializer-go/binstream"
	"github.com/PavelKisliak/bitserializer-go/utf"
)

// StreamOptions configures the stream writer's target text encoding
// and whether to emit a leading byte-order mark, independent of the
// CSV-level separator/header configuration.
type StreamOptions struct {
	Kind     utf.Kind
	WriteBOM bool
}

// Writer emits RFC-4180-style CSV, one row at a time, into either an
// in-memory buffer or a byte stream. When withHeader is true, the
// field keys passed to WriteValue during the first row accumulate
// into a separate header line that is flushed ahead of that row.
type Writer struct {
	withHeader bool
	separator  byte

	buf *bytes.Buffer            // string-writer sink
	enc *binstream.EncodedWriter // stream-writer sink

	headerLine []byte
	rowLine    []byte
	fieldIndex int

	firstRow     bool
	prevRowWidth int
}

// NewStringWriter builds a Writer that accumulates into an in-memory
// buffer retrievable via Bytes().
func NewStringWriter(withHeader bool, separator byte) (*Writer, error) {
	if err := validateSeparator(separator); err != nil {
		return nil, err
	}
	return &Writer{
		withHeader: withHeader,
		separator:  separator,
		buf:        &bytes.Buffer{},
		firstRow:   true,
	}, nil
}

// NewStreamWriter builds a Writer over an io.Writer sink, encoding
// output per streamOpts.
func NewStreamWriter(w io.Writer, withHeader bool, separator byte, streamOpts StreamOptions) (*Writer, error) {
	if err := validateSeparator(separator); err != nil {
		return nil, err
	}
	enc, err := binstream.NewEncodedWriter(w, streamOpts.Kind, streamOpts.WriteBOM)
	if err != nil {
		return nil, err
	}
	return &Writer{
		withHeader: withHeader,
		separator:  separator,
		enc:        enc,
		firstRow:   true,
	}, nil
}

// SetEstimatedSize reserves n bytes of output capacity; a no-op for
// the stream writer, which has no buffer of its own to grow.
func (w *Writer) SetEstimatedSize(n int) {
	if w.buf != nil {
		w.buf.Grow(n)
	}
}

// Bytes returns the accumulated output for a string writer; nil for a
// stream writer.
func (w *Writer) Bytes() []byte {
	if w.buf == nil {
		return nil
	}
	return w.buf.Bytes()
}

// WriteValue writes one (key, value) pair. key only matters on the
// first row when the writer was built with withHeader: it is
// accumulated into the pending header line ahead of value's own field.
func (w *Writer) WriteValue(key, value string) error {
	if w.withHeader && w.firstRow {
		if w.fieldIndex > 0 {
			w.headerLine = append(w.headerLine, w.separator)
		}
		w.headerLine = appendEscaped(w.headerLine, key, w.separator)
	}
	return w.WriteNextValue(value)
}

// WriteNextValue appends value as the next field of the row currently
// being built.
func (w *Writer) WriteNextValue(value string) error {
	if w.fieldIndex > 0 {
		w.rowLine = append(w.rowLine, w.separator)
	}
	w.rowLine = appendEscaped(w.rowLine, value, w.separator)
	w.fieldIndex++
	return nil
}

// NextLine flushes the row built so far (and, on the very first row
// when withHeader is set, the header line ahead of it), then resets
// for the next row. Every row after the first must have the same
// field count as the row before it.
func (w *Writer) NextLine() error {
	if !w.firstRow && w.fieldIndex != w.prevRowWidth {
		return outOfRangeError(0, "row has a different number of fields than the previous row")
	}

	if w.firstRow && w.withHeader {
		if err := w.flush(w.headerLine); err != nil {
			return err
		}
		if err := w.flush(crlf); err != nil {
			return err
		}
	}
	if err := w.flush(w.rowLine); err != nil {
		return err
	}
	if err := w.flush(crlf); err != nil {
		return err
	}

	w.prevRowWidth = w.fieldIndex
	w.fieldIndex = 0
	w.headerLine = w.headerLine[:0]
	w.rowLine = w.rowLine[:0]
	w.firstRow = false
	return nil
}

var crlf = []byte{'\r', '\n'}

func (w *Writer) flush(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if w.buf != nil {
		_, err := w.buf.Write(b)
		return err
	}
	_, err := w.enc.WriteString(string(b))
	return err
}
