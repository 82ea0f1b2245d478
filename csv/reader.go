package csv

import (
	"io"

	"github.com/PavelKisliak/bitserializer-go/binstream"
)

// Reader parses RFC-4180-style CSV, one row at a time, over either an
// in-memory string or a byte stream. Field access mirrors
// SPEC_FULL.md §4.8: read by header key (common case: current column
// already matches, O(1)), by declaration order, or by explicit column
// index.
type Reader struct {
	withHeader bool
	separator  byte
	src        byteSource

	headers     []string
	headerIndex map[string]int

	row        []string
	rowWidth   int // required column count once known
	valueIndex int
	line       int
	atEnd      bool
}

// NewStringReader builds a Reader over an in-memory string.
func NewStringReader(data string, withHeader bool, separator byte) (*Reader, error) {
	if err := validateSeparator(separator); err != nil {
		return nil, err
	}
	if withHeader && len(data) == 0 {
		return nil, ErrEmptyHeaderInput
	}
	r := &Reader{withHeader: withHeader, separator: separator, src: &stringSource{data: data}}
	if err := r.initHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewStreamReader builds a Reader decoding from an io.Reader, through
// the encoded stream reader (BOM/encoding auto-detected).
func NewStreamReader(reader io.Reader, withHeader bool, separator byte) (*Reader, error) {
	if err := validateSeparator(separator); err != nil {
		return nil, err
	}
	enc, err := binstream.NewEncodedReader(reader)
	if err != nil {
		return nil, err
	}
	src := newStreamSource(enc)
	if withHeader {
		if _, ok, err := src.peekByte(); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrEmptyHeaderInput
		}
	}
	r := &Reader{withHeader: withHeader, separator: separator, src: src}
	if err := r.initHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) initHeader() error {
	if !r.withHeader {
		return nil
	}
	ok, err := r.ParseNextRow()
	if err != nil {
		return err
	}
	if ok {
		r.headers = r.row
		r.headerIndex = headerIndexFor(r.separator, r.headers)
		r.rowWidth = len(r.headers)
		r.row = nil
		r.valueIndex = 0
	}
	return nil
}

// GetCurrentLine returns the 1-based line number of the most recently
// parsed row.
func (r *Reader) GetCurrentLine() int { return r.line }

// GetCurrentIndex returns the column index the next ReadNextValue call
// will return.
func (r *Reader) GetCurrentIndex() int { return r.valueIndex }

// IsEnd reports whether the input has been fully consumed.
func (r *Reader) IsEnd() bool { return r.atEnd }

// GetHeadersCount returns the number of header columns, or 0 when the
// reader was constructed without a header row.
func (r *Reader) GetHeadersCount() int { return len(r.headers) }

// SeekToHeader moves the read cursor to column idx and returns that
// column's header name, or ("", false) if idx is out of range or
// there is no header row.
func (r *Reader) SeekToHeader(idx int) (string, bool) {
	if idx < 0 || idx >= len(r.headers) {
		return "", false
	}
	r.valueIndex = idx
	return r.headers[idx], true
}

// ReadValue looks up key starting from the current column (a hit
// there is O(1), the common case of reading columns in header order);
// on a miss it falls back to the cached key->index table for this
// reader's header set.
func (r *Reader) ReadValue(key string) (string, bool) {
	if r.valueIndex < len(r.headers) && r.headers[r.valueIndex] == key {
		v := r.row[r.valueIndex]
		r.valueIndex++
		return v, true
	}
	idx, ok := r.headerIndex[key]
	if !ok || idx >= len(r.row) {
		return "", false
	}
	r.valueIndex = idx + 1
	return r.row[idx], true
}

// ReadNextValue reads the value at the current column in declaration
// order and advances the cursor, failing once past the last column.
func (r *Reader) ReadNextValue() (string, error) {
	if r.valueIndex >= len(r.row) {
		return "", outOfRangeError(r.line, "read past the last column of the current row")
	}
	v := r.row[r.valueIndex]
	r.valueIndex++
	return v, nil
}

// ParseNextRow parses the next row into the reader's internal field
// slice, returning false (without error) once the input is exhausted.
func (r *Reader) ParseNextRow() (bool, error) {
	if r.atEnd {
		return false, nil
	}
	if _, ok, err := r.src.peekByte(); err != nil {
		return false, err
	} else if !ok {
		r.atEnd = true
		return false, nil
	}

	var fields []string
	for {
		field, err := r.readField()
		if err != nil {
			return false, err
		}
		fields = append(fields, field)

		b, ok, err := r.src.peekByte()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		if b == r.separator {
			r.src.readByte()
			continue
		}
		if err := r.consumeRowTerminator(); err != nil {
			return false, err
		}
		break
	}

	r.line++
	if r.rowWidth == 0 {
		r.rowWidth = len(fields)
	} else if len(fields) != r.rowWidth {
		return false, parseError(r.line, "row has a different number of fields than the header/first row")
	}

	r.row = fields
	r.valueIndex = 0

	if _, ok, err := r.src.peekByte(); err != nil {
		return false, err
	} else if !ok {
		r.atEnd = true
	}
	return true, nil
}

func (r *Reader) readField() (string, error) {
	b, ok, err := r.src.peekByte()
	if err != nil {
		return "", err
	}
	if ok && b == '"' {
		return r.readQuotedField()
	}
	return r.readUnquotedField()
}

func (r *Reader) readUnquotedField() (string, error) {
	var buf []byte
	for {
		b, ok, err := r.src.peekByte()
		if err != nil {
			return "", err
		}
		if !ok || b == r.separator || b == '\n' || b == '\r' {
			break
		}
		if b == '"' {
			return "", parseError(r.line+1, `unexpected '"' inside an unquoted field`)
		}
		r.src.readByte()
		buf = append(buf, b)
	}
	return string(buf), nil
}

func (r *Reader) readQuotedField() (string, error) {
	r.src.readByte() // opening quote
	var buf []byte
	for {
		b, ok, err := r.src.readByte()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", parseError(r.line+1, "unterminated quoted field")
		}
		if b != '"' {
			buf = append(buf, b)
			continue
		}
		nb, ok, err := r.src.peekByte()
		if err != nil {
			return "", err
		}
		if ok && nb == '"' {
			r.src.readByte()
			buf = append(buf, '"')
			continue
		}
		if ok && nb != r.separator && nb != '\n' && nb != '\r' {
			return "", parseError(r.line+1, `closing '"' must be followed by a separator or end of line`)
		}
		return string(buf), nil
	}
}

// consumeRowTerminator consumes \n, \r, or \r\n at the cursor. A lone
// trailing CR at true EOF, or a CR immediately followed by EOF in
// stream mode, is tolerated (the deferred-CRLF case falls out for
// free: peeking past the CR triggers the stream source's refill,
// giving us the lookahead to see whether LF follows).
func (r *Reader) consumeRowTerminator() error {
	b, ok, err := r.src.readByte()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if b == '\n' {
		return nil
	}
	if b != '\r' {
		return parseError(r.line+1, "expected a row separator")
	}
	nb, ok, err := r.src.peekByte()
	if err != nil {
		return err
	}
	if ok && nb == '\n' {
		r.src.readByte()
	}
	return nil
}
