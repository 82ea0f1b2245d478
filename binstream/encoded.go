package binstream

import (
	"errors"
	"io"

	"github.com/PavelKisliak/bitserializer-go/policy"
	"github.com/PavelKisliak/bitserializer-go/utf"
)

// ErrDecodeFailed is returned by EncodedReader.ReadChunk when the
// underlying codec reports an invalid sequence under a throwing policy.
var ErrDecodeFailed = errors.New("binstream: invalid encoded sequence")

// ErrEncodeFailed is returned by EncodedWriter when a rune cannot be
// represented in the target encoding.
var ErrEncodeFailed = errors.New("binstream: encode failed")

// ReadResult is the outcome of a single EncodedReader.ReadChunk call.
type ReadResult uint8

const (
	ReadSuccess ReadResult = iota
	ReadEndFile
	ReadDecodeError
)

// encodedBufCap is the working buffer size for EncodedReader, a
// multiple of 4 well above the 32-byte minimum SPEC_FULL.md requires
// for alignment with the widest (UTF-32) codec unit. Shares ScratchSize
// so the initial BOM-detection read can borrow a pooled buffer instead
// of allocating one per reader.
const encodedBufCap = ScratchSize

// EncodedReader decodes an upstream byte stream of detected or
// specified encoding into runes, chunk by chunk, squeezing any
// undecoded tail bytes (a partial multi-byte sequence) to the front of
// its working buffer between refills.
type EncodedReader struct {
	upstream io.Reader
	kind     utf.Kind
	opts     utf.Options
	buf      []byte
	atEOF    bool
}

// NewEncodedReader reads an initial chunk from upstream, detects its
// encoding, and advances past a leading BOM if one is present.
func NewEncodedReader(upstream io.Reader) (*EncodedReader, error) {
	return NewEncodedReaderOptions(upstream, utf.Options{})
}

// NewEncodedReaderOptions is NewEncodedReader with explicit UTF policy
// options applied to every decoded chunk.
func NewEncodedReaderOptions(upstream io.Reader, opts utf.Options) (*EncodedReader, error) {
	scratch := GetScratch()
	defer PutScratch(scratch)
	tmp := (*scratch)[:encodedBufCap]
	n, err := upstream.Read(tmp)
	if err != nil && err != io.EOF {
		return nil, err
	}
	atEOF := err == io.EOF
	kind, bomLen := utf.DetectEncoding(tmp[:n])

	buf := make([]byte, 0, encodedBufCap)
	buf = append(buf, tmp[bomLen:n]...)
	return &EncodedReader{upstream: upstream, kind: kind, opts: opts, buf: buf, atEOF: atEOF}, nil
}

// Kind returns the encoding detected (or configured) for this reader.
func (r *EncodedReader) Kind() utf.Kind { return r.kind }

// ReadChunk decodes the next available chunk of bytes into runes,
// appending them to *dst, and reports whether more data remains.
func (r *EncodedReader) ReadChunk(dst *[]rune) (ReadResult, error) {
	if len(r.buf) == 0 && r.atEOF {
		return ReadEndFile, nil
	}

	if !r.atEOF && len(r.buf) < cap(r.buf) {
		tmp := make([]byte, cap(r.buf)-len(r.buf))
		n, err := r.upstream.Read(tmp)
		if n > 0 {
			r.buf = append(r.buf, tmp[:n]...)
		}
		if err == io.EOF {
			r.atEOF = true
		} else if err != nil {
			return ReadDecodeError, err
		}
	}

	runes, res := utf.DecodeToRunes(r.kind, r.buf, r.opts)
	*dst = append(*dst, runes...)

	switch {
	case res.OK:
		r.buf = r.buf[:0]
		return ReadSuccess, nil

	case res.Code == utf.UnexpectedEnd:
		if r.atEOF {
			// A genuine truncated tail with no more upstream data.
			r.buf = r.buf[:0]
			if r.opts.Policy == policy.UtfErrorThrow || r.opts.Policy == policy.UtfErrorFail {
				return ReadDecodeError, ErrDecodeFailed
			}
			return ReadSuccess, nil
		}
		// Squeeze: keep the undecoded tail for the next refill.
		r.buf = append(r.buf[:0:0], r.buf[res.Consumed:]...)
		return ReadSuccess, nil

	default: // InvalidSequence under a throwing policy
		r.buf = append(r.buf[:0:0], r.buf[res.Consumed:]...)
		return ReadDecodeError, ErrDecodeFailed
	}
}

// EncodedWriter encodes rune/string input into bytes of a fixed target
// encoding, optionally writing a BOM up front. The identity case
// (UTF-8 in, UTF-8 out) still round-trips through EncodeRunes, since
// there is no separate raw-byte fast path in this design.
type EncodedWriter struct {
	w    io.Writer
	kind utf.Kind
	opts utf.Options
}

// NewEncodedWriter builds an EncodedWriter targeting kind, writing its
// BOM first when writeBOM is true.
func NewEncodedWriter(w io.Writer, kind utf.Kind, writeBOM bool) (*EncodedWriter, error) {
	if writeBOM {
		if _, err := utf.WriteBOM(w, kind); err != nil {
			return nil, err
		}
	}
	return &EncodedWriter{w: w, kind: kind}, nil
}

// WriteRunes encodes r into the target encoding and writes the result.
func (w *EncodedWriter) WriteRunes(r []rune) (int, error) {
	out, res := utf.EncodeRunes(w.kind, r, w.opts)
	if !res.OK {
		return 0, ErrEncodeFailed
	}
	return w.w.Write(out)
}

// WriteString is a convenience wrapper over WriteRunes.
func (w *EncodedWriter) WriteString(s string) (int, error) {
	return w.WriteRunes([]rune(s))
}
