package csv

import (
	"unicode/utf8"

	"github.com/PavelKisliak/bitserializer-go/binstream"
)

// byteSource abstracts the row scanner's view of the input: a
// zero-copy string for the in-memory reader, or a refillable decode
// buffer fed by an EncodedReader for the stream reader. Both forms
// only ever need to look one byte ahead, matching the field/row
// grammar in SPEC_FULL.md §4.8.
type byteSource interface {
	peekByte() (byte, bool, error)
	readByte() (byte, bool, error)
}

// stringSource scans an in-memory string directly, with no decode
// buffer in front of it; the row scanner still copies each field's bytes
// into a fresh buffer, and ReadValue returns an owned Go string rather
// than a borrowed view
// (see DESIGN.md: Go's GC ownership model removes the lifetime hazard
// a C++ string_view would have, so there is no value in plumbing
// unsafe string aliasing through the reader's public surface).
type stringSource struct {
	data string
	pos  int
}

func (s *stringSource) peekByte() (byte, bool, error) {
	if s.pos >= len(s.data) {
		return 0, false, nil
	}
	return s.data[s.pos], true, nil
}

func (s *stringSource) readByte() (byte, bool, error) {
	b, ok, err := s.peekByte()
	if ok {
		s.pos++
	}
	return b, ok, err
}

// streamSource decodes an upstream byte stream (of detected or
// specified encoding) into canonical UTF-8 bytes, one working buffer
// at a time, squeezing consumed bytes once they cross the halfway
// mark (SPEC_FULL.md §4.8's "buffer management" paragraph).
type streamSource struct {
	enc   *binstream.EncodedReader
	buf   []byte
	pos   int
	atEOF bool
}

func newStreamSource(enc *binstream.EncodedReader) *streamSource {
	return &streamSource{enc: enc}
}

func (s *streamSource) squeeze() {
	if s.pos > 0 && s.pos*2 >= len(s.buf) {
		s.buf = append(s.buf[:0], s.buf[s.pos:]...)
		s.pos = 0
	}
}

func (s *streamSource) fill() error {
	s.squeeze()
	var runes []rune
	res, err := s.enc.ReadChunk(&runes)
	if err != nil {
		return err
	}
	var tmp [utf8.UTFMax]byte
	for _, r := range runes {
		n := utf8.EncodeRune(tmp[:], r)
		s.buf = append(s.buf, tmp[:n]...)
	}
	if res == binstream.ReadEndFile {
		s.atEOF = true
	}
	return nil
}

func (s *streamSource) ensureByte() (bool, error) {
	for s.pos >= len(s.buf) {
		if s.atEOF {
			return false, nil
		}
		before := len(s.buf)
		if err := s.fill(); err != nil {
			return false, err
		}
		if len(s.buf) == before && s.atEOF {
			return false, nil
		}
	}
	return true, nil
}

func (s *streamSource) peekByte() (byte, bool, error) {
	ok, err := s.ensureByte()
	if err != nil || !ok {
		return 0, false, err
	}
	return s.buf[s.pos], true, nil
}

func (s *streamSource) readByte() (byte, bool, error) {
	b, ok, err := s.peekByte()
	if ok {
		s.pos++
	}
	return b, ok, err
}

var _ byteSource = (*stringSource)(nil)
var _ byteSource = (*streamSource)(nil)
