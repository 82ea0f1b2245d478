package utf

import "io"

// boms holds the byte-order-mark literal for each Kind that has one.
var boms = map[Kind][]byte{
	UTF8:    {0xEF, 0xBB, 0xBF},
	UTF32LE: {0xFF, 0xFE, 0x00, 0x00}, // checked before UTF16LE: shares a 2-byte prefix
	UTF32BE: {0x00, 0x00, 0xFE, 0xFF},
	UTF16LE: {0xFF, 0xFE},
	UTF16BE: {0xFE, 0xFF},
}

// bomOrder is the detection precedence: longer/more specific marks first
// so that UTF-32LE's {FF FE 00 00} is not mistaken for UTF-16LE's {FF FE}.
var bomOrder = []Kind{UTF8, UTF32LE, UTF32BE, UTF16LE, UTF16BE}

// StartsWithBOM reports whether b begins with kind's byte-order mark.
func StartsWithBOM(kind Kind, b []byte) bool {
	mark := boms[kind]
	if mark == nil || len(b) < len(mark) {
		return false
	}
	for i, m := range mark {
		if b[i] != m {
			return false
		}
	}
	return true
}

// DetectEncoding inspects the leading bytes of b for a known BOM, trying
// candidates in bomOrder. If none matches, it falls back to a heuristic
// scan of up to the first 32 bytes, defaulting to UTF8 when nothing in
// that window looks conclusively like UTF-16/32. The returned int is the
// number of BOM bytes to skip (0 when none was found).
func DetectEncoding(b []byte) (Kind, int) {
	for _, k := range bomOrder {
		if StartsWithBOM(k, b) {
			return k, len(boms[k])
		}
	}
	return heuristicKind(b), 0
}

// heuristicKind guesses an encoding from up to the first 32 bytes when no
// BOM is present. Per spec.md's DetectEncoding heuristic: a 4-byte group
// with one 16-bit half all-zero suggests UTF-32 of that endianness,
// checked before the narrower 2-byte/UTF-16 stride, since genuine UTF-32
// text also satisfies the looser UTF-16 zero pattern on its low half.
// Plain ASCII/UTF-8 text has neither pattern and falls through to UTF8.
func heuristicKind(b []byte) Kind {
	window := b
	if len(window) > 32 {
		window = window[:32]
	}
	for i := 0; i+4 <= len(window); i += 4 {
		v := uint32(window[i]) | uint32(window[i+1])<<8 | uint32(window[i+2])<<16 | uint32(window[i+3])<<24
		if v == 0 {
			continue
		}
		if v&0xFFFF0000 == 0 {
			return UTF32LE
		}
		if v&0x0000FFFF == 0 {
			return UTF32BE
		}
	}
	for i := 0; i+2 <= len(window); i += 2 {
		w := uint16(window[i]) | uint16(window[i+1])<<8
		if w == 0 {
			continue
		}
		if w&0xFF00 == 0 {
			return UTF16LE
		}
		if w&0x00FF == 0 {
			return UTF16BE
		}
	}
	return UTF8
}

// DetectEncodingStream reads (and so consumes) up to 128 bytes from r to
// run DetectEncoding; the stream position is not restored. Callers that
// need those bytes back must wrap r in a buffered reader themselves; this
// helper only reports the detected Kind and BOM length.
func DetectEncodingStream(r io.Reader) (Kind, int, error) {
	var scratch [128]byte
	n, err := io.ReadFull(r, scratch[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return UTF8, 0, err
	}
	kind, skip := DetectEncoding(scratch[:n])
	return kind, skip, nil
}

// WriteBOM writes kind's byte-order mark to w, returning the number of
// bytes written. Kinds with no defined mark (there are none among the
// five supported Kinds) would write nothing.
func WriteBOM(w io.Writer, kind Kind) (int, error) {
	mark := boms[kind]
	if mark == nil {
		return 0, nil
	}
	return w.Write(mark)
}
