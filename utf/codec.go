package utf

import (
	"encoding/binary"

	"github.com/PavelKisliak/bitserializer-go/endian"
	"github.com/PavelKisliak/bitserializer-go/policy"
)

func shouldStopOnInvalid(opts Options) bool {
	return opts.Policy == policy.UtfErrorThrow || opts.Policy == policy.UtfErrorFail
}

// decodeUTF8 ports the start-byte classification state machine from
// convert_utf.h's Utf8::Decode: 1/2/3/4-byte sequences, 5/6-byte
// overlong forms recognized only to skip, malformed-tail recovery,
// and surrogate-range rejection.
func decodeUTF8(in []byte, opts Options) ([]rune, Result) {
	out := make([]rune, 0, len(in))
	invalid := 0
	n := len(in)
	i := 0
	for i < n {
		b0 := in[i]
		var width int
		switch {
		case b0&0x80 == 0x00:
			width = 1
		case b0&0xE0 == 0xC0:
			width = 2
		case b0&0xF0 == 0xE0:
			width = 3
		case b0&0xF8 == 0xF0:
			width = 4
		case b0&0xFC == 0xF8:
			width = 5 // overlong 5-byte form: recognized only to skip
		case b0&0xFE == 0xFC:
			width = 6 // overlong 6-byte form: recognized only to skip
		default:
			width = 0 // stray continuation byte or 0xFE/0xFF: invalid start
		}

		if width == 1 {
			out = append(out, rune(b0))
			i++
			continue
		}

		if width == 0 {
			invalid++
			if shouldStopOnInvalid(opts) {
				return out, Result{Code: InvalidSequence, Consumed: i, InvalidSequences: invalid}
			}
			out = appendMark(out, opts)
			i++
			continue
		}

		if i+width > n {
			// Partial trailing sequence at true end-of-input.
			return out, Result{Code: UnexpectedEnd, Consumed: i, InvalidSequences: invalid}
		}

		if width >= 5 {
			// Overlong 5/6-byte form: always an invalid sequence, skip whole width.
			invalid++
			if shouldStopOnInvalid(opts) {
				return out, Result{Code: InvalidSequence, Consumed: i, InvalidSequences: invalid}
			}
			out = appendMark(out, opts)
			i += width
			continue
		}

		tailsOK := true
		for k := 1; k < width; k++ {
			if in[i+k]&0xC0 != 0x80 {
				tailsOK = false
				break
			}
		}
		if !tailsOK {
			invalid++
			if shouldStopOnInvalid(opts) {
				return out, Result{Code: InvalidSequence, Consumed: i, InvalidSequences: invalid}
			}
			out = appendMark(out, opts)
			i += width
			continue
		}

		cp := decodeUTF8CodePoint(b0, in[i+1:i+width], width)
		if isSurrogate(cp) {
			invalid++
			if shouldStopOnInvalid(opts) {
				return out, Result{Code: InvalidSequence, Consumed: i, InvalidSequences: invalid}
			}
			out = appendMark(out, opts)
			i += width
			continue
		}

		out = append(out, cp)
		i += width
	}
	return out, Result{OK: true, Code: Success, Consumed: i, InvalidSequences: invalid}
}

func decodeUTF8CodePoint(b0 byte, tails []byte, width int) rune {
	switch width {
	case 2:
		return rune(b0&0x1F)<<6 | rune(tails[0]&0x3F)
	case 3:
		return rune(b0&0x0F)<<12 | rune(tails[0]&0x3F)<<6 | rune(tails[1]&0x3F)
	case 4:
		return rune(b0&0x07)<<18 | rune(tails[0]&0x3F)<<12 | rune(tails[1]&0x3F)<<6 | rune(tails[2]&0x3F)
	default:
		return 0
	}
}

func encodeUTF8(in []rune, opts Options) ([]byte, Result) {
	out := make([]byte, 0, len(in))
	invalid := 0
	for i, cp := range in {
		if isSurrogate(cp) || cp < 0 || cp > maxRune {
			invalid++
			if shouldStopOnInvalid(opts) {
				return out, Result{Code: InvalidSequence, Consumed: i, InvalidSequences: invalid}
			}
			if m, emit := opts.mark(); emit {
				out = appendUTF8Rune(out, m)
			}
			continue
		}
		out = appendUTF8Rune(out, cp)
	}
	return out, Result{OK: true, Code: Success, Consumed: len(in), InvalidSequences: invalid}
}

func appendUTF8Rune(out []byte, cp rune) []byte {
	switch {
	case cp < 0x80:
		return append(out, byte(cp))
	case cp < 0x800:
		return append(out, byte(0xC0|cp>>6), byte(0x80|cp&0x3F))
	case cp < 0x10000:
		return append(out, byte(0xE0|cp>>12), byte(0x80|(cp>>6)&0x3F), byte(0x80|cp&0x3F))
	default:
		return append(out, byte(0xF0|cp>>18), byte(0x80|(cp>>12)&0x3F), byte(0x80|(cp>>6)&0x3F), byte(0x80|cp&0x3F))
	}
}

// decodeUTF16 ports Utf16::Decode: surrogate-pair reconstruction, with
// the exact asymmetric consumption rule on pairing failure — advance
// by one code unit only, not two.
func decodeUTF16(in []byte, be bool, opts Options) ([]rune, Result) {
	out := make([]rune, 0, len(in)/2)
	invalid := 0
	n := len(in)
	i := 0
	readWord := func(pos int) uint16 {
		if be {
			return uint16(in[pos])<<8 | uint16(in[pos+1])
		}
		return uint16(in[pos]) | uint16(in[pos+1])<<8
	}

	for i < n {
		if n-i < 2 {
			return out, Result{Code: UnexpectedEnd, Consumed: i, InvalidSequences: invalid}
		}
		w := readWord(i)

		if isHighSurrogate(w) {
			if n-i-2 < 2 {
				// No more data at all after the high surrogate.
				return out, Result{Code: UnexpectedEnd, Consumed: i, InvalidSequences: invalid}
			}
			w2 := readWord(i + 2)
			if isLowSurrogate(w2) {
				cp := rune(0x10000 + (int32(w-surrogateHighStart)<<10 | int32(w2-surrogateLowStart)))
				out = append(out, cp)
				i += 4
				continue
			}
			// Failed pairing: consume only the high surrogate word.
			invalid++
			if shouldStopOnInvalid(opts) {
				return out, Result{Code: InvalidSequence, Consumed: i, InvalidSequences: invalid}
			}
			out = appendMark(out, opts)
			i += 2
			continue
		}

		if isLowSurrogate(w) {
			invalid++
			if shouldStopOnInvalid(opts) {
				return out, Result{Code: InvalidSequence, Consumed: i, InvalidSequences: invalid}
			}
			out = appendMark(out, opts)
			i += 2
			continue
		}

		out = append(out, rune(w))
		i += 2
	}
	return out, Result{OK: true, Code: Success, Consumed: i, InvalidSequences: invalid}
}

func encodeUTF16(in []rune, be bool) []byte {
	out := make([]byte, 0, len(in)*2)
	put := func(w uint16) {
		if be {
			out = append(out, byte(w>>8), byte(w))
		} else {
			out = append(out, byte(w), byte(w>>8))
		}
	}
	for _, cp := range in {
		if cp >= 0x10000 {
			c := cp - 0x10000
			put(uint16(surrogateHighStart | (c >> 10)))
			put(uint16(surrogateLowStart | (c & 0x3FF)))
		} else {
			put(uint16(cp))
		}
	}
	return out
}

// decodeUTF32 is a trusted, canonical pass-through: 32-bit input is
// assumed already valid code points, with no surrogate or range checks,
// matching the original source's treatment of UTF-32 as the "wide"
// trusted representation.
func decodeUTF32(in []byte, be bool, _ Options) ([]rune, Result) {
	n := len(in)
	full := n - n%4
	words := make([]uint32, full/4)
	for i := range words {
		words[i] = binary.NativeEndian.Uint32(in[i*4:])
	}
	from := endian.Little
	if be {
		from = endian.Big
	}
	out := make([]rune, 0, len(words))
	it := endian.NewSwapIterator(words, from)
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, rune(v))
	}
	if full < n {
		return out, Result{Code: UnexpectedEnd, Consumed: full}
	}
	return out, Result{OK: true, Code: Success, Consumed: n}
}

func encodeUTF32(in []rune, be bool) []byte {
	out := make([]byte, 0, len(in)*4)
	buf := make([]byte, 4)
	for _, cp := range in {
		v := uint32(cp)
		if be {
			v = endian.NativeToBig32(v)
		} else {
			v = endian.NativeToLittle32(v)
		}
		binary.NativeEndian.PutUint32(buf, v)
		out = append(out, buf...)
	}
	return out
}
