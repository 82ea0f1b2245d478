// Package utf implements the five-codec UTF transcoding engine
// described in SPEC_FULL.md §4.2, ported from
// original_source/include/bitserializer/conversion_detail/convert_utf.h.
package utf

import "github.com/PavelKisliak/bitserializer-go/policy"

// Kind discriminates the five supported UTF codecs.
type Kind uint8

const (
	UTF8 Kind = iota
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
)

// ErrorCode is the closed set of codec-level result codes. The codec
// never raises (SPEC_FULL.md §7); callers inspect Result instead.
type ErrorCode uint8

const (
	Success ErrorCode = iota
	InvalidSequence
	UnexpectedEnd
)

// Result carries the outcome of a single Decode/Encode/Transcode call.
type Result struct {
	OK               bool
	Code             ErrorCode
	Consumed         int // index of the first input element NOT consumed
	InvalidSequences int
}

// Options configures policy-driven behavior shared across all five codecs.
type Options struct {
	Policy policy.UtfError
	// ErrorMark overrides the default "☐" invalid-sequence marker.
	// nil means "use the default"; a pointer to "" means "skip silently".
	ErrorMark *string
}

// defaultMark is U+2610 BALLOT BOX, the reference implementation's
// hard-coded error mark.
const defaultMark rune = 0x2610

// mark resolves the effective error-mark rune(s) for this Options,
// returning (mark, emit) where emit is false when the mark should be
// suppressed entirely (nil input defaults to emitting the ballot box;
// an explicit empty string means "skip silently").
func (o Options) mark() (rune, bool) {
	if o.ErrorMark == nil {
		return defaultMark, true
	}
	if *o.ErrorMark == "" {
		return 0, false
	}
	return []rune(*o.ErrorMark)[0], true
}

const (
	surrogateHighStart = 0xD800
	surrogateHighEnd   = 0xDBFF
	surrogateLowStart  = 0xDC00
	surrogateLowEnd    = 0xDFFF
	maxRune            = 0x10FFFF
)

func isSurrogate(cp rune) bool { return cp >= surrogateHighStart && cp <= surrogateLowEnd }
func isHighSurrogate(u uint16) bool {
	return u >= surrogateHighStart && u <= surrogateHighEnd
}
func isLowSurrogate(u uint16) bool { return u >= surrogateLowStart && u <= surrogateLowEnd }

// DecodeToRunes decodes bytes of the given Kind into a rune slice.
// UTF-8/UTF-16 paths validate their input (surrogate-range rejection,
// overlong-form rejection, truncated-tail handling); the UTF-32 path
// is a trusted, canonical pass-through with no validation, matching
// the original source's treatment of already-32-bit input.
func DecodeToRunes(kind Kind, in []byte, opts Options) ([]rune, Result) {
	switch kind {
	case UTF8:
		return decodeUTF8(in, opts)
	case UTF16LE:
		return decodeUTF16(in, false, opts)
	case UTF16BE:
		return decodeUTF16(in, true, opts)
	case UTF32LE:
		return decodeUTF32(in, false, opts)
	case UTF32BE:
		return decodeUTF32(in, true, opts)
	default:
		return nil, Result{Code: InvalidSequence}
	}
}

// EncodeRunes encodes runes into bytes of the given Kind. Per the
// original source, encoding a sequence of already-validated code
// points is infallible for UTF-16/32 targets; only the UTF-8 encode
// path can report invalid sequences, when fed a surrogate code point
// or a value outside 0..U+10FFFF.
func EncodeRunes(kind Kind, in []rune, opts Options) ([]byte, Result) {
	switch kind {
	case UTF8:
		return encodeUTF8(in, opts)
	case UTF16LE:
		return encodeUTF16(in, false), Result{OK: true, Code: Success, Consumed: len(in)}
	case UTF16BE:
		return encodeUTF16(in, true), Result{OK: true, Code: Success, Consumed: len(in)}
	case UTF32LE:
		return encodeUTF32(in, false), Result{OK: true, Code: Success, Consumed: len(in)}
	case UTF32BE:
		return encodeUTF32(in, true), Result{OK: true, Code: Success, Consumed: len(in)}
	default:
		return nil, Result{Code: InvalidSequence}
	}
}

// Transcode decodes from one Kind and re-encodes into another,
// propagating the richer of the two intermediate results' error info.
func Transcode(from, to Kind, in []byte, opts Options) ([]byte, Result) {
	runes, dres := DecodeToRunes(from, in, opts)
	if !dres.OK && dres.Code == UnexpectedEnd {
		return nil, dres
	}
	out, eres := EncodeRunes(to, runes, opts)
	eres.InvalidSequences += dres.InvalidSequences
	if !dres.OK {
		eres.OK = false
		eres.Code = dres.Code
	}
	return out, eres
}

func appendMark(out []rune, opts Options) []rune {
	if m, emit := opts.mark(); emit {
		return append(out, m)
	}
	return out
}
