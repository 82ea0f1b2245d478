package utf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PavelKisliak/bitserializer-go/policy"
	"github.com/PavelKisliak/bitserializer-go/utf"
)

func TestDecodeUTF8_InvalidLeadBytesAreMarked(t *testing.T) {
	in := []byte{0xFE, 't', 'e', 's', 't', 0xFF}
	out, res := utf.DecodeToRunes(utf.UTF8, in, utf.Options{Policy: policy.UtfErrorSkip})
	require.True(t, res.OK)
	assert.Equal(t, utf.Success, res.Code)
	assert.Equal(t, 2, res.InvalidSequences)
	assert.Equal(t, "☐test☐", string(out))
}

func TestDecodeUTF8_ThrowStopsAtFirstInvalidSequence(t *testing.T) {
	in := []byte{'o', 'k', 0xFE, 't'}
	out, res := utf.DecodeToRunes(utf.UTF8, in, utf.Options{Policy: policy.UtfErrorThrow})
	require.False(t, res.OK)
	assert.Equal(t, utf.InvalidSequence, res.Code)
	assert.Equal(t, 2, res.Consumed)
	assert.Equal(t, "ok", string(out))
}

func TestDecodeUTF8_TruncatedTailIsUnexpectedEnd(t *testing.T) {
	in := []byte{0xE2, 0x82} // 3-byte sequence, only 2 bytes present
	_, res := utf.DecodeToRunes(utf.UTF8, in, utf.Options{})
	require.False(t, res.OK)
	assert.Equal(t, utf.UnexpectedEnd, res.Code)
	assert.Equal(t, 0, res.Consumed)
}

func TestDecodeUTF8_OverlongFormIsSkippedAsInvalid(t *testing.T) {
	in := []byte{0xF8, 0x80, 0x80, 0x80, 0x80, 'x'} // 5-byte overlong form
	out, res := utf.DecodeToRunes(utf.UTF8, in, utf.Options{Policy: policy.UtfErrorSkip})
	require.True(t, res.OK)
	assert.Equal(t, 1, res.InvalidSequences)
	assert.Equal(t, "☐x", string(out))
}

func TestTranscodeUTF16LEToUTF8_UnpairedHighSurrogateConsumesOneUnit(t *testing.T) {
	in := []byte{0x3D, 0xD8, 't', 0, 'e', 0, 's', 0, 't', 0}
	out, res := utf.Transcode(utf.UTF16LE, utf.UTF8, in, utf.Options{Policy: policy.UtfErrorSkip})
	require.True(t, res.OK)
	assert.Equal(t, 1, res.InvalidSequences)
	assert.Equal(t, "☐test", string(out))
}

func TestDecodeUTF16_UnpairedHighSurrogateAtEndOfInputIsUnexpectedEnd(t *testing.T) {
	in := []byte{0x3D, 0xD8}
	_, res := utf.DecodeToRunes(utf.UTF16LE, in, utf.Options{})
	require.False(t, res.OK)
	assert.Equal(t, utf.UnexpectedEnd, res.Code)
	assert.Equal(t, 0, res.Consumed)
}

func TestEncodeUTF16_SurrogatePairRoundTrip(t *testing.T) {
	in := []rune{0x1F600} // outside the BMP, requires a surrogate pair
	out, res := utf.EncodeRunes(utf.UTF16LE, in, utf.Options{})
	require.True(t, res.OK)
	require.Len(t, out, 4)

	back, dres := utf.DecodeToRunes(utf.UTF16LE, out, utf.Options{})
	require.True(t, dres.OK)
	assert.Equal(t, in, back)
}

func TestDecodeUTF32_IsTrustedPassThrough(t *testing.T) {
	in := []byte{0x41, 0, 0, 0, 0x00, 0xD8, 0, 0} // second code point is a lone surrogate value
	out, res := utf.DecodeToRunes(utf.UTF32LE, in, utf.Options{})
	require.True(t, res.OK)
	assert.Equal(t, []rune{'A', 0xD800}, out)
}

func TestDetectEncoding_HeuristicUTF32WithoutBOM(t *testing.T) {
	k, n := utf.DetectEncoding([]byte{0x41, 0, 0, 0, 0x42, 0, 0, 0})
	assert.Equal(t, utf.UTF32LE, k)
	assert.Equal(t, 0, n)

	k, n = utf.DetectEncoding([]byte{0, 0, 0, 0x41, 0, 0, 0, 0x42})
	assert.Equal(t, utf.UTF32BE, k)
	assert.Equal(t, 0, n)
}

func TestDetectEncoding_BOMPrecedence(t *testing.T) {
	k, n := utf.DetectEncoding([]byte{0xFF, 0xFE, 0x00, 0x00, 'x'})
	assert.Equal(t, utf.UTF32LE, k)
	assert.Equal(t, 4, n)

	k, n = utf.DetectEncoding([]byte{0xFF, 0xFE, 't', 0})
	assert.Equal(t, utf.UTF16LE, k)
	assert.Equal(t, 2, n)

	k, n = utf.DetectEncoding([]byte("hello"))
	assert.Equal(t, utf.UTF8, k)
	assert.Equal(t, 0, n)
}
