package msgpack_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PavelKisliak/bitserializer-go/msgpack"
	"github.com/PavelKisliak/bitserializer-go/policy"
)

func TestReadInt_PromotesAcrossEncodingsWithinRange(t *testing.T) {
	// {0xD2, 0xFF, 0xFF, 0xFF, 0xCF} is int32(-49) on the wire; reading
	// it as an int8 fits (-128..127), so it narrows cleanly.
	data := []byte{0xD2, 0xFF, 0xFF, 0xFF, 0xCF}
	r := msgpack.NewStringReader(data, policy.Default())

	v, ok, err := r.ReadInt8()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int8(-49), v)
}

func TestReadInt_OverflowUnderSkipLeavesValueUnset(t *testing.T) {
	// {0xD2, 0x80, 0x00, 0x00, 0x00} is int32(math.MinInt32); it does
	// not fit into int16, so under Skip the read reports ok=false with
	// no error.
	data := []byte{0xD2, 0x80, 0x00, 0x00, 0x00}
	opts := policy.New(policy.WithOverflowNumberPolicy(policy.OverflowSkip))
	r := msgpack.NewStringReader(data, opts)

	v, ok, err := r.ReadInt16()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int16(0), v)
}

func TestReadInt_OverflowUnderThrowReportsOverflowError(t *testing.T) {
	data := []byte{0xD2, 0x80, 0x00, 0x00, 0x00}
	opts := policy.New(policy.WithOverflowNumberPolicy(policy.OverflowThrow))
	r := msgpack.NewStringReader(data, opts)

	_, ok, err := r.ReadInt16()
	assert.False(t, ok)
	require.Error(t, err)

	var perr *policy.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.OverflowError, perr.Kind)
}

func TestWriteTimestamp_Ts96RoundTrip(t *testing.T) {
	ts := msgpack.Ts{Seconds: 0x0102030405060708, Nanoseconds: 0x090A0B0C}

	w := msgpack.NewStringWriter()
	require.NoError(t, w.WriteTimestamp(ts))
	require.NoError(t, w.Flush())

	expected := []byte{
		0xC7, 0x0C, 0xFF,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C,
	}
	assert.Equal(t, expected, w.Bytes())

	r := msgpack.NewStringReader(w.Bytes(), policy.Default())
	got, ok, err := r.ReadTimestamp()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ts, got)
}

func TestWriteTimestamp_Ts32AndTs64Forms(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.WriteTimestamp(msgpack.Ts{Seconds: 1000}))
	require.NoError(t, w.Flush())
	assert.Equal(t, byte(0xD6), w.Bytes()[0])

	w2 := msgpack.NewStringWriter()
	require.NoError(t, w2.WriteTimestamp(msgpack.Ts{Seconds: 1000, Nanoseconds: 500}))
	require.NoError(t, w2.Flush())
	assert.Equal(t, byte(0xD7), w2.Bytes()[0])

	r := msgpack.NewStringReader(w.Bytes(), policy.Default())
	got, ok, err := r.ReadTimestamp()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, msgpack.Ts{Seconds: 1000}, got)

	r2 := msgpack.NewStringReader(w2.Bytes(), policy.Default())
	got2, ok2, err2 := r2.ReadTimestamp()
	require.NoError(t, err2)
	require.True(t, ok2)
	assert.Equal(t, msgpack.Ts{Seconds: 1000, Nanoseconds: 500}, got2)
}

func TestSkipValue_OverNestedMapLandsOnNextSentinel(t *testing.T) {
	// {0x01: true, 0x02: [nil, nil]} followed by a bare `true` sentinel.
	data := []byte{0x82, 0x01, 0xC3, 0x02, 0x92, 0xC0, 0xC0, 0xC3}
	r := msgpack.NewStringReader(data, policy.Default())

	require.NoError(t, r.SkipValue())

	v, ok, err := r.ReadBool()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, v)
	assert.True(t, r.IsEnd())
}

func TestStringRoundTrip(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.WriteString("hello, world"))
	require.NoError(t, w.Flush())

	r := msgpack.NewStringReader(w.Bytes(), policy.Default())
	s, ok, err := r.ReadString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello, world", s)
}

func TestContainerRoundTrip(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.BeginArray(3))
	require.NoError(t, w.WriteInt64(1))
	require.NoError(t, w.WriteInt64(2))
	require.NoError(t, w.WriteInt64(3))
	require.NoError(t, w.Flush())

	r := msgpack.NewStringReader(w.Bytes(), policy.Default())
	n, ok, err := r.ReadArraySize()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, n)

	for i := int64(1); i <= 3; i++ {
		v, ok, err := r.ReadInt64()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestNestedContainer_SiblingWriteAfterNestedScopeCompletes(t *testing.T) {
	// {"k1": [1, 2], "k2": 3} — the nested array scope must be popped
	// once its 2 elements are written, so "k2" lands back in the map's
	// scope instead of spuriously overflowing the exhausted array.
	w := msgpack.NewStringWriter()
	require.NoError(t, w.BeginMap(2))
	require.NoError(t, w.WriteString("k1"))
	require.NoError(t, w.BeginArray(2))
	require.NoError(t, w.WriteInt64(1))
	require.NoError(t, w.WriteInt64(2))
	require.NoError(t, w.WriteString("k2"))
	require.NoError(t, w.WriteInt64(3))
	require.NoError(t, w.Flush())

	r := msgpack.NewStringReader(w.Bytes(), policy.Default())
	n, ok, err := r.ReadMapSize()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, n)

	k1, _, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "k1", k1)

	an, ok, err := r.ReadArraySize()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, an)
	for i := int64(1); i <= 2; i++ {
		v, ok, err := r.ReadInt64()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	k2, _, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "k2", k2)
	v, ok, err := r.ReadInt64()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), v)
}

func TestBeginArray_EmptyArrayDoesNotBlockSiblingWrite(t *testing.T) {
	// A zero-size array scope must be popped immediately, before any
	// element is ever written into it.
	w := msgpack.NewStringWriter()
	require.NoError(t, w.BeginMap(2))
	require.NoError(t, w.WriteString("k1"))
	require.NoError(t, w.BeginArray(0))
	require.NoError(t, w.WriteString("k2"))
	require.NoError(t, w.WriteInt64(1))
	require.NoError(t, w.Flush())
}

func TestBeginArray_RejectsOverflowingElementCount(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.BeginArray(1))
	require.NoError(t, w.WriteInt64(1))
	err := w.WriteInt64(2)
	require.Error(t, err)
}

func TestWriteBinary_PicksNarrowestHeaderForm(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.BeginBinary(3))
	require.NoError(t, w.WriteBinary(0xAA))
	require.NoError(t, w.WriteBinary(0xBB))
	require.NoError(t, w.WriteBinary(0xCC))
	require.NoError(t, w.Flush())

	got := w.Bytes()
	require.Len(t, got, 5)
	assert.Equal(t, byte(0xC4), got[0]) // bin8, not bin16
	assert.Equal(t, byte(3), got[1])

	r := msgpack.NewStringReader(got, policy.Default())
	n, ok, err := r.ReadBinarySize()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, n)
	for _, want := range []byte{0xAA, 0xBB, 0xCC} {
		b, ok, err := r.ReadBinary()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, b)
	}
}

func TestReadValueType_ResolvesReservedExtFamilyToTimestamp(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.WriteTimestamp(msgpack.Ts{Seconds: 42}))
	require.NoError(t, w.Flush())

	r := msgpack.NewStringReader(w.Bytes(), policy.Default())
	vt, err := r.ReadValueType()
	require.NoError(t, err)
	assert.Equal(t, msgpack.Timestamp, vt)

	// Peeking must not have consumed anything.
	ts, ok, err := r.ReadTimestamp()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), ts.Seconds)
}

func TestReadValueType_OrdinaryExtIsNotReclassified(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.WriteExt(5, []byte{0x01, 0x02}))
	require.NoError(t, w.Flush())

	r := msgpack.NewStringReader(w.Bytes(), policy.Default())
	vt, err := r.ReadValueType()
	require.NoError(t, err)
	assert.Equal(t, msgpack.Ext, vt)

	ext, ok, err := r.ReadExt()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int8(5), ext.TypeCode)
	assert.Equal(t, []byte{0x01, 0x02}, ext.Data)
}

func TestStreamRoundTrip_StringLargerThanDefaultChunkSize(t *testing.T) {
	// 500 bytes comfortably exceeds binstream.DefaultChunkSize (256),
	// exercising the stream reader's ability to grow its cache past one
	// chunk for a single solid block.
	want := strings.Repeat("x", 500)

	var buf bytes.Buffer
	w := msgpack.NewStreamWriter(&buf)
	require.NoError(t, w.WriteString(want))
	require.NoError(t, w.Flush())

	r := msgpack.NewStreamReader(&buf, policy.Default())
	got, ok, err := r.ReadString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestStreamRoundTrip_ArrayOfIntsLargerThanDefaultChunkSize(t *testing.T) {
	var buf bytes.Buffer
	w := msgpack.NewStreamWriter(&buf)
	const n = 200
	require.NoError(t, w.BeginArray(n))
	for i := 0; i < n; i++ {
		require.NoError(t, w.WriteInt64(int64(i)))
	}
	require.NoError(t, w.Flush())

	r := msgpack.NewStreamReader(&buf, policy.Default())
	size, ok, err := r.ReadArraySize()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, n, size)
	for i := 0; i < n; i++ {
		v, ok, err := r.ReadInt64()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(i), v)
	}
}

func TestReadString_ExceedsMaxStringSizeIsParsingError(t *testing.T) {
	var buf bytes.Buffer
	w := msgpack.NewStreamWriter(&buf)
	require.NoError(t, w.WriteString(strings.Repeat("y", 100)))
	require.NoError(t, w.Flush())

	opts := policy.New(policy.WithMaxStringSize(10))
	r := msgpack.NewStreamReader(&buf, opts)

	_, ok, err := r.ReadString()
	assert.False(t, ok)
	require.Error(t, err)

	var perr *policy.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ParsingError, perr.Kind)
}

func TestReadNil_IsExemptFromMismatchedTypesPolicy(t *testing.T) {
	w := msgpack.NewStringWriter()
	require.NoError(t, w.WriteNil())
	require.NoError(t, w.Flush())

	r := msgpack.NewStringReader(w.Bytes(), policy.New(policy.WithMismatchedTypesPolicy(policy.MismatchedTypesThrow)))
	v, ok, err := r.ReadInt32()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(0), v)
}
