package binstream_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PavelKisliak/bitserializer-go/binstream"
)

func TestReader_SequentialReadByte(t *testing.T) {
	r := binstream.NewReaderSize(bytes.NewReader([]byte("abcde")), 8)
	for _, want := range []byte("abcde") {
		b, ok := r.ReadByte()
		require.True(t, ok)
		assert.Equal(t, want, b)
	}
	_, ok := r.ReadByte()
	assert.False(t, ok)
	assert.True(t, r.IsEnd())
}

func TestReader_PeekDoesNotAdvance(t *testing.T) {
	r := binstream.NewReaderSize(bytes.NewReader([]byte("xy")), 8)
	b, ok := r.PeekByte()
	require.True(t, ok)
	assert.Equal(t, byte('x'), b)
	b, ok = r.PeekByte()
	require.True(t, ok)
	assert.Equal(t, byte('x'), b)
}

func TestReader_ReadSolidBlockAcrossRefill(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 10) // 40 bytes
	r := binstream.NewReaderSize(bytes.NewReader(data), 16)
	block := r.ReadSolidBlock(20)
	require.NotNil(t, block)
	assert.Equal(t, data[:20], block)
	assert.Equal(t, int64(20), r.GetPosition())
}

func TestReader_SetPositionWithinWindow(t *testing.T) {
	r := binstream.NewReaderSize(bytes.NewReader([]byte("0123456789")), 16)
	_ = r.ReadSolidBlock(5)
	ok := r.SetPosition(2)
	require.True(t, ok)
	b, _ := r.ReadByte()
	assert.Equal(t, byte('2'), b)
}

func TestReader_SetPositionOutsideWindowSeeksUpstream(t *testing.T) {
	r := binstream.NewReaderSize(bytes.NewReader([]byte("0123456789ABCDEFGHIJ")), 8)
	_ = r.ReadSolidBlock(4)
	ok := r.SetPosition(16)
	require.True(t, ok)
	b, _ := r.ReadByte()
	assert.Equal(t, byte('G'), b)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReader_IsFailedOnUpstreamError(t *testing.T) {
	r := binstream.NewReaderSize(errReader{}, 8)
	_, ok := r.ReadByte()
	assert.False(t, ok)
	assert.True(t, r.IsFailed())
}
