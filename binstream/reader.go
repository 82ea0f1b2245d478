// Package binstream implements the binary stream reader/writer and the
// encoded (UTF-aware) stream reader/writer described in SPEC_FULL.md
// §4.3-§4.5, ported from oy3o/codec's buffered Reader/Writer style and
// the original source's CBinaryStreamReader sliding-window cache.
package binstream

import (
	"errors"
	"io"

	"github.com/PavelKisliak/bitserializer-go/endian"
)

// ErrSeekFailed is a sentinel for callers that report a failed seek as
// an error; Reader.SetPosition itself reports failure by returning false.
var ErrSeekFailed = errors.New("binstream: seek failed")

// DefaultChunkSize mirrors the 256-byte cache used by the reference
// implementation; chunk sizes must be a multiple of 8.
const DefaultChunkSize = 256

// Reader is a forward-reading, seekable byte cursor over an upstream
// io.Reader, with a fixed-size sliding cache window. It never returns
// an error: callers inspect IsFailed/IsEnd, matching the original's
// "read methods never throw" failure model.
type Reader struct {
	upstream   io.Reader
	seeker     io.Seeker // non-nil when upstream also implements io.Seeker
	buf        []byte
	start, end int   // buf[start:end] is the live cached window
	streamPos  int64 // logical position of buf[end] in the upstream stream
	failed     bool
	atEOF      bool // upstream has signalled io.EOF at least once
}

// NewReader builds a Reader with DefaultChunkSize.
func NewReader(upstream io.Reader) *Reader {
	return NewReaderSize(upstream, DefaultChunkSize)
}

// NewReaderSize builds a Reader with an explicit cache size, rounded up
// to the nearest multiple of 8.
func NewReaderSize(upstream io.Reader, chunkSize int) *Reader {
	if chunkSize < 8 {
		chunkSize = DefaultChunkSize
	}
	chunkSize = endian.Roundup(chunkSize, 8)
	seeker, ok := upstream.(io.Seeker)
	if !ok {
		fs := &forwardSeeker{r: upstream}
		upstream, seeker = fs, fs
	}
	return &Reader{
		upstream: upstream,
		seeker:   seeker,
		buf:      make([]byte, chunkSize),
	}
}

// IsFailed reports whether the upstream reader has signalled a
// non-EOF failure.
func (r *Reader) IsFailed() bool { return r.failed }

// IsEnd reports whether the cache is empty and upstream is at EOF.
func (r *Reader) IsEnd() bool {
	if r.start < r.end {
		return false
	}
	r.refill()
	return r.start >= r.end && r.atEOF
}

// GetPosition returns the logical byte offset of the read cursor.
func (r *Reader) GetPosition() int64 {
	return r.streamPos - int64(r.end-r.start)
}

// SetPosition moves the cursor to pos. If pos lies within the data
// currently held in the cache (buf[:end], including bytes already
// consumed since the last refill) this is O(1); otherwise the cache is
// invalidated and the upstream stream is sought. Returns false if the
// upstream seek fails; for an upstream without io.Seeker (wrapped in a
// forward-only seeker) that includes any pos behind the cached data.
func (r *Reader) SetPosition(pos int64) bool {
	if pos < 0 {
		return false
	}
	windowStart := r.streamPos - int64(r.end)
	windowEnd := r.streamPos
	if pos >= windowStart && pos <= windowEnd {
		r.start = int(pos - windowStart)
		return true
	}
	if r.seeker == nil {
		return false
	}
	newPos, err := r.seeker.Seek(pos, io.SeekStart)
	if err != nil {
		return false
	}
	r.start, r.end = 0, 0
	r.streamPos = newPos
	r.atEOF = false
	return true
}

// refill slides any unconsumed tail to the buffer head and reads more
// data from upstream, growing the cached window.
func (r *Reader) refill() {
	if r.failed || r.atEOF {
		return
	}
	if r.start > 0 {
		n := copy(r.buf, r.buf[r.start:r.end])
		r.start = 0
		r.end = n
	}
	n, err := r.upstream.Read(r.buf[r.end:])
	if n > 0 {
		r.end += n
		r.streamPos += int64(n)
	}
	if err != nil {
		if err == io.EOF {
			r.atEOF = true
		} else {
			r.failed = true
		}
	}
}

// PeekByte returns the byte at the cursor without advancing it,
// refilling the cache first if it is exhausted.
func (r *Reader) PeekByte() (byte, bool) {
	if r.start >= r.end {
		r.refill()
	}
	if r.start >= r.end {
		return 0, false
	}
	return r.buf[r.start], true
}

// GotoNextByte advances the cursor by one byte, refilling lazily.
func (r *Reader) GotoNextByte() {
	if r.start >= r.end {
		r.refill()
	}
	if r.start < r.end {
		r.start++
	}
}

// ReadByte reads and advances past one byte.
func (r *Reader) ReadByte() (byte, bool) {
	b, ok := r.PeekByte()
	if !ok {
		return 0, false
	}
	r.start++
	return b, true
}

// ReadSolidBlock returns a view into the cache of exactly n bytes,
// growing and refilling the cache as necessary. A payload larger than
// the configured chunk size still succeeds (unbounded by default,
// matching the reference implementation); callers that want a cap
// enforce it themselves before calling in (e.g. msgpack's
// MaxStringSize). Returns nil if fewer than n bytes are available
// before upstream EOF or failure.
func (r *Reader) ReadSolidBlock(n int) []byte {
	if n <= 0 {
		return nil
	}
	if n > len(r.buf) {
		r.grow(n)
	}
	for r.end-r.start < n && !r.atEOF && !r.failed {
		r.refill()
	}
	if r.end-r.start < n {
		return nil
	}
	block := r.buf[r.start : r.start+n]
	r.start += n
	return block
}

// grow enlarges the cache buffer to at least n bytes, preserving the
// live cached window at the front.
func (r *Reader) grow(n int) {
	buf := make([]byte, n)
	kept := copy(buf, r.buf[r.start:r.end])
	r.buf = buf
	r.start = 0
	r.end = kept
}

// ReadUpTo returns a view of up to n bytes available without
// triggering more than one refill, for iterative consumption of a
// known-length payload larger than the cache.
func (r *Reader) ReadUpTo(n int) []byte {
	if n <= 0 {
		return nil
	}
	if r.start >= r.end {
		r.refill()
	}
	avail := r.end - r.start
	if avail == 0 {
		return nil
	}
	if n > avail {
		n = avail
	}
	block := r.buf[r.start : r.start+n]
	r.start += n
	return block
}
