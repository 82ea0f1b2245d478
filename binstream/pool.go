package binstream

import "sync"

// ScratchSize is the default capacity of pooled scratch buffers, used by
// the encoded stream reader for its initial encoding-detection read.
// Adapted from oy3o/codec's bufpool.go; repurposed from an opaque
// chunk-copy buffer into that decode scratch space.
const ScratchSize = 4096

var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, ScratchSize)
		return &b
	},
}

// GetScratch returns a zero-length, pooled []byte with at least
// ScratchSize capacity.
func GetScratch() *[]byte {
	b := scratchPool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// PutScratch returns b to the pool for reuse.
func PutScratch(b *[]byte) {
	scratchPool.Put(b)
}
