package protocol

import "sync"

// BytePool is a sync.Pool of fixed-capacity byte slices. The session
// writer hands each written frame back with Put; FrameReader and
// EncodeEnvelope allocate their own buffers and do not draw from it.
type BytePool struct {
	pool sync.Pool
	size int
}

// NewBytePool creates a pool that hands out slices of at least size bytes.
func NewBytePool(size int) *BytePool {
	return &BytePool{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
		size: size,
	}
}

// Get returns a slice with length n, allocating a new one when n exceeds
// the pooled slice's capacity.
func (p *BytePool) Get(n int) []byte {
	bp := p.pool.Get().(*[]byte)
	b := *bp
	if cap(b) < n {
		b = make([]byte, n)
	}
	return b[:n]
}

// Put returns b to the pool.
func (p *BytePool) Put(b []byte) {
	if cap(b) < p.size {
		return
	}
	b = b[:cap(b)]
	p.pool.Put(&b)
}
