// Package pool provides memory management optimizations.
// Part buffers are reused across a transfer to avoid allocating one
// block-sized slice per part upload.
package pool

import (
	"sync"
)

// PartBuffers pools byte slices of one fixed block size. A multipart
// transfer creates one PartBuffers for the negotiated block size and
// borrows a buffer per in-flight part, so steady-state allocations are
// bounded by the concurrency limit rather than the part count.
type PartBuffers struct {
	size int64
	pool *sync.Pool
}

// NewPartBuffers creates a pool of buffers of the given block size.
func NewPartBuffers(blockSize int64) *PartBuffers {
	return &PartBuffers{
		size: blockSize,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, blockSize)
				return &buf
			},
		},
	}
}

// BlockSize returns the size of buffers the pool hands out.
func (p *PartBuffers) BlockSize() int64 {
	return p.size
}

// Get returns a buffer of length n, where n must not exceed the pool's
// block size. The caller is responsible for calling Put when done.
func (p *PartBuffers) Get(n int64) []byte {
	bufPtr := p.pool.Get().(*[]byte)
	return (*bufPtr)[:n]
}

// Put returns a buffer to the pool. The buffer must not be used after
// calling Put.
func (p *PartBuffers) Put(buf []byte) {
	if int64(cap(buf)) < p.size {
		return
	}
	buf = buf[:cap(buf)]
	p.pool.Put(&buf)
}
