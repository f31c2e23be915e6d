package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartBuffers(t *testing.T) {
	p := NewPartBuffers(1024)
	assert.Equal(t, int64(1024), p.BlockSize())

	full := p.Get(1024)
	assert.Len(t, full, 1024)
	p.Put(full)

	short := p.Get(100)
	assert.Len(t, short, 100)
	assert.GreaterOrEqual(t, cap(short), 1024)
	p.Put(short)
}

func TestPartBuffersReuse(t *testing.T) {
	p := NewPartBuffers(64)

	buf := p.Get(64)
	buf[0] = 0xFF
	p.Put(buf)

	// A recycled buffer keeps its full capacity regardless of the length
	// it was borrowed at last time.
	again := p.Get(64)
	assert.Len(t, again, 64)
}

func TestPutDropsUndersizedBuffers(t *testing.T) {
	p := NewPartBuffers(1024)

	// Foreign small buffers must not poison the pool.
	p.Put(make([]byte, 10))

	buf := p.Get(1024)
	assert.Len(t, buf, 1024)
}
