package packet

import (
	"bytes"
	"sync"
)

// bufferPool recycles bytes.Buffer instances used while unpacking packet
// bodies, avoiding an allocation per received packet.
type bufferPool struct {
	pool *sync.Pool
}

func newBufferPool() *bufferPool {
	return &bufferPool{
		pool: &sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
}

func (p *bufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *bufferPool) Put(b *bytes.Buffer) {
	b.Reset()
	p.pool.Put(b)
}

var buffers = newBufferPool()

// GetBuffer returns a zeroed buffer from the shared pool.
func GetBuffer() *bytes.Buffer { return buffers.Get() }

// PutBuffer returns b to the shared pool for reuse.
func PutBuffer(b *bytes.Buffer) { buffers.Put(b) }
