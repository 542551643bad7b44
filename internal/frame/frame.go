// Package frame defines the encoded frame type that flows from the
// capture pipeline to the MJPEG emitter, and the buffer pool backing it.
//
// Frames own pool-backed buffers. Whoever holds a Frame last must call
// Release exactly once; the queue releases frames it overwrites, and the
// consumer releases frames after writing them to the viewer.
package frame

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is a single encoded JPEG image with capture metadata.
type Frame struct {
	// Sequence is the monotonic capture sequence number, assigned by
	// the producer. Gaps indicate dropped frames.
	Sequence uint64

	// Timestamp is when the frame was dequeued from the driver.
	Timestamp time.Time

	buf      *bytes.Buffer
	pool     *Pool
	released atomic.Bool
}

// Bytes returns the JPEG payload. The slice is only valid until Release
// is called; after Release it returns nil.
func (f *Frame) Bytes() []byte {
	if f.released.Load() {
		return nil
	}
	return f.buf.Bytes()
}

// Len returns the payload size in bytes, or 0 after Release.
func (f *Frame) Len() int {
	if f.released.Load() {
		return 0
	}
	return f.buf.Len()
}

// Release returns the backing buffer to the pool. Safe to call more
// than once; only the first call has an effect.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	if !f.released.CompareAndSwap(false, true) {
		return
	}
	f.pool.put(f.buf)
	f.buf = nil
}

// Pool hands out reusable encode buffers and tracks how many are
// checked out. Outstanding reaching zero after a run confirms that
// every frame was released, including frames dropped by the queue.
type Pool struct {
	buffers     sync.Pool
	outstanding atomic.Int64
}

// NewPool creates an empty buffer pool.
func NewPool() *Pool {
	return &Pool{
		buffers: sync.Pool{
			New: func() any { return &bytes.Buffer{} },
		},
	}
}

// GetBuffer checks out an empty buffer for JPEG encoding. Pair it with
// either Wrap (success) or PutBuffer (encode failed).
func (p *Pool) GetBuffer() *bytes.Buffer {
	p.outstanding.Add(1)
	buf := p.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer whose encode failed, without wrapping it
// in a Frame.
func (p *Pool) PutBuffer(buf *bytes.Buffer) {
	p.put(buf)
}

// Wrap turns a filled encode buffer into a Frame that owns it.
func (p *Pool) Wrap(buf *bytes.Buffer, sequence uint64, timestamp time.Time) *Frame {
	return &Frame{
		Sequence:  sequence,
		Timestamp: timestamp,
		buf:       buf,
		pool:      p,
	}
}

// Outstanding reports how many buffers are currently checked out.
func (p *Pool) Outstanding() int64 {
	return p.outstanding.Load()
}

func (p *Pool) put(buf *bytes.Buffer) {
	p.outstanding.Add(-1)
	p.buffers.Put(buf)
}
