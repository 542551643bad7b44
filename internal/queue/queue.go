// Package queue implements the fixed-capacity frame ring sitting
// between the capture pipeline and the MJPEG emitter.
//
// The ring keeps one slot empty to tell full from empty: a queue
// created with size N holds at most N-1 frames. When a push finds the
// ring full, the oldest frame is released and overwritten so a slow or
// absent viewer can never block capture, only age out frames.
//
// Queue is not safe for concurrent use; callers guard it with the
// pipeline mutex.
package queue

import (
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/frame"
)

// DefaultSize is the ring size used when the configuration does not
// override it. Nine usable slots at typical webcam rates is roughly a
// third of a second of backlog.
const DefaultSize = 10

// Queue is a ring buffer of encoded frames with drop-oldest overflow.
type Queue struct {
	frames []*frame.Frame
	head   int // next slot to read
	tail   int // next slot to write
}

// New creates a queue with the given ring size. Sizes below 2 are
// raised to 2, the smallest ring that can hold anything.
func New(size int) *Queue {
	if size < 2 {
		size = 2
	}
	return &Queue{
		frames: make([]*frame.Frame, size),
	}
}

// Push stores a frame, taking ownership of it. If the ring is full the
// oldest frame is released to make room. Returns true when a frame was
// dropped.
func (q *Queue) Push(f *frame.Frame) bool {
	dropped := false

	next := (q.tail + 1) % len(q.frames)
	if next == q.head {
		// Full: age out the oldest frame
		q.frames[q.head].Release()
		q.frames[q.head] = nil
		q.head = (q.head + 1) % len(q.frames)
		dropped = true
	}

	q.frames[q.tail] = f
	q.tail = next
	return dropped
}

// Pop removes and returns the oldest frame, transferring ownership to
// the caller. Returns nil when the queue is empty.
func (q *Queue) Pop() *frame.Frame {
	if q.head == q.tail {
		return nil
	}
	f := q.frames[q.head]
	q.frames[q.head] = nil
	q.head = (q.head + 1) % len(q.frames)
	return f
}

// Len returns how many frames are waiting.
func (q *Queue) Len() int {
	return (q.tail - q.head + len(q.frames)) % len(q.frames)
}

// Cap returns the number of usable slots, one less than the ring size.
func (q *Queue) Cap() int {
	return len(q.frames) - 1
}

// Clear releases every queued frame and empties the ring.
func (q *Queue) Clear() {
	for q.head != q.tail {
		q.frames[q.head].Release()
		q.frames[q.head] = nil
		q.head = (q.head + 1) % len(q.frames)
	}
	q.head = 0
	q.tail = 0
}
