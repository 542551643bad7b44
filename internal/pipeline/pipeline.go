// Package pipeline connects capture to delivery: raw YUYV frames come
// in from the camera, get converted and JPEG-encoded, and land in a
// bounded queue the MJPEG server drains. When the viewer falls behind,
// the queue drops its oldest frame so capture never stalls.
package pipeline

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/convert"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/events"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/frame"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/queue"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 80

// Config holds the pipeline parameters.
type Config struct {
	Width     int
	Height    int
	Quality   int // JPEG quality 1..100
	QueueSize int
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	FramesEncoded  uint64 `json:"frames_encoded" doc:"Frames successfully encoded"`
	FramesDropped  uint64 `json:"frames_dropped" doc:"Frames dropped because the queue was full"`
	EncodeFailures uint64 `json:"encode_failures" doc:"Frames lost to JPEG encoder errors"`
	InvalidFrames  uint64 `json:"invalid_frames" doc:"Capture buffers rejected as malformed"`
	QueueLen       int    `json:"queue_len" doc:"Frames currently waiting for the viewer"`
	Quality        int    `json:"quality" doc:"Current JPEG quality"`
}

// Pipeline owns the convert/encode stage and the frame queue between
// the capture loop and the MJPEG server. HandleFrame runs on the
// capture goroutine; Next runs on the server goroutine; the queue and
// its wakeup channel are the only shared state.
type Pipeline struct {
	bus    *events.Bus
	logger logging.Logger

	width   int
	height  int
	quality atomic.Int32

	pool    *frame.Pool
	scratch *image.RGBA

	// encodeObserver, when set, receives the convert+encode time of
	// every frame. Wired before capture starts.
	encodeObserver func(time.Duration)

	mu     sync.Mutex
	q      *queue.Queue
	signal chan struct{}

	framesEncoded  atomic.Uint64
	framesDropped  atomic.Uint64
	encodeFailures atomic.Uint64
	invalidFrames  atomic.Uint64
}

// New creates a Pipeline for frames of the given dimensions.
func New(cfg Config, bus *events.Bus) *Pipeline {
	if cfg.Quality == 0 {
		cfg.Quality = DefaultQuality
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = queue.DefaultSize
	}

	p := &Pipeline{
		bus:     bus,
		logger:  logging.GetLogger("pipeline"),
		width:   cfg.Width,
		height:  cfg.Height,
		pool:    frame.NewPool(),
		scratch: image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		q:       queue.New(cfg.QueueSize),
		signal:  make(chan struct{}, cfg.QueueSize),
	}
	p.SetQuality(cfg.Quality)
	return p
}

// HandleFrame converts one raw YUYV buffer to JPEG and queues it. It is
// the camera's frame handler and must finish with data before
// returning, since the buffer goes back to the driver afterwards.
func (p *Pipeline) HandleFrame(data []byte, sequence uint64, timestamp time.Time) {
	start := time.Now()

	if err := convert.YUYVToRGBAInto(p.scratch, data, p.width, p.height); err != nil {
		p.invalidFrames.Add(1)
		p.logger.Warn("Skipping malformed frame", "sequence", sequence, "error", err)
		return
	}

	buf := p.pool.GetBuffer()
	if err := convert.EncodeJPEG(buf, p.scratch, int(p.quality.Load())); err != nil {
		p.pool.PutBuffer(buf)
		p.encodeFailures.Add(1)
		p.logger.Warn("Dropping frame", "sequence", sequence, "error", err)
		return
	}

	if p.encodeObserver != nil {
		p.encodeObserver(time.Since(start))
	}

	f := p.pool.Wrap(buf, sequence, timestamp)

	p.mu.Lock()
	dropped := p.q.Push(f)
	p.mu.Unlock()

	p.framesEncoded.Add(1)
	if dropped {
		p.framesDropped.Add(1)
		if p.bus != nil {
			p.bus.Publish(events.FrameDroppedEvent{
				Reason:    "queue full",
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
	}

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// Next returns the oldest queued frame, blocking until one arrives or
// the context ends. The caller must Release the frame. Spurious wakeups
// are possible and handled by re-checking the queue.
func (p *Pipeline) Next(ctx context.Context) (*frame.Frame, error) {
	for {
		p.mu.Lock()
		f := p.q.Pop()
		p.mu.Unlock()
		if f != nil {
			return f, nil
		}

		select {
		case <-p.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			// Periodic re-check in case a wakeup token was consumed
			// by an earlier loop iteration.
		}
	}
}

// SetQuality changes the JPEG quality for subsequent frames. Values
// outside 1..100 are clamped. Safe to call while streaming.
func (p *Pipeline) SetQuality(q int) {
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	p.quality.Store(int32(q))
}

// Quality returns the JPEG quality currently in effect.
func (p *Pipeline) Quality() int {
	return int(p.quality.Load())
}

// SetEncodeObserver registers a callback measuring per-frame convert
// and encode time. Call before capture starts; HandleFrame reads the
// field without locking.
func (p *Pipeline) SetEncodeObserver(fn func(time.Duration)) {
	p.encodeObserver = fn
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	queueLen := p.q.Len()
	p.mu.Unlock()

	return Stats{
		FramesEncoded:  p.framesEncoded.Load(),
		FramesDropped:  p.framesDropped.Load(),
		EncodeFailures: p.encodeFailures.Load(),
		InvalidFrames:  p.invalidFrames.Load(),
		QueueLen:       queueLen,
		Quality:        p.Quality(),
	}
}

// Reset releases every queued frame. Called after capture stops so
// buffers return to the pool.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.q.Clear()
	p.mu.Unlock()
}
