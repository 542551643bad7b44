// Package camera owns the V4L2 capture device: format negotiation,
// memory-mapped buffer setup, the dequeue/re-enqueue loop, and the
// status LED that mirrors the streaming state.
package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/events"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/led"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/pkg/v4l2"
)

// Defaults for the capture configuration.
const (
	DefaultDevicePath  = "/dev/video0"
	DefaultWidth       = 640
	DefaultHeight      = 480
	DefaultFPS         = 30
	DefaultBufferCount = 4
)

// maxConsecutiveFaults is how many capture loop errors in a row are
// tolerated before the loop gives up.
const maxConsecutiveFaults = 10

// waitTimeout bounds each wait for a filled buffer so the loop can
// notice a stop request even when the device goes quiet.
const waitTimeout = 2 * time.Second

// State represents the camera lifecycle state.
type State string

// Camera lifecycle states.
const (
	StateClosed    State = "closed"    // No device held
	StateStreaming State = "streaming" // Capture loop running
	StateStopping  State = "stopping"  // Teardown in progress
)

// Config holds the capture parameters.
type Config struct {
	DevicePath  string
	Width       uint32
	Height      uint32
	FPS         uint32
	BufferCount uint32
}

func (c Config) withDefaults() Config {
	if c.DevicePath == "" {
		c.DevicePath = DefaultDevicePath
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.BufferCount == 0 {
		c.BufferCount = DefaultBufferCount
	}
	return c
}

// FrameHandler receives each captured frame. The data slice aliases a
// driver-owned buffer and is only valid until the handler returns; the
// handler must copy or convert out of it synchronously.
type FrameHandler func(data []byte, sequence uint64, timestamp time.Time)

// captureDevice is the slice of pkg/v4l2 the camera drives. Tests
// substitute a fake.
type captureDevice interface {
	Path() string
	Close() error
	QueryCapability() (v4l2.Capability, error)
	SetFormat(v4l2.Format) (v4l2.Format, error)
	SetFramerate(uint32) (v4l2.Framerate, error)
	RequestBuffers(uint32) (uint32, error)
	QueryBuffer(uint32) (uint32, uint32, error)
	MapBuffer(uint32, uint32) ([]byte, error)
	EnqueueBuffer(uint32) error
	DequeueBuffer() (uint32, uint32, error)
	StreamOn() error
	StreamOff() error
	WaitReadable(time.Duration) (bool, error)
}

// Camera manages one capture device through its full lifecycle.
type Camera struct {
	cfg    Config
	status led.Controller
	bus    *events.Bus
	logger logging.Logger

	openDev func(path string) (captureDevice, error)
	unmap   func([]byte) error

	mu      sync.Mutex
	state   State
	dev     captureDevice
	buffers [][]byte
	format  v4l2.Format
	lastErr error

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Camera. The led controller is called synchronously as
// capture starts and stops so the front-panel LEDs track the stream.
func New(cfg Config, status led.Controller, bus *events.Bus) *Camera {
	return &Camera{
		cfg:    cfg.withDefaults(),
		status: status,
		bus:    bus,
		logger: logging.GetLogger("camera"),
		state:  StateClosed,
		openDev: func(path string) (captureDevice, error) {
			dev, err := v4l2.Open(path)
			if err != nil {
				return nil, err
			}
			return dev, nil
		},
		unmap: v4l2.UnmapBuffer,
	}
}

// State returns the current lifecycle state.
func (c *Camera) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config returns the capture configuration in effect, defaults applied.
func (c *Camera) Config() Config {
	return c.cfg
}

// Format returns the format the driver granted. Zero before Start.
func (c *Camera) Format() v4l2.Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// Done is closed when the capture loop exits, cleanly or not. Callers
// that see it close while they did not request a stop should check Err
// and call Stop to release the device.
func (c *Camera) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Err returns the error that killed the capture loop, or nil after a
// requested stop.
func (c *Camera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Start brings the device up and launches the capture loop. Setup runs
// the whole negotiation chain: open, capability check, format, buffers,
// mmap, prime, stream on. Any failure unwinds completely and leaves the
// camera closed.
func (c *Camera) Start(ctx context.Context, handler FrameHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateClosed {
		return fmt.Errorf("camera is %s, expected %s", c.state, StateClosed)
	}

	if err := c.setupLocked(); err != nil {
		return err
	}

	if err := c.dev.StreamOn(); err != nil {
		c.teardownLocked()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if err := c.status.StreamOn(); err != nil {
		c.logger.Warn("Failed to set status LED", "error", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.lastErr = nil
	c.state = StateStreaming

	c.logger.Info("Streaming started",
		"device", c.dev.Path(),
		"width", c.format.Width,
		"height", c.format.Height,
		"format", v4l2.FormatFourCC(c.format.PixelFormat),
		"buffers", len(c.buffers))

	if c.bus != nil {
		c.bus.Publish(events.StreamingStartedEvent{
			DevicePath: c.cfg.DevicePath,
			Width:      c.format.Width,
			Height:     c.format.Height,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
	}

	go c.captureLoop(loopCtx, c.dev, c.buffers, handler)
	return nil
}

// setupLocked opens and configures the device. On success c.dev,
// c.buffers and c.format are populated; on failure everything acquired
// so far is released.
func (c *Camera) setupLocked() error {
	dev, err := c.openDev(c.cfg.DevicePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	caps, err := dev.QueryCapability()
	if err != nil {
		dev.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if caps.Caps&v4l2.CapVideoCapture == 0 || caps.Caps&v4l2.CapStreaming == 0 {
		dev.Close()
		return fmt.Errorf("%w: %s (%s) lacks streaming video capture, caps 0x%08x",
			ErrUnsupportedFormat, c.cfg.DevicePath, caps.Card, caps.Caps)
	}

	want := v4l2.Format{
		Width:       c.cfg.Width,
		Height:      c.cfg.Height,
		PixelFormat: v4l2.PixFmtYUYV,
		Field:       v4l2.FieldNone,
	}
	got, err := dev.SetFormat(want)
	if err != nil {
		dev.Close()
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	// The driver may quietly substitute the nearest format it supports.
	// The converter only understands the exact shape we asked for, so a
	// substitution is fatal here rather than garbage on screen later.
	if got.Width != want.Width || got.Height != want.Height || got.PixelFormat != want.PixelFormat {
		dev.Close()
		return fmt.Errorf("%w: driver granted %dx%d %s, want %dx%d %s",
			ErrUnsupportedFormat,
			got.Width, got.Height, v4l2.FormatFourCC(got.PixelFormat),
			want.Width, want.Height, v4l2.FormatFourCC(want.PixelFormat))
	}
	if got.Field == v4l2.FieldInterlaced {
		dev.Close()
		return fmt.Errorf("%w: driver granted interlaced frames, want progressive", ErrUnsupportedFormat)
	}

	if c.cfg.FPS > 0 {
		rate, err := dev.SetFramerate(c.cfg.FPS)
		if err != nil {
			c.logger.Warn("Failed to set framerate, keeping driver default",
				"fps", c.cfg.FPS, "error", err)
		} else {
			c.logger.Debug("Framerate negotiated", "fps", rate.FPS())
		}
	}

	granted, err := dev.RequestBuffers(c.cfg.BufferCount)
	if err != nil {
		dev.Close()
		return fmt.Errorf("%w: %v", ErrBufferMapFailed, err)
	}
	if granted < 2 {
		dev.Close()
		return fmt.Errorf("%w: driver granted %d buffers, need at least 2", ErrBufferMapFailed, granted)
	}

	buffers := make([][]byte, granted)
	for i := uint32(0); i < granted; i++ {
		offset, length, err := dev.QueryBuffer(i)
		if err != nil {
			c.unmapAll(buffers[:i])
			dev.Close()
			return fmt.Errorf("%w: buffer %d: %v", ErrBufferMapFailed, i, err)
		}
		buffers[i], err = dev.MapBuffer(offset, length)
		if err != nil {
			c.unmapAll(buffers[:i])
			dev.Close()
			return fmt.Errorf("%w: buffer %d: %v", ErrBufferMapFailed, i, err)
		}
	}

	for i := uint32(0); i < granted; i++ {
		if err := dev.EnqueueBuffer(i); err != nil {
			c.unmapAll(buffers)
			dev.Close()
			return fmt.Errorf("%w: priming buffer %d: %v", ErrDeviceUnavailable, i, err)
		}
	}

	c.dev = dev
	c.buffers = buffers
	c.format = got
	return nil
}

// captureLoop pulls filled buffers from the driver, hands each to the
// handler, and re-enqueues it. Transient EAGAIN and EINTR results are
// retried silently; other errors count against the fault budget.
func (c *Camera) captureLoop(ctx context.Context, dev captureDevice, buffers [][]byte, handler FrameHandler) {
	defer close(c.done)

	var sequence uint64
	faults := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ready, err := dev.WaitReadable(waitTimeout)
		if err != nil {
			if c.fault(ctx, "wait", err, &faults) {
				return
			}
			continue
		}
		if !ready {
			// Timeout with no frame. Loop to re-check the context.
			continue
		}

		index, bytesused, err := dev.DequeueBuffer()
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) {
				continue
			}
			if c.fault(ctx, "dequeue", err, &faults) {
				return
			}
			continue
		}
		faults = 0

		if int(index) < len(buffers) && bytesused > 0 {
			sequence++
			handler(buffers[index][:bytesused], sequence, time.Now())
		}

		if err := dev.EnqueueBuffer(index); err != nil {
			if c.fault(ctx, "enqueue", err, &faults) {
				return
			}
		}
	}
}

// fault records one capture loop error. Returns true when the
// consecutive budget is spent and the loop must exit.
func (c *Camera) fault(ctx context.Context, op string, err error, faults *int) bool {
	if ctx.Err() != nil {
		// Teardown has begun; errors from a dying device are expected.
		return true
	}

	*faults++
	c.logger.Warn("Capture fault", "op", op, "error", err, "consecutive", *faults)

	if c.bus != nil {
		c.bus.Publish(events.CaptureFaultEvent{
			DevicePath:  c.cfg.DevicePath,
			Error:       err.Error(),
			Consecutive: *faults,
			Timestamp:   time.Now().Format(time.RFC3339),
		})
	}

	if *faults >= maxConsecutiveFaults {
		captureErr := &CaptureError{Op: op, Cause: err}
		c.logger.Error("Capture loop giving up", "error", captureErr)

		c.mu.Lock()
		c.lastErr = captureErr
		c.mu.Unlock()
		return true
	}
	return false
}

// Stop halts the capture loop, turns the stream off, and releases the
// device. Safe to call when already stopped.
func (c *Camera) Stop() error {
	c.mu.Lock()
	if c.state != StateStreaming {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopping
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Timeout waiting for capture loop to stop")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	streamErr := c.dev.StreamOff()
	if streamErr != nil {
		c.logger.Warn("Failed to stop device streaming", "error", streamErr)
	}

	if err := c.status.StreamOff(); err != nil {
		c.logger.Warn("Failed to set status LED", "error", err)
	}

	c.teardownLocked()
	c.state = StateClosed

	reason := "shutdown"
	if c.lastErr != nil {
		reason = "fault"
	}
	c.logger.Info("Streaming stopped", "device", c.cfg.DevicePath, "reason", reason)

	if c.bus != nil {
		c.bus.Publish(events.StreamingStoppedEvent{
			DevicePath: c.cfg.DevicePath,
			Reason:     reason,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
	}

	return streamErr
}

// teardownLocked unmaps all buffers and closes the device.
func (c *Camera) teardownLocked() {
	c.unmapAll(c.buffers)
	c.buffers = nil

	if c.dev != nil {
		if err := c.dev.Close(); err != nil {
			c.logger.Warn("Failed to close device", "error", err)
		}
		c.dev = nil
	}
}

func (c *Camera) unmapAll(buffers [][]byte) {
	for _, buf := range buffers {
		if buf == nil {
			continue
		}
		if err := c.unmap(buf); err != nil {
			c.logger.Warn("Failed to unmap buffer", "error", err)
		}
	}
}
