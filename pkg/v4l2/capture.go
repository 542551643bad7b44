//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"syscall"
	"time"
	"unsafe"
)

// Device is an open V4L2 capture device. It wraps the raw ioctl surface
// needed for memory-mapped streaming I/O; buffer lifetime and the
// enqueue/dequeue cycle are the caller's responsibility.
type Device struct {
	fd   int
	path string
}

// Capability identifies an open device and its capability flags.
type Capability struct {
	Driver  string
	Card    string
	BusInfo string
	Caps    uint32
}

// Open opens a V4L2 device node for streaming capture.
func Open(path string) (*Device, error) {
	fd, err := openDevice(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Device{fd: fd, path: path}, nil
}

// Path returns the device node this Device was opened from.
func (d *Device) Path() string {
	return d.path
}

// Close closes the device file descriptor. Mapped buffers must be
// unmapped first.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := closeDevice(d.fd)
	d.fd = -1
	return err
}

// QueryCapability runs VIDIOC_QUERYCAP and returns the identification
// strings and effective capability flags for this node.
func (d *Device) QueryCapability() (Capability, error) {
	cap := v4l2_capability{}
	if err := ioctl(d.fd, VIDIOC_QUERYCAP, unsafe.Pointer(&cap)); err != nil {
		return Capability{}, fmt.Errorf("failed to query capabilities: %w", err)
	}
	return Capability{
		Driver:  cstr(cap.driver[:]),
		Card:    cstr(cap.card[:]),
		BusInfo: cstr(cap.bus_info[:]),
		Caps:    effectiveCaps(&cap),
	}, nil
}

// SetFormat negotiates the capture format with VIDIOC_S_FMT. The driver
// may adjust the request; the format actually in effect is returned, and
// callers must check it against what they asked for.
func (d *Device) SetFormat(req Format) (Format, error) {
	f := v4l2_format{typ: V4L2_BUF_TYPE_VIDEO_CAPTURE}
	f.pix.width = req.Width
	f.pix.height = req.Height
	f.pix.pixelformat = req.PixelFormat
	f.pix.field = req.Field

	if err := ioctl(d.fd, VIDIOC_S_FMT, unsafe.Pointer(&f)); err != nil {
		return Format{}, fmt.Errorf("failed to set format: %w", err)
	}

	return Format{
		Width:        f.pix.width,
		Height:       f.pix.height,
		PixelFormat:  f.pix.pixelformat,
		Field:        f.pix.field,
		BytesPerLine: f.pix.bytesperline,
		SizeImage:    f.pix.sizeimage,
	}, nil
}

// SetFramerate asks the driver for the given rate in frames per second
// via VIDIOC_S_PARM and returns the interval the driver chose. Drivers
// that cannot adjust timing report it in the capability field; the
// request is then a no-op and the driver's own rate comes back.
func (d *Device) SetFramerate(fps uint32) (Framerate, error) {
	if fps == 0 {
		return Framerate{}, errors.New("framerate must be non-zero")
	}

	parm := v4l2_streamparm{typ: V4L2_BUF_TYPE_VIDEO_CAPTURE}
	if err := ioctl(d.fd, VIDIOC_G_PARM, unsafe.Pointer(&parm)); err != nil {
		return Framerate{}, fmt.Errorf("failed to get stream parameters: %w", err)
	}

	if parm.capture.capability&V4L2_CAP_TIMEPERFRAME != 0 {
		parm.capture.timeperframe = v4l2_fract{numerator: 1, denominator: fps}
		if err := ioctl(d.fd, VIDIOC_S_PARM, unsafe.Pointer(&parm)); err != nil {
			return Framerate{}, fmt.Errorf("failed to set stream parameters: %w", err)
		}
	}

	return Framerate{
		Numerator:   parm.capture.timeperframe.numerator,
		Denominator: parm.capture.timeperframe.denominator,
	}, nil
}

// RequestBuffers asks the driver to allocate count mmap buffers and
// returns how many it actually granted, which may be fewer.
func (d *Device) RequestBuffers(count uint32) (uint32, error) {
	req := v4l2_requestbuffers{
		count:  count,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := ioctl(d.fd, VIDIOC_REQBUFS, unsafe.Pointer(&req)); err != nil {
		return 0, fmt.Errorf("failed to request buffers: %w", err)
	}
	return req.count, nil
}

// QueryBuffer returns the mmap offset and length of the buffer at index.
func (d *Device) QueryBuffer(index uint32) (offset uint32, length uint32, err error) {
	buf := v4l2_buffer{
		index:  index,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := ioctl(d.fd, VIDIOC_QUERYBUF, unsafe.Pointer(&buf)); err != nil {
		return 0, 0, fmt.Errorf("failed to query buffer %d: %w", index, err)
	}
	return buf.offset, buf.length, nil
}

// MapBuffer maps a driver buffer into this process. The offset and
// length come from QueryBuffer.
func (d *Device) MapBuffer(offset uint32, length uint32) ([]byte, error) {
	data, err := syscall.Mmap(d.fd, int64(offset), int(length),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap buffer: %w", err)
	}
	return data, nil
}

// UnmapBuffer releases a mapping created by MapBuffer.
func UnmapBuffer(data []byte) error {
	return syscall.Munmap(data)
}

// EnqueueBuffer hands the buffer at index back to the driver for filling.
func (d *Device) EnqueueBuffer(index uint32) error {
	buf := v4l2_buffer{
		index:  index,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := ioctl(d.fd, VIDIOC_QBUF, unsafe.Pointer(&buf)); err != nil {
		return fmt.Errorf("failed to enqueue buffer %d: %w", index, err)
	}
	return nil
}

// DequeueBuffer takes the oldest filled buffer from the driver and
// returns its index and payload size. With the device in non-blocking
// mode this fails with EAGAIN when no buffer is ready; use WaitReadable
// first. The error wraps the errno, so errors.Is(err, syscall.EAGAIN)
// and errors.Is(err, syscall.EINTR) work.
func (d *Device) DequeueBuffer() (index uint32, bytesused uint32, err error) {
	buf := v4l2_buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := ioctl(d.fd, VIDIOC_DQBUF, unsafe.Pointer(&buf)); err != nil {
		return 0, 0, fmt.Errorf("failed to dequeue buffer: %w", err)
	}
	return buf.index, buf.bytesused, nil
}

// StreamOn starts the driver's capture engine.
func (d *Device) StreamOn() error {
	typ := int32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	if err := ioctl(d.fd, VIDIOC_STREAMON, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("failed to start streaming: %w", err)
	}
	return nil
}

// StreamOff stops the capture engine and dequeues all buffers.
func (d *Device) StreamOff() error {
	typ := int32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	if err := ioctl(d.fd, VIDIOC_STREAMOFF, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("failed to stop streaming: %w", err)
	}
	return nil
}

// WaitReadable blocks until a filled buffer is ready to dequeue or the
// timeout elapses. Returns false on timeout. Interrupted waits are
// retried internally.
func (d *Device) WaitReadable(timeout time.Duration) (bool, error) {
	for {
		var rfds syscall.FdSet
		fdsetBit(&rfds, d.fd)

		tv := makeTimeval(int64(timeout/time.Second), int64(timeout%time.Second/time.Microsecond))
		n, err := syscall.Select(d.fd+1, &rfds, nil, nil, &tv)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return false, fmt.Errorf("failed to wait for frame: %w", err)
		}
		if n == 0 {
			return false, nil
		}
		return fdsetIsSet(&rfds, d.fd), nil
	}
}
