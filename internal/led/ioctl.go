package led

import (
	"fmt"
	"syscall"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
)

const camStreamDevice = "/dev/cam_stream"

// Opcodes understood by the cam_stream helper driver. Each is
// _IO('k', n): the 'k' magic in bits 8..15, the command number in the
// low byte, no payload.
const (
	camIocStart = 0x6b01
	camIocStop  = 0x6b02
	camIocReset = 0x6b03
)

// ioctlController talks to the cam_stream character device, which wires
// the green and red status LEDs to single ioctl opcodes.
type ioctlController struct {
	fd     int
	path   string
	logger logging.Logger
}

// newIoctl opens the control device and probes it with a reset. A board
// without the helper driver fails the open; a device node that exists
// but belongs to something else fails the probe.
func newIoctl(path string, logger logging.Logger) (*ioctlController, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	c := &ioctlController{fd: fd, path: path, logger: logger}
	if err := c.send(camIocReset); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("control device probe failed on %s: %w", path, err)
	}
	return c, nil
}

func (c *ioctlController) send(req uint) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(c.fd), uintptr(req), 0)
	if errno != 0 {
		return fmt.Errorf("ioctl 0x%x on %s: %w", req, c.path, errno)
	}
	return nil
}

func (c *ioctlController) StreamOn() error {
	if err := c.send(camIocStart); err != nil {
		return err
	}
	c.logger.Debug("LED state set via control device", "state", "streaming")
	return nil
}

func (c *ioctlController) StreamOff() error {
	if err := c.send(camIocStop); err != nil {
		return err
	}
	c.logger.Debug("LED state set via control device", "state", "stopped")
	return nil
}

func (c *ioctlController) Reset() error {
	if err := c.send(camIocReset); err != nil {
		return err
	}
	c.logger.Debug("LED state set via control device", "state", "reset")
	return nil
}

func (c *ioctlController) Available() bool {
	return true
}

func (c *ioctlController) Describe() string {
	return "ioctl:" + c.path
}

func (c *ioctlController) Close() error {
	if c.fd < 0 {
		return nil
	}
	err := syscall.Close(c.fd)
	c.fd = -1
	return err
}
