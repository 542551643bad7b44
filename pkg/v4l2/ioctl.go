//go:build linux

package v4l2

import (
	"syscall"
	"unsafe"
)

// ioctl issues a raw ioctl on the given file descriptor. The returned
// error, when non-nil, is a syscall.Errno so callers can match against
// syscall.EINVAL, syscall.EAGAIN, and friends with errors.Is.
func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// openDevice opens a V4L2 device node. Non-blocking mode keeps DQBUF
// from stalling forever on a wedged driver; readiness is handled with
// select instead.
func openDevice(path string) (int, error) {
	return syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
}

// closeDevice closes a previously opened device file descriptor.
func closeDevice(fd int) error {
	return syscall.Close(fd)
}
