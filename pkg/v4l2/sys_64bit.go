//go:build linux && (amd64 || arm64)

package v4l2

import "syscall"

// makeTimeval builds a select timeout with platform-native field widths.
func makeTimeval(sec, usec int64) syscall.Timeval {
	return syscall.Timeval{Sec: sec, Usec: usec}
}

// fdsetBit marks fd in the set. Bits is an array of 64-bit words here.
func fdsetBit(set *syscall.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

// fdsetIsSet reports whether fd is marked in the set.
func fdsetIsSet(set *syscall.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
