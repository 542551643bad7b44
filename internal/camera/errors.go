package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for the distinct ways bringing up a capture device can
// fail. Callers match with errors.Is to decide between retrying, trying
// another device, and giving up.
var (
	// ErrDeviceUnavailable means the device node could not be opened or
	// stopped responding to ioctls.
	ErrDeviceUnavailable = errors.New("camera device unavailable")

	// ErrUnsupportedFormat means the driver cannot deliver the exact
	// frame format the pipeline needs.
	ErrUnsupportedFormat = errors.New("camera format not supported")

	// ErrBufferMapFailed means streaming buffer negotiation or mmap
	// failed partway through setup.
	ErrBufferMapFailed = errors.New("camera buffer mapping failed")
)

// CaptureError reports a fault inside the running capture loop after the
// consecutive fault budget was spent.
type CaptureError struct {
	Op    string
	Cause error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s failed: %v", e.Op, e.Cause)
}

func (e *CaptureError) Unwrap() error {
	return e.Cause
}
