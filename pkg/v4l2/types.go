//go:build linux

package v4l2

// Device capability flags reported by VIDIOC_QUERYCAP.
const (
	CapVideoCapture = 0x00000001 // device supports video capture
	CapStreaming    = 0x04000000 // device supports streaming I/O (mmap)
)

// Common pixel formats, encoded as little-endian fourcc values.
const (
	PixFmtYUYV  = 0x56595559 // 'YUYV' packed YUV 4:2:2
	PixFmtUYVY  = 0x59565955 // 'UYVY' packed YUV 4:2:2
	PixFmtNV12  = 0x3231564e // 'NV12' planar Y/CbCr 4:2:0
	PixFmtRGB24 = 0x33424752 // 'RGB3' packed RGB 8:8:8
	PixFmtGrey  = 0x59455247 // 'GREY' 8-bit luma only
	PixFmtMJPEG = 0x47504a4d // 'MJPG' motion JPEG
	PixFmtJPEG  = 0x4745504a // 'JPEG' JFIF JPEG
	PixFmtH264  = 0x34363248 // 'H264' H.264 byte stream
)

// Field order values for v4l2_pix_format.
const (
	FieldAny        = 0 // driver picks
	FieldNone       = 1 // progressive, no interlacing
	FieldInterlaced = 4 // both fields interleaved
)

// DeviceInfo describes a discovered V4L2 capture device.
type DeviceInfo struct {
	// DevicePath is the device node, e.g. "/dev/video0".
	DevicePath string

	// DeviceName is the human-readable card name from the driver.
	DeviceName string

	// DeviceID is a stable identifier derived from /dev/v4l/by-id
	// symlinks when available, or synthesized from bus information.
	// It survives reboots and re-enumeration, unlike DevicePath.
	DeviceID string

	// Caps holds the raw capability flags for this device node.
	Caps uint32
}

// FormatInfo describes one pixel format supported by a device.
type FormatInfo struct {
	// PixelFormat is the fourcc code, e.g. PixFmtYUYV.
	PixelFormat uint32

	// FormatName is the driver's description, e.g. "YUYV 4:2:2".
	FormatName string

	// Emulated is true when the format is converted in software by
	// libv4l rather than produced by the hardware.
	Emulated bool
}

// Resolution is a discrete frame size in pixels.
type Resolution struct {
	Width  uint32
	Height uint32
}

// Framerate is a frame interval expressed as a fraction of a second.
// A 30 fps interval is Numerator=1, Denominator=30.
type Framerate struct {
	Numerator   uint32
	Denominator uint32
}

// FPS returns the framerate in frames per second, or 0 when the
// interval is degenerate.
func (f Framerate) FPS() float64 {
	if f.Numerator == 0 {
		return 0
	}
	return float64(f.Denominator) / float64(f.Numerator)
}

// Format describes a capture format as negotiated with the driver.
// Width, Height, PixelFormat, and Field are inputs to SetFormat; the
// driver fills in BytesPerLine and SizeImage and may adjust the rest.
type Format struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
}
