//go:build linux && arm && !arm64

package v4l2

import "unsafe"

// Ioctl request numbers and struct layouts mirroring <linux/videodev2.h>
// for 32-bit ARM with 64-bit time_t, as used by current Raspberry Pi OS
// kernels. v4l2_format and v4l2_buffer are smaller than on 64-bit
// because longs and pointers shrink to 4 bytes, which changes the size
// encoded in the ioctl numbers.

const (
	VIDIOC_QUERYCAP            = 0x80685600
	VIDIOC_ENUM_FMT            = 0xc0405602
	VIDIOC_G_FMT               = 0xc0cc5604
	VIDIOC_S_FMT               = 0xc0cc5605
	VIDIOC_REQBUFS             = 0xc0145608
	VIDIOC_QUERYBUF            = 0xc0505609
	VIDIOC_QBUF                = 0xc050560f
	VIDIOC_DQBUF               = 0xc0505611
	VIDIOC_STREAMON            = 0x40045612
	VIDIOC_STREAMOFF           = 0x40045613
	VIDIOC_G_PARM              = 0xc0cc5615
	VIDIOC_S_PARM              = 0xc0cc5616
	VIDIOC_ENUM_FRAMESIZES     = 0xc02c564a
	VIDIOC_ENUM_FRAMEINTERVALS = 0xc034564b
)

const (
	V4L2_BUF_TYPE_VIDEO_CAPTURE = 1
	V4L2_MEMORY_MMAP            = 1

	V4L2_FRMSIZE_TYPE_DISCRETE   = 1
	V4L2_FRMSIZE_TYPE_CONTINUOUS = 2
	V4L2_FRMSIZE_TYPE_STEPWISE   = 3

	V4L2_FRMIVAL_TYPE_DISCRETE   = 1
	V4L2_FRMIVAL_TYPE_CONTINUOUS = 2
	V4L2_FRMIVAL_TYPE_STEPWISE   = 3

	V4L2_CAP_DEVICE_CAPS   = 0x80000000
	V4L2_CAP_TIMEPERFRAME  = 0x1000
	V4L2_FMT_FLAG_EMULATED = 0x0002
)

type v4l2_capability struct {
	driver       [16]byte
	card         [32]byte
	bus_info     [32]byte
	version      uint32
	capabilities uint32
	device_caps  uint32
	reserved     [3]uint32
}

type v4l2_fmtdesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbus_code   uint32
	reserved    [3]uint32
}

type v4l2_pix_format struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
	flags        uint32
	ycbcr_enc    uint32
	quantization uint32
	xfer_func    uint32
}

type v4l2_format struct {
	typ uint32
	pix v4l2_pix_format // union is 4-byte aligned on arm
	_   [152]byte       // remainder of the 200-byte fmt union
}

type v4l2_requestbuffers struct {
	count        uint32
	typ          uint32
	memory       uint32
	capabilities uint32
	flags        uint8
	reserved     [3]uint8
}

type v4l2_timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

type v4l2_buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	_         [4]byte  // padding before the 8-byte aligned timestamp
	timestamp [16]byte // struct __kernel_v4l2_timeval, two 64-bit words
	timecode  v4l2_timecode
	sequence  uint32
	memory    uint32
	offset    uint32  // union m; mmap offset for V4L2_MEMORY_MMAP
	length    uint32
	_         [8]byte // reserved2, request_fd
}

type v4l2_fract struct {
	numerator   uint32
	denominator uint32
}

type v4l2_captureparm struct {
	capability   uint32
	capturemode  uint32
	timeperframe v4l2_fract
	extendedmode uint32
	readbuffers  uint32
	reserved     [4]uint32
}

type v4l2_streamparm struct {
	typ     uint32
	capture v4l2_captureparm
	_       [160]byte // remainder of the 200-byte parm union
}

type v4l2_frmsize_discrete struct {
	width  uint32
	height uint32
}

type v4l2_frmsize_stepwise struct {
	min_width   uint32
	max_width   uint32
	step_width  uint32
	min_height  uint32
	max_height  uint32
	step_height uint32
}

type v4l2_frmsizeenum struct {
	index        uint32
	pixel_format uint32
	typ          uint32
	discrete     v4l2_frmsize_discrete
	_            [16]byte // remainder of the stepwise union
	reserved     [2]uint32
}

type v4l2_frmivalenum struct {
	index        uint32
	pixel_format uint32
	width        uint32
	height       uint32
	typ          uint32
	discrete     v4l2_fract
	_            [16]byte // remainder of the stepwise union
	reserved     [2]uint32
}

// Compile-time size assertions against the kernel ABI.
var (
	_ [104]byte = [unsafe.Sizeof(v4l2_capability{})]byte{}
	_ [64]byte  = [unsafe.Sizeof(v4l2_fmtdesc{})]byte{}
	_ [48]byte  = [unsafe.Sizeof(v4l2_pix_format{})]byte{}
	_ [204]byte = [unsafe.Sizeof(v4l2_format{})]byte{}
	_ [20]byte  = [unsafe.Sizeof(v4l2_requestbuffers{})]byte{}
	_ [16]byte  = [unsafe.Sizeof(v4l2_timecode{})]byte{}
	_ [80]byte  = [unsafe.Sizeof(v4l2_buffer{})]byte{}
	_ [40]byte  = [unsafe.Sizeof(v4l2_captureparm{})]byte{}
	_ [204]byte = [unsafe.Sizeof(v4l2_streamparm{})]byte{}
	_ [24]byte  = [unsafe.Sizeof(v4l2_frmsize_stepwise{})]byte{}
	_ [44]byte  = [unsafe.Sizeof(v4l2_frmsizeenum{})]byte{}
	_ [52]byte  = [unsafe.Sizeof(v4l2_frmivalenum{})]byte{}
)
