//go:build linux

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for device enumeration, format queries, and memory-mapped streaming
// capture.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Enumeration
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Format Queries
//
// Query supported formats, resolutions, and framerates:
//
//	formats, _ := v4l2.GetFormats("/dev/video0")
//	for _, fmt := range formats {
//	    resolutions, _ := v4l2.GetResolutions("/dev/video0", fmt.PixelFormat)
//	    for _, res := range resolutions {
//	        framerates, _ := v4l2.GetFramerates("/dev/video0", fmt.PixelFormat, res.Width, res.Height)
//	    }
//	}
//
// # Streaming Capture
//
// Open a device and run the memory-mapped capture cycle:
//
//	dev, err := v4l2.Open("/dev/video0")
//	dev.SetFormat(v4l2.Format{Width: 640, Height: 480, PixelFormat: v4l2.PixFmtYUYV, Field: v4l2.FieldNone})
//	dev.RequestBuffers(4)
//	// QueryBuffer + Mmap each index, EnqueueBuffer all, then:
//	dev.StreamOn()
//	for {
//	    dev.WaitReadable(2000)
//	    index, used, _ := dev.DequeueBuffer()
//	    // consume buffers[index][:used], then:
//	    dev.EnqueueBuffer(index)
//	}
package v4l2
