// Package models holds the request and response shapes for the control
// API. Everything here is wired into the OpenAPI schema by huma.
package models

import (
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/pipeline"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2025-08-25 14:30" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Status models

// FormatData describes the negotiated capture format.
type FormatData struct {
	Width       uint32 `json:"width" example:"640" doc:"Frame width in pixels"`
	Height      uint32 `json:"height" example:"480" doc:"Frame height in pixels"`
	PixelFormat string `json:"pixel_format" example:"YUYV" doc:"FourCC of the capture format"`
	FPS         uint32 `json:"fps" example:"30" doc:"Requested frame rate"`
}

// StreamData describes the MJPEG delivery side.
type StreamData struct {
	Addr         string `json:"addr" example:":8080" doc:"MJPEG stream listen address"`
	ViewerActive bool   `json:"viewer_active" example:"true" doc:"Whether a viewer is currently connected"`
	ViewerAddr   string `json:"viewer_addr,omitempty" example:"10.0.0.5:51000" doc:"Remote address of the connected viewer"`
}

// StatusData is the full daemon status snapshot.
type StatusData struct {
	State    string         `json:"state" example:"streaming" doc:"Camera lifecycle state"`
	Device   string         `json:"device" example:"/dev/video0" doc:"Capture device path"`
	Format   FormatData     `json:"format" doc:"Negotiated capture format"`
	Stream   StreamData     `json:"stream" doc:"MJPEG delivery status"`
	Pipeline pipeline.Stats `json:"pipeline" doc:"Convert/encode pipeline counters"`
	LED      LEDStatusData  `json:"led" doc:"Status LED backend"`
}

type StatusResponse struct {
	Body StatusData
}

// LED models

// LEDStatusData describes the status LED backend in use.
type LEDStatusData struct {
	Backend   string `json:"backend" example:"ioctl:/dev/cam_stream" doc:"LED control backend"`
	Available bool   `json:"available" example:"true" doc:"Whether LED control is operational"`
}

type LEDStatusResponse struct {
	Body LEDStatusData
}

// LEDTestRequest drives the LEDs manually for bench checks.
type LEDTestRequest struct {
	Body struct {
		State string `json:"state" enum:"streaming,stopped,reset" example:"streaming" doc:"LED state to apply"`
	}
}

type LEDTestResponse struct {
	Body struct {
		Message string `json:"message" example:"LED state applied" doc:"Operation result"`
	}
}

// Log models

// LogEntryData is one buffered log record.
type LogEntryData struct {
	Timestamp  string         `json:"timestamp" example:"2025-08-25T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"camera" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

type LogsData struct {
	Entries []LogEntryData `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int            `json:"count" example:"250" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}

// Error response
type ErrorData struct {
	Status  string `json:"status" example:"error" doc:"Error status"`
	Message string `json:"message" example:"Device not found" doc:"Error message"`
}

type ErrorResponse struct {
	Body ErrorData
}
