package events

// Event type constants for kelindar/event.
const (
	TypeStreamingStarted uint32 = iota + 1
	TypeStreamingStopped
	TypeViewerConnected
	TypeViewerDisconnected
	TypeCaptureFault
	TypeFrameDropped
	TypeConfigReloaded
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StreamingStartedEvent is published when the capture device enters the
// streaming state and the status LED turns green.
type StreamingStartedEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Width      uint32 `json:"width" example:"640" doc:"Negotiated frame width in pixels"`
	Height     uint32 `json:"height" example:"480" doc:"Negotiated frame height in pixels"`
	Timestamp  string `json:"timestamp" example:"2025-08-25T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StreamingStartedEvent.
func (e StreamingStartedEvent) Type() uint32 { return TypeStreamingStarted }

// StreamingStoppedEvent is published when capture stops, cleanly or not.
type StreamingStoppedEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Reason     string `json:"reason" example:"shutdown" doc:"Why streaming stopped: shutdown, fault"`
	Timestamp  string `json:"timestamp" example:"2025-08-25T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StreamingStoppedEvent.
func (e StreamingStoppedEvent) Type() uint32 { return TypeStreamingStopped }

// ViewerConnectedEvent is published when a client connects to the MJPEG
// stream port.
type ViewerConnectedEvent struct {
	RemoteAddr string `json:"remote_addr" example:"192.168.1.50:51034" doc:"Client address"`
	Timestamp  string `json:"timestamp" example:"2025-08-25T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ViewerConnectedEvent.
func (e ViewerConnectedEvent) Type() uint32 { return TypeViewerConnected }

// ViewerDisconnectedEvent is published when the MJPEG viewer goes away.
type ViewerDisconnectedEvent struct {
	RemoteAddr string `json:"remote_addr" example:"192.168.1.50:51034" doc:"Client address"`
	FramesSent uint64 `json:"frames_sent" example:"1523" doc:"Frames delivered during the session"`
	BytesSent  uint64 `json:"bytes_sent" example:"48291034" doc:"Payload bytes delivered during the session"`
	DurationMs int64  `json:"duration_ms" example:"50733" doc:"Session length in milliseconds"`
	Reason     string `json:"reason" example:"connection lost" doc:"Why the session ended"`
	Timestamp  string `json:"timestamp" example:"2025-08-25T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ViewerDisconnectedEvent.
func (e ViewerDisconnectedEvent) Type() uint32 { return TypeViewerDisconnected }

// CaptureFaultEvent is published when a frame dequeue fails with an
// unexpected error. Consecutive counts how many faults in a row the
// capture loop has seen; the loop gives up when the budget is spent.
type CaptureFaultEvent struct {
	DevicePath  string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Error       string `json:"error" example:"failed to dequeue buffer: no such device" doc:"Fault detail"`
	Consecutive int    `json:"consecutive" example:"3" doc:"Consecutive fault count"`
	Timestamp   string `json:"timestamp" example:"2025-08-25T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureFaultEvent.
func (e CaptureFaultEvent) Type() uint32 { return TypeCaptureFault }

// FrameDroppedEvent is published when the frame queue overwrites its
// oldest entry to make room for a new one.
type FrameDroppedEvent struct {
	Reason    string `json:"reason" example:"queue full" doc:"Why the frame was dropped"`
	Timestamp string `json:"timestamp" example:"2025-08-25T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameDroppedEvent.
func (e FrameDroppedEvent) Type() uint32 { return TypeFrameDropped }

// ConfigReloadedEvent is published when the config file watcher applies
// new runtime settings.
type ConfigReloadedEvent struct {
	Path      string `json:"path" example:"/etc/cam-streamer/config.toml" doc:"Config file path"`
	Timestamp string `json:"timestamp" example:"2025-08-25T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConfigReloadedEvent.
func (e ConfigReloadedEvent) Type() uint32 { return TypeConfigReloaded }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-08-25T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"camera" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
