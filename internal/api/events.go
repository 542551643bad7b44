package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/camera"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	// Register SSE endpoint with event type mapping
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for streaming lifecycle, viewer sessions, capture faults, and config reloads",
		Tags:        []string{"events"},
	}, map[string]any{
		"streaming-started":   events.StreamingStartedEvent{},
		"streaming-stopped":   events.StreamingStoppedEvent{},
		"viewer-connected":    events.ViewerConnectedEvent{},
		"viewer-disconnected": events.ViewerDisconnectedEvent{},
		"capture-fault":       events.CaptureFaultEvent{},
		"frame-dropped":       events.FrameDroppedEvent{},
		"config-reloaded":     events.ConfigReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		// Subscribe to all event types using event bus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.StreamingStartedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.StreamingStoppedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ViewerConnectedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ViewerDisconnectedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.CaptureFaultEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.FrameDroppedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ConfigReloadedEvent](s.options.EventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Late joiners missed the original streaming-started event, so
		// replay a snapshot of the current state on connect.
		if cam := s.options.Camera; cam != nil && cam.State() == camera.StateStreaming {
			cfg := cam.Config()
			format := cam.Format()
			if err := send.Data(events.StreamingStartedEvent{
				DevicePath: cfg.DevicePath,
				Width:      format.Width,
				Height:     format.Height,
				Timestamp:  time.Now().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				// Send event using Huma's SSE sender with error handling
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
