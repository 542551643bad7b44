package metrics

import (
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/events"
)

// Bridge keeps the event-driven metrics in step with the bus. One
// instance lives for the whole process.
type Bridge struct {
	unsubs []func()
}

// NewBridge subscribes to the lifecycle and delivery events.
func NewBridge(bus *events.Bus) *Bridge {
	b := &Bridge{}
	b.unsubs = append(b.unsubs,
		bus.Subscribe(func(events.StreamingStartedEvent) {
			streamingActive.Set(1)
		}),
		bus.Subscribe(func(events.StreamingStoppedEvent) {
			streamingActive.Set(0)
		}),
		bus.Subscribe(func(events.CaptureFaultEvent) {
			captureFaults.Inc()
		}),
		bus.Subscribe(func(events.FrameDroppedEvent) {
			framesDropped.Inc()
		}),
		bus.Subscribe(func(events.ViewerConnectedEvent) {
			viewerConnected.Set(1)
			viewerSessions.Inc()
		}),
		bus.Subscribe(func(e events.ViewerDisconnectedEvent) {
			viewerConnected.Set(0)
			framesSent.Add(float64(e.FramesSent))
			bytesSent.Add(float64(e.BytesSent))
		}),
	)
	return b
}

// Stop removes the bus subscriptions.
func (b *Bridge) Stop() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
}
