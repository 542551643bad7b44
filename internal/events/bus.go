package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(StreamingStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Type switch calls the generic Publish with the concrete type
	switch e := ev.(type) {
	case StreamingStartedEvent:
		event.Publish(b.dispatcher, e)
	case StreamingStoppedEvent:
		event.Publish(b.dispatcher, e)
	case ViewerConnectedEvent:
		event.Publish(b.dispatcher, e)
	case ViewerDisconnectedEvent:
		event.Publish(b.dispatcher, e)
	case CaptureFaultEvent:
		event.Publish(b.dispatcher, e)
	case FrameDroppedEvent:
		event.Publish(b.dispatcher, e)
	case ConfigReloadedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e StreamingStartedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StreamingStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StreamingStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ViewerConnectedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ViewerDisconnectedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CaptureFaultEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameDroppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConfigReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// No-op unsubscribe for unrecognized handler types
		return func() {}
	}
}
