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

// Publish publishes an event to all subscribers. A nil bus drops the event,
// so components can treat the bus as optional.
// Usage: bus.Publish(FramePresentedEvent{...})
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case SessionOpenedEvent:
		event.Publish(b.dispatcher, e)
	case SessionClosedEvent:
		event.Publish(b.dispatcher, e)
	case FramePresentedEvent:
		event.Publish(b.dispatcher, e)
	case CommitFailedEvent:
		event.Publish(b.dispatcher, e)
	case DisplayHotplugEvent:
		event.Publish(b.dispatcher, e)
	case OverridesChangedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e CommitFailedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SessionOpenedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionClosedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FramePresentedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CommitFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DisplayHotplugEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OverridesChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

// SubscribeToChannel bridges a callback subscription to a channel. Events are
// dropped when the channel is full so a slow reader never blocks publishers.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- T) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// Forward is SubscribeToChannel for a channel shared by several event types.
func Forward[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
