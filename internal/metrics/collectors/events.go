// Package collectors feeds the display metrics from the event bus.
package collectors

import (
	"sync"

	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/metrics"
)

// EventCollector updates the display metrics from session events.
type EventCollector struct {
	bus    *events.Bus
	mu     sync.Mutex
	unsubs []func()
}

// NewEventCollector creates a collector for the given bus.
func NewEventCollector(bus *events.Bus) *EventCollector {
	return &EventCollector{bus: bus}
}

// Start subscribes to the bus. Calling Start twice is a no-op.
func (c *EventCollector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubs != nil {
		return
	}
	c.unsubs = []func(){
		c.bus.Subscribe(func(e events.SessionOpenedEvent) {
			metrics.SessionOpened(e.PlaneID, e.FourCC, e.Chroma, e.BufferBytes)
		}),
		c.bus.Subscribe(func(events.SessionClosedEvent) {
			metrics.SessionClosed()
		}),
		c.bus.Subscribe(func(e events.FramePresentedEvent) {
			metrics.FramePresented(e.PlaneID)
		}),
		c.bus.Subscribe(func(e events.CommitFailedEvent) {
			metrics.CommitFailed(e.PlaneID)
		}),
		c.bus.Subscribe(func(events.DisplayHotplugEvent) {
			metrics.Hotplug()
		}),
	}
}

// Stop unsubscribes from the bus.
func (c *EventCollector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}
