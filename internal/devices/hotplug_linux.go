//go:build linux

package devices

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/pkg/linuxav/hotplug"
)

// HotplugWatcher publishes a DisplayHotplugEvent for each burst of DRM
// hotplug uevents.
type HotplugWatcher struct {
	bus      *events.Bus
	debounce time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewHotplugWatcher creates a watcher. Events closer together than
// debounce are reported once.
func NewHotplugWatcher(bus *events.Bus, debounce time.Duration) *HotplugWatcher {
	return &HotplugWatcher{
		bus:      bus,
		debounce: debounce,
		logger:   logging.GetLogger("devices"),
	}
}

// Start opens the netlink monitor and begins forwarding events.
func (w *HotplugWatcher) Start(ctx context.Context) error {
	mon, err := hotplug.NewMonitor()
	if err != nil {
		return err
	}
	mon.AddSubsystemFilter(hotplug.SubsystemDRM)

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	raw := make(chan hotplug.Event, 16)

	go func() {
		defer mon.Close()
		if err := mon.Run(ctx, raw); err != nil && ctx.Err() == nil {
			w.logger.Error("Hotplug monitor failed", "error", err)
		}
	}()
	go func() {
		defer close(w.done)
		w.forward(ctx, raw)
	}()

	w.logger.Info("Display hotplug monitoring started")
	return nil
}

// Stop ends monitoring and waits for the forwarder to exit.
func (w *HotplugWatcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
}

// forward coalesces display hotplug events from in and publishes the last
// one of each burst.
func (w *HotplugWatcher) forward(ctx context.Context, in <-chan hotplug.Event) {
	var (
		pending *hotplug.Event
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			if !ev.IsDisplayHotplug() {
				continue
			}
			w.logger.Debug("Display uevent", "action", ev.Action, "dev", ev.DevName)
			pending = &ev
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if pending == nil {
				continue
			}
			w.logger.Info("Display hotplug", "action", pending.Action, "dev", pending.DevName)
			w.bus.Publish(events.DisplayHotplugEvent{
				Action:    pending.Action,
				DevName:   pending.DevName,
				Timestamp: time.Now().Format(time.RFC3339),
			})
			pending = nil
		}
	}
}
