//go:build !linux

package devices

import (
	"context"
	"errors"
	"time"

	"github.com/smazurov/kmsvout/internal/events"
)

// HotplugWatcher is unavailable off Linux.
type HotplugWatcher struct{}

// NewHotplugWatcher returns a watcher whose Start always fails.
func NewHotplugWatcher(*events.Bus, time.Duration) *HotplugWatcher {
	return &HotplugWatcher{}
}

// Start reports that hotplug monitoring is not supported.
func (w *HotplugWatcher) Start(context.Context) error {
	return errors.New("display hotplug monitoring requires linux")
}

// Stop does nothing.
func (w *HotplugWatcher) Stop() {}
