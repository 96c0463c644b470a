// Package systemd reports service state to the service manager. Every call
// is a no-op when the process was not started by systemd.
package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages.
type Notifier struct {
	logger *slog.Logger
	notify func(unsetEnv bool, state string) (bool, error)
}

// NewNotifier creates a notifier that logs send failures to logger.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger, notify: daemon.SdNotify}
}

func (n *Notifier) send(state string) {
	if n == nil {
		return
	}
	if _, err := n.notify(false, state); err != nil {
		n.logger.Warn("Failed to notify service manager", "state", state, "error", err)
	}
}

// Ready reports that the first display session is up.
func (n *Notifier) Ready() { n.send(daemon.SdNotifyReady) }

// Stopping reports that shutdown has begun.
func (n *Notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

// Reloading reports that the display is being reopened.
func (n *Notifier) Reloading() { n.send(daemon.SdNotifyReloading) }

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) {
	n.send("STATUS=" + fmt.Sprintf(format, args...))
}

// RunWatchdog pings the watchdog at half the configured interval until ctx
// is done. It returns at once when the unit has no watchdog.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	if n == nil {
		return
	}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
