//go:build linux

// Package hotplug monitors kernel uevents over netlink without cgo. It is
// used to notice display connectors appearing and disappearing.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"syscall"
)

// Action constants for device events.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// Subsystem names.
const (
	SubsystemDRM = "drm"
	SubsystemUSB = "usb"
)

// Event represents a kernel device event.
type Event struct {
	Action    string            // "add", "remove", "change", etc.
	KObj      string            // Kernel object path: /devices/pci0000:00/...
	Subsystem string            // "drm", "usb", ...
	DevType   string            // "drm_minor" for card nodes
	DevName   string            // Device name relative to /dev, e.g. "dri/card0"
	DevPath   string            // Sysfs path of the device
	Env       map[string]string // All environment variables from the event
}

// IsDisplayHotplug reports whether the event signals a change in the set of
// connected displays: a connector probe on a DRM card, or a card node being
// added or removed.
func (e Event) IsDisplayHotplug() bool {
	if e.Subsystem != SubsystemDRM {
		return false
	}
	switch e.Action {
	case ActionChange:
		return e.Env["HOTPLUG"] == "1"
	case ActionAdd, ActionRemove:
		return e.IsCard()
	default:
		return false
	}
}

// IsCard reports whether the event is about a primary card node.
func (e Event) IsCard() bool {
	return strings.HasPrefix(e.DevName, "dri/card")
}

// DeviceNode returns the /dev path of the event's device node, or "".
func (e Event) DeviceNode() string {
	if e.DevName == "" {
		return ""
	}
	return "/dev/" + e.DevName
}

// Monitor listens for kernel device events via netlink.
type Monitor struct {
	fd        int
	filters   map[string]struct{}
	filtersMu sync.RWMutex
}

// netlinkKobjectUEvent is the netlink protocol for kernel object events.
const netlinkKobjectUEvent = 15

// NewMonitor opens a netlink socket bound to the kernel uevent group.
func NewMonitor() (*Monitor, error) {
	fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_DGRAM|syscall.SOCK_CLOEXEC, netlinkKobjectUEvent)
	if err != nil {
		return nil, err
	}

	addr := &syscall.SockaddrNetlink{
		Family: syscall.AF_NETLINK,
		Groups: 1, // kernel broadcast group
	}
	if err := syscall.Bind(fd, addr); err != nil {
		syscall.Close(fd)
		return nil, err
	}

	return newMonitor(fd), nil
}

func newMonitor(fd int) *Monitor {
	return &Monitor{fd: fd, filters: make(map[string]struct{})}
}

// AddSubsystemFilter restricts Run to events of the given subsystems. With
// no filter every event passes. Safe for concurrent use.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.filtersMu.Lock()
	m.filters[subsystem] = struct{}{}
	m.filtersMu.Unlock()
}

func (m *Monitor) accepts(e *Event) bool {
	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()
	if len(m.filters) == 0 {
		return true
	}
	_, ok := m.filters[e.Subsystem]
	return ok
}

// Close releases the monitor resources.
func (m *Monitor) Close() error {
	return syscall.Close(m.fd)
}

// Run sends matching events to the channel until ctx is cancelled or the
// socket fails. The channel is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	// A receive timeout lets the loop notice cancellation.
	tv := syscall.Timeval{Sec: 1}
	if err := syscall.SetsockoptTimeval(m.fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
		return err
	}

	buf := make([]byte, 8192)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, _, err := syscall.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR) {
				continue
			}
			return err
		}
		if n == 0 {
			continue
		}

		event := ParseUEvent(buf[:n])
		if event == nil || !m.accepts(event) {
			continue
		}

		select {
		case events <- *event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ParseUEvent parses a kernel uevent message of the form
// "ACTION@KOBJ\0KEY=VALUE\0KEY=VALUE\0...". Messages re-broadcast by udev
// carry a binary "libudev" header which is skipped.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 {
		return nil
	}

	if bytes.HasPrefix(data, []byte("libudev")) {
		for i := 0; i < len(data)-1; i++ {
			if data[i] != 0 {
				continue
			}
			rest := data[i+1:]
			field := rest
			if end := bytes.IndexByte(rest, 0); end >= 0 {
				field = rest[:end]
			}
			if idx := bytes.IndexByte(field, '@'); idx > 0 && idx < 20 {
				data = rest
				break
			}
		}
	}

	parts := bytes.Split(data, []byte{0})
	if len(parts[0]) == 0 {
		return nil
	}

	header := string(parts[0])
	atIdx := strings.Index(header, "@")
	if atIdx < 1 {
		return nil
	}

	event := &Event{
		Action: header[:atIdx],
		KObj:   header[atIdx+1:],
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		case "DEVPATH":
			event.DevPath = value
		}
	}

	return event
}
