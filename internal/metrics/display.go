// Package metrics provides Prometheus metrics for the display pipeline.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "kmsvout"

var (
	framesPresented = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "display",
		Name:      "frames_presented_total",
		Help:      "Frames committed to a plane",
	}, []string{"plane"})

	commitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "display",
		Name:      "commit_failures_total",
		Help:      "Plane commits rejected by the device",
	}, []string{"plane"})

	sessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "display",
		Name:      "sessions_opened_total",
		Help:      "Display sessions opened",
	})

	hotplugs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "display",
		Name:      "hotplug_events_total",
		Help:      "Display hotplug notifications received",
	})

	bufferBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "display",
		Name:      "buffer_bytes",
		Help:      "Device memory held by the buffer ring",
	})

	formatInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "display",
		Name:      "format_info",
		Help:      "Negotiated format of the open session, value is always 1",
	}, []string{"plane", "fourcc", "chroma"})

	statsMu sync.RWMutex
	stats   DisplayStats
)

// DisplayStats is a snapshot of the display counters of the current
// session.
type DisplayStats struct {
	Open           bool
	PlaneID        uint32
	FourCC         string
	Chroma         string
	BufferBytes    uint64
	Frames         uint64
	CommitFailures uint64
}

// SessionOpened records a new session and its negotiated format.
func SessionOpened(planeID uint32, fourcc, chroma string, bytes uint64) {
	formatInfo.Reset()
	formatInfo.WithLabelValues(planeLabel(planeID), fourcc, chroma).Set(1)
	bufferBytes.Set(float64(bytes))
	sessionsOpened.Inc()

	statsMu.Lock()
	stats = DisplayStats{Open: true, PlaneID: planeID, FourCC: fourcc, Chroma: chroma, BufferBytes: bytes}
	statsMu.Unlock()
}

// SessionClosed clears the per-session gauges.
func SessionClosed() {
	formatInfo.Reset()
	bufferBytes.Set(0)

	statsMu.Lock()
	stats.Open = false
	stats.BufferBytes = 0
	statsMu.Unlock()
}

// FramePresented counts a successful commit.
func FramePresented(planeID uint32) {
	framesPresented.WithLabelValues(planeLabel(planeID)).Inc()

	statsMu.Lock()
	stats.Frames++
	statsMu.Unlock()
}

// CommitFailed counts a rejected commit.
func CommitFailed(planeID uint32) {
	commitFailures.WithLabelValues(planeLabel(planeID)).Inc()

	statsMu.Lock()
	stats.CommitFailures++
	statsMu.Unlock()
}

// Hotplug counts a display hotplug notification.
func Hotplug() {
	hotplugs.Inc()
}

// Stats returns the counters of the current or last session.
func Stats() DisplayStats {
	statsMu.RLock()
	defer statsMu.RUnlock()
	return stats
}

func planeLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
