package logging

import (
	"sync"
	"time"
)

// LogEntry is one log record kept in the history ring.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries. It is safe for concurrent
// use.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int // slot the next entry goes to
	full    bool
}

// NewRingBuffer creates a ring holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{entries: make([]LogEntry, max(size, 1))}
}

// Write stores entry, dropping the oldest one when the ring is full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.entries[rb.next] = entry
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
}

// ReadAll returns the entries oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Tail("", 0)
}

// Tail returns up to limit of the newest entries of module, oldest first.
// An empty module matches every entry; a limit of 0 or less returns all of
// them.
func (rb *RingBuffer) Tail(module string, limit int) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	n := rb.count()
	var out []LogEntry
	// Walk newest to oldest so the limit keeps the recent end.
	for i := 1; i <= n; i++ {
		e := rb.entries[(rb.next-i+len(rb.entries))%len(rb.entries)]
		if module != "" && e.Module != module {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Count returns the number of entries held.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count()
}

func (rb *RingBuffer) count() int {
	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}
