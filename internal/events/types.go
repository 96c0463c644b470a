package events

// Event type constants for kelindar/event.
const (
	TypeSessionOpened uint32 = iota + 1
	TypeSessionClosed
	TypeFramePresented
	TypeCommitFailed
	TypeDisplayHotplug
	TypeOverridesChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionOpenedEvent is published once a display session has negotiated a
// format and built its buffer ring.
type SessionOpenedEvent struct {
	Device      string `json:"device"`
	PlaneID     uint32 `json:"plane_id"`
	CrtcID      uint32 `json:"crtc_id"`
	FourCC      string `json:"fourcc"`
	Chroma      string `json:"chroma"`
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	Buffers     int    `json:"buffers"`
	BufferBytes uint64 `json:"buffer_bytes"`
	Timestamp   string `json:"timestamp"`
}

// Type returns the event type identifier for SessionOpenedEvent.
func (e SessionOpenedEvent) Type() uint32 { return TypeSessionOpened }

// SessionClosedEvent is published after a session has released its buffers.
type SessionClosedEvent struct {
	PlaneID   uint32 `json:"plane_id"`
	Frames    uint64 `json:"frames"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for SessionClosedEvent.
func (e SessionClosedEvent) Type() uint32 { return TypeSessionClosed }

// FramePresentedEvent is published for every successful plane commit.
type FramePresentedEvent struct {
	PlaneID       uint32 `json:"plane_id"`
	FramebufferID uint32 `json:"framebuffer_id"`
	BufferIndex   int    `json:"buffer_index"`
	Sequence      uint64 `json:"sequence"`
}

// Type returns the event type identifier for FramePresentedEvent.
func (e FramePresentedEvent) Type() uint32 { return TypeFramePresented }

// CommitFailedEvent is published when the device rejects a plane commit.
type CommitFailedEvent struct {
	PlaneID       uint32 `json:"plane_id"`
	FramebufferID uint32 `json:"framebuffer_id"`
	BufferIndex   int    `json:"buffer_index"`
	Error         string `json:"error"`
}

// Type returns the event type identifier for CommitFailedEvent.
func (e CommitFailedEvent) Type() uint32 { return TypeCommitFailed }

// DisplayHotplugEvent represents a kernel hotplug notification for a DRM device.
type DisplayHotplugEvent struct {
	Action    string `json:"action"`
	DevName   string `json:"dev_name"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DisplayHotplugEvent.
func (e DisplayHotplugEvent) Type() uint32 { return TypeDisplayHotplug }

// OverridesChangedEvent is published when reloaded configuration changes
// the forced pixel formats.
type OverridesChangedEvent struct {
	VLCChroma string `json:"vlc_chroma"`
	DRMChroma string `json:"drm_chroma"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for OverridesChangedEvent.
func (e OverridesChangedEvent) Type() uint32 { return TypeOverridesChanged }
