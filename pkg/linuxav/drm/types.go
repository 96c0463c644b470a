//go:build linux

package drm

// Resources lists the mode objects of a card.
type Resources struct {
	Framebuffers []uint32
	Crtcs        []uint32
	Connectors   []uint32
	Encoders     []uint32
	MinWidth     uint32
	MaxWidth     uint32
	MinHeight    uint32
	MaxHeight    uint32
}

// ModeInfo mirrors struct drm_mode_modeinfo.
type ModeInfo struct {
	Clock      uint32
	Hdisplay   uint16
	HsyncStart uint16
	HsyncEnd   uint16
	Htotal     uint16
	Hskew      uint16
	Vdisplay   uint16
	VsyncStart uint16
	VsyncEnd   uint16
	Vtotal     uint16
	Vscan      uint16
	Vrefresh   uint32
	Flags      uint32
	Type       uint32
	Name       [32]byte
}

// Crtc describes the current state of a CRTC.
type Crtc struct {
	ID        uint32
	FbID      uint32
	X, Y      uint32
	ModeValid bool
	Mode      ModeInfo
}

// Width returns the active horizontal resolution of the CRTC.
func (c Crtc) Width() uint32 { return uint32(c.Mode.Hdisplay) }

// Height returns the active vertical resolution of the CRTC.
func (c Crtc) Height() uint32 { return uint32(c.Mode.Vdisplay) }

// Plane describes a hardware plane and the formats it can scan out.
type Plane struct {
	ID            uint32
	CrtcID        uint32
	FbID          uint32
	PossibleCrtcs uint32
	GammaSize     uint32
	Formats       []uint32
}

// Properties holds the property ids and current values of a mode object.
type Properties struct {
	ObjectID   uint32
	ObjectType uint32
	IDs        []uint32
	Values     []uint64
}

// Property describes a single mode object property.
type Property struct {
	ID    uint32
	Flags uint32
	Name  string
}

// DumbBuffer is the result of a dumb buffer allocation.
type DumbBuffer struct {
	Handle uint32
	Pitch  uint32
	Size   uint64
}

// SetPlaneRequest describes a plane commit. Source coordinates are 16.16
// fixed point.
type SetPlaneRequest struct {
	PlaneID uint32
	CrtcID  uint32
	FbID    uint32
	Flags   uint32
	CrtcX   int32
	CrtcY   int32
	CrtcW   uint32
	CrtcH   uint32
	SrcX    uint32
	SrcY    uint32
	SrcW    uint32
	SrcH    uint32
}

// Object types.
const (
	ObjectCRTC      = 0xcccccccc
	ObjectConnector = 0xc0c0c0c0
	ObjectPlane     = 0xeeeeeeee
)

// Plane types as reported by the "type" plane property.
const (
	PlaneTypeOverlay = 0
	PlaneTypePrimary = 1
	PlaneTypeCursor  = 2
)

// Client capabilities.
const (
	ClientCapUniversalPlanes = 2
	ClientCapAtomic          = 3
)
