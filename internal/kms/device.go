package kms

// PlaneType classifies a hardware plane.
type PlaneType int

// Plane types, numbered like the DRM "type" plane property.
const (
	PlaneOverlay PlaneType = iota
	PlanePrimary
	PlaneCursor
	PlaneUnknown
)

func (t PlaneType) String() string {
	switch t {
	case PlaneOverlay:
		return "OVERLAY"
	case PlanePrimary:
		return "PRIMARY"
	case PlaneCursor:
		return "CURSOR"
	default:
		return "UNKNOWN"
	}
}

// PlaneDescriptor describes a hardware plane and what it can scan out.
type PlaneDescriptor struct {
	ID            uint32
	Formats       []FourCC
	PossibleCRTCs uint32
	Type          PlaneType
}

// Supports reports whether the plane lists format f.
func (p PlaneDescriptor) Supports(f FourCC) bool {
	for _, pf := range p.Formats {
		if pf == f {
			return true
		}
	}
	return false
}

// Capabilities enumerates the display resources needed for negotiation.
type Capabilities interface {
	// CRTCs returns the global CRTC id list. The index of a CRTC in this
	// list is the bit tested in PlaneDescriptor.PossibleCRTCs.
	CRTCs() ([]uint32, error)
	// PlaneIDs returns all plane ids.
	PlaneIDs() ([]uint32, error)
	// Plane returns a plane's formats and CRTC mask. Type is left for the
	// caller to classify.
	Plane(id uint32) (PlaneDescriptor, error)
	// PropertyValue looks a named property of a plane up.
	PropertyValue(objectID uint32, name string) (uint64, bool)
}

// PlaneBinding is the per-plane layout of a framebuffer object.
type PlaneBinding struct {
	Handle uint32
	Pitch  uint32
	Offset uint32
}

// Rect is a placement rectangle. Source rectangles are 16.16 fixed point.
type Rect struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Memory allocates, maps and presents device buffers.
type Memory interface {
	Allocate(width, height, bpp uint32) (handle uint32, size uint64, err error)
	BindFramebuffer(width, height uint32, format FourCC, planes []PlaneBinding) (uint32, error)
	Map(handle uint32, size uint64) ([]byte, error)
	Unmap(mem []byte) error
	UnbindFramebuffer(id uint32) error
	Free(handle uint32) error
	CommitPlane(planeID, crtcID, fbID uint32, dst, src Rect) error
}

// Device is everything a session needs from the display.
type Device interface {
	Capabilities
	Memory
}
