//go:build linux

package drm

import "unsafe"

// Compile-time struct size assertions.
// These will cause build failures if struct sizes don't match kernel expectations.
// Explicit padding keeps the layouts identical on 32-bit arm, where Go aligns
// uint64 to 4 bytes but the kernel aligns it to 8.
var (
	_ [64]byte  = [unsafe.Sizeof(modeCardRes{})]byte{}
	_ [104]byte = [unsafe.Sizeof(modeCrtc{})]byte{}
	_ [16]byte  = [unsafe.Sizeof(modeGetPlaneRes{})]byte{}
	_ [32]byte  = [unsafe.Sizeof(modeGetPlane{})]byte{}
	_ [48]byte  = [unsafe.Sizeof(modeSetPlane{})]byte{}
	_ [32]byte  = [unsafe.Sizeof(modeObjGetProperties{})]byte{}
	_ [64]byte  = [unsafe.Sizeof(modeGetProperty{})]byte{}
	_ [32]byte  = [unsafe.Sizeof(modeCreateDumb{})]byte{}
	_ [16]byte  = [unsafe.Sizeof(modeMapDumb{})]byte{}
	_ [4]byte   = [unsafe.Sizeof(modeDestroyDumb{})]byte{}
	_ [104]byte = [unsafe.Sizeof(modeFBCmd2{})]byte{}
	_ [16]byte  = [unsafe.Sizeof(setClientCap{})]byte{}
)

// IOCTL constants. DRM ioctls are _IOWR('d', nr, size) unless noted.
const (
	ioctlSetClientCap          = 0x4010640d // _IOW
	ioctlModeGetResources      = 0xc04064a0
	ioctlModeGetCrtc           = 0xc06864a1
	ioctlModeGetProperty       = 0xc04064aa
	ioctlModeRmFB              = 0xc00464af
	ioctlModeCreateDumb        = 0xc02064b2
	ioctlModeMapDumb           = 0xc01064b3
	ioctlModeDestroyDumb       = 0xc00464b4
	ioctlModeGetPlaneResources = 0xc01064b5
	ioctlModeGetPlane          = 0xc02064b6
	ioctlModeSetPlane          = 0xc03064b7
	ioctlModeAddFB2            = 0xc06864b8
	ioctlModeObjGetProperties  = 0xc02064b9
)

const (
	propNameLen          = 32
	maxFramebufferPlanes = 4
)

type modeCardRes struct {
	fbIDPtr         uint64
	crtcIDPtr       uint64
	connectorIDPtr  uint64
	encoderIDPtr    uint64
	countFbs        uint32
	countCrtcs      uint32
	countConnectors uint32
	countEncoders   uint32
	minWidth        uint32
	maxWidth        uint32
	minHeight       uint32
	maxHeight       uint32
}

type modeCrtc struct {
	setConnectorsPtr uint64
	countConnectors  uint32
	crtcID           uint32
	fbID             uint32
	x                uint32
	y                uint32
	gammaSize        uint32
	modeValid        uint32
	mode             ModeInfo
}

type modeGetPlaneRes struct {
	planeIDPtr  uint64
	countPlanes uint32
	_           uint32
}

type modeGetPlane struct {
	planeID          uint32
	crtcID           uint32
	fbID             uint32
	possibleCrtcs    uint32
	gammaSize        uint32
	countFormatTypes uint32
	formatTypePtr    uint64
}

type modeSetPlane struct {
	planeID uint32
	crtcID  uint32
	fbID    uint32
	flags   uint32
	crtcX   int32
	crtcY   int32
	crtcW   uint32
	crtcH   uint32
	srcX    uint32
	srcY    uint32
	srcH    uint32
	srcW    uint32
}

type modeObjGetProperties struct {
	propsPtr      uint64
	propValuesPtr uint64
	countProps    uint32
	objID         uint32
	objType       uint32
	_             uint32
}

type modeGetProperty struct {
	valuesPtr      uint64
	enumBlobPtr    uint64
	propID         uint32
	flags          uint32
	name           [propNameLen]byte
	countValues    uint32
	countEnumBlobs uint32
}

type modeCreateDumb struct {
	height uint32
	width  uint32
	bpp    uint32
	flags  uint32
	handle uint32
	pitch  uint32
	size   uint64
}

type modeMapDumb struct {
	handle uint32
	pad    uint32
	offset uint64
}

type modeDestroyDumb struct {
	handle uint32
}

type modeFBCmd2 struct {
	fbID        uint32
	width       uint32
	height      uint32
	pixelFormat uint32
	flags       uint32
	handles     [maxFramebufferPlanes]uint32
	pitches     [maxFramebufferPlanes]uint32
	offsets     [maxFramebufferPlanes]uint32
	_           uint32
	modifier    [maxFramebufferPlanes]uint64
}

type setClientCap struct {
	capability uint64
	value      uint64
}
