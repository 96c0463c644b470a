//go:build linux

package drm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Card is an open DRM device node.
type Card struct {
	fd   int
	path string
}

// FindCards returns the DRM primary nodes present on the system.
func FindCards() ([]string, error) {
	matches, err := filepath.Glob("/dev/dri/card*")
	if err != nil {
		return nil, fmt.Errorf("failed to list DRM cards: %w", err)
	}
	cards := make([]string, 0, len(matches))
	for _, m := range matches {
		if IsCard(m) {
			cards = append(cards, m)
		}
	}
	sort.Strings(cards)
	return cards, nil
}

// OpenCard opens a DRM device and enables universal planes so primary and
// cursor planes are reported alongside overlays.
func OpenCard(path string) (*Card, error) {
	fd, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	c := &Card{fd: fd, path: path}
	if err := c.SetClientCap(ClientCapUniversalPlanes, 1); err != nil {
		close(fd)
		return nil, fmt.Errorf("failed to enable universal planes on %s: %w", path, err)
	}
	return c, nil
}

// Path returns the device node path.
func (c *Card) Path() string {
	return c.path
}

// Close closes the device node.
func (c *Card) Close() error {
	return close(c.fd)
}

// SetClientCap sets a DRM client capability.
func (c *Card) SetClientCap(capability, value uint64) error {
	req := setClientCap{capability: capability, value: value}
	if err := ioctl(c.fd, ioctlSetClientCap, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("DRM_IOCTL_SET_CLIENT_CAP: %w", err)
	}
	return nil
}

// Resources returns the card's mode object ids.
func (c *Card) Resources() (*Resources, error) {
	var res modeCardRes
	if err := ioctl(c.fd, ioctlModeGetResources, unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("MODE_GETRESOURCES (count): %w", err)
	}

	fbs := make([]uint32, res.countFbs)
	crtcs := make([]uint32, res.countCrtcs)
	connectors := make([]uint32, res.countConnectors)
	encoders := make([]uint32, res.countEncoders)

	res.fbIDPtr = ptr(fbs)
	res.crtcIDPtr = ptr(crtcs)
	res.connectorIDPtr = ptr(connectors)
	res.encoderIDPtr = ptr(encoders)

	// Hotplug between the two calls can grow the counts; the kernel then
	// only fills what fits.
	if err := ioctl(c.fd, ioctlModeGetResources, unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("MODE_GETRESOURCES (fill): %w", err)
	}

	return &Resources{
		Framebuffers: fbs[:min(len(fbs), int(res.countFbs))],
		Crtcs:        crtcs[:min(len(crtcs), int(res.countCrtcs))],
		Connectors:   connectors[:min(len(connectors), int(res.countConnectors))],
		Encoders:     encoders[:min(len(encoders), int(res.countEncoders))],
		MinWidth:     res.minWidth,
		MaxWidth:     res.maxWidth,
		MinHeight:    res.minHeight,
		MaxHeight:    res.maxHeight,
	}, nil
}

// Crtc returns the current state of a CRTC.
func (c *Card) Crtc(id uint32) (*Crtc, error) {
	req := modeCrtc{crtcID: id}
	if err := ioctl(c.fd, ioctlModeGetCrtc, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("MODE_GETCRTC %d: %w", id, err)
	}
	return &Crtc{
		ID:        req.crtcID,
		FbID:      req.fbID,
		X:         req.x,
		Y:         req.y,
		ModeValid: req.modeValid != 0,
		Mode:      req.mode,
	}, nil
}

// PlaneResources returns the ids of all planes on the card.
func (c *Card) PlaneResources() ([]uint32, error) {
	var res modeGetPlaneRes
	if err := ioctl(c.fd, ioctlModeGetPlaneResources, unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("MODE_GETPLANERESOURCES (count): %w", err)
	}
	if res.countPlanes == 0 {
		return nil, nil
	}

	ids := make([]uint32, res.countPlanes)
	res.planeIDPtr = ptr(ids)
	if err := ioctl(c.fd, ioctlModeGetPlaneResources, unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("MODE_GETPLANERESOURCES (fill): %w", err)
	}
	return ids[:min(len(ids), int(res.countPlanes))], nil
}

// Plane returns a plane and its supported formats.
func (c *Card) Plane(id uint32) (*Plane, error) {
	req := modeGetPlane{planeID: id}
	if err := ioctl(c.fd, ioctlModeGetPlane, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("MODE_GETPLANE %d (count): %w", id, err)
	}

	formats := make([]uint32, req.countFormatTypes)
	if len(formats) > 0 {
		req.formatTypePtr = ptr(formats)
		if err := ioctl(c.fd, ioctlModeGetPlane, unsafe.Pointer(&req)); err != nil {
			return nil, fmt.Errorf("MODE_GETPLANE %d (fill): %w", id, err)
		}
	}

	return &Plane{
		ID:            req.planeID,
		CrtcID:        req.crtcID,
		FbID:          req.fbID,
		PossibleCrtcs: req.possibleCrtcs,
		GammaSize:     req.gammaSize,
		Formats:       formats[:min(len(formats), int(req.countFormatTypes))],
	}, nil
}

// ObjectProperties returns the property ids and values attached to a mode object.
func (c *Card) ObjectProperties(objectID, objectType uint32) (*Properties, error) {
	req := modeObjGetProperties{objID: objectID, objType: objectType}
	if err := ioctl(c.fd, ioctlModeObjGetProperties, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("MODE_OBJ_GETPROPERTIES %d (count): %w", objectID, err)
	}

	ids := make([]uint32, req.countProps)
	values := make([]uint64, req.countProps)
	if len(ids) > 0 {
		req.propsPtr = ptr(ids)
		req.propValuesPtr = ptr(values)
		if err := ioctl(c.fd, ioctlModeObjGetProperties, unsafe.Pointer(&req)); err != nil {
			return nil, fmt.Errorf("MODE_OBJ_GETPROPERTIES %d (fill): %w", objectID, err)
		}
	}

	n := min(len(ids), int(req.countProps))
	return &Properties{
		ObjectID:   objectID,
		ObjectType: objectType,
		IDs:        ids[:n],
		Values:     values[:n],
	}, nil
}

// Property returns the name and flags of a property. Values and enum
// entries are not fetched.
func (c *Card) Property(id uint32) (*Property, error) {
	req := modeGetProperty{propID: id}
	if err := ioctl(c.fd, ioctlModeGetProperty, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("MODE_GETPROPERTY %d: %w", id, err)
	}
	name, _, _ := bytes.Cut(req.name[:], []byte{0})
	return &Property{
		ID:    req.propID,
		Flags: req.flags,
		Name:  string(name),
	}, nil
}

// PropertyValue looks up a property of a mode object by name.
func (c *Card) PropertyValue(objectID, objectType uint32, name string) (uint64, bool, error) {
	props, err := c.ObjectProperties(objectID, objectType)
	if err != nil {
		return 0, false, err
	}
	for i, id := range props.IDs {
		prop, err := c.Property(id)
		if err != nil {
			return 0, false, err
		}
		if prop.Name == name {
			return props.Values[i], true, nil
		}
	}
	return 0, false, nil
}

// CreateDumb allocates a dumb buffer.
func (c *Card) CreateDumb(width, height, bpp uint32) (*DumbBuffer, error) {
	req := modeCreateDumb{width: width, height: height, bpp: bpp}
	if err := ioctl(c.fd, ioctlModeCreateDumb, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("MODE_CREATE_DUMB %dx%d@%d: %w", width, height, bpp, err)
	}
	return &DumbBuffer{
		Handle: req.handle,
		Pitch:  req.pitch,
		Size:   req.size,
	}, nil
}

// DestroyDumb frees a dumb buffer.
func (c *Card) DestroyDumb(handle uint32) error {
	req := modeDestroyDumb{handle: handle}
	if err := ioctl(c.fd, ioctlModeDestroyDumb, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("MODE_DESTROY_DUMB %d: %w", handle, err)
	}
	return nil
}

// MapDumb maps a dumb buffer into the process address space.
func (c *Card) MapDumb(handle uint32, size uint64) ([]byte, error) {
	req := modeMapDumb{handle: handle}
	if err := ioctl(c.fd, ioctlModeMapDumb, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("MODE_MAP_DUMB %d: %w", handle, err)
	}
	mem, err := unix.Mmap(c.fd, int64(req.offset), int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap dumb buffer %d: %w", handle, err)
	}
	return mem, nil
}

// Unmap releases a mapping returned by MapDumb.
func (c *Card) Unmap(mem []byte) error {
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// AddFB2 creates a framebuffer object over one or more buffer handles.
// handles, pitches and offsets are indexed by format plane.
func (c *Card) AddFB2(width, height, format uint32, handles, pitches, offsets []uint32) (uint32, error) {
	if len(handles) > maxFramebufferPlanes || len(pitches) != len(handles) || len(offsets) != len(handles) {
		return 0, fmt.Errorf("MODE_ADDFB2: invalid plane layout (%d handles, %d pitches, %d offsets)",
			len(handles), len(pitches), len(offsets))
	}
	req := modeFBCmd2{width: width, height: height, pixelFormat: format}
	copy(req.handles[:], handles)
	copy(req.pitches[:], pitches)
	copy(req.offsets[:], offsets)
	if err := ioctl(c.fd, ioctlModeAddFB2, unsafe.Pointer(&req)); err != nil {
		return 0, fmt.Errorf("MODE_ADDFB2 %dx%d %s: %w", width, height, FormatFourCC(format), err)
	}
	return req.fbID, nil
}

// RmFB removes a framebuffer object.
func (c *Card) RmFB(fbID uint32) error {
	id := fbID
	if err := ioctl(c.fd, ioctlModeRmFB, unsafe.Pointer(&id)); err != nil {
		return fmt.Errorf("MODE_RMFB %d: %w", fbID, err)
	}
	return nil
}

// SetPlane binds a framebuffer to a plane on a CRTC.
func (c *Card) SetPlane(r SetPlaneRequest) error {
	req := modeSetPlane{
		planeID: r.PlaneID,
		crtcID:  r.CrtcID,
		fbID:    r.FbID,
		flags:   r.Flags,
		crtcX:   r.CrtcX,
		crtcY:   r.CrtcY,
		crtcW:   r.CrtcW,
		crtcH:   r.CrtcH,
		srcX:    r.SrcX,
		srcY:    r.SrcY,
		srcW:    r.SrcW,
		srcH:    r.SrcH,
	}
	if err := ioctl(c.fd, ioctlModeSetPlane, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("MODE_SETPLANE plane %d fb %d: %w", r.PlaneID, r.FbID, err)
	}
	return nil
}

// IsCard reports whether path looks like a DRM primary node.
func IsCard(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
