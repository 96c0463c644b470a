// Package kmstest provides an in-memory display device for testing code
// built on package kms.
package kmstest

import (
	"errors"
	"sync"

	"github.com/smazurov/kmsvout/internal/kms"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected failure")

// Commit records one CommitPlane call.
type Commit struct {
	PlaneID uint32
	CrtcID  uint32
	FbID    uint32
	Dst     kms.Rect
	Src     kms.Rect
}

// Device is a fake kms.Device. Configure the exported fields before use.
// Operations counted by the Fail*At fields fail on the given 1-based call.
type Device struct {
	CRTCList  []uint32
	PlaneList []kms.PlaneDescriptor
	// Types holds the "type" property of planes; planes missing from the
	// map have no such property.
	Types map[uint32]kms.PlaneType

	CRTCErr     error
	PlaneIDsErr error
	PlaneErr    map[uint32]error
	CommitErr   error

	FailAllocateAt int
	FailBindAt     int
	FailMapAt      int

	// Teardown failures still release the resource, as the kernel does
	// when it reports an error after cleanup.
	FailUnmapAt  int
	FailUnbindAt int
	FailFreeAt   int

	// ShortAllocation makes Allocate report a size one byte too small.
	ShortAllocation bool

	mu          sync.Mutex
	nextHandle  uint32
	nextFB      uint32
	buffers     map[uint32]uint64
	fbs         map[uint32]FramebufferInfo
	mappings    int
	allocations int
	binds       int
	maps        int
	unmaps      int
	unbinds     int
	frees       int
	commits     []Commit
}

// FramebufferInfo records the arguments a framebuffer was created with.
type FramebufferInfo struct {
	Width  uint32
	Height uint32
	Format kms.FourCC
	Planes []kms.PlaneBinding
}

// New returns a device with one CRTC and the given planes, all attachable
// to that CRTC.
func New(crtcID uint32, planes ...kms.PlaneDescriptor) *Device {
	d := &Device{CRTCList: []uint32{crtcID}, Types: map[uint32]kms.PlaneType{}}
	for _, p := range planes {
		if p.PossibleCRTCs == 0 {
			p.PossibleCRTCs = 1
		}
		d.PlaneList = append(d.PlaneList, p)
		if p.Type != kms.PlaneUnknown {
			d.Types[p.ID] = p.Type
		}
	}
	return d
}

// Plane builds a plane descriptor for New.
func Plane(id uint32, t kms.PlaneType, formats ...kms.FourCC) kms.PlaneDescriptor {
	return kms.PlaneDescriptor{ID: id, Type: t, Formats: formats}
}

func (d *Device) init() {
	if d.buffers == nil {
		d.buffers = make(map[uint32]uint64)
		d.fbs = make(map[uint32]FramebufferInfo)
	}
}

// CRTCs implements kms.Capabilities.
func (d *Device) CRTCs() ([]uint32, error) {
	if d.CRTCErr != nil {
		return nil, d.CRTCErr
	}
	return d.CRTCList, nil
}

// PlaneIDs implements kms.Capabilities.
func (d *Device) PlaneIDs() ([]uint32, error) {
	if d.PlaneIDsErr != nil {
		return nil, d.PlaneIDsErr
	}
	ids := make([]uint32, len(d.PlaneList))
	for i, p := range d.PlaneList {
		ids[i] = p.ID
	}
	return ids, nil
}

// Plane implements kms.Capabilities.
func (d *Device) Plane(id uint32) (kms.PlaneDescriptor, error) {
	if err := d.PlaneErr[id]; err != nil {
		return kms.PlaneDescriptor{}, err
	}
	for _, p := range d.PlaneList {
		if p.ID == id {
			p.Type = kms.PlaneUnknown
			return p, nil
		}
	}
	return kms.PlaneDescriptor{}, errors.New("no such plane")
}

// PropertyValue implements kms.Capabilities.
func (d *Device) PropertyValue(objectID uint32, name string) (uint64, bool) {
	if name != "type" {
		return 0, false
	}
	t, ok := d.Types[objectID]
	if !ok {
		return 0, false
	}
	return uint64(t), true
}

// Allocate implements kms.Memory.
func (d *Device) Allocate(width, height, bpp uint32) (uint32, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	d.allocations++
	if d.allocations == d.FailAllocateAt {
		return 0, 0, ErrInjected
	}
	d.nextHandle++
	size := uint64(width) * uint64(height) * uint64(bpp/8)
	if d.ShortAllocation {
		size--
	}
	d.buffers[d.nextHandle] = size
	return d.nextHandle, size, nil
}

// BindFramebuffer implements kms.Memory.
func (d *Device) BindFramebuffer(width, height uint32, format kms.FourCC, planes []kms.PlaneBinding) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	d.binds++
	if d.binds == d.FailBindAt {
		return 0, ErrInjected
	}
	d.nextFB++
	id := d.nextFB + 100
	d.fbs[id] = FramebufferInfo{
		Width:  width,
		Height: height,
		Format: format,
		Planes: append([]kms.PlaneBinding(nil), planes...),
	}
	return id, nil
}

// Map implements kms.Memory.
func (d *Device) Map(handle uint32, size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	d.maps++
	if d.maps == d.FailMapAt {
		return nil, ErrInjected
	}
	if _, ok := d.buffers[handle]; !ok {
		return nil, errors.New("unknown handle")
	}
	d.mappings++
	return make([]byte, size), nil
}

// Unmap implements kms.Memory.
func (d *Device) Unmap(mem []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmaps++
	if d.mappings == 0 {
		return errors.New("nothing mapped")
	}
	d.mappings--
	if d.unmaps == d.FailUnmapAt {
		return ErrInjected
	}
	return nil
}

// UnbindFramebuffer implements kms.Memory.
func (d *Device) UnbindFramebuffer(id uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unbinds++
	if _, ok := d.fbs[id]; !ok {
		return errors.New("unknown framebuffer")
	}
	delete(d.fbs, id)
	if d.unbinds == d.FailUnbindAt {
		return ErrInjected
	}
	return nil
}

// Free implements kms.Memory.
func (d *Device) Free(handle uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frees++
	if _, ok := d.buffers[handle]; !ok {
		return errors.New("unknown handle")
	}
	delete(d.buffers, handle)
	if d.frees == d.FailFreeAt {
		return ErrInjected
	}
	return nil
}

// CommitPlane implements kms.Memory.
func (d *Device) CommitPlane(planeID, crtcID, fbID uint32, dst, src kms.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CommitErr != nil {
		return d.CommitErr
	}
	if _, ok := d.fbs[fbID]; !ok {
		return errors.New("unknown framebuffer")
	}
	d.commits = append(d.commits, Commit{PlaneID: planeID, CrtcID: crtcID, FbID: fbID, Dst: dst, Src: src})
	return nil
}

// SetCommitErr changes CommitErr while the device is in use.
func (d *Device) SetCommitErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CommitErr = err
}

// LiveBuffers returns the number of allocations not yet freed.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LiveFramebuffers returns the number of framebuffer objects not yet removed.
func (d *Device) LiveFramebuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.fbs)
}

// LiveMappings returns the number of mappings not yet unmapped.
func (d *Device) LiveMappings() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mappings
}

// Allocations returns the number of Allocate calls.
func (d *Device) Allocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocations
}

// Teardowns returns the number of Unmap, UnbindFramebuffer and Free calls.
func (d *Device) Teardowns() (unmaps, unbinds, frees int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unmaps, d.unbinds, d.frees
}

// Framebuffer returns what a framebuffer was created with.
func (d *Device) Framebuffer(id uint32) (FramebufferInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fb, ok := d.fbs[id]
	return fb, ok
}

// Commits returns the recorded plane commits.
func (d *Device) Commits() []Commit {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Commit(nil), d.commits...)
}

var _ kms.Device = (*Device)(nil)
