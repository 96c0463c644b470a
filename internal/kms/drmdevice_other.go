//go:build !linux

package kms

// DRMDevice is only available on Linux.
type DRMDevice struct{}

// OpenDRMDevice always fails off Linux.
func OpenDRMDevice(path string) (*DRMDevice, error) {
	return nil, newError(ErrResourceUnavailable, "DRM devices require linux", nil, map[string]any{"path": path})
}

// Path returns "".
func (d *DRMDevice) Path() string { return "" }

// Close does nothing.
func (d *DRMDevice) Close() error { return nil }

// ActiveCRTC always fails off Linux.
func (d *DRMDevice) ActiveCRTC() (id, width, height uint32, err error) {
	return 0, 0, 0, newError(ErrResourceUnavailable, "DRM devices require linux", nil, nil)
}

// CRTCSize always fails off Linux.
func (d *DRMDevice) CRTCSize(uint32) (width, height uint32, err error) {
	return 0, 0, newError(ErrResourceUnavailable, "DRM devices require linux", nil, nil)
}

func (d *DRMDevice) CRTCs() ([]uint32, error) { return nil, nil }
func (d *DRMDevice) PlaneIDs() ([]uint32, error) { return nil, nil }
func (d *DRMDevice) Plane(uint32) (PlaneDescriptor, error) { return PlaneDescriptor{}, nil }
func (d *DRMDevice) PropertyValue(uint32, string) (uint64, bool) { return 0, false }

func (d *DRMDevice) Allocate(uint32, uint32, uint32) (uint32, uint64, error) { return 0, 0, nil }
func (d *DRMDevice) BindFramebuffer(uint32, uint32, FourCC, []PlaneBinding) (uint32, error) {
	return 0, nil
}
func (d *DRMDevice) Map(uint32, uint64) ([]byte, error) { return nil, nil }
func (d *DRMDevice) Unmap([]byte) error { return nil }
func (d *DRMDevice) UnbindFramebuffer(uint32) error { return nil }
func (d *DRMDevice) Free(uint32) error { return nil }
func (d *DRMDevice) CommitPlane(uint32, uint32, uint32, Rect, Rect) error { return nil }

var _ Device = (*DRMDevice)(nil)
