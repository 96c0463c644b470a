//go:build linux

package kms

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/pkg/linuxav/drm"
)

// DRMDevice implements Device on a DRM card node.
type DRMDevice struct {
	card   *drm.Card
	logger *slog.Logger
}

// OpenDRMDevice opens a card node such as /dev/dri/card0. An empty path
// picks the first card found.
func OpenDRMDevice(path string) (*DRMDevice, error) {
	if path == "" {
		cards, err := drm.FindCards()
		if err != nil {
			return nil, err
		}
		if len(cards) == 0 {
			return nil, newError(ErrResourceUnavailable, "no DRM card found", nil, nil)
		}
		path = cards[0]
	}
	card, err := drm.OpenCard(path)
	if err != nil {
		return nil, newError(ErrResourceUnavailable, "failed to open DRM device", err, map[string]any{"path": path})
	}
	return &DRMDevice{card: card, logger: logging.GetLogger("drm")}, nil
}

// Path returns the card node path.
func (d *DRMDevice) Path() string { return d.card.Path() }

// Close closes the card node.
func (d *DRMDevice) Close() error { return d.card.Close() }

// ActiveCRTC returns the first CRTC driving a mode, with its resolution.
func (d *DRMDevice) ActiveCRTC() (id, width, height uint32, err error) {
	res, err := d.card.Resources()
	if err != nil {
		return 0, 0, 0, newError(ErrCapabilityQueryFailed, "failed to read resources", err, nil)
	}
	for _, cid := range res.Crtcs {
		crtc, err := d.card.Crtc(cid)
		if err != nil {
			d.logger.Debug("Skipping CRTC", "crtc_id", cid, "error", err)
			continue
		}
		if crtc.ModeValid {
			return crtc.ID, crtc.Width(), crtc.Height(), nil
		}
	}
	return 0, 0, 0, newError(ErrResourceUnavailable, "no active CRTC", nil, map[string]any{"path": d.card.Path()})
}

// CRTCSize returns the mode size of crtcID. A CRTC without a mode is
// reported as RESOURCE_UNAVAILABLE.
func (d *DRMDevice) CRTCSize(crtcID uint32) (width, height uint32, err error) {
	crtc, err := d.card.Crtc(crtcID)
	if err != nil {
		return 0, 0, newError(ErrCapabilityQueryFailed, "failed to read CRTC", err, map[string]any{"crtc_id": crtcID})
	}
	if !crtc.ModeValid {
		return 0, 0, newError(ErrResourceUnavailable, "CRTC has no mode", nil, map[string]any{"crtc_id": crtcID})
	}
	return crtc.Width(), crtc.Height(), nil
}

// CRTCs implements Capabilities.
func (d *DRMDevice) CRTCs() ([]uint32, error) {
	res, err := d.card.Resources()
	if err != nil {
		return nil, err
	}
	return res.Crtcs, nil
}

// PlaneIDs implements Capabilities.
func (d *DRMDevice) PlaneIDs() ([]uint32, error) {
	return d.card.PlaneResources()
}

// Plane implements Capabilities.
func (d *DRMDevice) Plane(id uint32) (PlaneDescriptor, error) {
	p, err := d.card.Plane(id)
	if err != nil {
		return PlaneDescriptor{}, err
	}
	formats := make([]FourCC, len(p.Formats))
	for i, f := range p.Formats {
		formats[i] = FourCC(f)
	}
	return PlaneDescriptor{ID: p.ID, Formats: formats, PossibleCRTCs: p.PossibleCrtcs, Type: PlaneUnknown}, nil
}

// PropertyValue implements Capabilities.
func (d *DRMDevice) PropertyValue(objectID uint32, name string) (uint64, bool) {
	v, ok, err := d.card.PropertyValue(objectID, drm.ObjectPlane, name)
	if err != nil {
		d.logger.Debug("Failed to read property", "object_id", objectID, "name", name, "error", err)
		return 0, false
	}
	return v, ok
}

// Allocate implements Memory.
func (d *DRMDevice) Allocate(width, height, bpp uint32) (uint32, uint64, error) {
	b, err := d.card.CreateDumb(width, height, bpp)
	if err != nil {
		return 0, 0, err
	}
	return b.Handle, b.Size, nil
}

// BindFramebuffer implements Memory.
func (d *DRMDevice) BindFramebuffer(width, height uint32, format FourCC, planes []PlaneBinding) (uint32, error) {
	if len(planes) == 0 || len(planes) > maxPlanes {
		return 0, fmt.Errorf("invalid plane count %d", len(planes))
	}
	handles := make([]uint32, len(planes))
	pitches := make([]uint32, len(planes))
	offsets := make([]uint32, len(planes))
	for i, p := range planes {
		handles[i] = p.Handle
		pitches[i] = p.Pitch
		offsets[i] = p.Offset
	}
	return d.card.AddFB2(width, height, uint32(format), handles, pitches, offsets)
}

// Map implements Memory.
func (d *DRMDevice) Map(handle uint32, size uint64) ([]byte, error) {
	return d.card.MapDumb(handle, size)
}

// Unmap implements Memory.
func (d *DRMDevice) Unmap(mem []byte) error {
	return d.card.Unmap(mem)
}

// UnbindFramebuffer implements Memory.
func (d *DRMDevice) UnbindFramebuffer(id uint32) error {
	return d.card.RmFB(id)
}

// Free implements Memory.
func (d *DRMDevice) Free(handle uint32) error {
	return d.card.DestroyDumb(handle)
}

// CommitPlane implements Memory.
func (d *DRMDevice) CommitPlane(planeID, crtcID, fbID uint32, dst, src Rect) error {
	if src.X < 0 || src.Y < 0 {
		return errors.New("negative source offset")
	}
	return d.card.SetPlane(drm.SetPlaneRequest{
		PlaneID: planeID,
		CrtcID:  crtcID,
		FbID:    fbID,
		CrtcX:   dst.X,
		CrtcY:   dst.Y,
		CrtcW:   dst.Width,
		CrtcH:   dst.Height,
		SrcX:    uint32(src.X),
		SrcY:    uint32(src.Y),
		SrcW:    src.Width,
		SrcH:    src.Height,
	})
}

var _ Device = (*DRMDevice)(nil)
