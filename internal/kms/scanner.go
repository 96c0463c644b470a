package kms

import (
	"fmt"
	"log/slog"
	"math/bits"
	"strings"
)

// ScanResult is the outcome of a plane scan.
type ScanResult struct {
	// CRTCIndex is the position of the CRTC in the device CRTC list.
	CRTCIndex int
	// Planes usable with the CRTC, in device order.
	Planes []PlaneDescriptor
	// ForcedPlaneID is the first plane supporting the forced hardware
	// format, or 0.
	ForcedPlaneID uint32
}

// crtcIndex locates crtcID in the device CRTC list.
func crtcIndex(q Capabilities, crtcID uint32) (int, error) {
	crtcs, err := q.CRTCs()
	if err != nil {
		return -1, newError(ErrCapabilityQueryFailed, "failed to list CRTCs", err, nil)
	}
	for i, id := range crtcs {
		if id == crtcID {
			return i, nil
		}
	}
	return -1, newError(ErrCapabilityQueryFailed, "CRTC not found", nil, map[string]any{
		"crtc_id": crtcID,
		"crtcs":   crtcs,
	})
}

// planeType classifies a plane through its "type" property.
func planeType(q Capabilities, planeID uint32) PlaneType {
	v, ok := q.PropertyValue(planeID, "type")
	if !ok {
		return PlaneUnknown
	}
	switch v {
	case 0:
		return PlaneOverlay
	case 1:
		return PlanePrimary
	case 2:
		return PlaneCursor
	default:
		return PlaneUnknown
	}
}

// ListPlanesForCRTC returns the classified planes that can be attached to
// crtcID. A missing plane list yields no planes and no error.
func ListPlanesForCRTC(q Capabilities, crtcID uint32) ([]PlaneDescriptor, error) {
	idx, err := crtcIndex(q, crtcID)
	if err != nil {
		return nil, err
	}
	ids, err := q.PlaneIDs()
	if err != nil || len(ids) == 0 {
		return nil, nil
	}
	return usablePlanes(q, ids, idx)
}

func usablePlanes(q Capabilities, ids []uint32, idx int) ([]PlaneDescriptor, error) {
	var planes []PlaneDescriptor
	for _, id := range ids {
		p, err := q.Plane(id)
		if err != nil {
			return nil, newError(ErrCapabilityQueryFailed, "failed to query plane", err, map[string]any{
				"plane_id": id,
			})
		}
		if len(p.Formats) == 0 {
			return nil, newError(ErrCapabilityQueryFailed, "plane reports no formats", nil, map[string]any{
				"plane_id": id,
			})
		}
		if idx >= 32 || p.PossibleCRTCs&(1<<uint(idx)) == 0 {
			continue
		}
		p.ID = id
		p.Type = planeType(q, id)
		planes = append(planes, p)
	}
	return planes, nil
}

// Scan records in cat every format some plane usable with crtcID can scan
// out. When forced is set, the first plane supporting it is reported in
// ForcedPlaneID.
func Scan(q Capabilities, crtcID uint32, cat *Catalog, forced FourCC, logger *slog.Logger) (ScanResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	idx, err := crtcIndex(q, crtcID)
	if err != nil {
		return ScanResult{CRTCIndex: -1}, err
	}
	result := ScanResult{CRTCIndex: idx}

	ids, err := q.PlaneIDs()
	if err != nil {
		logger.Warn("Failed to list planes, format discovery skipped", "error", err)
		return result, nil
	}
	if len(ids) == 0 {
		logger.Debug("Device reports no planes, format discovery skipped")
		return result, nil
	}

	planes, err := usablePlanes(q, ids, idx)
	if err != nil {
		return result, err
	}
	result.Planes = planes

	for _, p := range planes {
		for _, f := range p.Formats {
			cat.MarkPresent(f, p.ID)
		}
		if forced != 0 && result.ForcedPlaneID == 0 && p.Supports(forced) {
			result.ForcedPlaneID = p.ID
		}
		if p.Type != PlaneCursor {
			logger.Debug("Plane", "listing", DescribePlane(p))
		}
	}
	return result, nil
}

// PipeLetter names the first CRTC a plane can attach to: 'A' for bit 0.
func PipeLetter(mask uint32) byte {
	if mask == 0 {
		return '@'
	}
	return byte('@' + bits.TrailingZeros32(mask) + 1)
}

// DescribePlane renders a plane as "id type pipe index:fourcc ...".
func DescribePlane(p PlaneDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s %c", p.ID, p.Type, PipeLetter(p.PossibleCRTCs))
	for i, f := range p.Formats {
		fmt.Fprintf(&b, " %d:%s", i, f)
	}
	return b.String()
}
