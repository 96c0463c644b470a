package kms

import (
	"strings"

	"github.com/smazurov/kmsvout/internal/picture"
)

// NegotiatedFormat is the agreed source chroma, hardware format and plane.
type NegotiatedFormat struct {
	FourCC  FourCC
	Chroma  picture.Chroma
	PlaneID uint32
}

// Request carries the inputs of a negotiation.
type Request struct {
	// Source is the chroma the frame source delivers.
	Source picture.Chroma
	// ForcedChroma, when set, replaces Source and makes an exact match
	// mandatory.
	ForcedChroma picture.Chroma
	// ForcedFourCC selects a hardware format regardless of the source.
	ForcedFourCC FourCC
	// ForcedPlaneID is the plane the scan found for ForcedFourCC.
	ForcedPlaneID uint32
}

// Negotiate chooses a format from the present entries of cat. The result
// depends only on the catalog state and the request.
func Negotiate(cat *Catalog, req Request) (NegotiatedFormat, error) {
	desired := req.Source
	if req.ForcedChroma != 0 {
		desired = req.ForcedChroma
	}

	if req.ForcedFourCC != 0 {
		if req.ForcedPlaneID == 0 {
			return NegotiatedFormat{}, negotiationError(cat, "forced hardware format unavailable on any plane", desired, req.ForcedFourCC)
		}
		nf := NegotiatedFormat{FourCC: req.ForcedFourCC, Chroma: desired, PlaneID: req.ForcedPlaneID}
		if e, ok := cat.FindByFourCC(req.ForcedFourCC); ok {
			nf.Chroma = e.Chroma
		}
		return nf, nil
	}

	if e, ok := cat.FindByChroma(desired); ok && e.Present {
		return fromEntry(e), nil
	}
	if req.ForcedChroma != 0 {
		return NegotiatedFormat{}, negotiationError(cat, "forced logical format unsupported", desired, 0)
	}

	yuv := desired.IsYUV()
	present := cat.Present()
	for _, e := range present {
		if e.Subsampled == yuv {
			return fromEntry(e), nil
		}
	}
	for _, e := range present {
		if e.Subsampled != yuv {
			return fromEntry(e), nil
		}
	}
	return NegotiatedFormat{}, negotiationError(cat, "no supported display format", desired, 0)
}

func fromEntry(e FormatEntry) NegotiatedFormat {
	return NegotiatedFormat{FourCC: e.FourCC, Chroma: e.Chroma, PlaneID: e.PlaneID}
}

func negotiationError(cat *Catalog, msg string, desired picture.Chroma, forced FourCC) *Error {
	var available []string
	for _, e := range cat.Present() {
		available = append(available, e.FourCC.String())
	}
	ctx := map[string]any{
		"requested": desired.String(),
		"available": strings.Join(available, ","),
	}
	if forced != 0 {
		ctx["forced_fourcc"] = forced.String()
	}
	return newError(ErrNegotiationFailed, msg, nil, ctx)
}
