//go:build linux

// Package drm provides pure Go bindings to the Linux DRM/KMS API for plane
// discovery, dumb buffer management, and plane presentation.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Opening a Card
//
//	card, err := drm.OpenCard("/dev/dri/card0")
//	defer card.Close()
//
// # Plane Discovery
//
//	ids, _ := card.PlaneResources()
//	for _, id := range ids {
//	    plane, _ := card.Plane(id)
//	    for _, f := range plane.Formats {
//	        fmt.Printf("plane %d: %s\n", plane.ID, drm.FormatFourCC(f))
//	    }
//	}
//
// # Dumb Buffers
//
// A dumb buffer is allocated, wrapped in a framebuffer object, mapped, and
// presented on a plane:
//
//	buf, _ := card.CreateDumb(width, height, 32)
//	fbID, _ := card.AddFB2(width, height, drm.FormatXRGB8888, handles, pitches, offsets)
//	mem, _ := card.MapDumb(buf.Handle, buf.Size)
//	_ = card.SetPlane(drm.SetPlaneRequest{PlaneID: p, CrtcID: c, FbID: fbID, ...})
package drm
