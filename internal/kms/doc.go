// Package kms presents video frames on DRM/KMS hardware planes.
//
// # Overview
//
// A [Session] negotiates a pixel format and plane with the display, builds
// a small ring of mapped dumb buffers, and then alternates between
// [Session.Prepare], which copies a frame into the buffer about to be shown,
// and [Session.Display], which commits that buffer to the plane and moves
// the ring forward.
//
//	sess, err := kms.Open(dev, kms.Options{
//		CRTCID:       crtcID,
//		Source:       picture.Format{Chroma: picture.ChromaNV12, Width: 1920, Height: 1080},
//		OutputWidth:  1920,
//		OutputHeight: 1080,
//	})
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	for frame := range frames {
//		if err := sess.Prepare(frame); err != nil {
//			return err
//		}
//		if err := sess.Display(); err != nil {
//			logger.Warn("Frame dropped", "error", err)
//		}
//	}
//
// # Negotiation
//
// The plane scan marks which entries of the format [Catalog] some plane
// usable with the CRTC can scan out. [Negotiate] then picks, in order: an
// operator forced hardware format, an exact match for the source chroma,
// the first present format of the same color family (YUV or RGB), and
// finally the first present format of the other family.
//
// # Device Access
//
// The core talks to hardware through the [Capabilities] and [Memory]
// interfaces. [DRMDevice] implements both on top of pkg/linuxav/drm, and
// package kmstest provides an in-memory fake for tests.
package kms
