package kms

import (
	"log/slog"
	"time"

	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/internal/picture"
)

// DefaultBuffers is the ring depth used when Options.Buffers is zero.
const DefaultBuffers = 3

// MinBuffers is the smallest ring that keeps the buffer being written off
// screen.
const MinBuffers = 2

// Options configures a presentation session.
type Options struct {
	// Device names the display in logs and events.
	Device string
	// CRTCID is the active CRTC the plane is attached to.
	CRTCID uint32
	// Source is the geometry and chroma of incoming frames.
	Source picture.Format
	// OutputWidth and OutputHeight are the size of the region the picture
	// is fitted into, normally the CRTC mode size.
	OutputWidth  uint32
	OutputHeight uint32

	ForcedChroma picture.Chroma
	ForcedFourCC FourCC

	Buffers int
	Tiling  Tiling

	Bus    *events.Bus
	Logger *slog.Logger
}

// Session owns a negotiated plane and a ring of scan-out buffers. Prepare
// and Display must be called from one goroutine.
type Session struct {
	dev    Device
	opts   Options
	logger *slog.Logger

	catalog *Catalog
	format  NegotiatedFormat
	ring    []*FrameBuffer
	front   int
	view    *picture.Picture

	placement Rect
	crop      Rect
	frames    uint64
	opened    bool
	closed    bool
}

// Open negotiates a format for opts.Source and builds the buffer ring. On
// error nothing stays allocated on the device.
func Open(dev Device, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger("kms")
	}
	if opts.Buffers == 0 {
		opts.Buffers = DefaultBuffers
	}
	opts.Tiling = opts.Tiling.withDefaults()
	logger := opts.Logger

	if opts.Buffers < MinBuffers {
		return nil, newError(ErrResourceUnavailable, "buffer ring too small", nil, map[string]any{
			"buffers": opts.Buffers,
			"minimum": MinBuffers,
		})
	}
	if err := opts.Source.Validate(); err != nil {
		return nil, newError(ErrInvalidFrame, "invalid source format", err, nil)
	}

	s := &Session{
		dev:     dev,
		opts:    opts,
		logger:  logger,
		catalog: NewCatalog(),
	}

	scan, err := Scan(dev, opts.CRTCID, s.catalog, opts.ForcedFourCC, logger)
	if err != nil {
		return nil, err
	}

	s.format, err = Negotiate(s.catalog, Request{
		Source:        opts.Source.Chroma,
		ForcedChroma:  opts.ForcedChroma,
		ForcedFourCC:  opts.ForcedFourCC,
		ForcedPlaneID: scan.ForcedPlaneID,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Format negotiated",
		"chroma", s.format.Chroma.String(),
		"fourcc", s.format.FourCC.String(),
		"plane_id", s.format.PlaneID)

	if err := s.buildRing(); err != nil {
		s.Close()
		return nil, err
	}
	s.front = 0
	s.view = s.viewOf(s.ring[0])
	s.placement = Place(opts.Source, opts.OutputWidth, opts.OutputHeight)
	s.crop = SourceCrop(opts.Source)
	s.opened = true

	logger.Info("Display session opened",
		"device", opts.Device,
		"plane_id", s.format.PlaneID,
		"crtc_id", opts.CRTCID,
		"fourcc", s.format.FourCC.String(),
		"buffers", len(s.ring))

	opts.Bus.Publish(events.SessionOpenedEvent{
		Device:      opts.Device,
		PlaneID:     s.format.PlaneID,
		CrtcID:      opts.CRTCID,
		FourCC:      s.format.FourCC.String(),
		Chroma:      s.format.Chroma.String(),
		Width:       uint32(opts.Source.Width),
		Height:      uint32(opts.Source.Height),
		Buffers:     len(s.ring),
		BufferBytes: s.bufferBytes(),
		Timestamp:   time.Now().Format(time.RFC3339),
	})
	return s, nil
}

func (s *Session) buildRing() error {
	w, h := uint32(s.opts.Source.Width), uint32(s.opts.Source.Height)
	layout := ComputeLayout(s.format.FourCC, w, h, s.opts.Tiling)
	s.ring = make([]*FrameBuffer, 0, s.opts.Buffers)
	for i := 0; i < s.opts.Buffers; i++ {
		fb, err := newFrameBuffer(s.dev, i, s.format.FourCC, w, h, layout, s.logger)
		if err != nil {
			return err
		}
		s.ring = append(s.ring, fb)
	}
	return nil
}

// viewOf describes fb as a picture in the negotiated chroma.
func (s *Session) viewOf(fb *FrameBuffer) *picture.Picture {
	f := s.opts.Source
	f.Chroma = s.format.Chroma
	n := min(f.Chroma.PlaneCount(), fb.Layout.Planes)
	view := &picture.Picture{Format: f, Planes: make([]picture.Plane, n)}
	for i := 0; i < n; i++ {
		off := int(fb.Layout.Offsets[i])
		pitch := int(fb.Layout.Stride)
		lines := f.Chroma.PlaneLines(i, f.Height)
		end := min(off+pitch*lines, len(fb.Mem))
		view.Planes[i] = picture.Plane{
			Pixels: fb.Mem[off:end],
			Pitch:  pitch,
			Lines:  lines,
		}
	}
	return view
}

func (s *Session) bufferBytes() uint64 {
	var total uint64
	for _, fb := range s.ring {
		total += fb.Size
	}
	return total
}

// Prepare copies frame into the buffer that the next Display shows. The
// frame must be in the negotiated chroma.
func (s *Session) Prepare(frame *picture.Picture) error {
	if s.closed {
		return newError(ErrSessionClosed, "session closed", nil, nil)
	}
	if frame == nil {
		return newError(ErrInvalidFrame, "nil frame", nil, nil)
	}
	if frame.Format.Chroma != s.format.Chroma || len(frame.Planes) != frame.Format.Chroma.PlaneCount() {
		return newError(ErrInvalidFrame, "frame does not match session format", nil, map[string]any{
			"chroma":   frame.Format.Chroma.String(),
			"expected": s.format.Chroma.String(),
			"planes":   len(frame.Planes),
		})
	}
	if len(s.view.Planes) < len(frame.Planes) {
		return newError(ErrInvalidFrame, "frame has more planes than the hardware format", nil, map[string]any{
			"chroma": frame.Format.Chroma.String(),
			"fourcc": s.format.FourCC.String(),
			"planes": len(frame.Planes),
			"layout": len(s.view.Planes),
		})
	}
	if err := picture.Copy(s.view, frame); err != nil {
		return newError(ErrInvalidFrame, "failed to copy frame", err, nil)
	}
	return nil
}

// Display commits the front buffer to the plane and advances the ring. A
// failed commit leaves the ring where it was so the frame can be retried.
func (s *Session) Display() error {
	if s.closed {
		return newError(ErrSessionClosed, "session closed", nil, nil)
	}
	fb := s.ring[s.front]
	err := s.dev.CommitPlane(s.format.PlaneID, s.opts.CRTCID, fb.FramebufferID, s.placement, s.crop)
	if err != nil {
		s.opts.Bus.Publish(events.CommitFailedEvent{
			PlaneID:       s.format.PlaneID,
			FramebufferID: fb.FramebufferID,
			BufferIndex:   s.front,
			Error:         err.Error(),
		})
		return newError(ErrCommitFailed, "failed to show plane", err, map[string]any{
			"plane_id": s.format.PlaneID,
			"fb_id":    fb.FramebufferID,
		})
	}

	s.frames++
	s.opts.Bus.Publish(events.FramePresentedEvent{
		PlaneID:       s.format.PlaneID,
		FramebufferID: fb.FramebufferID,
		BufferIndex:   s.front,
		Sequence:      s.frames,
	})

	s.front = (s.front + 1) % len(s.ring)
	s.view = s.viewOf(s.ring[s.front])
	return nil
}

// Close releases every buffer. It is safe on a nil session and more than
// once.
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	for i := len(s.ring) - 1; i >= 0; i-- {
		s.ring[i].release(s.dev, s.logger)
	}
	s.ring = nil
	s.view = nil

	if s.opened {
		s.logger.Info("Display session closed", "plane_id", s.format.PlaneID, "frames", s.frames)
		s.opts.Bus.Publish(events.SessionClosedEvent{
			PlaneID:   s.format.PlaneID,
			Frames:    s.frames,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// Format returns the negotiated format.
func (s *Session) Format() NegotiatedFormat { return s.format }

// Catalog returns the format catalog filled by the plane scan.
func (s *Session) Catalog() *Catalog { return s.catalog }

// Buffers returns the buffer ring.
func (s *Session) Buffers() []*FrameBuffer { return s.ring }

// Front returns the index of the buffer the next Display shows.
func (s *Session) Front() int { return s.front }

// View returns the picture aliasing the front buffer.
func (s *Session) View() *picture.Picture { return s.view }

// Placement returns the destination rectangle on the CRTC.
func (s *Session) Placement() Rect { return s.placement }

// Frames returns the number of frames shown.
func (s *Session) Frames() uint64 { return s.frames }
