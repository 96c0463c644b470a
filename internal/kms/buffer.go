package kms

import (
	"encoding/binary"
	"log/slog"
)

// FrameBuffer is one mapped scan-out buffer of the ring. A FrameBuffer
// returned by newFrameBuffer owns all three device resources.
type FrameBuffer struct {
	Index         int
	Width         uint32
	Height        uint32
	Format        FourCC
	Layout        Layout
	Handle        uint32
	Size          uint64
	FramebufferID uint32
	Mem           []byte

	allocated bool
	bound     bool
}

// newFrameBuffer allocates, binds and maps one buffer. On failure every
// completed step is undone and no resource is left behind.
func newFrameBuffer(m Memory, index int, format FourCC, width, height uint32, l Layout, logger *slog.Logger) (fb *FrameBuffer, err error) {
	b := &FrameBuffer{
		Index:  index,
		Width:  width,
		Height: height,
		Format: format,
		Layout: l,
	}
	defer func() {
		if err != nil {
			b.release(m, logger)
			fb = nil
		}
	}()

	ctx := map[string]any{"index": index, "fourcc": format.String()}

	handle, size, err := m.Allocate(l.AllocWidth, l.AllocHeight, allocBPP)
	if err != nil {
		return nil, newError(ErrResourceUnavailable, "failed to allocate buffer", err, ctx)
	}
	b.Handle = handle
	b.Size = size
	b.allocated = true

	if size < l.Size() {
		ctx["size"] = size
		ctx["required"] = l.Size()
		return nil, newError(ErrResourceUnavailable, "allocated buffer too small", nil, ctx)
	}

	planes := make([]PlaneBinding, l.Planes)
	for i := range planes {
		planes[i] = PlaneBinding{Handle: handle, Pitch: l.Stride, Offset: l.Offsets[i]}
	}
	id, err := m.BindFramebuffer(width, height, format, planes)
	if err != nil {
		return nil, newError(ErrResourceUnavailable, "failed to create framebuffer", err, ctx)
	}
	b.FramebufferID = id
	b.bound = true

	mem, err := m.Map(handle, size)
	if err != nil {
		return nil, newError(ErrResourceUnavailable, "failed to map buffer", err, ctx)
	}
	b.Mem = mem

	b.blank()
	return b, nil
}

// release undoes construction in reverse order. Every step is attempted and
// failures are only logged. Calling release twice is a no-op.
func (b *FrameBuffer) release(m Memory, logger *slog.Logger) {
	if b == nil {
		return
	}
	if b.Mem != nil {
		if err := m.Unmap(b.Mem); err != nil && logger != nil {
			logger.Warn("Failed to unmap buffer", "index", b.Index, "error", err)
		}
		b.Mem = nil
	}
	if b.bound {
		if err := m.UnbindFramebuffer(b.FramebufferID); err != nil && logger != nil {
			logger.Warn("Failed to remove framebuffer", "index", b.Index, "fb_id", b.FramebufferID, "error", err)
		}
		b.bound = false
		b.FramebufferID = 0
	}
	if b.allocated {
		if err := m.Free(b.Handle); err != nil && logger != nil {
			logger.Warn("Failed to destroy buffer", "index", b.Index, "handle", b.Handle, "error", err)
		}
		b.allocated = false
		b.Handle = 0
	}
}

// blank fills the buffer with black in its format.
func (b *FrameBuffer) blank() {
	mem := b.Mem
	switch b.Format {
	case FourCCNV12:
		split := min(int(b.Layout.Offsets[1]), len(mem))
		fill(mem[:split], []byte{0x10})
		fill(mem[split:], []byte{0x80})
	case FourCCP010, FourCCP012, FourCCP016:
		split := min(int(b.Layout.Offsets[1]), len(mem))
		var luma, chroma [2]byte
		binary.LittleEndian.PutUint16(luma[:], 0x10<<8)
		binary.LittleEndian.PutUint16(chroma[:], 0x80<<8)
		fill(mem[:split], luma[:])
		fill(mem[split:], chroma[:])
	case FourCCYUYV, FourCCYVYU:
		fill(mem, []byte{0x10, 0x80})
	case FourCCUYVY, FourCCVYUY:
		fill(mem, []byte{0x80, 0x10})
	default:
		clear(mem)
	}
}

func fill(dst, pattern []byte) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}
