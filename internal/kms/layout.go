package kms

import "fmt"

// Tiling holds the alignment the display engine expects of scan-out
// buffers.
type Tiling struct {
	// RowAlign is the row stride alignment in bytes.
	RowAlign uint32
	// HeightAlign is the line count alignment of each plane.
	HeightAlign uint32
}

// DefaultTiling matches the 512 byte by 16 line tiles of common display
// controllers.
var DefaultTiling = Tiling{RowAlign: 512, HeightAlign: 16}

// maxAlign bounds configured alignments.
const maxAlign = 1 << 16

// NewTiling validates configured alignments. Both must be in 1..65536.
func NewTiling(rowAlign, heightAlign int) (Tiling, error) {
	if rowAlign <= 0 || rowAlign > maxAlign {
		return Tiling{}, fmt.Errorf("row alignment %d out of range 1..%d", rowAlign, maxAlign)
	}
	if heightAlign <= 0 || heightAlign > maxAlign {
		return Tiling{}, fmt.Errorf("height alignment %d out of range 1..%d", heightAlign, maxAlign)
	}
	return Tiling{RowAlign: uint32(rowAlign), HeightAlign: uint32(heightAlign)}, nil
}

func (t Tiling) withDefaults() Tiling {
	if t.RowAlign == 0 {
		t.RowAlign = DefaultTiling.RowAlign
	}
	if t.HeightAlign == 0 {
		t.HeightAlign = DefaultTiling.HeightAlign
	}
	return t
}

// allocBPP is the pixel depth used for every dumb allocation. Buffers are
// requested as stride/4 pixels wide so the byte size is format independent.
const allocBPP = 32

// maxPlanes is the number of planes a framebuffer object can carry.
const maxPlanes = 4

// Layout is the memory arrangement of one frame buffer.
type Layout struct {
	Stride      uint32
	AllocWidth  uint32
	AllocHeight uint32
	// Planes is the number of image planes in the buffer.
	Planes  int
	Offsets [maxPlanes]uint32
	// Lines is the aligned line count of each plane.
	Lines [maxPlanes]uint32
}

// Size is the minimum byte size the allocation must provide.
func (l Layout) Size() uint64 {
	return uint64(l.Stride) * uint64(l.AllocHeight)
}

// ComputeLayout returns the buffer layout for a width x height frame in the
// given hardware format.
func ComputeLayout(format FourCC, width, height uint32, t Tiling) Layout {
	t = t.withDefaults()
	lines := align(height, t.HeightAlign)

	var l Layout
	switch format {
	case FourCCNV12:
		l.Stride = align(width, t.RowAlign)
	case FourCCP010, FourCCP012, FourCCP016:
		l.Stride = align(width*2, t.RowAlign)
	default:
		l.Stride = align(width*4, t.RowAlign)
		l.AllocHeight = lines
		l.Planes = 1
		l.Lines[0] = lines
		l.AllocWidth = l.Stride / (allocBPP / 8)
		return l
	}

	// Semi-planar: luma followed by interleaved chroma at half height. The
	// chroma plane is given a full luma height of room.
	l.Planes = 2
	l.Offsets[1] = l.Stride * lines
	l.Lines[0] = lines
	l.Lines[1] = lines / 2
	l.AllocHeight = 2 * lines
	l.AllocWidth = l.Stride / (allocBPP / 8)
	return l
}

func align(v, a uint32) uint32 {
	if a == 0 {
		return v
	}
	return (v + a - 1) / a * a
}
