package kms

import "github.com/smazurov/kmsvout/internal/picture"

// Place fits the visible area of src into an outW x outH output, keeping
// the display aspect ratio and centering the result. A zero output size
// places the picture unscaled at the origin.
func Place(src picture.Format, outW, outH uint32) Rect {
	_, _, vw, vh := src.Visible()
	if vw <= 0 || vh <= 0 {
		return Rect{}
	}
	if outW == 0 || outH == 0 {
		return Rect{Width: uint32(vw), Height: uint32(vh)}
	}

	sarNum, sarDen := src.SAR()
	// Display aspect ratio is (vw*sarNum) : (vh*sarDen).
	dw := uint64(vw) * uint64(sarNum)
	dh := uint64(vh) * uint64(sarDen)

	w := uint64(outW)
	h := w * dh / dw
	if h > uint64(outH) {
		h = uint64(outH)
		w = h * dw / dh
	}
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return Rect{
		X:      int32((uint64(outW) - w) / 2),
		Y:      int32((uint64(outH) - h) / 2),
		Width:  uint32(w),
		Height: uint32(h),
	}
}

// SourceCrop returns the visible area of src in 16.16 fixed point.
func SourceCrop(src picture.Format) Rect {
	x, y, w, h := src.Visible()
	return Rect{
		X:      int32(x) << 16,
		Y:      int32(y) << 16,
		Width:  uint32(w) << 16,
		Height: uint32(h) << 16,
	}
}
