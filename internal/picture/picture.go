// Package picture describes video frames as sets of image planes and copies
// pixel data between them.
package picture

import (
	"errors"
	"fmt"
)

// MaxDimension is the largest frame width or height accepted. It matches
// the mode size limit of current display controllers.
const MaxDimension = 16384

// Format describes the geometry of a frame.
type Format struct {
	Chroma Chroma
	Width  int
	Height int

	// Visible area inside Width x Height. A zero VisibleWidth or
	// VisibleHeight means the whole frame is visible.
	VisibleX      int
	VisibleY      int
	VisibleWidth  int
	VisibleHeight int

	// Sample aspect ratio. Zero values mean square pixels.
	SARNum int
	SARDen int
}

// Visible returns the visible rectangle with defaults applied.
func (f Format) Visible() (x, y, w, h int) {
	w, h = f.VisibleWidth, f.VisibleHeight
	if w == 0 {
		w = f.Width - f.VisibleX
	}
	if h == 0 {
		h = f.Height - f.VisibleY
	}
	return f.VisibleX, f.VisibleY, w, h
}

// SAR returns the sample aspect ratio with square pixels as the default.
func (f Format) SAR() (num, den int) {
	if f.SARNum <= 0 || f.SARDen <= 0 {
		return 1, 1
	}
	return f.SARNum, f.SARDen
}

// Validate checks that the format describes a drawable frame.
func (f Format) Validate() error {
	if !f.Chroma.Known() {
		return fmt.Errorf("unknown chroma %q", f.Chroma)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", f.Width, f.Height)
	}
	if f.Width > MaxDimension || f.Height > MaxDimension {
		return fmt.Errorf("size %dx%d exceeds %d", f.Width, f.Height, MaxDimension)
	}
	x, y, w, h := f.Visible()
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > f.Width || y+h > f.Height {
		return fmt.Errorf("visible area %dx%d+%d+%d outside %dx%d", w, h, x, y, f.Width, f.Height)
	}
	return nil
}

// Plane is one image plane. Pixels may alias memory owned elsewhere.
type Plane struct {
	Pixels []byte
	Pitch  int
	Lines  int
}

// Picture is a frame: a format plus its planes.
type Picture struct {
	Format Format
	Planes []Plane
}

// New allocates a picture with tightly packed planes.
func New(f Format) (*Picture, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	n := f.Chroma.PlaneCount()
	p := &Picture{Format: f, Planes: make([]Plane, n)}
	for i := 0; i < n; i++ {
		pitch := f.Chroma.PlaneRowBytes(i, f.Width)
		lines := f.Chroma.PlaneLines(i, f.Height)
		p.Planes[i] = Plane{
			Pixels: make([]byte, pitch*lines),
			Pitch:  pitch,
			Lines:  lines,
		}
	}
	return p, nil
}

// ErrChromaMismatch is returned when copying between different chromas.
var ErrChromaMismatch = errors.New("picture chroma mismatch")

// Copy copies the pixel content of src into dst plane by plane. Rows are
// clipped to the smaller pitch and line count of the two pictures.
func Copy(dst, src *Picture) error {
	if dst == nil || src == nil {
		return errors.New("nil picture")
	}
	if dst.Format.Chroma != src.Format.Chroma {
		return fmt.Errorf("%w: %s into %s", ErrChromaMismatch, src.Format.Chroma, dst.Format.Chroma)
	}

	n := min(len(dst.Planes), len(src.Planes))
	for i := 0; i < n; i++ {
		copyPlane(&dst.Planes[i], &src.Planes[i])
	}
	return nil
}

func copyPlane(dst, src *Plane) {
	rowBytes := min(dst.Pitch, src.Pitch)
	lines := min(dst.Lines, src.Lines)
	if rowBytes <= 0 || lines <= 0 {
		return
	}

	// Identical layouts copy in one go.
	if dst.Pitch == src.Pitch {
		size := min(len(dst.Pixels), len(src.Pixels), dst.Pitch*lines)
		copy(dst.Pixels[:size], src.Pixels[:size])
		return
	}

	for y := 0; y < lines; y++ {
		d := y * dst.Pitch
		s := y * src.Pitch
		if d+rowBytes > len(dst.Pixels) || s+rowBytes > len(src.Pixels) {
			return
		}
		copy(dst.Pixels[d:d+rowBytes], src.Pixels[s:s+rowBytes])
	}
}
