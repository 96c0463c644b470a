// Package pattern renders a moving test card used as the frame source when
// no decoder feeds the display.
package pattern

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/smazurov/kmsvout/internal/picture"
)

// bars are the SMPTE-like colour columns across the top two thirds.
var bars = []color.RGBA{
	{0xc0, 0xc0, 0xc0, 0xff},
	{0xc0, 0xc0, 0x00, 0xff},
	{0x00, 0xc0, 0xc0, 0xff},
	{0x00, 0xc0, 0x00, 0xff},
	{0xc0, 0x00, 0xc0, 0xff},
	{0xc0, 0x00, 0x00, 0xff},
	{0x00, 0x00, 0xc0, 0xff},
}

// Generator draws test card frames in a fixed format.
type Generator struct {
	format picture.Format
	label  string
	dc     *gg.Context
	out    *picture.Picture
}

// New creates a generator for f. label is drawn under the frame counter.
func New(f picture.Format, label string) (*Generator, error) {
	out, err := picture.New(f)
	if err != nil {
		return nil, err
	}
	return &Generator{
		format: f,
		label:  label,
		dc:     gg.NewContext(f.Width, f.Height),
		out:    out,
	}, nil
}

// Format returns the format of rendered frames.
func (g *Generator) Format() picture.Format { return g.format }

// Render draws frame seq and returns it. The returned picture is reused by
// the next call.
func (g *Generator) Render(seq uint64) (*picture.Picture, error) {
	w := float64(g.format.Width)
	h := float64(g.format.Height)
	dc := g.dc

	dc.SetRGB(0, 0, 0)
	dc.Clear()

	barW := w / float64(len(bars))
	for i, c := range bars {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barW, 0, barW+1, h*2/3)
		dc.Fill()
	}

	// Grey ramp on the bottom third.
	steps := 16
	stepW := w / float64(steps)
	for i := 0; i < steps; i++ {
		v := float64(i) / float64(steps-1)
		dc.SetRGB(v, v, v)
		dc.DrawRectangle(float64(i)*stepW, h*2/3, stepW+1, h/6)
		dc.Fill()
	}

	// A white bar sweeping left to right makes tearing and stalls visible.
	sweep := w / 32
	x := float64(seq%uint64(max(1, int(w/sweep)))) * sweep
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(x, h*5/6, sweep, h/6)
	dc.Fill()

	dc.DrawCircle(w/2, h/3, min(w, h)/6)
	dc.SetLineWidth(3)
	dc.SetRGB(1, 1, 1)
	dc.Stroke()

	dc.DrawStringAnchored(fmt.Sprintf("frame %d", seq), w/2, h/3, 0.5, 0.5)
	if g.label != "" {
		dc.DrawStringAnchored(g.label, w/2, h/3+20, 0.5, 0.5)
	}

	if err := picture.FromImage(g.out, dc.Image()); err != nil {
		return nil, err
	}
	return g.out, nil
}
