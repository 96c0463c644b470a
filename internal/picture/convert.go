package picture

import (
	"fmt"
	"image"
	"image/color"
)

// FromImage renders img into dst, converting to dst's chroma. The image is
// sampled from its origin; areas of dst outside the image are left as is.
func FromImage(dst *Picture, img image.Image) error {
	if dst == nil {
		return fmt.Errorf("nil picture")
	}
	if len(dst.Planes) != dst.Format.Chroma.PlaneCount() {
		return fmt.Errorf("picture has %d planes, %s needs %d",
			len(dst.Planes), dst.Format.Chroma, dst.Format.Chroma.PlaneCount())
	}

	b := img.Bounds()
	w := min(dst.Format.Width, b.Dx())
	h := min(dst.Format.Height, b.Dy())
	at := func(x, y int) (r, g, bl uint8) {
		c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
		return c.R, c.G, c.B
	}

	switch dst.Format.Chroma {
	case ChromaRGB32:
		p := &dst.Planes[0]
		for y := 0; y < h; y++ {
			row := p.Pixels[y*p.Pitch:]
			for x := 0; x < w; x++ {
				r, g, bl := at(x, y)
				row[4*x+0] = bl
				row[4*x+1] = g
				row[4*x+2] = r
				row[4*x+3] = 0xff
			}
		}
	case ChromaRGB16:
		p := &dst.Planes[0]
		for y := 0; y < h; y++ {
			row := p.Pixels[y*p.Pitch:]
			for x := 0; x < w; x++ {
				r, g, bl := at(x, y)
				v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
				row[2*x] = byte(v)
				row[2*x+1] = byte(v >> 8)
			}
		}
	case ChromaNV12, ChromaP010, ChromaI420, ChromaI0AL:
		convertPlanar420(dst, w, h, at)
	case ChromaYUYV, ChromaYVYU, ChromaUYVY, ChromaVYUY:
		convertPacked422(dst, w, h, at)
	default:
		return fmt.Errorf("conversion to %s not supported", dst.Format.Chroma)
	}
	return nil
}

type sampler func(x, y int) (r, g, b uint8)

func ycbcr(at sampler, x, y int) (uint8, uint8, uint8) {
	r, g, b := at(x, y)
	return color.RGBToYCbCr(r, g, b)
}

func put16(buf []byte, off int, v uint8) {
	// 8-bit sample in the high bits of a little endian 16-bit word.
	w := uint16(v) << 8
	buf[off] = byte(w)
	buf[off+1] = byte(w >> 8)
}

func put10(buf []byte, off int, v uint8) {
	// 10-bit sample in the low bits of a little endian 16-bit word.
	w := uint16(v) << 2
	buf[off] = byte(w)
	buf[off+1] = byte(w >> 8)
}

func convertPlanar420(dst *Picture, w, h int, at sampler) {
	chroma := dst.Format.Chroma
	luma := &dst.Planes[0]
	for y := 0; y < h; y++ {
		row := luma.Pixels[y*luma.Pitch:]
		for x := 0; x < w; x++ {
			yy, _, _ := ycbcr(at, x, y)
			switch chroma {
			case ChromaP010:
				put16(row, 2*x, yy)
			case ChromaI0AL:
				put10(row, 2*x, yy)
			default:
				row[x] = yy
			}
		}
	}

	for y := 0; y < (h+1)/2; y++ {
		for x := 0; x < (w+1)/2; x++ {
			_, cb, cr := ycbcr(at, min(2*x, w-1), min(2*y, h-1))
			switch chroma {
			case ChromaNV12:
				uv := dst.Planes[1].Pixels[y*dst.Planes[1].Pitch:]
				uv[2*x] = cb
				uv[2*x+1] = cr
			case ChromaP010:
				uv := dst.Planes[1].Pixels[y*dst.Planes[1].Pitch:]
				put16(uv, 4*x, cb)
				put16(uv, 4*x+2, cr)
			case ChromaI420:
				dst.Planes[1].Pixels[y*dst.Planes[1].Pitch+x] = cb
				dst.Planes[2].Pixels[y*dst.Planes[2].Pitch+x] = cr
			case ChromaI0AL:
				put10(dst.Planes[1].Pixels, y*dst.Planes[1].Pitch+2*x, cb)
				put10(dst.Planes[2].Pixels, y*dst.Planes[2].Pitch+2*x, cr)
			}
		}
	}
}

func convertPacked422(dst *Picture, w, h int, at sampler) {
	// Byte positions of Y0, U, Y1, V inside each 4-byte macropixel.
	var y0, u, y1, v int
	switch dst.Format.Chroma {
	case ChromaYUYV:
		y0, u, y1, v = 0, 1, 2, 3
	case ChromaYVYU:
		y0, v, y1, u = 0, 1, 2, 3
	case ChromaUYVY:
		u, y0, v, y1 = 0, 1, 2, 3
	case ChromaVYUY:
		v, y0, u, y1 = 0, 1, 2, 3
	}

	p := &dst.Planes[0]
	for y := 0; y < h; y++ {
		row := p.Pixels[y*p.Pitch:]
		for x := 0; x < w; x += 2 {
			ya, cb, cr := ycbcr(at, x, y)
			yb := ya
			if x+1 < w {
				yb, _, _ = ycbcr(at, x+1, y)
			}
			m := row[2*x : 2*x+4]
			m[y0], m[u], m[y1], m[v] = ya, cb, yb, cr
		}
	}
}
