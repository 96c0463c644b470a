package picture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestParseChroma(t *testing.T) {
	tests := []struct {
		input string
		want  Chroma
		ok    bool
	}{
		{"NV12", ChromaNV12, true},
		{"nv12", ChromaNV12, true},
		{"RV32", ChromaRGB32, true},
		{"rgb565", ChromaRGB16, true},
		{" YUY2 ", ChromaYUYV, true},
		{"I0AL", ChromaI0AL, true},
		{"", 0, false},
		{"XXXX", 0, false},
		{"toolong", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseChroma(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseChroma(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestChromaFamilies(t *testing.T) {
	for _, c := range []Chroma{ChromaNV12, ChromaP010, ChromaYUYV, ChromaUYVY, ChromaI420, ChromaI0AL} {
		if !c.IsYUV() {
			t.Errorf("%s should be YUV", c)
		}
	}
	for _, c := range []Chroma{ChromaRGB32, ChromaRGB16} {
		if c.IsYUV() {
			t.Errorf("%s should not be YUV", c)
		}
	}
}

func TestPlaneGeometry(t *testing.T) {
	tests := []struct {
		chroma   Chroma
		planes   int
		rowBytes []int
		lines    []int
	}{
		{ChromaRGB32, 1, []int{4 * 33}, []int{9}},
		{ChromaNV12, 2, []int{33, 34}, []int{9, 5}},
		{ChromaP010, 2, []int{66, 68}, []int{9, 5}},
		{ChromaYUYV, 1, []int{68}, []int{9}},
		{ChromaI420, 3, []int{33, 17, 17}, []int{9, 5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.chroma.String(), func(t *testing.T) {
			if got := tt.chroma.PlaneCount(); got != tt.planes {
				t.Fatalf("PlaneCount() = %d, want %d", got, tt.planes)
			}
			for i := 0; i < tt.planes; i++ {
				if got := tt.chroma.PlaneRowBytes(i, 33); got != tt.rowBytes[i] {
					t.Errorf("plane %d row bytes = %d, want %d", i, got, tt.rowBytes[i])
				}
				if got := tt.chroma.PlaneLines(i, 9); got != tt.lines[i] {
					t.Errorf("plane %d lines = %d, want %d", i, got, tt.lines[i])
				}
			}
		})
	}
}

func TestFormatValidate(t *testing.T) {
	for _, good := range []Format{
		{Chroma: ChromaNV12, Width: 64, Height: 32},
		{Chroma: ChromaRGB32, Width: MaxDimension, Height: MaxDimension},
	} {
		if err := good.Validate(); err != nil {
			t.Fatalf("Validate(%dx%d) = %v", good.Width, good.Height, err)
		}
	}

	bad := []Format{
		{Chroma: 0, Width: 64, Height: 32},
		{Chroma: ChromaNV12, Width: 0, Height: 32},
		{Chroma: ChromaNV12, Width: 64, Height: 32, VisibleX: 8, VisibleWidth: 64},
		{Chroma: ChromaRGB32, Width: MaxDimension + 1, Height: 32},
		{Chroma: ChromaRGB32, Width: 64, Height: 1 << 30},
	}
	for i, f := range bad {
		if err := f.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCopyClipsToDestination(t *testing.T) {
	src, err := New(Format{Chroma: ChromaRGB32, Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	for i := range src.Planes[0].Pixels {
		src.Planes[0].Pixels[i] = byte(i)
	}

	// Destination with a wider pitch, as a hardware buffer would have.
	dst := &Picture{
		Format: src.Format,
		Planes: []Plane{{Pixels: make([]byte, 32*4), Pitch: 32, Lines: 4}},
	}
	if err := Copy(dst, src); err != nil {
		t.Fatalf("Copy() = %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			if got, want := dst.Planes[0].Pixels[y*32+x], byte(y*16+x); got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
		for x := 16; x < 32; x++ {
			if dst.Planes[0].Pixels[y*32+x] != 0 {
				t.Fatalf("padding byte (%d,%d) was written", x, y)
			}
		}
	}
}

func TestCopyRejectsChromaMismatch(t *testing.T) {
	a, _ := New(Format{Chroma: ChromaRGB32, Width: 2, Height: 2})
	b, _ := New(Format{Chroma: ChromaNV12, Width: 2, Height: 2})
	if err := Copy(a, b); !errors.Is(err, ErrChromaMismatch) {
		t.Errorf("Copy() = %v, want ErrChromaMismatch", err)
	}
}

func TestFromImageRGB32(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	pic, _ := New(Format{Chroma: ChromaRGB32, Width: 2, Height: 1})
	if err := FromImage(pic, img); err != nil {
		t.Fatalf("FromImage() = %v", err)
	}

	want := []byte{30, 20, 10, 0xff, 50, 100, 200, 0xff}
	for i, b := range want {
		if pic.Planes[0].Pixels[i] != b {
			t.Fatalf("byte %d = %d, want %d", i, pic.Planes[0].Pixels[i], b)
		}
	}
}

func TestFromImageNV12Grey(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}

	pic, _ := New(Format{Chroma: ChromaNV12, Width: 4, Height: 4})
	if err := FromImage(pic, img); err != nil {
		t.Fatalf("FromImage() = %v", err)
	}

	wantY, wantCb, wantCr := color.RGBToYCbCr(128, 128, 128)
	for _, v := range pic.Planes[0].Pixels {
		if v != wantY {
			t.Fatalf("luma = %d, want %d", v, wantY)
		}
	}
	uv := pic.Planes[1].Pixels
	for i := 0; i < len(uv); i += 2 {
		if uv[i] != wantCb || uv[i+1] != wantCr {
			t.Fatalf("chroma pair %d = (%d,%d), want (%d,%d)", i/2, uv[i], uv[i+1], wantCb, wantCr)
		}
	}
}

func TestFromImagePacked422Order(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	y, cb, cr := color.RGBToYCbCr(255, 0, 0)

	tests := []struct {
		chroma Chroma
		want   [4]byte
	}{
		{ChromaYUYV, [4]byte{y, cb, y, cr}},
		{ChromaYVYU, [4]byte{y, cr, y, cb}},
		{ChromaUYVY, [4]byte{cb, y, cr, y}},
		{ChromaVYUY, [4]byte{cr, y, cb, y}},
	}
	for _, tt := range tests {
		t.Run(tt.chroma.String(), func(t *testing.T) {
			pic, _ := New(Format{Chroma: tt.chroma, Width: 2, Height: 1})
			if err := FromImage(pic, img); err != nil {
				t.Fatalf("FromImage() = %v", err)
			}
			var got [4]byte
			copy(got[:], pic.Planes[0].Pixels)
			if got != tt.want {
				t.Errorf("macropixel = %v, want %v", got, tt.want)
			}
		})
	}
}
