package pattern

import (
	"bytes"
	"testing"

	"github.com/smazurov/kmsvout/internal/picture"
)

func TestNewRejectsInvalidFormat(t *testing.T) {
	if _, err := New(picture.Format{Chroma: picture.ChromaNV12}, ""); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestRenderFormats(t *testing.T) {
	for _, c := range []picture.Chroma{
		picture.ChromaRGB32,
		picture.ChromaRGB16,
		picture.ChromaNV12,
		picture.ChromaP010,
		picture.ChromaYUYV,
		picture.ChromaUYVY,
	} {
		t.Run(c.String(), func(t *testing.T) {
			f := picture.Format{Chroma: c, Width: 64, Height: 48}
			g, err := New(f, "test")
			if err != nil {
				t.Fatal(err)
			}
			pic, err := g.Render(0)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if pic.Format != f {
				t.Errorf("Format = %+v, want %+v", pic.Format, f)
			}
			if len(pic.Planes) != c.PlaneCount() {
				t.Errorf("planes = %d, want %d", len(pic.Planes), c.PlaneCount())
			}
			if bytes.Count(pic.Planes[0].Pixels, []byte{0}) == len(pic.Planes[0].Pixels) {
				t.Error("rendered plane is empty")
			}
		})
	}
}

func TestRenderMovesSweep(t *testing.T) {
	g, err := New(picture.Format{Chroma: picture.ChromaRGB32, Width: 128, Height: 96}, "")
	if err != nil {
		t.Fatal(err)
	}
	first, err := g.Render(0)
	if err != nil {
		t.Fatal(err)
	}
	snapshot := bytes.Clone(first.Planes[0].Pixels)

	second, err := g.Render(5)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(snapshot, second.Planes[0].Pixels) {
		t.Error("frames 0 and 5 are identical")
	}
}

func TestRenderReusesPicture(t *testing.T) {
	g, err := New(picture.Format{Chroma: picture.ChromaNV12, Width: 32, Height: 32}, "")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := g.Render(1)
	b, _ := g.Render(2)
	if a != b {
		t.Error("expected the same picture to be reused")
	}
}
