package kms

import "testing"

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name        string
		format      FourCC
		width       uint32
		height      uint32
		tiling      Tiling
		stride      uint32
		allocWidth  uint32
		allocHeight uint32
		planes      int
		chromaOff   uint32
	}{
		{"XRGB 1080p", FourCCXRGB8888, 1920, 1080, DefaultTiling, 7680, 1920, 1088, 1, 0},
		{"XRGB odd width", FourCCXRGB8888, 1366, 768, DefaultTiling, 5632, 1408, 768, 1, 0},
		{"YUYV uses packed rule", FourCCYUYV, 720, 576, DefaultTiling, 3072, 768, 576, 1, 0},
		{"NV12 1080p", FourCCNV12, 1920, 1080, DefaultTiling, 2048, 512, 2176, 2, 2048 * 1088},
		{"P010 1080p", FourCCP010, 1920, 1080, DefaultTiling, 4096, 1024, 2176, 2, 4096 * 1088},
		{"P016 small", FourCCP016, 100, 20, DefaultTiling, 512, 128, 64, 2, 512 * 32},
		{"zero tiling uses defaults", FourCCNV12, 1920, 1080, Tiling{}, 2048, 512, 2176, 2, 2048 * 1088},
		{"custom tiling", FourCCNV12, 100, 51, Tiling{RowAlign: 64, HeightAlign: 2}, 128, 32, 104, 2, 128 * 52},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ComputeLayout(tt.format, tt.width, tt.height, tt.tiling)
			if l.Stride != tt.stride {
				t.Errorf("Stride = %d, want %d", l.Stride, tt.stride)
			}
			if l.AllocWidth != tt.allocWidth {
				t.Errorf("AllocWidth = %d, want %d", l.AllocWidth, tt.allocWidth)
			}
			if l.AllocHeight != tt.allocHeight {
				t.Errorf("AllocHeight = %d, want %d", l.AllocHeight, tt.allocHeight)
			}
			if l.Planes != tt.planes {
				t.Errorf("Planes = %d, want %d", l.Planes, tt.planes)
			}
			if l.Offsets[0] != 0 || l.Offsets[1] != tt.chromaOff {
				t.Errorf("Offsets = %v, want [0 %d ...]", l.Offsets, tt.chromaOff)
			}
			if got := uint64(l.AllocWidth) * 4 * uint64(l.AllocHeight); got != l.Size() {
				t.Errorf("allocation of %d bytes does not cover stride*height %d", got, l.Size())
			}
		})
	}
}

func TestComputeLayoutChromaFitsAllocation(t *testing.T) {
	for _, f := range []FourCC{FourCCNV12, FourCCP010, FourCCP012} {
		l := ComputeLayout(f, 1280, 721, DefaultTiling)
		end := uint64(l.Offsets[1]) + uint64(l.Stride)*uint64(l.Lines[1])
		if end > l.Size() {
			t.Errorf("%s: chroma plane ends at %d past size %d", f, end, l.Size())
		}
	}
}

func TestAlign(t *testing.T) {
	tests := []struct{ v, a, want uint32 }{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{1080, 16, 1088},
		{5464, 512, 5632},
		{7, 0, 7},
		{10, 3, 12},
	}
	for _, tt := range tests {
		if got := align(tt.v, tt.a); got != tt.want {
			t.Errorf("align(%d, %d) = %d, want %d", tt.v, tt.a, got, tt.want)
		}
	}
}

func TestNewTiling(t *testing.T) {
	tests := []struct {
		row, height int
		ok          bool
	}{
		{512, 16, true},
		{1, 1, true},
		{maxAlign, maxAlign, true},
		{0, 16, false},
		{-512, 16, false},
		{512, -1, false},
		{maxAlign + 1, 16, false},
	}
	for _, tt := range tests {
		got, err := NewTiling(tt.row, tt.height)
		if (err == nil) != tt.ok {
			t.Errorf("NewTiling(%d, %d) error = %v, want ok=%v", tt.row, tt.height, err, tt.ok)
			continue
		}
		if tt.ok && (got.RowAlign != uint32(tt.row) || got.HeightAlign != uint32(tt.height)) {
			t.Errorf("NewTiling(%d, %d) = %+v", tt.row, tt.height, got)
		}
	}
}
