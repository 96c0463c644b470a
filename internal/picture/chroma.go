package picture

import "strings"

// Chroma is a source-side pixel format code.
type Chroma uint32

func chroma(a, b, c, d byte) Chroma {
	return Chroma(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// Known chromas.
var (
	ChromaRGB32 = chroma('R', 'V', '3', '2')
	ChromaRGB16 = chroma('R', 'V', '1', '6')
	ChromaNV12  = chroma('N', 'V', '1', '2')
	ChromaP010  = chroma('P', '0', '1', '0')
	ChromaYUYV  = chroma('Y', 'U', 'Y', '2')
	ChromaYVYU  = chroma('Y', 'V', 'Y', 'U')
	ChromaUYVY  = chroma('U', 'Y', 'V', 'Y')
	ChromaVYUY  = chroma('V', 'Y', 'U', 'Y')
	ChromaI420  = chroma('I', '4', '2', '0')
	ChromaI0AL  = chroma('I', '0', 'A', 'L') // planar 4:2:0, 10 bits in 16-bit little endian
)

// planeDesc describes one image plane relative to the luma dimensions.
type planeDesc struct {
	wDiv, hDiv    int
	bytesPerUnit  int
	pixelsPerUnit int
}

type chromaDesc struct {
	name   string
	yuv    bool
	planes []planeDesc
}

var chromas = map[Chroma]chromaDesc{
	ChromaRGB32: {"RV32", false, []planeDesc{{1, 1, 4, 1}}},
	ChromaRGB16: {"RV16", false, []planeDesc{{1, 1, 2, 1}}},
	ChromaNV12:  {"NV12", true, []planeDesc{{1, 1, 1, 1}, {2, 2, 2, 1}}},
	ChromaP010:  {"P010", true, []planeDesc{{1, 1, 2, 1}, {2, 2, 4, 1}}},
	ChromaYUYV:  {"YUY2", true, []planeDesc{{1, 1, 4, 2}}},
	ChromaYVYU:  {"YVYU", true, []planeDesc{{1, 1, 4, 2}}},
	ChromaUYVY:  {"UYVY", true, []planeDesc{{1, 1, 4, 2}}},
	ChromaVYUY:  {"VYUY", true, []planeDesc{{1, 1, 4, 2}}},
	ChromaI420:  {"I420", true, []planeDesc{{1, 1, 1, 1}, {2, 2, 1, 1}, {2, 2, 1, 1}}},
	ChromaI0AL:  {"I0AL", true, []planeDesc{{1, 1, 2, 1}, {2, 2, 2, 1}, {2, 2, 2, 1}}},
}

// aliases accepted by ParseChroma in addition to the four character codes.
var aliases = map[string]Chroma{
	"rgb32":   ChromaRGB32,
	"xrgb":    ChromaRGB32,
	"rgb16":   ChromaRGB16,
	"rgb565":  ChromaRGB16,
	"nv12":    ChromaNV12,
	"p010":    ChromaP010,
	"yuyv":    ChromaYUYV,
	"yuy2":    ChromaYUYV,
	"yvyu":    ChromaYVYU,
	"uyvy":    ChromaUYVY,
	"vyuy":    ChromaVYUY,
	"i420":    ChromaI420,
	"yuv420p": ChromaI420,
	"i0al":    ChromaI0AL,
}

// String returns the four character code.
func (c Chroma) String() string {
	b := []byte{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
	return string(b)
}

// Known reports whether the chroma has a plane description.
func (c Chroma) Known() bool {
	_, ok := chromas[c]
	return ok
}

// IsYUV reports whether the chroma belongs to the YUV family.
func (c Chroma) IsYUV() bool {
	return chromas[c].yuv
}

// PlaneCount returns the number of image planes, 0 for unknown chromas.
func (c Chroma) PlaneCount() int {
	return len(chromas[c].planes)
}

// PlaneLines returns the number of rows of plane i for an image of the given height.
func (c Chroma) PlaneLines(i, height int) int {
	d, ok := chromas[c]
	if !ok || i >= len(d.planes) {
		return 0
	}
	return ceilDiv(height, d.planes[i].hDiv)
}

// PlaneRowBytes returns the number of meaningful bytes in a row of plane i.
func (c Chroma) PlaneRowBytes(i, width int) int {
	d, ok := chromas[c]
	if !ok || i >= len(d.planes) {
		return 0
	}
	p := d.planes[i]
	units := ceilDiv(ceilDiv(width, p.wDiv), p.pixelsPerUnit)
	return units * p.bytesPerUnit
}

// ParseChroma resolves a chroma from its four character code or a common
// name. Matching is case-insensitive for names and exact for codes.
func ParseChroma(s string) (Chroma, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if c, ok := aliases[strings.ToLower(s)]; ok {
		return c, true
	}
	if len(s) == 4 {
		c := chroma(s[0], s[1], s[2], s[3])
		if c.Known() {
			return c, true
		}
	}
	return 0, false
}

func ceilDiv(a, b int) int {
	if b <= 1 {
		return a
	}
	return (a + b - 1) / b
}
