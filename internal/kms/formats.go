package kms

import (
	"strings"

	"github.com/smazurov/kmsvout/internal/picture"
)

// FourCC is a device-side pixel format code from drm_fourcc.h.
type FourCC uint32

// Hardware formats known to the catalog and the buffer layout rules.
const (
	FourCCXRGB8888 FourCC = 'X' | 'R'<<8 | '2'<<16 | '4'<<24
	FourCCRGB565   FourCC = 'R' | 'G'<<8 | '1'<<16 | '6'<<24
	FourCCNV12     FourCC = 'N' | 'V'<<8 | '1'<<16 | '2'<<24
	FourCCP010     FourCC = 'P' | '0'<<8 | '1'<<16 | '0'<<24
	FourCCP012     FourCC = 'P' | '0'<<8 | '1'<<16 | '2'<<24
	FourCCP016     FourCC = 'P' | '0'<<8 | '1'<<16 | '6'<<24
	FourCCYUYV     FourCC = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	FourCCYVYU     FourCC = 'Y' | 'V'<<8 | 'Y'<<16 | 'U'<<24
	FourCCUYVY     FourCC = 'U' | 'Y'<<8 | 'V'<<16 | 'Y'<<24
	FourCCVYUY     FourCC = 'V' | 'Y'<<8 | 'U'<<16 | 'Y'<<24
)

// String returns the four character code, e.g. "NV12".
func (f FourCC) String() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	return string(b)
}

// ParseFourCC turns a four character string into a format code. Any four
// bytes are accepted since drivers may expose formats this package does not
// know about.
func ParseFourCC(s string) (FourCC, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return 0, false
	}
	f := FourCC(uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24)
	if f == 0 {
		return 0, false
	}
	return f, true
}

// Overrides holds operator forced formats. Zero values mean "not forced".
type Overrides struct {
	Chroma picture.Chroma
	FourCC FourCC
}

// ParseOverrides resolves the textual overrides. Invalid strings are
// reported through warn and otherwise ignored.
func ParseOverrides(vlcChroma, drmChroma string, warn func(msg string, args ...any)) Overrides {
	var o Overrides
	if vlcChroma != "" {
		if c, ok := picture.ParseChroma(vlcChroma); ok {
			o.Chroma = c
		} else if warn != nil {
			warn("Chroma invalid, using default", "chroma", vlcChroma)
		}
	}
	if drmChroma != "" {
		if f, ok := ParseFourCC(drmChroma); ok {
			o.FourCC = f
		} else if warn != nil {
			warn("DRM chroma invalid, using default", "chroma", drmChroma)
		}
	}
	return o
}
