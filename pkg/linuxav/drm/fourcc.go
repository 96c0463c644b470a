//go:build linux

package drm

// Pixel formats from drm_fourcc.h.
const (
	FormatXRGB8888 uint32 = 'X' | 'R'<<8 | '2'<<16 | '4'<<24
	FormatARGB8888 uint32 = 'A' | 'R'<<8 | '2'<<16 | '4'<<24
	FormatRGB565   uint32 = 'R' | 'G'<<8 | '1'<<16 | '6'<<24
	FormatNV12     uint32 = 'N' | 'V'<<8 | '1'<<16 | '2'<<24
	FormatP010     uint32 = 'P' | '0'<<8 | '1'<<16 | '0'<<24
	FormatP012     uint32 = 'P' | '0'<<8 | '1'<<16 | '2'<<24
	FormatP016     uint32 = 'P' | '0'<<8 | '1'<<16 | '6'<<24
	FormatYUYV     uint32 = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	FormatYVYU     uint32 = 'Y' | 'V'<<8 | 'Y'<<16 | 'U'<<24
	FormatUYVY     uint32 = 'U' | 'Y'<<8 | 'V'<<16 | 'Y'<<24
	FormatVYUY     uint32 = 'V' | 'Y'<<8 | 'U'<<16 | 'Y'<<24
)

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	b := make([]byte, 4)
	b[0] = byte(format & 0xFF)
	b[1] = byte((format >> 8) & 0xFF)
	b[2] = byte((format >> 16) & 0xFF)
	b[3] = byte((format >> 24) & 0xFF)
	return string(b)
}
