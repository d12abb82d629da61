// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// FullScale returns the magnitude of the most negative sample of a signed
// integer PCM word of the given width. Unknown widths scale as 16-bit.
func FullScale(bits int) float32 {
	switch bits {
	case 8:
		return 1 << 7
	case 24:
		return 1 << 23
	case 32:
		return 1 << 31
	default:
		return 1 << 15
	}
}

// IntToFloat32 normalises a signed integer sample of the given width to [-1,1).
func IntToFloat32(v, bits int) float32 {
	return float32(v) / FullScale(bits)
}

// Float32ToInt16 quantises x to 16 bits, rounding to nearest and clamping
// to the int16 range. It inverts IntToFloat32 exactly for 16-bit input.
func Float32ToInt16(x float32) int16 {
	v := math.Round(float64(x) * (1 << 15))
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
