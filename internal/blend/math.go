// Package blend composites alpha sources over opaque pixels.
//
// Divisions by 255 use Alvy Ray Smith's shift formula, which is exact for
// every product of two bytes.
//
// References:
//   - Alpha blending without division: https://arxiv.org/abs/2202.02864
//   - Alvy Ray Smith's technical memos: http://alvyray.com/Memos/
package blend

// div255Exact divides x by 255 exactly without using division.
//
// Formula: ((x + 1) + ((x + 1) >> 8)) >> 8
//
// This is Alvy Ray Smith's formula, exact for every product of two bytes.
func div255Exact(x uint16) uint16 {
	t := x + 1
	return (t + (t >> 8)) >> 8
}

// mulDiv255Exact multiplies two bytes and divides by 255 exactly.
func mulDiv255Exact(a, b byte) byte {
	return byte(div255Exact(uint16(a) * uint16(b)))
}

// lerp255 weighs s by a and d by 255-a: (s*a + d*(255-a)) / 255.
func lerp255(s, d, a byte) byte {
	return byte(div255Exact(uint16(s)*uint16(a) + uint16(d)*uint16(255-a)))
}

// addClamp adds two bytes and clamps to 255.
func addClamp(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}
