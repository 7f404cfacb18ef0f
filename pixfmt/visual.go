// Package pixfmt resolves the native pixel layout of a display and converts
// 8-bit RGB and grayscale scanlines into it.
//
// A [Visual] describes what the display reports about itself. [Resolve]
// turns it into a [Format] once per display connection. The format hands out
// [Converter] values; every blit takes fresh converters so that the error
// diffusion state of one image never leaks into the next.
//
// Supported displays use 8, 16, 24 or 32 bits per pixel with a scanline pad
// that is a power of two of at least 8 bits. Palette displays must use 8 bits
// per pixel. True-color channel masks must be contiguous, and 24 and 32 bit
// displays need at least 8 bits per channel.
package pixfmt

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder is the order in which the display expects multi-byte pixels.
type ByteOrder uint8

const (
	// LSBFirst stores the least significant byte first.
	LSBFirst ByteOrder = iota
	// MSBFirst stores the most significant byte first.
	MSBFirst
)

// String returns "lsb" or "msb".
func (o ByteOrder) String() string {
	if o == MSBFirst {
		return "msb"
	}
	return "lsb"
}

// binary returns the matching encoding/binary order.
func (o ByteOrder) binary() binary.ByteOrder {
	if o == MSBFirst {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseByteOrder parses "lsb" or "msb" (also "little" and "big").
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "lsb", "little", "LSBFirst", "":
		return LSBFirst, nil
	case "msb", "big", "MSBFirst":
		return MSBFirst, nil
	}
	return LSBFirst, fmt.Errorf("pixfmt: unknown byte order %q", s)
}

// Visual is the description of a display's native pixel layout.
type Visual struct {
	// Depth is the number of significant bits per pixel.
	Depth int

	// BitsPerPixel is the storage size of one pixel.
	BitsPerPixel int

	// ScanlinePad is the alignment of each row, in bits.
	ScanlinePad int

	// ByteOrder is the order of bytes within a pixel.
	ByteOrder ByteOrder

	// RedMask, GreenMask and BlueMask locate the channels of a true-color
	// pixel. All three are zero on palette displays.
	RedMask, GreenMask, BlueMask uint32
}

// TrueColor reports whether the visual has channel masks.
func (v Visual) TrueColor() bool {
	return v.RedMask != 0 && v.GreenMask != 0 && v.BlueMask != 0
}

// String describes the visual.
func (v Visual) String() string {
	if v.TrueColor() {
		return fmt.Sprintf("depth %d, %d bpp, pad %d, %s, masks %#x/%#x/%#x",
			v.Depth, v.BitsPerPixel, v.ScanlinePad, v.ByteOrder, v.RedMask, v.GreenMask, v.BlueMask)
	}
	return fmt.Sprintf("depth %d, %d bpp, pad %d, palette", v.Depth, v.BitsPerPixel, v.ScanlinePad)
}

// channel places an 8-bit color value into a pixel: the value is masked
// with mask and shifted left by shift.
type channel struct {
	shift int
	mask  int
}

// channelOf derives the placement for a contiguous channel mask. The shift
// aligns the top bit of the 8-bit value with the top bit of the mask and may
// be negative for channels narrower than 8 bits.
func channelOf(m uint32) channel {
	i := 0
	for i < 32 && m&(1<<i) == 0 {
		i++
	}
	j := i
	for j < 32 && m&(1<<j) != 0 {
		j++
	}
	c := channel{shift: j - 8}
	if bits := j - i; bits >= 8 {
		c.mask = 0xFF
	} else {
		c.mask = 0xFF - (0xFF >> bits)
	}
	return c
}

// channels derives the three channel placements and the common right shift
// that makes every shift non-negative.
func channels(v Visual) (r, g, b channel, extra int) {
	r, g, b = channelOf(v.RedMask), channelOf(v.GreenMask), channelOf(v.BlueMask)
	lowest := min(r.shift, g.shift, b.shift)
	if lowest < 0 {
		extra = -lowest
		r.shift += extra
		g.shift += extra
		b.shift += extra
	}
	return r, g, b, extra
}
