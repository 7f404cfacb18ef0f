package pixfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupported is returned by Resolve when the display uses a pixel layout
// that cannot be converted to. There is no degraded mode for such displays.
var ErrUnsupported = errors.New("pixfmt: unsupported pixel layout")

// Layout enumerates the native pixel layouts the converters know.
type Layout uint8

const (
	// LayoutPalette8 is one byte per pixel through the 5x8x5 color cube.
	LayoutPalette8 Layout = iota

	// LayoutRGB565 is the common 16-bit layout with 5, 6 and 5 bit channels.
	LayoutRGB565

	// LayoutTrue16 is any other 16-bit true-color layout.
	LayoutTrue16

	// LayoutRGB is 3 bytes per pixel stored R, G, B.
	LayoutRGB

	// LayoutBGR is 3 bytes per pixel stored B, G, R.
	LayoutBGR

	// LayoutXBGR is 4 bytes per pixel stored R, G, B, pad.
	LayoutXBGR

	// LayoutRGBX is 4 bytes per pixel whose word holds R in the top byte.
	LayoutRGBX

	// LayoutBGRX is 4 bytes per pixel whose word holds B in the top byte.
	LayoutBGRX

	// LayoutXRGB is 4 bytes per pixel whose word holds R, G, B in the low
	// three bytes.
	LayoutXRGB

	// LayoutTrue32 is any other 32-bit true-color layout.
	LayoutTrue32

	// LayoutARGBPremul is the 32-bit premultiplied ARGB layout used for
	// sources with an alpha channel, whatever the display depth.
	LayoutARGBPremul

	layoutCount
)

var layoutNames = [layoutCount]string{
	LayoutPalette8:   "palette8",
	LayoutRGB565:     "rgb565",
	LayoutTrue16:     "true16",
	LayoutRGB:        "rgb",
	LayoutBGR:        "bgr",
	LayoutXBGR:       "xbgr",
	LayoutRGBX:       "rgbx",
	LayoutBGRX:       "bgrx",
	LayoutXRGB:       "xrgb",
	LayoutTrue32:     "true32",
	LayoutARGBPremul: "argb-premul",
}

// String returns the layout name.
func (l Layout) String() string {
	if l >= layoutCount {
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
	return layoutNames[l]
}

// Dithered reports whether converters for the layout diffuse quantization
// error along the scanline.
func (l Layout) Dithered() bool {
	switch l {
	case LayoutPalette8, LayoutRGB565, LayoutTrue16:
		return true
	}
	return false
}

// Format is a resolved native pixel layout.
//
// A Format is read-only after Resolve returns and may be shared by every
// blit on the display it was resolved for.
type Format struct {
	visual        Visual
	layout        Layout
	bytesPerPixel int
	padAdd        int
	order         binary.ByteOrder

	red, green, blue channel
	extraShift       int

	// byte offsets of the channels for the 24 and 32 bit named layouts
	ri, gi, bi int

	cube *ColorCube
}

// Resolve inspects the visual and selects the matching layout.
//
// Palette displays (no channel masks) need an allocator for the color cube.
// An 8-bit true-color display uses the cube as well, with pixel values
// computed from its masks.
//
// Errors wrap ErrUnsupported.
func Resolve(v Visual, alloc Allocator) (*Format, error) {
	if v.BitsPerPixel <= 0 || v.BitsPerPixel&7 != 0 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupported, v.BitsPerPixel)
	}
	n := v.ScanlinePad / 8
	if v.ScanlinePad&7 != 0 || n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: scanline pad of %d", ErrUnsupported, v.ScanlinePad)
	}

	f := &Format{
		visual:        v,
		bytesPerPixel: v.BitsPerPixel / 8,
		padAdd:        n - 1,
		order:         v.ByteOrder.binary(),
	}

	if f.bytesPerPixel == 1 {
		f.layout = LayoutPalette8
		if v.TrueColor() {
			f.red, f.green, f.blue, f.extraShift = channels(v)
			alloc = maskAllocator{f: f}
		}
		if alloc == nil {
			return nil, fmt.Errorf("%w: 8-bit palette display without a color allocator", ErrUnsupported)
		}
		f.cube = NewColorCube(alloc)
		return f, nil
	}

	if !v.TrueColor() {
		return nil, fmt.Errorf("%w: %d bits per pixel colormap", ErrUnsupported, v.BitsPerPixel)
	}
	f.red, f.green, f.blue, f.extraShift = channels(v)
	rs, gs, bs := f.red.shift, f.green.shift, f.blue.shift

	switch f.bytesPerPixel {
	case 2:
		if rs == 11 && gs == 6 && bs == 0 && f.extraShift == 3 {
			f.layout = LayoutRGB565
		} else {
			f.layout = LayoutTrue16
		}

	case 3:
		if v.ByteOrder == MSBFirst {
			rs, gs, bs = 16-rs, 16-gs, 16-bs
		}
		switch {
		case rs == 0 && gs == 8 && bs == 16:
			f.layout = LayoutRGB
		case rs == 16 && gs == 8 && bs == 0:
			f.layout = LayoutBGR
		default:
			return nil, fmt.Errorf("%w: arbitrary 24-bit color (shifts %d/%d/%d)", ErrUnsupported, rs, gs, bs)
		}
		f.ri, f.gi, f.bi = rs/8, gs/8, bs/8

	case 4:
		// Byte positions of the channels within the stored pixel.
		if v.ByteOrder == MSBFirst {
			rs, gs, bs = 24-rs, 24-gs, 24-bs
		}
		switch {
		case rs == 0 && gs == 8 && bs == 16:
			f.layout = LayoutXBGR
		case rs == 24 && gs == 16 && bs == 8:
			f.layout = LayoutRGBX
		case rs == 8 && gs == 16 && bs == 24:
			f.layout = LayoutBGRX
		case rs == 16 && gs == 8 && bs == 0:
			f.layout = LayoutXRGB
		default:
			f.layout = LayoutTrue32
		}
		if f.layout != LayoutTrue32 {
			f.ri, f.gi, f.bi = rs/8, gs/8, bs/8
		}

	default:
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupported, v.BitsPerPixel)
	}
	return f, nil
}

// Visual returns the visual the format was resolved from.
func (f *Format) Visual() Visual { return f.visual }

// Layout returns the selected layout.
func (f *Format) Layout() Layout { return f.layout }

// BytesPerPixel returns the storage size of one pixel.
func (f *Format) BytesPerPixel() int { return f.bytesPerPixel }

// BitsPerPixel returns the storage size of one pixel in bits.
func (f *Format) BitsPerPixel() int { return f.bytesPerPixel * 8 }

// Depth returns the display depth, or 32 for the alpha layout.
func (f *Format) Depth() int {
	if f.layout == LayoutARGBPremul {
		return 32
	}
	return f.visual.Depth
}

// ByteOrder returns the order of bytes within a pixel.
func (f *Format) ByteOrder() ByteOrder { return f.visual.ByteOrder }

// ColorCube returns the palette cube, or nil for true-color layouts.
func (f *Format) ColorCube() *ColorCube { return f.cube }

// RowBytes returns the padded size of a row of w pixels.
func (f *Format) RowBytes(w int) int {
	return (w*f.bytesPerPixel + f.padAdd) &^ f.padAdd
}

// Aligned reports whether a row stride satisfies the scanline pad.
func (f *Format) Aligned(stride int) bool {
	return stride&f.padAdd == 0
}

// ARGB returns the premultiplied 32-bit format used for sources with alpha.
// It keeps the byte order and scanline pad of f.
func (f *Format) ARGB() *Format {
	if f.layout == LayoutARGBPremul {
		return f
	}
	a := &Format{
		visual:        f.visual,
		layout:        LayoutARGBPremul,
		bytesPerPixel: 4,
		padAdd:        max(f.padAdd, 3),
		order:         f.order,
		red:           channel{shift: 16, mask: 0xFF},
		green:         channel{shift: 8, mask: 0xFF},
		blue:          channel{shift: 0, mask: 0xFF},
	}
	a.visual.Depth = 32
	a.visual.BitsPerPixel = 32
	a.visual.RedMask, a.visual.GreenMask, a.visual.BlueMask = 0xFF0000, 0xFF00, 0xFF
	return a
}

// String describes the format.
func (f *Format) String() string {
	return fmt.Sprintf("%s (%v)", f.layout, f.visual)
}
