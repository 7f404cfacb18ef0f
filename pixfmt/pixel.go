package pixfmt

// trueColorPixel packs a color without dithering.
func (f *Format) trueColorPixel(r, g, b int) uint32 {
	p := (r&f.red.mask)<<f.red.shift + (g&f.green.mask)<<f.green.shift + (b&f.blue.mask)<<f.blue.shift
	return uint32(p >> f.extraShift)
}

// trueColorRGB unpacks a true-color pixel into 8-bit channels. Bits below
// the channel precision read back as zero.
func (f *Format) trueColorRGB(p uint32) (r, g, b uint8) {
	v := int(p) << f.extraShift
	return uint8(v >> f.red.shift & f.red.mask),
		uint8(v >> f.green.shift & f.green.mask),
		uint8(v >> f.blue.shift & f.blue.mask)
}

// Pixel returns the native pixel value for a color, without dithering.
// Palette formats allocate the cube cell on first use.
func (f *Format) Pixel(r, g, b uint8) uint32 {
	if f.layout == LayoutPalette8 && !f.visual.TrueColor() {
		return f.cube.Lookup(int(r), int(g), int(b)).Pixel
	}
	if f.layout == LayoutARGBPremul {
		return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}
	return f.trueColorPixel(int(r), int(g), int(b))
}

// PutPixel stores a pixel value at the start of dst in display order.
func (f *Format) PutPixel(dst []byte, p uint32) {
	switch f.bytesPerPixel {
	case 1:
		dst[0] = byte(p)
	case 2:
		f.order.PutUint16(dst, uint16(p))
	case 3:
		if f.visual.ByteOrder == MSBFirst {
			dst[0], dst[1], dst[2] = byte(p>>16), byte(p>>8), byte(p)
		} else {
			dst[0], dst[1], dst[2] = byte(p), byte(p>>8), byte(p>>16)
		}
	default:
		f.order.PutUint32(dst, p)
	}
}

// ReadPixel loads the pixel value stored at the start of src.
func (f *Format) ReadPixel(src []byte) uint32 {
	switch f.bytesPerPixel {
	case 1:
		return uint32(src[0])
	case 2:
		return uint32(f.order.Uint16(src))
	case 3:
		if f.visual.ByteOrder == MSBFirst {
			return uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2])
		}
		return uint32(src[2])<<16 | uint32(src[1])<<8 | uint32(src[0])
	default:
		return f.order.Uint32(src)
	}
}

// RGB returns the color shown for a pixel value. For the alpha layout the
// color is still premultiplied.
func (f *Format) RGB(p uint32) (r, g, b uint8) {
	switch f.layout {
	case LayoutPalette8:
		if f.visual.TrueColor() {
			return f.trueColorRGB(p)
		}
		r, g, b, _ = f.cube.Color(p)
		return r, g, b
	case LayoutARGBPremul:
		return uint8(p >> 16), uint8(p >> 8), uint8(p)
	}
	return f.trueColorRGB(p)
}

// Decode converts w native pixels from src into packed 8-bit RGB in dst.
// It is the inverse of a converter up to the precision of the layout.
func (f *Format) Decode(dst, src []byte, w int) {
	bpp := f.bytesPerPixel
	for i := 0; i < w; i++ {
		r, g, b := f.RGB(f.ReadPixel(src[i*bpp:]))
		dst[i*3], dst[i*3+1], dst[i*3+2] = r, g, b
	}
}
