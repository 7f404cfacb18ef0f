package pixfmt

import "encoding/binary"

// Converter turns one scanline of 8-bit source pixels into native pixels.
//
// Convert reads w pixels from src, starting at src[0] and spaced delta bytes
// apart, and writes w native pixels to the start of dst. Color converters
// read R, G, B from the first three bytes of a pixel, mono converters read
// one gray byte. A delta of zero repeats the first source pixel.
//
// Dithering converters carry error diffusion state from one call to the
// next, so a converter must be used for the rows of a single blit only.
type Converter interface {
	Convert(dst, src []byte, w, delta int)
}

// NewConverter returns a fresh converter for the layout. With mono set the
// converter reads grayscale sources; for the alpha layout mono selects
// gray+alpha sources instead of RGBA.
func (f *Format) NewConverter(mono bool) Converter {
	switch f.layout {
	case LayoutPalette8:
		return &palette8Converter{cube: f.cube, mono: mono}
	case LayoutRGB565:
		return &rgb565Converter{order: f.order, mono: mono}
	case LayoutTrue16:
		return &true16Converter{f: f, mono: mono}
	case LayoutRGB, LayoutBGR:
		if mono {
			return rrrConverter{}
		}
		return bytes24Converter{ri: f.ri, gi: f.gi, bi: f.bi}
	case LayoutXBGR, LayoutRGBX, LayoutBGRX, LayoutXRGB:
		return bytes32Converter{ri: f.ri, gi: f.gi, bi: f.bi, mono: mono}
	case LayoutARGBPremul:
		return argbPremulConverter{order: f.order, grayAlpha: mono}
	default:
		return true32Converter{f: f, mono: mono}
	}
}

// diffusion is the serpentine error diffusion state of a dithering
// converter. Successive scanlines alternate direction and the residual error
// of the last pixel of one line feeds the first pixel of the next.
type diffusion struct {
	r, g, b int
	reverse bool
}

// span returns the first source and destination offsets and their steps for
// the next scanline, then flips the direction.
func (d *diffusion) span(w, delta, size int) (si, di, sstep, dstep int) {
	if d.reverse {
		d.reverse = false
		return (w - 1) * delta, (w - 1) * size, -delta, -size
	}
	d.reverse = true
	return 0, 0, delta, size
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// palette8Converter maps pixels to the color cube, diffusing the difference
// between the wanted and the allocated color.
type palette8Converter struct {
	cube *ColorCube
	mono bool
	diffusion
}

func (c *palette8Converter) Convert(dst, src []byte, w, delta int) {
	if w <= 0 {
		return
	}
	r, g, b := c.r, c.g, c.b
	si, di, sstep, dstep := c.span(w, delta, 1)
	for ; w > 0; w, si, di = w-1, si+sstep, di+dstep {
		sr, sg, sb := src[si], src[si], src[si]
		if !c.mono {
			sg, sb = src[si+1], src[si+2]
		}
		r = clampByte(r + int(sr))
		g = clampByte(g + int(sg))
		b = clampByte(b + int(sb))
		e := c.cube.Lookup(r, g, b)
		r -= int(e.R)
		g -= int(e.G)
		b -= int(e.B)
		dst[di] = byte(e.Pixel)
	}
	c.r, c.g, c.b = r, g, b
}

// rgb565Converter handles the 5-6-5 layout. The low bits dropped by
// truncation carry into the next pixel.
type rgb565Converter struct {
	order binary.ByteOrder
	mono  bool
	diffusion
}

func (c *rgb565Converter) Convert(dst, src []byte, w, delta int) {
	if w <= 0 {
		return
	}
	r, g, b := c.r, c.g, c.b
	si, di, sstep, dstep := c.span(w, delta, 2)
	for ; w > 0; w, si, di = w-1, si+sstep, di+dstep {
		var v int
		if c.mono {
			r = min((r&7)+int(src[si]), 255)
			v = (r >> 3) * 0x841
		} else {
			r = min((r&7)+int(src[si]), 255)
			g = min((g&3)+int(src[si+1]), 255)
			b = min((b&7)+int(src[si+2]), 255)
			v = (r&0xf8)<<8 + (g&0xfc)<<3 + b>>3
		}
		c.order.PutUint16(dst[di:], uint16(v))
	}
	c.r, c.g, c.b = r, g, b
}

// true16Converter handles arbitrary 16-bit masks.
type true16Converter struct {
	f    *Format
	mono bool
	diffusion
}

func (c *true16Converter) Convert(dst, src []byte, w, delta int) {
	if w <= 0 {
		return
	}
	f := c.f
	rm, gm, bm := f.red.mask, f.green.mask, f.blue.mask
	r, g, b := c.r, c.g, c.b
	si, di, sstep, dstep := c.span(w, delta, 2)
	if c.mono {
		m := rm & gm & bm
		for ; w > 0; w, si, di = w-1, si+sstep, di+dstep {
			r = min((r&^m)+int(src[si]), 255)
			v := r & m
			p := (v<<f.red.shift + v<<f.green.shift + v<<f.blue.shift) >> f.extraShift
			f.order.PutUint16(dst[di:], uint16(p))
		}
		c.r = r
		return
	}
	for ; w > 0; w, si, di = w-1, si+sstep, di+dstep {
		r = min((r&^rm)+int(src[si]), 255)
		g = min((g&^gm)+int(src[si+1]), 255)
		b = min((b&^bm)+int(src[si+2]), 255)
		p := ((r&rm)<<f.red.shift + (g&gm)<<f.green.shift + (b&bm)<<f.blue.shift) >> f.extraShift
		f.order.PutUint16(dst[di:], uint16(p))
	}
	c.r, c.g, c.b = r, g, b
}

// bytes24Converter writes 3-byte pixels with the channels at fixed offsets.
type bytes24Converter struct {
	ri, gi, bi int
}

func (c bytes24Converter) Convert(dst, src []byte, w, delta int) {
	for si, di := 0, 0; w > 0; w, si, di = w-1, si+delta, di+3 {
		dst[di+c.ri] = src[si]
		dst[di+c.gi] = src[si+1]
		dst[di+c.bi] = src[si+2]
	}
}

// rrrConverter writes a gray source to all three bytes.
type rrrConverter struct{}

func (rrrConverter) Convert(dst, src []byte, w, delta int) {
	for si, di := 0, 0; w > 0; w, si, di = w-1, si+delta, di+3 {
		v := src[si]
		dst[di], dst[di+1], dst[di+2] = v, v, v
	}
}

// bytes32Converter writes 4-byte pixels with the channels at fixed offsets
// and a zero pad byte.
type bytes32Converter struct {
	ri, gi, bi int
	mono       bool
}

func (c bytes32Converter) Convert(dst, src []byte, w, delta int) {
	for si, di := 0, 0; w > 0; w, si, di = w-1, si+delta, di+4 {
		px := dst[di : di+4 : di+4]
		px[0], px[1], px[2], px[3] = 0, 0, 0, 0
		if c.mono {
			v := src[si]
			px[c.ri], px[c.gi], px[c.bi] = v, v, v
			continue
		}
		px[c.ri] = src[si]
		px[c.gi] = src[si+1]
		px[c.bi] = src[si+2]
	}
}

// true32Converter shifts the channels into a word written in display order.
type true32Converter struct {
	f    *Format
	mono bool
}

func (c true32Converter) Convert(dst, src []byte, w, delta int) {
	f := c.f
	for si, di := 0, 0; w > 0; w, si, di = w-1, si+delta, di+4 {
		r, g, b := uint32(src[si]), uint32(src[si]), uint32(src[si])
		if !c.mono {
			g, b = uint32(src[si+1]), uint32(src[si+2])
		}
		r &= uint32(f.red.mask)
		g &= uint32(f.green.mask)
		b &= uint32(f.blue.mask)
		f.order.PutUint32(dst[di:], r<<f.red.shift|g<<f.green.shift|b<<f.blue.shift)
	}
}

// argbPremulConverter writes premultiplied ARGB words from RGBA or
// gray+alpha sources.
type argbPremulConverter struct {
	order     binary.ByteOrder
	grayAlpha bool
}

func (c argbPremulConverter) Convert(dst, src []byte, w, delta int) {
	for si, di := 0, 0; w > 0; w, si, di = w-1, si+delta, di+4 {
		var r, g, b, a uint32
		if c.grayAlpha {
			a = uint32(src[si+1])
			r = uint32(src[si]) * a / 255
			g, b = r, r
		} else {
			a = uint32(src[si+3])
			r = uint32(src[si]) * a / 255
			g = uint32(src[si+1]) * a / 255
			b = uint32(src[si+2]) * a / 255
		}
		c.order.PutUint32(dst[di:], a<<24|r<<16|g<<8|b)
	}
}
