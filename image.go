package fldraw

import (
	"fmt"

	"github.com/gogpu/fldraw/internal/blend"
	"github.com/gogpu/fldraw/internal/blit"
	"github.com/gogpu/fldraw/region"
)

// ImageWithAlpha is or-ed into the depth of DrawImage and DrawImageFunc to
// mark pixels carrying an alpha byte after their color bytes.
const ImageWithAlpha = 0x1000

// LineFunc produces one source scanline for the callback forms of
// DrawImage: w pixels starting at column x of row y of the image, written
// to buf. buf holds w*d bytes, d being the depth passed to the draw call.
type LineFunc func(x, y, w int, buf []byte)

// splitDepth separates the alpha flag from a depth. Depths below 3 are
// gray.
func splitDepth(depth int) (d int, mono, alpha bool) {
	alpha = depth&ImageWithAlpha != 0
	d = depth &^ ImageWithAlpha
	return d, d < 3, alpha
}

// DrawImage draws a w by h image whose top-left pixel lands at (x, y).
//
// Pixels are depth bytes apart and rows ld bytes apart; an ld of zero
// means w*depth. Depths 1 and 2 are gray, 3 and 4 are RGB. With
// ImageWithAlpha or-ed into depth, the byte after the color bytes is
// alpha: gray+alpha for depth 2, RGBA for depth 4.
func (d *Driver) DrawImage(buf []byte, x, y, w, h, depth, ld int) error {
	n, mono, alpha := splitDepth(depth)
	return d.drawBuffer(buf, x, y, w, h, n, ld, mono, alpha)
}

// DrawImageMono draws the first byte of each pixel as a gray level.
func (d *Driver) DrawImageMono(buf []byte, x, y, w, h, depth, ld int) error {
	return d.drawBuffer(buf, x, y, w, h, depth, ld, true, false)
}

// DrawImageFunc draws a w by h image whose rows are produced by fn, one
// call per visible row, in top to bottom order. depth has the meaning it
// has for DrawImage.
func (d *Driver) DrawImageFunc(fn LineFunc, x, y, w, h, depth int) error {
	n, mono, alpha := splitDepth(depth)
	return d.drawFunc(fn, x, y, w, h, n, mono, alpha)
}

// DrawImageMonoFunc is DrawImageFunc for gray images.
func (d *Driver) DrawImageMonoFunc(fn LineFunc, x, y, w, h, depth int) error {
	return d.drawFunc(fn, x, y, w, h, depth, true, false)
}

func (d *Driver) drawBuffer(buf []byte, x, y, w, h, depth, ld int, mono, alpha bool) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if depth < 0 || ld < 0 {
		return fmt.Errorf("%w: depth %d, line delta %d", blit.ErrInvalidStride, depth, ld)
	}
	if ld == 0 {
		ld = w * depth
	}
	src := blit.Source{Pix: buf, Delta: depth, LineDelta: ld, Mono: mono, Alpha: alpha}
	if err := checkDepth(&src); err != nil {
		return err
	}
	return d.blit(src, region.NewRect(x, y, w, h))
}

func (d *Driver) drawFunc(fn LineFunc, x, y, w, h, depth int, mono, alpha bool) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if fn == nil {
		return fmt.Errorf("%w: nil line function", ErrInvalidImage)
	}
	if depth < 0 {
		return fmt.Errorf("%w: depth %d", blit.ErrInvalidStride, depth)
	}
	src := blit.Source{Func: blit.LineFunc(fn), Delta: depth, Mono: mono, Alpha: alpha}
	if err := checkDepth(&src); err != nil {
		return err
	}
	return d.blit(src, region.NewRect(x, y, w, h))
}

// checkDepth rejects pixel strides too small for the bytes a pixel needs.
// A zero stride repeats one pixel.
func checkDepth(src *blit.Source) error {
	if src.Delta != 0 && src.Delta < src.Channels() {
		return fmt.Errorf("%w: depth %d for %d channels", ErrInvalidImage, src.Delta, src.Channels())
	}
	return nil
}

// RectFill fills a rectangle with a color. On displays of up to 16 bits
// per pixel the color is dithered.
func (d *Driver) RectFill(x, y, w, h int, r, g, b uint8) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	src := blit.Source{Pix: []byte{r, g, b}}
	return d.blit(src, region.NewRect(x, y, w, h))
}

// alphaFallback blends src over the pixels already in the target and
// draws the result as an opaque image. Only the visible part of req inside
// the target is read back.
func (d *Driver) alphaFallback(src blit.Source, req region.Rect) error {
	f, err := d.ready()
	if err != nil {
		return err
	}
	bounds, err := d.disp.Bounds(d.target)
	if err != nil {
		return err
	}
	area := region.FromRectangle(bounds)

	delta := src.Delta
	var line []byte
	if src.Func != nil {
		if delta == 0 {
			delta = src.Channels()
		}
		line = make([]byte, req.W()*delta+src.Channels())
	}

	sink := d.sinkTo(d.target)
	var rgb []byte
	for piece := range d.clip.Pieces(req) {
		if piece.IntersectWith(area) == region.Empty {
			continue
		}
		w, h := piece.W(), piece.H()
		dx, dy := piece.Left-req.Left, piece.Top-req.Top
		if src.Func == nil {
			last := (dy+h-1)*src.LineDelta + (dx+w-1)*src.Delta + src.Channels()
			if last > len(src.Pix) {
				return fmt.Errorf("%w: need %d bytes, have %d", blit.ErrShortBuffer, last, len(src.Pix))
			}
		}

		back, err := d.disp.GetImage(d.target, piece.Rectangle())
		if err != nil {
			return fmt.Errorf("fldraw: read back destination: %w", err)
		}
		if cap(rgb) < w*h*3 {
			rgb = make([]byte, w*h*3)
		}
		rgb = rgb[:w*h*3]

		for j := range h {
			row := rgb[j*w*3 : (j+1)*w*3]
			f.Decode(row, back.Row(j), w)
			var s []byte
			if src.Func != nil {
				src.Func(dx, dy+j, w, line)
				s = line
			} else {
				s = src.Pix[(dy+j)*src.LineDelta+dx*src.Delta:]
			}
			blend.CompositeOver(row, s, w, delta, src.Mono)
		}

		opaque := blit.Source{Pix: rgb, Delta: 3, LineDelta: w * 3}
		if _, err := d.engine.Blit(f, opaque, piece, piece, sink); err != nil {
			return err
		}
	}
	d.logger.Debug("fldraw: alpha fallback", "rect", req)
	return nil
}
