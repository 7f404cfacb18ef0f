package fldraw

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/region"
)

// Bitmap is a 1-bit image in XBM layout: rows of (W+7)/8 bytes, the
// leftmost pixel in the least significant bit. Set bits are drawn in the
// requested color, clear bits leave the target untouched.
type Bitmap struct {
	Data []byte
	W, H int
}

func (bm *Bitmap) validate() error {
	if bm.W <= 0 || bm.H <= 0 {
		return fmt.Errorf("%w: bitmap size %dx%d", ErrInvalidImage, bm.W, bm.H)
	}
	if n := (bm.W + 7) / 8 * bm.H; len(bm.Data) < n {
		return fmt.Errorf("%w: %d bytes for a %dx%d bitmap", ErrInvalidImage, len(bm.Data), bm.W, bm.H)
	}
	return nil
}

// CreateBitmask creates a 1-bit stencil on the display from XBM data.
// Release it with DeleteBitmask.
func (d *Driver) CreateBitmask(w, h int, data []byte) (display.Drawable, error) {
	if d.closed {
		return display.None, ErrClosed
	}
	bm := Bitmap{Data: data, W: w, H: h}
	if err := bm.validate(); err != nil {
		return display.None, err
	}
	mask, err := d.disp.CreateBitmask(w, h, data)
	if err != nil {
		return display.None, fmt.Errorf("fldraw: create bitmask: %w", err)
	}
	return mask, nil
}

// DeleteBitmask releases a stencil made by CreateBitmask.
func (d *Driver) DeleteBitmask(mask display.Drawable) error {
	if mask == display.None {
		return nil
	}
	return d.disp.FreePixmap(mask)
}

func (d *Driver) freeBitmask(bm *Bitmap, mask display.Drawable) {
	if err := d.DeleteBitmask(mask); err != nil && !errors.Is(err, display.ErrClosed) {
		d.logger.Warn("fldraw: free bitmask", "err", err)
	}
}

// UncacheBitmap releases the stencil kept for bm, if any.
func (d *Driver) UncacheBitmap(bm *Bitmap) {
	d.bitmasks.Delete(bm)
}

// DrawBitmap draws the w by h part of bm starting at pixel (cx, cy) with
// that pixel at (x, y), in the given color. The stencil tiles the area, so
// a part larger than the bitmap repeats it.
func (d *Driver) DrawBitmap(bm *Bitmap, x, y, w, h, cx, cy int, r, g, b uint8) error {
	f, err := d.ready()
	if err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return nil
	}
	if err := bm.validate(); err != nil {
		return err
	}
	mask, err := d.bitmasks.GetOrCreate(bm, func() (display.Drawable, error) {
		return d.CreateBitmask(bm.W, bm.H, bm.Data)
	})
	if err != nil {
		return err
	}

	ox, oy := x-cx, y-cy
	if ox < 0 {
		ox += bm.W
	}
	if oy < 0 {
		oy += bm.H
	}
	origin := image.Pt(ox, oy)
	pixel := f.Pixel(r, g, b)

	for piece := range d.clip.Pieces(region.NewRect(x, y, w, h)) {
		if err := d.disp.FillStippled(d.target, mask, origin, piece.Rectangle(), pixel); err != nil {
			return err
		}
	}
	return nil
}
