package fldraw

import (
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/internal/blit"
	"github.com/gogpu/fldraw/region"
)

// RGBImage is an image held in memory as 8-bit channels: gray (D = 1),
// gray+alpha (D = 2), RGB (D = 3) or RGBA (D = 4).
//
// Drawing an RGBImage may keep a copy of it on the display. Call
// Driver.Uncache after modifying Pix.
type RGBImage struct {
	Pix []byte

	// W and H are the size in pixels; D is the number of bytes per pixel.
	W, H, D int

	// LineDelta is the distance between rows; zero means W*D.
	LineDelta int
}

// NewRGBImage wraps pixels as an RGBImage, checking that they cover the
// image.
func NewRGBImage(pix []byte, w, h, d, ld int) (*RGBImage, error) {
	img := &RGBImage{Pix: pix, W: w, H: h, D: d, LineDelta: ld}
	if err := img.validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// FromImage copies any image into a new RGBImage: RGB when src is opaque,
// RGBA otherwise.
func FromImage(src image.Image) *RGBImage {
	b := src.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(nrgba, nrgba.Bounds(), src, b.Min, xdraw.Src)
	if !nrgba.Opaque() {
		return &RGBImage{Pix: nrgba.Pix, W: b.Dx(), H: b.Dy(), D: 4, LineDelta: nrgba.Stride}
	}
	rgb := make([]byte, b.Dx()*b.Dy()*3)
	for i, j := 0, 0; j < len(rgb); i, j = i+4, j+3 {
		copy(rgb[j:j+3], nrgba.Pix[i:i+3])
	}
	return &RGBImage{Pix: rgb, W: b.Dx(), H: b.Dy(), D: 3}
}

// HasAlpha reports whether the pixels carry an alpha byte.
func (img *RGBImage) HasAlpha() bool {
	return img.D == 2 || img.D == 4
}

func (img *RGBImage) ld() int {
	if img.LineDelta == 0 {
		return img.W * img.D
	}
	return img.LineDelta
}

func (img *RGBImage) depth() int {
	if img.HasAlpha() {
		return img.D | ImageWithAlpha
	}
	return img.D
}

func (img *RGBImage) validate() error {
	switch {
	case img.W <= 0 || img.H <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidImage, img.W, img.H)
	case img.D < 1 || img.D > 4:
		return fmt.Errorf("%w: depth %d", ErrInvalidImage, img.D)
	case img.LineDelta < 0 || img.LineDelta != 0 && img.LineDelta < img.W*img.D:
		return fmt.Errorf("%w: line delta %d", ErrInvalidImage, img.LineDelta)
	case len(img.Pix) < (img.H-1)*img.ld()+img.W*img.D:
		return fmt.Errorf("%w: %d bytes for %dx%dx%d", ErrInvalidImage, len(img.Pix), img.W, img.H, img.D)
	}
	return nil
}

// offscreen is the display copy of an RGBImage. A None pixmap records that
// the display cannot hold the image, so it is blended on every draw.
type offscreen struct {
	pixmap display.Drawable
	alpha  bool
}

func (d *Driver) freeOffscreen(img *RGBImage, off offscreen) {
	if off.pixmap == display.None {
		return
	}
	if err := d.disp.FreePixmap(off.pixmap); err != nil && !errors.Is(err, display.ErrClosed) {
		d.logger.Warn("fldraw: free offscreen", "err", err)
	}
}

// Cache copies img to the display so that later draws are server side
// copies. Images with alpha are only copied when the display can blend.
func (d *Driver) Cache(img *RGBImage) error {
	_, err := d.offscreenOf(img)
	return err
}

// Uncache releases the display copy of img, if any.
func (d *Driver) Uncache(img *RGBImage) {
	d.images.Delete(img)
}

func (d *Driver) offscreenOf(img *RGBImage) (offscreen, error) {
	if _, err := d.ready(); err != nil {
		return offscreen{}, err
	}
	if err := img.validate(); err != nil {
		return offscreen{}, err
	}
	return d.images.GetOrCreate(img, func() (offscreen, error) {
		return d.createOffscreen(img)
	})
}

func (d *Driver) createOffscreen(img *RGBImage) (offscreen, error) {
	alpha := img.HasAlpha()
	if alpha && !d.canBlend() {
		return offscreen{}, nil
	}
	pm, err := d.disp.CreatePixmap(img.W, img.H, alpha)
	if err != nil {
		return offscreen{}, fmt.Errorf("fldraw: create offscreen: %w", err)
	}

	_, mono, _ := splitDepth(img.D)
	src := blit.Source{Pix: img.Pix, Delta: img.D, LineDelta: img.ld(), Mono: mono, Alpha: alpha}
	all := region.NewRect(0, 0, img.W, img.H)
	if _, err := d.engine.Blit(d.format, src, all, all, d.sinkTo(pm)); err != nil {
		d.freeOffscreen(img, offscreen{pixmap: pm})
		return offscreen{}, err
	}
	d.logger.Debug("fldraw: cached image", "size", all, "alpha", alpha)
	return offscreen{pixmap: pm, alpha: alpha}, nil
}

// DrawRGBImage draws the w by h part of img starting at pixel (cx, cy) with
// that pixel at (x, y). The part is clamped to the image.
//
// Opaque images are copied from their display copy, one copy per visible
// clip piece. Images with alpha are composited by the display when it can
// blend, and otherwise blended over the current contents of the target.
func (d *Driver) DrawRGBImage(img *RGBImage, x, y, w, h, cx, cy int) error {
	if cx < 0 {
		x, w, cx = x-cx, w+cx, 0
	}
	if cy < 0 {
		y, h, cy = y-cy, h+cy, 0
	}
	w = min(w, img.W-cx)
	h = min(h, img.H-cy)
	if w <= 0 || h <= 0 {
		return nil
	}

	off, err := d.offscreenOf(img)
	if err != nil {
		return err
	}
	req := region.NewRect(x, y, w, h)

	if off.pixmap == display.None {
		src := blit.Source{
			Pix:       img.Pix[cy*img.ld()+cx*img.D:],
			Delta:     img.D,
			LineDelta: img.ld(),
			Mono:      img.D < 3,
			Alpha:     true,
		}
		return d.alphaFallback(src, req)
	}

	for piece := range d.clip.Pieces(req) {
		sr := image.Rect(cx+piece.Left-x, cy+piece.Top-y, cx+piece.Right-x, cy+piece.Bottom-y)
		dp := image.Pt(piece.Left, piece.Top)
		if off.alpha {
			err = d.disp.Composite(off.pixmap, d.target, sr, dp)
		} else {
			err = d.disp.CopyArea(off.pixmap, d.target, sr, dp)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DrawScaled resamples src to w by h pixels and draws the result at
// (x, y).
func (d *Driver) DrawScaled(src image.Image, x, y, w, h int) error {
	if w <= 0 || h <= 0 || src.Bounds().Empty() {
		return nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	depth := 4
	if !dst.Opaque() {
		depth |= ImageWithAlpha
	}
	return d.DrawImage(dst.Pix, x, y, w, h, depth, dst.Stride)
}
