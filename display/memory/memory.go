// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package memory provides an in-process display whose window is a
// framebuffer of native pixels.
//
// The pixel layout is taken from a [Profile], so any visual the driver
// supports can be emulated and inspected without a display server:
//
//	d, err := memory.New(display.Options{Profile: "rgb565.toml"})
//	...
//	img := d.Snapshot()
//
// Importing the package registers the "memory" backend.
package memory

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/internal/blend"
	"github.com/gogpu/fldraw/pixfmt"
)

func init() {
	display.Register("memory", 10, func(opts display.Options) (display.Display, error) {
		return New(opts)
	}, nil)
}

type surfaceKind uint8

const (
	kindWindow surfaceKind = iota
	kindPixmap
	kindAlpha
	kindBitmask
)

// surface is the storage of one drawable.
type surface struct {
	kind   surfaceKind
	w, h   int
	bpp    int // bytes per pixel, 0 for bitmasks
	stride int
	pix    []byte
}

func (s *surface) bounds() image.Rectangle {
	return image.Rect(0, 0, s.w, s.h)
}

func (s *surface) offset(x, y int) int {
	return y*s.stride + x*s.bpp
}

// Display is an in-memory display.
//
// Display is NOT safe for concurrent use.
type Display struct {
	visual  pixfmt.Visual
	format  *pixfmt.Format
	argb    *pixfmt.Format
	palette *palette
	alpha   bool
	logger  *slog.Logger

	drawables map[display.Drawable]*surface
	next      display.Drawable
	window    display.Drawable
	closed    bool
}

// New opens an in-memory display. The layout comes from opts.Visual, else
// from the profile file named by opts.Profile, else from DefaultProfile.
// Non-zero opts.Width and opts.Height override the profile size.
func New(opts display.Options) (*Display, error) {
	p := DefaultProfile()
	if opts.Profile != "" {
		var err error
		if p, err = LoadProfile(opts.Profile); err != nil {
			return nil, err
		}
	}
	if opts.Width > 0 {
		p.Width = opts.Width
	}
	if opts.Height > 0 {
		p.Height = opts.Height
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("memory: invalid window size %dx%d", p.Width, p.Height)
	}

	v, err := p.Visual()
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	if opts.Visual != nil {
		v = *opts.Visual
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := &Display{
		visual:    v,
		alpha:     p.AlphaBlending || opts.AlphaBlending,
		logger:    logger,
		drawables: make(map[display.Drawable]*surface),
		next:      1,
	}
	var alloc pixfmt.Allocator
	if !v.TrueColor() {
		d.palette = newPalette()
		alloc = d.palette
	}
	if d.format, err = pixfmt.Resolve(v, alloc); err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	d.argb = d.format.ARGB()

	bpp := d.format.BytesPerPixel()
	d.window = d.add(&surface{
		kind:   kindWindow,
		w:      p.Width,
		h:      p.Height,
		bpp:    bpp,
		stride: d.format.RowBytes(p.Width),
		pix:    make([]byte, d.format.RowBytes(p.Width)*p.Height),
	})

	logger.Info("memory display opened", "width", p.Width, "height", p.Height, "format", d.format.String(), "alpha", d.alpha)
	return d, nil
}

func (d *Display) add(s *surface) display.Drawable {
	id := d.next
	d.next++
	d.drawables[id] = s
	return id
}

func (d *Display) lookup(id display.Drawable) (*surface, error) {
	if d.closed {
		return nil, display.ErrClosed
	}
	s, ok := d.drawables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", display.ErrBadDrawable, id)
	}
	return s, nil
}

// lookupOpaque returns a window or pixmap holding display pixels.
func (d *Display) lookupOpaque(id display.Drawable) (*surface, error) {
	s, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	if s.kind != kindWindow && s.kind != kindPixmap {
		return nil, fmt.Errorf("%w: drawable %d does not hold display pixels", display.ErrBadMatch, id)
	}
	return s, nil
}

// Visual implements display.Display.
func (d *Display) Visual() pixfmt.Visual { return d.visual }

// Allocator implements display.Display.
func (d *Display) Allocator() pixfmt.Allocator {
	if d.palette == nil {
		return nil
	}
	return d.palette
}

// Window implements display.Display.
func (d *Display) Window() display.Drawable { return d.window }

// CanAlphaBlend implements display.Display.
func (d *Display) CanAlphaBlend() bool { return d.alpha }

// Format returns the resolved layout of the framebuffer.
func (d *Display) Format() *pixfmt.Format { return d.format }

// Resources returns the number of live pixmaps and bitmasks.
func (d *Display) Resources() int { return len(d.drawables) - 1 }

// rgb decodes a display pixel.
func (d *Display) rgb(p uint32) (r, g, b uint8) {
	if d.palette != nil {
		return d.palette.color(p)
	}
	return d.format.RGB(p)
}

// pixel encodes a color without dithering.
func (d *Display) pixel(r, g, b uint8) uint32 {
	if d.palette != nil {
		return d.palette.AllocColor(r, g, b).Pixel
	}
	return d.format.Pixel(r, g, b)
}

// overRow composites n premultiplied ARGB pixels over display pixels.
func (d *Display) overRow(dst, src []byte, n int) {
	bpp := d.format.BytesPerPixel()
	for i := 0; i < n; i++ {
		sp := d.argb.ReadPixel(src[i*4:])
		if sp>>24 == 0 {
			continue
		}
		dp := dst[i*bpp:]
		dr, dg, db := d.rgb(d.format.ReadPixel(dp))
		r, g, b := blend.Over(uint8(sp>>16), uint8(sp>>8), uint8(sp), uint8(sp>>24), dr, dg, db)
		d.format.PutPixel(dp, d.pixel(r, g, b))
	}
}

// Bounds implements display.Display.
func (d *Display) Bounds(id display.Drawable) (image.Rectangle, error) {
	s, err := d.lookup(id)
	if err != nil {
		return image.Rectangle{}, err
	}
	return s.bounds(), nil
}

// PutImage implements display.Display. Images are clipped to the drawable.
func (d *Display) PutImage(dst display.Drawable, img *display.Image) error {
	s, err := d.lookup(dst)
	if err != nil {
		return err
	}
	if s.kind == kindBitmask {
		return fmt.Errorf("%w: image into bitmask", display.ErrBadMatch)
	}

	composite := false
	switch {
	case img.Alpha && !d.alpha:
		return fmt.Errorf("%w: alpha image", display.ErrNotSupported)
	case img.Alpha && img.BitsPerPixel != 32:
		return fmt.Errorf("%w: alpha image with %d bits per pixel", display.ErrBadMatch, img.BitsPerPixel)
	case img.Alpha:
		composite = s.kind != kindAlpha
	case s.kind == kindAlpha || img.BitsPerPixel != s.bpp*8:
		return fmt.Errorf("%w: %d bits per pixel into %d", display.ErrBadMatch, img.BitsPerPixel, s.bpp*8)
	}

	r := img.Bounds().Intersect(s.bounds())
	if r.Empty() {
		return nil
	}
	ibpp := img.BitsPerPixel / 8
	n := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := img.Data[(y-img.Y)*img.Stride+(r.Min.X-img.X)*ibpp:]
		dstRow := s.pix[s.offset(r.Min.X, y):]
		if composite {
			d.overRow(dstRow, src, n)
			continue
		}
		copy(dstRow[:n*s.bpp], src[:n*ibpp])
	}
	return nil
}

// GetImage implements display.Display. The rectangle must lie inside the
// drawable.
func (d *Display) GetImage(src display.Drawable, r image.Rectangle) (*display.Image, error) {
	s, err := d.lookup(src)
	if err != nil {
		return nil, err
	}
	if s.kind == kindBitmask {
		return nil, fmt.Errorf("%w: read from bitmask", display.ErrBadMatch)
	}
	if r.Empty() || !r.In(s.bounds()) {
		return nil, fmt.Errorf("%w: rectangle %v outside drawable %v", display.ErrBadMatch, r, s.bounds())
	}

	depth := d.format.Depth()
	if s.kind == kindAlpha {
		depth = 32
	}
	img := &display.Image{
		X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy(),
		Stride:       r.Dx() * s.bpp,
		Depth:        depth,
		BitsPerPixel: s.bpp * 8,
		Alpha:        s.kind == kindAlpha,
	}
	img.Data = make([]byte, img.Stride*img.Height)
	for y := 0; y < img.Height; y++ {
		off := s.offset(r.Min.X, r.Min.Y+y)
		copy(img.Data[y*img.Stride:(y+1)*img.Stride], s.pix[off:])
	}
	return img, nil
}

// CreatePixmap implements display.Display.
func (d *Display) CreatePixmap(w, h int, alpha bool) (display.Drawable, error) {
	if d.closed {
		return display.None, display.ErrClosed
	}
	if w <= 0 || h <= 0 {
		return display.None, fmt.Errorf("%w: pixmap size %dx%d", display.ErrBadMatch, w, h)
	}
	s := &surface{kind: kindPixmap, w: w, h: h, bpp: d.format.BytesPerPixel()}
	if alpha {
		if !d.alpha {
			return display.None, fmt.Errorf("%w: alpha pixmap", display.ErrNotSupported)
		}
		s.kind, s.bpp = kindAlpha, 4
	}
	s.stride = w * s.bpp
	s.pix = make([]byte, s.stride*h)
	return d.add(s), nil
}

// FreePixmap implements display.Display.
func (d *Display) FreePixmap(p display.Drawable) error {
	s, err := d.lookup(p)
	if err != nil {
		return err
	}
	if s.kind == kindWindow {
		return fmt.Errorf("%w: cannot free the window", display.ErrBadDrawable)
	}
	delete(d.drawables, p)
	return nil
}

// clipTransfer restricts a source rectangle and its destination point to
// the parts inside both drawables.
func clipTransfer(sr image.Rectangle, dp image.Point, sb, db image.Rectangle) (image.Rectangle, image.Point) {
	off := dp.Sub(sr.Min)
	dr := sr.Intersect(sb).Add(off).Intersect(db)
	return dr.Sub(off), dr.Min
}

// CopyArea implements display.Display.
func (d *Display) CopyArea(src, dst display.Drawable, sr image.Rectangle, dp image.Point) error {
	ss, err := d.lookupOpaque(src)
	if err != nil {
		return err
	}
	ds, err := d.lookupOpaque(dst)
	if err != nil {
		return err
	}

	sr, dp = clipTransfer(sr, dp, ss.bounds(), ds.bounds())
	if sr.Empty() {
		return nil
	}
	n := sr.Dx() * ss.bpp
	rows := sr.Dy()
	copyRow := func(j int) {
		copy(ds.pix[ds.offset(dp.X, dp.Y+j):][:n], ss.pix[ss.offset(sr.Min.X, sr.Min.Y+j):][:n])
	}
	if ss == ds && dp.Y > sr.Min.Y {
		for j := rows - 1; j >= 0; j-- {
			copyRow(j)
		}
		return nil
	}
	for j := 0; j < rows; j++ {
		copyRow(j)
	}
	return nil
}

// Composite implements display.Display.
func (d *Display) Composite(src, dst display.Drawable, sr image.Rectangle, dp image.Point) error {
	if !d.alpha {
		return fmt.Errorf("%w: composite", display.ErrNotSupported)
	}
	ss, err := d.lookup(src)
	if err != nil {
		return err
	}
	if ss.kind != kindAlpha {
		return fmt.Errorf("%w: composite source %d has no alpha", display.ErrBadMatch, src)
	}
	ds, err := d.lookupOpaque(dst)
	if err != nil {
		return err
	}

	sr, dp = clipTransfer(sr, dp, ss.bounds(), ds.bounds())
	for j := 0; j < sr.Dy(); j++ {
		d.overRow(ds.pix[ds.offset(dp.X, dp.Y+j):], ss.pix[ss.offset(sr.Min.X, sr.Min.Y+j):], sr.Dx())
	}
	return nil
}

// CreateBitmask implements display.Display.
func (d *Display) CreateBitmask(w, h int, data []byte) (display.Drawable, error) {
	if d.closed {
		return display.None, display.ErrClosed
	}
	stride := (w + 7) / 8
	if w <= 0 || h <= 0 || len(data) < stride*h {
		return display.None, fmt.Errorf("%w: bitmask %dx%d from %d bytes", display.ErrBadMatch, w, h, len(data))
	}
	pix := make([]byte, stride*h)
	copy(pix, data)
	return d.add(&surface{kind: kindBitmask, w: w, h: h, stride: stride, pix: pix}), nil
}

// FillStippled implements display.Display.
func (d *Display) FillStippled(dst, mask display.Drawable, origin image.Point, r image.Rectangle, pixel uint32) error {
	ds, err := d.lookupOpaque(dst)
	if err != nil {
		return err
	}
	ms, err := d.lookup(mask)
	if err != nil {
		return err
	}
	if ms.kind != kindBitmask {
		return fmt.Errorf("%w: stipple %d is not a bitmask", display.ErrBadMatch, mask)
	}

	r = r.Intersect(ds.bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		my := mod(y-origin.Y, ms.h)
		bits := ms.pix[my*ms.stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			mx := mod(x-origin.X, ms.w)
			if bits[mx>>3]>>(mx&7)&1 != 0 {
				d.format.PutPixel(ds.pix[ds.offset(x, y):], pixel)
			}
		}
	}
	return nil
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// Snapshot returns the window contents as an RGBA image.
func (d *Display) Snapshot() *image.RGBA {
	s := d.drawables[d.window]
	if s == nil {
		return nil
	}
	img := image.NewRGBA(s.bounds())
	for y := 0; y < s.h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < s.w; x++ {
			r, g, b := d.rgb(d.format.ReadPixel(s.pix[s.offset(x, y):]))
			row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = r, g, b, 0xFF
		}
	}
	return img
}

// Close implements display.Display. Pixmaps and bitmasks are released;
// the window stays readable through Snapshot.
func (d *Display) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.logger.Debug("memory display closed", "resources", d.Resources())
	for id := range d.drawables {
		if id != d.window {
			delete(d.drawables, id)
		}
	}
	return nil
}
