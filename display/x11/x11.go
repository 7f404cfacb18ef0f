// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package x11 is a display backend speaking the X11 core protocol through
// github.com/BurntSushi/xgb.
//
// The window visual, pixmap formats and byte order come from the connection
// setup. Images are sent with ZPixmap PutImage requests split by rows to
// stay under the server's request size limit. The core protocol has no
// alpha compositing, so alpha images are left to the driver's fallback.
//
// Importing the package registers the "x11" backend when DISPLAY is set.
package x11

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/pixfmt"
)

func init() {
	display.Register("x11", 100, func(opts display.Options) (display.Display, error) {
		return New(opts)
	}, func() bool {
		return os.Getenv("DISPLAY") != ""
	})
}

const (
	defaultWidth  = 640
	defaultHeight = 480
)

type resource struct {
	w, h    int
	bitmask bool
}

// Display is a connection to an X server with one mapped window.
//
// Display is NOT safe for concurrent use.
type Display struct {
	conn   *xgb.Conn
	setup  *xproto.SetupInfo
	screen *xproto.ScreenInfo
	visual pixfmt.Visual
	logger *slog.Logger

	window    xproto.Window
	gc        xproto.Gcontext
	stippleGC xproto.Gcontext
	bitmaskGC xproto.Gcontext // created with the first bitmask

	bitmapPad int
	bitmapMSB bool
	maxData   int
	packbuf   []byte

	resources map[display.Drawable]resource
	alloc     pixfmt.Allocator
	closed    bool
}

// New connects to the server named by opts.Address, or $DISPLAY when it is
// empty, and maps a window of the requested size.
func New(opts display.Options) (*Display, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var conn *xgb.Conn
	var err error
	if opts.Address != "" {
		conn, err = xgb.NewConnDisplay(opts.Address)
	} else {
		conn, err = xgb.NewConn()
	}
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}

	d := &Display{
		conn:      conn,
		logger:    logger,
		resources: make(map[display.Drawable]resource),
	}
	if err := d.init(opts); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func (d *Display) init(opts display.Options) error {
	d.setup = xproto.Setup(d.conn)
	d.screen = d.setup.DefaultScreen(d.conn)

	v, err := visualOf(d.setup, d.screen)
	if err != nil {
		return err
	}
	d.visual = v
	d.bitmapPad = int(d.setup.BitmapFormatScanlinePad)
	d.bitmapMSB = d.setup.BitmapFormatBitOrder == xproto.ImageOrderMSBFirst
	d.maxData = maxPutImageData(d.setup.MaximumRequestLength)
	if !v.TrueColor() {
		d.alloc = &colormapAllocator{
			conn:     d.conn,
			cmap:     d.screen.DefaultColormap,
			fallback: d.screen.BlackPixel,
			known:    make(map[uint32]pixfmt.Entry),
		}
	}

	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}

	if d.window, err = xproto.NewWindowId(d.conn); err != nil {
		return fmt.Errorf("x11: xproto.NewWindowId failed: %w", err)
	}
	if d.gc, err = xproto.NewGcontextId(d.conn); err != nil {
		return fmt.Errorf("x11: xproto.NewGcontextId failed: %w", err)
	}
	if d.stippleGC, err = xproto.NewGcontextId(d.conn); err != nil {
		return fmt.Errorf("x11: xproto.NewGcontextId failed: %w", err)
	}

	err = xproto.CreateWindowChecked(d.conn, d.screen.RootDepth, d.window, d.screen.Root,
		0, 0, uint16(w), uint16(h), 0,
		xproto.WindowClassInputOutput, d.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{d.screen.WhitePixel, xproto.EventMaskExposure | xproto.EventMaskStructureNotify},
	).Check()
	if err != nil {
		return fmt.Errorf("x11: create window: %w", translate(err))
	}
	xproto.CreateGC(d.conn, d.gc, xproto.Drawable(d.window), xproto.GcGraphicsExposures, []uint32{0})
	xproto.CreateGC(d.conn, d.stippleGC, xproto.Drawable(d.window), xproto.GcFillStyle, []uint32{xproto.FillStyleStippled})
	xproto.MapWindow(d.conn, d.window)
	d.resources[display.Drawable(d.window)] = resource{w: w, h: h}

	d.logger.Info("x11: connected", "visual", v.String(), "maxRequestData", d.maxData)
	return nil
}

// Visual implements display.Display.
func (d *Display) Visual() pixfmt.Visual { return d.visual }

// Allocator implements display.Display. Palette visuals allocate read-only
// cells in the default colormap.
func (d *Display) Allocator() pixfmt.Allocator { return d.alloc }

// Window implements display.Display.
func (d *Display) Window() display.Drawable { return display.Drawable(d.window) }

// CanAlphaBlend implements display.Display. The core protocol cannot blend.
func (d *Display) CanAlphaBlend() bool { return false }

func (d *Display) lookup(id display.Drawable) (resource, error) {
	if d.closed {
		return resource{}, display.ErrClosed
	}
	r, ok := d.resources[id]
	if !ok {
		return resource{}, fmt.Errorf("%w: %#x", display.ErrBadDrawable, uint32(id))
	}
	return r, nil
}

// Bounds implements display.Display.
func (d *Display) Bounds(id display.Drawable) (image.Rectangle, error) {
	r, err := d.lookup(id)
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(0, 0, r.w, r.h), nil
}

// PutImage implements display.Display. Rows are repacked to the server's
// scanline pad when the image stride differs, and sent in as many requests
// as the request size limit needs.
func (d *Display) PutImage(dst display.Drawable, img *display.Image) error {
	res, err := d.lookup(dst)
	if err != nil {
		return err
	}
	if res.bitmask {
		return fmt.Errorf("%w: image into bitmask", display.ErrBadMatch)
	}
	if img.Alpha {
		return fmt.Errorf("x11: alpha image: %w", display.ErrNotSupported)
	}
	if img.BitsPerPixel != d.visual.BitsPerPixel {
		return fmt.Errorf("%w: %d bpp image on %d bpp drawable", display.ErrBadMatch, img.BitsPerPixel, d.visual.BitsPerPixel)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil
	}

	n := img.Width * img.BitsPerPixel / 8
	rb := rowBytes(img.Width, d.visual.BitsPerPixel, d.visual.ScanlinePad)
	rows := rowsPerRequest(rb, d.maxData)
	if rb > d.maxData {
		d.logger.Warn("x11: image row exceeds request size", "rowBytes", rb, "max", d.maxData)
	}

	for y := 0; y < img.Height; y += rows {
		h := min(rows, img.Height-y)
		data := chunkRows(&d.packbuf, img.Data, img.Stride, y, h, n, rb)
		xproto.PutImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(dst), d.gc,
			uint16(img.Width), uint16(h), int16(img.X), int16(img.Y+y),
			0, byte(d.visual.Depth), data)
	}
	return nil
}

// GetImage implements display.Display.
func (d *Display) GetImage(src display.Drawable, r image.Rectangle) (*display.Image, error) {
	res, err := d.lookup(src)
	if err != nil {
		return nil, err
	}
	if res.bitmask || !r.In(image.Rect(0, 0, res.w, res.h)) {
		return nil, fmt.Errorf("%w: read %v from %dx%d drawable", display.ErrBadMatch, r, res.w, res.h)
	}
	reply, err := xproto.GetImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(src),
		int16(r.Min.X), int16(r.Min.Y), uint16(r.Dx()), uint16(r.Dy()), 0xFFFFFFFF).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: get image: %w", translate(err))
	}
	return &display.Image{
		X:            r.Min.X,
		Y:            r.Min.Y,
		Width:        r.Dx(),
		Height:       r.Dy(),
		Stride:       rowBytes(r.Dx(), d.visual.BitsPerPixel, d.visual.ScanlinePad),
		Depth:        int(reply.Depth),
		BitsPerPixel: d.visual.BitsPerPixel,
		Data:         reply.Data,
	}, nil
}

// CreatePixmap implements display.Display. Alpha pixmaps are not available.
func (d *Display) CreatePixmap(w, h int, alpha bool) (display.Drawable, error) {
	if d.closed {
		return display.None, display.ErrClosed
	}
	if alpha {
		return display.None, fmt.Errorf("x11: alpha pixmap: %w", display.ErrNotSupported)
	}
	return d.createPixmap(w, h, d.screen.RootDepth, false)
}

func (d *Display) createPixmap(w, h int, depth byte, bitmask bool) (display.Drawable, error) {
	pid, err := xproto.NewPixmapId(d.conn)
	if err != nil {
		return display.None, fmt.Errorf("x11: xproto.NewPixmapId failed: %w", err)
	}
	err = xproto.CreatePixmapChecked(d.conn, depth, pid, xproto.Drawable(d.window), uint16(w), uint16(h)).Check()
	if err != nil {
		return display.None, fmt.Errorf("x11: create pixmap: %w", translate(err))
	}
	id := display.Drawable(pid)
	d.resources[id] = resource{w: w, h: h, bitmask: bitmask}
	return id, nil
}

// FreePixmap implements display.Display.
func (d *Display) FreePixmap(p display.Drawable) error {
	if _, err := d.lookup(p); err != nil {
		return err
	}
	if p == display.Drawable(d.window) {
		return fmt.Errorf("%w: window is not a pixmap", display.ErrBadDrawable)
	}
	xproto.FreePixmap(d.conn, xproto.Pixmap(p))
	delete(d.resources, p)
	return nil
}

// CopyArea implements display.Display.
func (d *Display) CopyArea(src, dst display.Drawable, sr image.Rectangle, dp image.Point) error {
	s, err := d.lookup(src)
	if err != nil {
		return err
	}
	t, err := d.lookup(dst)
	if err != nil {
		return err
	}
	if s.bitmask || t.bitmask {
		return fmt.Errorf("%w: copy between bitmask and pixmap", display.ErrBadMatch)
	}
	xproto.CopyArea(d.conn, xproto.Drawable(src), xproto.Drawable(dst), d.gc,
		int16(sr.Min.X), int16(sr.Min.Y), int16(dp.X), int16(dp.Y), uint16(sr.Dx()), uint16(sr.Dy()))
	return nil
}

// Composite implements display.Display. It always fails.
func (d *Display) Composite(src, dst display.Drawable, sr image.Rectangle, dp image.Point) error {
	return fmt.Errorf("x11: composite: %w", display.ErrNotSupported)
}

// CreateBitmask implements display.Display.
func (d *Display) CreateBitmask(w, h int, data []byte) (display.Drawable, error) {
	if d.closed {
		return display.None, display.ErrClosed
	}
	if len(data) < (w+7)/8*h {
		return display.None, fmt.Errorf("%w: %d bytes for a %dx%d bitmask", display.ErrBadMatch, len(data), w, h)
	}
	id, err := d.createPixmap(w, h, 1, true)
	if err != nil {
		return display.None, err
	}
	if d.bitmaskGC == 0 {
		if d.bitmaskGC, err = xproto.NewGcontextId(d.conn); err != nil {
			return display.None, fmt.Errorf("x11: xproto.NewGcontextId failed: %w", err)
		}
		xproto.CreateGC(d.conn, d.bitmaskGC, xproto.Drawable(id), 0, nil)
	}
	bits := repackBitmask(data, w, h, d.bitmapPad, d.bitmapMSB)
	xproto.PutImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(id), d.bitmaskGC,
		uint16(w), uint16(h), 0, 0, 0, 1, bits)
	return id, nil
}

// FillStippled implements display.Display.
func (d *Display) FillStippled(dst, mask display.Drawable, origin image.Point, r image.Rectangle, pixel uint32) error {
	if _, err := d.lookup(dst); err != nil {
		return err
	}
	m, err := d.lookup(mask)
	if err != nil {
		return err
	}
	if !m.bitmask {
		return fmt.Errorf("%w: stipple is not a bitmask", display.ErrBadMatch)
	}
	if r.Empty() {
		return nil
	}
	// Values are listed in increasing mask bit order.
	xproto.ChangeGC(d.conn, d.stippleGC,
		xproto.GcForeground|xproto.GcStipple|xproto.GcTileStippleOriginX|xproto.GcTileStippleOriginY,
		[]uint32{pixel, uint32(mask), uint32(int32(origin.X)), uint32(int32(origin.Y))})
	xproto.PolyFillRectangle(d.conn, xproto.Drawable(dst), d.stippleGC, []xproto.Rectangle{{
		X: int16(r.Min.X), Y: int16(r.Min.Y), Width: uint16(r.Dx()), Height: uint16(r.Dy()),
	}})
	return nil
}

// Close implements display.Display.
func (d *Display) Close() error {
	if d.closed {
		return display.ErrClosed
	}
	d.closed = true
	for id := range d.resources {
		if id != display.Drawable(d.window) {
			xproto.FreePixmap(d.conn, xproto.Pixmap(id))
		}
	}
	clear(d.resources)
	d.conn.Close()
	return nil
}

// colormapAllocator allocates read-only colormap cells. A failed request
// yields the black pixel. Colors of cells read back from the server are
// remembered, so cells of other clients are assumed not to change.
type colormapAllocator struct {
	conn     *xgb.Conn
	cmap     xproto.Colormap
	fallback uint32
	known    map[uint32]pixfmt.Entry
}

func (a *colormapAllocator) AllocColor(r, g, b uint8) pixfmt.Entry {
	reply, err := xproto.AllocColor(a.conn, a.cmap, uint16(r)*0x101, uint16(g)*0x101, uint16(b)*0x101).Reply()
	if err != nil {
		return pixfmt.Entry{Pixel: a.fallback}
	}
	e := pixfmt.Entry{
		Pixel: reply.Pixel,
		R:     uint8(reply.Red >> 8),
		G:     uint8(reply.Green >> 8),
		B:     uint8(reply.Blue >> 8),
	}
	a.known[e.Pixel] = e
	return e
}

// QueryColor implements pixfmt.ColorQuerier with a QueryColors request.
func (a *colormapAllocator) QueryColor(pixel uint32) (r, g, b uint8, ok bool) {
	if e, ok := a.known[pixel]; ok {
		return e.R, e.G, e.B, true
	}
	reply, err := xproto.QueryColors(a.conn, a.cmap, []uint32{pixel}).Reply()
	if err != nil || len(reply.Colors) == 0 {
		return 0, 0, 0, false
	}
	c := reply.Colors[0]
	e := pixfmt.Entry{Pixel: pixel, R: uint8(c.Red >> 8), G: uint8(c.Green >> 8), B: uint8(c.Blue >> 8)}
	a.known[pixel] = e
	return e.R, e.G, e.B, true
}

// translate maps protocol errors to display errors.
func translate(err error) error {
	switch err.(type) {
	case xproto.DrawableError, xproto.PixmapError, xproto.WindowError:
		return fmt.Errorf("%w: %v", display.ErrBadDrawable, err)
	case xproto.MatchError:
		return fmt.Errorf("%w: %v", display.ErrBadMatch, err)
	}
	return err
}

var (
	_ display.Display     = (*Display)(nil)
	_ pixfmt.ColorQuerier = (*colormapAllocator)(nil)
)
