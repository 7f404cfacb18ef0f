package fldraw

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/internal/blit"
	"github.com/gogpu/fldraw/internal/cache"
	"github.com/gogpu/fldraw/internal/clip"
	"github.com/gogpu/fldraw/pixfmt"
	"github.com/gogpu/fldraw/region"
)

// Driver draws images, bitmaps and solid rectangles onto a display
// through a stack of clip regions.
//
// The pixel format of the display is resolved on first use and kept until
// ResetFormat. Conversion state lives in each call, and the scratch buffer
// is owned by the driver.
//
// Driver is NOT safe for concurrent use. Confine it to the drawing
// goroutine.
type Driver struct {
	disp   display.Display
	target display.Drawable
	format *pixfmt.Format
	failed bool

	engine   *blit.Engine
	clip     *clip.Stack
	images   *cache.Cache[*RGBImage, offscreen]
	bitmasks *cache.Cache[*Bitmap, display.Drawable]

	opts   options
	logger *slog.Logger
	closed bool
}

// New creates a driver drawing into the window of d.
func New(d display.Display, opts ...Option) *Driver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = Logger()
	}

	drv := &Driver{
		disp:   d,
		target: d.Window(),
		engine: blit.New(o.maxBuffer, logger),
		clip:   clip.NewStack(),
		opts:   o,
		logger: logger,
	}
	drv.images = cache.New[*RGBImage, offscreen](o.cacheLimit, drv.freeOffscreen)
	drv.bitmasks = cache.New[*Bitmap, display.Drawable](o.cacheLimit, drv.freeBitmask)
	return drv
}

// Display returns the display the driver draws on.
func (d *Driver) Display() display.Display { return d.disp }

// Target returns the drawable that receives drawing.
func (d *Driver) Target() display.Drawable { return d.target }

// SetTarget redirects drawing to a window or pixmap of the display and
// returns the previous target.
func (d *Driver) SetTarget(t display.Drawable) display.Drawable {
	prev := d.target
	d.target = t
	return prev
}

// Format returns the resolved pixel format of the display, resolving it on
// first use. When the layout is unsupported the fatal handler is called; if
// it returns, Format returns nil from then on.
func (d *Driver) Format() *pixfmt.Format {
	if d.format != nil || d.failed {
		return d.format
	}
	f, err := pixfmt.Resolve(d.disp.Visual(), d.disp.Allocator())
	if err != nil {
		d.failed = true
		d.opts.fatal(fmt.Errorf("fldraw: %w", err))
		return nil
	}
	d.format = f
	d.logger.Info("fldraw: pixel format resolved", "format", f.String())
	return f
}

// ResetFormat forgets the resolved format so that the next drawing call
// resolves it again. Cached offscreens hold pixels of the old format and
// are released.
func (d *Driver) ResetFormat() {
	d.format = nil
	d.failed = false
	d.images.Clear()
}

// CacheStats reports the state of the offscreen image cache.
func (d *Driver) CacheStats() cache.Stats {
	return d.images.Stats()
}

// Close releases every cached offscreen and bitmask. The display stays
// open.
func (d *Driver) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.images.Clear()
	d.bitmasks.Clear()
	d.closed = true
	return nil
}

// ready returns the format to draw with.
func (d *Driver) ready() (*pixfmt.Format, error) {
	if d.closed {
		return nil, ErrClosed
	}
	f := d.Format()
	if f == nil {
		return nil, ErrNoFormat
	}
	return f, nil
}

// sinkTo returns a blit sink writing into dst.
func (d *Driver) sinkTo(dst display.Drawable) blit.Sink {
	return func(img *display.Image) error {
		return d.disp.PutImage(dst, img)
	}
}

// canBlend reports whether alpha images can be handed to the display.
func (d *Driver) canBlend() bool {
	return d.opts.alphaBlending && d.disp.CanAlphaBlend()
}

// blit draws src with its top-left pixel at the corner of req, once per
// piece of req left visible by the clip stack.
func (d *Driver) blit(src blit.Source, req region.Rect) error {
	f, err := d.ready()
	if err != nil {
		return err
	}
	if src.Alpha && !d.canBlend() {
		return d.alphaFallback(src, req)
	}

	sink := d.sinkTo(d.target)
	var total blit.Stats
	for piece := range d.clip.Pieces(req) {
		st, err := d.engine.Blit(f, src, req, piece, sink)
		if err != nil {
			return err
		}
		total.Chunks += st.Chunks
		total.Rows += st.Rows
		total.FastPath = total.FastPath || st.FastPath
	}
	d.logger.Debug("fldraw: draw", "rect", req, "chunks", total.Chunks, "rows", total.Rows, "fastPath", total.FastPath)
	return nil
}
