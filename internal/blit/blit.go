// Package blit streams 8-bit source pixels into native display pixels.
//
// An [Engine] clips the request, converts it row by row with a fresh
// converter from the resolved [pixfmt.Format] and hands the result to a sink
// in chunks whose size is bounded by the engine's maximum buffer. Sources in
// the display's own 24-bit RGB layout with aligned rows skip conversion.
package blit

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/pixfmt"
	"github.com/gogpu/fldraw/region"
)

// DefaultMaxBuffer bounds the scratch memory of one chunk.
const DefaultMaxBuffer = 0x40000

var (
	// ErrInvalidStride is returned for negative pixel or line strides.
	ErrInvalidStride = errors.New("blit: invalid stride")

	// ErrShortBuffer is returned when the source does not cover the
	// requested rectangle.
	ErrShortBuffer = errors.New("blit: source buffer too small")
)

// LineFunc produces one source scanline: w pixels starting at column x of
// row y, written to buf Delta bytes apart.
type LineFunc func(x, y, w int, buf []byte)

// Source describes the pixels of one image.
type Source struct {
	// Pix holds the pixels, Delta bytes apart within a row and LineDelta
	// bytes between rows. A Delta of zero repeats one pixel across the
	// row; a LineDelta of zero repeats the first row.
	Pix []byte

	// Func, when set, replaces Pix.
	Func LineFunc

	Delta     int
	LineDelta int

	// Mono selects gray (or gray+alpha) sources instead of RGB (or RGBA).
	Mono bool

	// Alpha marks sources with an alpha byte after the color bytes. Such
	// sources are always converted to premultiplied 32-bit ARGB.
	Alpha bool
}

// Channels returns the number of bytes of one source pixel.
func (s *Source) Channels() int {
	n := 3
	if s.Mono {
		n = 1
	}
	if s.Alpha {
		n++
	}
	return n
}

// Sink receives converted pixels. The image data is only valid during the
// call.
type Sink func(img *display.Image) error

// Stats reports what one Blit did.
type Stats struct {
	// Chunks is the number of images passed to the sink.
	Chunks int
	// Rows is the number of rows converted or passed through.
	Rows int
	// FastPath is set when the source was sent without conversion.
	FastPath bool
}

// Engine converts and chunks blits. It owns a grow-only scratch buffer and
// must be used from one goroutine.
type Engine struct {
	maxBuffer int
	scratch   []byte
	linebuf   []byte
	logger    *slog.Logger
}

// New creates an engine whose chunks stay within maxBuffer bytes where a
// single row allows it. A non-positive maxBuffer selects DefaultMaxBuffer.
func New(maxBuffer int, logger *slog.Logger) *Engine {
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{maxBuffer: maxBuffer, logger: logger}
}

// MaxBuffer returns the chunk size bound.
func (e *Engine) MaxBuffer() int { return e.maxBuffer }

// buffer returns n bytes of scratch space, growing it if needed.
func (e *Engine) buffer(n int) []byte {
	if cap(e.scratch) < n {
		e.scratch = make([]byte, n)
	}
	return e.scratch[:n]
}

// line returns n bytes for one callback scanline.
func (e *Engine) line(n int) []byte {
	if cap(e.linebuf) < n {
		e.linebuf = make([]byte, n)
	}
	return e.linebuf[:n]
}

// Blit draws the source, whose top-left pixel lands at the top-left corner
// of req, restricted to clip. Nothing is drawn when they do not overlap.
func (e *Engine) Blit(f *pixfmt.Format, src Source, req, clip region.Rect, sink Sink) (Stats, error) {
	var st Stats
	if src.Delta < 0 || src.LineDelta < 0 {
		return st, fmt.Errorf("%w: delta %d, line delta %d", ErrInvalidStride, src.Delta, src.LineDelta)
	}

	vis := req
	if vis.IntersectWith(clip) == region.Empty {
		return st, nil
	}
	dx, dy := vis.Left-req.Left, vis.Top-req.Top
	w, h := vis.W(), vis.H()

	if src.Func == nil {
		if err := checkBounds(&src, dx, dy, w, h); err != nil {
			return st, err
		}
	}
	if src.Alpha {
		f = f.ARGB()
	}

	if e.fastPath(f, &src) {
		off := dy*src.LineDelta + dx*src.Delta
		img := &display.Image{
			X: vis.Left, Y: vis.Top, Width: w, Height: h,
			Stride:       src.LineDelta,
			Depth:        f.Depth(),
			BitsPerPixel: f.BitsPerPixel(),
			Data:         src.Pix[off:],
		}
		st = Stats{Chunks: 1, Rows: h, FastPath: true}
		e.logger.Debug("blit fast path", "rect", vis, "stride", src.LineDelta)
		return st, sink(img)
	}

	rowBytes := f.RowBytes(w)
	blocking := h
	if rowBytes*h > e.maxBuffer {
		blocking = max(e.maxBuffer/rowBytes, 1)
	}
	buf := e.buffer(rowBytes * blocking)
	conv := f.NewConverter(src.Mono)

	delta := src.Delta
	var line []byte
	if src.Func != nil {
		if delta == 0 {
			delta = src.Channels()
		}
		line = e.line(w*delta + src.Channels())
	}

	for y := 0; y < h; y += blocking {
		k := min(blocking, h-y)
		for j := 0; j < k; j++ {
			row := buf[j*rowBytes : (j+1)*rowBytes]
			if src.Func != nil {
				src.Func(dx, dy+y+j, w, line)
				conv.Convert(row, line, w, delta)
				continue
			}
			off := (dy+y+j)*src.LineDelta + dx*src.Delta
			conv.Convert(row, src.Pix[off:], w, src.Delta)
		}
		img := &display.Image{
			X: vis.Left, Y: vis.Top + y, Width: w, Height: k,
			Stride:       rowBytes,
			Depth:        f.Depth(),
			BitsPerPixel: f.BitsPerPixel(),
			Alpha:        src.Alpha,
			Data:         buf[:k*rowBytes],
		}
		if err := sink(img); err != nil {
			return st, err
		}
		st.Chunks++
		st.Rows += k
	}

	e.logger.Debug("blit", "rect", vis, "layout", f.Layout(), "chunks", st.Chunks, "rows_per_chunk", blocking)
	return st, nil
}

// fastPath reports whether the source rows can be sent as they are.
func (e *Engine) fastPath(f *pixfmt.Format, src *Source) bool {
	return f.Layout() == pixfmt.LayoutRGB && src.Func == nil &&
		!src.Mono && !src.Alpha &&
		src.Delta == 3 && src.LineDelta > 0 && f.Aligned(src.LineDelta)
}

// checkBounds verifies that every source byte the blit reads exists.
func checkBounds(src *Source, dx, dy, w, h int) error {
	last := (dy+h-1)*src.LineDelta + (dx+w-1)*src.Delta + src.Channels()
	if last > len(src.Pix) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, last, len(src.Pix))
	}
	return nil
}
