// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package display defines the server side of the drawing core: the target a
// blit writes native pixels into, together with the offscreen and bitmask
// resources the driver caches.
//
// Backends register themselves with a priority, in the way of
// database/sql drivers:
//
//	import _ "github.com/gogpu/fldraw/display/memory"
//
//	d, err := display.Open(display.Options{Width: 640, Height: 480})
//
// The in-memory backend is always available. The X11 backend registers
// when the DISPLAY environment variable is set.
package display

import (
	"errors"
	"image"
	"log/slog"

	"github.com/gogpu/fldraw/pixfmt"
)

// Errors reported by backends.
var (
	// ErrClosed is returned by operations on a closed display.
	ErrClosed = errors.New("display: closed")

	// ErrBadDrawable is returned for an unknown or freed drawable.
	ErrBadDrawable = errors.New("display: bad drawable")

	// ErrBadMatch is returned when an image does not fit its drawable, for
	// example a depth mismatch.
	ErrBadMatch = errors.New("display: bad match")

	// ErrNotSupported is returned by backends lacking an optional operation
	// such as Composite.
	ErrNotSupported = errors.New("display: operation not supported")
)

// Drawable names a window, pixmap or bitmask on the display.
type Drawable uint32

// None is the zero drawable.
const None Drawable = 0

// Image is a block of native pixels sent to or read from a drawable.
//
// Rows are Stride bytes apart. With Alpha set the pixels are premultiplied
// 32-bit ARGB words in the display byte order and are composited over the
// destination instead of replacing it.
type Image struct {
	X, Y          int
	Width, Height int
	Stride        int
	Depth         int
	BitsPerPixel  int
	Alpha         bool
	Data          []byte
}

// Bounds returns the destination rectangle of the image.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(img.X, img.Y, img.X+img.Width, img.Y+img.Height)
}

// Row returns the bytes of row y, relative to the top of the image.
func (img *Image) Row(y int) []byte {
	n := img.Width * img.BitsPerPixel / 8
	return img.Data[y*img.Stride : y*img.Stride+n]
}

// Display is a connection to a drawing server.
//
// A Display is used from the drawing goroutine only.
type Display interface {
	// Visual describes the native pixel layout of the window.
	Visual() pixfmt.Visual

	// Allocator returns the palette allocator of an 8-bit colormap
	// display, or nil on true-color displays.
	Allocator() pixfmt.Allocator

	// Window returns the default drawing target.
	Window() Drawable

	// CanAlphaBlend reports whether PutImage accepts Alpha images and
	// Composite is available.
	CanAlphaBlend() bool

	// Bounds returns the size of a drawable as a rectangle at the origin.
	Bounds(d Drawable) (image.Rectangle, error)

	// PutImage writes native pixels into a drawable.
	PutImage(dst Drawable, img *Image) error

	// GetImage reads back a rectangle of a drawable in native format.
	GetImage(src Drawable, r image.Rectangle) (*Image, error)

	// CreatePixmap creates an offscreen drawable. With alpha set it holds
	// premultiplied ARGB pixels, otherwise pixels of the window format.
	CreatePixmap(w, h int, alpha bool) (Drawable, error)

	// FreePixmap releases a pixmap or bitmask.
	FreePixmap(p Drawable) error

	// CopyArea copies opaque pixels from src to dst.
	CopyArea(src, dst Drawable, sr image.Rectangle, dp image.Point) error

	// Composite blends an alpha pixmap over dst.
	Composite(src, dst Drawable, sr image.Rectangle, dp image.Point) error

	// CreateBitmask creates a depth-1 drawable from XBM data: rows of
	// (w+7)/8 bytes, least significant bit first.
	CreateBitmask(w, h int, data []byte) (Drawable, error)

	// FillStippled fills r in dst with pixel where the bitmask, tiled from
	// origin, has a set bit.
	FillStippled(dst, mask Drawable, origin image.Point, r image.Rectangle, pixel uint32) error

	// Close releases the connection and every resource created on it.
	Close() error
}

// Options configures a backend when a display is opened.
type Options struct {
	// Width and Height size the window. Zero selects a backend default.
	Width, Height int

	// Address selects the server, e.g. ":0" for X11. Empty uses the
	// environment.
	Address string

	// Visual overrides the pixel layout of backends that emulate one.
	Visual *pixfmt.Visual

	// Profile names a backend-specific configuration file.
	Profile string

	// AlphaBlending enables server side alpha compositing where the backend
	// can emulate it.
	AlphaBlending bool

	// Logger receives backend diagnostics. Nil disables logging.
	Logger *slog.Logger
}
