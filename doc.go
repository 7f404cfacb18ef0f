// Package fldraw is the clipping and image blitting core of a
// raster graphics driver.
//
// # Overview
//
// A [Driver] draws 8-bit gray, gray+alpha, RGB and RGBA images, 1-bit
// bitmaps and solid rectangles onto a [display.Display]. Every call is
// restricted to the current clip, kept as a stack of [region.Region] trees,
// and converted into the display's native pixel layout by the resolver in
// package pixfmt.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/fldraw"
//	    "github.com/gogpu/fldraw/display"
//	    _ "github.com/gogpu/fldraw/display/memory"
//	)
//
//	d, err := display.Open(display.Options{Width: 320, Height: 240})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	drv := fldraw.New(d)
//	drv.PushClip(10, 10, 100, 100)
//	drv.RectFill(0, 0, 320, 240, 0x20, 0x40, 0x80)
//	drv.DrawImage(pix, 20, 20, 64, 64, 3, 0)
//	drv.PopClip()
//
// # Pixel Formats
//
// The display layout is resolved once, on the first drawing call. Layouts
// of 8, 16, 24 and 32 bits per pixel are supported; 8-bit palette and
// 16-bit displays receive error-diffusion dithering. An unsupported layout
// cannot be drawn to at all: the driver hands the error to its fatal
// handler, which panics unless replaced with [WithFatalHandler].
//
// # Alpha
//
// Images with alpha are composited by the display when it can blend.
// Otherwise the driver reads back the destination, blends in memory and
// draws the result as an opaque image, so the destination must already
// hold the backdrop.
//
// # Concurrency
//
// A Driver, its clip regions and its caches belong to one goroutine.
package fldraw

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
