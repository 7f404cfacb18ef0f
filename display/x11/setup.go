// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"fmt"
	"math/bits"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/fldraw/pixfmt"
)

// PutImage requests carry at most MaximumRequestLength 4-byte units; the
// fixed part of the request takes 28 bytes of that.
const putImageReqSizeFixed = 28

// maxPutImageData returns the number of data bytes one PutImage request may
// carry on a connection with the given maximum request length.
func maxPutImageData(maxRequestLength uint16) int {
	return int(maxRequestLength)*4 - putImageReqSizeFixed
}

// pixmapFormat finds the storage format the server uses for a depth.
func pixmapFormat(setup *xproto.SetupInfo, depth byte) (xproto.Format, error) {
	for _, f := range setup.PixmapFormats {
		if f.Depth == depth {
			return f, nil
		}
	}
	return xproto.Format{}, fmt.Errorf("x11: no pixmap format for depth %d", depth)
}

// findVisual returns the description of a visual of the screen.
func findVisual(screen *xproto.ScreenInfo, id xproto.Visualid) (xproto.VisualInfo, error) {
	for _, d := range screen.AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId == id {
				return v, nil
			}
		}
	}
	return xproto.VisualInfo{}, fmt.Errorf("x11: visual %#x not found", id)
}

// visualOf builds the pixel layout of the root window from the setup data.
// Only TrueColor and DirectColor visuals report channel masks; all other
// classes are treated as palette displays.
func visualOf(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) (pixfmt.Visual, error) {
	vi, err := findVisual(screen, screen.RootVisual)
	if err != nil {
		return pixfmt.Visual{}, err
	}
	pf, err := pixmapFormat(setup, screen.RootDepth)
	if err != nil {
		return pixfmt.Visual{}, err
	}
	v := pixfmt.Visual{
		Depth:        int(screen.RootDepth),
		BitsPerPixel: int(pf.BitsPerPixel),
		ScanlinePad:  int(pf.ScanlinePad),
		ByteOrder:    pixfmt.LSBFirst,
	}
	if setup.ImageByteOrder == xproto.ImageOrderMSBFirst {
		v.ByteOrder = pixfmt.MSBFirst
	}
	if vi.Class == xproto.VisualClassTrueColor || vi.Class == xproto.VisualClassDirectColor {
		v.RedMask, v.GreenMask, v.BlueMask = vi.RedMask, vi.GreenMask, vi.BlueMask
	}
	return v, nil
}

// rowBytes returns the size of a row of w pixels padded to pad bits.
func rowBytes(w, bitsPerPixel, pad int) int {
	n := w * bitsPerPixel
	return (n + pad - 1) / pad * pad / 8
}

// rowsPerRequest returns how many rows of rb bytes fit one request. A row
// larger than the request limit still goes out alone.
func rowsPerRequest(rb, maxData int) int {
	if rb <= 0 {
		return 1
	}
	return max(maxData/rb, 1)
}

// packRows copies h rows of n bytes, stride bytes apart in src, into dst
// with rows rb bytes apart. Padding bytes are zeroed.
func packRows(dst, src []byte, h, n, stride, rb int) {
	for y := range h {
		row := dst[y*rb : (y+1)*rb]
		copy(row, src[y*stride:y*stride+n])
		clear(row[n:])
	}
}

// chunkRows returns rows y to y+h of data as rows of rb bytes. Data that
// already has that layout is passed through. Otherwise, including a
// source whose last row is not padded, the rows are copied into buf,
// which grows as needed.
func chunkRows(buf *[]byte, data []byte, stride, y, h, n, rb int) []byte {
	if stride == rb && len(data) >= (y+h)*rb {
		return data[y*rb : (y+h)*rb]
	}
	if cap(*buf) < h*rb {
		*buf = make([]byte, h*rb)
	}
	out := (*buf)[:h*rb]
	packRows(out, data[y*stride:], h, n, stride, rb)
	return out
}

// repackBitmask converts XBM rows, (w+7)/8 bytes each with the leftmost
// pixel in the least significant bit, to rows padded to pad bits in the
// server's bit order.
func repackBitmask(data []byte, w, h, pad int, msbFirst bool) []byte {
	in := (w + 7) / 8
	rb := rowBytes(w, 1, pad)
	out := make([]byte, rb*h)
	for y := range h {
		row := out[y*rb:]
		for i, b := range data[y*in : (y+1)*in] {
			if msbFirst {
				b = bits.Reverse8(b)
			}
			row[i] = b
		}
	}
	return out
}
