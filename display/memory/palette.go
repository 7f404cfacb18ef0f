// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package memory

import "github.com/gogpu/fldraw/pixfmt"

// palette is the colormap of an emulated 8-bit display. Requests for colors
// already present share their cell; once all 256 cells are taken the
// closest existing color is returned.
type palette struct {
	cells []pixfmt.Entry
	index map[[3]uint8]int
}

func newPalette() *palette {
	return &palette{index: make(map[[3]uint8]int)}
}

func (p *palette) AllocColor(r, g, b uint8) pixfmt.Entry {
	key := [3]uint8{r, g, b}
	if i, ok := p.index[key]; ok {
		return p.cells[i]
	}
	if len(p.cells) < 256 {
		e := pixfmt.Entry{Pixel: uint32(len(p.cells)), R: r, G: g, B: b}
		p.index[key] = len(p.cells)
		p.cells = append(p.cells, e)
		return e
	}
	return p.closest(r, g, b)
}

func (p *palette) closest(r, g, b uint8) pixfmt.Entry {
	best, bestDist := 0, -1
	for i, e := range p.cells {
		dr, dg, db := int(e.R)-int(r), int(e.G)-int(g), int(e.B)-int(b)
		if d := dr*dr + dg*dg + db*db; bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return p.cells[best]
}

// QueryColor implements pixfmt.ColorQuerier.
func (p *palette) QueryColor(pixel uint32) (r, g, b uint8, ok bool) {
	if int(pixel) >= len(p.cells) {
		return 0, 0, 0, false
	}
	e := p.cells[pixel]
	return e.R, e.G, e.B, true
}

// color returns the color of a pixel value. Unallocated pixels are black.
func (p *palette) color(pixel uint32) (r, g, b uint8) {
	r, g, b, _ = p.QueryColor(pixel)
	return r, g, b
}
