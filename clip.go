package fldraw

import "github.com/gogpu/fldraw/region"

// PushClip restricts drawing to the intersection of the current clip and
// the rectangle. A rectangle with no area clips everything.
func (d *Driver) PushClip(x, y, w, h int) {
	d.clip.Push(region.NewRect(x, y, w, h))
}

// PushNoClip pushes a state in which nothing is clipped.
func (d *Driver) PushNoClip() {
	d.clip.PushNone()
}

// PopClip restores the clip that was active before the last push. Popping
// more than was pushed is logged and ignored.
func (d *Driver) PopClip() {
	if !d.clip.Pop() {
		d.logger.Warn("fldraw: clip stack underflow")
	}
}

// ClipDepth returns the number of pushed clips.
func (d *Driver) ClipDepth() int {
	return d.clip.Depth()
}

// NotClipped reports whether any part of the rectangle would be drawn.
func (d *Driver) NotClipped(x, y, w, h int) bool {
	return d.clip.NotClipped(region.NewRect(x, y, w, h))
}

// ClipBox returns the bounding box of the visible part of a rectangle and
// whether it differs from the rectangle. A fully clipped rectangle yields
// a zero size box.
func (d *Driver) ClipBox(x, y, w, h int) (bx, by, bw, bh int, changed bool) {
	box, changed := d.clip.Box(region.NewRect(x, y, w, h))
	if box.IsEmpty() {
		return box.Left, box.Top, 0, 0, changed
	}
	return box.X(), box.Y(), box.W(), box.H(), changed
}

// ExcludeClip removes a rectangle from the current clip.
func (d *Driver) ExcludeClip(x, y, w, h int) {
	d.clip.Exclude(region.NewRect(x, y, w, h))
}

// ClipRegion returns the current clip region, or nil when drawing is not
// clipped. The region must not be modified.
func (d *Driver) ClipRegion() *region.Region {
	return d.clip.Current()
}

// SetClipRegion replaces the current clip with g without pushing. A nil g
// disables clipping. The driver takes ownership of g.
func (d *Driver) SetClipRegion(g *region.Region) {
	d.clip.Replace(g)
}
