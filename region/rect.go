// Package region implements the clipping regions used by the drawing driver.
//
// A [Rect] is a single axis-aligned rectangle stored by its edges. A [Region]
// is a tree of rectangles that can describe any clip shape built from
// intersections and subtractions. Leaves of the tree are disjoint, so walking
// them visits every pixel of the region exactly once.
//
// Regions are not safe for concurrent use. They are meant to be owned by the
// goroutine that draws.
package region

import (
	"fmt"
	"image"
	"math"
)

// Type classifies a rectangle or the outcome of an intersection.
type Type int

const (
	// Empty means the rectangle covers no pixels.
	Empty Type = iota
	// Same means an intersection left the rectangle unchanged.
	Same
	// Less means an intersection reduced the rectangle.
	Less
	// More is reserved for operations that grow a rectangle.
	More
	// Infinite marks the rectangle that covers the whole plane.
	Infinite
)

// String returns the name of the type.
func (t Type) String() string {
	switch t {
	case Empty:
		return "Empty"
	case Same:
		return "Same"
	case Less:
		return "Less"
	case More:
		return "More"
	case Infinite:
		return "Infinite"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Rect is a rectangle stored by its edges. Right and Bottom are exclusive.
//
// The zero value is an empty rectangle.
type Rect struct {
	Left, Top, Right, Bottom int
}

// infinite is the sentinel that covers every representable coordinate.
var infinite = Rect{
	Left:   math.MinInt32,
	Top:    math.MinInt32,
	Right:  math.MaxInt32,
	Bottom: math.MaxInt32,
}

// NewRect creates a rectangle from position and size.
// A zero or negative size yields the empty rectangle.
func NewRect(x, y, w, h int) Rect {
	var r Rect
	r.Set(x, y, w, h)
	return r
}

// LTRB creates a rectangle from its edges.
// Edges that do not enclose any pixel yield the empty rectangle.
func LTRB(l, t, r, b int) Rect {
	var rc Rect
	rc.SetLTRB(l, t, r, b)
	return rc
}

// InfiniteRect returns the rectangle covering the whole plane.
// It is the identity element for intersection.
func InfiniteRect() Rect {
	return infinite
}

// FromRectangle converts an image.Rectangle.
func FromRectangle(r image.Rectangle) Rect {
	return LTRB(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

// X returns the left edge.
func (r Rect) X() int { return r.Left }

// Y returns the top edge.
func (r Rect) Y() int { return r.Top }

// W returns the width.
func (r Rect) W() int { return r.Right - r.Left }

// H returns the height.
func (r Rect) H() int { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle covers no pixels.
func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// IsInfinite reports whether r is the infinite sentinel.
func (r Rect) IsInfinite() bool {
	return r == infinite
}

// Type returns Empty, Infinite or Same for a plain rectangle.
func (r Rect) Type() Type {
	switch {
	case r.IsEmpty():
		return Empty
	case r.IsInfinite():
		return Infinite
	default:
		return Same
	}
}

// Area returns the number of pixels covered by r.
func (r Rect) Area() int {
	if r.IsEmpty() {
		return 0
	}
	if r.IsInfinite() {
		return math.MaxInt
	}
	return r.W() * r.H()
}

// Rectangle converts r to an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	if r.IsEmpty() {
		return image.Rectangle{}
	}
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Intersects reports whether r and o share at least one pixel.
func (r Rect) Intersects(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.Left < o.Right && o.Left < r.Right && r.Top < o.Bottom && o.Top < r.Bottom
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	if o.IsEmpty() {
		return true
	}
	return o.Left >= r.Left && o.Right <= r.Right && o.Top >= r.Top && o.Bottom <= r.Bottom
}

// Intersect returns the intersection of r and o without modifying r.
func (r Rect) Intersect(o Rect) Rect {
	r.IntersectWith(o)
	return r
}

// SetEmpty makes r the empty rectangle.
func (r *Rect) SetEmpty() {
	*r = Rect{}
}

// Set assigns position and size.
func (r *Rect) Set(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		r.SetEmpty()
		return
	}
	*r = Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// SetLTRB assigns the edges.
func (r *Rect) SetLTRB(l, t, rr, b int) {
	if rr <= l || b <= t {
		r.SetEmpty()
		return
	}
	*r = Rect{Left: l, Top: t, Right: rr, Bottom: b}
}

// IntersectWith replaces r with its intersection with o.
//
// It returns Empty when the rectangles are disjoint, Same when r did not
// change and Less when r was reduced.
func (r *Rect) IntersectWith(o Rect) Type {
	if r.IsEmpty() {
		return Empty
	}
	if o.IsEmpty() {
		r.SetEmpty()
		return Empty
	}
	l := max(r.Left, o.Left)
	t := max(r.Top, o.Top)
	rr := min(r.Right, o.Right)
	b := min(r.Bottom, o.Bottom)
	if rr <= l || b <= t {
		r.SetEmpty()
		return Empty
	}
	if l == r.Left && t == r.Top && rr == r.Right && b == r.Bottom {
		return Same
	}
	*r = Rect{Left: l, Top: t, Right: rr, Bottom: b}
	return Less
}

// AddToBBox grows r to the bounding box of r and o.
func (r *Rect) AddToBBox(o Rect) {
	if o.IsEmpty() {
		return
	}
	if r.IsEmpty() {
		*r = o
		return
	}
	r.Left = min(r.Left, o.Left)
	r.Top = min(r.Top, o.Top)
	r.Right = max(r.Right, o.Right)
	r.Bottom = max(r.Bottom, o.Bottom)
}

// String formats r as x,y,w,h.
func (r Rect) String() string {
	switch {
	case r.IsEmpty():
		return "Rect(empty)"
	case r.IsInfinite():
		return "Rect(infinite)"
	}
	return fmt.Sprintf("Rect(%d,%d %dx%d)", r.Left, r.Top, r.W(), r.H())
}
