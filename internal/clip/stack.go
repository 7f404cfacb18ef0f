// Package clip keeps the stack of clip regions of a drawing driver.
package clip

import (
	"iter"

	"github.com/gogpu/fldraw/region"
)

// Stack manages hierarchical clip regions with push/pop operations.
//
// Each entry is a region, or nil for "no clipping". The base entry is nil
// and cannot be popped. Pushed regions are never mutated in place, so a
// region returned by Current stays valid after later pushes.
type Stack struct {
	entries []*region.Region
}

// NewStack creates a stack whose current entry clips nothing.
func NewStack() *Stack {
	return &Stack{
		entries: make([]*region.Region, 1, 8),
	}
}

// Push pushes the intersection of the current clip and r.
// An empty r pushes an empty region, which clips everything.
func (s *Stack) Push(r region.Rect) {
	var next *region.Region
	if cur := s.Current(); cur != nil {
		next = cur.Clone()
		next.IntersectWith(r)
	} else {
		next = region.New(r)
	}
	s.entries = append(s.entries, next)
}

// PushNone pushes an entry that disables clipping.
func (s *Stack) PushNone() {
	s.entries = append(s.entries, nil)
}

// Pop removes the most recent entry. It reports false, leaving the stack
// unchanged, when only the base entry is left.
func (s *Stack) Pop() bool {
	if len(s.entries) == 1 {
		return false
	}
	last := len(s.entries) - 1
	s.entries[last] = nil
	s.entries = s.entries[:last]
	return true
}

// Current returns the active clip region, or nil when drawing is not
// clipped. The region must not be modified.
func (s *Stack) Current() *region.Region {
	return s.entries[len(s.entries)-1]
}

// Replace makes g the active clip region without pushing. A nil g disables
// clipping. The stack takes ownership of g.
func (s *Stack) Replace(g *region.Region) {
	s.entries[len(s.entries)-1] = g
}

// Exclude removes r from the active clip region. Without an active region
// the clip becomes the infinite region minus r.
func (s *Stack) Exclude(r region.Rect) {
	var next *region.Region
	if cur := s.Current(); cur != nil {
		next = cur.Clone()
	} else {
		next = region.New(region.InfiniteRect())
	}
	next.Subtract(r)
	s.Replace(next)
}

// Depth returns the number of pushed entries.
func (s *Stack) Depth() int {
	return len(s.entries) - 1
}

// Reset drops every pushed entry and disables clipping.
func (s *Stack) Reset() {
	clear(s.entries)
	s.entries = s.entries[:1]
}

// Pieces yields the parts of r that are visible through the active clip,
// one rectangle per clip leaf it overlaps.
func (s *Stack) Pieces(r region.Rect) iter.Seq[region.Rect] {
	return func(yield func(region.Rect) bool) {
		if r.IsEmpty() {
			return
		}
		cur := s.Current()
		if cur == nil {
			yield(r)
			return
		}
		for _, piece := range cur.Overlapping(r) {
			if !yield(piece) {
				return
			}
		}
	}
}

// NotClipped reports whether any part of r is visible.
func (s *Stack) NotClipped(r region.Rect) bool {
	for range s.Pieces(r) {
		return true
	}
	return false
}

// Box returns the bounding box of the visible part of r and whether it
// differs from r. A fully clipped r yields an empty box at r's origin.
func (s *Stack) Box(r region.Rect) (region.Rect, bool) {
	if s.Current() == nil || r.IsEmpty() {
		return r, false
	}
	var box region.Rect
	for piece := range s.Pieces(r) {
		box.AddToBBox(piece)
	}
	if box.IsEmpty() {
		return region.Rect{Left: r.Left, Top: r.Top, Right: r.Left, Bottom: r.Top}, true
	}
	return box, box != r
}
