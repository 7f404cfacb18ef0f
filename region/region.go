package region

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// none marks a missing node link.
const none int32 = -1

// node is one rectangle of the tree. A node without children is a leaf.
// Children always lie inside the bounding box of their parent.
type node struct {
	rect   Rect
	sub    int32 // first child, owned
	next   int32 // next sibling
	parent int32
}

// Region is a clip area of arbitrary shape.
//
// The region is stored as a tree of rectangles in a flat arena. Node 0 is the
// root and holds the bounding box of the whole region. A region whose root
// has no children is simple and behaves like a plain [Rect].
//
// The zero value is not usable; create regions with [New] or [NewEmpty].
type Region struct {
	nodes []node
	free  []int32
}

// New creates a simple region covering r.
func New(r Rect) *Region {
	g := &Region{nodes: make([]node, 1, 8)}
	g.nodes[0] = node{rect: normalize(r), sub: none, next: none, parent: none}
	return g
}

// NewEmpty creates an empty region.
func NewEmpty() *Region {
	return New(Rect{})
}

func normalize(r Rect) Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	return r
}

// Bounds returns the bounding box of the region.
func (g *Region) Bounds() Rect {
	return g.nodes[0].rect
}

// IsEmpty reports whether the region covers no pixels.
func (g *Region) IsEmpty() bool {
	return g.nodes[0].rect.IsEmpty()
}

// IsSimple reports whether the region is a single rectangle.
func (g *Region) IsSimple() bool {
	return g.nodes[0].sub == none
}

// IsComplex reports whether the region is made of several rectangles.
func (g *Region) IsComplex() bool {
	return g.nodes[0].sub != none
}

// Set discards all subregions and makes g the simple region r.
func (g *Region) Set(r Rect) {
	g.nodes = g.nodes[:1]
	g.free = g.free[:0]
	g.nodes[0] = node{rect: normalize(r), sub: none, next: none, parent: none}
}

// SetEmpty makes g the empty region.
func (g *Region) SetEmpty() {
	g.Set(Rect{})
}

// SetRegion makes g a copy of o.
func (g *Region) SetRegion(o *Region) {
	g.nodes = append(g.nodes[:0], o.nodes...)
	g.free = append(g.free[:0], o.free...)
}

// Clone returns an independent copy of g.
func (g *Region) Clone() *Region {
	c := &Region{}
	c.SetRegion(g)
	return c
}

// IntersectWith reduces the region to its intersection with r.
//
// The result is Empty when nothing is left, Same when r covers the region
// and Less otherwise.
func (g *Region) IntersectWith(r Rect) Type {
	return g.intersect(0, r)
}

func (g *Region) intersect(i int32, r Rect) Type {
	if g.nodes[i].sub == none {
		return g.nodes[i].rect.IntersectWith(r)
	}
	bbox := g.nodes[i].rect
	switch bbox.IntersectWith(r) {
	case Empty:
		g.deleteSubregions(i)
		g.nodes[i].rect.SetEmpty()
		return Empty
	case Same:
		return Same
	}
	for c := g.nodes[i].sub; c != none; c = g.nodes[c].next {
		g.intersect(c, r)
	}
	g.compress(i)
	if g.nodes[i].rect.IsEmpty() {
		return Empty
	}
	return Less
}

// Subtract removes the area covered by r from the region.
// It reports whether the region changed.
func (g *Region) Subtract(r Rect) bool {
	if r.IsEmpty() {
		return false
	}
	return g.subtract(0, r)
}

func (g *Region) subtract(i int32, r Rect) bool {
	if g.nodes[i].sub != none {
		if !g.nodes[i].rect.Intersects(r) {
			return false
		}
		changed := false
		for c := g.nodes[i].sub; c != none; c = g.nodes[c].next {
			if g.subtract(c, r) {
				changed = true
			}
		}
		if changed {
			g.compress(i)
		}
		return changed
	}

	s := r
	if s.IntersectWith(g.nodes[i].rect) == Empty {
		return false
	}
	if s == g.nodes[i].rect {
		g.nodes[i].rect.SetEmpty()
		return true
	}
	g.subtractSmallerRegion(i, s)
	return true
}

// subtractSmallerRegion splits leaf i around s, which lies strictly inside
// it, into up to four residual rectangles.
func (g *Region) subtractSmallerRegion(i int32, s Rect) {
	outer := g.nodes[i].rect
	if s.Top > outer.Top {
		g.addSubregion(i, LTRB(outer.Left, outer.Top, outer.Right, s.Top))
	}
	if s.Left > outer.Left {
		g.addSubregion(i, LTRB(outer.Left, s.Top, s.Left, s.Bottom))
	}
	if s.Right < outer.Right {
		g.addSubregion(i, LTRB(s.Right, s.Top, outer.Right, s.Bottom))
	}
	if s.Bottom < outer.Bottom {
		g.addSubregion(i, LTRB(outer.Left, s.Bottom, outer.Right, outer.Bottom))
	}
	g.compress(i)
}

// compress drops empty children of node i, collapses a lone child into i
// and recomputes the bounding box of i from its children.
func (g *Region) compress(i int32) {
	prev := none
	for c := g.nodes[i].sub; c != none; {
		next := g.nodes[c].next
		if g.nodes[c].rect.IsEmpty() {
			if prev == none {
				g.nodes[i].sub = next
			} else {
				g.nodes[prev].next = next
			}
			g.release(c)
		} else {
			prev = c
		}
		c = next
	}

	only := g.nodes[i].sub
	if only == none {
		g.nodes[i].rect.SetEmpty()
		return
	}

	if g.nodes[only].next == none {
		g.nodes[i].rect = g.nodes[only].rect
		g.nodes[i].sub = g.nodes[only].sub
		for c := g.nodes[i].sub; c != none; c = g.nodes[c].next {
			g.nodes[c].parent = i
		}
		g.nodes[only] = node{sub: none, next: none, parent: none}
		g.free = append(g.free, only)
		return
	}

	bbox := g.nodes[only].rect
	for c := g.nodes[only].next; c != none; c = g.nodes[c].next {
		bbox.AddToBBox(g.nodes[c].rect)
	}
	g.nodes[i].rect = bbox
}

// addSubregion appends a new child covering r to node i.
func (g *Region) addSubregion(i int32, r Rect) int32 {
	n := g.alloc()
	g.nodes[n] = node{rect: r, sub: none, next: none, parent: i}
	if g.nodes[i].sub == none {
		g.nodes[i].sub = n
		return n
	}
	last := g.nodes[i].sub
	for g.nodes[last].next != none {
		last = g.nodes[last].next
	}
	g.nodes[last].next = n
	return n
}

func (g *Region) alloc() int32 {
	if k := len(g.free); k > 0 {
		n := g.free[k-1]
		g.free = g.free[:k-1]
		return n
	}
	g.nodes = append(g.nodes, node{})
	return int32(len(g.nodes) - 1)
}

// release frees node i and its whole subtree.
func (g *Region) release(i int32) {
	g.deleteSubregions(i)
	g.nodes[i] = node{sub: none, next: none, parent: none}
	g.free = append(g.free, i)
}

// deleteSubregions frees all descendants of node i.
func (g *Region) deleteSubregions(i int32) {
	for c := g.nodes[i].sub; c != none; {
		next := g.nodes[c].next
		g.release(c)
		c = next
	}
	g.nodes[i].sub = none
}

// Leaves returns the leaf rectangles of the region in depth-first order.
// The sequence can be ranged over any number of times. The region must not
// be modified while a range over it is in progress.
func (g *Region) Leaves() iter.Seq[Rect] {
	return func(yield func(Rect) bool) {
		g.walk(0, yield)
	}
}

func (g *Region) walk(i int32, yield func(Rect) bool) bool {
	n := g.nodes[i]
	if n.sub == none {
		if n.rect.IsEmpty() {
			return true
		}
		return yield(n.rect)
	}
	for c := n.sub; c != none; c = g.nodes[c].next {
		if !g.walk(c, yield) {
			return false
		}
	}
	return true
}

// Overlapping returns the leaves that intersect q, each paired with its
// intersection with q. Subtrees whose bounding box misses q are skipped
// without being visited.
func (g *Region) Overlapping(q Rect) iter.Seq2[Rect, Rect] {
	return func(yield func(leaf, clipped Rect) bool) {
		if q.IsEmpty() {
			return
		}
		g.overlap(0, q, yield)
	}
}

func (g *Region) overlap(i int32, q Rect, yield func(Rect, Rect) bool) bool {
	n := g.nodes[i]
	if !n.rect.Intersects(q) {
		return true
	}
	if n.sub == none {
		return yield(n.rect, n.rect.Intersect(q))
	}
	for c := n.sub; c != none; c = g.nodes[c].next {
		if !g.overlap(c, q, yield) {
			return false
		}
	}
	return true
}

// Count returns the number of leaf rectangles.
func (g *Region) Count() int {
	n := 0
	for range g.Leaves() {
		n++
	}
	return n
}

// Area returns the number of pixels covered by the region.
func (g *Region) Area() int {
	a := 0
	for r := range g.Leaves() {
		a += r.Area()
	}
	return a
}

// Dump writes an indented description of the tree to w.
func (g *Region) Dump(w io.Writer) error {
	return g.dump(w, 0, 0)
}

func (g *Region) dump(w io.Writer, i int32, depth int) error {
	n := g.nodes[i]
	kind := "leaf"
	if n.sub != none {
		kind = "node"
	}
	if _, err := fmt.Fprintf(w, "%s%s %v\n", strings.Repeat("  ", depth), kind, n.rect); err != nil {
		return err
	}
	for c := n.sub; c != none; c = g.nodes[c].next {
		if err := g.dump(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// String returns a one-line summary of the region.
func (g *Region) String() string {
	return fmt.Sprintf("Region(%v, %d leaves)", g.Bounds(), g.Count())
}
