package pixfmt

// Size of the color cube used on 8-bit displays.
const (
	NumRed   = 5
	NumGreen = 8
	NumBlue  = 5

	cubeSize = NumRed * NumGreen * NumBlue
)

// Entry is an allocated palette color: the pixel value the display uses and
// the color it actually shows, which may differ from the one requested.
type Entry struct {
	Pixel   uint32
	R, G, B uint8
}

// Allocator obtains palette entries from the display.
type Allocator interface {
	AllocColor(r, g, b uint8) Entry
}

// ColorQuerier is implemented by allocators that can report the color of
// any cell of the colormap, including cells allocated elsewhere.
type ColorQuerier interface {
	QueryColor(pixel uint32) (r, g, b uint8, ok bool)
}

// AllocatorFunc adapts a function to the Allocator interface.
type AllocatorFunc func(r, g, b uint8) Entry

// AllocColor calls fn(r, g, b).
func (fn AllocatorFunc) AllocColor(r, g, b uint8) Entry { return fn(r, g, b) }

// ColorCube maps colors to the 5x8x5 cube of palette entries. Cells are
// allocated lazily on first use.
type ColorCube struct {
	alloc   Allocator
	entries [cubeSize]Entry
	mapped  [cubeSize]bool
	byPixel map[uint32]Entry
}

// NewColorCube creates a cube allocating its cells through alloc.
func NewColorCube(alloc Allocator) *ColorCube {
	return &ColorCube{
		alloc:   alloc,
		byPixel: make(map[uint32]Entry),
	}
}

// CubeIndex returns the cell index for cube coordinates.
func CubeIndex(ri, gi, bi int) int {
	return (bi*NumRed+ri)*NumGreen + gi
}

// cellColor returns the nominal color of cube coordinates.
func cellColor(ri, gi, bi int) (r, g, b uint8) {
	return uint8(ri * 255 / (NumRed - 1)), uint8(gi * 255 / (NumGreen - 1)), uint8(bi * 255 / (NumBlue - 1))
}

// Lookup returns the entry of the cell holding the color r, g, b.
// Components are expected in 0..255.
func (c *ColorCube) Lookup(r, g, b int) Entry {
	ri, gi, bi := r*NumRed/256, g*NumGreen/256, b*NumBlue/256
	i := CubeIndex(ri, gi, bi)
	if !c.mapped[i] {
		e := c.alloc.AllocColor(cellColor(ri, gi, bi))
		c.entries[i] = e
		c.mapped[i] = true
		if _, ok := c.byPixel[e.Pixel]; !ok {
			c.byPixel[e.Pixel] = e
		}
	}
	return c.entries[i]
}

// Color returns the color shown for a pixel value. Pixels the cube did not
// allocate are asked of the allocator when it is a ColorQuerier, and
// reported as black otherwise.
func (c *ColorCube) Color(pixel uint32) (r, g, b uint8, ok bool) {
	if e, ok := c.byPixel[pixel]; ok {
		return e.R, e.G, e.B, true
	}
	if q, ok := c.alloc.(ColorQuerier); ok {
		return q.QueryColor(pixel)
	}
	return 0, 0, 0, false
}

// maskAllocator computes palette entries for 8-bit true-color displays.
type maskAllocator struct {
	f *Format
}

func (m maskAllocator) AllocColor(r, g, b uint8) Entry {
	p := m.f.trueColorPixel(int(r), int(g), int(b))
	e := Entry{Pixel: p}
	e.R, e.G, e.B = m.f.trueColorRGB(p)
	return e
}
