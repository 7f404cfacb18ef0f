package blit

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/pixfmt"
	"github.com/gogpu/fldraw/region"
)

func mustResolve(t *testing.T, v pixfmt.Visual) *pixfmt.Format {
	t.Helper()
	f, err := pixfmt.Resolve(v, nil)
	if err != nil {
		t.Fatalf("Resolve(%v) error = %v", v, err)
	}
	return f
}

var (
	rgbVisual  = pixfmt.Visual{Depth: 24, BitsPerPixel: 24, ScanlinePad: 32, RedMask: 0xFF, GreenMask: 0xFF00, BlueMask: 0xFF0000}
	rgb565     = pixfmt.Visual{Depth: 16, BitsPerPixel: 16, ScanlinePad: 32, RedMask: 0xF800, GreenMask: 0x07E0, BlueMask: 0x001F}
	xrgbVisual = pixfmt.Visual{Depth: 24, BitsPerPixel: 32, ScanlinePad: 32, RedMask: 0xFF0000, GreenMask: 0xFF00, BlueMask: 0xFF}
)

// recorder collects the images passed to a sink.
type recorder struct {
	images []display.Image
}

func (r *recorder) sink(img *display.Image) error {
	c := *img
	c.Data = bytes.Clone(img.Data)
	r.images = append(r.images, c)
	return nil
}

// rows returns the packed rows of all recorded chunks.
func (r *recorder) rows() [][]byte {
	var out [][]byte
	for i := range r.images {
		img := &r.images[i]
		for y := 0; y < img.Height; y++ {
			out = append(out, img.Row(y))
		}
	}
	return out
}

func gradient(w, h, channels int) []byte {
	pix := make([]byte, w*h*channels)
	for i := range pix {
		pix[i] = byte(i * 7)
	}
	return pix
}

func TestBlit_FastPath(t *testing.T) {
	f := mustResolve(t, rgbVisual)
	pix := gradient(4, 3, 3)
	var rec recorder

	st, err := New(0, nil).Blit(f, Source{Pix: pix, Delta: 3, LineDelta: 12}, region.NewRect(5, 6, 4, 3), region.InfiniteRect(), rec.sink)
	if err != nil {
		t.Fatalf("Blit() error = %v", err)
	}
	if !st.FastPath || st.Chunks != 1 {
		t.Errorf("Stats = %+v, want one fast-path chunk", st)
	}
	img := rec.images[0]
	if img.X != 5 || img.Y != 6 || img.Width != 4 || img.Height != 3 || img.Stride != 12 {
		t.Errorf("image = %+v", img)
	}
	for y, row := range rec.rows() {
		if !bytes.Equal(row, pix[y*12:y*12+12]) {
			t.Errorf("row %d = %v, want source row", y, row)
		}
	}
}

func TestBlit_UnalignedRowsAreConverted(t *testing.T) {
	f := mustResolve(t, rgbVisual)
	pix := gradient(3, 2, 3)
	var rec recorder

	st, err := New(0, nil).Blit(f, Source{Pix: pix, Delta: 3, LineDelta: 9}, region.NewRect(0, 0, 3, 2), region.InfiniteRect(), rec.sink)
	if err != nil {
		t.Fatalf("Blit() error = %v", err)
	}
	if st.FastPath {
		t.Error("FastPath = true for a row stride not on the scanline pad")
	}
	if rec.images[0].Stride != 12 {
		t.Errorf("Stride = %d, want 12", rec.images[0].Stride)
	}
	for y, row := range rec.rows() {
		if !bytes.Equal(row, pix[y*9:y*9+9]) {
			t.Errorf("row %d = %v, want %v", y, row, pix[y*9:y*9+9])
		}
	}
}

func TestBlit_Chunking(t *testing.T) {
	f := mustResolve(t, rgb565)
	pix := gradient(10, 10, 3)
	src := Source{Pix: pix, Delta: 3, LineDelta: 30}
	req := region.NewRect(0, 0, 10, 10)

	var whole, chunked recorder
	if _, err := New(0, nil).Blit(f, src, req, region.InfiniteRect(), whole.sink); err != nil {
		t.Fatalf("Blit() error = %v", err)
	}
	st, err := New(64, nil).Blit(f, src, req, region.InfiniteRect(), chunked.sink)
	if err != nil {
		t.Fatalf("Blit() error = %v", err)
	}

	// 20-byte rows, three rows per 64-byte chunk.
	if st.Chunks != 4 || st.Rows != 10 {
		t.Errorf("Stats = %+v, want 4 chunks of 10 rows", st)
	}
	heights := []int{3, 3, 3, 1}
	for i, img := range chunked.images {
		if img.Height != heights[i] || img.Y != i*3 {
			t.Errorf("chunk %d at y=%d height %d, want y=%d height %d", i, img.Y, img.Height, i*3, heights[i])
		}
		if len(img.Data) > 64 {
			t.Errorf("chunk %d uses %d bytes, want <= 64", i, len(img.Data))
		}
	}

	// Dithering continues across chunks.
	a, b := whole.rows(), chunked.rows()
	for y := range a {
		if !bytes.Equal(a[y], b[y]) {
			t.Errorf("row %d differs between chunked and whole blits", y)
		}
	}
}

func TestBlit_RowLargerThanBuffer(t *testing.T) {
	f := mustResolve(t, xrgbVisual)
	var rec recorder
	st, err := New(16, nil).Blit(f, Source{Pix: gradient(8, 2, 3), Delta: 3, LineDelta: 24}, region.NewRect(0, 0, 8, 2), region.InfiniteRect(), rec.sink)
	if err != nil {
		t.Fatalf("Blit() error = %v", err)
	}
	if st.Chunks != 2 {
		t.Errorf("Chunks = %d, want one per row", st.Chunks)
	}
}

func TestBlit_Clip(t *testing.T) {
	f := mustResolve(t, xrgbVisual)
	// 4x4 RGBX source whose pixel (x, y) holds (x, y, 9).
	pix := make([]byte, 4*4*4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			copy(pix[(y*4+x)*4:], []byte{byte(x), byte(y), 9, 0})
		}
	}
	var rec recorder

	req := region.NewRect(10, 10, 4, 4)
	clip := region.LTRB(12, 0, 100, 13)
	if _, err := New(0, nil).Blit(f, Source{Pix: pix, Delta: 4, LineDelta: 16}, req, clip, rec.sink); err != nil {
		t.Fatalf("Blit() error = %v", err)
	}

	img := rec.images[0]
	if img.Bounds() != region.LTRB(12, 10, 14, 13).Rectangle() {
		t.Fatalf("Bounds() = %v, want (12,10)-(14,13)", img.Bounds())
	}
	for y := 0; y < img.Height; y++ {
		var rgb [6]byte
		f.Decode(rgb[:], img.Row(y), 2)
		want := [6]byte{2, byte(y), 9, 3, byte(y), 9}
		if rgb != want {
			t.Errorf("row %d = %v, want %v", y, rgb, want)
		}
	}
}

func TestBlit_ClipMisses(t *testing.T) {
	f := mustResolve(t, rgbVisual)
	called := false
	st, err := New(0, nil).Blit(f, Source{Pix: gradient(2, 2, 3), Delta: 3, LineDelta: 6},
		region.NewRect(0, 0, 2, 2), region.NewRect(50, 50, 5, 5),
		func(*display.Image) error { called = true; return nil })
	if err != nil || called || st.Chunks != 0 {
		t.Errorf("Blit() = %+v, %v, sink called %v; want no output", st, err, called)
	}
}

func TestBlit_Callback(t *testing.T) {
	f := mustResolve(t, xrgbVisual)
	type call struct{ x, y, w int }
	var calls []call
	fn := func(x, y, w int, buf []byte) {
		calls = append(calls, call{x, y, w})
		for i := 0; i < w; i++ {
			buf[i] = byte(y*10 + x + i)
		}
	}
	var rec recorder

	req := region.NewRect(0, 0, 5, 4)
	clip := region.LTRB(1, 1, 4, 3)
	if _, err := New(0, nil).Blit(f, Source{Func: fn, Delta: 1, Mono: true}, req, clip, rec.sink); err != nil {
		t.Fatalf("Blit() error = %v", err)
	}

	want := []call{{1, 1, 3}, {1, 2, 3}}
	if len(calls) != len(want) {
		t.Fatalf("callback calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
	rows := rec.rows()
	var rgb [9]byte
	f.Decode(rgb[:], rows[1], 3)
	if rgb[0] != 21 || rgb[3] != 22 || rgb[6] != 23 {
		t.Errorf("second row = %v, want gray 21 22 23", rgb)
	}
}

func TestBlit_Alpha(t *testing.T) {
	f := mustResolve(t, rgb565)
	var rec recorder
	_, err := New(0, nil).Blit(f, Source{Pix: []byte{255, 0, 0, 128}, Delta: 4, LineDelta: 4, Alpha: true},
		region.NewRect(0, 0, 1, 1), region.InfiniteRect(), rec.sink)
	if err != nil {
		t.Fatalf("Blit() error = %v", err)
	}
	img := rec.images[0]
	if !img.Alpha || img.Depth != 32 || img.BitsPerPixel != 32 {
		t.Errorf("image = %+v, want premultiplied 32-bit alpha", img)
	}
	if got := f.ARGB().ReadPixel(img.Data); got != 0x80800000 {
		t.Errorf("pixel = %#08x, want 0x80800000", got)
	}
}

func TestBlit_SolidZeroDelta(t *testing.T) {
	f := mustResolve(t, xrgbVisual)
	var rec recorder
	_, err := New(0, nil).Blit(f, Source{Pix: []byte{1, 2, 3}, Delta: 0, LineDelta: 0},
		region.NewRect(0, 0, 3, 2), region.InfiniteRect(), rec.sink)
	if err != nil {
		t.Fatalf("Blit() error = %v", err)
	}
	for y, row := range rec.rows() {
		var rgb [9]byte
		f.Decode(rgb[:], row, 3)
		if rgb != [9]byte{1, 2, 3, 1, 2, 3, 1, 2, 3} {
			t.Errorf("row %d = %v, want solid (1,2,3)", y, rgb)
		}
	}
}

func TestBlit_Errors(t *testing.T) {
	f := mustResolve(t, rgbVisual)
	sink := func(*display.Image) error { return nil }
	req := region.NewRect(0, 0, 4, 4)

	tests := []struct {
		name string
		src  Source
		want error
	}{
		{"negative delta", Source{Pix: make([]byte, 100), Delta: -3, LineDelta: 12}, ErrInvalidStride},
		{"negative line delta", Source{Pix: make([]byte, 100), Delta: 3, LineDelta: -12}, ErrInvalidStride},
		{"short buffer", Source{Pix: make([]byte, 47), Delta: 3, LineDelta: 12}, ErrShortBuffer},
		{"no pixels", Source{Delta: 3, LineDelta: 12}, ErrShortBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(0, nil).Blit(f, tt.src, req, region.InfiniteRect(), sink); !errors.Is(err, tt.want) {
				t.Errorf("Blit() error = %v, want %v", err, tt.want)
			}
		})
	}

	sinkErr := errors.New("server gone")
	_, err := New(0, nil).Blit(f, Source{Pix: make([]byte, 48), Delta: 3, LineDelta: 12}, req, region.InfiniteRect(),
		func(*display.Image) error { return sinkErr })
	if !errors.Is(err, sinkErr) {
		t.Errorf("Blit() error = %v, want sink error", err)
	}
}

func TestEngine_ScratchReuse(t *testing.T) {
	e := New(0, nil)
	a := e.buffer(100)
	b := e.buffer(50)
	if &a[0] != &b[0] {
		t.Error("smaller request did not reuse the scratch buffer")
	}
	c := e.buffer(200)
	if len(c) != 200 || cap(e.scratch) < 200 {
		t.Errorf("buffer(200) len = %d, cap = %d", len(c), cap(e.scratch))
	}
}
