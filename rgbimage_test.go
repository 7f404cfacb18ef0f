package fldraw

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/display/memory"
)

func TestDrawImage_Alpha(t *testing.T) {
	tests := []struct {
		name     string
		blending bool
		opts     []Option
	}{
		{"fallback", false, nil},
		{"display blending", true, nil},
		{"blending disabled", true, []Option{WithAlphaBlending(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDisplay(t, display.Options{Width: 4, Height: 2, AlphaBlending: tt.blending})
			drv := New(d, tt.opts...)
			if err := drv.RectFill(0, 0, 4, 2, 200, 200, 200); err != nil {
				t.Fatal(err)
			}

			// Half transparent black over light gray.
			rgba := fill(2, 1, 0, 0, 0, 128)
			if err := drv.DrawImage(rgba, 0, 0, 2, 1, 4|ImageWithAlpha, 0); err != nil {
				t.Fatalf("DrawImage(rgba) error = %v", err)
			}
			// Opaque white gray+alpha.
			if err := drv.DrawImage([]byte{255, 255}, 2, 0, 1, 1, 2|ImageWithAlpha, 0); err != nil {
				t.Fatalf("DrawImage(gray+alpha) error = %v", err)
			}
			// Fully transparent.
			if err := drv.DrawImage([]byte{255, 0, 0, 0}, 3, 0, 1, 1, 4|ImageWithAlpha, 0); err != nil {
				t.Fatalf("DrawImage(transparent) error = %v", err)
			}

			snap := d.Snapshot()
			checkPixel(t, snap, 0, 0, color.RGBA{100, 100, 100, 0xFF}, 1)
			checkPixel(t, snap, 1, 0, color.RGBA{100, 100, 100, 0xFF}, 1)
			checkPixel(t, snap, 2, 0, white, 0)
			checkPixel(t, snap, 3, 0, color.RGBA{200, 200, 200, 0xFF}, 0)
			checkPixel(t, snap, 0, 1, color.RGBA{200, 200, 200, 0xFF}, 0)
		})
	}
}

func TestDrawImage_AlphaFallbackClipped(t *testing.T) {
	d := newMemoryDisplay(t, 4, 4)
	drv := New(d)

	var rows []int
	fn := func(x, y, w int, buf []byte) {
		rows = append(rows, y)
		for i := range w {
			buf[i*2], buf[i*2+1] = 255, 255
		}
	}

	// Partly outside the window and partly clipped.
	drv.PushClip(1, 1, 10, 10)
	if err := drv.DrawImageFunc(fn, -2, -2, 8, 8, 2|ImageWithAlpha); err != nil {
		t.Fatalf("DrawImageFunc() error = %v", err)
	}
	drv.PopClip()

	if len(rows) != 3 || rows[0] != 3 {
		t.Errorf("rows = %v, want 3 rows starting at 3", rows)
	}
	snap := d.Snapshot()
	checkPixel(t, snap, 0, 0, black, 0)
	checkPixel(t, snap, 1, 1, white, 0)
	checkPixel(t, snap, 3, 3, white, 0)
}

func TestNewRGBImage(t *testing.T) {
	tests := []struct {
		name       string
		n, w, h, d int
		ld         int
		ok         bool
	}{
		{name: "rgb", n: 12, w: 2, h: 2, d: 3, ok: true},
		{name: "padded", n: 14, w: 2, h: 2, d: 3, ld: 8, ok: true},
		{name: "short", n: 11, w: 2, h: 2, d: 3},
		{name: "short padded", n: 13, w: 2, h: 2, d: 3, ld: 8},
		{name: "depth 5", n: 20, w: 2, h: 2, d: 5},
		{name: "narrow line", n: 12, w: 2, h: 2, d: 3, ld: 4},
		{name: "empty", n: 0, w: 0, h: 2, d: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRGBImage(make([]byte, tt.n), tt.w, tt.h, tt.d, tt.ld)
			if (err == nil) != tt.ok {
				t.Errorf("NewRGBImage() error = %v, want ok = %v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidImage) {
				t.Errorf("NewRGBImage() error = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestFromImage(t *testing.T) {
	opaque := image.NewRGBA(image.Rect(5, 5, 7, 6))
	opaque.Set(5, 5, red)
	opaque.Set(6, 5, green)
	img := FromImage(opaque)
	if img.D != 3 || img.W != 2 || img.H != 1 {
		t.Fatalf("FromImage(opaque) = %dx%dx%d, want 2x1x3", img.W, img.H, img.D)
	}
	if got := img.Pix[:6]; got[0] != 255 || got[4] != 255 {
		t.Errorf("FromImage(opaque).Pix = %v", got)
	}

	translucent := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	translucent.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	img = FromImage(translucent)
	if img.D != 4 || !img.HasAlpha() {
		t.Fatalf("FromImage(translucent) depth = %d, want 4", img.D)
	}
	if got := img.Pix[:4]; !near(got[0], 10, 1) || got[3] != 40 {
		t.Errorf("FromImage(translucent).Pix = %v, want straight alpha", got)
	}
}

func TestDrawRGBImage_Opaque(t *testing.T) {
	d := newMemoryDisplay(t, 8, 8)
	drv := New(d)

	// 4x4 image, column x has red = 60*x.
	pix := make([]byte, 0, 4*4*3)
	for range 4 {
		for x := range 4 {
			pix = append(pix, byte(60*x), 0, 0)
		}
	}
	img, err := NewRGBImage(pix, 4, 4, 3, 0)
	if err != nil {
		t.Fatal(err)
	}

	// The 6x6 request from (1,1) is clamped to the 3x3 remainder.
	if err := drv.DrawRGBImage(img, 2, 2, 6, 6, 1, 1); err != nil {
		t.Fatalf("DrawRGBImage() error = %v", err)
	}
	snap := d.Snapshot()
	checkPixel(t, snap, 2, 2, color.RGBA{60, 0, 0, 0xFF}, 0)
	checkPixel(t, snap, 4, 4, color.RGBA{180, 0, 0, 0xFF}, 0)
	checkPixel(t, snap, 5, 5, black, 0)

	if st := drv.CacheStats(); st.Len != 1 {
		t.Errorf("cache Len = %d, want 1", st.Len)
	}
	if d.Resources() != 1 {
		t.Errorf("Resources() = %d, want 1", d.Resources())
	}

	// A clipped second draw reuses the offscreen. Column 0 of the window
	// shows column 1 of the image, except where excluded.
	drv.PushClip(0, 0, 1, 8)
	drv.ExcludeClip(0, 1, 1, 1)
	if err := drv.DrawRGBImage(img, -1, 0, 4, 4, 0, 0); err != nil {
		t.Fatalf("DrawRGBImage() error = %v", err)
	}
	drv.PopClip()
	if st := drv.CacheStats(); st.Hits != 1 {
		t.Errorf("cache Hits = %d, want 1", st.Hits)
	}
	snap = d.Snapshot()
	checkPixel(t, snap, 0, 0, color.RGBA{60, 0, 0, 0xFF}, 0)
	checkPixel(t, snap, 0, 1, black, 0)
	checkPixel(t, snap, 0, 3, color.RGBA{60, 0, 0, 0xFF}, 0)
	checkPixel(t, snap, 1, 0, black, 0)

	drv.Uncache(img)
	if d.Resources() != 0 {
		t.Errorf("Resources() after Uncache = %d, want 0", d.Resources())
	}
}

func TestDrawRGBImage_Alpha(t *testing.T) {
	for _, blending := range []bool{false, true} {
		d := newDisplay(t, display.Options{Width: 4, Height: 4, AlphaBlending: blending})
		drv := New(d)
		if err := drv.RectFill(0, 0, 4, 4, 200, 200, 200); err != nil {
			t.Fatal(err)
		}

		img, err := NewRGBImage(fill(2, 2, 0, 0, 0, 128), 2, 2, 4, 0)
		if err != nil {
			t.Fatal(err)
		}
		if err := drv.DrawRGBImage(img, 1, 1, 2, 2, 0, 0); err != nil {
			t.Fatalf("DrawRGBImage(blending=%v) error = %v", blending, err)
		}

		wantPixmaps := 0
		if blending {
			wantPixmaps = 1
		}
		if d.Resources() != wantPixmaps {
			t.Errorf("Resources(blending=%v) = %d, want %d", blending, d.Resources(), wantPixmaps)
		}
		snap := d.Snapshot()
		checkPixel(t, snap, 1, 1, color.RGBA{100, 100, 100, 0xFF}, 1)
		checkPixel(t, snap, 2, 2, color.RGBA{100, 100, 100, 0xFF}, 1)
		checkPixel(t, snap, 3, 3, color.RGBA{200, 200, 200, 0xFF}, 0)
	}
}

func TestDrawRGBImage_Eviction(t *testing.T) {
	d := newMemoryDisplay(t, 4, 4)
	drv := New(d, WithCacheLimit(1))

	a, _ := NewRGBImage(fill(1, 1, 255, 0, 0), 1, 1, 3, 0)
	b, _ := NewRGBImage(fill(1, 1, 0, 255, 0), 1, 1, 3, 0)
	if err := drv.DrawRGBImage(a, 0, 0, 1, 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := drv.DrawRGBImage(b, 1, 0, 1, 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if d.Resources() != 1 {
		t.Errorf("Resources() = %d, want 1 after eviction", d.Resources())
	}
	if st := drv.CacheStats(); st.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", st.Evictions)
	}
	snap := d.Snapshot()
	checkPixel(t, snap, 0, 0, red, 0)
	checkPixel(t, snap, 1, 0, green, 0)
}

func TestDrawScaled(t *testing.T) {
	d := newMemoryDisplay(t, 6, 6)
	drv := New(d)

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			src.Set(x, y, red)
		}
	}
	if err := drv.DrawScaled(src, 1, 1, 4, 4); err != nil {
		t.Fatalf("DrawScaled() error = %v", err)
	}
	snap := d.Snapshot()
	checkPixel(t, snap, 1, 1, red, 0)
	checkPixel(t, snap, 4, 4, red, 0)
	checkPixel(t, snap, 5, 5, black, 0)
}

func TestDrawImage_AlphaFallbackPaletteAfterReset(t *testing.T) {
	d := newDisplay(t, display.Options{Width: 2, Height: 1, Visual: &visualPalette})
	drv := New(d)
	if err := drv.RectFill(0, 0, 2, 1, 255, 255, 255); err != nil {
		t.Fatal(err)
	}

	// The new color cube has allocated nothing, so the white backdrop
	// must be read back through the display's colormap.
	drv.ResetFormat()
	if err := drv.DrawImage([]byte{0, 0, 0, 128}, 0, 0, 1, 1, 4|ImageWithAlpha, 0); err != nil {
		t.Fatalf("DrawImage() error = %v", err)
	}

	got := d.Snapshot().RGBAAt(0, 0)
	for _, c := range []uint8{got.R, got.G, got.B} {
		if c < 64 || c > 192 {
			t.Errorf("pixel (0,0) = %v, want a mid gray", got)
			break
		}
	}
	checkPixel(t, d.Snapshot(), 1, 0, white, 0)
}

// failingUpload rejects uploads into pixmaps and fails to free them.
type failingUpload struct {
	*memory.Display
}

var errUpload = errors.New("upload failed")

func (f failingUpload) PutImage(dst display.Drawable, img *display.Image) error {
	if dst != f.Window() {
		return errUpload
	}
	return f.Display.PutImage(dst, img)
}

func (f failingUpload) FreePixmap(p display.Drawable) error {
	if err := f.Display.FreePixmap(p); err != nil {
		return err
	}
	return errors.New("free failed")
}

func TestDrawRGBImage_UploadFailureFreesPixmap(t *testing.T) {
	mem := newMemoryDisplay(t, 4, 4)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := New(failingUpload{mem}, WithLogger(logger))

	img, err := NewRGBImage(fill(2, 2, 255, 0, 0), 2, 2, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := drv.DrawRGBImage(img, 0, 0, 2, 2, 0, 0); !errors.Is(err, errUpload) {
		t.Errorf("DrawRGBImage() error = %v, want errUpload", err)
	}
	if mem.Resources() != 0 {
		t.Errorf("Resources() = %d, want the pixmap released", mem.Resources())
	}
	if out := logs.String(); !strings.Contains(out, "free offscreen") || !strings.Contains(out, "free failed") {
		t.Errorf("log = %q, want a free offscreen warning", out)
	}
}
