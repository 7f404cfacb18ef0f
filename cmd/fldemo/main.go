// Command fldemo draws a test scene through the fldraw driver.
//
// By default the scene is drawn into an in-memory display and saved as a
// PNG. With -backend x11 it is drawn into a window on the X server.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/fldraw"
	"github.com/gogpu/fldraw/display"
	"github.com/gogpu/fldraw/display/memory"
	_ "github.com/gogpu/fldraw/display/x11"
)

func main() {
	var (
		width   = flag.Int("width", 320, "window width")
		height  = flag.Int("height", 240, "window height")
		output  = flag.String("output", "fldemo.png", "output file for the memory backend")
		backend = flag.String("backend", "memory", "display backend (memory, x11)")
		profile = flag.String("profile", "", "TOML display profile for the memory backend")
		blend   = flag.Bool("blend", false, "let the display composite alpha images")
		hold    = flag.Duration("hold", 5*time.Second, "how long to keep an X11 window open")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	d, err := display.OpenByName(*backend, display.Options{
		Width:         *width,
		Height:        *height,
		Profile:       *profile,
		AlphaBlending: *blend,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("Failed to open display: %v", err)
	}
	defer d.Close()

	drv := fldraw.New(d, fldraw.WithLogger(logger))
	defer drv.Close()

	if err := drawScene(drv, *width, *height); err != nil {
		log.Fatalf("Failed to draw: %v", err)
	}

	if mem, ok := d.(*memory.Display); ok {
		if err := savePNG(*output, mem.Snapshot()); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Demo saved to %s (%dx%d)\n", *output, *width, *height)
		return
	}
	time.Sleep(*hold)
}

func drawScene(drv *fldraw.Driver, w, h int) error {
	// Background gradient, one band per RectFill.
	const bands = 32
	for i := range bands {
		y0, y1 := h*i/bands, h*(i+1)/bands
		c := uint8(40 + 160*i/bands)
		if err := drv.RectFill(0, y0, w, y1-y0, 20, c/2, c); err != nil {
			return err
		}
	}

	// RGB ramp through a clip with a hole.
	ramp := make([]byte, 96*64*3)
	for y := range 64 {
		for x := range 96 {
			i := (y*96 + x) * 3
			ramp[i], ramp[i+1], ramp[i+2] = uint8(x*255/95), uint8(y*255/63), 128
		}
	}
	drv.PushClip(16, 16, 96, 64)
	drv.ExcludeClip(48, 32, 32, 16)
	if err := drv.DrawImage(ramp, 16, 16, 96, 64, 3, 0); err != nil {
		return err
	}
	drv.PopClip()

	// Gray checker.
	checker := make([]byte, 64*64)
	for y := range 64 {
		for x := range 64 {
			if (x/8+y/8)%2 == 0 {
				checker[y*64+x] = 0xE0
			} else {
				checker[y*64+x] = 0x30
			}
		}
	}
	if err := drv.DrawImage(checker, 128, 16, 64, 64, 1, 0); err != nil {
		return err
	}

	// Translucent disc over the checker.
	disc := make([]byte, 64*64*4)
	for y := range 64 {
		for x := range 64 {
			dx, dy := x-32, y-32
			if dx*dx+dy*dy < 30*30 {
				i := (y*64 + x) * 4
				disc[i], disc[i+1], disc[i+2], disc[i+3] = 220, 40, 40, 150
			}
		}
	}
	img, err := fldraw.NewRGBImage(disc, 64, 64, 4, 0)
	if err != nil {
		return err
	}
	if err := drv.DrawRGBImage(img, 144, 32, 64, 64, 0, 0); err != nil {
		return err
	}

	// Generated rows.
	wave := func(x, y, n int, buf []byte) {
		for i := range n {
			v := uint8((x + i + y*3) * 4)
			buf[i*3], buf[i*3+1], buf[i*3+2] = v, 255-v, 160
		}
	}
	if err := drv.DrawImageFunc(wave, 16, 96, 96, 48, 3); err != nil {
		return err
	}

	// Stippled bitmap, tiled over a larger area.
	arrow := &fldraw.Bitmap{
		W: 8, H: 8,
		Data: []byte{0x18, 0x3C, 0x7E, 0xFF, 0x18, 0x18, 0x18, 0x18},
	}
	if err := drv.DrawBitmap(arrow, 128, 96, 64, 48, 0, 0, 255, 255, 0); err != nil {
		return err
	}

	// Scaled image.
	small := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			small.Set(x, y, color.NRGBA{R: uint8(x * 80), G: uint8(y * 80), B: 200, A: 255})
		}
	}
	return drv.DrawScaled(small, 208, 96, 96, 96)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
