package fldraw

import (
	"log/slog"

	"github.com/gogpu/fldraw/internal/blit"
)

// DefaultCacheLimit is the number of offscreen images a driver keeps before
// evicting the least recently drawn ones.
const DefaultCacheLimit = 256

// Option configures a Driver during creation.
//
// Example:
//
//	drv := fldraw.New(d,
//	    fldraw.WithMaxBuffer(64<<10),
//	    fldraw.WithFatalHandler(func(err error) { log.Fatal(err) }),
//	)
type Option func(*options)

// options holds optional configuration for Driver creation.
type options struct {
	maxBuffer     int
	cacheLimit    int
	fatal         func(error)
	alphaBlending bool
	logger        *slog.Logger
}

// defaultOptions returns the default driver options.
func defaultOptions() options {
	return options{
		maxBuffer:     blit.DefaultMaxBuffer,
		cacheLimit:    DefaultCacheLimit,
		fatal:         panicFatal,
		alphaBlending: true,
	}
}

// panicFatal is the default fatal handler.
func panicFatal(err error) {
	panic(err)
}

// WithMaxBuffer bounds the conversion buffer of one blit chunk, in bytes.
// Non-positive values keep the default of 256 KiB.
func WithMaxBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBuffer = n
		}
	}
}

// WithCacheLimit sets how many images and bitmaps keep their offscreen
// copies on the display.
func WithCacheLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheLimit = n
		}
	}
}

// WithFatalHandler replaces the handler called when the display's pixel
// layout cannot be drawn to. The default handler panics. A handler that
// returns leaves the driver unable to draw: every drawing call then fails
// with ErrNoFormat.
func WithFatalHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.fatal = fn
		}
	}
}

// WithAlphaBlending controls use of the display's alpha compositing. When
// disabled, images with alpha are always blended by reading back the
// destination.
func WithAlphaBlending(enabled bool) Option {
	return func(o *options) {
		o.alphaBlending = enabled
	}
}

// WithLogger sets the logger of one driver, overriding the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
