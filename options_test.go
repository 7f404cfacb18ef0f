package fldraw

import (
	"errors"
	"testing"

	"github.com/gogpu/fldraw/internal/blit"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.maxBuffer != blit.DefaultMaxBuffer {
		t.Errorf("maxBuffer = %d, want %d", o.maxBuffer, blit.DefaultMaxBuffer)
	}
	if o.cacheLimit != DefaultCacheLimit {
		t.Errorf("cacheLimit = %d, want %d", o.cacheLimit, DefaultCacheLimit)
	}
	if !o.alphaBlending {
		t.Error("alphaBlending = false, want true")
	}
	if o.fatal == nil {
		t.Error("fatal handler is nil")
	}
}

func TestOptions(t *testing.T) {
	var fatalErr error
	tests := []struct {
		name  string
		opt   Option
		check func(o options) bool
	}{
		{"max buffer", WithMaxBuffer(4096), func(o options) bool { return o.maxBuffer == 4096 }},
		{"max buffer ignores zero", WithMaxBuffer(0), func(o options) bool { return o.maxBuffer == blit.DefaultMaxBuffer }},
		{"cache limit", WithCacheLimit(3), func(o options) bool { return o.cacheLimit == 3 }},
		{"cache limit ignores negative", WithCacheLimit(-1), func(o options) bool { return o.cacheLimit == DefaultCacheLimit }},
		{"alpha blending off", WithAlphaBlending(false), func(o options) bool { return !o.alphaBlending }},
		{"nil fatal handler keeps default", WithFatalHandler(nil), func(o options) bool { return o.fatal != nil }},
		{"fatal handler", WithFatalHandler(func(err error) { fatalErr = err }), func(o options) bool {
			o.fatal(ErrNoFormat)
			return errors.Is(fatalErr, ErrNoFormat)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			if !tt.check(o) {
				t.Errorf("%s: option not applied: %+v", tt.name, o)
			}
		})
	}
}

func TestPanicFatal(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrNoFormat {
			t.Errorf("recover() = %v, want ErrNoFormat", r)
		}
	}()
	panicFatal(ErrNoFormat)
}
