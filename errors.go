package fldraw

import "errors"

var (
	// ErrNoFormat is returned by drawing calls after the display's pixel
	// layout failed to resolve and the fatal handler returned.
	ErrNoFormat = errors.New("fldraw: no usable pixel format")

	// ErrInvalidImage is returned for images whose size, depth or strides
	// do not describe their pixels.
	ErrInvalidImage = errors.New("fldraw: invalid image")

	// ErrClosed is returned by drivers after Close.
	ErrClosed = errors.New("fldraw: driver closed")
)
