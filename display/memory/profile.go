// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package memory

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/fldraw/pixfmt"
)

// Profile describes an emulated display. Profiles are stored as TOML:
//
//	width = 320
//	height = 240
//	depth = 16
//	bits_per_pixel = 16
//	scanline_pad = 32
//	byte_order = "lsb"
//	red_mask = 0xf800
//	green_mask = 0x07e0
//	blue_mask = 0x001f
//	alpha_blending = false
//
// Omitting the masks selects an 8-bit palette display.
type Profile struct {
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	Depth         int    `toml:"depth"`
	BitsPerPixel  int    `toml:"bits_per_pixel"`
	ScanlinePad   int    `toml:"scanline_pad"`
	ByteOrder     string `toml:"byte_order"`
	RedMask       uint32 `toml:"red_mask"`
	GreenMask     uint32 `toml:"green_mask"`
	BlueMask      uint32 `toml:"blue_mask"`
	AlphaBlending bool   `toml:"alpha_blending"`
}

// DefaultProfile is a 640x480 display with 32-bit XRGB pixels.
func DefaultProfile() Profile {
	return Profile{
		Width:        640,
		Height:       480,
		Depth:        24,
		BitsPerPixel: 32,
		ScanlinePad:  32,
		ByteOrder:    "lsb",
		RedMask:      0xFF0000,
		GreenMask:    0xFF00,
		BlueMask:     0xFF,
	}
}

// LoadProfile reads a profile file. Keys missing from the file keep their
// DefaultProfile values; a file that sets the depth without masks describes
// a palette display.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return p, fmt.Errorf("memory: read profile: %w", err)
	}
	return p, p.applyMeta(md)
}

// ParseProfile decodes a profile from TOML text.
func ParseProfile(data string) (Profile, error) {
	p := DefaultProfile()
	md, err := toml.Decode(data, &p)
	if err != nil {
		return p, fmt.Errorf("memory: parse profile: %w", err)
	}
	return p, p.applyMeta(md)
}

func (p *Profile) applyMeta(md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("memory: unknown profile key %q", undecoded[0].String())
	}
	if md.IsDefined("depth") && !md.IsDefined("red_mask") {
		p.RedMask, p.GreenMask, p.BlueMask = 0, 0, 0
	}
	return nil
}

// Encode writes the profile as TOML.
func (p Profile) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// Visual returns the pixel layout of the profile.
func (p Profile) Visual() (pixfmt.Visual, error) {
	order, err := pixfmt.ParseByteOrder(p.ByteOrder)
	if err != nil {
		return pixfmt.Visual{}, err
	}
	return pixfmt.Visual{
		Depth:        p.Depth,
		BitsPerPixel: p.BitsPerPixel,
		ScanlinePad:  p.ScanlinePad,
		ByteOrder:    order,
		RedMask:      p.RedMask,
		GreenMask:    p.GreenMask,
		BlueMask:     p.BlueMask,
	}, nil
}
