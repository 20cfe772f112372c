// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package preview renders the display board into an image, for
// documentation and for checking content without hardware.
package preview

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/bttf/displays/segment"
	"github.com/bttf/displays/termsim"
)

// Opts represents the rendering options.
type Opts struct {
	// DigitWidth is the width of a digit in pixels. The height is twice that.
	DigitWidth int
	Lit        color.NRGBA
	Dim        color.NRGBA
	Background color.NRGBA
	// Label is drawn above the digits if not empty.
	Label string

	_ struct{}
}

// DefaultOpts renders red digits on black.
var DefaultOpts = Opts{
	DigitWidth: 40,
	Lit:        color.NRGBA{255, 48, 0, 255},
	Dim:        color.NRGBA{40, 8, 0, 255},
	Background: color.NRGBA{A: 255},
}

// point is a position in a unit digit, x in [0, 1] and y in [0, 2].
type point struct{ x, y float64 }

// strokes are the end points of each segment, in logical bit order.
var strokes = [segment.Count][2]point{
	{{0, 0}, {0.5, 0}},   // A
	{{0.5, 0}, {1, 0}},   // B
	{{1, 0}, {1, 1}},     // C
	{{1, 1}, {1, 2}},     // D
	{{0.5, 2}, {1, 2}},   // E
	{{0, 2}, {0.5, 2}},   // F
	{{0, 1}, {0, 2}},     // G
	{{0, 0}, {0, 1}},     // H
	{{0, 0}, {0.5, 1}},   // K
	{{0.5, 0}, {0.5, 1}}, // M
	{{1, 0}, {0.5, 1}},   // N
	{{0.5, 1}, {1, 1}},   // P
	{{0.5, 1}, {1, 2}},   // R
	{{0.5, 1}, {0.5, 2}}, // S
	{{0.5, 1}, {0, 2}},   // T
	{{0, 1}, {0.5, 1}},   // U
}

// Layout returns the image size for n digits.
func Layout(n int, opts *Opts) (width, height int) {
	w := opts.DigitWidth
	return margin(w)*2 + n*pitch(w), margin(w)*2 + 2*w + labelHeight(opts)
}

func pitch(w int) int {
	return w * 8 / 5
}

func margin(w int) int {
	return w / 2
}

func thickness(w int) float64 {
	return float64(w) / 8
}

func labelHeight(opts *Opts) int {
	if opts.Label == "" {
		return 0
	}
	return opts.DigitWidth
}

// Render draws s.
func Render(s termsim.State, opts *Opts) (image.Image, error) {
	dc, err := render(s, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// EncodePNG draws s as a PNG into w.
func EncodePNG(w io.Writer, s termsim.State, opts *Opts) error {
	dc, err := render(s, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG draws s as a PNG file.
func SavePNG(path string, s termsim.State, opts *Opts) error {
	img, err := Render(s, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

func render(s termsim.State, opts *Opts) (*gg.Context, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.DigitWidth <= 0 {
		o.DigitWidth = DefaultOpts.DigitWidth
	}
	w, h := Layout(len(s.Words), &o)
	dc := gg.NewContext(w, h)
	dc.SetColor(o.Background)
	dc.Clear()

	dw := float64(o.DigitWidth)
	top := float64(margin(o.DigitWidth) + labelHeight(&o))
	if o.Label != "" {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: dw * 0.6}))
		dc.SetColor(o.Lit)
		dc.DrawStringAnchored(o.Label, float64(w)/2, float64(margin(o.DigitWidth))+dw/2, 0.5, 0.5)
	}

	dc.SetLineCapRound()
	dc.SetLineWidth(thickness(o.DigitWidth))
	for i, word := range s.Words {
		m := segment.FromHardwareOrder(word)
		left := float64(margin(o.DigitWidth) + i*pitch(o.DigitWidth))
		for j, st := range strokes {
			dc.SetColor(o.Dim)
			if m&(1<<uint(j)) != 0 {
				dc.SetColor(o.Lit)
			}
			dc.DrawLine(left+st[0].x*dw, top+st[0].y*dw, left+st[1].x*dw, top+st[1].y*dw)
			dc.Stroke()
		}
		dc.SetColor(o.Dim)
		if s.DecimalPoints&(1<<uint(i)) != 0 {
			dc.SetColor(o.Lit)
		}
		dc.DrawCircle(left+dw*1.3, top+2*dw, thickness(o.DigitWidth))
		dc.Fill()
	}
	return dc, nil
}
