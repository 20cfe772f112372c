// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termsim draws the simulated display board on a terminal using
// ANSI color codes.
//
// Each 16-segment digit is drawn as a 5x7 block of cells, followed by its
// decimal point. The AM, PM and separator indicators are drawn below with
// their brightness.
package termsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/gpio"

	"github.com/bttf/displays/boardsim"
	"github.com/bttf/displays/segment"
)

const (
	cellsX = 5
	cellsY = 7
	// rows is the number of text rows drawn per frame.
	rows = cellsY + 1
)

// cells lists, for each cell of a digit, the segments lighting it.
var cells = [cellsY][cellsX]segment.Mask{
	{segment.A | segment.H, segment.A, segment.A | segment.B | segment.M, segment.B, segment.B | segment.C},
	{segment.H, segment.K, segment.M, segment.N, segment.C},
	{segment.H, segment.K, segment.M, segment.N, segment.C},
	{segment.U | segment.H | segment.G, segment.U, segment.U | segment.P | segment.M | segment.S, segment.P, segment.P | segment.C | segment.D},
	{segment.G, segment.T, segment.S, segment.R, segment.D},
	{segment.G, segment.T, segment.S, segment.R, segment.D},
	{segment.F | segment.G, segment.F, segment.F | segment.E | segment.S, segment.E, segment.E | segment.D},
}

// State is what the board shows.
type State struct {
	Words         []segment.Word
	DecimalPoints uint32
	AM            gpio.Duty
	PM            gpio.Duty
	Separator     gpio.Duty
}

// BoardState returns what b shows to a viewer.
func BoardState(b *boardsim.Board) State {
	w, dp := b.Shown()
	return State{
		Words:         w,
		DecimalPoints: dp,
		AM:            b.Indicator(boardsim.AM),
		PM:            b.Indicator(boardsim.PM),
		Separator:     b.Indicator(boardsim.Separator),
	}
}

// Opts represents the options available for the renderer.
type Opts struct {
	Palette *ansi256.Palette
	// Lit and Dim are the colors of a lit and an unlit segment.
	Lit color.NRGBA
	Dim color.NRGBA
	// Plain draws with '#' and '.' instead of colors and never moves the
	// cursor.
	Plain bool

	_ struct{}
}

// DefaultOpts is a red display.
var DefaultOpts = Opts{
	Lit: color.NRGBA{255, 48, 0, 255},
	Dim: color.NRGBA{48, 8, 0, 255},
}

// Dev draws board states to a terminal.
type Dev struct {
	w       io.Writer
	opts    Opts
	palette ansi256.Palette

	drawn bool
	buf   bytes.Buffer
}

// New returns a Dev that draws to stdout. Colors are only used when stdout
// is a terminal.
func New(opts *Opts) *Dev {
	if opts == nil {
		o := DefaultOpts
		o.Plain = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
		opts = &o
	}
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev that draws to w.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Dev{w: w, opts: *opts, palette: *p}
}

func (d *Dev) String() string {
	return "TermSim"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	if d.opts.Plain {
		return nil
	}
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Draw writes s. In color mode, every call after the first overwrites the
// previous frame.
func (d *Dev) Draw(s State) error {
	d.buf.Reset()
	if d.drawn && !d.opts.Plain {
		fmt.Fprintf(&d.buf, "\033[%dA", rows)
	}
	d.drawn = true
	for y := 0; y < cellsY; y++ {
		d.buf.WriteString("\r")
		for i, w := range s.Words {
			m := segment.FromHardwareOrder(w)
			for x := 0; x < cellsX; x++ {
				d.cell(cells[y][x]&m != 0, 1)
			}
			if y == cellsY-1 {
				d.cell(s.DecimalPoints&(1<<uint(i)) != 0, 1)
			} else {
				d.gap()
			}
			d.gap()
		}
		d.endLine()
	}
	d.buf.WriteString("\r")
	d.indicator("AM", s.AM)
	d.indicator("PM", s.PM)
	d.indicator("SEP", s.Separator)
	d.endLine()
	_, err := d.buf.WriteTo(d.w)
	return err
}

func (d *Dev) endLine() {
	if !d.opts.Plain {
		d.buf.WriteString("\033[0m")
	}
	d.buf.WriteString("\n")
}

func (d *Dev) gap() {
	if d.opts.Plain {
		d.buf.WriteString(" ")
		return
	}
	d.buf.WriteString(d.palette.Block(color.NRGBA{A: 255}))
}

// cell draws one cell, lit with brightness f in [0, 1].
func (d *Dev) cell(lit bool, f float64) {
	if d.opts.Plain {
		if lit {
			d.buf.WriteString("#")
		} else {
			d.buf.WriteString(".")
		}
		return
	}
	c := d.opts.Dim
	if lit {
		c = blend(d.opts.Dim, d.opts.Lit, f)
	}
	d.buf.WriteString(d.palette.Block(c))
}

func (d *Dev) indicator(name string, duty gpio.Duty) {
	if d.opts.Plain {
		fmt.Fprintf(&d.buf, "%s ", name)
	} else {
		d.buf.WriteString("\033[0m" + name + " ")
	}
	d.cell(duty > 0, float64(duty)/float64(gpio.DutyMax))
	d.buf.WriteString(" ")
}

func blend(from, to color.NRGBA, f float64) color.NRGBA {
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
	}
	return color.NRGBA{mix(from.R, to.R), mix(from.G, to.G), mix(from.B, to.B), 255}
}

var _ fmt.Stringer = &Dev{}
