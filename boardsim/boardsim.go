// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package boardsim emulates the time circuit display board behind a set of
// gpio.PinIO pins: two 74HC595-style chains (digit select and segment data)
// with store latches and active-low output enables, the decimal point line
// and the three PWM indicator LEDs.
//
// Useful to run the display stack on a machine without the board, and to
// check multiplexing properties in tests.
package boardsim

import (
	"fmt"
	"math/bits"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/bttf/displays/segment"
)

// Line identifies one control line of the board.
type Line int

const (
	Data Line = iota
	DigitShift
	DigitStore
	DigitEnable
	SegmentShift
	SegmentStore
	SegmentEnable
	DecimalPoint
	AM
	PM
	Separator

	numLines
)

var lineNames = [numLines]string{
	"DATA",
	"DIGIT_SHIFT",
	"DIGIT_STORE",
	"DIGIT_ENABLE",
	"SEG_SHIFT",
	"SEG_STORE",
	"SEG_ENABLE",
	"SEG_DP_ENABLE",
	"SEG_AM_ENABLE",
	"SEG_PM_ENABLE",
	"TIME_SEPARATOR",
}

func (l Line) String() string {
	if l < 0 || l >= numLines {
		return fmt.Sprintf("Line(%d)", int(l))
	}
	return lineNames[l]
}

// Frame is what the board lights between two line changes.
type Frame struct {
	// Digit is the digit sinking current, or -1 if none does.
	Digit int
	// Word is the latched segment pattern, segment.Off while the segment
	// outputs are disabled.
	Word segment.Word
	// DecimalPoint is true when the decimal point line is driven.
	DecimalPoint bool
}

// Board is the emulated display board.
type Board struct {
	mu     sync.Mutex
	digits int
	pins   [numLines]*Pin

	digitReg  uint32
	digitOut  uint32
	segReg    uint16
	segOut    uint16
	frame     Frame
	maxLit    int
	shown     []segment.Word
	dpShown   uint32
	observers []func(Frame)
}

// New returns a board with the given number of digit positions. All lines
// start undriven.
func New(digits int) *Board {
	b := &Board{
		digits: digits,
		frame:  Frame{Digit: -1, Word: segment.Off},
		shown:  make([]segment.Word, digits),
	}
	for i := range b.shown {
		b.shown[i] = segment.Off
	}
	for l := range numLines {
		b.pins[l] = &Pin{
			board:  b,
			line:   l,
			pullUp: pulledUp(l),
		}
	}
	return b
}

// pulledUp reports whether l reads high while nothing drives it. The open
// drain segment clocks have external pull-ups; the active-low enables are
// treated the same so an undriven board stays dark.
func pulledUp(l Line) bool {
	switch l {
	case SegmentShift, SegmentStore, DigitEnable, SegmentEnable, DecimalPoint:
		return true
	}
	return false
}

// Pin returns the pin connected to l.
func (b *Board) Pin(l Line) *Pin {
	return b.pins[l]
}

// Digits returns the number of digit positions.
func (b *Board) Digits() int {
	return b.digits
}

// Observe registers fn to be called with every new Frame. fn is called with
// the board locked and must not use the board's pins.
func (b *Board) Observe(fn func(Frame)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

// Frame returns what is lit right now.
func (b *Board) Frame() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// MaxLit returns the largest number of digits ever lit at the same time.
func (b *Board) MaxLit() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxLit
}

// Shown returns, for each digit, the last pattern it was lit with. This is
// what a viewer sees once the scan is fast enough.
func (b *Board) Shown() ([]segment.Word, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]segment.Word, len(b.shown))
	copy(out, b.shown)
	return out, b.dpShown
}

// Indicator returns the duty cycle of an indicator line. A line driven high
// reads as gpio.DutyMax.
func (b *Board) Indicator(l Line) gpio.Duty {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.pins[l]
	if p.pwm {
		return p.duty
	}
	if p.driven && p.level == gpio.High {
		return gpio.DutyMax
	}
	return 0
}

// OutputsEnabled reports whether both output enables are driven low.
func (b *Board) OutputsEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[DigitEnable].levelLocked() == gpio.Low && b.pins[SegmentEnable].levelLocked() == gpio.Low
}

// change is called with b.mu held after p changed level from prev.
func (b *Board) change(p *Pin, prev gpio.Level) {
	rising := p.levelLocked() && !prev
	data := uint32(0)
	if b.pins[Data].levelLocked() {
		data = 1
	}
	switch p.line {
	case DigitShift:
		if rising {
			b.digitReg = b.digitReg<<1 | data
		}
	case DigitStore:
		if rising {
			b.digitOut = b.digitReg
		}
	case SegmentShift:
		if rising {
			b.segReg = b.segReg<<1 | uint16(data)
		}
	case SegmentStore:
		if rising {
			b.segOut = b.segReg
		}
	}
	b.refresh()
}

func (b *Board) refresh() {
	var lit uint32
	if !b.pins[DigitEnable].levelLocked() {
		lit = b.digitOut & (1<<b.digits - 1)
	}
	n := bits.OnesCount32(lit)
	if n > b.maxLit {
		b.maxLit = n
	}

	f := Frame{Digit: -1, Word: segment.Off}
	if !b.pins[SegmentEnable].levelLocked() {
		f.Word = segment.Word(b.segOut)
	}
	if n == 1 {
		f.Digit = bits.TrailingZeros32(lit)
		f.DecimalPoint = b.pins[DecimalPoint].levelLocked() == gpio.Low
		b.shown[f.Digit] = f.Word
		if f.DecimalPoint {
			b.dpShown |= 1 << f.Digit
		} else {
			b.dpShown &^= 1 << f.Digit
		}
	}
	if f == b.frame {
		return
	}
	b.frame = f
	for _, fn := range b.observers {
		fn(f)
	}
}

func (b *Board) String() string {
	return fmt.Sprintf("boardsim{digits: %d}", b.digits)
}
