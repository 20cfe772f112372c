// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shiftreg bit-bangs the two shift register chains of a multiplexed
// 16-segment display: a digit chain that selects which digit sinks current,
// and a segment chain that holds the pattern for that digit. Both chains
// share one serial data line and have their own shift clock, store (latch)
// clock and active-low output enable.
//
// # Protocol
//
// Digit chain: for every position from DigitBits-1 down to 0 the data line
// is set to 1 only for the selected digit, then the shift clock is pulsed
// high and returned low (idle-low). The store clock is pulsed the same way.
//
// Segment chain: the shift and store clocks are open-drain lines with
// external pull-ups. They are only driven while clocking; otherwise they are
// floated so they never sink current from the pull-ups. Each of the 16 bits
// is sent MSB-first as clock low, data, clock high. The store clock is
// pulsed low-then-high.
//
// Show updates one digit in an order that never lets the new segment
// pattern or decimal point appear on the previous digit: shift both chains,
// disable the digit sink, latch both chains, set the decimal point line,
// then enable the digit sink again.
//
// The 74HC595 tutorial covers the register itself:
//
// https://docs.arduino.cc/tutorials/communication/guide-to-shift-out/
package shiftreg

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/bttf/displays/segment"
)

const (
	devName = "shiftreg"

	// SegmentBits is the depth of the segment chain.
	SegmentBits = 16
	// DefaultDigitBits is the depth of the digit chain, two 8 bit registers.
	DefaultDigitBits = 16
)

var (
	ErrInvalidDigit = errors.New("shiftreg: digit out of range")
	ErrMissingPin   = errors.New("shiftreg: missing pin")
)

// Opts describes the pins and geometry of the two chains.
type Opts struct {
	// Data is the serial data line shared by both chains.
	Data gpio.PinOut

	DigitShift  gpio.PinOut
	DigitStore  gpio.PinOut
	DigitEnable gpio.PinOut

	// SegmentShift and SegmentStore are open-drain and must be able to
	// float, so they need input support too.
	SegmentShift  gpio.PinIO
	SegmentStore  gpio.PinIO
	SegmentEnable gpio.PinOut

	// DecimalPoint is the active-low decimal point line shared by all
	// digits. Optional.
	DecimalPoint gpio.PinOut

	// Digits is the number of connected digit positions.
	Digits int
	// DigitBits is the number of bits clocked into the digit chain for each
	// selection. Positions at and above Digits are always sent as 0.
	// Defaults to DefaultDigitBits.
	DigitBits int
}

// Dev drives the display's shift register chains.
type Dev struct {
	mu        sync.Mutex
	opts      Opts
	digitBits int
	enabled   bool
}

// New sets every line to its idle level with both output enables
// tri-stated and returns the driver.
func New(opts *Opts) (*Dev, error) {
	for _, p := range []gpio.PinOut{opts.Data, opts.DigitShift, opts.DigitStore, opts.DigitEnable, opts.SegmentEnable} {
		if p == nil {
			return nil, ErrMissingPin
		}
	}
	if opts.SegmentShift == nil || opts.SegmentStore == nil {
		return nil, ErrMissingPin
	}
	d := &Dev{opts: *opts, digitBits: opts.DigitBits}
	if d.digitBits == 0 {
		d.digitBits = DefaultDigitBits
	}
	if opts.Digits <= 0 || opts.Digits > d.digitBits {
		return nil, fmt.Errorf("shiftreg: %d digits do not fit a %d bit chain", opts.Digits, d.digitBits)
	}

	var s seq
	s.out(d.opts.DigitEnable, gpio.High)
	s.out(d.opts.SegmentEnable, gpio.High)
	s.out(d.opts.Data, gpio.Low)
	s.out(d.opts.DigitShift, gpio.Low)
	s.out(d.opts.DigitStore, gpio.Low)
	s.out(d.opts.SegmentShift, gpio.High)
	s.float(d.opts.SegmentShift)
	s.out(d.opts.SegmentStore, gpio.High)
	s.float(d.opts.SegmentStore)
	d.decimalPoint(&s, false)
	if s.err != nil {
		return nil, wrap(s.err)
	}
	return d, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("shiftreg: %w", err)
}

// seq runs a sequence of pin operations and keeps the first failure.
// Later operations are skipped once one failed.
type seq struct {
	err error
}

func (s *seq) out(p gpio.PinOut, l gpio.Level) {
	if s.err == nil {
		s.err = p.Out(l)
	}
}

func (s *seq) float(p gpio.PinIO) {
	if s.err == nil {
		s.err = p.In(gpio.Float, gpio.NoEdge)
	}
}

// Digits returns the number of connected digit positions.
func (d *Dev) Digits() int {
	return d.opts.Digits
}

// SelectDigit shifts a one-hot pattern for digit into the digit chain. The
// chain outputs do not change until StoreDigit.
func (d *Dev) SelectDigit(digit int) error {
	if digit < 0 || digit >= d.opts.Digits {
		return ErrInvalidDigit
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	d.selectDigit(&s, digit)
	return wrap(s.err)
}

// SendSegments shifts w into the segment chain, MSB first.
func (d *Dev) SendSegments(w segment.Word) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	d.sendSegments(&s, w)
	return wrap(s.err)
}

// StoreDigit latches the digit chain onto its outputs.
func (d *Dev) StoreDigit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	d.storeDigit(&s)
	return wrap(s.err)
}

// StoreSegments latches the segment chain onto its outputs.
func (d *Dev) StoreSegments() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	d.storeSegments(&s)
	return wrap(s.err)
}

// Clear loads the all-off pattern into the segment chain outputs.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	d.sendSegments(&s, segment.Off)
	d.storeSegments(&s)
	return wrap(s.err)
}

// EnableOutputs drives the outputs of both chains. Until it is called Show
// leaves the digit sink disabled.
func (d *Dev) EnableOutputs() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	s.out(d.opts.SegmentEnable, gpio.Low)
	s.out(d.opts.DigitEnable, gpio.Low)
	if s.err == nil {
		d.enabled = true
	}
	return wrap(s.err)
}

// DisableOutputs tri-states the outputs of both chains.
func (d *Dev) DisableOutputs() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = false
	var s seq
	s.out(d.opts.SegmentEnable, gpio.High)
	s.out(d.opts.DigitEnable, gpio.High)
	return wrap(s.err)
}

// Enabled reports whether EnableOutputs was called since the last
// DisableOutputs.
func (d *Dev) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Show makes digit display w, with its decimal point lit if dp is true. See
// the package documentation for the order of operations.
func (d *Dev) Show(digit int, w segment.Word, dp bool) error {
	if digit < 0 || digit >= d.opts.Digits {
		return ErrInvalidDigit
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	d.selectDigit(&s, digit)
	d.sendSegments(&s, w)
	s.out(d.opts.DigitEnable, gpio.High)
	d.storeDigit(&s)
	d.storeSegments(&s)
	d.decimalPoint(&s, dp)
	if d.enabled {
		s.out(d.opts.DigitEnable, gpio.Low)
	}
	return wrap(s.err)
}

func (d *Dev) selectDigit(s *seq, digit int) {
	for i := d.digitBits - 1; i >= 0; i-- {
		s.out(d.opts.Data, gpio.Level(i == digit))
		s.out(d.opts.DigitShift, gpio.High)
		s.out(d.opts.DigitShift, gpio.Low)
	}
}

func (d *Dev) storeDigit(s *seq) {
	s.out(d.opts.DigitStore, gpio.High)
	s.out(d.opts.DigitStore, gpio.Low)
}

func (d *Dev) sendSegments(s *seq, w segment.Word) {
	shift := d.opts.SegmentShift
	s.out(shift, gpio.High)
	for range SegmentBits {
		s.out(shift, gpio.Low)
		s.out(d.opts.Data, gpio.Level(w&0x8000 != 0))
		s.out(shift, gpio.High)
		w <<= 1
	}
	s.float(shift)
}

func (d *Dev) decimalPoint(s *seq, on bool) {
	if d.opts.DecimalPoint != nil {
		s.out(d.opts.DecimalPoint, gpio.Level(!on))
	}
}

func (d *Dev) storeSegments(s *seq) {
	store := d.opts.SegmentStore
	s.out(store, gpio.High)
	s.out(store, gpio.Low)
	s.out(store, gpio.High)
	s.float(store)
}

// Halt tri-states both chains and turns the decimal point off. Implements
// conn.Resource.
func (d *Dev) Halt() error {
	err := d.DisableOutputs()
	d.mu.Lock()
	defer d.mu.Unlock()
	var s seq
	d.decimalPoint(&s, false)
	if err == nil {
		err = wrap(s.err)
	}
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{digits: %d, digitBits: %d}", devName, d.opts.Digits, d.digitBits)
}
