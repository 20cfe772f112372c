// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package timecircuit drives a time circuit display board: 13 multiplexed
// 16-segment digits behind two shift register chains, a shared decimal
// point line and PWM driven AM, PM and time separator LEDs.
//
// New brings the board up without ever driving unpredictable output: the
// register outputs stay tri-stated until the segment registers were cleared
// and the content loaded. Run then refreshes one digit per tick.
package timecircuit

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/bttf/displays/indicator"
	"github.com/bttf/displays/multiplex"
	"github.com/bttf/displays/shiftreg"
)

const (
	// NumDigits is the number of digits on the board.
	NumDigits = 13
	// DefaultText is shown when nothing else is configured.
	DefaultText = "OCT2619850122"
)

// Pins are the board's control lines.
type Pins struct {
	// Data is shared by both shift register chains.
	Data gpio.PinOut

	DigitShift  gpio.PinOut
	DigitStore  gpio.PinOut
	DigitEnable gpio.PinOut

	SegmentShift  gpio.PinIO
	SegmentStore  gpio.PinIO
	SegmentEnable gpio.PinOut

	// DecimalPoint is active low.
	DecimalPoint gpio.PinOut

	// AM, PM and Separator need PWM support for brightness control. Any of
	// them may be nil.
	AM        gpio.PinOut
	PM        gpio.PinOut
	Separator gpio.PinOut
}

// Opts is the board configuration.
type Opts struct {
	Digits    int
	DigitBits int

	// Text is loaded into the display buffer, see multiplex.Buffer.SetText.
	Text          string
	DecimalPoints uint32

	Brightness int
	Period     indicator.PeriodFlags
	Separator  bool

	// TickRate is the scan rate, one digit per tick.
	TickRate physic.Frequency
	// TimerClock is the indicator PWM counter clock.
	TimerClock physic.Frequency
	// Clock paces the scan. Defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultOpts is the reference configuration of the board.
var DefaultOpts = Opts{
	Digits:     NumDigits,
	DigitBits:  shiftreg.DefaultDigitBits,
	Text:       DefaultText,
	Brightness: indicator.MaxLevel,
	TickRate:   multiplex.DefaultRate,
	TimerClock: indicator.DefaultTimerClock,
}

// Dev is a running display board.
type Dev struct {
	regs    *shiftreg.Dev
	buf     *multiplex.Buffer
	scanner *multiplex.Scanner
	ind     *indicator.Controller
}

// New configures the board and enables its outputs. The first tick shows
// digit 0.
func New(pins *Pins, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Digits == 0 {
		o.Digits = NumDigits
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if pins.DecimalPoint == nil {
		return nil, shiftreg.ErrMissingPin
	}

	regs, err := shiftreg.New(&shiftreg.Opts{
		Data:          pins.Data,
		DigitShift:    pins.DigitShift,
		DigitStore:    pins.DigitStore,
		DigitEnable:   pins.DigitEnable,
		SegmentShift:  pins.SegmentShift,
		SegmentStore:  pins.SegmentStore,
		SegmentEnable: pins.SegmentEnable,
		DecimalPoint:  pins.DecimalPoint,
		Digits:        o.Digits,
		DigitBits:     o.DigitBits,
	})
	if err != nil {
		return nil, err
	}
	d := &Dev{regs: regs}
	if err := regs.Clear(); err != nil {
		return nil, err
	}

	if d.buf, err = multiplex.NewBuffer(o.Digits); err != nil {
		return nil, err
	}
	d.buf.SetText(o.Text)
	d.buf.SetDecimalPoints(o.DecimalPoints)

	timer := indicator.NewPinTimer(pins.AM, pins.PM, pins.Separator, o.TimerClock)
	if d.ind, err = indicator.New(timer); err != nil {
		return nil, err
	}
	if err := d.ind.SetBrightness(o.Brightness); err != nil {
		return nil, err
	}
	if err := d.ind.SetPeriodFlags(o.Period); err != nil {
		return nil, err
	}
	if err := d.ind.SetSeparatorEnabled(o.Separator); err != nil {
		return nil, err
	}

	d.scanner, err = multiplex.NewScanner(&multiplex.Opts{
		Driver: regs,
		Buffer: d.buf,
		Ticker: multiplex.NewClockTicker(o.Clock, o.TickRate),
	})
	if err != nil {
		return nil, err
	}
	if err := regs.EnableOutputs(); err != nil {
		return nil, err
	}
	return d, nil
}

// Buffer returns the display content. It may be updated while Run is going.
func (d *Dev) Buffer() *multiplex.Buffer {
	return d.buf
}

// Indicators returns the AM, PM and separator controller.
func (d *Dev) Indicators() *indicator.Controller {
	return d.ind
}

// SetText replaces the displayed text.
func (d *Dev) SetText(s string) {
	d.buf.SetText(s)
}

// Poll refreshes one digit if a tick is pending.
func (d *Dev) Poll() (bool, error) {
	return d.scanner.Poll()
}

// Run refreshes the display until ctx is done or the hardware fails.
func (d *Dev) Run(ctx context.Context) error {
	return d.scanner.Run(ctx)
}

// Halt turns the whole board dark: register outputs tri-stated, decimal
// point and indicators off. Implements conn.Resource.
func (d *Dev) Halt() error {
	err := d.regs.Halt()
	if err2 := d.ind.Halt(); err == nil {
		err = err2
	}
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("timecircuit{%s, %s}", d.regs, d.ind)
}
