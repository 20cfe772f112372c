// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package timecircuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/bttf/displays/boardsim"
	"github.com/bttf/displays/indicator"
	"github.com/bttf/displays/segment"
	"github.com/bttf/displays/shiftreg"
)

func newBoard(t *testing.T, opts Opts) (*Dev, *boardsim.Board, clockwork.FakeClock) {
	t.Helper()
	b := boardsim.New(NumDigits)
	clock := clockwork.NewFakeClock()
	opts.Clock = clock
	d, err := New(SimPins(b), &opts)
	if err != nil {
		t.Fatal(err)
	}
	return d, b, clock
}

// scan runs n ticks.
func scan(t *testing.T, d *Dev, clock clockwork.FakeClock, n int) {
	t.Helper()
	period := time.Second / 5000
	for i := 0; i < n; i++ {
		clock.Advance(period)
		stepped, err := d.Poll()
		if err != nil {
			t.Fatal(err)
		}
		if !stepped {
			t.Fatalf("tick %d not seen", i)
		}
	}
}

func encode(s string) []segment.Word {
	var out []segment.Word
	for _, r := range s {
		out = append(out, segment.Encode(r))
	}
	return out
}

func TestNew_power_up(t *testing.T) {
	b := boardsim.New(NumDigits)
	var frames []boardsim.Frame
	b.Observe(func(f boardsim.Frame) { frames = append(frames, f) })
	opts := DefaultOpts
	opts.Clock = clockwork.NewFakeClock()
	d, err := New(SimPins(b), &opts)
	if err != nil {
		t.Fatal(err)
	}
	if !b.OutputsEnabled() {
		t.Fatal("outputs not enabled")
	}
	// The segment register powers up holding 0, which is every segment lit.
	// It must have been cleared before the outputs were enabled.
	for i, f := range frames {
		if f.Digit != -1 || f.Word != segment.Off {
			t.Fatalf("frame %d: %+v lit during power up", i, f)
		}
	}
	if b.Pin(boardsim.DecimalPoint).Read() != gpio.High {
		t.Fatal("decimal point driven during power up")
	}
	words, _ := d.Buffer().Snapshot()
	if diff := cmp.Diff(encode(DefaultText), words); diff != "" {
		t.Fatalf("buffer (-want +got):\n%s", diff)
	}
}

func TestNew_default_opts(t *testing.T) {
	b := boardsim.New(NumDigits)
	d, err := New(SimPins(b), nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Buffer().Len() != NumDigits {
		t.Fatalf("%d digits", d.Buffer().Len())
	}
	if d.Indicators().Brightness() != indicator.MaxLevel {
		t.Fatalf("brightness %d", d.Indicators().Brightness())
	}
}

func TestRun_shows_text(t *testing.T) {
	opts := DefaultOpts
	opts.DecimalPoints = 1<<1 | 1<<4
	d, b, clock := newBoard(t, opts)
	var frames []boardsim.Frame
	b.Observe(func(f boardsim.Frame) { frames = append(frames, f) })
	scan(t, d, clock, 2*NumDigits)
	for _, f := range frames {
		if f.Digit < 0 {
			continue
		}
		if want := opts.DecimalPoints&(1<<uint(f.Digit)) != 0; f.DecimalPoint != want {
			t.Fatalf("digit %d lit with decimal point %t", f.Digit, f.DecimalPoint)
		}
	}
	words, dp := b.Shown()
	if diff := cmp.Diff(encode(DefaultText), words); diff != "" {
		t.Fatalf("shown (-want +got):\n%s", diff)
	}
	if dp != opts.DecimalPoints {
		t.Fatalf("decimal points %#x, want %#x", dp, opts.DecimalPoints)
	}
	if n := b.MaxLit(); n != 1 {
		t.Fatalf("%d digits lit at once", n)
	}
}

func TestSetText(t *testing.T) {
	d, b, clock := newBoard(t, DefaultOpts)
	scan(t, d, clock, NumDigits)
	d.SetText("88")
	scan(t, d, clock, NumDigits)
	words, _ := b.Shown()
	want := encode("88")
	for len(want) < NumDigits {
		want = append(want, segment.Off)
	}
	if diff := cmp.Diff(want, words); diff != "" {
		t.Fatalf("shown (-want +got):\n%s", diff)
	}
}

func TestIndicators(t *testing.T) {
	opts := DefaultOpts
	opts.Brightness = 0
	opts.Period = indicator.PeriodPM
	opts.Separator = true
	_, b, _ := newBoard(t, opts)
	want := gpio.Duty(uint64(indicator.Table[0]) * uint64(gpio.DutyMax) / (uint64(indicator.TimerPeriod) + 1))
	if got := b.Indicator(boardsim.AM); got != 0 {
		t.Fatalf("AM duty %s", got)
	}
	if got := b.Indicator(boardsim.PM); got != want {
		t.Fatalf("PM duty %s, want %s", got, want)
	}
	if got := b.Indicator(boardsim.Separator); got != want {
		t.Fatalf("separator duty %s, want %s", got, want)
	}
}

func TestRun_cancel(t *testing.T) {
	d, _, _ := newBoard(t, DefaultOpts)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatal(err)
	}
}

func TestHalt(t *testing.T) {
	opts := DefaultOpts
	opts.Period = indicator.PeriodAM | indicator.PeriodPM
	opts.Separator = true
	d, b, clock := newBoard(t, opts)
	scan(t, d, clock, 3)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if b.OutputsEnabled() {
		t.Fatal("outputs still enabled")
	}
	if f := b.Frame(); f.Digit != -1 {
		t.Fatalf("digit %d still lit", f.Digit)
	}
	for _, l := range []boardsim.Line{boardsim.AM, boardsim.PM, boardsim.Separator} {
		if got := b.Indicator(l); got != 0 {
			t.Fatalf("%s duty %s after Halt", l, got)
		}
	}
}

func TestNew_errors(t *testing.T) {
	b := boardsim.New(NumDigits)
	pins := SimPins(b)
	pins.DecimalPoint = nil
	if _, err := New(pins, nil); !errors.Is(err, shiftreg.ErrMissingPin) {
		t.Fatalf("missing decimal point: %v", err)
	}
	pins = SimPins(b)
	if _, err := New(pins, &Opts{Digits: 17}); err == nil {
		t.Fatal("17 digits fit a 16 bit chain")
	}
}

func TestNew_pin_failure(t *testing.T) {
	b := boardsim.New(NumDigits)
	pins := SimPins(b)
	fail := errors.New("bus error")
	pins.DecimalPoint = &failPin{Pin: gpiotest.Pin{N: "DP"}, err: fail}
	_, err := New(pins, nil)
	if !errors.Is(err, fail) {
		t.Fatalf("got %v", err)
	}
	if want := "shiftreg: bus error"; err.Error() != want {
		t.Fatalf("got %q, want %q", err, want)
	}
}

type failPin struct {
	gpiotest.Pin
	err error
}

func (f *failPin) Out(l gpio.Level) error {
	return f.err
}
