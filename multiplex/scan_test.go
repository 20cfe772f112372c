// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package multiplex_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/bttf/displays/boardsim"
	"github.com/bttf/displays/multiplex"
	"github.com/bttf/displays/segment"
	"github.com/bttf/displays/shiftreg"
)

type rig struct {
	board   *boardsim.Board
	dev     *shiftreg.Dev
	buf     *multiplex.Buffer
	scanner *multiplex.Scanner
	clock   clockwork.FakeClock
	frames  []boardsim.Frame
}

func newRig(t *testing.T, text string) *rig {
	t.Helper()
	const digits = 13
	r := &rig{board: boardsim.New(digits), clock: clockwork.NewFakeClock()}
	r.board.Observe(func(f boardsim.Frame) { r.frames = append(r.frames, f) })
	var err error
	r.dev, err = shiftreg.New(&shiftreg.Opts{
		Data:          r.board.Pin(boardsim.Data),
		DigitShift:    r.board.Pin(boardsim.DigitShift),
		DigitStore:    r.board.Pin(boardsim.DigitStore),
		DigitEnable:   r.board.Pin(boardsim.DigitEnable),
		SegmentShift:  r.board.Pin(boardsim.SegmentShift),
		SegmentStore:  r.board.Pin(boardsim.SegmentStore),
		SegmentEnable: r.board.Pin(boardsim.SegmentEnable),
		DecimalPoint:  r.board.Pin(boardsim.DecimalPoint),
		Digits:        digits,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.buf, err = multiplex.NewBuffer(digits); err != nil {
		t.Fatal(err)
	}
	r.buf.SetText(text)
	if err := r.dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := r.dev.EnableOutputs(); err != nil {
		t.Fatal(err)
	}
	r.scanner, err = multiplex.NewScanner(&multiplex.Opts{
		Driver: r.dev,
		Buffer: r.buf,
		Ticker: multiplex.NewClockTicker(r.clock, multiplex.DefaultRate),
	})
	if err != nil {
		t.Fatal(err)
	}
	r.frames = nil
	return r
}

// selections returns the digits in the order they were lit.
func (r *rig) selections() []int {
	var out []int
	last := -1
	for _, f := range r.frames {
		if f.Digit >= 0 && f.Digit != last {
			out = append(out, f.Digit)
		}
		last = f.Digit
	}
	return out
}

func (r *rig) tick(t *testing.T) {
	t.Helper()
	r.clock.Advance(200 * time.Microsecond)
	stepped, err := r.scanner.Poll()
	if err != nil {
		t.Fatal(err)
	}
	if !stepped {
		t.Fatal("tick not handled")
	}
}

func TestScanCoverage(t *testing.T) {
	r := newRig(t, "OCT2619850122")
	const cycles = 3
	for range cycles * 13 {
		r.tick(t)
	}
	var want []int
	for range cycles {
		for d := range 13 {
			want = append(want, d)
		}
	}
	if diff := cmp.Diff(r.selections(), want); diff != "" {
		t.Errorf("scan order difference (-got +want):\n%s", diff)
	}
	if r.scanner.Digit() != 0 {
		t.Errorf("Digit() = %d after full cycles", r.scanner.Digit())
	}
}

func TestScanAtMostOneDigitNoGhosts(t *testing.T) {
	r := newRig(t, "OCT2619850122")
	r.buf.SetDecimalPoints(1<<2 | 1<<7)
	for range 26 {
		r.tick(t)
	}
	if n := r.board.MaxLit(); n != 1 {
		t.Fatalf("MaxLit() = %d, want 1", n)
	}
	for _, f := range r.frames {
		if f.Digit < 0 {
			continue
		}
		want, dp, _ := r.buf.Digit(f.Digit)
		if f.Word != want {
			t.Fatalf("digit %d lit with 0x%04x, want 0x%04x", f.Digit, uint16(f.Word), uint16(want))
		}
		if f.DecimalPoint != dp {
			t.Fatalf("digit %d lit with decimal point %t, want %t", f.Digit, f.DecimalPoint, dp)
		}
	}
	// Between ticks exactly one digit is lit.
	if f := r.board.Frame(); f.Digit < 0 {
		t.Errorf("no digit lit between ticks")
	}

	want, _ := r.buf.Snapshot()
	shown, dp := r.board.Shown()
	if diff := cmp.Diff(shown, want); diff != "" {
		t.Errorf("shown difference (-got +want):\n%s", diff)
	}
	if dp != 1<<2|1<<7 {
		t.Errorf("decimal points shown 0x%x", dp)
	}
}

func TestScanPicksUpBufferChanges(t *testing.T) {
	r := newRig(t, "AB")
	for range 13 {
		r.tick(t)
	}
	shown, _ := r.board.Shown()
	if shown[0] != segment.Encode('A') || shown[1] != segment.Encode('B') || shown[2] != segment.Off {
		t.Fatalf("shown %04x", shown[:3])
	}
	if err := r.buf.SetDigit(1, segment.Encode('Z')); err != nil {
		t.Fatal(err)
	}
	for range 13 {
		r.tick(t)
	}
	shown, _ = r.board.Shown()
	if shown[1] != segment.Encode('Z') {
		t.Errorf("digit 1 shows 0x%04x", uint16(shown[1]))
	}
}

func TestPollWithoutTick(t *testing.T) {
	r := newRig(t, "AB")
	stepped, err := r.scanner.Poll()
	if err != nil || stepped {
		t.Fatalf("Poll() = %v, %v before the first tick", stepped, err)
	}
	r.clock.Advance(200 * time.Microsecond)
	if stepped, _ := r.scanner.Poll(); !stepped {
		t.Fatal("tick missed")
	}
	if stepped, _ := r.scanner.Poll(); stepped {
		t.Fatal("tick handled twice")
	}
	if r.scanner.Digit() != 1 {
		t.Errorf("Digit() = %d", r.scanner.Digit())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRig(t, "AB")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.scanner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v", err)
	}
}

type failingDriver struct{ err error }

func (f failingDriver) Show(int, segment.Word, bool) error { return f.err }

func TestRunStopsOnError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	buf, _ := multiplex.NewBuffer(4)
	boom := errors.New("boom")
	s, err := multiplex.NewScanner(&multiplex.Opts{
		Driver: failingDriver{boom},
		Buffer: buf,
		Ticker: multiplex.NewClockTicker(clock, multiplex.DefaultRate),
	})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Millisecond)
	if err := s.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() = %v", err)
	}
	if s.Digit() != 1 {
		t.Errorf("Digit() = %d, want 1", s.Digit())
	}
	if _, err := multiplex.NewScanner(&multiplex.Opts{Buffer: buf}); err == nil {
		t.Error("NewScanner without driver succeeded")
	}
}
