// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package multiplex refreshes a multiplexed display one digit per tick.
//
// Buffer holds the content, Ticker paces the refresh and Scanner moves the
// content of one digit to the shift registers on every tick, so that a full
// cycle over N ticks shows every digit exactly once, in order.
package multiplex

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/bttf/displays/segment"
)

// Driver shows one digit at a time, with its decimal point. *shiftreg.Dev
// implements it.
type Driver interface {
	Show(digit int, w segment.Word, dp bool) error
}

// Opts configures a Scanner.
type Opts struct {
	Driver Driver
	Buffer *Buffer
	// Ticker paces Poll and Run.
	Ticker Ticker
}

// Scanner is the multiplexing state machine. Its state is the index of the
// next digit to show.
type Scanner struct {
	mu     sync.Mutex
	drv    Driver
	buf    *Buffer
	ticker Ticker
	digit  int
}

// NewScanner returns a Scanner starting at digit 0.
func NewScanner(opts *Opts) (*Scanner, error) {
	if opts.Driver == nil || opts.Buffer == nil {
		return nil, errors.New("multiplex: driver and buffer are required")
	}
	return &Scanner{drv: opts.Driver, buf: opts.Buffer, ticker: opts.Ticker}, nil
}

// Digit returns the index the next Step shows.
func (s *Scanner) Digit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digit
}

// Step shows the current digit and advances to the next one. The index
// advances even when the update fails.
func (s *Scanner) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.digit
	s.digit = (d + 1) % s.buf.Len()

	w, dp, err := s.buf.Digit(d)
	if err != nil {
		return err
	}
	return s.drv.Show(d, w, dp)
}

// Poll steps once if a tick is pending. It reports whether it stepped.
func (s *Scanner) Poll() (bool, error) {
	if s.ticker == nil || !s.ticker.Pending() {
		return false, nil
	}
	s.ticker.Ack()
	return true, s.Step()
}

// Run polls the ticker until ctx is done or an update fails. It never
// sleeps; between polls it only yields the processor.
func (s *Scanner) Run(ctx context.Context) error {
	if s.ticker == nil {
		return errors.New("multiplex: no ticker")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		stepped, err := s.Poll()
		if err != nil {
			return err
		}
		if !stepped {
			runtime.Gosched()
		}
	}
}
