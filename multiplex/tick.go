// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package multiplex

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/physic"
)

// DefaultRate is the scan tick rate. At 13 digits every digit is refreshed
// about 385 times per second, which does not flicker.
const DefaultRate = 5 * physic.KiloHertz

// Ticker is a periodic tick with a pending flag, like a timer overflow flag.
type Ticker interface {
	// Pending reports whether a tick occurred since the last Ack.
	Pending() bool
	// Ack clears the pending tick.
	Ack()
}

// ClockTicker is a Ticker driven by a clock. It behaves like a free running
// hardware timer: ticks that were not acknowledged in time are dropped, not
// queued.
type ClockTicker struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	period time.Duration
	next   time.Time
}

// NewClockTicker returns a ClockTicker firing at rate. The first tick is
// one period after the call.
func NewClockTicker(clock clockwork.Clock, rate physic.Frequency) *ClockTicker {
	if rate <= 0 {
		rate = DefaultRate
	}
	p := rate.Period()
	if p <= 0 {
		p = time.Nanosecond
	}
	return &ClockTicker{clock: clock, period: p, next: clock.Now().Add(p)}
}

// Period returns the time between ticks.
func (c *ClockTicker) Period() time.Duration {
	return c.period
}

// Pending implements Ticker.
func (c *ClockTicker) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.clock.Now().Before(c.next)
}

// Ack implements Ticker. The next tick is the first period boundary after
// now.
func (c *ClockTicker) Ack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if now.Before(c.next) {
		return
	}
	missed := now.Sub(c.next) / c.period
	c.next = c.next.Add((missed + 1) * c.period)
}

var _ Ticker = &ClockTicker{}
