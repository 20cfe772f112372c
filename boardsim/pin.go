// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package boardsim

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ErrNoEdge is returned when edge detection is requested on a board line.
var ErrNoEdge = errors.New("boardsim: edge detection not supported")

// Pin is one control line of the board.
type Pin struct {
	board  *Board
	line   Line
	pullUp bool

	driven bool
	level  gpio.Level
	pull   gpio.Pull
	pwm    bool
	duty   gpio.Duty
	freq   physic.Frequency
}

// levelLocked returns the level seen by the board. b.mu must be held.
func (p *Pin) levelLocked() gpio.Level {
	if p.driven {
		return p.level
	}
	if p.pullUp || p.pull == gpio.PullUp {
		return gpio.High
	}
	return gpio.Low
}

// set applies fn to the pin and notifies the board if the level changed.
func (p *Pin) set(fn func()) {
	b := p.board
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := p.levelLocked()
	fn()
	if p.levelLocked() != prev {
		b.change(p, prev)
	}
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the board line.
func (p *Pin) Name() string {
	return p.line.String()
}

// Number returns the line index.
func (p *Pin) Number() int {
	return int(p.line)
}

// Deprecated: returns "In" or "Out"
func (p *Pin) Function() string {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	if p.driven {
		return "Out"
	}
	return "In"
}

// In releases the line. Released lines read high if they have a pull-up.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return ErrNoEdge
	}
	p.set(func() {
		p.driven = false
		p.pwm = false
		if pull != gpio.PullNoChange {
			p.pull = pull
		}
	})
	return nil
}

// Read returns the level seen on the line.
func (p *Pin) Read() gpio.Level {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	return p.levelLocked()
}

// WaitForEdge is not supported.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// Pull returns the pull set by In.
func (p *Pin) Pull() gpio.Pull {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	return p.pull
}

// DefaultPull returns gpio.PullUp for lines with an external pull-up.
func (p *Pin) DefaultPull() gpio.Pull {
	if p.pullUp {
		return gpio.PullUp
	}
	return gpio.Float
}

// Out drives the line.
func (p *Pin) Out(l gpio.Level) error {
	p.set(func() {
		p.driven = true
		p.pwm = false
		p.level = l
	})
	return nil
}

// PWM records the duty cycle on the line. The line reads high while the duty
// is non-zero.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	p.set(func() {
		p.driven = true
		p.pwm = true
		p.duty = duty
		p.freq = f
		p.level = duty > 0
	})
	return nil
}

// Frequency returns the PWM frequency last set.
func (p *Pin) Frequency() physic.Frequency {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	return p.freq
}

func (p *Pin) String() string {
	return p.Name()
}

var _ gpio.PinIO = &Pin{}
