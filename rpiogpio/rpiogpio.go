// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rpiogpio exposes Raspberry Pi GPIOs as periph gpio.PinIO through
// direct register access with go-rpio, for hosts where periph's own drivers
// are not available.
//
// Open must be called before any pin is used.
package rpiogpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stianeikeland/go-rpio"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// NumPins is the number of BCM GPIOs.
const NumPins = 54

// pwmCycle is the number of PWM clock cycles per period.
const pwmCycle = 256

var (
	ErrInvalidPin = errors.New("rpiogpio: invalid pin number")
	ErrNoPWM      = errors.New("rpiogpio: pin has no hardware PWM")
)

// Open maps the GPIO registers.
func Open() error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("rpiogpio: %w", err)
	}
	return nil
}

// Close unmaps the GPIO registers.
func Close() error {
	return rpio.Close()
}

// line is the register access of one GPIO. rpio.Pin implements it.
type line interface {
	Input()
	Output()
	Pwm()
	High()
	Low()
	Read() rpio.State
	PullUp()
	PullDown()
	PullOff()
	Freq(freq int)
	DutyCycle(dutyLen, cycleLen uint32)
	Detect(edge rpio.Edge)
	EdgeDetected() bool
}

// Pin is a BCM GPIO.
type Pin struct {
	mu    sync.Mutex
	num   int
	line  line
	clock clockwork.Clock

	fn   string
	pull gpio.Pull
	edge gpio.Edge
	freq physic.Frequency
}

// ByNumber returns the BCM GPIO n.
func ByNumber(n int) (*Pin, error) {
	if n < 0 || n >= NumPins {
		return nil, ErrInvalidPin
	}
	return newPin(n, rpio.Pin(n), clockwork.NewRealClock()), nil
}

func newPin(n int, l line, c clockwork.Clock) *Pin {
	return &Pin{num: n, line: l, clock: c, pull: gpio.PullNoChange}
}

// hasPWM reports whether the pin can be routed to a PWM channel.
func hasPWM(n int) bool {
	switch n {
	case 12, 13, 18, 19, 40, 41, 45:
		return true
	}
	return false
}

func (p *Pin) String() string {
	return p.Name()
}

// Halt stops PWM and edge detection and leaves the pin as an input.
func (p *Pin) Halt() error {
	return p.In(gpio.PullNoChange, gpio.NoEdge)
}

// Name returns "GPIO" followed by the BCM number.
func (p *Pin) Name() string {
	return fmt.Sprintf("GPIO%d", p.num)
}

// Number returns the BCM number.
func (p *Pin) Number() int {
	return p.num
}

// Deprecated: returns "In", "Out" or "PWM".
func (p *Pin) Function() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fn == "" {
		return "In"
	}
	return p.fn
}

// In implements gpio.PinIn.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.line.Input()
	p.fn = "In"
	switch pull {
	case gpio.PullNoChange:
	case gpio.Float:
		p.line.PullOff()
	case gpio.PullDown:
		p.line.PullDown()
	case gpio.PullUp:
		p.line.PullUp()
	default:
		return fmt.Errorf("rpiogpio: %s: unknown pull %s", p.Name(), pull)
	}
	if pull != gpio.PullNoChange {
		p.pull = pull
	}
	switch edge {
	case gpio.NoEdge:
		p.line.Detect(rpio.NoEdge)
	case gpio.RisingEdge:
		p.line.Detect(rpio.RiseEdge)
	case gpio.FallingEdge:
		p.line.Detect(rpio.FallEdge)
	case gpio.BothEdges:
		p.line.Detect(rpio.AnyEdge)
	default:
		return fmt.Errorf("rpiogpio: %s: unknown edge %s", p.Name(), edge)
	}
	p.edge = edge
	return nil
}

// Read implements gpio.PinIn.
func (p *Pin) Read() gpio.Level {
	return p.line.Read() == rpio.High
}

// WaitForEdge polls the edge detection status every millisecond.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	p.mu.Lock()
	edge := p.edge
	p.mu.Unlock()
	if edge == gpio.NoEdge {
		return false
	}
	var deadline time.Time
	if timeout >= 0 {
		deadline = p.clock.Now().Add(timeout)
	}
	for {
		if p.line.EdgeDetected() {
			return true
		}
		if timeout >= 0 && !p.clock.Now().Before(deadline) {
			return false
		}
		p.clock.Sleep(time.Millisecond)
	}
}

// Pull returns the pull set by the last In call. The hardware cannot be
// read back.
func (p *Pin) Pull() gpio.Pull {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pull
}

// DefaultPull returns the pull after reset: up for GPIO0 to GPIO8, down
// for the others.
func (p *Pin) DefaultPull() gpio.Pull {
	if p.num <= 8 {
		return gpio.PullUp
	}
	return gpio.PullDown
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.edge != gpio.NoEdge {
		p.line.Detect(rpio.NoEdge)
		p.edge = gpio.NoEdge
	}
	p.line.Output()
	p.fn = "Out"
	if l {
		p.line.High()
	} else {
		p.line.Low()
	}
	return nil
}

// PWM implements gpio.PinOut. The PWM clock is set to f times 256 so the
// duty cycle has 8 bits of resolution. Pins sharing a PWM channel share
// the frequency.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	if !hasPWM(p.num) {
		return ErrNoPWM
	}
	if duty < 0 || duty > gpio.DutyMax {
		return fmt.Errorf("rpiogpio: %s: invalid duty %s", p.Name(), duty)
	}
	if f == 0 {
		f = 4 * physic.KiloHertz
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fn != "PWM" || p.freq != f {
		p.line.Pwm()
		p.line.Freq(int(f/physic.Hertz) * pwmCycle)
		p.freq = f
	}
	p.fn = "PWM"
	p.line.DutyCycle(dutyCycles(duty), pwmCycle)
	return nil
}

// dutyCycles converts duty into PWM clock cycles, rounded to nearest.
func dutyCycles(duty gpio.Duty) uint32 {
	return uint32((uint64(duty)*pwmCycle + uint64(gpio.DutyMax)/2) / uint64(gpio.DutyMax))
}

var _ gpio.PinIO = &Pin{}
