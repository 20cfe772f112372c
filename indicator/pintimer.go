// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package indicator

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// DefaultTimerClock is the counter clock of a PinTimer. With TimerPeriod it
// gives a PWM frequency of about 3.9kHz.
const DefaultTimerClock = physic.MegaHertz

var errChannel = errors.New("indicator: invalid channel")

// PinTimer implements Timer over PWM capable gpio pins. The indicator LEDs
// are active high.
type PinTimer struct {
	mu      sync.Mutex
	pins    [NumChannels]gpio.PinOut
	clock   physic.Frequency
	period  uint16
	compare [NumChannels]uint16
	enabled [NumChannels]bool
}

// NewPinTimer returns a Timer driving the am, pm and separator pins. A nil
// pin is skipped. clock is the counter clock, DefaultTimerClock if 0.
func NewPinTimer(am, pm, separator gpio.PinOut, clock physic.Frequency) *PinTimer {
	if clock <= 0 {
		clock = DefaultTimerClock
	}
	return &PinTimer{pins: [NumChannels]gpio.PinOut{am, pm, separator}, clock: clock, period: TimerPeriod}
}

// Frequency returns the PWM frequency for the current period.
func (p *PinTimer) Frequency() physic.Frequency {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frequency()
}

func (p *PinTimer) frequency() physic.Frequency {
	return p.clock / physic.Frequency(uint32(p.period)+1)
}

// Duty returns the duty cycle for compare value v at the current period.
func (p *PinTimer) Duty(v uint16) gpio.Duty {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty(v)
}

func (p *PinTimer) duty(v uint16) gpio.Duty {
	if uint32(v) > uint32(p.period) {
		return gpio.DutyMax
	}
	return gpio.Duty(uint64(v) * uint64(gpio.DutyMax) / (uint64(p.period) + 1))
}

// SetPeriod implements Timer.
func (p *PinTimer) SetPeriod(period uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if period == p.period {
		return nil
	}
	p.period = period
	for ch := range NumChannels {
		if err := p.apply(ch); err != nil {
			return err
		}
	}
	return nil
}

// SetCompare implements Timer.
func (p *PinTimer) SetCompare(ch Channel, value uint16) error {
	if ch < 0 || ch >= NumChannels {
		return errChannel
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.compare[ch] = value
	return p.apply(ch)
}

// Enable implements Timer.
func (p *PinTimer) Enable(ch Channel, on bool) error {
	if ch < 0 || ch >= NumChannels {
		return errChannel
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled[ch] = on
	return p.apply(ch)
}

func (p *PinTimer) apply(ch Channel) error {
	pin := p.pins[ch]
	if pin == nil {
		return nil
	}
	d := p.duty(p.compare[ch])
	switch {
	case !p.enabled[ch] || d == 0:
		return pin.Out(gpio.Low)
	case d == gpio.DutyMax:
		return pin.Out(gpio.High)
	}
	return pin.PWM(d, p.frequency())
}

var _ Timer = &PinTimer{}
