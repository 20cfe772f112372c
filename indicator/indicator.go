// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package indicator controls the AM, PM and time separator LEDs of the time
// circuit display. The three LEDs share one PWM timer: the same period and
// the same compare value, so they always have the same brightness. Each LED
// has its own compare channel and enable.
//
// Brightness is set in 8 levels through a CIE1931 lightness table so that
// each level looks one even step brighter than the previous one.
package indicator

import (
	"fmt"
	"sync"
)

// Channel is one output compare channel of the indicator timer.
type Channel int

const (
	AM Channel = iota
	PM
	Separator

	NumChannels
)

func (c Channel) String() string {
	switch c {
	case AM:
		return "AM"
	case PM:
		return "PM"
	case Separator:
		return "Separator"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// PeriodFlags selects the AM and PM LEDs. The flags are independent: both
// LEDs may be lit at once.
type PeriodFlags uint8

const (
	PeriodNone PeriodFlags = 0
	PeriodAM   PeriodFlags = 0x1
	PeriodPM   PeriodFlags = 0x2
)

func (f PeriodFlags) String() string {
	switch f & (PeriodAM | PeriodPM) {
	case PeriodAM:
		return "AM"
	case PeriodPM:
		return "PM"
	case PeriodAM | PeriodPM:
		return "AM|PM"
	}
	return "None"
}

const (
	// MaxLevel is the brightest level.
	MaxLevel = 7
	// TimerPeriod is the auto-reload value of the indicator timer. The
	// duty cycle of a channel is compare/(TimerPeriod+1).
	TimerPeriod uint16 = 255
)

// Table holds the compare value of each brightness level. Level i+1 has a
// CIE1931 lightness L* of 100*(i+1)/8, scaled to TimerPeriod.
var Table = [MaxLevel + 1]uint16{4, 11, 25, 47, 79, 123, 181, 255}

// Timer is the PWM timer driving the indicators.
type Timer interface {
	// SetPeriod programs the counter period shared by all channels.
	SetPeriod(period uint16) error
	// SetCompare programs the compare value of one channel.
	SetCompare(ch Channel, value uint16) error
	// Enable turns the output of one channel on or off.
	Enable(ch Channel, on bool) error
}

// Controller sets brightness and selects which indicators are lit.
type Controller struct {
	mu        sync.Mutex
	timer     Timer
	level     int
	flags     PeriodFlags
	separator bool
}

// New programs t at full brightness with every indicator off.
func New(t Timer) (*Controller, error) {
	c := &Controller{timer: t}
	if err := c.SetBrightness(MaxLevel); err != nil {
		return nil, err
	}
	if err := c.Halt(); err != nil {
		return nil, err
	}
	return c, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("indicator: %w", err)
}

// Clamp limits level to [0, MaxLevel].
func Clamp(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// SetBrightness sets the intensity of all three indicators. level is
// clamped to [0, MaxLevel]. Which indicators are lit is unchanged.
func (c *Controller) SetBrightness(level int) error {
	level = Clamp(level)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.timer.SetPeriod(TimerPeriod); err != nil {
		return wrap(err)
	}
	for ch := range NumChannels {
		if err := c.timer.SetCompare(ch, Table[level]); err != nil {
			return wrap(err)
		}
	}
	c.level = level
	return nil
}

// Brightness returns the current level.
func (c *Controller) Brightness() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// SetPeriodFlags lights the AM and PM indicators according to f.
func (c *Controller) SetPeriodFlags(f PeriodFlags) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.timer.Enable(AM, f&PeriodAM != 0); err != nil {
		return wrap(err)
	}
	if err := c.timer.Enable(PM, f&PeriodPM != 0); err != nil {
		return wrap(err)
	}
	c.flags = f & (PeriodAM | PeriodPM)
	return nil
}

// PeriodFlags returns the lit AM/PM indicators.
func (c *Controller) PeriodFlags() PeriodFlags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}

// SetSeparatorEnabled lights or darkens the time separator.
func (c *Controller) SetSeparatorEnabled(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.timer.Enable(Separator, on); err != nil {
		return wrap(err)
	}
	c.separator = on
	return nil
}

// SeparatorEnabled reports whether the time separator is lit.
func (c *Controller) SeparatorEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.separator
}

// Halt turns every indicator off. Implements conn.Resource.
func (c *Controller) Halt() error {
	if err := c.SetPeriodFlags(PeriodNone); err != nil {
		return err
	}
	return c.SetSeparatorEnabled(false)
}

func (c *Controller) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("indicator{level: %d, period: %s, separator: %t}", c.level, c.flags, c.separator)
}
