// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the time circuit settings from a JSON file. Missing
// keys keep their default value.
//
// Example:
//
//	{
//	  "text": "NOV0519551500",
//	  "brightness": 5,
//	  "pm": true,
//	  "separator": true,
//	  "tickRate": "5kHz",
//	  "backend": "periph",
//	  "pins": {"data": "GPIO17", "decimalPoint": "GPIO6"}
//	}
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/buger/jsonparser"
	"periph.io/x/conn/v3/physic"

	"github.com/bttf/displays/indicator"
	"github.com/bttf/displays/multiplex"
	"github.com/bttf/displays/shiftreg"
	"github.com/bttf/displays/timecircuit"
)

// Backends.
const (
	Periph = "periph"
	Rpio   = "rpio"
	Sim    = "sim"
)

// Pins names the GPIO of each board line, as known to the backend.
type Pins struct {
	Data          string
	DigitShift    string
	DigitStore    string
	DigitEnable   string
	SegmentShift  string
	SegmentStore  string
	SegmentEnable string
	DecimalPoint  string
	AM            string
	PM            string
	Separator     string
}

// Settings is the content of a settings file.
type Settings struct {
	Text          string
	Digits        int
	DigitBits     int
	Brightness    int
	AM            bool
	PM            bool
	Separator     bool
	DecimalPoints uint32
	TickRate      physic.Frequency
	Backend       string
	Pins          Pins
	// LogFile is rotated when set, logs go to stderr otherwise.
	LogFile string
	// Snapshot is a PNG file written with the display content on start.
	Snapshot string
	// Refresh is how often the simulator is redrawn.
	Refresh physic.Frequency

	// Unknown lists the keys Parse skipped, for the caller to report once
	// logging is set up.
	Unknown []string
}

// Default returns the reference board settings.
func Default() *Settings {
	return &Settings{
		Text:       timecircuit.DefaultText,
		Digits:     timecircuit.NumDigits,
		DigitBits:  shiftreg.DefaultDigitBits,
		Brightness: indicator.MaxLevel,
		TickRate:   multiplex.DefaultRate,
		Backend:    Periph,
		Pins: Pins{
			Data:          "GPIO17",
			DigitShift:    "GPIO27",
			DigitStore:    "GPIO22",
			DigitEnable:   "GPIO23",
			SegmentShift:  "GPIO24",
			SegmentStore:  "GPIO25",
			SegmentEnable: "GPIO5",
			DecimalPoint:  "GPIO6",
			AM:            "GPIO12",
			PM:            "GPIO13",
			Separator:     "GPIO18",
		},
		Refresh: 10 * physic.Hertz,
	}
}

// Load reads the settings file at path. An empty path returns the
// defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a settings document over the defaults.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	err := jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		k := string(key)
		var err error
		switch k {
		case "text":
			s.Text, err = getString(value, vt)
		case "digits":
			s.Digits, err = getInt(value, vt)
		case "digitBits":
			s.DigitBits, err = getInt(value, vt)
		case "brightness":
			s.Brightness, err = getInt(value, vt)
		case "am":
			s.AM, err = getBool(value, vt)
		case "pm":
			s.PM, err = getBool(value, vt)
		case "separator":
			s.Separator, err = getBool(value, vt)
		case "decimalPoints":
			s.DecimalPoints, err = getMask(value, vt)
		case "tickRate":
			s.TickRate, err = getFrequency(value, vt)
		case "refresh":
			s.Refresh, err = getFrequency(value, vt)
		case "backend":
			s.Backend, err = getString(value, vt)
		case "logFile":
			s.LogFile, err = getString(value, vt)
		case "snapshot":
			s.Snapshot, err = getString(value, vt)
		case "pins":
			err = s.Pins.parse(value, vt)
		default:
			s.Unknown = append(s.Unknown, k)
		}
		if err != nil {
			return fmt.Errorf("config: %s: %w", k, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Pins) parse(data []byte, vt jsonparser.ValueType) error {
	if vt != jsonparser.Object {
		return errType(jsonparser.Object, vt)
	}
	fields := map[string]*string{
		"data":          &p.Data,
		"digitShift":    &p.DigitShift,
		"digitStore":    &p.DigitStore,
		"digitEnable":   &p.DigitEnable,
		"segmentShift":  &p.SegmentShift,
		"segmentStore":  &p.SegmentStore,
		"segmentEnable": &p.SegmentEnable,
		"decimalPoint":  &p.DecimalPoint,
		"am":            &p.AM,
		"pm":            &p.PM,
		"separator":     &p.Separator,
	}
	return jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		f, ok := fields[string(key)]
		if !ok {
			return fmt.Errorf("unknown pin %q", key)
		}
		var err error
		*f, err = getString(value, vt)
		return err
	})
}

// Validate checks the settings for values no board can use.
func (s *Settings) Validate() error {
	switch s.Backend {
	case Periph, Rpio, Sim:
	default:
		return fmt.Errorf("config: unknown backend %q", s.Backend)
	}
	if s.Digits <= 0 || s.Digits > multiplex.MaxDigits {
		return fmt.Errorf("config: digits must be between 1 and %d", multiplex.MaxDigits)
	}
	if s.DigitBits < s.Digits {
		return errors.New("config: digitBits must be at least digits")
	}
	if s.DecimalPoints>>uint(s.Digits) != 0 {
		return fmt.Errorf("config: decimalPoints 0x%x has bits above digit %d", s.DecimalPoints, s.Digits-1)
	}
	if s.TickRate <= 0 {
		return errors.New("config: tickRate must be positive")
	}
	return nil
}

// Period returns the AM and PM settings as indicator flags.
func (s *Settings) Period() indicator.PeriodFlags {
	f := indicator.PeriodNone
	if s.AM {
		f |= indicator.PeriodAM
	}
	if s.PM {
		f |= indicator.PeriodPM
	}
	return f
}

// Opts returns the board options.
func (s *Settings) Opts() timecircuit.Opts {
	o := timecircuit.DefaultOpts
	o.Digits = s.Digits
	o.DigitBits = s.DigitBits
	o.Text = s.Text
	o.DecimalPoints = s.DecimalPoints
	o.Brightness = s.Brightness
	o.Period = s.Period()
	o.Separator = s.Separator
	o.TickRate = s.TickRate
	return o
}

func errType(want, got jsonparser.ValueType) error {
	return fmt.Errorf("want %s, got %s", want, got)
}

func getString(value []byte, vt jsonparser.ValueType) (string, error) {
	if vt != jsonparser.String {
		return "", errType(jsonparser.String, vt)
	}
	return jsonparser.ParseString(value)
}

func getInt(value []byte, vt jsonparser.ValueType) (int, error) {
	if vt != jsonparser.Number {
		return 0, errType(jsonparser.Number, vt)
	}
	v, err := jsonparser.ParseInt(value)
	return int(v), err
}

// getMask returns a bit per digit.
func getMask(value []byte, vt jsonparser.ValueType) (uint32, error) {
	if vt != jsonparser.Number {
		return 0, errType(jsonparser.Number, vt)
	}
	v, err := jsonparser.ParseInt(value)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%d is not a digit mask", v)
	}
	return uint32(v), nil
}

// getBool also accepts "true" and "false" strings.
func getBool(value []byte, vt jsonparser.ValueType) (bool, error) {
	switch vt {
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.String:
		switch string(value) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, errType(jsonparser.Boolean, vt)
}

// getFrequency accepts a number in Hz or a string with a unit, like "5kHz".
func getFrequency(value []byte, vt jsonparser.ValueType) (physic.Frequency, error) {
	var f physic.Frequency
	switch vt {
	case jsonparser.Number:
		v, err := jsonparser.ParseInt(value)
		if err != nil {
			return 0, err
		}
		return physic.Frequency(v) * physic.Hertz, nil
	case jsonparser.String:
		err := f.Set(string(value))
		return f, err
	}
	return 0, errType(jsonparser.String, vt)
}
