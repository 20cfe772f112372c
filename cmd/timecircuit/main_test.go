// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/bttf/displays/boardsim"
	"github.com/bttf/displays/config"
	"github.com/bttf/displays/indicator"
	"github.com/bttf/displays/timecircuit"
)

func TestResolvePins(t *testing.T) {
	p := config.Default().Pins
	p.Separator = ""
	seen := map[string]bool{}
	r := func(name string) (gpio.PinIO, error) {
		if name == "" {
			return nil, nil
		}
		seen[name] = true
		return &gpiotest.Pin{N: name}, nil
	}
	pins, err := resolvePins(&p, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 10 {
		t.Fatalf("%d pins resolved", len(seen))
	}
	if pins.Data.Name() != "GPIO17" || pins.PM.Name() != "GPIO13" {
		t.Fatalf("%s %s", pins.Data, pins.PM)
	}
	if pins.Separator != nil {
		t.Fatal("unwired separator resolved")
	}
}

func TestResolvePins_error(t *testing.T) {
	p := config.Default().Pins
	fail := errors.New("no such pin")
	calls := 0
	_, err := resolvePins(&p, func(name string) (gpio.PinIO, error) {
		calls++
		return nil, fail
	})
	if !errors.Is(err, fail) || calls != 1 {
		t.Fatalf("%v after %d calls", err, calls)
	}
}

func TestRpioPin(t *testing.T) {
	p, err := rpioPin("GPIO18")
	if err != nil {
		t.Fatal(err)
	}
	if p.Number() != 18 {
		t.Fatal(p.Number())
	}
	if _, err := rpioPin("PWM0"); err == nil {
		t.Fatal("PWM0 accepted")
	}
	if p, err := rpioPin(""); p != nil || err != nil {
		t.Fatal(p, err)
	}
}

func TestIndicatorDuty(t *testing.T) {
	c, err := indicator.New(indicator.NewPinTimer(nil, nil, nil, 0))
	if err != nil {
		t.Fatal(err)
	}
	if d := indicatorDuty(c, false); d != 0 {
		t.Fatal(d)
	}
	if err := c.SetBrightness(0); err != nil {
		t.Fatal(err)
	}
	if d, want := indicatorDuty(c, true), gpio.DutyMax/64; d != want {
		t.Fatalf("%s, want %s", d, want)
	}
}

func TestSnapshot(t *testing.T) {
	b := boardsim.New(timecircuit.NumDigits)
	opts := timecircuit.DefaultOpts
	opts.Clock = clockwork.NewFakeClock()
	dev, err := timecircuit.New(timecircuit.SimPins(b), &opts)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "display.png")
	if err := snapshot(path, dev); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatal(fi, err)
	}
}

func TestSetupLog_unknown_keys(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetFlags(log.LstdFlags)
	name := filepath.Join(t.TempDir(), "timecircuit.log")
	s, err := config.Parse([]byte(`{"colour": "red", "logFile": "` + filepath.ToSlash(name) + `"}`))
	if err != nil {
		t.Fatal(err)
	}
	closeLog := setupLog(s, false)
	log.Print("started")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	i := strings.Index(got, `config: skipping unknown key "colour"`)
	if i < 0 || i > strings.Index(got, "started") {
		t.Errorf("log file:\n%s", got)
	}
}
