// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// timecircuit drives a time circuit display board showing a fixed text.
//
// The board is reached through periph's host drivers, through go-rpio
// register access, or is simulated on the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/bttf/displays/boardsim"
	"github.com/bttf/displays/config"
	"github.com/bttf/displays/indicator"
	"github.com/bttf/displays/preview"
	"github.com/bttf/displays/rpiogpio"
	"github.com/bttf/displays/termsim"
	"github.com/bttf/displays/timecircuit"
)

// setupLog directs the log to the rotated file, stderr in verbose mode or
// nowhere, then reports the keys the settings file had that were skipped.
// The returned function closes the log file.
func setupLog(s *config.Settings, verbose bool) func() error {
	closeLog := func() error { return nil }
	switch {
	case s.LogFile != "":
		l := &lumberjack.Logger{
			Filename:   s.LogFile,
			MaxSize:    1,
			MaxBackups: 3,
			MaxAge:     28,
		}
		log.SetOutput(l)
		closeLog = l.Close
	case verbose:
		log.SetOutput(os.Stderr)
	default:
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	for _, k := range s.Unknown {
		log.Printf("config: skipping unknown key %q", k)
	}
	return closeLog
}

// resolver returns the pin named name, or nil for an empty name.
type resolver func(name string) (gpio.PinIO, error)

func periphPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no pin %q", name)
	}
	return p, nil
}

func rpioPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, "GPIO"))
	if err != nil {
		return nil, fmt.Errorf("pin %q is not a BCM GPIO", name)
	}
	return rpiogpio.ByNumber(n)
}

func resolvePins(p *config.Pins, r resolver) (*timecircuit.Pins, error) {
	var err error
	get := func(name string) gpio.PinIO {
		if err != nil {
			return nil
		}
		var pin gpio.PinIO
		pin, err = r(name)
		return pin
	}
	pins := &timecircuit.Pins{
		Data:          get(p.Data),
		DigitShift:    get(p.DigitShift),
		DigitStore:    get(p.DigitStore),
		DigitEnable:   get(p.DigitEnable),
		SegmentShift:  get(p.SegmentShift),
		SegmentStore:  get(p.SegmentStore),
		SegmentEnable: get(p.SegmentEnable),
		DecimalPoint:  get(p.DecimalPoint),
		AM:            get(p.AM),
		PM:            get(p.PM),
		Separator:     get(p.Separator),
	}
	return pins, err
}

// indicatorDuty is the duty cycle the PWM timer gives an enabled indicator.
func indicatorDuty(c *indicator.Controller, on bool) gpio.Duty {
	if !on {
		return 0
	}
	v := uint64(indicator.Table[c.Brightness()])
	return gpio.Duty(v * uint64(gpio.DutyMax) / (uint64(indicator.TimerPeriod) + 1))
}

func snapshot(path string, dev *timecircuit.Dev) error {
	words, dp := dev.Buffer().Snapshot()
	ind := dev.Indicators()
	flags := ind.PeriodFlags()
	s := termsim.State{
		Words:         words,
		DecimalPoints: dp,
		AM:            indicatorDuty(ind, flags&indicator.PeriodAM != 0),
		PM:            indicatorDuty(ind, flags&indicator.PeriodPM != 0),
		Separator:     indicatorDuty(ind, ind.SeparatorEnabled()),
	}
	return preview.SavePNG(path, s, nil)
}

// simulate redraws the simulated board on the terminal until ctx is done.
func simulate(ctx context.Context, b *boardsim.Board, s *config.Settings) {
	t := termsim.New(nil)
	defer t.Halt()
	period := s.Refresh.Period()
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		if err := t.Draw(termsim.BoardState(b)); err != nil {
			log.Printf("termsim: %v", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func mainImpl() error {
	configPath := flag.String("config", "", "settings file")
	text := flag.String("text", "", "text to show instead of the configured one")
	backend := flag.String("backend", "", "periph, rpio or sim; overrides the settings file")
	snap := flag.String("snapshot", "", "write a PNG of the display content")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	s, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *text != "" {
		s.Text = *text
	}
	if *backend != "" {
		s.Backend = *backend
	}
	if *snap != "" {
		s.Snapshot = *snap
	}
	if err := s.Validate(); err != nil {
		return err
	}
	defer setupLog(s, *verbose)()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pins *timecircuit.Pins
	var board *boardsim.Board
	switch s.Backend {
	case config.Periph:
		if _, err := host.Init(); err != nil {
			return err
		}
		if pins, err = resolvePins(&s.Pins, periphPin); err != nil {
			return err
		}
	case config.Rpio:
		if err := rpiogpio.Open(); err != nil {
			return err
		}
		defer rpiogpio.Close()
		if pins, err = resolvePins(&s.Pins, rpioPin); err != nil {
			return err
		}
	case config.Sim:
		board = boardsim.New(s.Digits)
		pins = timecircuit.SimPins(board)
	}

	opts := s.Opts()
	dev, err := timecircuit.New(pins, &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()
	log.Printf("%s showing %q on %s backend", dev, s.Text, s.Backend)

	if s.Snapshot != "" {
		if err := snapshot(s.Snapshot, dev); err != nil {
			return err
		}
		log.Printf("wrote %s", s.Snapshot)
	}
	if board != nil {
		go simulate(ctx, board, s)
	}

	if err := dev.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Printf("stopped")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "timecircuit: %s.\n", err)
		os.Exit(1)
	}
}
