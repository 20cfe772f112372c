// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package timecircuit

import "github.com/bttf/displays/boardsim"

// SimPins returns the pins of an emulated board.
func SimPins(b *boardsim.Board) *Pins {
	return &Pins{
		Data:          b.Pin(boardsim.Data),
		DigitShift:    b.Pin(boardsim.DigitShift),
		DigitStore:    b.Pin(boardsim.DigitStore),
		DigitEnable:   b.Pin(boardsim.DigitEnable),
		SegmentShift:  b.Pin(boardsim.SegmentShift),
		SegmentStore:  b.Pin(boardsim.SegmentStore),
		SegmentEnable: b.Pin(boardsim.SegmentEnable),
		DecimalPoint:  b.Pin(boardsim.DecimalPoint),
		AM:            b.Pin(boardsim.AM),
		PM:            b.Pin(boardsim.PM),
		Separator:     b.Pin(boardsim.Separator),
	}
}
