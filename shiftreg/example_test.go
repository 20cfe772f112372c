// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shiftreg_test

import (
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/bttf/displays/segment"
	"github.com/bttf/displays/shiftreg"
)

func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	dev, err := shiftreg.New(&shiftreg.Opts{
		Data:          gpioreg.ByName("GPIO17"),
		DigitShift:    gpioreg.ByName("GPIO27"),
		DigitStore:    gpioreg.ByName("GPIO22"),
		DigitEnable:   gpioreg.ByName("GPIO23"),
		SegmentShift:  gpioreg.ByName("GPIO24"),
		SegmentStore:  gpioreg.ByName("GPIO25"),
		SegmentEnable: gpioreg.ByName("GPIO5"),
		DecimalPoint:  gpioreg.ByName("GPIO6"),
		Digits:        13,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()
	if err := dev.Clear(); err != nil {
		log.Fatal(err)
	}
	if err := dev.EnableOutputs(); err != nil {
		log.Fatal(err)
	}
	// Light an 'A' with its decimal point on the first digit.
	if err := dev.Show(0, segment.Encode('A'), true); err != nil {
		log.Fatal(err)
	}
}
