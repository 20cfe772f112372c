// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package displays is a container for the time circuit display drivers.
//
// The board is assembled by package timecircuit from segment (font and bit
// order), shiftreg (the two shift register chains), multiplex (display
// buffer and scan) and indicator (AM, PM and separator brightness).
// boardsim, termsim and preview allow working without hardware.
package displays
