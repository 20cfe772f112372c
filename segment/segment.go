// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segment converts characters into 16-segment patterns and remaps
// them into the bit order the display board's shift registers are wired in.
//
// A 16-segment digit is named like this:
//
//	 --A-- --B--
//	|\    |    /|
//	H K   M   N C
//	|   \ | /   |
//	 --U-- --P--
//	|   / | \   |
//	G T   S   R D
//	|/    |    \|
//	 --F-- --E--
//
// Mask holds the logical pattern, one bit per segment in the order above
// (A is bit 0, U is bit 15). Word holds the same pattern in the physical
// order of the segment shift register, inverted because the segment drivers
// sink current when their output is low.
package segment

import "strings"

// Mask is a logical segment pattern. A set bit means the segment is lit.
type Mask uint16

// Segments in logical bit order.
const (
	A Mask = 1 << iota
	B
	C
	D
	E
	F
	G
	H
	K
	M
	N
	P
	R
	S
	T
	U
)

// Count is the number of segments in a digit.
const Count = 16

// names lists segment names in logical bit order.
const names = "ABCDEFGHKMNPRSTU"

// Has reports whether all the segments in s are lit in m.
func (m Mask) Has(s Mask) bool {
	return m&s == s
}

// String returns the names of the lit segments, e.g. "ABCDEFGH" for 'O'.
func (m Mask) String() string {
	var sb strings.Builder
	for i := range Count {
		if m&(1<<i) != 0 {
			sb.WriteByte(names[i])
		}
	}
	return sb.String()
}

// Word is a segment pattern in shift register order. A cleared bit means
// the segment is lit.
type Word uint16

// Off is the Word with every segment dark.
const Off Word = 0xffff
