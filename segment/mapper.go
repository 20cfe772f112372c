// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package segment

// HardwareBit maps a logical segment index (A=0 .. U=15) to the bit it
// occupies in the segment shift register. The registers are wired for an
// easier PCB layout, not in segment order.
var HardwareBit = [Count]uint8{
	8,  // A
	0,  // B
	2,  // C
	5,  // D
	6,  // E
	7,  // F
	14, // G
	10, // H
	9,  // K
	15, // M
	1,  // N
	3,  // P
	4,  // R
	12, // S
	13, // T
	11, // U
}

// ToHardwareOrder permutes a logical mask into shift register order and
// inverts it for the active-low segment drivers.
func ToHardwareOrder(m Mask) Word {
	var out uint16
	for i := range Count {
		out |= uint16((m>>i)&1) << HardwareBit[i]
	}
	return Word(^out)
}

// FromHardwareOrder is the inverse of ToHardwareOrder.
func FromHardwareOrder(w Word) Mask {
	in := ^uint16(w)
	var m Mask
	for i := range Count {
		m |= Mask((in>>HardwareBit[i])&1) << i
	}
	return m
}

// Lit reports whether the logical segment s is lit in w.
func (w Word) Lit(s Mask) bool {
	return FromHardwareOrder(w).Has(s)
}
