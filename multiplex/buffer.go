// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package multiplex

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bttf/displays/segment"
)

// MaxDigits is the largest number of digits a Buffer can hold.
const MaxDigits = 32

var ErrInvalidDigit = errors.New("multiplex: digit out of range")

// Buffer holds what each digit of the display should show: a segment word
// in shift register order and a decimal point flag. A digit's word and
// decimal point are updated and read together.
type Buffer struct {
	mu    sync.Mutex
	words []segment.Word
	dp    uint32
}

// NewBuffer returns a Buffer of n digits, all dark.
func NewBuffer(n int) (*Buffer, error) {
	if n <= 0 || n > MaxDigits {
		return nil, fmt.Errorf("multiplex: invalid number of digits %d", n)
	}
	b := &Buffer{words: make([]segment.Word, n)}
	b.clear()
	return b, nil
}

// Len returns the number of digits.
func (b *Buffer) Len() int {
	return len(b.words)
}

func (b *Buffer) clear() {
	for i := range b.words {
		b.words[i] = segment.Off
	}
	b.dp = 0
}

// Clear turns every segment and decimal point off.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clear()
}

// Digit returns the word and decimal point of digit i.
func (b *Buffer) Digit(i int) (segment.Word, bool, error) {
	if i < 0 || i >= len(b.words) {
		return segment.Off, false, ErrInvalidDigit
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.words[i], b.dp&(1<<i) != 0, nil
}

// SetDigit stores a hardware ordered word for digit i.
func (b *Buffer) SetDigit(i int, w segment.Word) error {
	if i < 0 || i >= len(b.words) {
		return ErrInvalidDigit
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.words[i] = w
	return nil
}

// SetMask stores a logical mask for digit i.
func (b *Buffer) SetMask(i int, m segment.Mask) error {
	return b.SetDigit(i, segment.ToHardwareOrder(m))
}

// SetDecimalPoint turns the decimal point of digit i on or off.
func (b *Buffer) SetDecimalPoint(i int, on bool) error {
	if i < 0 || i >= len(b.words) {
		return ErrInvalidDigit
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if on {
		b.dp |= 1 << i
	} else {
		b.dp &^= 1 << i
	}
	return nil
}

// SetDecimalPoints replaces the decimal point mask. Bit i is digit i; bits
// past the last digit are dropped.
func (b *Buffer) SetDecimalPoints(mask uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dp = mask & b.allDigits()
}

// DecimalPoints returns the decimal point mask.
func (b *Buffer) DecimalPoints() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dp
}

func (b *Buffer) allDigits() uint32 {
	return uint32(1<<len(b.words) - 1)
}

// SetText encodes s into the digits from the left. Characters past the last
// digit are ignored and a NUL stops the encoding. Digits not covered by s
// are turned off. Decimal points are left alone. It returns the number of
// digits written.
func (b *Buffer) SetText(s string) int {
	words := make([]segment.Word, len(b.words))
	n := 0
	for _, r := range s {
		if r == 0 || n == len(words) {
			break
		}
		words[n] = segment.Encode(r)
		n++
	}
	for i := n; i < len(words); i++ {
		words[i] = segment.Off
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.words, words)
	return n
}

// Snapshot returns a copy of every word and the decimal point mask.
func (b *Buffer) Snapshot() ([]segment.Word, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]segment.Word, len(b.words))
	copy(out, b.words)
	return out, b.dp
}
