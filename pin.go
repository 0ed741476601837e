// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import "fmt"

// NumPins is the number of GPIO pins on the MCP23017.
const NumPins = 16

// Bank identifies one of the two 8-pin halves of the expander.
type Bank uint8

const (
	BankA Bank = iota
	BankB
)

func (b Bank) String() string {
	if b == BankB {
		return "B"
	}
	return "A"
}

// Mode is the direction a pin is configured for. The hardware convention is
// IODIR bit 1 = input, 0 = output.
type Mode uint8

const (
	Output Mode = iota
	Input
)

func (m Mode) String() string {
	if m == Input {
		return "Input"
	}
	return "Output"
}

func (m Mode) bit() bool { return m == Input }

func modeFromBit(set bool) Mode {
	if set {
		return Input
	}
	return Output
}

// State is the logic level of a pin.
type State bool

const (
	Low  State = false
	High State = true
)

func (s State) String() string {
	if s == High {
		return "High"
	}
	return "Low"
}

func (s State) bit() bool { return bool(s) }

func stateFromBit(set bool) State { return State(set) }

// Feature switches an optional device feature on or off.
type Feature bool

const (
	Off Feature = false
	On  Feature = true
)

func (f Feature) String() string {
	if f == On {
		return "On"
	}
	return "Off"
}

func (f Feature) bit() bool { return bool(f) }

// Polarity is the resting level of the INT output pins. With ActiveHigh the
// pin idles high and drops low on an interrupt, and vice versa.
type Polarity bool

const (
	ActiveLow  Polarity = false
	ActiveHigh Polarity = true
)

func (p Polarity) String() string {
	if p == ActiveHigh {
		return "Active High"
	}
	return "Active Low"
}

func (p Polarity) bit() bool { return bool(p) }

// Compare selects what a pin's interrupt-on-change comparison is made
// against: the DEFVAL register or the pin's previous value.
type Compare bool

const (
	ComparePrevious Compare = false
	CompareDefault  Compare = true
)

func (c Compare) String() string {
	if c == CompareDefault {
		return "Default"
	}
	return "Previous"
}

func (c Compare) bit() bool { return bool(c) }

// Pin identifies one of the 16 logical pins of the expander. It precomputes
// the bank and the bit offset within that bank's registers. Pins are
// immutable values, freely copyable, and carry no reference to a Dev.
type Pin struct {
	number uint8 // logical pin number, 0-15
	bit    uint8 // bit offset within the bank's registers
	bank   Bank
}

// NewPin returns the Pin for the given logical number. Pins 0 to 7 are bank
// A, 8 to 15 bank B. ok is false for numbers 16 and up.
func NewPin(number uint8) (Pin, bool) {
	if number >= NumPins {
		return Pin{}, false
	}
	if number < 8 {
		return Pin{number: number, bit: number, bank: BankA}, true
	}
	return Pin{number: number, bit: number - 8, bank: BankB}, true
}

// Number returns the logical pin number, 0-15.
func (p Pin) Number() int { return int(p.number) }

// Bank returns the bank the pin belongs to.
func (p Pin) Bank() Bank { return p.bank }

func (p Pin) String() string {
	return fmt.Sprintf("GPIO%d (bank %s, bit %d)", p.number, p.bank, p.bit)
}

// reg picks the pin's bank register out of an A/B register pair.
func (p Pin) reg(bankA, bankB uint8) uint8 {
	if p.bank == BankB {
		return bankB
	}
	return bankA
}

// shift is the pin's bank offset within a combined 16-bit value.
func (p Pin) shift() uint8 {
	if p.bank == BankB {
		return 8
	}
	return 0
}

// mode reads the pin's direction out of a cached direction word.
func (p Pin) mode(direction uint16) Mode {
	return modeFromBit(direction&(uint16(1)<<p.number) != 0)
}

// mergeWord replaces the pin's bank byte within a combined 16-bit value,
// bank A in the low byte and bank B in the high byte, preserving the other
// bank untouched.
func (p Pin) mergeWord(word uint16, value uint8) uint16 {
	if p.bank == BankB {
		return word&0x00FF | uint16(value)<<8
	}
	return word&0xFF00 | uint16(value)
}
