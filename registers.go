// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

// Register addresses with IOCON.BANK=0, the power-on default. Bank A and
// bank B registers interleave; IOCON is a single shared register.
const (
	regIODIRA   uint8 = 0x00 // direction, 1=input
	regIODIRB   uint8 = 0x01
	regGPINTENA uint8 = 0x04 // interrupt-on-change enable
	regGPINTENB uint8 = 0x05
	regDEFVALA  uint8 = 0x06 // default comparison value
	regDEFVALB  uint8 = 0x07
	regINTCONA  uint8 = 0x08 // 1=compare against DEFVAL, 0=previous value
	regINTCONB  uint8 = 0x09
	regIOCON    uint8 = 0x0A // shared configuration
	regGPPUA    uint8 = 0x0C // 100kΩ pull-up enable
	regGPPUB    uint8 = 0x0D
	regINTFA    uint8 = 0x0E // interrupt flag
	regINTFB    uint8 = 0x0F
	regINTCAPA  uint8 = 0x10 // bank snapshot at interrupt time
	regINTCAPB  uint8 = 0x11
	regGPIOA    uint8 = 0x12 // pin values, reading clears the interrupt latch
	regGPIOB    uint8 = 0x13
	regOLATA    uint8 = 0x14 // output latch
	regOLATB    uint8 = 0x15
)

// Bit positions within IOCON.
const (
	ioconMirrorBit uint8 = 6 // INTA/INTB are internally connected
	ioconIntPolBit uint8 = 1 // polarity of the INT output pins
)

// changeBit returns value with the given bit set or cleared, leaving the
// other seven bits untouched.
func changeBit(value uint8, bit uint8, set bool) uint8 {
	if set {
		return value | 1<<bit
	}
	return value &^ (1 << bit)
}
