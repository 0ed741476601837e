// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23017 provides a driver for the Microchip MCP23017 16-bit I²C
// I/O expander. The device exposes 16 GPIO pins split across two 8-pin
// banks (A and B), each bank with its own parallel set of single-byte
// registers for direction, pull-up, interrupt configuration and pin value.
//
// Pins can be driven through the device-level API (PinMode, Output, Input,
// the interrupt operations) using the Pin value type, or through the
// standard gpio.PinIO interface via Dev.Pins, which is registered with
// gpioreg at construction time.
//
// The driver assumes the power-on register layout (IOCON.BANK=0), which is
// what a freshly reset chip uses and what Reset restores.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001952C.pdf
//
// # Notes
//
// The chip latches interrupts per bank. INTF indicates the pin that
// triggered, INTCAP snapshots the bank at the moment the interrupt was
// latched, and reading GPIO clears the latch. The INT output lines are not
// accessible over the I²C bus; to be notified of an edge, connect INTA/INTB
// to a host GPIO capable of edge detection and call ReadInterrupt from its
// handler.
//
// Interrupt reporting assumes a single pending pin per bank. If several
// pins of one bank trigger before being serviced, only the highest-numbered
// one is reported and the others are dropped with the flag clear.
package mcp23017
