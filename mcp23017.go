// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"fmt"
	"math/bits"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the device address with A0..A2 tied low. The full
// range is 0x20-0x27.
const DefaultAddress uint16 = 0x20

// Opts holds the configuration options for the device.
type Opts struct {
	// InterruptRetries is how many times ClearInterrupts re-polls the
	// interrupt flags before forcing a clear. Leave 0 to use the default
	// of 3.
	InterruptRetries int
	// InterruptRetryDelay is the pause between those polls. Note that
	// ClearInterrupts blocks the calling goroutine for up to
	// InterruptRetries*InterruptRetryDelay. Leave 0 to use the default of
	// 500ms.
	InterruptRetryDelay time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	InterruptRetries:    3,
	InterruptRetryDelay: 500 * time.Millisecond,
}

// Dev is a handle to an MCP23017 on an I²C bus.
//
// The direction of every pin and the interrupt mirror setting are cached so
// that mode preconditions can be checked without a bus round-trip. The
// hardware registers stay authoritative; the cache is refreshed on every
// successful write that touches it.
type Dev struct {
	// Pins exposes the 16 expander pins through the standard gpio.PinIO
	// interface. Index is the logical pin number.
	Pins []gpio.PinIO

	opts Opts

	mu        sync.Mutex
	d         *i2c.Dev
	direction uint16 // IODIRB in the high byte, IODIRA in the low byte
	mirrored  Feature
}

// NewI2C returns a handle to an MCP23017 at the given address. It reads the
// current direction registers as a presence check and then performs a full
// Reset, so all pins start as inputs with pull-ups and interrupts disabled.
// The Opts can be nil.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: *opts, mirrored: Off}
	if d.opts.InterruptRetries <= 0 {
		d.opts.InterruptRetries = DefaultOpts.InterruptRetries
	}
	if d.opts.InterruptRetryDelay <= 0 {
		d.opts.InterruptRetryDelay = DefaultOpts.InterruptRetryDelay
	}

	lo, err := d.readReg(regIODIRA)
	if err != nil {
		return nil, err
	}
	hi, err := d.readReg(regIODIRB)
	if err != nil {
		return nil, err
	}
	d.direction = uint16(hi)<<8 | uint16(lo)

	if err := d.Reset(); err != nil {
		return nil, err
	}

	sDev := d.String()
	d.Pins = make([]gpio.PinIO, NumPins)
	for i := range d.Pins {
		p, _ := NewPin(uint8(i))
		ep := &expanderPin{dev: d, pin: p, name: fmt.Sprintf("%s_GPIO%d", sDev, i), pull: gpio.Float}
		d.Pins[i] = ep
		// Ignore registration failure.
		_ = gpioreg.Register(ep)
	}
	return d, nil
}

// PinMode configures the pin as an input or an output and returns the new
// combined 16-bit direction word, bank A in the low byte and bank B in the
// high byte.
func (d *Dev) PinMode(p Pin, mode Mode) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readModifyWrite(p.reg(regIODIRA, regIODIRB), p, mode.bit(), nil)
	if err != nil {
		return 0, err
	}
	d.direction = p.mergeWord(d.direction, v)
	return d.direction, nil
}

// PullUp switches the pin's internal 100kΩ pull-up resistor. It returns the
// written bank byte shifted into the pin's bank position; the other bank's
// half of the word is zero and must be combined by the caller.
func (d *Dev) PullUp(p Pin, state State) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readModifyWrite(p.reg(regGPPUA, regGPPUB), p, state.bit(), nil)
	if err != nil {
		return 0, err
	}
	return uint16(v) << p.shift(), nil
}

// Output drives the pin to the given level and returns the byte written to
// the bank's GPIO register. A WrongModeError is returned if the cached
// direction says the pin is not configured as an output.
func (d *Dev) Output(p Pin, state State) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.mode(d.direction) != Output {
		return 0, &WrongModeError{Pin: p}
	}
	// The output latch is the best guess for the register's current value.
	// A failed read is tolerated; readModifyWrite falls back to reading
	// GPIO itself.
	var current *uint8
	if v, err := d.readReg(p.reg(regOLATA, regOLATB)); err == nil {
		current = &v
	}
	return d.readModifyWrite(p.reg(regGPIOA, regGPIOB), p, state.bit(), current)
}

// Input reads the pin's level. A WrongModeError is returned if the cached
// direction says the pin is not configured as an input.
func (d *Dev) Input(p Pin) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.mode(d.direction) != Input {
		return Low, &WrongModeError{Pin: p}
	}
	return d.readPin(p)
}

// CurrentValue reads the pin's level regardless of its mode.
func (d *Dev) CurrentValue(p Pin) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readPin(p)
}

// ConfigSystemInterrupt sets the device-wide interrupt behavior: whether
// INTA/INTB are mirrored, and the polarity of the INT output pins. The
// mirror setting is cached and governs which banks ReadInterrupt consults.
func (d *Dev) ConfigSystemInterrupt(mirror Feature, polarity Polarity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readReg(regIOCON)
	if err != nil {
		return err
	}
	v = changeBit(v, ioconMirrorBit, mirror.bit())
	v = changeBit(v, ioconIntPolBit, polarity.bit())
	if err := d.writeReg(regIOCON, v); err != nil {
		return err
	}
	d.mirrored = mirror
	return nil
}

// ConfigPinInterrupt sets the interrupt-on-change behavior of one pin:
// whether it triggers at all, whether the change is detected against
// DEFVAL or the previous value, and the DEFVAL comparison level (nil means
// Low; it is written even in ComparePrevious mode, in case the compare mode
// changes later). A WrongModeError is returned if the pin is not configured
// as an input.
//
// The three registers are written in separate bus transactions; the
// hardware provides no atomicity across them.
func (d *Dev) ConfigPinInterrupt(p Pin, enabled Feature, compareMode Compare, defval *State) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.mode(d.direction) != Input {
		return &WrongModeError{Pin: p}
	}
	if _, err := d.readModifyWrite(p.reg(regGPINTENA, regGPINTENB), p, enabled.bit(), nil); err != nil {
		return err
	}
	if _, err := d.readModifyWrite(p.reg(regINTCONA, regINTCONB), p, compareMode.bit(), nil); err != nil {
		return err
	}
	dv := Low
	if defval != nil {
		dv = *defval
	}
	_, err := d.readModifyWrite(p.reg(regDEFVALA, regDEFVALB), p, dv.bit(), nil)
	return err
}

// InterruptEvent is one serviced interrupt: the pin that triggered it and
// the level captured at the moment it was latched.
type InterruptEvent struct {
	Pin   Pin
	State State
}

// ReadInterrupt determines which pin caused a pending interrupt and the
// value it was captured at, clearing the interrupt as a side effect of
// reading the capture register. It returns nil if no interrupt is pending.
//
// If mirroring was enabled through ConfigSystemInterrupt, either INT line
// can reflect either bank, so bank A is checked first and bank B is used as
// the fallback; a transport failure on the fallback is reported as "no
// interrupt" rather than masking the bank A result. Without mirroring only
// the requested bank is checked and its errors propagate.
//
// Call this from the handler of the host GPIO pin wired to INTA/INTB.
func (d *Dev) ReadInterrupt(bank Bank) (*InterruptEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mirrored == On {
		ev, err := d.readInterruptRegister(BankA)
		if err != nil || ev != nil {
			return ev, err
		}
		ev, err = d.readInterruptRegister(BankB)
		if err != nil {
			return nil, nil
		}
		return ev, nil
	}
	return d.readInterruptRegister(bank)
}

// ClearInterrupts recovers from stuck interrupt flags. If neither bank has
// a pending interrupt it returns immediately. Otherwise it re-polls the
// flags, sleeping InterruptRetryDelay between attempts, and succeeds as
// soon as either bank reads clear. Once the retries are exhausted it forces
// the latch clear by reading both GPIO registers and returns
// InterruptsForcedClearError, since the interrupt condition did not resolve
// normally and the operator should know.
func (d *Dev) ClearInterrupts() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	pending, err := d.interruptPending()
	if err != nil {
		return err
	}
	if !pending {
		return nil
	}
	for i := 0; i < d.opts.InterruptRetries; i++ {
		a, err := d.readReg(regINTFA)
		if err != nil {
			return err
		}
		if a == 0 {
			return nil
		}
		b, err := d.readReg(regINTFB)
		if err != nil {
			return err
		}
		if b == 0 {
			return nil
		}
		time.Sleep(d.opts.InterruptRetryDelay)
	}
	if _, err := d.readReg(regGPIOA); err != nil {
		return err
	}
	if _, err := d.readReg(regGPIOB); err != nil {
		return err
	}
	return &InterruptsForcedClearError{}
}

// Reset restores the power-on register state: all pins inputs, outputs off,
// pull-ups disabled, IOCON cleared, interrupts disabled, and any latched
// interrupt capture cleared by reading both GPIO registers. The first
// failing bus operation aborts the sequence and propagates, leaving the
// device partially reset.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// All pins to input, the input-safe default, before anything that
	// depends on output state.
	if err := d.writeReg(regIODIRA, 0xFF); err != nil {
		return err
	}
	if err := d.writeReg(regIODIRB, 0xFF); err != nil {
		return err
	}
	d.direction = 0xFFFF
	for _, w := range []struct {
		reg   uint8
		value uint8
	}{
		{regGPIOA, 0x00}, // output latches off
		{regGPIOB, 0x00},
		{regGPPUA, 0x00}, // pull-ups disabled
		{regGPPUB, 0x00},
		{regIOCON, 0x00}, // chip default configuration
		{regGPINTENA, 0x00}, // interrupts disabled on all pins
		{regGPINTENB, 0x00},
		{regINTCONA, 0x00}, // compare against previous value
		{regINTCONB, 0x00},
		{regDEFVALA, 0x00},
		{regDEFVALB, 0x00},
	} {
		if err := d.writeReg(w.reg, w.value); err != nil {
			return err
		}
	}
	// Reading GPIO drops any latched interrupt.
	if _, err := d.readReg(regGPIOA); err != nil {
		return err
	}
	_, err := d.readReg(regGPIOB)
	return err
}

// Halt implements conn.Resource by restoring the reset state.
func (d *Dev) Halt() error {
	return d.Reset()
}

// Close unregisters the pins from gpioreg. The device itself needs no
// teardown; the bus is owned by the caller.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.Pins {
		if err := gpioreg.Unregister(p.Name()); err != nil {
			return err
		}
	}
	d.Pins = nil
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("MCP23017_%x", d.d.Addr)
}

// readModifyWrite flips the pin's bit of an 8-bit register without
// disturbing the other seven. current, when non-nil, is used as the
// register's present value and saves the read; otherwise one read is
// issued. Returns the byte written.
func (d *Dev) readModifyWrite(reg uint8, p Pin, value bool, current *uint8) (uint8, error) {
	var cur uint8
	if current != nil {
		cur = *current
	} else {
		v, err := d.readReg(reg)
		if err != nil {
			return 0, err
		}
		cur = v
	}
	next := changeBit(cur, p.bit, value)
	if err := d.writeReg(reg, next); err != nil {
		return 0, err
	}
	return next, nil
}

// readInterruptRegister services one bank: nil if its INTF is clear,
// otherwise the triggering pin with its captured value. With more than one
// flag bit set, the highest-numbered pin wins and the others are dropped.
func (d *Dev) readInterruptRegister(bank Bank) (*InterruptEvent, error) {
	intf, intcap := regINTFA, regINTCAPA
	if bank == BankB {
		intf, intcap = regINTFB, regINTCAPB
	}
	flags, err := d.readReg(intf)
	if err != nil {
		return nil, err
	}
	if flags == 0 {
		return nil, nil
	}
	p, _ := NewPin(uint8(bits.Len8(flags) - 1))
	captured, err := d.readReg(intcap)
	if err != nil {
		return nil, err
	}
	return &InterruptEvent{Pin: p, State: stateFromBit(captured&(1<<p.bit) != 0)}, nil
}

// interruptPending reports whether either bank has its interrupt flag set,
// reading bank B only when bank A is clear.
func (d *Dev) interruptPending() (bool, error) {
	a, err := d.readReg(regINTFA)
	if err != nil {
		return false, err
	}
	if a > 0 {
		return true, nil
	}
	b, err := d.readReg(regINTFB)
	if err != nil {
		return false, err
	}
	return b > 0, nil
}

func (d *Dev) readPin(p Pin) (State, error) {
	v, err := d.readReg(p.reg(regGPIOA, regGPIOB))
	if err != nil {
		return Low, err
	}
	return stateFromBit(v&(1<<p.bit) != 0), nil
}

func (d *Dev) readReg(reg uint8) (uint8, error) {
	var buf [1]byte
	if err := d.d.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, fmt.Errorf("mcp23017: %w", err)
	}
	return buf[0], nil
}

func (d *Dev) writeReg(reg uint8, value uint8) error {
	if err := d.d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("mcp23017: %w", err)
	}
	return nil
}

var _ conn.Resource = &Dev{}
