// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"errors"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// expanderPin adapts one expander pin to gpio.PinIO.
type expanderPin struct {
	dev  *Dev
	pin  Pin
	name string
	pull gpio.Pull
}

func (p *expanderPin) String() string {
	return p.name
}

func (p *expanderPin) Name() string {
	return p.name
}

func (p *expanderPin) Number() int {
	return p.pin.Number()
}

// Halt returns the pin to high-impedance input.
func (p *expanderPin) Halt() error {
	return p.In(gpio.Float, gpio.NoEdge)
}

func (p *expanderPin) Function() string {
	return string(p.Func())
}

func (p *expanderPin) Func() pin.Func {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()
	if p.pin.mode(p.dev.direction) == Input {
		return gpio.IN
	}
	return gpio.OUT
}

func (p *expanderPin) SupportedFuncs() []pin.Func {
	return supportedFuncs[:]
}

func (p *expanderPin) SetFunc(f pin.Func) error {
	var m Mode
	switch f {
	case gpio.IN:
		m = Input
	case gpio.OUT:
		m = Output
	default:
		return errors.New("mcp23017: function not supported: " + string(f))
	}
	_, err := p.dev.PinMode(p.pin, m)
	return err
}

func (p *expanderPin) In(pull gpio.Pull, edge gpio.Edge) error {
	// Edge detection happens on the INT lines, which are not reachable
	// over the bus.
	if edge != gpio.NoEdge {
		return errors.New("mcp23017: edge detection requires a host pin wired to INTA/INTB")
	}
	if _, err := p.dev.PinMode(p.pin, Input); err != nil {
		return err
	}
	switch pull {
	case gpio.PullDown:
		return errors.New("mcp23017: PullDown is not supported")
	case gpio.PullUp:
		if _, err := p.dev.PullUp(p.pin, High); err != nil {
			return err
		}
		p.pull = gpio.PullUp
	case gpio.Float:
		if _, err := p.dev.PullUp(p.pin, Low); err != nil {
			return err
		}
		p.pull = gpio.Float
	case gpio.PullNoChange:
	}
	return nil
}

func (p *expanderPin) Read() gpio.Level {
	v, err := p.dev.CurrentValue(p.pin)
	if err != nil {
		log.Println(err)
		return gpio.Low
	}
	return gpio.Level(v == High)
}

// The expander latches change events per bank; a single pin can't be
// waited on over the bus. See ReadInterrupt.
func (p *expanderPin) WaitForEdge(timeout time.Duration) bool {
	return false
}

func (p *expanderPin) Pull() gpio.Pull {
	return p.pull
}

func (p *expanderPin) DefaultPull() gpio.Pull {
	return gpio.Float
}

func (p *expanderPin) Out(l gpio.Level) error {
	if p.Func() != gpio.OUT {
		if _, err := p.dev.PinMode(p.pin, Output); err != nil {
			return err
		}
	}
	s := Low
	if l == gpio.High {
		s = High
	}
	_, err := p.dev.Output(p.pin, s)
	return err
}

func (p *expanderPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("mcp23017: PWM is not supported")
}

var supportedFuncs = [...]pin.Func{gpio.IN, gpio.OUT}

var _ gpio.PinIO = &expanderPin{}
