// Package sim provides in-memory hardware for running the motion stack
// without a board: a GPIO bank and a TMC5240 on an SPI bus.
package sim

import (
	"errors"
	"sync"

	"gostep/core"
)

// PinMode is how a simulated pin was configured.
type PinMode uint8

const (
	PinUnconfigured PinMode = iota
	PinOutput
	PinInputPullUp
	PinInputPullDown
)

var ErrPinMode = errors.New("sim: pin not configured for this operation")

type pinState struct {
	mode  PinMode
	level bool
	rises int
	falls int
}

// GPIO is a core.GPIODriver backed by memory. Outputs count their edges;
// inputs read whatever SetInput last set, or their pull level.
type GPIO struct {
	mu   sync.Mutex
	pins map[core.GPIOPin]*pinState
}

// NewGPIO returns an empty pin bank.
func NewGPIO() *GPIO {
	return &GPIO{pins: make(map[core.GPIOPin]*pinState)}
}

func (g *GPIO) pin(p core.GPIOPin) *pinState {
	st, ok := g.pins[p]
	if !ok {
		st = &pinState{}
		g.pins[p] = st
	}
	return st
}

func (g *GPIO) ConfigureOutput(p core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pin(p).mode = PinOutput
	return nil
}

func (g *GPIO) ConfigureInputPullUp(p core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.pin(p)
	st.mode = PinInputPullUp
	st.level = true
	return nil
}

func (g *GPIO) ConfigureInputPullDown(p core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.pin(p)
	st.mode = PinInputPullDown
	st.level = false
	return nil
}

func (g *GPIO) SetPin(p core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.pin(p)
	if st.mode != PinOutput {
		return ErrPinMode
	}
	g.drive(st, value)
	return nil
}

func (g *GPIO) drive(st *pinState, value bool) {
	if value && !st.level {
		st.rises++
	}
	if !value && st.level {
		st.falls++
	}
	st.level = value
}

func (g *GPIO) GetPin(p core.GPIOPin) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.pins[p]
	if !ok || st.mode == PinUnconfigured {
		return false, ErrPinMode
	}
	return st.level, nil
}

func (g *GPIO) ReadPin(p core.GPIOPin) bool {
	v, _ := g.GetPin(p)
	return v
}

// SetInput drives an input pin from outside, as a switch would.
func (g *GPIO) SetInput(p core.GPIOPin, level bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drive(g.pin(p), level)
}

// Level returns the current level of p.
func (g *GPIO) Level(p core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin(p).level
}

// Mode returns how p was configured.
func (g *GPIO) Mode(p core.GPIOPin) PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin(p).mode
}

// Rises returns the number of low-to-high transitions seen on p.
func (g *GPIO) Rises(p core.GPIOPin) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin(p).rises
}

// Falls returns the number of high-to-low transitions seen on p.
func (g *GPIO) Falls(p core.GPIOPin) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin(p).falls
}
