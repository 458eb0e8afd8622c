package sim

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"

	"gostep/core"
)

var ErrNoChipSelected = errors.New("sim: no chip selected on SPI bus")

// Board is a simulated controller board: one GPIO bank and any number of
// SPI buses. Chips on a bus are selected by their active-low CS pin on the
// bank; a bus with a single chip also works without CS.
type Board struct {
	Pins *GPIO

	mu    sync.Mutex
	buses map[uint8]*SPIBus
}

// NewBoard returns a board with no chips attached.
func NewBoard() *Board {
	return &Board{Pins: NewGPIO(), buses: make(map[uint8]*SPIBus)}
}

// GPIO returns the board's pin bank.
func (b *Board) GPIO() core.GPIODriver {
	return b.Pins
}

// SPI returns bus n, creating it empty on first use.
func (b *Board) SPI(n uint8) (drivers.SPI, error) {
	return b.bus(n), nil
}

func (b *Board) bus(n uint8) *SPIBus {
	b.mu.Lock()
	defer b.mu.Unlock()
	bus, ok := b.buses[n]
	if !ok {
		bus = &SPIBus{pins: b.Pins, chips: make(map[core.GPIOPin]*TMC5240)}
		b.buses[n] = bus
	}
	return bus
}

// Attach puts a fresh TMC5240 on bus n behind chip select cs and returns
// it.
func (b *Board) Attach(n uint8, cs core.GPIOPin) *TMC5240 {
	chip := NewTMC5240()
	bus := b.bus(n)
	bus.mu.Lock()
	bus.chips[cs] = chip
	bus.mu.Unlock()
	return chip
}

// Chip returns the chip attached at bus n, cs, or nil.
func (b *Board) Chip(n uint8, cs core.GPIOPin) *TMC5240 {
	bus := b.bus(n)
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.chips[cs]
}

// SPIBus routes transfers to whichever attached chip has its CS low.
type SPIBus struct {
	pins  *GPIO
	mu    sync.Mutex
	chips map[core.GPIOPin]*TMC5240
}

func (s *SPIBus) selected() (*TMC5240, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *TMC5240
	for cs, chip := range s.chips {
		if s.pins.Mode(cs) != PinOutput {
			// CS is driven by the bus hardware
			if len(s.chips) == 1 {
				return chip, nil
			}
			continue
		}
		if s.pins.Level(cs) {
			continue
		}
		if found != nil {
			return nil, errors.New("sim: two chips selected at once")
		}
		found = chip
	}
	if found == nil {
		return nil, ErrNoChipSelected
	}
	return found, nil
}

func (s *SPIBus) Tx(w, r []byte) error {
	chip, err := s.selected()
	if err != nil {
		return err
	}
	return chip.Tx(w, r)
}

func (s *SPIBus) Transfer(b byte) (byte, error) {
	chip, err := s.selected()
	if err != nil {
		return 0, err
	}
	return chip.Transfer(b)
}
