//go:build rp2040

package pio

import rp2pio "github.com/tinygo-org/pio/rp2-pio"

var programLen = uint8(len(buildStepperProgram()))

var (
	// RP2040 has 2 PIO blocks with 4 state machines each
	allocated [2][4]bool
	loaded    [2]bool
	offsets   [2]uint8
)

// Allocate returns a backend on the next free state machine, filling PIO0
// before PIO1.
func Allocate() (*Backend, error) {
	for p := uint8(0); p < 2; p++ {
		for sm := uint8(0); sm < 4; sm++ {
			if !allocated[p][sm] {
				allocated[p][sm] = true
				return newBackend(p, sm), nil
			}
		}
	}
	return nil, ErrNoMachine
}

// Allocations reports which state machines are in use.
func Allocations() [2][4]bool {
	return allocated
}

// loadProgram adds the step program to hw unless an earlier backend on the
// same block already did.
func loadProgram(hw *rp2pio.PIO, pioNum uint8) (uint8, error) {
	if loaded[pioNum] {
		return offsets[pioNum], nil
	}
	offset, err := hw.AddProgram(buildStepperProgram(), programOrigin)
	if err != nil {
		return 0, err
	}
	loaded[pioNum], offsets[pioNum] = true, offset
	return offset, nil
}
