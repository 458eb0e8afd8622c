//go:build rp2040

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers"

	"gostep/config"
	"gostep/core"
	"gostep/drivers/stepdir"
	"gostep/targets/pio"
)

// TMC5240 runs SPI mode 3 up to 10 MHz; 4 MHz leaves margin on the
// board traces.
const spiFrequency = 4000000

type spiBusConfig struct {
	spi  *machine.SPI
	sck  machine.Pin
	sdo  machine.Pin
	sdi  machine.Pin
	name string
}

var spiBuses = map[uint8]spiBusConfig{
	0: {spi: machine.SPI0, sck: machine.GPIO2, sdo: machine.GPIO3, sdi: machine.GPIO4, name: "spi0"},
	1: {spi: machine.SPI1, sck: machine.GPIO10, sdo: machine.GPIO11, sdi: machine.GPIO12, name: "spi1"},
}

var errBadSPIBus = errors.New("board: no such SPI bus")

// board is the config.Hardware of the controller. STEP/DIR motors get a
// PIO state machine each until they run out.
type board struct {
	gpio       gpioDriver
	configured map[uint8]bool
}

func newBoard() *board {
	return &board{configured: make(map[uint8]bool)}
}

func (b *board) GPIO() core.GPIODriver {
	return &b.gpio
}

// SPI configures bus on first use.
func (b *board) SPI(bus uint8) (drivers.SPI, error) {
	cfg, ok := spiBuses[bus]
	if !ok {
		return nil, errBadSPIBus
	}
	if !b.configured[bus] {
		err := cfg.spi.Configure(machine.SPIConfig{
			Frequency: spiFrequency,
			SCK:       cfg.sck,
			SDO:       cfg.sdo,
			SDI:       cfg.sdi,
			Mode:      3,
		})
		if err != nil {
			return nil, err
		}
		b.configured[bus] = true
		core.DebugPrintln("SPI bus " + cfg.name + " configured")
	}
	return cfg.spi, nil
}

// StepBackend hands out PIO state machines. Inverted step pins and motors
// beyond the eighth fall back to bit-banged GPIO.
func (b *board) StepBackend(c config.StepDir) (core.StepperBackend, error) {
	if !c.InvertStep {
		backend, err := pio.Allocate()
		if err == nil {
			return backend, nil
		}
		core.DebugPrintln("PIO exhausted, using GPIO backend")
	}
	return stepdir.NewGPIOBackend(&b.gpio), nil
}
