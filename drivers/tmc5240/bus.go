package tmc5240

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"

	"gostep/core"
)

// DatagramSize is the length of one SPI transaction.
const DatagramSize = 5

var ErrNilSPI = errors.New("tmc5240: nil SPI bus")

// Bus is an SPI bus shared by several TMC5240s. Transactions on it are
// serialized.
type Bus struct {
	mu  sync.Mutex
	spi drivers.SPI
}

// NewBus wraps spi. Any tinygo drivers.SPI works, including machine.SPI.
func NewBus(spi drivers.SPI) (*Bus, error) {
	if spi == nil {
		return nil, ErrNilSPI
	}
	return &Bus{spi: spi}, nil
}

// Device is one TMC5240 on a Bus, selected by its own CS pin.
type Device struct {
	bus    *Bus
	gpio   core.GPIODriver
	cs     core.GPIOPin
	hasCS  bool
	status uint8
}

// Device returns the chip whose active-low chip select is cs. A nil gpio
// means chip select is handled by the bus hardware.
func (b *Bus) Device(gpio core.GPIODriver, cs core.GPIOPin) (*Device, error) {
	d := &Device{bus: b, gpio: gpio, cs: cs, hasCS: gpio != nil}
	if d.hasCS {
		if err := gpio.ConfigureOutput(cs); err != nil {
			return nil, fmt.Errorf("tmc5240: cs pin %d: %w", cs, err)
		}
		if err := gpio.SetPin(cs, true); err != nil {
			return nil, fmt.Errorf("tmc5240: cs pin %d: %w", cs, err)
		}
	}
	return d, nil
}

// transfer runs one 40-bit datagram: address byte then 32-bit big-endian
// data. It returns the 32-bit payload of the reply.
func (d *Device) transfer(addr uint8, value uint32) (uint32, error) {
	tx := [DatagramSize]byte{addr, byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}
	var rx [DatagramSize]byte

	d.bus.mu.Lock()
	defer d.bus.mu.Unlock()

	if d.hasCS {
		if err := d.gpio.SetPin(d.cs, false); err != nil {
			return 0, err
		}
	}
	err := d.bus.spi.Tx(tx[:], rx[:])
	if d.hasCS {
		if csErr := d.gpio.SetPin(d.cs, true); err == nil {
			err = csErr
		}
	}
	if err != nil {
		return 0, err
	}
	d.status = rx[0]
	return uint32(rx[1])<<24 | uint32(rx[2])<<16 | uint32(rx[3])<<8 | uint32(rx[4]), nil
}

// WriteRegister writes a 32-bit register.
func (d *Device) WriteRegister(addr uint8, value uint32) error {
	if _, err := d.transfer((addr&RegisterAddrMask)|WriteBit, value); err != nil {
		return fmt.Errorf("tmc5240: write 0x%02X: %w", addr, err)
	}
	return nil
}

// ReadRegister reads a 32-bit register. The chip answers a read request
// in the following datagram, so this takes two transfers.
func (d *Device) ReadRegister(addr uint8) (uint32, error) {
	addr &= RegisterAddrMask
	if _, err := d.transfer(addr, 0); err != nil {
		return 0, fmt.Errorf("tmc5240: read 0x%02X: %w", addr, err)
	}
	v, err := d.transfer(addr, 0)
	if err != nil {
		return 0, fmt.Errorf("tmc5240: read 0x%02X: %w", addr, err)
	}
	return v, nil
}

// SPIStatus returns the status byte of the latest datagram.
func (d *Device) SPIStatus() uint8 {
	d.bus.mu.Lock()
	defer d.bus.mu.Unlock()
	return d.status
}
