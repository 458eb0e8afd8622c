//go:build rp2040

package main

import (
	"errors"
	"machine"

	"gostep/core"
)

// RP2040 has GPIO0-GPIO29
const numPins = 30

var errBadPin = errors.New("gpio: no such pin")

// gpioDriver implements core.GPIODriver on machine.Pin. Pin numbers map
// directly to GPIO numbers.
type gpioDriver struct {
	// configured pins, so reads of unconfigured pins return low
	configured [numPins]bool
}

func (d *gpioDriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if pin >= numPins {
		return errBadPin
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: mode})
	d.configured[pin] = true
	return nil
}

func (d *gpioDriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

func (d *gpioDriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *gpioDriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

// SetPin configures pin as an output on first use.
func (d *gpioDriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= numPins {
		return errBadPin
	}
	if !d.configured[pin] {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
	}
	machine.Pin(pin).Set(value)
	return nil
}

func (d *gpioDriver) GetPin(pin core.GPIOPin) (bool, error) {
	if pin >= numPins {
		return false, errBadPin
	}
	if !d.configured[pin] {
		return false, nil
	}
	return machine.Pin(pin).Get(), nil
}

func (d *gpioDriver) ReadPin(pin core.GPIOPin) bool {
	v, _ := d.GetPin(pin)
	return v
}
