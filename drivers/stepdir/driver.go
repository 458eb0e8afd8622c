// Package stepdir drives plain STEP/DIR stepper drivers (A4988, DRV8825,
// TMC2209 in step mode). The motion core times the pulses; a
// core.StepperBackend produces them.
package stepdir

import (
	"errors"

	"gostep/core"
)

// Config describes the wiring of one STEP/DIR driver.
type Config struct {
	StepPin    core.GPIOPin
	DirPin     core.GPIOPin
	InvertStep bool
	InvertDir  bool

	// EnablePin is the driver's enable input, active low unless
	// EnableActiveHigh. Ignored when UseEnablePin is false.
	EnablePin        core.GPIOPin
	UseEnablePin     bool
	EnableActiveHigh bool
}

var ErrNilBackend = errors.New("stepdir: nil backend")

// Driver implements core.StepDirDriver and core.Halter.
type Driver struct {
	backend core.StepperBackend
	gpio    core.GPIODriver
	cfg     Config
}

// New returns a driver pulsing through backend. gpio drives the enable
// pin and may be nil when cfg.UseEnablePin is false.
func New(backend core.StepperBackend, gpio core.GPIODriver, cfg Config) (*Driver, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if cfg.UseEnablePin && gpio == nil {
		return nil, errors.New("stepdir: enable pin needs a GPIO driver")
	}
	return &Driver{backend: backend, gpio: gpio, cfg: cfg}, nil
}

// NewGPIO returns a driver bit-banging its pulses on gpio.
func NewGPIO(gpio core.GPIODriver, cfg Config) (*Driver, error) {
	if gpio == nil {
		return nil, errors.New("stepdir: nil GPIO driver")
	}
	return New(NewGPIOBackend(gpio), gpio, cfg)
}

// Backend returns the pulse backend.
func (d *Driver) Backend() core.StepperBackend {
	return d.backend
}

// Init claims the pins and leaves the output stage disabled.
func (d *Driver) Init() error {
	if err := d.backend.Init(d.cfg.StepPin, d.cfg.DirPin, d.cfg.InvertStep, d.cfg.InvertDir); err != nil {
		return err
	}
	if !d.cfg.UseEnablePin {
		return nil
	}
	if err := d.gpio.ConfigureOutput(d.cfg.EnablePin); err != nil {
		return err
	}
	return d.gpio.SetPin(d.cfg.EnablePin, !d.cfg.EnableActiveHigh)
}

// SetEnable drives the enable pin. Without an enable pin the driver is
// hard-wired armed and this succeeds without I/O.
func (d *Driver) SetEnable(on bool) error {
	if !d.cfg.UseEnablePin {
		return nil
	}
	return d.gpio.SetPin(d.cfg.EnablePin, on == d.cfg.EnableActiveHigh)
}

// SetDirection sets the direction line for the following pulses.
func (d *Driver) SetDirection(forward bool) error {
	d.backend.SetDirection(!forward)
	return nil
}

// StepPulse issues one step.
func (d *Driver) StepPulse() error {
	d.backend.Step()
	return nil
}

// Halt returns the step line to idle.
func (d *Driver) Halt() error {
	d.backend.Stop()
	return nil
}
