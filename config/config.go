// Package config maps a product description onto drivers and a
// core.Machine. Firmware compiles in Default(); host tools may also load
// products from YAML.
package config

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"

	"gostep/core"
	"gostep/drivers/sim"
	"gostep/drivers/stepdir"
	"gostep/drivers/tmc5240"
)

// DriverKind names a driver implementation.
type DriverKind string

const (
	DriverTMC5240 DriverKind = "tmc5240"
	DriverStepDir DriverKind = "stepdir"
	DriverSim     DriverKind = "sim" // scripted positioning driver, no hardware
)

var (
	ErrUnknownDriver  = errors.New("config: unknown driver")
	ErrMissingParams  = errors.New("config: missing driver parameters")
	ErrUnknownStepper = errors.New("config: limit switch names an unknown stepper")
)

// TMC5240 wires one TMC5240 on an SPI bus.
type TMC5240 struct {
	SPIBus     uint8        `yaml:"spi_bus"`
	CSPin      core.GPIOPin `yaml:"cs_pin"`
	HardwareCS bool         `yaml:"hardware_cs"`

	EnablePin *core.GPIOPin `yaml:"enable_pin,omitempty"`

	VMax             uint32 `yaml:"vmax"`
	AMax             uint32 `yaml:"amax"`
	DMax             uint32 `yaml:"dmax"`
	SwitchActiveHigh bool   `yaml:"switch_active_high"`
}

// StepDir wires one STEP/DIR driver.
type StepDir struct {
	StepPin    core.GPIOPin `yaml:"step_pin"`
	DirPin     core.GPIOPin `yaml:"dir_pin"`
	InvertStep bool         `yaml:"invert_step"`
	InvertDir  bool         `yaml:"invert_dir"`

	EnablePin        *core.GPIOPin `yaml:"enable_pin,omitempty"`
	EnableActiveHigh bool          `yaml:"enable_active_high"`
}

// Sim configures the scripted positioning driver.
type Sim struct {
	StepsPerPoll int32 `yaml:"steps_per_poll"`
}

// Stepper is one entry of the stepper map.
type Stepper struct {
	ID        uint8      `yaml:"id"`
	Driver    DriverKind `yaml:"driver"`
	USPerStep uint32     `yaml:"us_per_step"`

	TMC5240 *TMC5240 `yaml:"tmc5240,omitempty"`
	StepDir *StepDir `yaml:"stepdir,omitempty"`
	Sim     *Sim     `yaml:"sim,omitempty"`
}

// Limit is a limit switch input tied to one stepper.
type Limit struct {
	Name       string       `yaml:"name"`
	Stepper    uint8        `yaml:"stepper"`
	Pin        core.GPIOPin `yaml:"pin"`
	ActiveHigh bool         `yaml:"active_high"`
	Samples    uint8        `yaml:"samples"`
}

// Product describes every motor of one board.
type Product struct {
	Name     string    `yaml:"name"`
	TickUS   uint32    `yaml:"tick_us"`
	Steppers []Stepper `yaml:"steppers"`
	Limits   []Limit   `yaml:"limits,omitempty"`
}

// Reference board pins: SPI1 on GP10-12, chip selects on GP13 and GP14,
// and both drivers share DRV_EN on GP15.
const (
	DefaultCS0    core.GPIOPin = 13
	DefaultCS1    core.GPIOPin = 14
	DefaultEnable core.GPIOPin = 15
	DefaultSPIBus              = 1
	DefaultTickUS              = 100
)

// Default returns the reference product: two TMC5240s sharing SPI bus 1
// and one enable line.
func Default() *Product {
	enable := DefaultEnable
	chip := func(cs core.GPIOPin) *TMC5240 {
		return &TMC5240{
			SPIBus:    DefaultSPIBus,
			CSPin:     cs,
			EnablePin: &enable,
			VMax:      tmc5240.DefaultVMax,
			AMax:      tmc5240.DefaultAMax,
			DMax:      tmc5240.DefaultDMax,
		}
	}
	return &Product{
		Name:   "dual-tmc5240",
		TickUS: DefaultTickUS,
		Steppers: []Stepper{
			{ID: 0, Driver: DriverTMC5240, TMC5240: chip(DefaultCS0)},
			{ID: 1, Driver: DriverTMC5240, TMC5240: chip(DefaultCS1)},
		},
	}
}

func applyDefaults(p *Product) {
	if p.TickUS == 0 {
		p.TickUS = DefaultTickUS
	}
	for i := range p.Steppers {
		s := &p.Steppers[i]
		if s.Driver == "" {
			s.Driver = DriverTMC5240
		}
		if t := s.TMC5240; t != nil {
			if t.VMax == 0 {
				t.VMax = tmc5240.DefaultVMax
			}
			if t.AMax == 0 {
				t.AMax = tmc5240.DefaultAMax
			}
			if t.DMax == 0 {
				t.DMax = tmc5240.DefaultDMax
			}
		}
	}
	for i := range p.Limits {
		if p.Limits[i].Samples == 0 {
			p.Limits[i].Samples = 3
		}
		if p.Limits[i].Name == "" {
			p.Limits[i].Name = "limit" + fmt.Sprint(i)
		}
	}
}

// Validate checks the product without touching hardware.
func (p *Product) Validate() error {
	if len(p.Steppers) > core.GroupCapacity {
		return fmt.Errorf("config: %d steppers, at most %d: %w", len(p.Steppers), core.GroupCapacity, core.ErrTooManySteppers)
	}
	seen := make(map[uint8]bool, len(p.Steppers))
	for _, s := range p.Steppers {
		if seen[s.ID] {
			return fmt.Errorf("config: stepper %d: %w", s.ID, core.ErrDuplicateID)
		}
		seen[s.ID] = true

		switch s.Driver {
		case DriverTMC5240:
			if s.TMC5240 == nil {
				return fmt.Errorf("config: stepper %d: %w", s.ID, ErrMissingParams)
			}
			cfg := tmc5240.Config{VMax: s.TMC5240.VMax, AMax: s.TMC5240.AMax, DMax: s.TMC5240.DMax}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: stepper %d: %w", s.ID, err)
			}
		case DriverStepDir:
			if s.StepDir == nil {
				return fmt.Errorf("config: stepper %d: %w", s.ID, ErrMissingParams)
			}
		case DriverSim:
		default:
			return fmt.Errorf("config: stepper %d driver %q: %w", s.ID, s.Driver, ErrUnknownDriver)
		}
	}
	for _, l := range p.Limits {
		if !seen[l.Stepper] {
			return fmt.Errorf("config: limit %q stepper %d: %w", l.Name, l.Stepper, ErrUnknownStepper)
		}
	}
	return nil
}

// Hardware is what a board offers to Build.
type Hardware interface {
	GPIO() core.GPIODriver
	SPI(bus uint8) (drivers.SPI, error)
}

// BackendProvider is implemented by boards with a dedicated step pulse
// generator. Build falls back to bit-banged GPIO without it.
type BackendProvider interface {
	StepBackend(cfg StepDir) (core.StepperBackend, error)
}

// Build constructs the drivers of p on hw and a machine owning them. The
// motors are left disabled.
func Build(p *Product, hw Hardware) (*core.Machine, error) {
	applyDefaults(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b := builder{hw: hw, buses: make(map[uint8]*tmc5240.Bus)}
	bindings := make([]core.Binding, 0, len(p.Steppers))
	for _, s := range p.Steppers {
		drv, err := b.driver(s)
		if err != nil {
			return nil, fmt.Errorf("config: stepper %d: %w", s.ID, err)
		}
		bindings = append(bindings, core.Binding{ID: s.ID, Driver: drv, USPerStep: s.USPerStep})
	}

	m, err := core.NewMachine(bindings...)
	if err != nil {
		return nil, err
	}

	for _, l := range p.Limits {
		ls, err := core.NewLimitSwitch(l.Name, hw.GPIO(), l.Pin, l.ActiveHigh, l.Samples, m.Stepper(l.Stepper))
		if err != nil {
			return nil, fmt.Errorf("config: limit %q: %w", l.Name, err)
		}
		m.AddLimitSwitch(ls)
	}
	return m, nil
}

type builder struct {
	hw    Hardware
	buses map[uint8]*tmc5240.Bus
}

func (b *builder) bus(n uint8) (*tmc5240.Bus, error) {
	if bus, ok := b.buses[n]; ok {
		return bus, nil
	}
	spi, err := b.hw.SPI(n)
	if err != nil {
		return nil, err
	}
	bus, err := tmc5240.NewBus(spi)
	if err != nil {
		return nil, err
	}
	b.buses[n] = bus
	return bus, nil
}

func (b *builder) driver(s Stepper) (core.Driver, error) {
	switch s.Driver {
	case DriverTMC5240:
		return b.tmc5240(s.TMC5240)
	case DriverStepDir:
		return b.stepDir(s.StepDir)
	case DriverSim:
		var steps int32
		if s.Sim != nil {
			steps = s.Sim.StepsPerPoll
		}
		return sim.NewMoveTo(steps), nil
	}
	return nil, ErrUnknownDriver
}

func (b *builder) tmc5240(c *TMC5240) (core.Driver, error) {
	bus, err := b.bus(c.SPIBus)
	if err != nil {
		return nil, err
	}
	var csGPIO core.GPIODriver
	if !c.HardwareCS {
		csGPIO = b.hw.GPIO()
	}
	dev, err := bus.Device(csGPIO, c.CSPin)
	if err != nil {
		return nil, err
	}
	cfg := tmc5240.Config{
		VMax:             c.VMax,
		AMax:             c.AMax,
		DMax:             c.DMax,
		SwitchActiveHigh: c.SwitchActiveHigh,
	}
	if c.EnablePin != nil {
		cfg.EnablePin, cfg.UseEnablePin = *c.EnablePin, true
	}
	return tmc5240.New(dev, b.hw.GPIO(), cfg)
}

func (b *builder) stepDir(c *StepDir) (core.Driver, error) {
	cfg := stepdir.Config{
		StepPin:          c.StepPin,
		DirPin:           c.DirPin,
		InvertStep:       c.InvertStep,
		InvertDir:        c.InvertDir,
		EnableActiveHigh: c.EnableActiveHigh,
	}
	if c.EnablePin != nil {
		cfg.EnablePin, cfg.UseEnablePin = *c.EnablePin, true
	}
	if bp, ok := b.hw.(BackendProvider); ok {
		backend, err := bp.StepBackend(*c)
		if err != nil {
			return nil, err
		}
		return stepdir.New(backend, b.hw.GPIO(), cfg)
	}
	return stepdir.NewGPIO(b.hw.GPIO(), cfg)
}
