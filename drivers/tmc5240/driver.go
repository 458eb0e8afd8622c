// Package tmc5240 drives a TMC5240 smart stepper driver over SPI in
// positioning mode. The chip's internal ramp generator does the motion;
// the motion core only writes targets and polls for arrival.
package tmc5240

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"gostep/core"
)

// Config holds per-motor ramp and wiring parameters.
type Config struct {
	VMax uint32
	AMax uint32
	DMax uint32

	// EnablePin is the active-low DRV_ENN input. Ignored when
	// UseEnablePin is false.
	EnablePin    core.GPIOPin
	UseEnablePin bool

	// SwitchActiveHigh sets the polarity of the REFL/REFR stop inputs.
	SwitchActiveHigh bool
}

// DefaultConfig returns the ramp parameters of the reference board.
func DefaultConfig() Config {
	return Config{VMax: DefaultVMax, AMax: DefaultAMax, DMax: DefaultDMax}
}

func (c *Config) applyDefaults() {
	if c.VMax == 0 {
		c.VMax = DefaultVMax
	}
	if c.AMax == 0 {
		c.AMax = DefaultAMax
	}
	if c.DMax == 0 {
		c.DMax = DefaultDMax
	}
}

// Validate rejects values the 23-bit velocity and 18-bit acceleration
// registers cannot hold.
func (c Config) Validate() error {
	if c.VMax >= 1<<23 {
		return fmt.Errorf("tmc5240: vmax 0x%X exceeds 23 bits", c.VMax)
	}
	if c.AMax >= 1<<18 || c.DMax >= 1<<18 {
		return fmt.Errorf("tmc5240: amax/dmax 0x%X/0x%X exceed 18 bits", c.AMax, c.DMax)
	}
	return nil
}

// Driver implements core.MoveToDriver, core.PositionFeedback,
// core.LimitDriver, core.Halter and core.AccelerationSetter.
type Driver struct {
	dev  *Device
	gpio core.GPIODriver
	cfg  Config
}

// New returns a driver for the chip on dev. Zero ramp values fall back to
// DefaultConfig. gpio drives the enable pin and may be nil when
// cfg.UseEnablePin is false.
func New(dev *Device, gpio core.GPIODriver, cfg Config) (*Driver, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UseEnablePin && gpio == nil {
		return nil, errors.New("tmc5240: enable pin needs a GPIO driver")
	}
	return &Driver{dev: dev, gpio: gpio, cfg: cfg}, nil
}

// Config returns the driver's current ramp configuration.
func (d *Driver) Config() Config {
	return d.cfg
}

// Init brings the chip up. The output stage stays disabled; the motor
// holds until the first MoveTo.
func (d *Driver) Init() error {
	if d.cfg.UseEnablePin {
		if err := d.gpio.ConfigureOutput(d.cfg.EnablePin); err != nil {
			return err
		}
		if err := d.gpio.SetPin(d.cfg.EnablePin, true); err != nil {
			return err
		}
	}

	seq := []struct {
		addr  uint8
		value uint32
	}{
		{RegGCONF, DefaultGConf},
		{RegDRVCONF, DefaultDrvConf},
		{RegGlobalScaler, DefaultGlobalScaler},
		{RegIHoldIRun, DefaultIHoldIRun},
		{RegTPowerDown, DefaultTPowerDown},
		{RegCHOPCONF, DefaultChopConf},
		{RegAMax, d.cfg.AMax},
		{RegDMax, d.cfg.DMax},
		{RegVMax, d.cfg.VMax},
		{RegTVMax, DefaultTVMax},
		{RegRampMode, ModePosition},
		{RegXActual, 0},
	}
	var err error
	for _, w := range seq {
		err = multierr.Append(err, d.dev.WriteRegister(w.addr, w.value))
	}
	return err
}

// SetEnable drives DRV_ENN (active low) and switches GCONF.
func (d *Driver) SetEnable(on bool) error {
	var err error
	if d.cfg.UseEnablePin {
		err = d.gpio.SetPin(d.cfg.EnablePin, !on)
	}
	gconf := uint32(0)
	if on {
		gconf = DefaultGConf
	}
	return multierr.Append(err, d.dev.WriteRegister(RegGCONF, gconf))
}

// MoveTo starts a positioning ramp to position. VMAX is rewritten in case
// a Halt zeroed it.
func (d *Driver) MoveTo(position int32) error {
	return multierr.Combine(
		d.dev.WriteRegister(RegRampMode, ModePosition),
		d.dev.WriteRegister(RegVMax, d.cfg.VMax),
		d.dev.WriteRegister(RegXTarget, uint32(position)),
	)
}

// PositionReached reports RAMP_STAT.position_reached.
func (d *Driver) PositionReached() (bool, error) {
	stat, err := d.dev.ReadRegister(RegRampStat)
	if err != nil {
		return false, err
	}
	return stat&RampStatPositionReached != 0, nil
}

// Position reads XACTUAL.
func (d *Driver) Position() (int32, error) {
	v, err := d.dev.ReadRegister(RegXActual)
	return int32(v), err
}

// Halt decelerates to standstill with DMAX by zeroing VMAX.
func (d *Driver) Halt() error {
	return d.dev.WriteRegister(RegVMax, 0)
}

// SetAcceleration sets both AMAX and DMAX.
func (d *Driver) SetAcceleration(accel uint32) error {
	if accel == 0 || accel >= 1<<18 {
		return fmt.Errorf("tmc5240: acceleration %d out of range", accel)
	}
	if err := multierr.Combine(
		d.dev.WriteRegister(RegAMax, accel),
		d.dev.WriteRegister(RegDMax, accel),
	); err != nil {
		return err
	}
	d.cfg.AMax, d.cfg.DMax = accel, accel
	return nil
}

// ConfigureLimits makes the chip stop on its REFL/REFR inputs.
func (d *Driver) ConfigureLimits(enable bool) error {
	mode := uint32(0)
	if enable {
		mode = SWModeStopLEnable | SWModeStopREnable
		if d.cfg.SwitchActiveHigh {
			mode |= SWModePolStopL | SWModePolStopR
		}
	}
	return d.dev.WriteRegister(RegSWMode, mode)
}

// Status is a decoded DRV_STATUS.
type Status uint32

var (
	ErrOvertemperature = errors.New("tmc5240: overtemperature shutdown")
	ErrShortCircuit    = errors.New("tmc5240: short circuit")
)

// Err returns the fault the status reports, or nil.
func (s Status) Err() error {
	switch {
	case s&DrvStatusOT != 0:
		return ErrOvertemperature
	case s&(DrvStatusS2GA|DrvStatusS2GB|DrvStatusS2VSA|DrvStatusS2VSB) != 0:
		return ErrShortCircuit
	}
	return nil
}

// Standstill reports DRV_STATUS.stst.
func (s Status) Standstill() bool {
	return s&DrvStatusStst != 0
}

// OvertemperatureWarning reports DRV_STATUS.otpw.
func (s Status) OvertemperatureWarning() bool {
	return s&DrvStatusOTPW != 0
}

// Status reads DRV_STATUS.
func (d *Driver) Status() (Status, error) {
	v, err := d.dev.ReadRegister(RegDrvStatus)
	return Status(v), err
}
