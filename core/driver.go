package core

// Driver is the contract every motor driver satisfies. Everything beyond
// arming the output stage is optional and discovered from the method set.
type Driver interface {
	// SetEnable arms (true) or disarms (false) the driver output stage.
	SetEnable(on bool) error
}

// Initializer is implemented by drivers that need hardware bring-up
// before first use (register writes, pin setup).
type Initializer interface {
	Init() error
}

// StepDirDriver drives a motor with discrete step pulses. Implementing it
// grants CapStepDir.
type StepDirDriver interface {
	Driver
	// SetDirection selects the direction of the following pulses.
	SetDirection(forward bool) error
	// StepPulse issues exactly one step. Must be bounded latency, it is
	// called from the motion tick.
	StepPulse() error
}

// MoveToDriver accepts an absolute target and ramps to it internally.
// Implementing it grants CapMoveTo.
type MoveToDriver interface {
	Driver
	MoveTo(position int32) error
	// PositionReached reports whether the last MoveTo target is reached.
	PositionReached() (bool, error)
}

// PositionFeedback reads the actual position from the driver.
type PositionFeedback interface {
	Position() (int32, error)
}

// LimitDriver handles end-of-travel switches in hardware.
type LimitDriver interface {
	ConfigureLimits(enable bool) error
}

// Halter stops a hardware ramp in progress.
type Halter interface {
	Halt() error
}

// AccelerationSetter configures the hardware ramp acceleration.
type AccelerationSetter interface {
	SetAcceleration(accel uint32) error
}

// Capability is a set of optional driver features.
type Capability uint8

const (
	CapStepDir Capability = 1 << iota
	CapMoveTo
	CapPositionFeedback
	CapLimits
)

// Capabilities derives the capability set from the driver's method set.
// A nil driver has none.
func Capabilities(d Driver) Capability {
	if d == nil {
		return 0
	}
	var c Capability
	if _, ok := d.(StepDirDriver); ok {
		c |= CapStepDir
	}
	if _, ok := d.(MoveToDriver); ok {
		c |= CapMoveTo
	}
	if _, ok := d.(PositionFeedback); ok {
		c |= CapPositionFeedback
	}
	if _, ok := d.(LimitDriver); ok {
		c |= CapLimits
	}
	return c
}

// Has reports whether every bit of f is present in c.
func (c Capability) Has(f Capability) bool {
	return c&f == f
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if c.Has(CapStepDir) {
		add("STEP_DIR")
	}
	if c.Has(CapMoveTo) {
		add("MOVE_TO")
	}
	if c.Has(CapPositionFeedback) {
		add("POSITION_FB")
	}
	if c.Has(CapLimits) {
		add("LIMITS")
	}
	return s
}
