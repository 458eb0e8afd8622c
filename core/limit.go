// Limit switch handling for GPIO end-of-travel sensors
package core

import "errors"

// Limit switch flags
const (
	LSF_ACTIVE_HIGH = 1 << 0 // pin reads high when the switch is triggered
	LSF_TRIPPED     = 1 << 1 // activation reported, waiting for release
)

// LimitSwitch is a GPIO end-of-travel input stopping one stepper. It can
// be sampled from the tick (Poll, with debounce) or fired directly from a
// pin interrupt (Trigger). Either way the stepper sees one HitLimit per
// activation.
type LimitSwitch struct {
	Name        string
	Pin         GPIOPin
	Flags       uint8
	SampleCount uint8 // consecutive active samples required by Poll

	gpio         GPIODriver
	stepper      *Stepper
	triggerCount uint8
	cs           critical
}

var (
	ErrNilGPIO    = errors.New("limit switch: nil GPIO driver")
	ErrNilStepper = errors.New("limit switch: nil stepper")
)

// NewLimitSwitch configures pin as an input and binds it to s. An
// active-low switch gets a pull-up, an active-high one a pull-down.
func NewLimitSwitch(name string, gpio GPIODriver, pin GPIOPin, activeHigh bool, samples uint8, s *Stepper) (*LimitSwitch, error) {
	if gpio == nil {
		return nil, ErrNilGPIO
	}
	if s == nil {
		return nil, ErrNilStepper
	}
	if samples == 0 {
		samples = 1
	}

	ls := &LimitSwitch{
		Name:        name,
		Pin:         pin,
		SampleCount: samples,
		gpio:        gpio,
		stepper:     s,
	}
	var err error
	if activeHigh {
		ls.Flags |= LSF_ACTIVE_HIGH
		err = gpio.ConfigureInputPullDown(pin)
	} else {
		err = gpio.ConfigureInputPullUp(pin)
	}
	if err != nil {
		return nil, err
	}
	ls.triggerCount = samples
	return ls, nil
}

// Stepper returns the stepper this switch stops.
func (ls *LimitSwitch) Stepper() *Stepper {
	return ls.stepper
}

// Active reports whether the pin currently reads as triggered.
func (ls *LimitSwitch) Active() bool {
	pinHigh := ls.gpio.ReadPin(ls.Pin)
	expectHigh := ls.Flags&LSF_ACTIVE_HIGH != 0
	return pinHigh == expectHigh
}

// Poll samples the pin once. After SampleCount consecutive active
// samples it reports the activation; the switch re-arms once a sample
// reads inactive.
func (ls *LimitSwitch) Poll() {
	active := ls.Active()

	st := ls.cs.enter()
	if !active {
		ls.Flags &^= LSF_TRIPPED
		ls.triggerCount = ls.SampleCount
		ls.cs.exit(st)
		return
	}
	if ls.Flags&LSF_TRIPPED != 0 {
		ls.cs.exit(st)
		return
	}
	ls.triggerCount--
	fire := ls.triggerCount == 0
	if fire {
		ls.Flags |= LSF_TRIPPED
		ls.triggerCount = ls.SampleCount
	}
	ls.cs.exit(st)

	if fire {
		ls.stepper.HitLimit(ls)
	}
}

// Trigger reports an activation immediately, skipping debounce. Safe from
// a pin interrupt handler. Repeated triggers before release are ignored.
func (ls *LimitSwitch) Trigger() {
	st := ls.cs.enter()
	if ls.Flags&LSF_TRIPPED != 0 {
		ls.cs.exit(st)
		return
	}
	ls.Flags |= LSF_TRIPPED
	ls.cs.exit(st)

	ls.stepper.HitLimit(ls)
}

// Tripped reports whether an activation was reported and the switch has
// not been released since.
func (ls *LimitSwitch) Tripped() bool {
	st := ls.cs.enter()
	defer ls.cs.exit(st)
	return ls.Flags&LSF_TRIPPED != 0
}
