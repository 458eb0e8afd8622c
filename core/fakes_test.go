package core

import (
	"errors"
	"sync"
)

var errBus = errors.New("bus error")

// stepDirFake records STEP/DIR calls.
type stepDirFake struct {
	enabled bool
	forward bool
	pulses  int
	halts   int
	stepErr error
	inits   int
	onPulse func()
}

func (d *stepDirFake) SetEnable(on bool) error { d.enabled = on; return nil }

func (d *stepDirFake) SetDirection(forward bool) error { d.forward = forward; return nil }

func (d *stepDirFake) StepPulse() error {
	d.pulses++
	if d.onPulse != nil {
		d.onPulse()
	}
	return d.stepErr
}

func (d *stepDirFake) Halt() error { d.halts++; return nil }

func (d *stepDirFake) Init() error { d.inits++; return nil }

// moveToFake reaches its target after reachAfter polls.
type moveToFake struct {
	enabled    bool
	target     int32
	position   int32
	polls      int
	reachAfter int
	limits     bool
	accel      uint32
	halts      int
	initErr    error
	pollErr    error
}

func (d *moveToFake) Init() error { return d.initErr }

func (d *moveToFake) SetEnable(on bool) error { d.enabled = on; return nil }

func (d *moveToFake) MoveTo(position int32) error {
	d.target = position
	d.polls = 0
	return nil
}

func (d *moveToFake) PositionReached() (bool, error) {
	if d.pollErr != nil {
		return false, d.pollErr
	}
	d.polls++
	if d.polls >= d.reachAfter {
		d.position = d.target
		return true, nil
	}
	return false, nil
}

func (d *moveToFake) Position() (int32, error) { return d.position, nil }

func (d *moveToFake) ConfigureLimits(enable bool) error { d.limits = enable; return nil }

func (d *moveToFake) SetAcceleration(accel uint32) error { d.accel = accel; return nil }

func (d *moveToFake) Halt() error { d.halts++; return nil }

// enableOnly has no motion capability at all.
type enableOnly struct{ enabled bool }

func (d *enableOnly) SetEnable(on bool) error { d.enabled = on; return nil }

// pinBank is a GPIODriver over a map of levels.
type pinBank struct {
	mu     sync.Mutex
	levels map[GPIOPin]bool
}

func newPinBank() *pinBank {
	return &pinBank{levels: make(map[GPIOPin]bool)}
}

func (b *pinBank) ConfigureOutput(p GPIOPin) error { return nil }

func (b *pinBank) ConfigureInputPullUp(p GPIOPin) error { return b.SetPin(p, true) }

func (b *pinBank) ConfigureInputPullDown(p GPIOPin) error { return b.SetPin(p, false) }

func (b *pinBank) SetPin(p GPIOPin, v bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[p] = v
	return nil
}

func (b *pinBank) GetPin(p GPIOPin) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[p], nil
}

func (b *pinBank) ReadPin(p GPIOPin) bool {
	v, _ := b.GetPin(p)
	return v
}

// trackingStepDir is a STEP/DIR driver that also counts its own position.
// onRead, if set, runs once on the next Position call.
type trackingStepDir struct {
	stepDirFake
	position int32
	onRead   func()
}

func (d *trackingStepDir) StepPulse() error {
	if d.forward {
		d.position++
	} else {
		d.position--
	}
	return d.stepDirFake.StepPulse()
}

func (d *trackingStepDir) Position() (int32, error) {
	if h := d.onRead; h != nil {
		d.onRead = nil
		h()
	}
	return d.position, nil
}
