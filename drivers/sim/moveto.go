package sim

import "sync"

// MoveTo is a scripted positioning driver. Each PositionReached poll
// advances the position by StepsPerPoll toward the target; the target is
// reached on the poll that closes the distance.
type MoveTo struct {
	mu       sync.Mutex
	enabled  bool
	target   int32
	position int32
	polls    int
	limits   bool
	accel    uint32

	StepsPerPoll int32
	FailWith     error
}

// NewMoveTo returns a driver that moves stepsPerPoll per poll. Zero means
// every move completes on its first poll.
func NewMoveTo(stepsPerPoll int32) *MoveTo {
	return &MoveTo{StepsPerPoll: stepsPerPoll}
}

func (d *MoveTo) SetEnable(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return d.FailWith
	}
	d.enabled = on
	return nil
}

func (d *MoveTo) MoveTo(position int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return d.FailWith
	}
	d.target = position
	return nil
}

func (d *MoveTo) PositionReached() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return false, d.FailWith
	}
	d.polls++
	if !d.enabled {
		return d.position == d.target, nil
	}
	dist := d.target - d.position
	step := d.StepsPerPoll
	if step <= 0 || dist <= step && dist >= -step {
		d.position = d.target
		return true, nil
	}
	if dist < 0 {
		step = -step
	}
	d.position += step
	return false, nil
}

func (d *MoveTo) Position() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position, d.FailWith
}

func (d *MoveTo) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = d.position
	return d.FailWith
}

func (d *MoveTo) ConfigureLimits(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.limits = enable
	return d.FailWith
}

func (d *MoveTo) SetAcceleration(accel uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accel = accel
	return d.FailWith
}

// Polls returns the number of PositionReached calls.
func (d *MoveTo) Polls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

// LimitsEnabled reports the last ConfigureLimits value.
func (d *MoveTo) LimitsEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.limits
}

// Acceleration returns the last SetAcceleration value.
func (d *MoveTo) Acceleration() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accel
}
