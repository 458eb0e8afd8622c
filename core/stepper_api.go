package core

import "time"

// AwaitPollInterval is how often AwaitStop and AwaitLimit re-check state.
var AwaitPollInterval = time.Millisecond

// Start arms the driver.
func (s *Stepper) Start() {
	s.Enable(true)
}

// Disable disarms the driver. Pending motion state is kept.
func (s *Stepper) Disable() {
	s.Enable(false)
}

// Move is MoveToPosition under its convenience-API name.
func (s *Stepper) Move(position int32) {
	s.MoveToPosition(position)
}

// Stop cancels the current move. It takes effect before the next Update.
// Drivers with an internal ramp are also told to halt.
func (s *Stepper) Stop() {
	if s == nil {
		return
	}
	st := s.cs.enter()
	s.busy.Store(false)
	s.stepsRemaining = 0
	s.usAccumulator = 0
	s.cs.exit(st)

	if h, ok := s.driver.(Halter); ok {
		s.noteFault(h.Halt())
	}
	s.events.Record(EvtStop, s.id, 0)
}

// IsMoving reports whether a commanded move has not yet completed.
func (s *Stepper) IsMoving() bool {
	return s != nil && s.busy.Load()
}

// EnableLimits arms HitLimit and clears a stale limit hit. Drivers with
// hardware limit handling are switched on as well.
func (s *Stepper) EnableLimits() {
	if s == nil {
		return
	}
	s.limitHit.Store(false)
	s.limitsEnabled.Store(true)
	if ld, ok := s.driver.(LimitDriver); ok {
		s.noteFault(ld.ConfigureLimits(true))
	}
	s.events.Record(EvtLimitsArm, s.id, 1)
}

// DisableLimits makes HitLimit a no-op again.
func (s *Stepper) DisableLimits() {
	if s == nil {
		return
	}
	s.limitsEnabled.Store(false)
	if ld, ok := s.driver.(LimitDriver); ok {
		s.noteFault(ld.ConfigureLimits(false))
	}
	s.events.Record(EvtLimitsArm, s.id, 0)
}

// SetAcceleration forwards the ramp acceleration to drivers that have a
// ramp generator. Others ignore it.
func (s *Stepper) SetAcceleration(accel uint32) {
	if s == nil {
		return
	}
	if a, ok := s.driver.(AccelerationSetter); ok {
		s.noteFault(a.SetAcceleration(accel))
	}
}

// AwaitStop waits until the stepper is no longer moving. It does not call
// Update itself: a tick source must keep running, or this only returns on
// timeout. A zero timeout waits forever. Returns false on timeout.
func (s *Stepper) AwaitStop(timeout time.Duration) bool {
	if s == nil {
		return true
	}
	return await(func() bool { return !s.busy.Load() }, timeout)
}

// AwaitLimit waits until a limit hit is registered. Same rules as
// AwaitStop.
func (s *Stepper) AwaitLimit(timeout time.Duration) bool {
	if s == nil {
		return false
	}
	return await(s.limitHit.Load, timeout)
}

func await(cond func() bool, timeout time.Duration) bool {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for !cond() {
		if timeout > 0 && !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(AwaitPollInterval)
	}
	return true
}
