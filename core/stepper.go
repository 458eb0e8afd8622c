package core

import (
	"math"
	"sync/atomic"
)

// DoneFunc is called once per completed move, from inside the Update call
// that detected completion. It may run in interrupt context and must not
// block.
type DoneFunc func(s *Stepper)

// LimitFunc is called when a limit switch stops a stepper. sw is whatever
// the caller of HitLimit passed to identify the switch.
type LimitFunc func(s *Stepper, sw any)

type faultRecord struct {
	err error
}

// Stepper binds one motor driver to the uniform motion API.
//
// Two time sources touch a Stepper: the periodic Update tick and HitLimit,
// typically from a GPIO interrupt. Flags shared between them are atomics,
// and the part of Update that issues a step runs in a critical section
// that HitLimit and Stop also take, so no pulse follows a registered limit.
//
// Methods never return errors. A nil *Stepper is a valid no-op receiver.
type Stepper struct {
	id     uint8
	driver Driver
	caps   Capability

	// cached views of driver, nil when the capability is absent
	stepDir  StepDirDriver
	moveTo   MoveToDriver
	feedback PositionFeedback

	cs critical

	// guarded by cs
	target         int32
	position       int32 // shadow, advanced only by the STEP/DIR path
	stepsRemaining int32
	forward        bool
	usAccumulator  uint32
	onDone         DoneFunc
	onLimit        LimitFunc

	usPerStep     atomic.Uint32
	pulses        atomic.Uint32
	enabled       atomic.Bool
	busy          atomic.Bool
	limitsEnabled atomic.Bool
	limitHit      atomic.Bool

	fault  atomic.Pointer[faultRecord]
	events *EventLog
}

// NewStepper returns a stepper bound to d. See Init.
func NewStepper(id uint8, d Driver) *Stepper {
	s := &Stepper{}
	s.Init(id, d)
	return s
}

// Init binds the driver, zeroes all motion, timing and limit state, and
// runs the driver's Init hook if it has one. Calling Init again re-binds.
// A nil driver leaves the stepper untouched.
func (s *Stepper) Init(id uint8, d Driver) {
	if s == nil || d == nil {
		return
	}

	st := s.cs.enter()
	s.id = id
	s.driver = d
	s.caps = Capabilities(d)
	s.stepDir, _ = d.(StepDirDriver)
	s.moveTo, _ = d.(MoveToDriver)
	s.feedback, _ = d.(PositionFeedback)

	s.target = 0
	s.position = 0
	s.stepsRemaining = 0
	s.forward = false
	s.usAccumulator = 0
	s.onDone = nil
	s.onLimit = nil

	s.usPerStep.Store(0)
	s.pulses.Store(0)
	s.enabled.Store(false)
	s.busy.Store(false)
	s.limitsEnabled.Store(false)
	s.limitHit.Store(false)
	s.fault.Store(nil)
	s.cs.exit(st)

	if hw, ok := d.(Initializer); ok {
		s.noteFault(hw.Init())
	}
}

// ID returns the stepper's identity within its group.
func (s *Stepper) ID() uint8 {
	if s == nil {
		return 0
	}
	return s.id
}

// Driver returns the bound driver.
func (s *Stepper) Driver() Driver {
	if s == nil {
		return nil
	}
	return s.driver
}

// Capabilities returns the capability set of the bound driver.
func (s *Stepper) Capabilities() Capability {
	if s == nil {
		return 0
	}
	return s.caps
}

// SetEventLog attaches a motion event log. Pass nil to detach.
func (s *Stepper) SetEventLog(l *EventLog) {
	if s == nil {
		return
	}
	s.events = l
}

// Enable arms or disarms the driver and records the state. It does not
// affect a move in progress.
func (s *Stepper) Enable(on bool) {
	if s == nil || s.driver == nil {
		return
	}
	if err := s.driver.SetEnable(on); err != nil {
		s.noteFault(err)
		return
	}
	s.enabled.Store(on)
	s.events.Record(EvtEnable, s.id, boolValue(on))
}

// Enabled reports whether the driver output stage is armed.
func (s *Stepper) Enabled() bool {
	return s != nil && s.enabled.Load()
}

// SetSpeed sets the STEP/DIR pulse period in microseconds. Zero is
// coerced to 1. MOVE_TO drivers ignore it.
func (s *Stepper) SetSpeed(usPerStep uint32) {
	if s == nil {
		return
	}
	if usPerStep == 0 {
		usPerStep = 1
	}
	s.usPerStep.Store(usPerStep)
}

// Speed returns the STEP/DIR pulse period in microseconds.
func (s *Stepper) Speed() uint32 {
	if s == nil {
		return 0
	}
	return s.usPerStep.Load()
}

// MoveToPosition starts an absolute move. MOVE_TO drivers receive the
// target directly; STEP/DIR drivers get a step count from the current
// position. A driver with neither capability ignores the call.
//
// A move on a disabled stepper is accepted and starts once enabled.
func (s *Stepper) MoveToPosition(position int32) {
	if s == nil || (s.moveTo == nil && s.stepDir == nil) {
		return
	}

	var err error
	if s.moveTo != nil {
		st := s.cs.enter()
		s.target = position
		s.limitHit.Store(false)
		s.busy.Store(true)
		err = s.moveTo.MoveTo(position)
		s.cs.exit(st)
	} else {
		// the position read and the step count share one critical
		// section, so a tick cannot land a step between them
		st := s.cs.enter()
		current := s.position
		var readErr error
		if s.feedback != nil {
			var pos int32
			if pos, readErr = s.feedback.Position(); readErr == nil {
				current = pos
			}
		}
		delta := int64(position) - int64(current)
		s.target = position
		s.forward = delta >= 0
		if delta < 0 {
			delta = -delta
		}
		if delta > math.MaxInt32 {
			// one full-range move is at most MaxInt32 steps
			delta = math.MaxInt32
		}
		s.stepsRemaining = int32(delta)
		s.limitHit.Store(false)
		s.busy.Store(true)
		err = s.stepDir.SetDirection(s.forward)
		s.cs.exit(st)
		s.noteFault(readErr)
	}

	s.events.Record(EvtMoveStart, s.id, position)
	s.noteFault(err)
}

// MoveBy starts a move relative to the current position.
func (s *Stepper) MoveBy(delta int32) {
	if s == nil {
		return
	}
	s.MoveToPosition(s.Position() + delta)
}

// Update advances the motion state by deltaUS microseconds of elapsed
// time and reports whether the stepper is still moving.
//
// At most one step is issued per call. Time beyond one period stays in the
// accumulator for the following calls.
func (s *Stepper) Update(deltaUS uint32) bool {
	if s == nil || s.driver == nil || !s.enabled.Load() || !s.busy.Load() {
		return false
	}
	if s.moveTo != nil {
		return s.updateMoveTo()
	}
	if s.stepDir != nil {
		return s.updateStepDir(deltaUS)
	}
	return false
}

func (s *Stepper) updateMoveTo() bool {
	st := s.cs.enter()
	if !s.busy.Load() {
		s.cs.exit(st)
		return false
	}
	reached, err := s.moveTo.PositionReached()
	done := err == nil && reached
	if done {
		s.busy.Store(false)
	}
	cb := s.onDone
	s.cs.exit(st)

	if err != nil {
		s.noteFault(err)
		return true
	}
	if !done {
		return true
	}
	s.complete(cb)
	return false
}

func (s *Stepper) updateStepDir(deltaUS uint32) bool {
	period := s.usPerStep.Load()
	if period == 0 {
		period = 1
	}

	st := s.cs.enter()
	// HitLimit or Stop may have landed since the unlocked check.
	if !s.busy.Load() {
		s.cs.exit(st)
		return false
	}
	s.usAccumulator = addSaturating(s.usAccumulator, deltaUS)
	if s.usAccumulator < period {
		s.cs.exit(st)
		return true
	}
	s.usAccumulator -= period

	var err error
	if s.stepsRemaining > 0 {
		err = s.stepDir.StepPulse()
		s.stepsRemaining--
		if s.forward {
			s.position++
		} else {
			s.position--
		}
		s.pulses.Add(1)
	}
	done := s.stepsRemaining <= 0
	if done {
		s.stepsRemaining = 0
		s.usAccumulator = 0
		s.busy.Store(false)
	}
	cb := s.onDone
	s.cs.exit(st)

	s.noteFault(err)
	if done {
		s.complete(cb)
		return false
	}
	return true
}

func (s *Stepper) complete(cb DoneFunc) {
	s.events.Record(EvtMoveDone, s.id, s.Position())
	if cb != nil {
		cb(s)
	}
}

// PositionReached reports whether the last move has arrived. A nil
// stepper or one without a motion capability counts as reached.
func (s *Stepper) PositionReached() bool {
	if s == nil {
		return true
	}
	if s.moveTo != nil {
		reached, err := s.moveTo.PositionReached()
		if err != nil {
			s.noteFault(err)
			return false
		}
		return reached
	}
	if s.stepDir != nil {
		return s.StepsRemaining() == 0
	}
	return true
}

// Position returns the current position: driver feedback when available,
// otherwise the step-counted shadow for STEP/DIR drivers, otherwise 0.
func (s *Stepper) Position() int32 {
	if s == nil {
		return 0
	}
	if s.feedback != nil {
		pos, err := s.feedback.Position()
		if err == nil {
			return pos
		}
		s.noteFault(err)
	}
	if s.stepDir != nil && s.moveTo == nil {
		st := s.cs.enter()
		pos := s.position
		s.cs.exit(st)
		return pos
	}
	return 0
}

// Target returns the last commanded absolute position.
func (s *Stepper) Target() int32 {
	if s == nil {
		return 0
	}
	st := s.cs.enter()
	t := s.target
	s.cs.exit(st)
	return t
}

// StepsRemaining returns the pending STEP/DIR step count.
func (s *Stepper) StepsRemaining() int32 {
	if s == nil {
		return 0
	}
	st := s.cs.enter()
	n := s.stepsRemaining
	s.cs.exit(st)
	return n
}

// Forward reports the direction of the pending STEP/DIR move.
func (s *Stepper) Forward() bool {
	if s == nil {
		return false
	}
	st := s.cs.enter()
	f := s.forward
	s.cs.exit(st)
	return f
}

// Pulses returns the number of step pulses issued since Init.
func (s *Stepper) Pulses() uint32 {
	if s == nil {
		return 0
	}
	return s.pulses.Load()
}

// SetDoneCallback registers the completion callback. nil clears it.
func (s *Stepper) SetDoneCallback(cb DoneFunc) {
	if s == nil {
		return
	}
	st := s.cs.enter()
	s.onDone = cb
	s.cs.exit(st)
}

// SetLimitCallback registers the limit callback. nil clears it.
func (s *Stepper) SetLimitCallback(cb LimitFunc) {
	if s == nil {
		return
	}
	st := s.cs.enter()
	s.onLimit = cb
	s.cs.exit(st)
}

// HitLimit registers a limit switch activation. It only takes effect
// while limits are enabled: motion stops at once, whatever the remaining
// steps or driver state, and the limit callback runs.
//
// HitLimit is safe to call from an interrupt handler, concurrently with
// Update. It performs no driver I/O; a hardware ramp is left to the
// driver's own limit handling or a later Stop.
func (s *Stepper) HitLimit(sw any) {
	if s == nil || !s.limitsEnabled.Load() {
		return
	}
	st := s.cs.enter()
	s.limitHit.Store(true)
	s.busy.Store(false)
	s.usAccumulator = 0
	cb := s.onLimit
	target := s.target
	s.cs.exit(st)

	s.events.Record(EvtLimitHit, s.id, target)
	if cb != nil {
		cb(s, sw)
	}
}

// LimitHit reports whether a limit stopped the last move.
func (s *Stepper) LimitHit() bool {
	return s != nil && s.limitHit.Load()
}

// LimitsEnabled reports whether HitLimit is armed.
func (s *Stepper) LimitsEnabled() bool {
	return s != nil && s.limitsEnabled.Load()
}

// LastFault returns the most recent driver error, or nil.
func (s *Stepper) LastFault() error {
	if s == nil {
		return nil
	}
	if f := s.fault.Load(); f != nil {
		return f.err
	}
	return nil
}

// ClearFault forgets the recorded driver error.
func (s *Stepper) ClearFault() {
	if s != nil {
		s.fault.Store(nil)
	}
}

func (s *Stepper) noteFault(err error) {
	if err == nil {
		return
	}
	s.fault.Store(&faultRecord{err: err})
	s.events.Record(EvtFault, s.id, 0)
	DebugAsync("stepper " + itoa(int(s.id)) + " fault: " + err.Error())
}

func addSaturating(a, b uint32) uint32 {
	if a > ^uint32(0)-b {
		return ^uint32(0)
	}
	return a + b
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
