package core

import "errors"

var (
	ErrDuplicateID     = errors.New("machine: duplicate stepper id")
	ErrTooManySteppers = errors.New("machine: too many steppers")
	ErrNilDriver       = errors.New("machine: nil driver")
)

// InitError reports a driver whose bring-up failed while building a
// Machine.
type InitError struct {
	ID  uint8
	Err error
}

func (e *InitError) Error() string {
	return "machine: stepper " + itoa(int(e.ID)) + " init: " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Binding maps a logical stepper ID to its driver.
type Binding struct {
	ID        uint8
	Driver    Driver
	USPerStep uint32 // STEP/DIR period, 0 keeps the default
}

// Machine owns every stepper of a product together with their group, limit
// switches and motion event log. Steppers live in a fixed arena for the
// lifetime of the Machine.
type Machine struct {
	steppers [GroupCapacity]Stepper
	group    Group
	limits   []*LimitSwitch
	events   EventLog

	tickTimer  Timer
	tickPeriod uint32
	lastTick   uint32
	ticking    bool
	sched      *Scheduler
}

// NewMachine initializes one stepper per binding, in order, and adds them
// all to the machine's group. Motors are left disabled.
func NewMachine(bindings ...Binding) (*Machine, error) {
	if len(bindings) > GroupCapacity {
		return nil, ErrTooManySteppers
	}

	DebugPrintln("Initializing stepper configuration...")
	m := &Machine{}
	for i, b := range bindings {
		if b.Driver == nil {
			return nil, ErrNilDriver
		}
		if m.group.Find(b.ID) != nil {
			return nil, ErrDuplicateID
		}

		s := &m.steppers[i]
		s.Init(b.ID, b.Driver)
		if err := s.LastFault(); err != nil {
			return nil, &InitError{ID: b.ID, Err: err}
		}
		s.SetEventLog(&m.events)
		if b.USPerStep != 0 {
			s.SetSpeed(b.USPerStep)
		}
		m.group.Add(s)
		DebugPrintln("Stepper " + itoa(int(b.ID)) + " configured (" + s.Capabilities().String() + ")")
	}
	return m, nil
}

// Stepper returns the stepper with the given ID, or nil.
func (m *Machine) Stepper(id uint8) *Stepper {
	return m.group.Find(id)
}

// Group returns the group holding every stepper of the machine.
func (m *Machine) Group() *Group {
	return &m.group
}

// Events returns the machine's motion event log.
func (m *Machine) Events() *EventLog {
	return &m.events
}

// AddLimitSwitch registers a switch to be polled by Tick.
func (m *Machine) AddLimitSwitch(ls *LimitSwitch) {
	if ls != nil {
		m.limits = append(m.limits, ls)
	}
}

// LimitSwitches returns the registered switches.
func (m *Machine) LimitSwitches() []*LimitSwitch {
	return m.limits
}

// Tick polls the limit switches, then advances every stepper by deltaUS.
// It reports whether any stepper is still moving.
func (m *Machine) Tick(deltaUS uint32) bool {
	for _, ls := range m.limits {
		ls.Poll()
	}
	return m.group.Update(deltaUS)
}

// ScheduleTick drives Tick from sched every periodUS microseconds. Each
// tick receives the time actually elapsed since the previous one.
func (m *Machine) ScheduleTick(sched *Scheduler, periodUS uint32) {
	if m.ticking {
		m.sched.Remove(&m.tickTimer)
	}
	if periodUS == 0 {
		periodUS = 1
	}
	m.sched = sched
	m.tickPeriod = periodUS
	m.lastTick = sched.Now()
	m.tickTimer.WakeTime = m.lastTick + periodUS
	m.tickTimer.Handler = m.tickEvent
	m.ticking = true
	sched.Add(&m.tickTimer)
}

// StopTick removes the periodic tick from its scheduler.
func (m *Machine) StopTick() {
	if !m.ticking {
		return
	}
	m.sched.Remove(&m.tickTimer)
	m.ticking = false
}

func (m *Machine) tickEvent(t *Timer) uint8 {
	now := m.sched.Now()
	m.Tick(now - m.lastTick)
	m.lastTick = now

	t.WakeTime += m.tickPeriod
	if !TimeBefore(now, t.WakeTime) {
		// fell more than a period behind, skip the missed ticks
		m.events.Record(EvtTickBehind, 0, int32(now-t.WakeTime))
		t.WakeTime = now + m.tickPeriod
	}
	return SF_RESCHEDULE
}
