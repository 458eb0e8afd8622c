package core

import (
	"errors"
	"testing"
)

func TestNewMachineErrors(t *testing.T) {
	testCases := []struct {
		name     string
		bindings []Binding
		want     error
	}{
		{"nil driver", []Binding{{ID: 0}}, ErrNilDriver},
		{"duplicate", []Binding{{ID: 1, Driver: &stepDirFake{}}, {ID: 1, Driver: &stepDirFake{}}}, ErrDuplicateID},
		{"too many", []Binding{
			{ID: 0, Driver: &stepDirFake{}}, {ID: 1, Driver: &stepDirFake{}},
			{ID: 2, Driver: &stepDirFake{}}, {ID: 3, Driver: &stepDirFake{}},
			{ID: 4, Driver: &stepDirFake{}},
		}, ErrTooManySteppers},
		{"init fault", []Binding{{ID: 2, Driver: &moveToFake{initErr: errBus}}}, errBus},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMachine(tc.bindings...)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}

	_, err := NewMachine(Binding{ID: 2, Driver: &moveToFake{initErr: errBus}})
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.ID != 2 {
		t.Errorf("expected InitError for stepper 2, got %v", err)
	}
}

func TestMachineTick(t *testing.T) {
	sd := &stepDirFake{}
	mt := &moveToFake{reachAfter: 3}
	m, err := NewMachine(
		Binding{ID: 0, Driver: sd, USPerStep: 100},
		Binding{ID: 5, Driver: mt},
	)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if m.Group().Len() != 2 || m.Stepper(5) == nil || m.Stepper(1) != nil {
		t.Fatal("steppers not registered by ID")
	}
	if m.Stepper(0).Speed() != 100 {
		t.Errorf("speed = %d, want 100", m.Stepper(0).Speed())
	}

	m.Group().Enable(true)
	m.Stepper(0).MoveToPosition(2)
	m.Stepper(5).MoveToPosition(9)

	ticks := 0
	for m.Tick(100) {
		ticks++
		if ticks > 10 {
			t.Fatal("machine never settled")
		}
	}
	if sd.pulses != 2 || m.Stepper(5).Position() != 9 {
		t.Errorf("pulses=%d pos=%d", sd.pulses, m.Stepper(5).Position())
	}

	var moveDone int
	for _, evt := range m.Events().Events() {
		if evt.EventType == EvtMoveDone {
			moveDone++
		}
	}
	if moveDone != 2 {
		t.Errorf("MOVE_DONE events = %d, want 2", moveDone)
	}
}

func TestMachineTickPollsLimits(t *testing.T) {
	m, err := NewMachine(Binding{ID: 0, Driver: &stepDirFake{}, USPerStep: 10})
	if err != nil {
		t.Fatal(err)
	}
	pins := newPinBank()
	s := m.Stepper(0)
	ls, err := NewLimitSwitch("home", pins, 3, true, 1, s)
	if err != nil {
		t.Fatal(err)
	}
	m.AddLimitSwitch(ls)
	m.AddLimitSwitch(nil)
	if len(m.LimitSwitches()) != 1 {
		t.Fatalf("switches = %d", len(m.LimitSwitches()))
	}

	s.Enable(true)
	s.EnableLimits()
	s.MoveToPosition(100)
	m.Tick(10)
	pins.SetPin(3, true)
	if m.Tick(10) {
		t.Error("tick after the switch closed still moving")
	}
	if s.Position() != 1 || !s.LimitHit() {
		t.Errorf("position=%d limitHit=%v", s.Position(), s.LimitHit())
	}
}

func TestMachineScheduleTick(t *testing.T) {
	sd := &stepDirFake{}
	m, err := NewMachine(Binding{ID: 0, Driver: sd, USPerStep: 1000})
	if err != nil {
		t.Fatal(err)
	}
	s := m.Stepper(0)
	s.Enable(true)
	s.MoveToPosition(10)

	var sched Scheduler
	m.ScheduleTick(&sched, 1000)
	for now := uint32(1000); now <= 3000; now += 1000 {
		sched.Dispatch(now)
	}
	if sd.pulses != 3 {
		t.Fatalf("pulses = %d after three ticks", sd.pulses)
	}

	// a late dispatch passes the real elapsed time and skips ahead
	sched.Dispatch(8000)
	if next, _ := sched.Next(); next != 9000 {
		t.Errorf("next wake = %d, want 9000", next)
	}
	behind := false
	for _, evt := range m.Events().Events() {
		if evt.EventType == EvtTickBehind {
			behind = true
		}
	}
	if !behind {
		t.Error("late tick not recorded")
	}
	// one step per tick, the rest carried
	if sd.pulses != 4 || s.StepsRemaining() != 6 {
		t.Errorf("pulses=%d remaining=%d", sd.pulses, s.StepsRemaining())
	}

	m.StopTick()
	if _, ok := sched.Next(); ok {
		t.Error("tick still scheduled after StopTick")
	}
	m.StopTick()
}
