package core

import (
	"sync"
	"testing"
	"time"
)

// ticker drives s.Update from its own goroutine until stopped.
func ticker(s *Stepper, deltaUS uint32) (stop func()) {
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-quit:
				return
			default:
				s.Update(deltaUS)
				time.Sleep(50 * time.Microsecond)
			}
		}
	}()
	return func() {
		close(quit)
		wg.Wait()
	}
}

func TestAwaitStop(t *testing.T) {
	d := &stepDirFake{}
	s := NewStepper(0, d)
	s.SetSpeed(10)
	s.Start()
	s.Move(20)

	stop := ticker(s, 10)
	ok := s.AwaitStop(5 * time.Second)
	stop()

	if !ok {
		t.Fatal("AwaitStop timed out")
	}
	if d.pulses != 20 || s.Position() != 20 {
		t.Errorf("pulses=%d position=%d", d.pulses, s.Position())
	}
}

func TestAwaitStopTimeout(t *testing.T) {
	s := NewStepper(0, &stepDirFake{})
	s.Start()
	s.Move(20)

	start := time.Now()
	if s.AwaitStop(20 * time.Millisecond) {
		t.Fatal("AwaitStop returned true without a tick source")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("AwaitStop returned before the timeout")
	}
}

func TestAwaitLimit(t *testing.T) {
	s := NewStepper(0, &stepDirFake{})
	s.SetSpeed(1000)
	s.Start()
	s.EnableLimits()
	s.Move(1000)

	stop := ticker(s, 1)
	go func() {
		time.Sleep(5 * time.Millisecond)
		s.HitLimit("z")
	}()
	ok := s.AwaitLimit(5 * time.Second)
	stop()

	if !ok || s.IsMoving() {
		t.Errorf("AwaitLimit=%v moving=%v", ok, s.IsMoving())
	}
	if !s.AwaitLimit(time.Millisecond) {
		t.Error("latched limit not reported")
	}
}

func TestHitLimitDuringTicks(t *testing.T) {
	s, d := newStepDir(t, 1)
	s.EnableLimits()
	s.MoveToPosition(1000000)

	// onPulse runs inside the tick, so it only signals
	third := make(chan struct{}, 1)
	d.onPulse = func() {
		if d.pulses >= 3 {
			select {
			case third <- struct{}{}:
			default:
			}
		}
	}

	stop := ticker(s, 1)
	select {
	case <-third:
	case <-time.After(5 * time.Second):
		stop()
		t.Fatal("no pulses")
	}
	s.HitLimit("x")
	remaining := s.StepsRemaining()
	pulses := s.Pulses()
	time.Sleep(5 * time.Millisecond)
	stop()

	if s.IsMoving() || !s.LimitHit() {
		t.Errorf("moving=%v limitHit=%v", s.IsMoving(), s.LimitHit())
	}
	if s.StepsRemaining() != remaining || s.Pulses() != pulses {
		t.Errorf("stepped after limit: remaining %d -> %d, pulses %d -> %d",
			remaining, s.StepsRemaining(), pulses, s.Pulses())
	}
	if uint32(d.pulses) != pulses {
		t.Errorf("driver pulses = %d, stepper counted %d", d.pulses, pulses)
	}
}

func TestDisableKeepsMove(t *testing.T) {
	d := &stepDirFake{}
	s := NewStepper(0, d)
	s.Start()
	s.Move(3)
	s.Disable()
	if d.enabled || !s.IsMoving() || s.Target() != 3 {
		t.Errorf("enabled=%v moving=%v target=%d", d.enabled, s.IsMoving(), s.Target())
	}
}
