package core

import "testing"

func TestGroupCapacity(t *testing.T) {
	var g Group
	for i := 0; i < GroupCapacity; i++ {
		if !g.Add(NewStepper(uint8(i), &stepDirFake{})) {
			t.Fatalf("add %d failed", i)
		}
	}
	if g.Add(NewStepper(9, &stepDirFake{})) {
		t.Error("fifth stepper accepted")
	}
	if g.Len() != GroupCapacity {
		t.Errorf("Len() = %d, want %d", g.Len(), GroupCapacity)
	}
	if g.Find(9) != nil {
		t.Error("rejected stepper is reachable")
	}
	if g.Add(nil) {
		t.Error("nil stepper accepted")
	}
}

func TestGroupRejectsDuplicateID(t *testing.T) {
	var g Group
	s := NewStepper(1, &stepDirFake{})
	if !g.Add(s) {
		t.Fatal("first add failed")
	}
	if g.Add(s) {
		t.Error("same stepper accepted twice")
	}
	if g.Add(NewStepper(1, &moveToFake{})) {
		t.Error("duplicate id accepted")
	}
	if g.Len() != 1 || g.At(0) != s {
		t.Errorf("group changed: len=%d", g.Len())
	}

	d := s.Driver().(*stepDirFake)
	s.SetSpeed(10)
	s.Enable(true)
	s.MoveToPosition(5)
	g.Update(10)
	if d.pulses != 1 {
		t.Errorf("one tick gave %d pulses", d.pulses)
	}
}

func TestGroupEmpty(t *testing.T) {
	var g Group
	if g.Update(1000) || g.IsMoving() {
		t.Error("empty group reports motion")
	}
	if len(g.Positions()) != 0 || g.At(0) != nil {
		t.Error("empty group has members")
	}

	var ng *Group
	ng.Init()
	ng.Enable(true)
	ng.MoveTo(1)
	ng.Stop()
	if ng.Add(&Stepper{}) || ng.Len() != 0 || ng.Update(1) || ng.Find(0) != nil {
		t.Error("nil group is not inert")
	}
}

func TestGroupUpdateAggregates(t *testing.T) {
	var g Group
	a, b := &stepDirFake{}, &stepDirFake{}
	sa, sb := NewStepper(1, a), NewStepper(2, b)
	g.Add(sa)
	g.Add(sb)
	g.SetSpeed(1)
	g.Enable(true)

	sa.MoveToPosition(1)
	sb.MoveToPosition(3)

	want := []bool{true, true, false, false}
	for i, w := range want {
		if got := g.Update(1); got != w {
			t.Errorf("update %d = %v, want %v", i+1, got, w)
		}
	}
	pos := g.Positions()
	if pos[0] != 1 || pos[1] != 3 {
		t.Errorf("positions = %v", pos)
	}
}

func TestGroupBroadcast(t *testing.T) {
	var g Group
	drivers := []*moveToFake{{reachAfter: 2}, {reachAfter: 3}}
	for i, d := range drivers {
		g.Add(NewStepper(uint8(i), d))
	}
	g.Enable(true)
	g.EnableLimits()
	g.MoveTo(400)

	for i, d := range drivers {
		if !d.enabled || !d.limits || d.target != 400 {
			t.Errorf("driver %d: enabled=%v limits=%v target=%d", i, d.enabled, d.limits, d.target)
		}
	}
	if !g.IsMoving() {
		t.Fatal("group idle after MoveTo")
	}

	g.Stop()
	if g.IsMoving() || drivers[0].halts != 1 || drivers[1].halts != 1 {
		t.Error("Stop did not reach every member")
	}

	// halted before any feedback arrived, so relative moves start from 0
	g.MoveBy(-100)
	if drivers[0].target != -100 {
		t.Errorf("MoveBy target = %d, want -100", drivers[0].target)
	}
	if g.Find(1).Target() != -100 {
		t.Error("Find returned the wrong stepper")
	}

	g.Init()
	if g.Len() != 0 {
		t.Error("Init did not empty the group")
	}
}
