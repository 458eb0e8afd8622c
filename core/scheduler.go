package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by wake time and runs the due ones.
// It is owned by the main loop and not safe for concurrent use.
type Scheduler struct {
	list *Timer
	now  uint32
}

// Add inserts t in wake-time order. t must not already be scheduled.
func (s *Scheduler) Add(t *Timer) {
	if s.list == nil || TimeBefore(t.WakeTime, s.list.WakeTime) {
		t.next = s.list
		s.list = t
		return
	}
	cur := s.list
	for cur.next != nil && !TimeBefore(t.WakeTime, cur.next.WakeTime) {
		cur = cur.next
	}
	t.next = cur.next
	cur.next = t
}

// Remove unschedules t. It reports whether t was scheduled.
func (s *Scheduler) Remove(t *Timer) bool {
	for p := &s.list; *p != nil; p = &(*p).next {
		if *p == t {
			*p = t.next
			t.next = nil
			return true
		}
	}
	return false
}

// Now returns the time passed to the latest Dispatch.
func (s *Scheduler) Now() uint32 {
	return s.now
}

// Next returns the wake time of the earliest timer.
func (s *Scheduler) Next() (uint32, bool) {
	if s.list == nil {
		return 0, false
	}
	return s.list.WakeTime, true
}

// Dispatch runs every timer due at now and returns how many ran.
// A handler returning SF_RESCHEDULE must have moved its WakeTime past now.
func (s *Scheduler) Dispatch(now uint32) int {
	s.now = now
	ran := 0
	for s.list != nil && !TimeBefore(now, s.list.WakeTime) {
		t := s.list
		s.list = t.next
		t.next = nil
		ran++

		if t.Handler(t) == SF_RESCHEDULE {
			s.Add(t)
		}
	}
	return ran
}
