package core

// GroupCapacity is the maximum number of steppers in a Group.
const GroupCapacity = 4

// Group fans commands out to a fixed set of steppers, in insertion order,
// and aggregates their busy state per tick. It references its members but
// does not own them. The zero value is an empty group.
//
// Membership is set up at configuration time; Add is not safe to call
// concurrently with the other methods.
type Group struct {
	members [GroupCapacity]*Stepper
	count   int
}

// Init empties the group.
func (g *Group) Init() {
	if g == nil {
		return
	}
	*g = Group{}
}

// Add appends s. It fails without changing the group when the group is
// full, s is nil, or a member already has the ID of s.
func (g *Group) Add(s *Stepper) bool {
	if g == nil || s == nil || g.count >= GroupCapacity {
		return false
	}
	if g.Find(s.ID()) != nil {
		return false
	}
	g.members[g.count] = s
	g.count++
	return true
}

// Len returns the number of members.
func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return g.count
}

// At returns the i-th member, or nil when out of range.
func (g *Group) At(i int) *Stepper {
	if g == nil || i < 0 || i >= g.count {
		return nil
	}
	return g.members[i]
}

// Find returns the member with the given ID, or nil.
func (g *Group) Find(id uint8) *Stepper {
	for _, s := range g.list() {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

func (g *Group) list() []*Stepper {
	if g == nil {
		return nil
	}
	return g.members[:g.count]
}

// Enable arms or disarms every member. Each member is independent: one
// driver failing does not undo the others.
func (g *Group) Enable(on bool) {
	for _, s := range g.list() {
		s.Enable(on)
	}
}

// MoveTo sends every member to the same absolute position.
func (g *Group) MoveTo(position int32) {
	for _, s := range g.list() {
		s.MoveToPosition(position)
	}
}

// MoveBy moves every member by delta from its own current position.
func (g *Group) MoveBy(delta int32) {
	for _, s := range g.list() {
		s.MoveBy(delta)
	}
}

// SetSpeed sets the STEP/DIR period of every member.
func (g *Group) SetSpeed(usPerStep uint32) {
	for _, s := range g.list() {
		s.SetSpeed(usPerStep)
	}
}

// Stop cancels the move of every member.
func (g *Group) Stop() {
	for _, s := range g.list() {
		s.Stop()
	}
}

// EnableLimits arms limit handling on every member.
func (g *Group) EnableLimits() {
	for _, s := range g.list() {
		s.EnableLimits()
	}
}

// Update ticks every member with the same delta and reports whether any
// of them is still moving. An empty group is never moving.
func (g *Group) Update(deltaUS uint32) bool {
	active := false
	for _, s := range g.list() {
		if s.Update(deltaUS) {
			active = true
		}
	}
	return active
}

// IsMoving reports whether any member is moving, without ticking.
func (g *Group) IsMoving() bool {
	for _, s := range g.list() {
		if s.IsMoving() {
			return true
		}
	}
	return false
}

// Positions returns the current position of each member in insertion
// order.
func (g *Group) Positions() []int32 {
	members := g.list()
	out := make([]int32, len(members))
	for i, s := range members {
		out[i] = s.Position()
	}
	return out
}
