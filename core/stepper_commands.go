package core

import "gostep/protocol"

// Wire names of the motion commands and responses.
const (
	MsgIdentifyResponse    = "identify_response"
	MsgIdentify            = "identify"
	MsgStepperEnable       = "stepper_enable"
	MsgStepperSetSpeed     = "stepper_set_speed"
	MsgStepperMove         = "stepper_move"
	MsgStepperMoveBy       = "stepper_move_by"
	MsgStepperStop         = "stepper_stop"
	MsgStepperEnableLimits = "stepper_enable_limits"
	MsgStepperSetAccel     = "stepper_set_accel"
	MsgStepperQuery        = "stepper_query"
	MsgGroupEnable         = "group_enable"
	MsgGroupMove           = "group_move"
	MsgGroupMoveBy         = "group_move_by"
	MsgGroupStop           = "group_stop"
	MsgGroupQuery          = "group_query"
	MsgStepperState        = "stepper_state"
	MsgGroupState          = "group_state"
	MsgStepperDone         = "stepper_done"
	MsgStepperLimit        = "stepper_limit"
)

// Bits of the flags field in stepper_state.
const (
	StateEnabled       = 1 << 0
	StateMoving        = 1 << 1
	StateLimitHit      = 1 << 2
	StateLimitsEnabled = 1 << 3
	StateFault         = 1 << 4
	StateUnknown       = 1 << 7 // no stepper with that oid
)

// motionHandlers is implemented by Link. A nil value registers the
// dictionary only, which is what the host needs.
type motionHandlers interface {
	identify(data *[]byte) error
	stepperEnable(data *[]byte) error
	stepperSetSpeed(data *[]byte) error
	stepperMove(data *[]byte) error
	stepperMoveBy(data *[]byte) error
	stepperStop(data *[]byte) error
	stepperEnableLimits(data *[]byte) error
	stepperSetAccel(data *[]byte) error
	stepperQuery(data *[]byte) error
	groupEnable(data *[]byte) error
	groupMove(data *[]byte) error
	groupMoveBy(data *[]byte) error
	groupStop(data *[]byte) error
	groupQuery(data *[]byte) error
}

// registerMotionCommands fills r in the fixed wire order.
// IMPORTANT: append new entries at the end, IDs are positional.
func registerMotionCommands(r *CommandRegistry, h motionHandlers) {
	handler := func(f func(motionHandlers, *[]byte) error) CommandHandler {
		if h == nil {
			return nil
		}
		return func(data *[]byte) error { return f(h, data) }
	}

	r.RegisterResponse(MsgIdentifyResponse, "version=%s")
	r.Register(MsgIdentify, "", handler(motionHandlers.identify))
	r.Register(MsgStepperEnable, "oid=%c enable=%c", handler(motionHandlers.stepperEnable))
	r.Register(MsgStepperSetSpeed, "oid=%c us_per_step=%u", handler(motionHandlers.stepperSetSpeed))
	r.Register(MsgStepperMove, "oid=%c pos=%i", handler(motionHandlers.stepperMove))
	r.Register(MsgStepperMoveBy, "oid=%c delta=%i", handler(motionHandlers.stepperMoveBy))
	r.Register(MsgStepperStop, "oid=%c", handler(motionHandlers.stepperStop))
	r.Register(MsgStepperEnableLimits, "oid=%c enable=%c", handler(motionHandlers.stepperEnableLimits))
	r.Register(MsgStepperSetAccel, "oid=%c accel=%u", handler(motionHandlers.stepperSetAccel))
	r.Register(MsgStepperQuery, "oid=%c", handler(motionHandlers.stepperQuery))
	r.Register(MsgGroupEnable, "enable=%c", handler(motionHandlers.groupEnable))
	r.Register(MsgGroupMove, "pos=%i", handler(motionHandlers.groupMove))
	r.Register(MsgGroupMoveBy, "delta=%i", handler(motionHandlers.groupMoveBy))
	r.Register(MsgGroupStop, "", handler(motionHandlers.groupStop))
	r.Register(MsgGroupQuery, "", handler(motionHandlers.groupQuery))

	r.RegisterResponse(MsgStepperState, "oid=%c pos=%i target=%i flags=%c")
	r.RegisterResponse(MsgGroupState, "count=%c moving=%c")
	r.RegisterResponse(MsgStepperDone, "oid=%c pos=%i")
	r.RegisterResponse(MsgStepperLimit, "oid=%c pos=%i")
}

// MotionDictionary returns a registry with every motion message and no
// handlers, for encoding commands on the host side.
func MotionDictionary() *CommandRegistry {
	r := NewCommandRegistry()
	registerMotionCommands(r, nil)
	return r
}

// StepperFlags packs the stepper_state flags of s.
func StepperFlags(s *Stepper) uint8 {
	if s == nil {
		return StateUnknown
	}
	var f uint8
	if s.Enabled() {
		f |= StateEnabled
	}
	if s.IsMoving() {
		f |= StateMoving
	}
	if s.LimitHit() {
		f |= StateLimitHit
	}
	if s.LimitsEnabled() {
		f |= StateLimitsEnabled
	}
	if s.LastFault() != nil {
		f |= StateFault
	}
	return f
}

func (l *Link) identify(data *[]byte) error {
	return l.respond(MsgIdentifyResponse, func(out []byte) []byte {
		return protocol.AppendVLQString(out, protocol.Version)
	})
}

// decodeOID reads the oid argument and resolves it. An unknown oid, or
// one too wide for a stepper ID, gives a nil stepper, on which every
// operation is a no-op.
func (l *Link) decodeOID(data *[]byte) (uint32, *Stepper, error) {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return 0, nil, err
	}
	if oid > 0xFF {
		return oid, nil, nil
	}
	return oid, l.machine.Stepper(uint8(oid)), nil
}

func (l *Link) stepperEnable(data *[]byte) error {
	_, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	on, err := protocol.DecodeVLQBool(data)
	if err != nil {
		return err
	}
	s.Enable(on)
	return nil
}

func (l *Link) stepperSetSpeed(data *[]byte) error {
	_, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	us, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	s.SetSpeed(us)
	return nil
}

func (l *Link) stepperMove(data *[]byte) error {
	_, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	pos, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	s.MoveToPosition(pos)
	return nil
}

func (l *Link) stepperMoveBy(data *[]byte) error {
	_, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	delta, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	s.MoveBy(delta)
	return nil
}

func (l *Link) stepperStop(data *[]byte) error {
	_, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	s.Stop()
	return nil
}

func (l *Link) stepperEnableLimits(data *[]byte) error {
	_, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	on, err := protocol.DecodeVLQBool(data)
	if err != nil {
		return err
	}
	if on {
		s.EnableLimits()
	} else {
		s.DisableLimits()
	}
	return nil
}

func (l *Link) stepperSetAccel(data *[]byte) error {
	_, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	accel, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	s.SetAcceleration(accel)
	return nil
}

func (l *Link) stepperQuery(data *[]byte) error {
	oid, s, err := l.decodeOID(data)
	if err != nil {
		return err
	}
	return l.respond(MsgStepperState, func(out []byte) []byte {
		out = protocol.AppendVLQUint(out, oid)
		out = protocol.AppendVLQInt(out, s.Position())
		out = protocol.AppendVLQInt(out, s.Target())
		return protocol.AppendVLQUint(out, uint32(StepperFlags(s)))
	})
}

func (l *Link) groupEnable(data *[]byte) error {
	on, err := protocol.DecodeVLQBool(data)
	if err != nil {
		return err
	}
	l.machine.Group().Enable(on)
	return nil
}

func (l *Link) groupMove(data *[]byte) error {
	pos, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	l.machine.Group().MoveTo(pos)
	return nil
}

func (l *Link) groupMoveBy(data *[]byte) error {
	delta, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	l.machine.Group().MoveBy(delta)
	return nil
}

func (l *Link) groupStop(data *[]byte) error {
	l.machine.Group().Stop()
	return nil
}

func (l *Link) groupQuery(data *[]byte) error {
	g := l.machine.Group()
	return l.respond(MsgGroupState, func(out []byte) []byte {
		out = protocol.AppendVLQUint(out, uint32(g.Len()))
		return protocol.AppendVLQBool(out, g.IsMoving())
	})
}
