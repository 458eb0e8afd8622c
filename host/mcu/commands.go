package mcu

import (
	"fmt"

	"gostep/core"
	"gostep/protocol"
)

func oidArgs(oid uint8, rest func([]byte) []byte) func([]byte) []byte {
	return func(b []byte) []byte {
		b = protocol.AppendVLQUint(b, uint32(oid))
		if rest != nil {
			b = rest(b)
		}
		return b
	}
}

func intArg(v int32) func([]byte) []byte {
	return func(b []byte) []byte { return protocol.AppendVLQInt(b, v) }
}

func uintArg(v uint32) func([]byte) []byte {
	return func(b []byte) []byte { return protocol.AppendVLQUint(b, v) }
}

func boolArg(v bool) func([]byte) []byte {
	return func(b []byte) []byte { return protocol.AppendVLQBool(b, v) }
}

// Enable arms or disarms one stepper.
func (m *MCU) Enable(oid uint8, on bool) error {
	return m.send(core.MsgStepperEnable, oidArgs(oid, boolArg(on)))
}

// SetSpeed sets the STEP/DIR pulse period.
func (m *MCU) SetSpeed(oid uint8, usPerStep uint32) error {
	return m.send(core.MsgStepperSetSpeed, oidArgs(oid, uintArg(usPerStep)))
}

// Move starts an absolute move.
func (m *MCU) Move(oid uint8, pos int32) error {
	return m.send(core.MsgStepperMove, oidArgs(oid, intArg(pos)))
}

// MoveBy starts a relative move.
func (m *MCU) MoveBy(oid uint8, delta int32) error {
	return m.send(core.MsgStepperMoveBy, oidArgs(oid, intArg(delta)))
}

// Stop cancels the move of one stepper.
func (m *MCU) Stop(oid uint8) error {
	return m.send(core.MsgStepperStop, oidArgs(oid, nil))
}

// EnableLimits arms or disarms limit handling.
func (m *MCU) EnableLimits(oid uint8, on bool) error {
	return m.send(core.MsgStepperEnableLimits, oidArgs(oid, boolArg(on)))
}

// SetAcceleration sets the ramp acceleration of drivers that have one.
func (m *MCU) SetAcceleration(oid uint8, accel uint32) error {
	return m.send(core.MsgStepperSetAccel, oidArgs(oid, uintArg(accel)))
}

// Query reads the state of one stepper.
func (m *MCU) Query(oid uint8) (StepperState, error) {
	data, err := m.request(core.MsgStepperQuery, core.MsgStepperState, oidArgs(oid, nil))
	if err != nil {
		return StepperState{}, err
	}

	var st StepperState
	id, err := protocol.DecodeVLQUint(&data)
	if err == nil {
		st.OID = uint8(id)
		st.Position, err = protocol.DecodeVLQInt(&data)
	}
	if err == nil {
		st.Target, err = protocol.DecodeVLQInt(&data)
	}
	var flags uint32
	if err == nil {
		flags, err = protocol.DecodeVLQUint(&data)
		st.Flags = uint8(flags)
	}
	if err != nil {
		return StepperState{}, fmt.Errorf("mcu: stepper_state: %w", err)
	}
	if st.OID != oid {
		return StepperState{}, fmt.Errorf("mcu: stepper_state for %d, asked for %d", st.OID, oid)
	}
	return st, nil
}

// GroupEnable arms or disarms every stepper.
func (m *MCU) GroupEnable(on bool) error {
	return m.send(core.MsgGroupEnable, boolArg(on))
}

// GroupMove moves every stepper to pos.
func (m *MCU) GroupMove(pos int32) error {
	return m.send(core.MsgGroupMove, intArg(pos))
}

// GroupMoveBy moves every stepper by delta.
func (m *MCU) GroupMoveBy(delta int32) error {
	return m.send(core.MsgGroupMoveBy, intArg(delta))
}

// GroupStop stops every stepper.
func (m *MCU) GroupStop() error {
	return m.send(core.MsgGroupStop, nil)
}

// GroupQuery reads the group summary.
func (m *MCU) GroupQuery() (GroupState, error) {
	data, err := m.request(core.MsgGroupQuery, core.MsgGroupState, nil)
	if err != nil {
		return GroupState{}, err
	}
	count, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		return GroupState{}, fmt.Errorf("mcu: group_state: %w", err)
	}
	moving, err := protocol.DecodeVLQBool(&data)
	if err != nil {
		return GroupState{}, fmt.Errorf("mcu: group_state: %w", err)
	}
	return GroupState{Count: uint8(count), Moving: moving}, nil
}
