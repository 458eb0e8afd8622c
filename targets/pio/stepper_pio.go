//go:build rp2040

// Package pio generates STEP/DIR pulses with the RP2040 PIO blocks, one
// state machine per motor.
package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"gostep/core"
)

// Command word format:
//
//	Bits 0-15:  pulse count minus one
//	Bits 16-23: delay loops between pulses
//	Bit 24:     direction (0=forward, 1=reverse)
//
// The program pulls a command, latches direction, then emits X+1 pulses
// with Y+1 delay loops after each.
func buildStepperProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1
		// step_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 4: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 5: set pins, 0
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

// Jump targets in the program are absolute.
const programOrigin = 0

// ClockDiv divides the system clock down to 1 MHz at 125 MHz, so the
// step pulse is high for 8 µs.
const ClockDiv = 125

const dirBit = 1 << 24

var (
	ErrInvertStep = errors.New("pio: inverted step polarity is not supported")
	ErrNoMachine  = errors.New("pio: no free state machine")
)

// Backend implements core.StepperBackend on one PIO state machine.
type Backend struct {
	pio       *rp2pio.PIO
	pioNum    uint8
	sm        rp2pio.StateMachine
	stepPin   machine.Pin
	dirPin    machine.Pin
	invertDir bool
	reverse   bool
}

func newBackend(pioNum, smNum uint8) *Backend {
	hw := rp2pio.PIO0
	if pioNum != 0 {
		hw = rp2pio.PIO1
	}
	return &Backend{pio: hw, pioNum: pioNum, sm: hw.StateMachine(smNum)}
}

// Init loads the program into the backend's PIO block, once per block,
// and starts the state machine with both pins low.
func (b *Backend) Init(stepPin, dirPin core.GPIOPin, invertStep, invertDir bool) error {
	if invertStep {
		return ErrInvertStep
	}
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)
	b.invertDir = invertDir

	// claim before touching the state machine
	b.sm.TryClaim()

	offset, err := loadProgram(b.pio, b.pioNum)
	if err != nil {
		return err
	}

	b.stepPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	b.dirPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.stepPin, 1)
	cfg.SetOutPins(b.dirPin, 1)
	// shift right, explicit PULL
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+programLen-1, offset)
	cfg.SetClkDivIntFrac(ClockDiv, 0)

	b.sm.Init(offset, cfg)

	// pin directions only stick after Init
	b.sm.SetPindirsConsecutive(b.stepPin, 1, true)
	b.sm.SetPindirsConsecutive(b.dirPin, 1, true)
	b.sm.SetPinsConsecutive(b.stepPin, 1, false)
	b.sm.SetPinsConsecutive(b.dirPin, 1, false)

	b.sm.SetEnabled(true)
	return nil
}

// Step queues one pulse in the current direction.
func (b *Backend) Step() {
	b.QueueSteps(1, 0)
}

// QueueSteps queues count pulses with delay extra loops between them.
// A zero count queues nothing.
func (b *Backend) QueueSteps(count uint16, delay uint8) {
	if count == 0 {
		return
	}
	cmd := uint32(count-1) | uint32(delay)<<16
	if b.reverse != b.invertDir {
		cmd |= dirBit
	}
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(cmd)
}

// SetDirection sets the direction of the pulses queued next. The pin
// changes when the state machine pulls the command, ahead of its first
// pulse.
func (b *Backend) SetDirection(reverse bool) {
	b.reverse = reverse
}

// Stop drops queued pulses and restarts the program.
func (b *Backend) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
}

// GetName returns the backend name.
func (b *Backend) GetName() string {
	return "PIO"
}
