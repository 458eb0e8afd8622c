package core

import (
	"io"
	"sync"
	"sync/atomic"

	"gostep/protocol"
)

// Link is the firmware end of the command channel. It decodes frames from
// the host, dispatches them to the machine, and frames responses onto out.
//
// Completion and limit events are latched in atomic bitmasks by the
// stepper callbacks, which may run in interrupt context, and sent later
// by Flush from task context.
type Link struct {
	machine *Machine
	reg     *CommandRegistry
	dec     *protocol.Decoder

	mu      sync.Mutex // serializes writes to out
	out     io.Writer
	seq     uint8
	scratch []byte

	pendingDone  atomic.Uint32 // bit i: group slot i completed a move
	pendingLimit atomic.Uint32 // bit i: group slot i hit a limit

	Errors uint32 // commands that failed to decode or dispatch
}

// NewLink registers the motion commands for m and installs done and
// limit callbacks on each of its steppers.
func NewLink(m *Machine, out io.Writer) *Link {
	l := &Link{
		machine: m,
		reg:     NewCommandRegistry(),
		dec:     protocol.NewDecoder(),
		out:     out,
		scratch: make([]byte, 0, protocol.MessagePayloadMax),
	}
	registerMotionCommands(l.reg, l)

	g := m.Group()
	for i := 0; i < g.Len(); i++ {
		bit := uint32(1) << uint(i)
		g.At(i).SetDoneCallback(func(*Stepper) { setBits(&l.pendingDone, bit) })
		g.At(i).SetLimitCallback(func(*Stepper, any) { setBits(&l.pendingLimit, bit) })
	}
	return l
}

// Registry returns the command registry the link dispatches from.
func (l *Link) Registry() *CommandRegistry {
	return l.reg
}

// Receive feeds bytes read from the host and runs every complete
// command. It returns the last command error; the remaining commands
// still run.
func (l *Link) Receive(data []byte) error {
	l.dec.Write(data)
	var lastErr error
	for {
		f, ok := l.dec.Next()
		if !ok {
			return lastErr
		}
		if err := l.runFrame(f.Payload); err != nil {
			l.Errors++
			lastErr = err
			DebugPrintln("link: " + err.Error())
		}
	}
}

func (l *Link) runFrame(payload []byte) error {
	for len(payload) > 0 {
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return err
		}
		if err := l.reg.Dispatch(uint16(id), &payload); err != nil {
			// arguments of the failed command are unknown, drop the rest
			return err
		}
	}
	return nil
}

// Flush sends the latched stepper_done and stepper_limit events.
func (l *Link) Flush() error {
	done := l.pendingDone.Swap(0)
	limit := l.pendingLimit.Swap(0)
	if done == 0 && limit == 0 {
		return nil
	}

	g := l.machine.Group()
	for i := 0; i < g.Len(); i++ {
		bit := uint32(1) << uint(i)
		s := g.At(i)
		if limit&bit != 0 {
			if err := l.sendEvent(MsgStepperLimit, s); err != nil {
				return err
			}
		}
		if done&bit != 0 {
			if err := l.sendEvent(MsgStepperDone, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Link) sendEvent(name string, s *Stepper) error {
	return l.respond(name, func(out []byte) []byte {
		out = protocol.AppendVLQUint(out, uint32(s.ID()))
		return protocol.AppendVLQInt(out, s.Position())
	})
}

// respond frames one response message. args appends the encoded
// arguments to the buffer it is given.
func (l *Link) respond(name string, args func(out []byte) []byte) error {
	id := l.reg.MustLookup(name)

	l.mu.Lock()
	defer l.mu.Unlock()

	payload := protocol.AppendVLQUint(l.scratch[:0], uint32(id))
	payload = args(payload)
	frame, err := protocol.EncodeFrame(l.seq, payload)
	if err != nil {
		return err
	}
	l.seq = protocol.NextSeq(l.seq)
	_, err = l.out.Write(frame)
	return err
}

func setBits(v *atomic.Uint32, bits uint32) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old|bits) {
			return
		}
	}
}
