package sim

import (
	"errors"
	"sync"
)

// Register addresses the simulated chip behaves on.
const (
	regGCONF    = 0x00
	regRampMode = 0x20
	regXActual  = 0x21
	regVMax     = 0x27
	regXTarget  = 0x2D
	regRampStat = 0x35

	rampStatPositionReached = 1 << 9
	rampStatVZero           = 1 << 10
	spiStatusStandstill     = 1 << 3
	spiStatusPosReached     = 1 << 5

	datagramSize = 5
	writeBit     = 0x80
)

var ErrDatagram = errors.New("sim: TMC5240 datagrams are 5 bytes")

// RegWrite is one register write seen by the chip.
type RegWrite struct {
	Addr  uint8
	Value uint32
}

// TMC5240 is a TMC5240 register file behind a tinygo drivers.SPI. It
// answers reads one datagram late like the real chip, and models the
// positioning ramp: every RAMP_STAT read request moves XACTUAL up to
// StepsPerPoll steps toward XTARGET while the driver is enabled.
type TMC5240 struct {
	mu      sync.Mutex
	regs    [128]uint32
	latched uint32
	writes  []RegWrite
	partial []byte
	reply   [datagramSize]byte

	StepsPerPoll uint32
	FailWith     error // returned by every transfer while set
}

// NewTMC5240 returns a chip in its power-on state.
func NewTMC5240() *TMC5240 {
	return &TMC5240{StepsPerPoll: 100}
}

// Tx runs one datagram. w and r must both be 5 bytes long; r may be nil.
func (c *TMC5240) Tx(w, r []byte) error {
	if len(w) != datagramSize || (r != nil && len(r) != datagramSize) {
		return ErrDatagram
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWith != nil {
		return c.FailWith
	}
	reply := c.datagram([datagramSize]byte{w[0], w[1], w[2], w[3], w[4]})
	if r != nil {
		copy(r, reply[:])
	}
	return nil
}

// Transfer shifts one byte; every fifth byte completes a datagram.
func (c *TMC5240) Transfer(b byte) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWith != nil {
		return 0, c.FailWith
	}
	out := c.reply[len(c.partial)]
	c.partial = append(c.partial, b)
	if len(c.partial) == datagramSize {
		c.reply = c.datagram([datagramSize]byte(c.partial))
		c.partial = c.partial[:0]
	}
	return out, nil
}

func (c *TMC5240) datagram(w [datagramSize]byte) [datagramSize]byte {
	reply := [datagramSize]byte{c.status(), byte(c.latched >> 24), byte(c.latched >> 16), byte(c.latched >> 8), byte(c.latched)}

	addr := w[0] & 0x7F
	value := uint32(w[1])<<24 | uint32(w[2])<<16 | uint32(w[3])<<8 | uint32(w[4])
	if w[0]&writeBit != 0 {
		c.regs[addr] = value
		c.writes = append(c.writes, RegWrite{Addr: addr, Value: value})
		return reply
	}

	if addr == regRampStat {
		c.advance()
		c.latched = c.rampStat()
	} else {
		c.latched = c.regs[addr]
	}
	return reply
}

func (c *TMC5240) advance() {
	if c.regs[regGCONF] == 0 || c.regs[regRampMode] != 0 || c.regs[regVMax] == 0 {
		return
	}
	pos, target := int32(c.regs[regXActual]), int32(c.regs[regXTarget])
	step := int64(c.StepsPerPoll)
	if step == 0 {
		step = 1 << 32
	}
	delta := int64(target) - int64(pos)
	switch {
	case delta > step:
		delta = step
	case delta < -step:
		delta = -step
	}
	c.regs[regXActual] = uint32(int32(int64(pos) + delta))
}

func (c *TMC5240) reached() bool {
	return c.regs[regXActual] == c.regs[regXTarget]
}

func (c *TMC5240) rampStat() uint32 {
	if c.reached() {
		return rampStatPositionReached | rampStatVZero
	}
	return 0
}

func (c *TMC5240) status() uint8 {
	if c.reached() {
		return spiStatusPosReached | spiStatusStandstill
	}
	return 0
}

// Register returns the current value of a register.
func (c *TMC5240) Register(addr uint8) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[addr&0x7F]
}

// SetRegister forces a register, e.g. to inject DRV_STATUS faults.
func (c *TMC5240) SetRegister(addr uint8, value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[addr&0x7F] = value
}

// Writes returns every register write in order.
func (c *TMC5240) Writes() []RegWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RegWrite(nil), c.writes...)
}

// WritesTo returns the values written to addr, in order.
func (c *TMC5240) WritesTo(addr uint8) []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []uint32
	for _, w := range c.writes {
		if w.Addr == addr {
			out = append(out, w.Value)
		}
	}
	return out
}

// ResetWrites forgets the write log.
func (c *TMC5240) ResetWrites() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = nil
}
