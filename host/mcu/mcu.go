// Package mcu is the host side of the stepper command link.
package mcu

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver"
	log "github.com/sirupsen/logrus"

	"gostep/core"
	"gostep/host/serial"
	"gostep/protocol"
)

// FirmwareConstraint is the range of firmware versions this host speaks.
const FirmwareConstraint = "~1"

var (
	ErrTimeout              = errors.New("mcu: timed out waiting for response")
	ErrClosed               = errors.New("mcu: connection closed")
	ErrIncompatibleFirmware = errors.New("mcu: incompatible firmware")
)

// EventKind tells completion from limit events.
type EventKind uint8

const (
	EventDone EventKind = iota + 1
	EventLimit
)

func (k EventKind) String() string {
	switch k {
	case EventDone:
		return "done"
	case EventLimit:
		return "limit"
	}
	return "unknown"
}

// Event is an asynchronous stepper_done or stepper_limit report.
type Event struct {
	Kind     EventKind
	OID      uint8
	Position int32
}

// StepperState is a decoded stepper_state response.
type StepperState struct {
	OID      uint8
	Position int32
	Target   int32
	Flags    uint8
}

func (s StepperState) Known() bool         { return s.Flags&core.StateUnknown == 0 }
func (s StepperState) Enabled() bool       { return s.Flags&core.StateEnabled != 0 }
func (s StepperState) Moving() bool        { return s.Flags&core.StateMoving != 0 }
func (s StepperState) LimitHit() bool      { return s.Flags&core.StateLimitHit != 0 }
func (s StepperState) LimitsEnabled() bool { return s.Flags&core.StateLimitsEnabled != 0 }
func (s StepperState) Fault() bool         { return s.Flags&core.StateFault != 0 }

// GroupState is a decoded group_state response.
type GroupState struct {
	Count  uint8
	Moving bool
}

// MCU is a connection to the stepper controller. Commands may be sent
// from several goroutines; requests expecting a response are serialized.
type MCU struct {
	port serial.Port
	dict *core.CommandRegistry
	log  *log.Entry

	// Timeout bounds every request and Wait.
	Timeout time.Duration

	wmu sync.Mutex // guards seq and writes to port
	seq uint8

	reqMu   sync.Mutex // one request in flight
	mu      sync.Mutex
	pending map[uint16]chan []byte

	events chan Event
	done   chan struct{}
	err    error // read error, valid once done is closed

	closeOnce sync.Once
	retryEOF  atomic.Bool // a read timeout on a tty reads as EOF

	version *semver.Version
}

// Connect opens the serial port described by cfg.
func Connect(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("mcu: flush %s: %w", cfg.Device, err)
	}
	return start(port, log.WithFields(log.Fields{"component": "mcu", "device": cfg.Device})), nil
}

// New starts a client on an open port.
func New(port serial.Port) *MCU {
	return start(port, log.WithField("component", "mcu"))
}

func start(port serial.Port, entry *log.Entry) *MCU {
	_, native := port.(*serial.NativePort)
	m := &MCU{
		port:    port,
		dict:    core.MotionDictionary(),
		log:     entry,
		Timeout: time.Second,
		pending: make(map[uint16]chan []byte),
		events:  make(chan Event, 32),
		done:    make(chan struct{}),
	}
	m.retryEOF.Store(native)
	go m.readLoop()
	return m
}

// Close shuts the port and stops the reader.
func (m *MCU) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.retryEOF.Store(false)
		err = m.port.Close()
	})
	<-m.done
	return err
}

// Events delivers stepper_done and stepper_limit reports. Events are
// dropped when nobody reads them.
func (m *MCU) Events() <-chan Event {
	return m.events
}

// Version returns the firmware version found by Identify, or nil.
func (m *MCU) Version() *semver.Version {
	return m.version
}

func (m *MCU) readLoop() {
	defer close(m.done)
	dec := protocol.NewDecoder()
	buf := make([]byte, 256)
	for {
		n, err := m.port.Read(buf)
		if n > 0 {
			dec.Write(buf[:n])
			for f, ok := dec.Next(); ok; f, ok = dec.Next() {
				m.handle(f.Payload)
			}
		}
		if err == io.EOF && m.retryEOF.Load() {
			continue
		}
		if err != nil {
			m.err = err
			if dec.Dropped > 0 {
				m.log.WithField("bytes", dec.Dropped).Warn("discarded corrupt input")
			}
			return
		}
	}
}

func (m *MCU) handle(payload []byte) {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		m.log.WithError(err).Warn("bad response id")
		return
	}
	cmd, ok := m.dict.GetCommand(uint16(id))
	if !ok {
		m.log.WithField("id", id).Warn("unknown response")
		return
	}

	switch cmd.Name {
	case core.MsgStepperDone, core.MsgStepperLimit:
		m.event(cmd.Name, payload)
		return
	}

	m.mu.Lock()
	ch := m.pending[cmd.ID]
	delete(m.pending, cmd.ID)
	m.mu.Unlock()
	if ch == nil {
		m.log.WithField("msg", cmd.Name).Debug("unsolicited response")
		return
	}
	ch <- payload
}

func (m *MCU) event(name string, payload []byte) {
	oid, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		m.log.WithError(err).Warn("bad event")
		return
	}
	pos, err := protocol.DecodeVLQInt(&payload)
	if err != nil {
		m.log.WithError(err).Warn("bad event")
		return
	}

	evt := Event{Kind: EventDone, OID: uint8(oid), Position: pos}
	if name == core.MsgStepperLimit {
		evt.Kind = EventLimit
	}
	m.log.WithFields(log.Fields{"oid": evt.OID, "pos": pos}).Debugf("stepper %s", evt.Kind)

	select {
	case m.events <- evt:
	default:
		m.log.WithField("oid", evt.OID).Warn("event queue full, dropping")
	}
}

// send frames one command. args appends the encoded arguments.
func (m *MCU) send(name string, args func([]byte) []byte) error {
	id, ok := m.dict.Lookup(name)
	if !ok {
		return fmt.Errorf("mcu: unknown command %s", name)
	}
	payload := protocol.AppendVLQUint(nil, uint32(id))
	if args != nil {
		payload = args(payload)
	}

	m.wmu.Lock()
	defer m.wmu.Unlock()
	frame, err := protocol.EncodeFrame(m.seq, payload)
	if err != nil {
		return fmt.Errorf("mcu: %s: %w", name, err)
	}
	m.seq = protocol.NextSeq(m.seq)

	m.log.WithField("cmd", name).Debug("send")
	if _, err := m.port.Write(frame); err != nil {
		return fmt.Errorf("mcu: write %s: %w", name, err)
	}
	return nil
}

// request sends a command and waits for the named response.
func (m *MCU) request(name, response string, args func([]byte) []byte) ([]byte, error) {
	m.reqMu.Lock()
	defer m.reqMu.Unlock()

	respID := m.dict.MustLookup(response)
	ch := make(chan []byte, 1)
	m.mu.Lock()
	m.pending[respID] = ch
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pending, respID)
		m.mu.Unlock()
	}()

	if err := m.send(name, args); err != nil {
		return nil, err
	}

	timer := time.NewTimer(m.Timeout)
	defer timer.Stop()
	select {
	case data := <-ch:
		return data, nil
	case <-timer.C:
		return nil, fmt.Errorf("%s: %w", name, ErrTimeout)
	case <-m.done:
		return nil, m.closedErr()
	}
}

func (m *MCU) closedErr() error {
	if m.err != nil && m.err != io.EOF {
		return fmt.Errorf("%w: %v", ErrClosed, m.err)
	}
	return ErrClosed
}

// Identify asks for the firmware version and checks it against
// FirmwareConstraint.
func (m *MCU) Identify() (*semver.Version, error) {
	data, err := m.request(core.MsgIdentify, core.MsgIdentifyResponse, nil)
	if err != nil {
		return nil, err
	}
	raw, err := protocol.DecodeVLQString(&data)
	if err != nil {
		return nil, fmt.Errorf("mcu: identify_response: %w", err)
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: version %q: %v", ErrIncompatibleFirmware, raw, err)
	}
	c, err := semver.NewConstraint(FirmwareConstraint)
	if err != nil {
		return nil, err
	}
	if !c.Check(v) {
		return nil, fmt.Errorf("%w: version %s, require %s", ErrIncompatibleFirmware, v, FirmwareConstraint)
	}

	m.version = v
	m.log.WithField("version", v.String()).Info("firmware identified")
	return v, nil
}

// Wait blocks until a done or limit event for oid arrives. Events for
// other steppers are discarded.
func (m *MCU) Wait(oid uint8, timeout time.Duration) (Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case evt := <-m.events:
			if evt.OID == oid {
				return evt, nil
			}
			m.log.WithField("oid", evt.OID).Debug("skipping event while waiting")
		case <-timer.C:
			return Event{}, fmt.Errorf("wait for stepper %d: %w", oid, ErrTimeout)
		case <-m.done:
			return Event{}, m.closedErr()
		}
	}
}
