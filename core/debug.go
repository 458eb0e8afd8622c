package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event type codes
const (
	EvtEnable     = 1 // enable/disable forwarded to a driver
	EvtMoveStart  = 2 // move accepted
	EvtMoveDone   = 3 // completion detected by update
	EvtLimitHit   = 4 // limit registered, motion stopped
	EvtStop       = 5 // forced stop
	EvtFault      = 6 // driver returned an error
	EvtLimitsArm  = 7 // limits enabled
	EvtTickBehind = 8 // tick delta far larger than the configured period
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the platform debug sink, no-op until a target sets one
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled gates DebugPrintln. Off by default so the motion tick
	// never pays for output.
	debugEnabled bool = false

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go func() {
		for msg := range debugChan {
			debugPrintln(msg)
		}
	}()
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Drops the message when the channel is full.
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// MotionEvent is one entry of an EventLog.
type MotionEvent struct {
	Seq       uint32 // monotonically increasing, 0 means empty slot
	EventType uint8
	ID        uint8 // stepper ID
	Value     int32 // context-dependent: target, position, switch index
}

// EventLog is a fixed-size ring of motion events. Recording never
// allocates or blocks for long, so it is safe from the tick and from
// limit interrupts.
type EventLog struct {
	cs   critical
	ring [EventRingSize]MotionEvent
	head uint8
	seq  uint32
}

// Record appends an event, overwriting the oldest when full.
func (l *EventLog) Record(eventType, id uint8, value int32) {
	if l == nil {
		return
	}
	st := l.cs.enter()
	l.seq++
	l.ring[l.head] = MotionEvent{Seq: l.seq, EventType: eventType, ID: id, Value: value}
	l.head = (l.head + 1) % EventRingSize
	l.cs.exit(st)
}

// Events returns the recorded events from oldest to newest.
func (l *EventLog) Events() []MotionEvent {
	if l == nil {
		return nil
	}
	st := l.cs.enter()
	defer l.cs.exit(st)
	out := make([]MotionEvent, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := l.ring[(l.head+i)%EventRingSize]
		if evt.Seq == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// Clear drops every recorded event.
func (l *EventLog) Clear() {
	if l == nil {
		return
	}
	st := l.cs.enter()
	l.ring = [EventRingSize]MotionEvent{}
	l.head = 0
	l.cs.exit(st)
}

// Dump writes the ring to the debug writer, regardless of debugEnabled.
// Call it after a fault, not from the tick.
func (l *EventLog) Dump() {
	debugPrintln("[MOTION] === Event Ring Dump ===")
	for _, evt := range l.Events() {
		debugPrintln("[MOTION] " + EventName(evt.EventType) +
			" seq=" + utoa(evt.Seq) +
			" id=" + itoa(int(evt.ID)) +
			" v=" + itoa(int(evt.Value)))
	}
	debugPrintln("[MOTION] === End Dump ===")
}

// EventName returns the printable name of an event code.
func EventName(eventType uint8) string {
	switch eventType {
	case EvtEnable:
		return "ENABLE"
	case EvtMoveStart:
		return "MOVE_START"
	case EvtMoveDone:
		return "MOVE_DONE"
	case EvtLimitHit:
		return "LIMIT_HIT"
	case EvtStop:
		return "STOP"
	case EvtFault:
		return "FAULT!"
	case EvtLimitsArm:
		return "LIMITS_ARM"
	case EvtTickBehind:
		return "TICK_BEHIND"
	default:
		return "UNKNOWN"
	}
}
