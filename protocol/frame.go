package protocol

import "errors"

var (
	ErrFrameTooLong = errors.New("frame exceeds maximum message length")
	ErrBadCRC       = errors.New("frame CRC mismatch")
)

// Frame is one decoded message block.
type Frame struct {
	Seq     uint8 // low four bits of the sequence byte
	Payload []byte
}

// NextSeq returns the sequence number following seq.
func NextSeq(seq uint8) uint8 {
	return (seq + 1) & MessageSeqMask
}

// AppendFrame appends a complete frame around payload:
// [len][0x10|seq][payload][crc hi][crc lo][0x7E]
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	msgLen := len(payload) + MessageLengthMin
	if msgLen > MessageLengthMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, byte(msgLen), MessageDest|(seq&MessageSeqMask))
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), MessageValueSync), nil
}

// EncodeFrame returns a frame around payload.
func EncodeFrame(seq uint8, payload []byte) ([]byte, error) {
	return AppendFrame(make([]byte, 0, len(payload)+MessageLengthMin), seq, payload)
}

// Decoder reassembles frames from a byte stream. Garbage and corrupted
// frames are skipped up to the next sync byte.
type Decoder struct {
	buf     []byte
	synced  bool
	Dropped int // bytes discarded while resynchronizing
}

// NewDecoder returns a Decoder that is synchronized on the first byte.
func NewDecoder() *Decoder {
	return &Decoder{synced: true, buf: make([]byte, 0, 2*MessageLengthMax)}
}

// Write buffers received bytes. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Next returns the next complete frame, or false if more input is
// needed. The returned payload is a copy owned by the caller.
func (d *Decoder) Next() (Frame, bool) {
	for len(d.buf) > 0 {
		if !d.synced {
			i := 0
			for i < len(d.buf) && d.buf[i] != MessageValueSync {
				i++
			}
			if i == len(d.buf) {
				d.drop(i)
				return Frame{}, false
			}
			d.drop(i + 1)
			d.synced = true
			continue
		}

		if d.buf[0] == MessageValueSync {
			d.consume(1)
			continue
		}
		if len(d.buf) < MessageLengthMin {
			return Frame{}, false
		}

		msgLen := int(d.buf[MessagePositionLen])
		seq := d.buf[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
			d.synced = false
			continue
		}
		if len(d.buf) < msgLen {
			return Frame{}, false
		}
		if d.buf[msgLen-MessageTrailerSync] != MessageValueSync {
			d.synced = false
			continue
		}
		crc := uint16(d.buf[msgLen-MessageTrailerCRC])<<8 | uint16(d.buf[msgLen-MessageTrailerCRC+1])
		if crc != CRC16(d.buf[:msgLen-MessageTrailerSize]) {
			d.synced = false
			continue
		}

		f := Frame{
			Seq:     seq & MessageSeqMask,
			Payload: append([]byte(nil), d.buf[MessageHeaderSize:msgLen-MessageTrailerSize]...),
		}
		d.consume(msgLen)
		return f, true
	}
	return Frame{}, false
}

// Buffered returns the number of bytes waiting for a complete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) drop(n int) {
	d.Dropped += n
	d.consume(n)
}

func (d *Decoder) consume(n int) {
	d.buf = d.buf[:copy(d.buf, d.buf[n:])]
}
