//go:build rp2040

package main

import (
	"io"
	"machine"
)

// machine.Serial is the USB CDC-ACM port on RP2040; the runtime sets up
// the descriptors.
func initUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// usbRead drains what the CDC endpoint has buffered into buf.
func usbRead(buf []byte) int {
	n := 0
	for n < len(buf) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			break
		}
		buf[n] = b
		n++
	}
	return n
}

// usbWriter writes frames to the CDC port, counting failed writes. A host
// that stopped reading must not stall the motion loop, so short writes
// drop the rest of the frame.
type usbWriter struct {
	failures uint32
}

func (w *usbWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := machine.Serial.Write(p[written:])
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			w.failures++
			return written + n, err
		}
		written += n
	}
	return written, nil
}
