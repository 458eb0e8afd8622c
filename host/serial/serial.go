// Package serial opens the byte stream to the stepper controller.
package serial

import (
	"errors"
	"io"
	"net"
)

// Port is a serial connection to the controller. Besides the native port
// there is a connection-backed port for the in-process simulator.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read.
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate, ignored by USB CDC
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

var ErrNoDevice = errors.New("serial: no device given")

// DefaultConfig returns the settings for the controller's USB CDC port.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// ConnPort adapts a net.Conn, typically one end of net.Pipe.
type ConnPort struct {
	net.Conn
}

// FromConn wraps c as a Port.
func FromConn(c net.Conn) Port {
	return ConnPort{Conn: c}
}

// Flush is a no-op, a pipe holds no stale input.
func (ConnPort) Flush() error {
	return nil
}
